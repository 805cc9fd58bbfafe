package polaram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderDecodesEveryInstruction(t *testing.T) {
	d := NewDecoder()
	lines := map[string]Decoded{
		"LSR 1 1 0 0": StokesVector{S: Horizontal},
		"GLR 30 60":   MuellerMatrix{M: GeneralLinearRetarder(30, 60)},
		"HWP 45":      MuellerMatrix{M: HalfWavePlate(45)},
		"QWP 10":      MuellerMatrix{M: QuarterWavePlate(10)},
		"LHP":         MuellerMatrix{M: LinearHorizontalPolarizer(0)},
		"LHP 30":      MuellerMatrix{M: LinearHorizontalPolarizer(30)},
		"LVP":         MuellerMatrix{M: LinearVerticalPolarizer(0)},
		"FLR 1":       MuellerMatrix{M: I4()},
		"DPL 1":       MuellerMatrix{M: I4()},
		"OF3":         MuellerMatrix{M: FiberF3()},
		"NOP":         MuellerMatrix{M: I4()},
		"SMP":         SampleRequest{},
		"":            MuellerMatrix{M: I4()},
		"   ":         MuellerMatrix{M: I4()},
		"# HWP 45":    MuellerMatrix{M: I4()},
	}
	for line, want := range lines {
		got, err := d.Decode(line)
		require.NoError(t, err, line)
		assert.Equal(t, want, got, line)
	}
}

func TestDecoderErrors(t *testing.T) {
	d := NewDecoder()
	_, err := d.Decode("XYZ 1")
	require.ErrorIs(t, err, ErrUnknownInstruction)
	_, err = d.Decode("hwp 45")
	require.ErrorIs(t, err, ErrUnknownInstruction, "tags are case sensitive")

	for _, line := range []string{"HWP", "HWP 1 2", "GLR 1", "LHP 1 2", "FLR x", "FLR 2", "DPL -1", "LSR 1 1 0", "LSR 1 2 0 0", "OF3 1", "QWP inf"} {
		_, err := d.Decode(line)
		require.ErrorIs(t, err, ErrInstructionArguments, line)
	}
}

func TestDecoderInstructionTable(t *testing.T) {
	ins := NewDecoder().Instructions()
	tags := make([]string, len(ins))
	for i, in := range ins {
		tags[i] = in.Tag
		assert.NotEmpty(t, in.Help, in.Tag)
		assert.NotEmpty(t, in.Kind, in.Tag)
	}
	assert.Equal(t, []string{"LSR", "GLR", "HWP", "QWP", "LHP", "LVP", "FLR", "DPL", "OF3", "NOP", "SMP"}, tags)

	in, ok := NewDecoder().Lookup("LHP")
	require.True(t, ok)
	req, total := in.arity()
	assert.Equal(t, 0, req)
	assert.Equal(t, 1, total)
}

func TestDecoderSelect(t *testing.T) {
	d := NewDecoder()
	all, err := d.Select()
	require.NoError(t, err)
	assert.Len(t, all, len(d.Instructions()))

	ins, err := d.Select("smp", "HWP")
	require.NoError(t, err)
	require.Len(t, ins, 2)
	assert.Equal(t, "SMP", ins[0].Tag)
	assert.Equal(t, KindWavePlate, ins[1].Kind)

	_, err = d.Select("HWP", "XYZ")
	require.ErrorIs(t, err, ErrUnknownInstruction)
}
