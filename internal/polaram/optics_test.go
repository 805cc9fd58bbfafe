package polaram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertStokes(t *testing.T, want, got Stokes) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "S%d of %v", i, got)
	}
}

func assertMat4(t *testing.T, want, got Mat4) {
	t.Helper()
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			assert.InDelta(t, want.M[r][c], got.M[r][c], 1e-12, "(%d,%d)", r, c)
		}
	}
}

func TestHalfWavePlateTurnsHorizontalToVertical(t *testing.T) {
	assertStokes(t, Stokes{1, -1, 0, 0}, HalfWavePlate(45).MulStokes(Horizontal))
	assertStokes(t, Horizontal, HalfWavePlate(0).MulStokes(Horizontal))
	// 22.5° turns the plane by 45°
	assertStokes(t, Stokes{1, 0, 1, 0}, HalfWavePlate(22.5).MulStokes(Horizontal))
}

func TestQuarterWavePlateMakesCircular(t *testing.T) {
	out := QuarterWavePlate(45).MulStokes(Horizontal)
	assertStokes(t, Stokes{1, 0, 0, -1}, out)
	assert.InDelta(t, 1, out.DegreeOfPolarization(), 1e-12)
	// two quarter wave plates make a half wave plate
	assertMat4(t, HalfWavePlate(45), QuarterWavePlate(45).Mul(QuarterWavePlate(45)))
}

func TestGeneralLinearRetarderRotation(t *testing.T) {
	assertMat4(t, rotateElement(GeneralLinearRetarder(0, 60), deg2rad(30)), GeneralLinearRetarder(30, 60))
	assertMat4(t, I4(), GeneralLinearRetarder(17, 0))
}

func TestPolarizers(t *testing.T) {
	assertMat4(t, LinearVerticalPolarizer(0), LinearHorizontalPolarizer(90))
	assertStokes(t, Horizontal, LinearHorizontalPolarizer(0).MulStokes(Horizontal))
	assertStokes(t, Stokes{}, LinearVerticalPolarizer(0).MulStokes(Horizontal))
	// Malus: half the light passes a polarizer at 45°
	assertStokes(t, Stokes{0.5, 0, 0.5, 0}, LinearHorizontalPolarizer(45).MulStokes(Horizontal))
}

func TestFilterAndDepolarizer(t *testing.T) {
	f, err := AttenuatingFilter(0.25)
	require.NoError(t, err)
	assertStokes(t, Stokes{0.25, 0.25, 0, 0}, f.MulStokes(Horizontal))
	_, err = AttenuatingFilter(1.5)
	require.ErrorIs(t, err, ErrInstructionArguments)

	d, err := Depolarizer(0.5)
	require.NoError(t, err)
	out := d.MulStokes(Horizontal)
	assert.InDelta(t, 0.5, out.DegreeOfPolarization(), 1e-12)
	_, err = Depolarizer(-0.1)
	require.ErrorIs(t, err, ErrInstructionArguments)
}

func TestParseStokes(t *testing.T) {
	s, err := ParseStokes("1,0, 1,0")
	require.NoError(t, err)
	assert.Equal(t, Stokes{1, 0, 1, 0}, s)

	_, err = ParseStokes("1,1,0")
	require.ErrorIs(t, err, ErrInstructionArguments)
	_, err = ParseStokes("1,2,0,0")
	require.ErrorIs(t, err, ErrInstructionArguments)
	_, err = ParseStokes("-1,0,0,0")
	require.ErrorIs(t, err, ErrInstructionArguments)
}

func TestCheckScatterable(t *testing.T) {
	require.NoError(t, checkScatterable(Horizontal))
	require.NoError(t, checkScatterable(Stokes{2, 0, -2, 0}))
	require.ErrorIs(t, checkScatterable(Stokes{1, 0, 0, 1}), ErrUnsupportedPolarization)
	require.ErrorIs(t, checkScatterable(Stokes{1, 0.5, 0, 0}), ErrUnsupportedPolarization)
}
