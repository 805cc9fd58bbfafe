package polaram

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind groups instructions by the optical element they describe.
type Kind string

const (
	KindNewState    Kind = "new state"
	KindRetarder    Kind = "retarder"
	KindWavePlate   Kind = "wave plate"
	KindPolarizer   Kind = "polarizer"
	KindFilter      Kind = "filter"
	KindDepolarizer Kind = "depolarizer"
	KindFiber       Kind = "fiber"
	KindIdentity    Kind = "identity"
	KindSample      Kind = "sample"
)

// Decoded is the result of decoding one instruction line:
// a StokesVector, a MuellerMatrix or a SampleRequest.
type Decoded interface {
	decoded()
}

// StokesVector replaces the state of the simulation.
type StokesVector struct{ S Stokes }

// MuellerMatrix is applied to every state.
type MuellerMatrix struct{ M Mat4 }

// SampleRequest applies the sample's Mueller matrix of each mode.
type SampleRequest struct{}

func (StokesVector) decoded()  {}
func (MuellerMatrix) decoded() {}
func (SampleRequest) decoded() {}

// Instruction describes one command tag.
type Instruction struct {
	Tag    string
	Kind   Kind
	Params []string // parameter names; a trailing "?" marks an optional one
	Help   string
	build  func(args []float64) (Decoded, error)
}

func (in Instruction) arity() (required, total int) {
	for _, p := range in.Params {
		if !strings.HasSuffix(p, "?") {
			required++
		}
	}
	return required, len(in.Params)
}

// Decoder turns instruction lines into Decoded values. It is immutable after NewDecoder.
type Decoder struct {
	table map[string]Instruction
	order []string
}

func matrix(m Mat4) (Decoded, error) { return MuellerMatrix{M: m}, nil }

func optional(args []float64, i int) float64 {
	if i < len(args) {
		return args[i]
	}
	return 0
}

func NewDecoder() *Decoder {
	ins := []Instruction{
		{Tag: "LSR", Kind: KindNewState, Params: []string{"s0", "s1", "s2", "s3"}, Help: "laser: reset the stokes vector",
			build: func(a []float64) (Decoded, error) {
				s, err := StokesFromSlice(a)
				if err != nil {
					return nil, err
				}
				return StokesVector{S: s}, nil
			}},
		{Tag: "GLR", Kind: KindRetarder, Params: []string{"theta", "delta"}, Help: "general linear retarder, fast axis theta, retardance delta (degrees)",
			build: func(a []float64) (Decoded, error) { return matrix(GeneralLinearRetarder(a[0], a[1])) }},
		{Tag: "HWP", Kind: KindWavePlate, Params: []string{"theta"}, Help: "half wave plate, fast axis theta (degrees)",
			build: func(a []float64) (Decoded, error) { return matrix(HalfWavePlate(a[0])) }},
		{Tag: "QWP", Kind: KindWavePlate, Params: []string{"theta"}, Help: "quarter wave plate, fast axis theta (degrees)",
			build: func(a []float64) (Decoded, error) { return matrix(QuarterWavePlate(a[0])) }},
		{Tag: "LHP", Kind: KindPolarizer, Params: []string{"angle?"}, Help: "horizontal linear polarizer (along x), optionally turned by angle (degrees)",
			build: func(a []float64) (Decoded, error) { return matrix(LinearHorizontalPolarizer(optional(a, 0))) }},
		{Tag: "LVP", Kind: KindPolarizer, Params: []string{"angle?"}, Help: "vertical linear polarizer (along y), optionally turned by angle (degrees)",
			build: func(a []float64) (Decoded, error) { return matrix(LinearVerticalPolarizer(optional(a, 0))) }},
		{Tag: "FLR", Kind: KindFilter, Params: []string{"transmission"}, Help: "attenuating filter, transmission in [0,1]",
			build: func(a []float64) (Decoded, error) {
				m, err := AttenuatingFilter(a[0])
				if err != nil {
					return nil, err
				}
				return MuellerMatrix{M: m}, nil
			}},
		{Tag: "DPL", Kind: KindDepolarizer, Params: []string{"p"}, Help: "depolarizer keeping the fraction p in [0,1] polarized",
			build: func(a []float64) (Decoded, error) {
				m, err := Depolarizer(a[0])
				if err != nil {
					return nil, err
				}
				return MuellerMatrix{M: m}, nil
			}},
		{Tag: "OF3", Kind: KindFiber, Help: "measured multi-mode optical fiber F3",
			build: func([]float64) (Decoded, error) { return matrix(FiberF3()) }},
		{Tag: "NOP", Kind: KindIdentity, Help: "no operation",
			build: func([]float64) (Decoded, error) { return matrix(I4()) }},
		{Tag: "SMP", Kind: KindSample, Help: "raman scattering by the sample (mueller matrix file)",
			build: func([]float64) (Decoded, error) { return SampleRequest{}, nil }},
	}
	d := &Decoder{table: make(map[string]Instruction, len(ins))}
	for _, in := range ins {
		d.table[in.Tag] = in
		d.order = append(d.order, in.Tag)
	}
	return d
}

// Instructions returns the instruction table in definition order.
func (d *Decoder) Instructions() []Instruction {
	out := make([]Instruction, 0, len(d.order))
	for _, tag := range d.order {
		out = append(out, d.table[tag])
	}
	return out
}

// Lookup finds an instruction by tag (case sensitive).
func (d *Decoder) Lookup(tag string) (Instruction, bool) {
	in, ok := d.table[tag]
	return in, ok
}

// Select returns the instructions named by tags in the given order; no tags
// selects the whole table.
func (d *Decoder) Select(tags ...string) ([]Instruction, error) {
	if len(tags) == 0 {
		return d.Instructions(), nil
	}
	out := make([]Instruction, 0, len(tags))
	for _, tag := range tags {
		in, ok := d.Lookup(strings.ToUpper(tag))
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownInstruction, tag, strings.Join(d.sortedTags(), " "))
		}
		out = append(out, in)
	}
	return out, nil
}

// Decode reads one instruction line. Blank and '#' lines decode to the identity.
func (d *Decoder) Decode(line string) (Decoded, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return MuellerMatrix{M: I4()}, nil
	}
	in, ok := d.table[fields[0]]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownInstruction, fields[0], strings.Join(d.sortedTags(), " "))
	}
	args := fields[1:]
	lo, hi := in.arity()
	if len(args) < lo || len(args) > hi {
		want := strconv.Itoa(lo)
		if hi != lo {
			want = fmt.Sprintf("%d to %d", lo, hi)
		}
		return nil, fmt.Errorf("%w: %s takes %s arguments, got %d", ErrInstructionArguments, in.Tag, want, len(args))
	}
	vals := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil || !isFinite(v) {
			return nil, fmt.Errorf("%w: %s argument %d: %q is not a number", ErrInstructionArguments, in.Tag, i+1, a)
		}
		vals[i] = v
	}
	out, err := in.build(vals)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Tag, err)
	}
	return out, nil
}

func (d *Decoder) sortedTags() []string {
	tags := append([]string(nil), d.order...)
	sort.Strings(tags)
	return tags
}
