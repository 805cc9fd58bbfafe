package polaram

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ModeState is the light leaving the setup for one sample mode.
type ModeState struct {
	Head    string
	Initial Stokes
	State   Stokes
}

// Simulator pushes one Stokes state per sample mode through an instruction plan.
type Simulator struct {
	decoder          *Decoder
	samples          []MuellerSample
	allowUnpolarized bool
	states           []ModeState
}

// NewSimulator prepares a simulator over samples. Without samples a single
// identity "unit" sample is used, so SMP behaves like NOP.
func NewSimulator(d *Decoder, samples []MuellerSample, allowUnpolarized bool) *Simulator {
	if len(samples) == 0 {
		Log.Warn("no mueller matrix file given: SMP acts as NOP")
		samples = []MuellerSample{{Head: UnitSampleHead, M: I4()}}
	}
	s := &Simulator{decoder: d, samples: samples, allowUnpolarized: allowUnpolarized}
	s.states = make([]ModeState, len(samples))
	for i, m := range samples {
		s.states[i].Head = m.Head
	}
	return s
}

// Reset sets every mode to laser.
func (s *Simulator) Reset(laser Stokes) {
	for i := range s.states {
		s.states[i].Initial = laser
		s.states[i].State = laser
	}
}

// States returns a copy of the current per-mode states.
func (s *Simulator) States() []ModeState {
	return append([]ModeState(nil), s.states...)
}

// Step decodes and applies one instruction line; step is 1-based and used in errors.
func (s *Simulator) Step(step int, line string) error {
	dec, err := s.decoder.Decode(line)
	if err != nil {
		return fmt.Errorf("line %d %q: %w", step, strings.TrimSpace(line), err)
	}
	switch v := dec.(type) {
	case StokesVector:
		s.Reset(v.S)
	case MuellerMatrix:
		for i := range s.states {
			s.states[i].State = v.M.MulStokes(s.states[i].State)
		}
	case SampleRequest:
		for i := range s.states {
			if !s.allowUnpolarized {
				if err := checkScatterable(s.states[i].State); err != nil {
					return fmt.Errorf("line %d, mode %q: %w", step, s.states[i].Head, err)
				}
			}
			s.states[i].State = s.samples[i].M.MulStokes(s.states[i].State)
		}
	default:
		return fmt.Errorf("line %d: unexpected decoded value %T", step, dec)
	}
	if Debug {
		for _, st := range s.states {
			Log.WithFields(logrus.Fields{"step": step, "mode": st.Head}).Debugf("state %v", st.State)
		}
	}
	return nil
}

// Run resets to laser and executes the plan.
func (s *Simulator) Run(plan []string, laser Stokes) ([]ModeState, error) {
	s.Reset(laser)
	for i, line := range plan {
		if err := s.Step(i+1, line); err != nil {
			return nil, err
		}
	}
	return s.States(), nil
}

// SimulationResult is the outcome of one laser.
type SimulationResult struct {
	Laser Stokes
	Modes []ModeState
}

// SimulateAll runs the same plan once per laser.
func (s *Simulator) SimulateAll(plan []string, lasers []Stokes) ([]SimulationResult, error) {
	out := make([]SimulationResult, 0, len(lasers))
	for i, l := range lasers {
		modes, err := s.Run(plan, l)
		if err != nil {
			return nil, fmt.Errorf("laser %d: %w", i+1, err)
		}
		out = append(out, SimulationResult{Laser: l, Modes: modes})
	}
	return out, nil
}

// ReadPlan splits an instruction file into lines.
func ReadPlan(r io.Reader) ([]string, error) {
	var plan []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		plan = append(plan, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return plan, nil
}

func fmtStokes(s Stokes, sep string) string {
	parts := make([]string, 4)
	for i, v := range s {
		parts[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return strings.Join(parts, sep)
}

// WriteSimulation prints results as a readable block, or with raw as a
// tab-separated table with one row per laser and mode.
func WriteSimulation(w io.Writer, results []SimulationResult, raw bool) error {
	bw := bufio.NewWriter(w)
	if raw {
		fmt.Fprintln(bw, "laser\thead\tin_s0\tin_s1\tin_s2\tin_s3\tout_s0\tout_s1\tout_s2\tout_s3")
		for i, r := range results {
			for _, m := range r.Modes {
				fmt.Fprintf(bw, "%d\t%s\t%s\t%s\n", i+1, m.Head, fmtStokes(m.Initial, "\t"), fmtStokes(m.State, "\t"))
			}
		}
		return bw.Flush()
	}
	for i, r := range results {
		fmt.Fprintf(bw, "Laser %d: [ %s ]\n", i+1, fmtStokes(r.Laser, " "))
		for _, m := range r.Modes {
			fmt.Fprintf(bw, "  %-20s [ %s ]  DOP %.4f\n", m.Head, fmtStokes(m.State, " "), m.State.DegreeOfPolarization())
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
