package polaram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"
)

// ConvertOptions configures one conversion of a tensor file.
type ConvertOptions struct {
	TensorFile string
	Config     ConvertConfig
	Invocation string         // command line, recorded in output headers
	Store      *Store         // optional; required for Config.Resume
	OnFailure  FailureHandler // asked when a batch does not converge
}

// ConvertResult lists what a conversion produced.
type ConvertResult struct {
	State        *RunState
	History      *History
	Output       string
	TensorOutput string
	Manifest     string
}

func failureHandler(cfg ConvertConfig, ask FailureHandler) FailureHandler {
	switch {
	case cfg.Yes && cfg.MaxExtensions > 0:
		return AutoExtend(cfg.MaxExtensions, nil)
	case cfg.Yes:
		return AutoExtend(math.MaxInt, nil)
	case cfg.MaxExtensions > 0:
		return AutoExtend(cfg.MaxExtensions, ask)
	default:
		return ask
	}
}

// Convert turns the raman tensors of opts.TensorFile into orientation-averaged
// Mueller matrices and writes them with their diagnostics. Output files are
// written only for a converged run; a declined run returns ErrValidationFailed.
func Convert(ctx context.Context, opts ConvertOptions) (*ConvertResult, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tensors, err := ReadTensorFile(opts.TensorFile)
	if err != nil {
		return nil, err
	}
	Log.Infof("read %d raman tensors from %s", len(tensors), opts.TensorFile)

	history := NewHistory()
	var st *RunState
	if cfg.Resume != "" {
		if opts.Store == nil {
			return nil, fmt.Errorf("%w: resume needs a run store", ErrInvalidParameter)
		}
		if st, err = opts.Store.LoadRun(ctx, cfg.Resume); err != nil {
			return nil, err
		}
		if err := checkHeads(st.Means, tensors); err != nil {
			return nil, fmt.Errorf("resume %s: %w", st.ID, err)
		}
		if fp := Fingerprint(tensors); fp != st.Fingerprint {
			return nil, fmt.Errorf("%w: resume %s from %s (run started from %s)", ErrTensorMismatch, st.ID, opts.TensorFile, st.Source)
		}
		if history, err = opts.Store.Validations(ctx, st.ID); err != nil {
			return nil, err
		}
		st.BatchSamples = cfg.Samples
		st.Precision = cfg.Precision
		Log.Infof("resuming run %s at %d samples (%s)", st.ID, st.TotalSamples, st.Status)
	} else {
		st = NewRunState(opts.TensorFile, tensors, cfg.Samples, cfg.Precision, cfg.Seed)
	}

	ctrl := &Controller{
		Sampler:   NewSampler(cfg.Workers, cfg.ChunkSize, st.Seed),
		Tensors:   tensors,
		OnFailure: failureHandler(cfg, opts.OnFailure),
		History:   history,
	}
	if opts.Store != nil {
		ctrl.Store = opts.Store
	}

	res := &ConvertResult{
		State:        st,
		History:      history,
		Output:       cfg.Output,
		TensorOutput: sidecarPath(cfg.Output, ".tensors"+filepath.Ext(cfg.Output)),
		Manifest:     sidecarPath(cfg.Output, ".yaml"),
	}

	start := time.Now()
	runErr := ctrl.Run(ctx, st)
	Log.Infof("run %s finished as %s after %d samples in %s", st.ID, st.Status, st.TotalSamples, time.Since(start).Round(time.Millisecond))
	history.logStats()

	if runErr != nil {
		if errors.Is(runErr, ErrValidationFailed) {
			if err := writeManifest(res, opts, st); err != nil {
				Log.WithError(err).Warn("manifest not written")
			}
		}
		return res, runErr
	}

	header := outputHeader(opts.Invocation, st, cfg)
	if err := WriteMatrixFile(res.Output, header, MuellerEntries(st.Means)); err != nil {
		return res, fmt.Errorf("write mueller matrices: %w", err)
	}
	if err := WriteMatrixFile(res.TensorOutput, header, TensorEntries(st.Means)); err != nil {
		return res, fmt.Errorf("write mean tensors: %w", err)
	}
	if err := writeManifest(res, opts, st); err != nil {
		return res, err
	}
	if cfg.Plot != "" {
		if err := SaveConvergencePlot(history, cfg.Plot); err != nil {
			return res, fmt.Errorf("convergence plot: %w", err)
		}
	}
	if cfg.Chart != "" {
		if err := SaveConvergenceChart(history, cfg.Chart); err != nil {
			return res, fmt.Errorf("convergence chart: %w", err)
		}
	}
	Log.Infof("wrote %s, %s and %s", res.Output, res.TensorOutput, res.Manifest)
	return res, nil
}

func writeManifest(res *ConvertResult, opts ConvertOptions, st *RunState) error {
	cfg := opts.Config
	return WriteManifest(res.Manifest, &Manifest{
		RunID:        st.ID,
		Source:       opts.TensorFile,
		Output:       res.Output,
		Tensors:      res.TensorOutput,
		Status:       st.Status,
		BatchSamples: st.BatchSamples,
		TotalSamples: st.TotalSamples,
		Batches:      st.Batches,
		Workers:      cfg.Workers,
		ChunkSize:    cfg.ChunkSize,
		Precision:    st.Precision,
		Seed:         st.Seed,
		Comment:      cfg.Comment,
		Written:      time.Now().UTC(),
		Modes:        st.Reports,
		Summary:      res.History.Stats(),
	})
}

func outputHeader(invocation string, st *RunState, cfg ConvertConfig) []string {
	h := []string{
		"polaram convert " + invocation,
		fmt.Sprintf("tensor file: %s, samples per batch: %d, total samples: %d, precision: %d, workers: %d, chunk size: %d",
			st.Source, st.BatchSamples, st.TotalSamples, st.Precision, cfg.Workers, cfg.ChunkSize),
		"run: " + st.ID,
		"execution time: " + time.Now().Format("2006-01-02 15:04:05"),
	}
	if cfg.Comment != "" {
		h = append(h, cfg.Comment)
	}
	return h
}

// SimulateOptions configures one run of an instruction file.
type SimulateOptions struct {
	PlanFile   string
	Config     SimulateConfig
	Lasers     []Stokes
	Comment    string
	Invocation string
	Stdout     io.Writer
}

// Simulate runs the instruction file once per laser, prints the result
// unless silent and writes or appends it to the output file.
func Simulate(opts SimulateOptions) ([]SimulationResult, error) {
	cfg := opts.Config
	f, err := os.Open(opts.PlanFile)
	if err != nil {
		return nil, err
	}
	plan, err := ReadPlan(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	var samples []MuellerSample
	if cfg.Mueller != "" {
		if samples, err = ReadMuellerFile(cfg.Mueller); err != nil {
			return nil, err
		}
	}
	lasers := opts.Lasers
	if len(lasers) == 0 {
		for i, l := range cfg.Lasers {
			s, err := StokesFromSlice(l)
			if err != nil {
				return nil, fmt.Errorf("laser %d: %w", i+1, err)
			}
			lasers = append(lasers, s)
		}
	}
	if len(lasers) == 0 {
		lasers = []Stokes{Horizontal}
	}

	sim := NewSimulator(NewDecoder(), samples, cfg.UnpolarizedScattering)
	results, err := sim.SimulateAll(plan, lasers)
	if err != nil {
		return nil, err
	}

	if !cfg.Silent && opts.Stdout != nil {
		if err := WriteSimulation(opts.Stdout, results, cfg.Raw); err != nil {
			return results, err
		}
	}
	if cfg.Output == "" {
		return results, nil
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if cfg.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	out, err := os.OpenFile(cfg.Output, flags, 0o644)
	if err != nil {
		return results, err
	}
	fmt.Fprintf(out, "# polaram simulate %s\n# execution time: %s\n", opts.Invocation, time.Now().Format("2006-01-02 15:04:05"))
	if opts.Comment != "" {
		fmt.Fprintf(out, "# %s\n", opts.Comment)
	}
	if err := WriteSimulation(out, results, cfg.Raw); err != nil {
		out.Close()
		return results, err
	}
	if err := out.Close(); err != nil {
		return results, err
	}
	Log.Infof("wrote %d simulation(s) to %s", len(results), cfg.Output)
	return results, nil
}
