package polaram

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Status is the run controller state.
type Status string

const (
	StatusSampling   Status = "SAMPLING"
	StatusValidating Status = "VALIDATING"
	StatusConverged  Status = "CONVERGED"
	StatusAskUser    Status = "ASK_USER"
	StatusAborted    Status = "ABORTED"
)

// Decision is the caller's answer to a failed validation.
type Decision int

const (
	Abort Decision = iota
	Continue
)

func (d Decision) String() string {
	if d == Continue {
		return "continue"
	}
	return "abort"
}

// ConvergenceFailure is what the caller sees in ASK_USER.
type ConvergenceFailure struct {
	RunID        string
	Failed       []ConvergenceReport
	Reports      []ConvergenceReport
	TotalSamples int64
	Extensions   int // batches sampled so far beyond the first
}

// FailureHandler decides whether an unconverged run is extended by one more batch.
type FailureHandler func(ConvergenceFailure) Decision

// AutoExtend continues up to limit times without asking, then defers to next
// (nil next aborts). limit <= 0 defers immediately.
func AutoExtend(limit int, next FailureHandler) FailureHandler {
	return func(f ConvergenceFailure) Decision {
		if f.Extensions < limit {
			return Continue
		}
		if next == nil {
			return Abort
		}
		return next(f)
	}
}

// RunState is everything needed to continue a run, possibly in another process.
type RunState struct {
	ID           string
	Source       string // tensor file the run was started from
	Fingerprint  string // Fingerprint of the tensors
	TotalSamples int64
	BatchSamples int64
	NextChunk    int64
	Seed         int64
	Precision    int
	Batches      int
	Means        []RunningMean
	Reports      []ConvergenceReport
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewRunState starts an empty run over tensors.
func NewRunState(source string, tensors []RamanTensor, batchSamples int64, precision int, seed int64) *RunState {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := time.Now().UTC()
	return &RunState{
		ID:           uuid.New().String(),
		Source:       source,
		Fingerprint:  Fingerprint(tensors),
		BatchSamples: batchSamples,
		Seed:         seed,
		Precision:    precision,
		Means:        NewRunningMeans(tensors),
		Status:       StatusSampling,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Checkpointer persists run progress. Store implements it.
type Checkpointer interface {
	SaveRun(ctx context.Context, st *RunState) error
	RecordValidation(ctx context.Context, runID string, batch int, samples int64, reports []ConvergenceReport) error
}

// Controller drives SAMPLING -> VALIDATING -> CONVERGED | ASK_USER and
// ASK_USER -> SAMPLING | ABORTED.
type Controller struct {
	Sampler   *Sampler
	Tensors   []RamanTensor
	OnFailure FailureHandler
	Store     Checkpointer // optional
	History   *History     // optional
}

func (c *Controller) transition(st *RunState, to Status) {
	Log.WithFields(logrus.Fields{
		"run":     st.ID,
		"from":    st.Status,
		"to":      to,
		"samples": st.TotalSamples,
	}).Debug("state transition")
	st.Status = to
	st.UpdatedAt = time.Now().UTC()
}

func (c *Controller) checkpoint(ctx context.Context, st *RunState) error {
	if c.Store == nil {
		return nil
	}
	if err := c.Store.SaveRun(ctx, st); err != nil {
		return fmt.Errorf("checkpoint run %s: %w", st.ID, err)
	}
	return nil
}

func (c *Controller) validateParams(st *RunState) error {
	if c.Sampler == nil {
		return fmt.Errorf("%w: no sampler", ErrInvalidParameter)
	}
	if len(c.Tensors) == 0 {
		return fmt.Errorf("%w: no tensors", ErrInvalidParameter)
	}
	if st.BatchSamples <= 0 {
		return fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidParameter, st.BatchSamples)
	}
	if st.Precision <= 0 {
		return fmt.Errorf("%w: precision must be positive, got %d", ErrInvalidParameter, st.Precision)
	}
	return checkHeads(st.Means, c.Tensors)
}

// Run samples one batch and validates it, extending while OnFailure says so.
// A resumed state (TotalSamples > 0) keeps its running means and adds a batch
// before validating again. It returns nil once every mode converges and
// ErrValidationFailed when the caller declines to extend.
func (c *Controller) Run(ctx context.Context, st *RunState) error {
	if err := c.validateParams(st); err != nil {
		return err
	}
	// No analytic reference means nothing to compare against: fail before sampling.
	for _, t := range c.Tensors {
		ratio, err := AnalyticRatio(t.M)
		if err != nil {
			return fmt.Errorf("mode %q: %w", t.Head, err)
		}
		if !isFinite(ratio) {
			return fmt.Errorf("%w: mode %q has no depolarization ratio (zero tensor)", ErrInvalidParameter, t.Head)
		}
	}
	c.Sampler.Seed = st.Seed
	if err := c.checkpoint(ctx, st); err != nil {
		return err
	}
	extensions := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// SAMPLING
		c.transition(st, StatusSampling)
		c.Sampler.NextChunk = st.NextChunk
		start := time.Now()
		if err := c.Sampler.Sample(ctx, c.Tensors, st.BatchSamples, st.Means); err != nil {
			return err
		}
		st.NextChunk = c.Sampler.NextChunk
		st.TotalSamples += st.BatchSamples
		st.Batches++
		Log.Infof("batch %d: %d samples in %s (total %d)", st.Batches, st.BatchSamples, time.Since(start).Round(time.Millisecond), st.TotalSamples)

		// VALIDATING
		c.transition(st, StatusValidating)
		reports := make([]ConvergenceReport, len(c.Tensors))
		var failed []ConvergenceReport
		for i, t := range c.Tensors {
			rep, err := Validate(t, st.Means[i].Mueller, st.Precision)
			if err != nil {
				return err
			}
			reports[i] = rep
			if !rep.Passed {
				failed = append(failed, rep)
			}
			Log.WithFields(logrus.Fields{
				"mode":      rep.Head,
				"analytic":  rep.Analytic,
				"empirical": rep.Empirical,
				"passed":    rep.Passed,
			}).Info("depolarization ratio")
		}
		st.Reports = reports
		if c.History != nil {
			c.History.Record(st.Batches, st.TotalSamples, reports)
		}
		if c.Store != nil {
			if err := c.Store.RecordValidation(ctx, st.ID, st.Batches, st.TotalSamples, reports); err != nil {
				return fmt.Errorf("record validation: %w", err)
			}
		}

		if len(failed) == 0 {
			c.transition(st, StatusConverged)
			return c.checkpoint(ctx, st)
		}

		// ASK_USER
		c.transition(st, StatusAskUser)
		if err := c.checkpoint(ctx, st); err != nil {
			return err
		}
		decision := Abort
		if c.OnFailure != nil {
			decision = c.OnFailure(ConvergenceFailure{
				RunID:        st.ID,
				Failed:       failed,
				Reports:      reports,
				TotalSamples: st.TotalSamples,
				Extensions:   extensions,
			})
		}
		Log.WithFields(logrus.Fields{"run": st.ID, "decision": decision.String()}).Info("convergence failed")
		if decision != Continue {
			c.transition(st, StatusAborted)
			if err := c.checkpoint(ctx, st); err != nil {
				return err
			}
			return fmt.Errorf("%w: %d of %d modes did not converge after %d samples (first: %q analytic %.6f empirical %.6f)",
				ErrValidationFailed, len(failed), len(reports), st.TotalSamples, failed[0].Head, failed[0].Analytic, failed[0].Empirical)
		}
		extensions++
	}
}
