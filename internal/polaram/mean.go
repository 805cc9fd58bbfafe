package polaram

import "fmt"

// RunningMean is the orientation average of one mode after N samples.
type RunningMean struct {
	Head    string
	Mueller Mat4
	Tensor  Mat3
	N       int64
}

// chunkSum holds the raw per-mode sums of one finished chunk.
type chunkSum struct {
	Head    string
	Mueller Mat4
	Tensor  Mat3
	N       int64
}

// NewRunningMeans returns one empty accumulator per mode, in tensor order.
func NewRunningMeans(tensors []RamanTensor) []RunningMean {
	means := make([]RunningMean, len(tensors))
	for i, t := range tensors {
		means[i].Head = t.Head
	}
	return means
}

// Fold merges a chunk's sums into the mean:
// newMean = oldMean·(n_old/n_new) + sum/n_new.
func (m *RunningMean) Fold(s chunkSum) error {
	if s.Head != m.Head {
		return fmt.Errorf("%w: accumulator %q got chunk for %q", ErrHeaderMismatch, m.Head, s.Head)
	}
	if s.N <= 0 {
		return nil
	}
	nNew := m.N + s.N
	keep := float64(m.N) / float64(nNew)
	add := 1 / float64(nNew)
	m.Mueller = m.Mueller.Scale(keep).Add(s.Mueller.Scale(add))
	m.Tensor = m.Tensor.Scale(keep).Add(s.Tensor.Scale(add))
	m.N = nNew
	return nil
}

// foldAll folds sums index by index; heads must line up.
func foldAll(means []RunningMean, sums []chunkSum) error {
	if len(means) != len(sums) {
		return fmt.Errorf("%w: %d accumulators, %d chunk sums", ErrHeaderMismatch, len(means), len(sums))
	}
	for i := range means {
		if err := means[i].Fold(sums[i]); err != nil {
			return fmt.Errorf("mode %d: %w", i, err)
		}
	}
	return nil
}

// checkHeads verifies that the accumulators belong to tensors, index by index.
func checkHeads(means []RunningMean, tensors []RamanTensor) error {
	if len(means) != len(tensors) {
		return fmt.Errorf("%w: %d accumulators for %d tensors", ErrHeaderMismatch, len(means), len(tensors))
	}
	for i := range means {
		if means[i].Head != tensors[i].Head {
			return fmt.Errorf("%w: mode %d is %q, tensor is %q", ErrHeaderMismatch, i, means[i].Head, tensors[i].Head)
		}
	}
	return nil
}
