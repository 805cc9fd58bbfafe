package polaram

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Sampler runs SampleTask over a bounded pool of workers and folds the
// results into running means as chunks complete.
type Sampler struct {
	Workers   int
	ChunkSize int
	// Seed is mixed with the global chunk index; a seeded run is reproducible
	// regardless of worker count. Splitting it into batches keeps the result
	// only when every batch but the last is a multiple of ChunkSize.
	Seed int64
	// NextChunk is the global index of the next chunk; Sample advances it.
	NextChunk int64
}

func NewSampler(workers, chunkSize int, seed int64) *Sampler {
	return &Sampler{Workers: workers, ChunkSize: chunkSize, Seed: seed}
}

func (s *Sampler) validate() error {
	if s.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidParameter, s.Workers)
	}
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidParameter, s.ChunkSize)
	}
	return nil
}

// chunkRNG returns the independent stream of one chunk.
func (s *Sampler) chunkRNG(chunk int64) *rand.Rand {
	seed := s.Seed ^ int64(uint64(chunk+1)*0x9e3779b97f4a7c15)
	return rand.New(rand.NewSource(seed))
}

// runChunk samples n orientations and returns per-mode sums.
func runChunk(tensors []RamanTensor, n int, rng *rand.Rand) []chunkSum {
	sums := make([]chunkSum, len(tensors))
	for i, t := range tensors {
		sums[i].Head = t.Head
		sums[i].N = int64(n)
	}
	obs := make([]Observation, len(tensors))
	for k := 0; k < n; k++ {
		sampleInto(obs, tensors, SampleRotation(rng))
		for i := range obs {
			sums[i].Mueller = sums[i].Mueller.Add(obs[i].Mueller)
			sums[i].Tensor = sums[i].Tensor.Add(obs[i].Tensor)
		}
	}
	return sums
}

// Sample draws n more orientations and folds them into means. Workers only
// read tensors; means are touched by the calling goroutine alone. The batch
// is all-or-nothing: on error means are left as they were.
func (s *Sampler) Sample(ctx context.Context, tensors []RamanTensor, n int64, means []RunningMean) error {
	if err := s.validate(); err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidParameter, n)
	}
	if err := checkHeads(means, tensors); err != nil {
		return err
	}

	DebugLogOnce("sampler: %d workers, chunk size %d, seed %d", s.Workers, s.ChunkSize, s.Seed)
	acc := append([]RunningMean(nil), means...)
	chunkSize := int64(s.ChunkSize)
	nChunks := (n + chunkSize - 1) / chunkSize
	first := s.NextChunk

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	results := make(chan []chunkSum, s.Workers*resultBufferPerChunk)

	var done int64
	nextPrint := int64(1)
	if n >= ProgressSteps {
		nextPrint = n / ProgressSteps
	}

	go func() {
		defer close(results)
		for c := int64(0); c < nChunks; c++ {
			if gctx.Err() != nil {
				break
			}
			chunk := first + c
			size := imin(int(chunkSize), int(n-c*chunkSize))
			g.Go(func() error {
				sums := runChunk(tensors, size, s.chunkRNG(chunk))
				if Progress {
					before := atomic.AddInt64(&done, int64(size)) - int64(size)
					if (before+int64(size))/nextPrint != before/nextPrint {
						Log.Infof("[PROGRESS] %.2f%%", float64(before+int64(size))*100/float64(n))
					}
				}
				select {
				case results <- sums:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		_ = g.Wait()
	}()

	var foldErr error
	for sums := range results {
		if foldErr != nil {
			continue
		}
		if err := foldAll(acc, sums); err != nil {
			foldErr = err
			cancel()
		}
	}
	if foldErr != nil {
		return foldErr
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}

	copy(means, acc)
	s.NextChunk = first + nChunks
	DebugLog("sampled %d orientations in %d chunks (chunks %d..%d)", n, nChunks, first, first+nChunks-1)
	return nil
}
