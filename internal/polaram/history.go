package polaram

import (
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// HistoryEntry is one validation of one mode.
type HistoryEntry struct {
	Batch     int     `yaml:"batch"`
	Samples   int64   `yaml:"samples"`
	Head      string  `yaml:"head"`
	Analytic  float64 `yaml:"analytic"`
	Empirical float64 `yaml:"empirical"`
	Passed    bool    `yaml:"passed"`
}

// History collects validation results per mode across batches.
type History struct {
	mu      sync.Mutex
	order   []string
	entries map[string][]HistoryEntry // mode head -> validations in batch order
}

func NewHistory() *History {
	return &History{entries: make(map[string][]HistoryEntry)}
}

func (h *History) Record(batch int, samples int64, reports []ConvergenceReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range reports {
		if _, ok := h.entries[r.Head]; !ok {
			h.order = append(h.order, r.Head)
		}
		h.entries[r.Head] = append(h.entries[r.Head], HistoryEntry{
			Batch:     batch,
			Samples:   samples,
			Head:      r.Head,
			Analytic:  r.Analytic,
			Empirical: r.Empirical,
			Passed:    r.Passed,
		})
	}
}

// Heads returns the recorded modes in first-seen order.
func (h *History) Heads() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

func (h *History) Entries(head string) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HistoryEntry(nil), h.entries[head]...)
}

// Batches returns the number of validations recorded for the busiest mode.
func (h *History) Batches() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.entries {
		n = imax(n, len(e))
	}
	return n
}

// HistoryStats summarizes |empirical-analytic| of one mode over all batches.
type HistoryStats struct {
	Head      string  `yaml:"head"`
	Batches   int     `yaml:"batches"`
	MeanDev   float64 `yaml:"mean_deviation"`
	StdDev    float64 `yaml:"stddev_deviation"`
	LastDev   float64 `yaml:"last_deviation"`
	LastRatio float64 `yaml:"last_empirical"`
}

func (h *History) Stats() []HistoryStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	heads := append([]string(nil), h.order...)
	out := make([]HistoryStats, 0, len(heads))
	for _, head := range heads {
		es := h.entries[head]
		devs := make([]float64, 0, len(es))
		for _, e := range es {
			if d := math.Abs(e.Empirical - e.Analytic); isFinite(d) {
				devs = append(devs, d)
			}
		}
		st := HistoryStats{Head: head, Batches: len(es)}
		if len(es) > 0 {
			last := es[len(es)-1]
			st.LastDev = math.Abs(last.Empirical - last.Analytic)
			st.LastRatio = last.Empirical
		}
		if len(devs) > 0 {
			st.MeanDev = stat.Mean(devs, nil)
		}
		if len(devs) > 1 {
			st.StdDev = stat.StdDev(devs, nil)
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastDev > out[j].LastDev })
	return out
}

// logStats writes the summary through the package logger, worst mode first.
func (h *History) logStats() {
	for _, s := range h.Stats() {
		Log.WithFields(logrus.Fields{
			"mode":     s.Head,
			"batches":  s.Batches,
			"mean_dev": s.MeanDev,
			"std_dev":  s.StdDev,
			"last_dev": s.LastDev,
		}).Info("convergence summary")
	}
}
