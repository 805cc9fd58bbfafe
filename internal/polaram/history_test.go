package polaram

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStats(t *testing.T) {
	h := NewHistory()
	h.Record(1, 100, []ConvergenceReport{{Head: "a", Analytic: 0.5, Empirical: 0.4}, {Head: "b", Analytic: 0, Empirical: 0}})
	h.Record(2, 200, []ConvergenceReport{{Head: "a", Analytic: 0.5, Empirical: 0.48}, {Head: "b", Analytic: 0, Empirical: math.NaN()}})

	assert.Equal(t, []string{"a", "b"}, h.Heads())
	assert.Equal(t, 2, h.Batches())
	require.Len(t, h.Entries("a"), 2)
	assert.Equal(t, int64(200), h.Entries("a")[1].Samples)

	st := h.Stats()
	require.Len(t, st, 2)
	byHead := map[string]HistoryStats{}
	for _, s := range st {
		byHead[s.Head] = s
	}
	a := byHead["a"]
	assert.Equal(t, 2, a.Batches)
	assert.InDelta(t, 0.06, a.MeanDev, 1e-12)
	assert.InDelta(t, math.Sqrt(0.0032), a.StdDev, 1e-12)
	assert.InDelta(t, 0.02, a.LastDev, 1e-12)

	b := byHead["b"]
	assert.Equal(t, 0.0, b.MeanDev, "NaN deviations are skipped")
	assert.True(t, math.IsNaN(b.LastDev))
}
