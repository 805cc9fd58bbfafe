package polaram

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHistory() *History {
	h := NewHistory()
	for i, emp := range []float64{0.30, 0.32, 0.335} {
		h.Record(i+1, int64(1000*(i+1)), []ConvergenceReport{
			{Head: "uni", Analytic: 1.0 / 3, Empirical: emp},
			{Head: "dark", Analytic: math.NaN(), Empirical: math.NaN()},
		})
	}
	return h
}

func TestSaveConvergencePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "conv.png")
	require.NoError(t, SaveConvergencePlot(sampleHistory(), path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.ErrorIs(t, SaveConvergencePlot(NewHistory(), path), ErrInvalidParameter)
}

func TestRenderConvergenceChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderConvergenceChart(sampleHistory(), &buf))
	html := buf.String()
	assert.Contains(t, html, "uni empirical")
	assert.Contains(t, html, "dark analytic")
	assert.Contains(t, html, "3000")

	path := filepath.Join(t.TempDir(), "conv.html")
	require.NoError(t, SaveConvergenceChart(sampleHistory(), path))
	_, err := os.Stat(path)
	require.NoError(t, err)
}
