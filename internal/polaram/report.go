package polaram

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// SaveConvergencePlot draws the empirical depolarization ratio of every
// mode against the total sample count, with its analytic value dashed.
func SaveConvergencePlot(h *History, path string) error {
	heads := h.Heads()
	if len(heads) == 0 {
		return fmt.Errorf("%w: empty convergence history", ErrInvalidParameter)
	}
	p := plot.New()
	p.Title.Text = "Depolarization ratio convergence"
	p.X.Label.Text = "samples"
	p.Y.Label.Text = "ratio"
	p.Add(plotter.NewGrid())

	for i, head := range heads {
		es := h.Entries(head)
		pts := make(plotter.XYs, 0, len(es))
		for _, e := range es {
			if isFinite(e.Empirical) {
				pts = append(pts, plotter.XY{X: float64(e.Samples), Y: e.Empirical})
			}
		}
		if len(pts) == 0 {
			continue
		}
		c := plotutil.Color(i)
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("plot %q: %w", head, err)
		}
		line.Color, points.Color = c, c
		p.Add(line, points)
		p.Legend.Add(head, line, points)

		if analytic := es[len(es)-1].Analytic; isFinite(analytic) {
			ref := plotter.NewFunction(func(float64) float64 { return analytic })
			ref.Color = fade(c)
			ref.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
			p.Add(ref)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

func fade(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0x90}
}

// RenderConvergenceChart writes an interactive HTML line chart of the same data.
func RenderConvergenceChart(h *History, w io.Writer) error {
	heads := h.Heads()
	if len(heads) == 0 {
		return fmt.Errorf("%w: empty convergence history", ErrInvalidParameter)
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Depolarization ratio",
			Subtitle: "empirical (Mueller) vs analytic (tensor) per batch",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "samples"}),
	)

	n := h.Batches()
	x := make([]string, n)
	for _, head := range heads {
		for i, e := range h.Entries(head) {
			x[i] = strconv.FormatInt(e.Samples, 10)
		}
	}
	line.SetXAxis(x)

	for _, head := range heads {
		es := h.Entries(head)
		emp := make([]opts.LineData, n)
		ana := make([]opts.LineData, n)
		for i, e := range es {
			emp[i] = lineValue(e.Empirical)
			ana[i] = lineValue(e.Analytic)
		}
		line.AddSeries(head+" empirical", emp)
		line.AddSeries(head+" analytic", ana,
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	}
	return line.Render(w)
}

// NaN does not survive JSON; a nil value leaves a gap in the line.
func lineValue(v float64) opts.LineData {
	if !isFinite(v) {
		return opts.LineData{Value: nil}
	}
	return opts.LineData{Value: v}
}

func SaveConvergenceChart(h *History, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := RenderConvergenceChart(h, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
