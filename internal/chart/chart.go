// Package chart renders the report figures as SVG using gonum/plot
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"
)

// Size is the rendered figure size
type Size struct {
	Width  vg.Length
	Height vg.Length
}

var (
	// DefaultSize matches a single-axes figure
	DefaultSize = Size{Width: 8 * vg.Inch, Height: 4 * vg.Inch}
	// PanelSize is used for stacked multi-panel figures
	PanelSize = Size{Width: 10 * vg.Inch, Height: 8 * vg.Inch}
)

const dateFormat = "2006-01-02"

// TimeLine is a named series over time
type TimeLine struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// Line is a named series over a numeric x
type Line struct {
	Name string
	X    []float64
	Y    []float64
}

// TimeSeries renders one or more lines against a date axis
func TimeSeries(title string, size Size, lines ...TimeLine) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Tick.Marker = plot.TimeTicks{Format: dateFormat}
	p.Add(plotter.NewGrid())

	for i, l := range lines {
		if err := addSegments(p, l.Name, unixSeconds(l.Times), l.Values, plotutil.Color(i), len(lines) > 1); err != nil {
			return nil, fmt.Errorf("adding %s: %w", l.Name, err)
		}
	}

	return render(p, size)
}

// Grouped renders one line per group against a numeric x axis with a legend
func Grouped(title, xLabel, yLabel string, size Size, lines ...Line) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, l := range lines {
		if err := addSegments(p, l.Name, l.X, l.Y, plotutil.Color(i), true); err != nil {
			return nil, fmt.Errorf("adding %s: %w", l.Name, err)
		}
	}

	return render(p, size)
}

// Panel is one sub-plot of a stacked figure
type Panel struct {
	Title  string
	Times  []time.Time
	Values []float64
}

// Panels renders vertically stacked date-axis plots sharing one figure
func Panels(size Size, panels ...Panel) ([]byte, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("no panels to render")
	}

	plots := make([][]*plot.Plot, len(panels))
	for i, pn := range panels {
		p := plot.New()
		p.Title.Text = pn.Title
		p.X.Tick.Marker = plot.TimeTicks{Format: dateFormat}
		if err := addSegments(p, pn.Title, unixSeconds(pn.Times), pn.Values, plotutil.Color(0), false); err != nil {
			return nil, fmt.Errorf("adding %s: %w", pn.Title, err)
		}
		plots[i] = []*plot.Plot{p}
	}

	canvas := vgsvg.New(size.Width, size.Height)
	dc := draw.New(canvas)
	tiles := draw.Tiles{
		Rows:      len(panels),
		Cols:      1,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(8),
		PadY:      vg.Points(10),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	var buf bytes.Buffer
	if _, err := canvas.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing svg: %w", err)
	}
	return buf.Bytes(), nil
}

// Stems renders correlation coefficients per lag with a shaded band of
// +/- band[k] around zero
func Stems(title string, size Size, values, band []float64) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Lag"
	p.Y.Min, p.Y.Max = -1.1, 1.1

	if len(band) > 1 {
		// band[0] is zero by construction; draw from lag 1
		poly := make(plotter.XYs, 0, 2*(len(band)-1))
		for k := 1; k < len(band); k++ {
			poly = append(poly, plotter.XY{X: float64(k), Y: band[k]})
		}
		for k := len(band) - 1; k >= 1; k-- {
			poly = append(poly, plotter.XY{X: float64(k), Y: -band[k]})
		}
		shade, err := plotter.NewPolygon(poly)
		if err != nil {
			return nil, fmt.Errorf("confidence band: %w", err)
		}
		shade.Color = color.RGBA{R: 31, G: 119, B: 180, A: 48}
		shade.LineStyle.Width = 0
		p.Add(shade)
	}

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = color.Black
	p.Add(zero)

	pts := make(plotter.XYs, 0, len(values))
	for k, v := range values {
		if math.IsNaN(v) {
			continue
		}
		stem, err := plotter.NewLine(plotter.XYs{{X: float64(k), Y: 0}, {X: float64(k), Y: v}})
		if err != nil {
			return nil, fmt.Errorf("stem %d: %w", k, err)
		}
		stem.Color = plotutil.Color(0)
		p.Add(stem)
		pts = append(pts, plotter.XY{X: float64(k), Y: v})
	}

	if len(pts) > 0 {
		marks, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("markers: %w", err)
		}
		marks.GlyphStyle.Color = plotutil.Color(0)
		marks.GlyphStyle.Shape = draw.CircleGlyph{}
		marks.GlyphStyle.Radius = vg.Points(3)
		p.Add(marks)
	}

	return render(p, size)
}

// addSegments adds a line split at NaN values so gaps stay visible
func addSegments(p *plot.Plot, name string, xs, ys []float64, c color.Color, legend bool) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("x has %d points but y has %d", len(xs), len(ys))
	}

	labelled := false
	for _, seg := range segments(xs, ys) {
		l, err := plotter.NewLine(seg)
		if err != nil {
			return err
		}
		l.Color = c
		l.Width = vg.Points(1.2)
		p.Add(l)
		if legend && !labelled {
			p.Legend.Add(name, l)
			labelled = true
		}
	}
	return nil
}

func segments(xs, ys []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func unixSeconds(ts []time.Time) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = float64(t.Unix())
	}
	return out
}

func render(p *plot.Plot, size Size) ([]byte, error) {
	w, err := p.WriterTo(size.Width, size.Height, "svg")
	if err != nil {
		return nil, fmt.Errorf("creating svg writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing svg: %w", err)
	}
	return buf.Bytes(), nil
}
