package viz

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type ImageOptions struct {
	Title  string
	XLabel string
	YLabel string
	// Width and Height are in inches.
	Width  float64
	Height float64
	// Reference, when set, is drawn dashed against the same times.
	Reference []float64
}

func DefaultImageOptions() ImageOptions {
	return ImageOptions{
		Title:  "Exponential decay: τ dx/dt = -x",
		XLabel: "time (t)",
		YLabel: "x(t)",
		Width:  6,
		Height: 4,
	}
}

func xys(times, values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i := range values {
		pts[i].X = times[i]
		pts[i].Y = values[i]
	}
	return pts
}

// NewPlot builds the line plot without writing it anywhere.
func NewPlot(times, values []float64, opts ImageOptions) (*plot.Plot, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("times and values differ in length: %d vs %d", len(times), len(values))
	}
	if opts.Reference != nil && len(opts.Reference) != len(values) {
		return nil, fmt.Errorf("reference length %d, want %d", len(opts.Reference), len(values))
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel

	line, err := plotter.NewLine(xys(times, values))
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{B: 200, A: 255}
	p.Add(line)

	if opts.Reference != nil {
		ref, err := plotter.NewLine(xys(times, opts.Reference))
		if err != nil {
			return nil, err
		}
		ref.Color = color.RGBA{R: 200, A: 255}
		ref.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(ref)
		p.Legend.Add("euler", line)
		p.Legend.Add("exact", ref)
		p.Legend.Top = true
	}

	return p, nil
}

// SaveImage renders the plot to path.
func SaveImage(path string, times, values []float64, opts ImageOptions) error {
	p, err := NewPlot(times, values, opts)
	if err != nil {
		return err
	}
	if err := p.Save(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
