package viz

import "github.com/guptarohit/asciigraph"

const (
	DefaultHeight = 10
	DefaultWidth  = 80
)

// Render draws a single series on the terminal.
func Render(values []float64, caption string) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(DefaultHeight),
		asciigraph.Width(DefaultWidth),
		asciigraph.Caption(caption),
	)
}

// RenderComparison overlays the recovered trajectory on the target.
func RenderComparison(target, recovered []float64, caption string) string {
	if len(target) == 0 || len(recovered) == 0 {
		return ""
	}
	return asciigraph.PlotMany([][]float64{target, recovered},
		asciigraph.Height(DefaultHeight),
		asciigraph.Width(DefaultWidth),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
		asciigraph.SeriesLegends("target", "recovered"),
		asciigraph.Caption(caption),
	)
}
