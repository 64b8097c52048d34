package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

// PlotOptions sizes terminal plots.
type PlotOptions struct {
	Width  int
	Height int
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 10}
}

// Series is a named sampled signal, X holding the axis values for Y.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// PlotSeries draws one terminal graph per series.
func PlotSeries(series []Series, opts PlotOptions) []string {
	graphs := make([]string, 0, len(series))
	for _, s := range series {
		if len(s.Y) == 0 {
			continue
		}
		caption := s.Name
		if n := len(s.X); n > 1 {
			caption = fmt.Sprintf("%s  [%.3g .. %.3g]", s.Name, s.X[0], s.X[n-1])
		}
		graphs = append(graphs, asciigraph.Plot(s.Y,
			asciigraph.Height(opts.Height),
			asciigraph.Width(opts.Width),
			asciigraph.Caption(caption),
		))
	}
	return graphs
}

// PlotOverlay draws several series of equal length on shared axes.
func PlotOverlay(caption string, series []Series, opts PlotOptions) string {
	data := make([][]float64, 0, len(series))
	colors := []asciigraph.AnsiColor{asciigraph.Green, asciigraph.Red, asciigraph.Blue, asciigraph.Yellow}
	used := make([]asciigraph.AnsiColor, 0, len(series))
	names := make([]string, 0, len(series))
	for i, s := range series {
		if len(s.Y) == 0 {
			continue
		}
		data = append(data, s.Y)
		used = append(used, colors[i%len(colors)])
		names = append(names, s.Name)
	}
	if len(data) == 0 {
		return ""
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(used...),
		asciigraph.SeriesLegends(names...),
	)
}
