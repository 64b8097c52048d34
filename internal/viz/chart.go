package viz

import (
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var seriesColors = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255},
}

// ChartSpec describes a PNG line chart.
type ChartSpec struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
	Series []Series
}

// RenderPNG writes the chart as PNG.
func RenderPNG(w io.Writer, spec ChartSpec) error {
	series := make([]chart.Series, 0, len(spec.Series))
	for i, s := range spec.Series {
		if len(s.X) < 2 || len(s.X) != len(s.Y) {
			return fmt.Errorf("series %q: need matching x and y with at least 2 samples", s.Name)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: s.X,
			YValues: s.Y,
			Style: chart.Style{
				StrokeColor: seriesColors[i%len(seriesColors)],
				StrokeWidth: 1.5,
			},
		})
	}
	if len(series) == 0 {
		return fmt.Errorf("chart %q has no series", spec.Title)
	}

	width, height := spec.Width, spec.Height
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 400
	}

	graph := chart.Chart{
		Title:  spec.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  spec.XLabel,
			Style: chart.Style{FontSize: 10.0},
		},
		YAxis: chart.YAxis{
			Name:  spec.YLabel,
			Style: chart.Style{FontSize: 10.0},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// SavePNG renders the chart into path.
func SavePNG(path string, spec ChartSpec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := RenderPNG(f, spec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ProbeChart plots E of every probe against time in nanoseconds.
func ProbeChart(title string, times []float64, probes map[int][]float64, order []int) ChartSpec {
	ns := make([]float64, len(times))
	for i, t := range times {
		ns[i] = t * 1e9
	}
	spec := ChartSpec{Title: title, XLabel: "t, ns", YLabel: "Ez, V/m"}
	for _, pos := range order {
		spec.Series = append(spec.Series, Series{
			Name: fmt.Sprintf("probe %d", pos),
			X:    ns,
			Y:    probes[pos],
		})
	}
	return spec
}

// SpectrumChart plots incident and reflected amplitude spectra in GHz.
func SpectrumChart(title string, freqs, incident, reflected []float64) ChartSpec {
	ghz := make([]float64, len(freqs))
	for i, f := range freqs {
		ghz[i] = f / 1e9
	}
	return ChartSpec{
		Title:  title,
		XLabel: "f, GHz",
		YLabel: "|S| / max|S|",
		Series: []Series{
			{Name: "incident", X: ghz, Y: incident},
			{Name: "reflected", X: ghz, Y: reflected},
		},
	}
}
