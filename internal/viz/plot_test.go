package viz

import (
	"bytes"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func sine(n int) Series {
	s := Series{Name: "sine", X: make([]float64, n), Y: make([]float64, n)}
	for i := range s.X {
		s.X[i] = float64(i) * 1e-11
		s.Y[i] = math.Sin(float64(i) / 5)
	}
	return s
}

func TestPlotSeries(t *testing.T) {
	graphs := PlotSeries([]Series{sine(100), {Name: "empty"}}, DefaultPlotOptions())
	if len(graphs) != 1 {
		t.Fatalf("expected 1 graph, got %d", len(graphs))
	}
	if !strings.Contains(graphs[0], "sine") {
		t.Error("caption missing")
	}
}

func TestPlotOverlay(t *testing.T) {
	a, b := sine(50), sine(50)
	b.Name = "other"
	out := PlotOverlay("both", []Series{a, b}, PlotOptions{Width: 40, Height: 6})
	if !strings.Contains(out, "both") {
		t.Error("caption missing")
	}
	if PlotOverlay("none", nil, DefaultPlotOptions()) != "" {
		t.Error("expected empty plot for no series")
	}
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	spec := ProbeChart("probes", sine(64).X, map[int][]float64{25: sine(64).Y}, []int{25})
	if err := RenderPNG(&buf, spec); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("not a png: %v", err)
	}
	if img.Bounds().Dx() != 1024 || img.Bounds().Dy() != 400 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
}

func TestRenderPNGRejectsBadSeries(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, ChartSpec{Title: "empty"}); err == nil {
		t.Error("expected error for chart without series")
	}
	bad := ChartSpec{Series: []Series{{Name: "short", X: []float64{1, 2}, Y: []float64{1}}}}
	if err := RenderPNG(&buf, bad); err == nil {
		t.Error("expected error for mismatched series")
	}
}

func TestSaveSpectrumPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectrum.png")
	freqs := []float64{1e9, 2e9, 3e9}
	spec := SpectrumChart("spectrum", freqs, []float64{1, 0.5, 0.2}, []float64{0.4, 0.3, 0.1})
	if err := SavePNG(path, spec); err != nil {
		t.Fatalf("save failed: %v", err)
	}
}
