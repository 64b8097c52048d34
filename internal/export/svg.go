package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ArinaShifrina/PZ4/internal/viz"
)

var palette = []string{"#00ff00", "#ff5555", "#5599ff", "#ffcc00", "#cc66ff"}

// CanvasToSVG renders the lit dots of a braille canvas as circles, scale
// pixels per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.DotWidth()) * scale
	height := float64(canvas.DotHeight()) * scale

	var sb strings.Builder
	header(&sb, width, height)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	r := scale * 0.4
	for y := 0; y < canvas.DotHeight(); y++ {
		for x := 0; x < canvas.DotWidth(); x++ {
			if !canvas.Dot(x, y) {
				continue
			}
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
				float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// FieldToSVG draws an Ez snapshot with dashed markers at probes, sources
// and medium boundaries.
func FieldToSVG(w io.Writer, field []float64, probes, sources, boundaries []int, width, height int) error {
	if len(field) < 2 {
		return fmt.Errorf("export: field needs at least 2 samples, got %d", len(field))
	}

	x := make([]float64, len(field))
	for i := range x {
		x[i] = float64(i)
	}
	limit := 0.0
	for _, v := range field {
		limit = math.Max(limit, math.Abs(v))
	}
	if limit == 0 {
		limit = 1
	}

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	frame := newFrame(0, float64(len(field)-1), -limit*1.1, limit*1.1, width, height)

	marker := func(cells []int, color string) {
		for _, c := range cells {
			px := frame.x(float64(c))
			fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"0\" x2=\"%.1f\" y2=\"%d\" stroke=\"%s\" stroke-dasharray=\"4 4\"/>\n",
				px, px, height, color)
		}
	}
	marker(boundaries, "#888888")
	marker(sources, "#ff5555")
	marker(probes, "#ffcc00")

	fmt.Fprintf(&sb, "<line x1=\"0\" y1=\"%.1f\" x2=\"%d\" y2=\"%.1f\" stroke=\"#333333\"/>\n",
		frame.y(0), width, frame.y(0))
	frame.path(&sb, x, field, palette[0])

	sb.WriteString("</svg>")
	_, err := io.WriteString(w, sb.String())
	return err
}

// SeriesToSVG overlays series on shared axes with a small legend.
func SeriesToSVG(w io.Writer, series []viz.Series, width, height int) error {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("export: series %s has %d x and %d y values", s.Name, len(s.X), len(s.Y))
		}
		for i := range s.X {
			minX, maxX = math.Min(minX, s.X[i]), math.Max(maxX, s.X[i])
			minY, maxY = math.Min(minY, s.Y[i]), math.Max(maxY, s.Y[i])
		}
	}
	if math.IsInf(minX, 1) {
		return fmt.Errorf("export: no samples to draw")
	}

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	frame := newFrame(minX, maxX, minY, maxY, width, height)

	for i, s := range series {
		color := palette[i%len(palette)]
		frame.path(&sb, s.X, s.Y, color)
		fmt.Fprintf(&sb, "<text x=\"8\" y=\"%d\" fill=\"%s\" font-family=\"monospace\" font-size=\"12\">%s</text>\n",
			16*(i+1), color, escape(s.Name))
	}

	sb.WriteString("</svg>")
	_, err := io.WriteString(w, sb.String())
	return err
}

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

// frame maps data coordinates to pixels with 10% padding on every side.
type frame struct {
	minX, rangeX  float64
	minY, rangeY  float64
	width, height float64
}

func newFrame(minX, maxX, minY, maxY float64, width, height int) frame {
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return frame{
		minX:   minX - rangeX*0.1,
		rangeX: rangeX * 1.2,
		minY:   minY - rangeY*0.1,
		rangeY: rangeY * 1.2,
		width:  float64(width),
		height: float64(height),
	}
}

func (f frame) x(v float64) float64 { return (v - f.minX) / f.rangeX * f.width }
func (f frame) y(v float64) float64 { return f.height - (v-f.minY)/f.rangeY*f.height }

func (f frame) path(sb *strings.Builder, xs, ys []float64, color string) {
	if len(xs) == 0 {
		return
	}
	fmt.Fprintf(sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"M", color)
	for i := range xs {
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(sb, "%.1f,%.1f", f.x(xs[i]), f.y(ys[i]))
	}
	sb.WriteString("\"/>\n")
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
