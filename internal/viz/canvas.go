package viz

import (
	"math"
	"strings"
)

const brailleBlank = 0x2800

// Dot bits of a braille cell, indexed by [row][column] inside the 2x4 cell.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille raster. Each character holds 2x4 dots, so the dot
// resolution is (Cols*2) x (Rows*4).
type Canvas struct {
	Cols, Rows int
	grid       [][]rune
}

func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{Cols: cols, Rows: rows, grid: make([][]rune, rows)}
	for i := range c.grid {
		c.grid[i] = make([]rune, cols)
	}
	c.Clear()
	return c
}

func (c *Canvas) DotWidth() int  { return c.Cols * 2 }
func (c *Canvas) DotHeight() int { return c.Rows * 4 }

// Set lights the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.DotWidth() || y >= c.DotHeight() {
		return
	}
	c.grid[y/4][x/2] |= dotBits[y%4][x%2]
}

// Dot reports whether the dot at (x, y) is lit.
func (c *Canvas) Dot(x, y int) bool {
	if x < 0 || y < 0 || x >= c.DotWidth() || y >= c.DotHeight() {
		return false
	}
	return c.grid[y/4][x/2]&dotBits[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.grid {
		for j := range c.grid[i] {
			c.grid[i][j] = brailleBlank
		}
	}
}

// Line draws a segment with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Marker draws a dotted vertical line at dot column x.
func (c *Canvas) Marker(x int) {
	for y := 0; y < c.DotHeight(); y += 3 {
		c.Set(x, y)
	}
}

// CellX maps a grid cell index to a dot column.
func (c *Canvas) CellX(cell, cells int) int {
	if cells <= 1 {
		return 0
	}
	return cell * (c.DotWidth() - 1) / (cells - 1)
}

// Field plots values across the canvas width. The vertical axis spans
// [-limit, limit]; samples beyond it are clipped to the edge.
func (c *Canvas) Field(values []float64, limit float64) {
	if len(values) == 0 || limit <= 0 {
		return
	}
	h := c.DotHeight() - 1
	row := func(v float64) int {
		if math.IsNaN(v) {
			v = 0
		}
		v = math.Max(-limit, math.Min(limit, v))
		return int(math.Round((1 - (v/limit+1)/2) * float64(h)))
	}

	// zero axis
	mid := row(0)
	for x := 0; x < c.DotWidth(); x += 2 {
		c.Set(x, mid)
	}

	px, py := c.CellX(0, len(values)), row(values[0])
	for i := 1; i < len(values); i++ {
		x, y := c.CellX(i, len(values)), row(values[i])
		c.Line(px, py, x, y)
		px, py = x, y
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, r := range c.grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(r))
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
