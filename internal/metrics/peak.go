package metrics

import "math"

// Peak is the largest |Ez| seen anywhere on the grid.
type Peak struct {
	name  string
	value float64
	step  int
}

func NewPeak() *Peak {
	return &Peak{name: "peak_field"}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(ez, _ []float64, step int) {
	for _, v := range ez {
		if a := math.Abs(v); a > p.value {
			p.value = a
			p.step = step
		}
	}
}

func (p *Peak) Value() float64 { return p.value }

// Step is the step at which the peak was observed.
func (p *Peak) Step() int { return p.step }

func (p *Peak) Reset() {
	p.value = 0
	p.step = 0
}
