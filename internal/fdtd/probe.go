package fdtd

// Probe records Ez and Hy at a fixed grid index, one sample per step.
type Probe struct {
	pos int
	e   []float64
	h   []float64
}

// NewProbe creates a probe at pos with room for steps samples.
func NewProbe(pos, steps int) *Probe {
	return &Probe{
		pos: pos,
		e:   make([]float64, 0, steps),
		h:   make([]float64, 0, steps),
	}
}

// AddData appends the current field values at the probe position.
func (p *Probe) AddData(ez, hy []float64) {
	p.e = append(p.e, ez[p.pos])
	p.h = append(p.h, hy[p.pos])
}

func (p *Probe) Position() int { return p.pos }
func (p *Probe) Len() int      { return len(p.e) }

// E returns the recorded electric field series. Callers must not modify it.
func (p *Probe) E() []float64 { return p.e }

// H returns the recorded magnetic field series. Callers must not modify it.
func (p *Probe) H() []float64 { return p.h }
