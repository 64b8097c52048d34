package metrics

import (
	"math"

	"github.com/ArinaShifrina/PZ4/internal/fdtd"
)

// Energy tracks the largest electromagnetic energy stored in the grid during a run,
// in units of eps0 per cell: 0.5*sum(eps*Ez^2) + 0.5*sum(mu*(W0*Hy)^2).
type Energy struct {
	name    string
	eps, mu []float64
	current float64
	peak    float64
}

func NewEnergy(eps, mu []float64) *Energy {
	return &Energy{
		name: "energy",
		eps:  eps,
		mu:   mu,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(ez, hy []float64, _ int) {
	e.current = FieldEnergy(ez, hy, e.eps, e.mu)
	e.peak = math.Max(e.peak, e.current)
}

func (e *Energy) Value() float64 { return e.peak }

// Current is the energy at the last observed step.
func (e *Energy) Current() float64 { return e.current }

func (e *Energy) Reset() {
	e.current = 0
	e.peak = 0
}

// FieldEnergy computes the stored energy of one snapshot. Nil medium slices mean vacuum.
func FieldEnergy(ez, hy, eps, mu []float64) float64 {
	we, wh := 0.0, 0.0
	for i, v := range ez {
		k := 1.0
		if eps != nil {
			k = eps[i]
		}
		we += k * v * v
	}
	for i, v := range hy {
		k := 1.0
		if mu != nil {
			k = mu[i]
		}
		h := fdtd.W0 * v
		wh += k * h * h
	}
	return 0.5 * (we + wh)
}

// Residual reports the energy left in the grid at the end of a run as a fraction
// of the peak. A working absorbing boundary drives it towards zero.
type Residual struct {
	energy *Energy
}

func NewResidual(eps, mu []float64) *Residual {
	return &Residual{energy: NewEnergy(eps, mu)}
}

func (r *Residual) Name() string { return "residual_energy" }

func (r *Residual) Observe(ez, hy []float64, step int) {
	r.energy.Observe(ez, hy, step)
}

func (r *Residual) Value() float64 {
	if r.energy.peak == 0 {
		return 0
	}
	return r.energy.current / r.energy.peak
}

func (r *Residual) Reset() { r.energy.Reset() }
