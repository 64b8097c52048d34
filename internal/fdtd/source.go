package fdtd

import "math"

// GaussianDiff is a differentiated Gaussian pulse source. Delay and Width are
// in time steps; Eps and Mu are the relative medium parameters at the source cell.
type GaussianDiff struct {
	Delay     float64
	Width     float64
	Eps       float64
	Mu        float64
	Courant   float64
	Magnitude float64
}

// NewGaussianDiff validates the pulse parameters and returns the source.
func NewGaussianDiff(p Pulse, eps, mu, courant float64) (*GaussianDiff, error) {
	for name, v := range map[string]float64{
		"delay": p.Delay, "width": p.Width, "magnitude": p.Magnitude,
		"eps": eps, "mu": mu, "courant": courant,
	} {
		if !finite(v) {
			return nil, invalid("source %s is not finite", name)
		}
	}
	if p.Width <= 0 {
		return nil, invalid("pulse width must be positive, got %g", p.Width)
	}
	if eps <= 0 || mu <= 0 || courant <= 0 {
		return nil, invalid("source medium and courant number must be positive")
	}
	return &GaussianDiff{
		Delay:     p.Delay,
		Width:     p.Width,
		Eps:       eps,
		Mu:        mu,
		Courant:   courant,
		Magnitude: p.Magnitude,
	}, nil
}

// Field returns the excitation at spatial offset m (cells) and time q (steps).
// Both may be fractional.
func (g *GaussianDiff) Field(m, q float64) float64 {
	e := (q - m*math.Sqrt(g.Eps*g.Mu)/g.Courant - g.Delay) / g.Width
	return -2 * g.Magnitude * e * math.Exp(-(e * e))
}

// Peak is the largest absolute value the pulse reaches: sqrt(2)*exp(-1/2)*|Magnitude|.
func (g *GaussianDiff) Peak() float64 {
	return math.Sqrt2 * math.Exp(-0.5) * math.Abs(g.Magnitude)
}

// Sample evaluates the source at m=0 for q in [0, steps).
func (g *GaussianDiff) Sample(steps int) []float64 {
	out := make([]float64, steps)
	for q := range out {
		out[q] = g.Field(0, float64(q))
	}
	return out
}

// PulseFromSpectrum derives delay and width (in steps) so that the pulse spectrum
// is attenuated by amax at fmax and the pulse starts attenuated by amax at q=0.
func PulseFromSpectrum(amax, fmax, dt float64) (delay, width float64) {
	wg := math.Sqrt(math.Log(5.5*amax)) / (math.Pi * fmax)
	dg := wg * math.Sqrt(math.Log(2.5*amax*math.Sqrt(math.Log(2.5*amax))))
	return dg / dt, wg / dt
}
