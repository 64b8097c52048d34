package metrics

import (
	"math"

	"github.com/ArinaShifrina/PZ4/internal/fdtd"
)

// DefaultThreshold bounds |Ez| for a unit-magnitude source; a stable run
// never comes near it.
const DefaultThreshold = 100.0

// Stability is the fraction of steps in which every Ez sample stayed finite and
// within threshold. An unstable Courant number shows up as a value below 1.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(ez, _ []float64, _ int) {
	s.samples++
	for _, val := range ez {
		if math.IsNaN(val) || math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Default returns the metrics recorded for every run.
func Default(eps, mu []float64, threshold float64) []fdtd.Metric {
	return []fdtd.Metric{
		NewEnergy(eps, mu),
		NewResidual(eps, mu),
		NewPeak(),
		NewStability(threshold),
	}
}
