package fdtd

import "math"

// W0 is the wave impedance of free space in ohms.
const W0 = 120.0 * math.Pi

// DefaultDisplayEvery is the display refresh cadence in steps.
const DefaultDisplayEvery = 5

// Display receives setup annotations and decimated field snapshots during a run.
// Implementations must not mutate the slices they are given.
type Display interface {
	Activate()
	DrawProbes(positions []int)
	DrawSources(positions []int)
	DrawBoundary(index int)
	UpdateData(field []float64, step int)
	Stop()
}

// Metric accumulates a scalar over the steps of a run.
type Metric interface {
	Name() string
	Observe(ez, hy []float64, step int)
	Value() float64
	Reset()
}

// Pulse describes the differentiated Gaussian excitation in time-step units.
type Pulse struct {
	Delay     float64 `json:"delay" yaml:"delay"`
	Width     float64 `json:"width" yaml:"width"`
	Magnitude float64 `json:"magnitude" yaml:"magnitude"`
}

// Config holds everything the engine needs before the time loop starts.
type Config struct {
	Size      int
	Steps     int
	Courant   float64
	SourcePos int
	Pulse     Pulse
	Probes    []int

	// Eps has Size samples, Mu has Size-1. Nil means vacuum.
	Eps []float64
	Mu  []float64

	// Boundaries are medium interfaces reported to displays at setup.
	Boundaries []int

	DisplayEvery int
}

// Result is what a finished run hands over to analysis and display.
type Result struct {
	Ez      []float64
	Hy      []float64
	Probes  []*Probe
	Steps   int
	Metrics map[string]float64
}

// Probe returns the probe recorded at pos, or nil.
func (r *Result) Probe(pos int) *Probe {
	for _, p := range r.Probes {
		if p.Position() == pos {
			return p
		}
	}
	return nil
}

func fill(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
