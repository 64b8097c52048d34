package fdtd

import (
	"context"
	"math"
)

// Engine owns the Yee grid and advances it with the leapfrog scheme.
type Engine struct {
	cfg Config

	ez, hy  []float64
	eps, mu []float64

	source      *GaussianDiff
	left, right *ABC
	probes      []*Probe

	metrics  []Metric
	displays []Display

	step int
}

// New validates cfg and allocates every array the run needs.
func New(cfg Config) (*Engine, error) {
	if cfg.Eps == nil && cfg.Size > 0 {
		cfg.Eps = fill(cfg.Size, 1)
	}
	if cfg.Mu == nil && cfg.Size > 1 {
		cfg.Mu = fill(cfg.Size-1, 1)
	}
	if cfg.DisplayEvery <= 0 {
		cfg.DisplayEvery = DefaultDisplayEvery
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eps := append([]float64(nil), cfg.Eps...)
	mu := append([]float64(nil), cfg.Mu...)
	src := cfg.SourcePos

	source, err := NewGaussianDiff(cfg.Pulse, eps[src], mu[src], cfg.Courant)
	if err != nil {
		return nil, err
	}

	probes := make([]*Probe, len(cfg.Probes))
	for i, pos := range cfg.Probes {
		probes[i] = NewProbe(pos, cfg.Steps)
	}

	n := cfg.Size
	return &Engine{
		cfg:    cfg,
		ez:     make([]float64, n),
		hy:     make([]float64, n-1),
		eps:    eps,
		mu:     mu,
		source: source,
		left:   NewABC(Left, cfg.Courant, eps[0], mu[0]),
		right:  NewABC(Right, cfg.Courant, eps[n-1], mu[n-2]),
		probes: probes,
	}, nil
}

func (e *Engine) AddMetric(m Metric)    { e.metrics = append(e.metrics, m) }
func (e *Engine) AddDisplay(d Display)  { e.displays = append(e.displays, d) }
func (e *Engine) Config() Config        { return e.cfg }
func (e *Engine) Source() *GaussianDiff { return e.source }
func (e *Engine) Probes() []*Probe      { return e.probes }
func (e *Engine) StepIndex() int        { return e.step }

// Ez returns a copy of the electric field.
func (e *Engine) Ez() []float64 { return append([]float64(nil), e.ez...) }

// Hy returns a copy of the magnetic field.
func (e *Engine) Hy() []float64 { return append([]float64(nil), e.hy...) }

// Step advances the grid by one time step. The order of the stages is load-bearing:
// H, TFSF on H, E, TFSF on E, both ABCs, then probes.
func (e *Engine) Step() {
	q := float64(e.step)
	sc := e.cfg.Courant
	src := e.cfg.SourcePos
	ez, hy := e.ez, e.hy

	for i := range hy {
		hy[i] += (ez[i+1] - ez[i]) * sc / (W0 * e.mu[i])
	}
	hy[src-1] -= sc / (W0 * e.mu[src-1]) * e.source.Field(0, q)

	for i := 1; i < len(ez)-1; i++ {
		ez[i] += (hy[i] - hy[i-1]) * sc * W0 / e.eps[i]
	}
	ez[src] += sc / math.Sqrt(e.eps[src]*e.mu[src]) * e.source.Field(-0.5, q+0.5)

	e.left.Apply(ez)
	e.right.Apply(ez)

	for _, p := range e.probes {
		p.AddData(ez, hy)
	}
	e.step++
}

// Run executes the configured number of steps and returns the recorded data.
// Cancellation is checked between steps.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	for _, m := range e.metrics {
		m.Reset()
	}
	e.activateDisplays()
	defer e.stopDisplays()

	for e.step < e.cfg.Steps {
		select {
		case <-ctx.Done():
			return e.result(), &StepError{Step: e.step, Wrapped: ctx.Err()}
		default:
		}

		q := e.step
		e.Step()

		for _, m := range e.metrics {
			m.Observe(e.ez, e.hy, q)
		}
		if q%e.cfg.DisplayEvery == 0 && len(e.displays) > 0 {
			snap := e.Ez()
			for _, d := range e.displays {
				d.UpdateData(snap, q)
			}
		}
	}
	return e.result(), nil
}

func (e *Engine) activateDisplays() {
	for _, d := range e.displays {
		d.Activate()
		d.DrawProbes(append([]int(nil), e.cfg.Probes...))
		d.DrawSources([]int{e.cfg.SourcePos})
		for _, b := range e.cfg.Boundaries {
			d.DrawBoundary(b)
		}
	}
}

func (e *Engine) stopDisplays() {
	for _, d := range e.displays {
		d.Stop()
	}
}

func (e *Engine) result() *Result {
	r := &Result{
		Ez:      e.Ez(),
		Hy:      e.Hy(),
		Probes:  e.probes,
		Steps:   e.step,
		Metrics: make(map[string]float64, len(e.metrics)),
	}
	for _, m := range e.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
	return r
}
