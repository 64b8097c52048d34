package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ArinaShifrina/PZ4/internal/analysis"
	"github.com/ArinaShifrina/PZ4/internal/config"
	"github.com/ArinaShifrina/PZ4/internal/fdtd"
	"github.com/ArinaShifrina/PZ4/internal/metrics"
)

// ErrNoScatteredProbe is returned when no probe sits in the scattered-field
// region left of the source.
var ErrNoScatteredProbe = errors.New("experiment: no probe left of the source")

// Experiment is one scenario wired to an engine with the default metrics.
type Experiment struct {
	cfg    *config.Config
	ec     fdtd.Config
	engine *fdtd.Engine
}

func New(cfg *config.Config) (*Experiment, error) {
	ec, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	if err := ec.CheckStability(); err != nil {
		log.WithFields(log.Fields{
			"scenario": cfg.Name,
			"courant":  ec.Courant,
		}).Warn("courant number above 1, the run will likely diverge")
	}

	engine, err := fdtd.New(ec)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Default(ec.Eps, ec.Mu, metrics.DefaultThreshold) {
		engine.AddMetric(m)
	}
	return &Experiment{cfg: cfg, ec: ec, engine: engine}, nil
}

func (e *Experiment) AddDisplay(d fdtd.Display) { e.engine.AddDisplay(d) }
func (e *Experiment) AddMetric(m fdtd.Metric)   { e.engine.AddMetric(m) }

// EngineConfig is the grid-level configuration derived from the scenario.
func (e *Experiment) EngineConfig() fdtd.Config { return e.ec }

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	start := time.Now()
	result, err := e.engine.Run(ctx)
	out := &Outcome{
		Config:   e.cfg,
		Engine:   e.ec,
		Result:   result,
		Incident: e.engine.Source().Sample(result.Steps),
		Elapsed:  time.Since(start),
	}
	if err != nil {
		return out, fmt.Errorf("run %s: %w", e.cfg.Name, err)
	}

	log.WithFields(log.Fields{
		"scenario": e.cfg.Name,
		"steps":    result.Steps,
		"elapsed":  out.Elapsed,
	}).Debug("run finished")
	return out, nil
}

// Outcome is a finished run together with what its analysis needs.
type Outcome struct {
	Config *config.Config
	Engine fdtd.Config
	Result *fdtd.Result

	// Incident is the source waveform at the injection point.
	Incident []float64
	Elapsed  time.Duration
}

// ScatteredProbe returns the first probe left of the source, where only
// reflected waves are recorded.
func (o *Outcome) ScatteredProbe() (*fdtd.Probe, error) {
	for _, p := range o.Result.Probes {
		if p.Position() < o.Engine.SourcePos {
			return p, nil
		}
	}
	return nil, ErrNoScatteredProbe
}

// Spectrum returns the incident and reflected amplitude spectra.
func (o *Outcome) Spectrum() (*analysis.Spectrum, error) {
	p, err := o.ScatteredProbe()
	if err != nil {
		return nil, err
	}
	return analysis.FallAndScattered(o.Incident, p.E(), o.Config.Dt(), 0), nil
}

// MeasuredReflection is the peak-to-peak ratio of the reflected pulse to the
// incident one.
func (o *Outcome) MeasuredReflection() (float64, error) {
	p, err := o.ScatteredProbe()
	if err != nil {
		return 0, err
	}
	return analysis.Reflection(o.Incident, p.E()), nil
}

// ExpectedReflection is |r| at the first medium interface placed on the grid,
// 0 when the grid holds no layer.
func (o *Outcome) ExpectedReflection() float64 {
	if len(o.Engine.Boundaries) == 0 || len(o.Engine.Eps) == 0 {
		return 0
	}
	r := analysis.ReflectionCoefficient(1, o.Engine.Eps[o.Engine.Boundaries[0]])
	if r < 0 {
		return -r
	}
	return r
}
