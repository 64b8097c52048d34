package server

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors exported on /metrics.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	stepsTotal    prometheus.Counter
	currentStep   prometheus.Gauge
	peakField     prometheus.Gauge
	clients       prometheus.Gauge
	framesSent    prometheus.Counter
	framesDropped prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fdtd_runs_total",
			Help: "Simulation runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fdtd_run_duration_seconds",
			Help:    "Wall time of finished simulation runs.",
			Buckets: prometheus.DefBuckets,
		}),
		stepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fdtd_steps_total",
			Help: "Time steps computed across all runs.",
		}),
		currentStep: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fdtd_current_step",
			Help: "Step index of the active run.",
		}),
		peakField: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fdtd_peak_field",
			Help: "Largest |Ez| on the grid at the last observed step.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fdtd_ws_clients",
			Help: "Connected websocket clients.",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fdtd_frames_sent_total",
			Help: "Field frames queued to websocket clients.",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fdtd_frames_dropped_total",
			Help: "Field frames skipped because a client fell behind.",
		}),
	}

	reg.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.stepsTotal,
		m.currentStep,
		m.peakField,
		m.clients,
		m.framesSent,
		m.framesDropped,
	)
	return m
}

// progress feeds per-step engine state into the gauges.
type progress struct {
	m    *Metrics
	last int
}

func (p *progress) Name() string { return "progress" }

func (p *progress) Observe(ez, _ []float64, step int) {
	peak := 0.0
	for _, v := range ez {
		peak = math.Max(peak, math.Abs(v))
	}
	p.m.stepsTotal.Inc()
	p.m.currentStep.Set(float64(step))
	p.m.peakField.Set(peak)
	p.last = step
}

func (p *progress) Value() float64 { return float64(p.last) }

func (p *progress) Reset() { p.last = 0 }
