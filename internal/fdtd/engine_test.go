package fdtd

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func vacuumConfig() Config {
	return Config{
		Size:      200,
		Steps:     300,
		Courant:   1,
		SourcePos: 50,
		Pulse:     Pulse{Delay: 60, Width: 15, Magnitude: 1},
		Probes:    []int{25, 100},
	}
}

type recordingDisplay struct {
	active     bool
	stopped    bool
	probes     []int
	sources    []int
	boundaries []int
	steps      []int
	lastField  []float64
}

func (d *recordingDisplay) Activate()           { d.active = true }
func (d *recordingDisplay) DrawProbes(p []int)  { d.probes = p }
func (d *recordingDisplay) DrawSources(s []int) { d.sources = s }
func (d *recordingDisplay) DrawBoundary(i int)  { d.boundaries = append(d.boundaries, i) }
func (d *recordingDisplay) Stop()               { d.stopped = true }
func (d *recordingDisplay) UpdateData(f []float64, step int) {
	d.steps = append(d.steps, step)
	d.lastField = f
	f[0] = 1e9 // a snapshot, so the engine must be unaffected
}

type countMetric struct{ n int }

func (c *countMetric) Name() string                    { return "count" }
func (c *countMetric) Observe(ez, hy []float64, _ int) { c.n++ }
func (c *countMetric) Value() float64                  { return float64(c.n) }
func (c *countMetric) Reset()                          { c.n = 0 }

func TestEngineGridInvariant(t *testing.T) {
	e, err := New(vacuumConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	for i := 0; i < 50; i++ {
		e.Step()
		if len(e.Hy()) != len(e.Ez())-1 {
			t.Fatalf("step %d: len(Hy)=%d len(Ez)=%d", i, len(e.Hy()), len(e.Ez()))
		}
	}
	if e.StepIndex() != 50 {
		t.Errorf("expected step index 50, got %d", e.StepIndex())
	}
}

func TestEngineRunRecordsProbes(t *testing.T) {
	e, err := New(vacuumConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	metric := &countMetric{}
	e.AddMetric(metric)

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Steps != 300 {
		t.Errorf("expected 300 steps, got %d", result.Steps)
	}
	for _, p := range result.Probes {
		if p.Len() != 300 || len(p.H()) != 300 {
			t.Errorf("probe %d: expected 300 samples, got E=%d H=%d", p.Position(), p.Len(), len(p.H()))
		}
	}
	if result.Metrics["count"] != 300 {
		t.Errorf("expected metric to observe 300 steps, got %v", result.Metrics["count"])
	}
	if result.Probe(100) == nil || result.Probe(7) != nil {
		t.Error("probe lookup by position failed")
	}
}

func TestEngineProbeMatchesField(t *testing.T) {
	e, _ := New(vacuumConfig())
	for i := 0; i < 120; i++ {
		e.Step()
	}
	p := e.Probes()[1]
	if got, want := p.E()[119], e.Ez()[100]; got != want {
		t.Errorf("probe E = %g, field = %g", got, want)
	}
	if got, want := p.H()[119], e.Hy()[100]; got != want {
		t.Errorf("probe H = %g, field = %g", got, want)
	}
}

func TestEngineDeterministic(t *testing.T) {
	run := func() *Result {
		e, err := New(vacuumConfig())
		if err != nil {
			t.Fatalf("new engine: %v", err)
		}
		r, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return r
	}

	a, b := run(), run()
	if diff := cmp.Diff(a.Ez, b.Ez); diff != "" {
		t.Errorf("Ez differs between runs:\n%s", diff)
	}
	if diff := cmp.Diff(a.Hy, b.Hy); diff != "" {
		t.Errorf("Hy differs between runs:\n%s", diff)
	}
	for i := range a.Probes {
		if diff := cmp.Diff(a.Probes[i].E(), b.Probes[i].E()); diff != "" {
			t.Errorf("probe %d differs between runs:\n%s", i, diff)
		}
	}
}

func TestEngineDisplayCadence(t *testing.T) {
	cfg := vacuumConfig()
	cfg.Steps = 23
	cfg.Boundaries = []int{120, 150}

	e, _ := New(cfg)
	d := &recordingDisplay{}
	e.AddDisplay(d)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !d.active || !d.stopped {
		t.Error("display not activated and stopped")
	}
	if diff := cmp.Diff([]int{0, 5, 10, 15, 20}, d.steps); diff != "" {
		t.Errorf("update steps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{120, 150}, d.boundaries); diff != "" {
		t.Errorf("boundaries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{50}, d.sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if e.Ez()[0] == 1e9 {
		t.Error("display mutated engine field")
	}
}

func TestEngineCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, _ := New(vacuumConfig())
	result, err := e.Run(ctx)

	var stepErr *StepError
	if !errors.As(err, &stepErr) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled StepError, got %v", err)
	}
	if stepErr.Step != 0 || result.Steps != 0 {
		t.Errorf("expected no steps before cancel, got %d", result.Steps)
	}
}

func TestEngineScatteredRegionQuietInVacuum(t *testing.T) {
	e, _ := New(vacuumConfig())
	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for q, v := range result.Probe(25).E() {
		if math.Abs(v) > 1e-5 {
			t.Fatalf("step %d: field %g leaked into scattered-field region", q, v)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	base := vacuumConfig()
	base.Eps = fill(base.Size, 1)
	base.Mu = fill(base.Size-1, 1)

	tests := []struct {
		name   string
		mutate func(c *Config)
		target error
	}{
		{"tiny grid", func(c *Config) { c.Size = 3 }, ErrInvalidConfig},
		{"zero steps", func(c *Config) { c.Steps = 0 }, ErrInvalidConfig},
		{"zero courant", func(c *Config) { c.Courant = 0 }, ErrInvalidConfig},
		{"nan courant", func(c *Config) { c.Courant = math.NaN() }, ErrInvalidConfig},
		{"source at edge", func(c *Config) { c.SourcePos = 0 }, ErrInvalidConfig},
		{"source past end", func(c *Config) { c.SourcePos = c.Size - 1 }, ErrInvalidConfig},
		{"probe outside", func(c *Config) { c.Probes = []int{c.Size - 1} }, ErrInvalidConfig},
		{"short eps", func(c *Config) { c.Eps = c.Eps[1:] }, ErrDimensionMismatch},
		{"mu sized like ez", func(c *Config) { c.Mu = fill(c.Size, 1) }, ErrDimensionMismatch},
		{"negative eps", func(c *Config) { c.Eps = fill(c.Size, 1); c.Eps[10] = -2 }, ErrInvalidConfig},
		{"zero mu", func(c *Config) { c.Mu = fill(c.Size-1, 1); c.Mu[3] = 0 }, ErrInvalidConfig},
		{"zero width", func(c *Config) { c.Pulse.Width = 0 }, ErrInvalidConfig},
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("base config rejected: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
			if _, err := New(cfg); err == nil {
				t.Error("New accepted invalid config")
			}
		})
	}
}

func TestConfigStability(t *testing.T) {
	cfg := vacuumConfig()
	if !cfg.CourantStable() || cfg.CheckStability() != nil {
		t.Error("Sc=1 should be stable")
	}
	cfg.Courant = 1.01
	if cfg.CourantStable() || !errors.Is(cfg.CheckStability(), ErrUnstable) {
		t.Error("Sc>1 should be reported unstable")
	}
}
