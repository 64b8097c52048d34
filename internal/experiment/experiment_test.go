package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ArinaShifrina/PZ4/internal/config"
	"github.com/ArinaShifrina/PZ4/internal/fdtd"
)

func TestRunInterface(t *testing.T) {
	exp, err := New(config.GetPreset("interface"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(out.Incident) != out.Result.Steps {
		t.Errorf("incident has %d samples, want %d", len(out.Incident), out.Result.Steps)
	}
	for _, name := range []string{"energy", "residual_energy", "peak_field", "stability"} {
		if _, ok := out.Result.Metrics[name]; !ok {
			t.Errorf("metric %s missing", name)
		}
	}
	if out.Result.Metrics["stability"] != 1 {
		t.Errorf("stability = %g, want 1", out.Result.Metrics["stability"])
	}

	measured, err := out.MeasuredReflection()
	if err != nil {
		t.Fatal(err)
	}
	if expected := out.ExpectedReflection(); math.Abs(measured-expected) > 0.02 {
		t.Errorf("measured |R| = %.4f, expected %.4f", measured, expected)
	}
}

func TestSpectrum(t *testing.T) {
	exp, err := New(config.GetPreset("interface"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	spec, err := out.Spectrum()
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.Freqs) != len(spec.Incident) || len(spec.Incident) != len(spec.Reflected) {
		t.Fatal("spectrum axes differ in length")
	}

	cfg := out.Config.Spectrum
	_, r := spec.Coefficient(cfg.FreqMin, cfg.FreqMax)
	if len(r) == 0 {
		t.Fatal("empty coefficient band")
	}
	for i, v := range r {
		if math.Abs(v-1.0/3) > 0.05 {
			t.Errorf("|R| bin %d = %.4f, want ~1/3", i, v)
			break
		}
	}
}

func TestNoScatteredProbe(t *testing.T) {
	cfg := config.GetPreset("vacuum")
	cfg.X = 0.4
	cfg.Steps = 50
	cfg.Probes = []int{75}

	exp, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := out.Spectrum(); !errors.Is(err, ErrNoScatteredProbe) {
		t.Errorf("expected ErrNoScatteredProbe, got %v", err)
	}
	if out.ExpectedReflection() != 0 {
		t.Error("vacuum should have no expected reflection")
	}
}

func TestRunCancelled(t *testing.T) {
	exp, err := New(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := exp.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var stepErr *fdtd.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != 0 {
		t.Errorf("expected StepError at step 0, got %v", err)
	}
	if out == nil || out.Result.Steps != 0 {
		t.Error("expected partial outcome")
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dx = 0
	if _, err := New(cfg); !errors.Is(err, fdtd.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestExpectedReflectionFollowsPlacedLayers(t *testing.T) {
	tests := []struct {
		name   string
		adjust func(*config.Config)
		want   float64
	}{
		{"layer starts at grid edge", func(c *config.Config) { c.LayerStart = c.X }, 0},
		{"sub-cell first layer", func(c *config.Config) {
			c.Layers = []config.LayerConfig{{Eps: 7.8, Thickness: 0.002}, {Eps: 4}}
		}, 1.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.GetPreset("interface")
			cfg.Steps = 10
			tt.adjust(cfg)

			exp, err := New(cfg)
			if err != nil {
				t.Fatal(err)
			}
			out, err := exp.Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if got := out.ExpectedReflection(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected reflection = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestCancelledSpectrumHasNoBand(t *testing.T) {
	exp, err := New(config.GetPreset("interface"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, _ := exp.Run(ctx)
	spec, err := out.Spectrum()
	if err != nil {
		t.Fatal(err)
	}
	if _, r := spec.Coefficient(out.Config.Spectrum.FreqMin, out.Config.Spectrum.FreqMax); len(r) != 0 {
		t.Errorf("cancelled run produced %d coefficient bins", len(r))
	}
}
