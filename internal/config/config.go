package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ArinaShifrina/PZ4/internal/fdtd"
)

// SpeedOfLight in m/s.
const SpeedOfLight = 3e8

const (
	DefaultX            = 2.0
	DefaultDx           = 4e-3
	DefaultCourant      = 1.0
	DefaultSteps        = 1500
	DefaultSourcePos    = 50
	DefaultAmax         = 100.0
	DefaultFmax         = 4e9
	DefaultExtraDelay   = 30.0
	DefaultMagnitude    = 1.0
	DefaultFreqMin      = 1e9
	DefaultFreqPlotMax  = 5e9
	DefaultDisplayEvery = fdtd.DefaultDisplayEvery
)

// Config describes a simulation scenario in physical units.
type Config struct {
	Name         string         `json:"name" yaml:"name"`
	X            float64        `json:"x" yaml:"x"`
	Dx           float64        `json:"dx" yaml:"dx"`
	Courant      float64        `json:"courant" yaml:"courant"`
	Steps        int            `json:"steps" yaml:"steps"`
	SourcePos    int            `json:"source_pos" yaml:"source_pos"`
	Pulse        PulseConfig    `json:"pulse" yaml:"pulse"`
	Probes       []int          `json:"probes" yaml:"probes"`
	LayerStart   float64        `json:"layer_start" yaml:"layer_start"`
	Layers       []LayerConfig  `json:"layers" yaml:"layers"`
	DisplayEvery int            `json:"display_every" yaml:"display_every"`
	Spectrum     SpectrumConfig `json:"spectrum" yaml:"spectrum"`
}

// PulseConfig sets the source spectrum. Amax is the attenuation at Fmax and at t=0.
type PulseConfig struct {
	Amax       float64 `json:"amax" yaml:"amax"`
	Fmax       float64 `json:"fmax" yaml:"fmax"`
	ExtraDelay float64 `json:"extra_delay" yaml:"extra_delay"`
	Magnitude  float64 `json:"magnitude" yaml:"magnitude"`
}

// LayerConfig is a dielectric slab; Thickness 0 extends it to the grid edge.
type LayerConfig struct {
	Eps       float64 `json:"eps" yaml:"eps"`
	Thickness float64 `json:"thickness" yaml:"thickness"`
}

// SpectrumConfig bounds the reflection analysis.
type SpectrumConfig struct {
	FreqMin     float64 `json:"freq_min" yaml:"freq_min"`
	FreqMax     float64 `json:"freq_max" yaml:"freq_max"`
	FreqPlotMax float64 `json:"freq_plot_max" yaml:"freq_plot_max"`
}

// DefaultConfig is the three-layer reference scenario.
func DefaultConfig() *Config {
	return &Config{
		Name:      "layered",
		X:         DefaultX,
		Dx:        DefaultDx,
		Courant:   DefaultCourant,
		Steps:     DefaultSteps,
		SourcePos: DefaultSourcePos,
		Pulse: PulseConfig{
			Amax:       DefaultAmax,
			Fmax:       DefaultFmax,
			ExtraDelay: DefaultExtraDelay,
			Magnitude:  DefaultMagnitude,
		},
		Probes:     []int{25, 75},
		LayerStart: DefaultX / 2,
		Layers: []LayerConfig{
			{Eps: 7.8, Thickness: 0.21},
			{Eps: 4.2, Thickness: 0.34},
			{Eps: 5.5},
		},
		DisplayEvery: DefaultDisplayEvery,
		Spectrum: SpectrumConfig{
			FreqMin:     DefaultFreqMin,
			FreqMax:     DefaultFmax,
			FreqPlotMax: DefaultFreqPlotMax,
		},
	}
}

// Load reads a YAML or INI scenario; keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		return loadINI(path)
	default:
		return loadYAML(path)
	}
}

func loadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the physical parameters. Grid-level checks happen in fdtd.Config.Validate.
func (c *Config) Validate() error {
	positive := map[string]float64{
		"x": c.X, "dx": c.Dx, "courant": c.Courant,
		"pulse.fmax": c.Pulse.Fmax,
	}
	for name, v := range positive {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", fdtd.ErrInvalidConfig, name, v)
		}
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", fdtd.ErrInvalidConfig, c.Steps)
	}
	if c.Pulse.Amax <= 1 {
		return fmt.Errorf("%w: pulse.amax must exceed 1, got %g", fdtd.ErrInvalidConfig, c.Pulse.Amax)
	}
	if c.Dx > c.X {
		return fmt.Errorf("%w: dx %g larger than domain %g", fdtd.ErrInvalidConfig, c.Dx, c.X)
	}
	for i, l := range c.Layers {
		if l.Thickness < 0 {
			return fmt.Errorf("%w: layer %d has negative thickness", fdtd.ErrInvalidConfig, i)
		}
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Probes = append([]int(nil), c.Probes...)
	cp.Layers = append([]LayerConfig(nil), c.Layers...)
	return &cp
}

// Dt is the time step in seconds.
func (c *Config) Dt() float64 { return c.Courant * c.Dx / SpeedOfLight }

// Size is the number of Ez samples.
func (c *Config) Size() int { return c.cells(c.X) }

// cells converts a length to whole cells, absorbing float noise in the ratio.
func (c *Config) cells(length float64) int {
	return int(math.Floor(length/c.Dx + 1e-9))
}

// Medium returns the per-cell permittivity and the layer boundary indices.
// Without layers the grid is vacuum and LayerStart is ignored.
func (c *Config) Medium() ([]float64, []int, error) {
	if len(c.Layers) == 0 {
		return fdtd.Layered(c.Size(), 0, nil)
	}
	layers := make([]fdtd.Layer, len(c.Layers))
	for i, l := range c.Layers {
		layers[i] = fdtd.Layer{Eps: l.Eps, Cells: fdtd.ToEdge}
		if l.Thickness > 0 {
			layers[i].Cells = c.cells(l.Thickness)
		}
	}
	return fdtd.Layered(c.Size(), c.cells(c.LayerStart), layers)
}

// SourcePulse converts the spectral pulse description to step units.
func (c *Config) SourcePulse() fdtd.Pulse {
	delay, width := fdtd.PulseFromSpectrum(c.Pulse.Amax, c.Pulse.Fmax, c.Dt())
	return fdtd.Pulse{
		Delay:     delay + c.Pulse.ExtraDelay,
		Width:     width,
		Magnitude: c.Pulse.Magnitude,
	}
}

// Engine builds a validated engine configuration.
func (c *Config) Engine() (fdtd.Config, error) {
	if err := c.Validate(); err != nil {
		return fdtd.Config{}, err
	}
	eps, bounds, err := c.Medium()
	if err != nil {
		return fdtd.Config{}, err
	}
	size := c.Size()
	mu := make([]float64, size-1)
	for i := range mu {
		mu[i] = 1
	}
	ec := fdtd.Config{
		Size:         size,
		Steps:        c.Steps,
		Courant:      c.Courant,
		SourcePos:    c.SourcePos,
		Pulse:        c.SourcePulse(),
		Probes:       append([]int(nil), c.Probes...),
		Eps:          eps,
		Mu:           mu,
		Boundaries:   bounds,
		DisplayEvery: c.DisplayEvery,
	}
	if ec.DisplayEvery <= 0 {
		ec.DisplayEvery = DefaultDisplayEvery
	}
	return ec, ec.Validate()
}
