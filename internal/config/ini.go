package config

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// loadINI reads a scenario from an INI file with [grid], [source], [probes],
// [spectrum] sections and one [layer.N] section per dielectric layer.
func loadINI(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg := DefaultConfig()
	applyINI(file, cfg)
	return cfg, nil
}

func applyINI(file *ini.File, cfg *Config) {
	grid := file.Section("grid")
	cfg.Name = grid.Key("name").MustString(cfg.Name)
	cfg.X = grid.Key("x").MustFloat64(cfg.X)
	cfg.Dx = grid.Key("dx").MustFloat64(cfg.Dx)
	cfg.Courant = grid.Key("courant").MustFloat64(cfg.Courant)
	cfg.Steps = grid.Key("steps").MustInt(cfg.Steps)
	cfg.LayerStart = grid.Key("layer_start").MustFloat64(cfg.LayerStart)
	cfg.DisplayEvery = grid.Key("display_every").MustInt(cfg.DisplayEvery)

	src := file.Section("source")
	cfg.SourcePos = src.Key("position").MustInt(cfg.SourcePos)
	cfg.Pulse.Amax = src.Key("amax").MustFloat64(cfg.Pulse.Amax)
	cfg.Pulse.Fmax = src.Key("fmax").MustFloat64(cfg.Pulse.Fmax)
	cfg.Pulse.ExtraDelay = src.Key("extra_delay").MustFloat64(cfg.Pulse.ExtraDelay)
	cfg.Pulse.Magnitude = src.Key("magnitude").MustFloat64(cfg.Pulse.Magnitude)

	if probes := file.Section("probes"); probes.HasKey("positions") {
		cfg.Probes = probes.Key("positions").Ints(",")
	}

	spec := file.Section("spectrum")
	cfg.Spectrum.FreqMin = spec.Key("freq_min").MustFloat64(cfg.Spectrum.FreqMin)
	cfg.Spectrum.FreqMax = spec.Key("freq_max").MustFloat64(cfg.Spectrum.FreqMax)
	cfg.Spectrum.FreqPlotMax = spec.Key("freq_plot_max").MustFloat64(cfg.Spectrum.FreqPlotMax)

	var names []string
	for _, sec := range file.Sections() {
		if strings.HasPrefix(sec.Name(), "layer.") {
			names = append(names, sec.Name())
		}
	}
	if len(names) == 0 {
		return
	}
	sort.Slice(names, func(i, j int) bool {
		return layerIndex(names[i]) < layerIndex(names[j])
	})
	cfg.Layers = cfg.Layers[:0:0]
	for _, name := range names {
		sec := file.Section(name)
		cfg.Layers = append(cfg.Layers, LayerConfig{
			Eps:       sec.Key("eps").MustFloat64(1),
			Thickness: sec.Key("thickness").MustFloat64(0),
		})
	}
}

func layerIndex(name string) int {
	var n int
	fmt.Sscanf(strings.TrimPrefix(name, "layer."), "%d", &n)
	return n
}
