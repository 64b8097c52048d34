package config

import "sort"

// Presets build named scenarios. Each call returns a fresh Config.
var Presets = map[string]func() *Config{
	"layered": DefaultConfig,
	"vacuum": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "vacuum"
		cfg.Layers = nil
		cfg.Steps = 800
		return cfg
	},
	"interface": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "interface"
		cfg.Layers = []LayerConfig{{Eps: 4}}
		return cfg
	},
	"slab": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "slab"
		cfg.Steps = 2000
		cfg.Layers = []LayerConfig{{Eps: 7.8, Thickness: 0.21}, {Eps: 1}}
		return cfg
	},
}

func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
