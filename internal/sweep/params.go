package sweep

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ArinaShifrina/PZ4/internal/config"
	"github.com/ArinaShifrina/PZ4/internal/fdtd"
)

// Setter writes one swept value into a scenario.
type Setter func(c *config.Config, v float64) error

var setters = map[string]Setter{
	"courant":     func(c *config.Config, v float64) error { c.Courant = v; return nil },
	"dx":          func(c *config.Config, v float64) error { c.Dx = v; return nil },
	"amax":        func(c *config.Config, v float64) error { c.Pulse.Amax = v; return nil },
	"fmax":        func(c *config.Config, v float64) error { c.Pulse.Fmax = v; return nil },
	"extra_delay": func(c *config.Config, v float64) error { c.Pulse.ExtraDelay = v; return nil },
	"layer_start": func(c *config.Config, v float64) error { c.LayerStart = v; return nil },
}

// Lookup resolves a parameter name. Besides the fixed names it accepts
// layer.N.eps and layer.N.thickness with N counted from 1.
func Lookup(name string) (Setter, error) {
	if s, ok := setters[name]; ok {
		return s, nil
	}

	parts := strings.Split(name, ".")
	if len(parts) != 3 || parts[0] != "layer" {
		return nil, fmt.Errorf("%w: unknown sweep parameter %q", fdtd.ErrInvalidConfig, name)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("%w: bad layer index in %q", fdtd.ErrInvalidConfig, name)
	}
	idx := n - 1

	layer := func(c *config.Config) (*config.LayerConfig, error) {
		if idx >= len(c.Layers) {
			return nil, fmt.Errorf("%w: scenario %s has %d layers, %s needs %d",
				fdtd.ErrInvalidConfig, c.Name, len(c.Layers), name, n)
		}
		return &c.Layers[idx], nil
	}

	switch parts[2] {
	case "eps":
		return func(c *config.Config, v float64) error {
			l, err := layer(c)
			if err != nil {
				return err
			}
			l.Eps = v
			return nil
		}, nil
	case "thickness":
		return func(c *config.Config, v float64) error {
			l, err := layer(c)
			if err != nil {
				return err
			}
			l.Thickness = v
			return nil
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown layer field in %q", fdtd.ErrInvalidConfig, name)
}

// Names lists the fixed parameter names.
func Names() []string {
	names := make([]string, 0, len(setters)+2)
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return append(names, "layer.N.eps", "layer.N.thickness")
}

// ParseAxis reads "name=v1,v2,..." into a parameter name and its values.
func ParseAxis(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("sweep axis %q: want name=v1,v2,...", s)
	}
	if _, err := Lookup(name); err != nil {
		return "", nil, err
	}

	var values []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("sweep axis %s: %w", name, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}
