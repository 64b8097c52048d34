package fdtd

import "fmt"

// Validate rejects configurations the engine cannot run. Nil medium arrays are
// reported as mismatched; New fills them with vacuum before validating.
func (c Config) Validate() error {
	if c.Size < 4 {
		return invalid("grid size must be at least 4, got %d", c.Size)
	}
	if c.Steps <= 0 {
		return invalid("step count must be positive, got %d", c.Steps)
	}
	if !finite(c.Courant) || c.Courant <= 0 {
		return invalid("courant number must be positive and finite, got %g", c.Courant)
	}
	if c.SourcePos < 1 || c.SourcePos > c.Size-2 {
		return invalid("source position %d outside [1, %d]", c.SourcePos, c.Size-2)
	}
	for _, p := range c.Probes {
		if p < 0 || p > c.Size-2 {
			return invalid("probe position %d outside [0, %d]", p, c.Size-2)
		}
	}
	if len(c.Eps) != c.Size {
		return fmt.Errorf("%w: eps has %d samples, grid has %d", ErrDimensionMismatch, len(c.Eps), c.Size)
	}
	if len(c.Mu) != c.Size-1 {
		return fmt.Errorf("%w: mu has %d samples, want %d", ErrDimensionMismatch, len(c.Mu), c.Size-1)
	}
	for i, v := range c.Eps {
		if !finite(v) || v <= 0 {
			return invalid("eps[%d] must be positive, got %g", i, v)
		}
	}
	for i, v := range c.Mu {
		if !finite(v) || v <= 0 {
			return invalid("mu[%d] must be positive, got %g", i, v)
		}
	}
	if !finite(c.Pulse.Width) || c.Pulse.Width <= 0 {
		return invalid("pulse width must be positive, got %g", c.Pulse.Width)
	}
	return nil
}

// CourantStable reports whether the Courant number is within the 1D limit.
func (c Config) CourantStable() bool {
	return c.Courant <= 1
}

// CheckStability returns ErrUnstable when CourantStable is false.
func (c Config) CheckStability() error {
	if !c.CourantStable() {
		return fmt.Errorf("%w: Sc=%g", ErrUnstable, c.Courant)
	}
	return nil
}
