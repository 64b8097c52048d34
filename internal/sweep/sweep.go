package sweep

import (
	"context"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ArinaShifrina/PZ4/internal/config"
	"github.com/ArinaShifrina/PZ4/internal/experiment"
)

// Ensemble runs independent scenarios. Each scenario gets its own engine and
// its own single-threaded time loop; nothing is shared between runs.
type Ensemble struct {
	workers int
}

// NewEnsemble runs up to workers scenarios at once; workers <= 0 runs them
// one after another.
func NewEnsemble(workers int) *Ensemble {
	if workers <= 0 {
		workers = 1
	}
	return &Ensemble{workers: workers}
}

// Run executes every scenario and returns the outcomes in input order. The
// first failure cancels the runs still in flight.
func (e *Ensemble) Run(ctx context.Context, cfgs []*config.Config) ([]*experiment.Outcome, error) {
	outcomes := make([]*experiment.Outcome, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			exp, err := experiment.New(cfg)
			if err != nil {
				return fmt.Errorf("scenario %d: %w", i, err)
			}
			out, err := exp.Run(ctx)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Point is one grid node with the reflection measured there.
type Point struct {
	Values    map[string]float64
	Outcome   *experiment.Outcome
	Measured  float64
	Expected  float64
	Stability float64
}

// GridSearch walks the cartesian product of parameter axes.
type GridSearch struct {
	names  []string
	ranges [][]float64
}

func NewGridSearch(names []string, ranges [][]float64) (*GridSearch, error) {
	if len(names) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d names for %d ranges", len(names), len(ranges))
	}
	for i, name := range names {
		if _, err := Lookup(name); err != nil {
			return nil, err
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("grid search: axis %s has no values", name)
		}
	}
	return &GridSearch{names: names, ranges: ranges}, nil
}

// Points enumerates the grid with the last axis varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var points []map[string]float64
	g.collect(0, map[string]float64{}, &points)
	return points
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.names) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	for _, v := range g.ranges[depth] {
		current[g.names[depth]] = v
		g.collect(depth+1, current, out)
	}
	delete(current, g.names[depth])
}

// Scenarios applies every grid point to a copy of base.
func (g *GridSearch) Scenarios(base *config.Config) ([]*config.Config, []map[string]float64, error) {
	points := g.Points()
	cfgs := make([]*config.Config, len(points))
	for i, p := range points {
		cfg := base.Clone()
		for _, name := range g.names {
			set, _ := Lookup(name)
			if err := set(cfg, p[name]); err != nil {
				return nil, nil, err
			}
		}
		cfgs[i] = cfg
	}
	return cfgs, points, nil
}

// Run simulates every grid point and measures the reflection at each.
func (g *GridSearch) Run(ctx context.Context, base *config.Config, ens *Ensemble) ([]Point, error) {
	cfgs, values, err := g.Scenarios(base)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"points": len(cfgs), "workers": ens.workers}).Info("sweep started")

	outcomes, err := ens.Run(ctx, cfgs)
	if err != nil {
		return nil, err
	}

	points := make([]Point, len(outcomes))
	for i, out := range outcomes {
		measured, err := out.MeasuredReflection()
		if err != nil {
			return nil, err
		}
		points[i] = Point{
			Values:    values[i],
			Outcome:   out,
			Measured:  measured,
			Expected:  out.ExpectedReflection(),
			Stability: out.Result.Metrics["stability"],
		}
	}
	return points, nil
}

// Best returns the point minimizing objective. Points with a NaN objective
// are skipped; ok is false when nothing qualifies.
func Best(points []Point, objective func(Point) float64) (best Point, ok bool) {
	bestVal := math.Inf(1)
	for _, p := range points {
		v := objective(p)
		if math.IsNaN(v) || v >= bestVal {
			continue
		}
		best, bestVal, ok = p, v, true
	}
	return best, ok
}

// MinReflection ranks points by measured reflection.
func MinReflection(p Point) float64 { return p.Measured }

// ModelError ranks points by distance between measured and analytic reflection.
func ModelError(p Point) float64 { return math.Abs(p.Measured - p.Expected) }
