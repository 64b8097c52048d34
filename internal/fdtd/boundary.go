package fdtd

import "math"

// Side selects the grid edge an ABC is attached to.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// ABC is a second-order Mur absorbing boundary for one edge of the grid.
//
// Samples are kept in edge order: index 0 is the outermost node, 2 the innermost,
// so the same recursion serves both sides.
type ABC struct {
	side           Side
	k1, k2, k3, k4 float64

	prev  []float64 // edge window after step q
	prev2 []float64 // edge window after step q-1
}

// NewABC derives the recursion coefficients from the local Courant number at the edge.
func NewABC(side Side, courant, eps, mu float64) *ABC {
	sc := courant / math.Sqrt(mu*eps)
	return &ABC{
		side:  side,
		k1:    -1 / (1/sc + 2 + sc),
		k2:    1/sc - 2 + sc,
		k3:    2 * (sc - 1/sc),
		k4:    4 * (1/sc + sc),
		prev:  make([]float64, 3),
		prev2: make([]float64, 3),
	}
}

// Coefficients returns k1..k4.
func (a *ABC) Coefficients() (k1, k2, k3, k4 float64) {
	return a.k1, a.k2, a.k3, a.k4
}

func (a *ABC) index(n, j int) int {
	if a.side == Left {
		return j
	}
	return n - 1 - j
}

// Apply overwrites the edge sample of ez and shifts the stored history.
// It must run once per step, after the interior E update.
func (a *ABC) Apply(ez []float64) {
	n := len(ez)
	e1, e2 := ez[a.index(n, 1)], ez[a.index(n, 2)]
	o1, o2 := a.prev, a.prev2

	ez[a.index(n, 0)] = a.k1*(a.k2*(e2+o2[0])+
		a.k3*(o1[0]+o1[2]-e1-o2[1])-
		a.k4*o1[1]) - o2[2]

	a.prev, a.prev2 = a.prev2, a.prev
	for j := range a.prev {
		a.prev[j] = ez[a.index(n, j)]
	}
}

// Reset clears the stored history.
func (a *ABC) Reset() {
	for j := range a.prev {
		a.prev[j], a.prev2[j] = 0, 0
	}
}
