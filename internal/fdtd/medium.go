package fdtd

// ToEdge as Layer.Cells extends a slab to the end of the grid.
const ToEdge = -1

// Layer is a homogeneous dielectric slab. Cells < 0 extends it to the grid
// edge; Cells == 0 is an empty slab that occupies no cells.
type Layer struct {
	Eps   float64
	Cells int
}

// Layered builds a relative permittivity profile of size cells: vacuum up to start,
// then each layer in turn. It returns the profile and the index where each
// non-empty layer begins.
func Layered(size, start int, layers []Layer) ([]float64, []int, error) {
	if size < 1 {
		return nil, nil, invalid("grid size must be positive, got %d", size)
	}
	if start < 0 || start > size {
		return nil, nil, invalid("layer start %d outside grid [0, %d]", start, size)
	}

	eps := fill(size, 1)
	bounds := make([]int, 0, len(layers))
	pos := start
	for i, l := range layers {
		if !finite(l.Eps) || l.Eps <= 0 {
			return nil, nil, invalid("layer %d permittivity must be positive, got %g", i, l.Eps)
		}
		if pos >= size {
			break
		}
		if l.Cells == 0 {
			continue
		}
		end := size
		if l.Cells > 0 && pos+l.Cells < size {
			end = pos + l.Cells
		}
		bounds = append(bounds, pos)
		for j := pos; j < end; j++ {
			eps[j] = l.Eps
		}
		pos = end
	}
	return eps, bounds, nil
}
