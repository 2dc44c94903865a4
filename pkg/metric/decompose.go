package metric

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// adjacentAxis is one axis excluded from the similarity computation, together
// with the coordinate values to iterate over. Axes without declared coords
// are enumerated by position.
type adjacentAxis struct {
	dim        string
	coordName  string
	values     []assembly.Label
	positional bool
}

func enumerateAdjacent(a *assembly.Assembly, dims []string) ([]adjacentAxis, error) {
	axes := make([]adjacentAxis, 0, len(dims))
	for _, dim := range dims {
		coords := a.CoordsOn(dim)
		if len(coords) == 0 {
			n, err := a.Len(dim)
			if err != nil {
				return nil, err
			}
			values := make([]assembly.Label, n)
			for i := range values {
				values[i] = i
			}
			axes = append(axes, adjacentAxis{dim: dim, coordName: dim, values: values, positional: true})
			continue
		}
		values, err := a.UniqueValues(coords[0].Name)
		if err != nil {
			return nil, err
		}
		axes = append(axes, adjacentAxis{dim: dim, coordName: coords[0].Name, values: values})
	}
	return axes, nil
}

// combinations returns the row-major size of the Cartesian product over the
// axes' values.
func combinations(axes []adjacentAxis) int {
	n := 1
	for _, ax := range axes {
		n *= len(ax.values)
	}
	return n
}

// comboAssignment maps a row-major combination index to one value per axis.
func comboAssignment(axes []adjacentAxis, combo int) []int {
	assignment := make([]int, len(axes))
	for i := len(axes) - 1; i >= 0; i-- {
		assignment[i] = combo % len(axes[i].values)
		combo /= len(axes[i].values)
	}
	return assignment
}

// sliceFor selects the slice of a fixed by the given adjacent assignment,
// squeezing every adjacent axis that collapses to length one.
func sliceFor(a *assembly.Assembly, axes []adjacentAxis, assignment []int) (*assembly.Assembly, error) {
	var err error
	for i, ax := range axes {
		if ax.positional {
			a, err = a.Take(ax.dim, []int{assignment[i]})
		} else {
			a, err = a.SelectLabel(ax.coordName, ax.values[assignment[i]])
		}
		if err != nil {
			return nil, err
		}
	}
	for _, ax := range axes {
		n, err := a.Len(ax.dim)
		if err != nil {
			return nil, err
		}
		if n == 1 {
			if a, err = a.Squeeze(ax.dim); err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

// apply decomposes the pair into independent adjacent-dimension slices,
// cross-validates each (source, target) slice pair, and reassembles the
// per-split values into one tensor indexed on the Cartesian product of both
// enumerations plus the split axis. Each position is written exactly once.
func (s *CrossValidationSimilarity) apply(source, target *assembly.Assembly) (*assembly.Assembly, error) {
	sourceAxes, err := enumerateAdjacent(source, s.adjacentDims(source))
	if err != nil {
		return nil, err
	}
	targetAxes, err := enumerateAdjacent(target, s.adjacentDims(target))
	if err != nil {
		return nil, err
	}
	nSource, nTarget := combinations(sourceAxes), combinations(targetAxes)
	if nSource == 0 || nTarget == 0 {
		return nil, fmt.Errorf("metric: adjacent axis with no values, nothing to evaluate")
	}

	results := make([][]float64, nSource*nTarget)
	g := new(errgroup.Group)
	if s.cfg.Parallelism > 0 {
		g.SetLimit(s.cfg.Parallelism)
	}
	for i := 0; i < nSource; i++ {
		for j := 0; j < nTarget; j++ {
			g.Go(func() error {
				sourceSlice, err := sliceFor(source, sourceAxes, comboAssignment(sourceAxes, i))
				if err != nil {
					return err
				}
				targetSlice, err := sliceFor(target, targetAxes, comboAssignment(targetAxes, j))
				if err != nil {
					return err
				}
				values, err := s.crossValidate(sourceSlice, targetSlice)
				if err != nil {
					return err
				}
				results[i*nTarget+j] = values
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	want := len(results[0])
	for _, values := range results[1:] {
		if len(values) != want {
			return nil, &InconsistentOutputShapeError{Want: want, Got: len(values)}
		}
	}

	return mergeResults(sourceAxes, targetAxes, results, want)
}

// mergeResults assembles the per-pair per-split values into a single tensor
// over the adjacent axes of both sides plus the split axis. Coordinate names
// shared between the two sides are renamed with _left/_right suffixes so the
// namespaces cannot collide.
func mergeResults(sourceAxes, targetAxes []adjacentAxis, results [][]float64, splits int) (*assembly.Assembly, error) {
	collides := func(name string, other []adjacentAxis) bool {
		for _, ax := range other {
			if ax.dim == name || ax.coordName == name {
				return true
			}
		}
		return false
	}
	var dims []string
	var shape []int
	var coords []assembly.Coord
	addAxes := func(axes, other []adjacentAxis, suffix string) {
		for _, ax := range axes {
			dim, coordName := ax.dim, ax.coordName
			if collides(dim, other) {
				dim += suffix
			}
			if collides(coordName, other) {
				coordName += suffix
			}
			dims = append(dims, dim)
			shape = append(shape, len(ax.values))
			coords = append(coords, assembly.Coord{Name: coordName, Dim: dim, Values: ax.values})
		}
	}
	addAxes(sourceAxes, targetAxes, "_left")
	addAxes(targetAxes, sourceAxes, "_right")

	dims = append(dims, SplitDim)
	shape = append(shape, splits)
	splitLabels := make([]assembly.Label, splits)
	for i := range splitLabels {
		splitLabels[i] = i
	}
	coords = append(coords, assembly.Coord{Name: SplitDim, Dim: SplitDim, Values: splitLabels})

	// results are enumerated row-major over (source combos, target combos),
	// matching the dim order above, so the merged data is their concatenation
	data := make([]float64, 0, len(results)*splits)
	for _, values := range results {
		data = append(data, values...)
	}
	merged, err := assembly.New(data, dims, shape, coords)
	if err != nil {
		return nil, fmt.Errorf("merge decomposed results: %w", err)
	}
	return merged, nil
}
