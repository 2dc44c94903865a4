package assembly

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean reduces the named axis to its arithmetic mean.
func (a *Assembly) Mean(dim string) (*Assembly, error) {
	return a.Reduce(dim, func(lane []float64) float64 { return stat.Mean(lane, nil) })
}

// Std reduces the named axis to its population standard deviation.
func (a *Assembly) Std(dim string) (*Assembly, error) {
	return a.Reduce(dim, func(lane []float64) float64 { return stat.PopStdDev(lane, nil) })
}

// Median reduces the named axis to its median.
func (a *Assembly) Median(dim string) (*Assembly, error) {
	return a.Reduce(dim, Median)
}

// Reduce collapses the named axis with the given aggregation, dropping the
// axis and every coord declared on it.
func (a *Assembly) Reduce(dim string, f func([]float64) float64) (*Assembly, error) {
	axis, ok := a.dimIndex(dim)
	if !ok {
		return nil, fmt.Errorf("assembly: unknown dim %q", dim)
	}
	var newDims []string
	var newShape []int
	for i, d := range a.dims {
		if i != axis {
			newDims = append(newDims, d)
			newShape = append(newShape, a.shape[i])
		}
	}
	out := make([]float64, sizeOf(newShape))
	lane := make([]float64, a.shape[axis])
	idx := make([]int, len(newShape))
	for i := range out {
		// base offset for this output position
		off := 0
		for d, v := range idx {
			src := d
			if d >= axis {
				src = d + 1
			}
			off += v * a.strides[src]
		}
		for j := 0; j < a.shape[axis]; j++ {
			lane[j] = a.data[off+j*a.strides[axis]]
		}
		out[i] = f(lane)
		increment(idx, newShape)
	}
	var newCoords []Coord
	for _, c := range a.coords {
		if c.Dim != dim {
			newCoords = append(newCoords, c)
		}
	}
	return New(out, newDims, newShape, newCoords)
}

// Median returns the median of the values, averaging the two middle values
// for even counts.
func Median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
