// Package assembly implements labeled n-dimensional data arrays: a float64
// tensor whose axes carry an ordered registry of named coordinate arrays.
// Assemblies are immutable; every operation returns a new assembly.
package assembly

import (
	"fmt"
	"sort"
)

// Label is a single coordinate value. Supported kinds are string, int and
// float64; they are comparable with == and totally ordered by Compare.
type Label any

// Coord is one named labeling scheme over a single axis. Values must have the
// same length as the axis it labels.
type Coord struct {
	Name   string
	Dim    string
	Values []Label
}

// Assembly is an n-dimensional float64 array with named dims and an ordered
// per-dim coordinate registry.
type Assembly struct {
	data    []float64
	dims    []string
	shape   []int
	strides []int
	coords  []Coord
}

// New constructs an assembly from row-major data, axis names, axis lengths and
// coordinate declarations. Every coord must reference a declared dim and match
// its length; coord names must be unique.
func New(data []float64, dims []string, shape []int, coords []Coord) (*Assembly, error) {
	if len(dims) != len(shape) {
		return nil, fmt.Errorf("assembly: %d dims for %d axis lengths", len(dims), len(shape))
	}
	size := 1
	for i, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("assembly: negative length %d for dim %q", n, dims[i])
		}
		size *= n
	}
	if size != len(data) {
		return nil, fmt.Errorf("assembly: %d values do not fill shape %v", len(data), shape)
	}
	seenDims := make(map[string]int, len(dims))
	for i, d := range dims {
		if _, ok := seenDims[d]; ok {
			return nil, fmt.Errorf("assembly: duplicate dim %q", d)
		}
		seenDims[d] = i
	}
	seenCoords := make(map[string]bool, len(coords))
	for _, c := range coords {
		if seenCoords[c.Name] {
			return nil, fmt.Errorf("assembly: duplicate coord %q", c.Name)
		}
		seenCoords[c.Name] = true
		axis, ok := seenDims[c.Dim]
		if !ok {
			return nil, fmt.Errorf("assembly: coord %q references unknown dim %q", c.Name, c.Dim)
		}
		if len(c.Values) != shape[axis] {
			return nil, fmt.Errorf("assembly: coord %q has %d values, dim %q has length %d",
				c.Name, len(c.Values), c.Dim, shape[axis])
		}
	}
	a := &Assembly{
		data:    append([]float64(nil), data...),
		dims:    append([]string(nil), dims...),
		shape:   append([]int(nil), shape...),
		strides: computeStrides(shape),
		coords:  cloneCoords(coords),
	}
	return a, nil
}

// MustNew is New panicking on error, for literals in tests and fixtures.
func MustNew(data []float64, dims []string, shape []int, coords []Coord) *Assembly {
	a, err := New(data, dims, shape, coords)
	if err != nil {
		panic(err)
	}
	return a
}

func computeStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

func cloneCoords(coords []Coord) []Coord {
	out := make([]Coord, len(coords))
	for i, c := range coords {
		out[i] = Coord{Name: c.Name, Dim: c.Dim, Values: append([]Label(nil), c.Values...)}
	}
	return out
}

// Dims returns the axis names in storage order.
func (a *Assembly) Dims() []string { return append([]string(nil), a.dims...) }

// Shape returns the axis lengths in storage order.
func (a *Assembly) Shape() []int { return append([]int(nil), a.shape...) }

// Values returns a copy of the row-major data.
func (a *Assembly) Values() []float64 { return append([]float64(nil), a.data...) }

// NDim returns the number of axes.
func (a *Assembly) NDim() int { return len(a.dims) }

// HasDim reports whether the named axis exists.
func (a *Assembly) HasDim(dim string) bool {
	_, ok := a.dimIndex(dim)
	return ok
}

// Len returns the length of the named axis, or an error if it does not exist.
func (a *Assembly) Len(dim string) (int, error) {
	axis, ok := a.dimIndex(dim)
	if !ok {
		return 0, fmt.Errorf("assembly: unknown dim %q", dim)
	}
	return a.shape[axis], nil
}

func (a *Assembly) dimIndex(dim string) (int, bool) {
	for i, d := range a.dims {
		if d == dim {
			return i, true
		}
	}
	return 0, false
}

// At returns the value at the given multi-index.
func (a *Assembly) At(idx ...int) (float64, error) {
	if len(idx) != len(a.dims) {
		return 0, fmt.Errorf("assembly: %d indices for %d dims", len(idx), len(a.dims))
	}
	off := 0
	for d, v := range idx {
		if v < 0 || v >= a.shape[d] {
			return 0, fmt.Errorf("assembly: index %d out of range for dim %q", v, a.dims[d])
		}
		off += v * a.strides[d]
	}
	return a.data[off], nil
}

// Coords returns the full coordinate registry, in declaration order.
func (a *Assembly) Coords() []Coord { return cloneCoords(a.coords) }

// CoordsOn returns the coords declared on the named axis, in declaration order.
func (a *Assembly) CoordsOn(dim string) []Coord {
	var out []Coord
	for _, c := range a.coords {
		if c.Dim == dim {
			out = append(out, Coord{Name: c.Name, Dim: c.Dim, Values: append([]Label(nil), c.Values...)})
		}
	}
	return out
}

// HasCoord reports whether the named coord is declared.
func (a *Assembly) HasCoord(name string) bool {
	_, ok := a.coord(name)
	return ok
}

// CoordValues returns the labels of the named coord.
func (a *Assembly) CoordValues(name string) ([]Label, error) {
	c, ok := a.coord(name)
	if !ok {
		return nil, fmt.Errorf("assembly: unknown coord %q", name)
	}
	return append([]Label(nil), c.Values...), nil
}

// CoordDim returns the axis the named coord labels.
func (a *Assembly) CoordDim(name string) (string, error) {
	c, ok := a.coord(name)
	if !ok {
		return "", fmt.Errorf("assembly: unknown coord %q", name)
	}
	return c.Dim, nil
}

func (a *Assembly) coord(name string) (Coord, bool) {
	for _, c := range a.coords {
		if c.Name == name {
			return c, true
		}
	}
	return Coord{}, false
}

// Take gathers the given positions along one axis, preserving every coord.
// Positions may repeat and may reorder the axis.
func (a *Assembly) Take(dim string, indices []int) (*Assembly, error) {
	axis, ok := a.dimIndex(dim)
	if !ok {
		return nil, fmt.Errorf("assembly: unknown dim %q", dim)
	}
	for _, v := range indices {
		if v < 0 || v >= a.shape[axis] {
			return nil, fmt.Errorf("assembly: index %d out of range for dim %q", v, dim)
		}
	}
	newShape := append([]int(nil), a.shape...)
	newShape[axis] = len(indices)
	out := make([]float64, sizeOf(newShape))
	idx := make([]int, len(newShape))
	for i := range out {
		off := 0
		for d, v := range idx {
			if d == axis {
				v = indices[v]
			}
			off += v * a.strides[d]
		}
		out[i] = a.data[off]
		increment(idx, newShape)
	}
	newCoords := make([]Coord, len(a.coords))
	for i, c := range a.coords {
		if c.Dim != dim {
			newCoords[i] = c
			continue
		}
		vals := make([]Label, len(indices))
		for j, v := range indices {
			vals[j] = c.Values[v]
		}
		newCoords[i] = Coord{Name: c.Name, Dim: c.Dim, Values: vals}
	}
	return New(out, a.dims, newShape, newCoords)
}

// SelectLabel keeps the entries whose value under the named coord equals the
// given label. The selected axis keeps its dim, possibly with length zero.
func (a *Assembly) SelectLabel(coordName string, label Label) (*Assembly, error) {
	return a.SelectWhere(coordName, func(l Label) bool { return l == label })
}

// SelectWhere keeps the entries whose value under the named coord satisfies
// the predicate.
func (a *Assembly) SelectWhere(coordName string, pred func(Label) bool) (*Assembly, error) {
	c, ok := a.coord(coordName)
	if !ok {
		return nil, fmt.Errorf("assembly: unknown coord %q", coordName)
	}
	var keep []int
	for i, l := range c.Values {
		if pred(l) {
			keep = append(keep, i)
		}
	}
	return a.Take(c.Dim, keep)
}

// SortBy stably reorders the coord's axis by the coord's label order.
func (a *Assembly) SortBy(coordName string) (*Assembly, error) {
	c, ok := a.coord(coordName)
	if !ok {
		return nil, fmt.Errorf("assembly: unknown coord %q", coordName)
	}
	order := make([]int, len(c.Values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return Compare(c.Values[order[i]], c.Values[order[j]]) < 0
	})
	return a.Take(c.Dim, order)
}

// UniqueValues returns the distinct labels of the named coord, in label order.
func (a *Assembly) UniqueValues(coordName string) ([]Label, error) {
	vals, err := a.CoordValues(coordName)
	if err != nil {
		return nil, err
	}
	seen := make(map[Label]bool, len(vals))
	var out []Label
	for _, l := range vals {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return Compare(out[i], out[j]) < 0 })
	return out, nil
}

// WithCoord returns a copy with the given coord added, or replaced if a coord
// of that name already exists.
func (a *Assembly) WithCoord(c Coord) (*Assembly, error) {
	newCoords := make([]Coord, 0, len(a.coords)+1)
	replaced := false
	for _, existing := range a.coords {
		if existing.Name == c.Name {
			newCoords = append(newCoords, c)
			replaced = true
			continue
		}
		newCoords = append(newCoords, existing)
	}
	if !replaced {
		newCoords = append(newCoords, c)
	}
	return New(a.data, a.dims, a.shape, newCoords)
}

// Squeeze drops the named axes, which must all have length one. Their coords
// are dropped with them.
func (a *Assembly) Squeeze(dims ...string) (*Assembly, error) {
	drop := make(map[string]bool, len(dims))
	for _, d := range dims {
		axis, ok := a.dimIndex(d)
		if !ok {
			return nil, fmt.Errorf("assembly: unknown dim %q", d)
		}
		if a.shape[axis] != 1 {
			return nil, fmt.Errorf("assembly: cannot squeeze dim %q of length %d", d, a.shape[axis])
		}
		drop[d] = true
	}
	var newDims []string
	var newShape []int
	for i, d := range a.dims {
		if !drop[d] {
			newDims = append(newDims, d)
			newShape = append(newShape, a.shape[i])
		}
	}
	var newCoords []Coord
	for _, c := range a.coords {
		if !drop[c.Dim] {
			newCoords = append(newCoords, c)
		}
	}
	return New(a.data, newDims, newShape, newCoords)
}

// Expand prepends a new axis of the given length, repeating the existing
// values along it, and declares the given coords on the new axis.
func (a *Assembly) Expand(dim string, length int, coords ...Coord) (*Assembly, error) {
	if a.HasDim(dim) {
		return nil, fmt.Errorf("assembly: dim %q already exists", dim)
	}
	if length < 1 {
		return nil, fmt.Errorf("assembly: cannot expand dim %q to length %d", dim, length)
	}
	out := make([]float64, length*len(a.data))
	for i := 0; i < length; i++ {
		copy(out[i*len(a.data):], a.data)
	}
	newDims := append([]string{dim}, a.dims...)
	newShape := append([]int{length}, a.shape...)
	newCoords := append([]Coord(nil), a.coords...)
	for _, c := range coords {
		c.Dim = dim
		newCoords = append(newCoords, c)
	}
	return New(out, newDims, newShape, newCoords)
}

func sizeOf(shape []int) int {
	size := 1
	for _, n := range shape {
		size *= n
	}
	return size
}

// increment advances a multi-index over the given shape, row-major.
func increment(idx, shape []int) {
	for d := len(idx) - 1; d >= 0; d-- {
		idx[d]++
		if idx[d] < shape[d] {
			return
		}
		idx[d] = 0
	}
}
