package assemblyapi

import (
	"fmt"
	"math"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// Response is the standard envelope of the assembly store.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// PackagedAssembly is the wire form of a labeled assembly.
type PackagedAssembly struct {
	Identifier string          `json:"identifier,omitempty"`
	Dims       []string        `json:"dims"`
	Shape      []int           `json:"shape"`
	Data       []float64       `json:"data"`
	Coords     []PackagedCoord `json:"coords"`
}

// PackagedCoord is the wire form of one coordinate level.
type PackagedCoord struct {
	Name   string `json:"name"`
	Dim    string `json:"dim"`
	Values []any  `json:"values"`
}

// Unpack validates a packaged assembly and converts it to the in-memory
// form. JSON numbers arrive as float64; integral ones are restored to int so
// labels compare equal to locally constructed ones.
func (p *PackagedAssembly) Unpack() (*assembly.Assembly, error) {
	coords := make([]assembly.Coord, len(p.Coords))
	for i, c := range p.Coords {
		values := make([]assembly.Label, len(c.Values))
		for j, v := range c.Values {
			values[j] = normalizeLabel(v)
		}
		coords[i] = assembly.Coord{Name: c.Name, Dim: c.Dim, Values: values}
	}
	a, err := assembly.New(p.Data, p.Dims, p.Shape, coords)
	if err != nil {
		return nil, fmt.Errorf("assemblyapi: unpack %q: %w", p.Identifier, err)
	}
	return a, nil
}

// Pack converts an assembly to its wire form.
func Pack(identifier string, a *assembly.Assembly) *PackagedAssembly {
	coords := a.Coords()
	packed := make([]PackagedCoord, len(coords))
	for i, c := range coords {
		values := make([]any, len(c.Values))
		for j, v := range c.Values {
			values[j] = v
		}
		packed[i] = PackagedCoord{Name: c.Name, Dim: c.Dim, Values: values}
	}
	return &PackagedAssembly{
		Identifier: identifier,
		Dims:       a.Dims(),
		Shape:      a.Shape(),
		Data:       a.Values(),
		Coords:     packed,
	}
}

func normalizeLabel(v any) assembly.Label {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return v
}
