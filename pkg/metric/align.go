package metric

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// Subset restricts source along dim to the entries whose labels also occur in
// target, checked across every coordinate level declared on dim in both
// assemblies. The filtered source axis must end up with the target's axis
// length; a shorter or longer axis means the two datasets do not cover the
// same entries and yields an AlignmentError.
func Subset(source, target *assembly.Assembly, dim string) (*assembly.Assembly, error) {
	targetLen, err := target.Len(dim)
	if err != nil {
		return nil, fmt.Errorf("subset target: %w", err)
	}
	if _, err := source.Len(dim); err != nil {
		return nil, fmt.Errorf("subset source: %w", err)
	}
	shared := 0
	for _, c := range target.CoordsOn(dim) {
		if !source.HasCoord(c.Name) {
			continue
		}
		shared++
		member := make(map[assembly.Label]bool, len(c.Values))
		for _, l := range c.Values {
			member[l] = true
		}
		source, err = source.SelectWhere(c.Name, func(l assembly.Label) bool { return member[l] })
		if err != nil {
			return nil, err
		}
	}
	if shared == 0 {
		return nil, fmt.Errorf("metric: no shared coords on dim %q to subset over", dim)
	}
	sourceLen, err := source.Len(dim)
	if err != nil {
		return nil, err
	}
	if sourceLen != targetLen {
		return nil, &AlignmentError{Dim: dim, SourceLen: sourceLen, TargetLen: targetLen}
	}
	log.Debug().Str("dim", dim).Int("entries", sourceLen).Msg("subset source to target coverage")
	return source, nil
}
