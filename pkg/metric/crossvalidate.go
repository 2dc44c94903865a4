package metric

import (
	"fmt"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// crossValidate runs every configured split over one decomposed slice pair
// and returns one value per split. Source and target must already agree
// entry-for-entry on the identity and stratification coordinates.
func (s *CrossValidationSimilarity) crossValidate(source, target *assembly.Assembly) ([]float64, error) {
	if err := requireCoordEqual(source, target, s.cfg.IdentityCoord); err != nil {
		return nil, fmt.Errorf("cross-validation inputs: %w", err)
	}
	if err := requireCoordEqual(source, target, s.cfg.StratifyCoord); err != nil {
		return nil, fmt.Errorf("cross-validation inputs: %w", err)
	}
	classes, err := target.CoordValues(s.cfg.StratifyCoord)
	if err != nil {
		return nil, err
	}
	splits, err := stratifiedShuffleSplit(classes, s.cfg.Splits, s.cfg.TrainRatio, s.cfg.Seed)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(splits))
	for i, sp := range splits {
		trainSource, err := source.Take(s.cfg.ComparisonDim, sp.Train)
		if err != nil {
			return nil, err
		}
		trainTarget, err := target.Take(s.cfg.ComparisonDim, sp.Train)
		if err != nil {
			return nil, err
		}
		testSource, err := source.Take(s.cfg.ComparisonDim, sp.Test)
		if err != nil {
			return nil, err
		}
		testTarget, err := target.Take(s.cfg.ComparisonDim, sp.Test)
		if err != nil {
			return nil, err
		}
		value, err := s.eval.EvaluateSplit(trainSource, trainTarget, testSource, testTarget)
		if err != nil {
			return nil, fmt.Errorf("split %d: %w", i, err)
		}
		out[i] = value
	}
	return out, nil
}
