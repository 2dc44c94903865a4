package metric

import (
	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// SplitEvaluator scores one train/test partition of a decomposed slice pair.
// Implementations must not retain or mutate the assemblies they receive.
type SplitEvaluator interface {
	EvaluateSplit(trainSource, trainTarget, testSource, testTarget *assembly.Assembly) (float64, error)
}

// Fitter learns a mapping from source representation space to target
// representation space. Fold-scoped state lives entirely in the returned
// Mapping, so folds can run in parallel against one Fitter.
type Fitter interface {
	Fit(trainSource, trainTarget *assembly.Assembly) (Mapping, error)
}

// Mapping applies a learned source-to-target mapping to held-out source data.
// The predicted assembly must keep the source's presentation axis; the entity
// axis need not carry identity coords, the evaluator re-attaches them.
type Mapping interface {
	Predict(testSource *assembly.Assembly) (*assembly.Assembly, error)
}

// Computer computes a statistic directly from the train portion of a split,
// for measures where cross-validation only provides repeated-sampling
// variance rather than a generalization test.
type Computer interface {
	Compute(source, target *assembly.Assembly) (float64, error)
}

// CorrelationFunc computes a pointwise statistic between two equal-length
// series, NaN when undefined.
type CorrelationFunc func(x, y []float64) float64
