package metric

import (
	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// NonparametricEvaluator computes a statistic directly from the train portion
// of each split, ignoring the held-out data. Cross-validation then serves
// only to estimate repeated-sampling variance.
type NonparametricEvaluator struct {
	computer Computer
}

// NewNonparametricEvaluator wires a Computer into the nonparametric protocol.
func NewNonparametricEvaluator(computer Computer) *NonparametricEvaluator {
	return &NonparametricEvaluator{computer: computer}
}

// EvaluateSplit implements SplitEvaluator.
func (e *NonparametricEvaluator) EvaluateSplit(trainSource, trainTarget, _, _ *assembly.Assembly) (float64, error) {
	return e.computer.Compute(trainSource, trainTarget)
}
