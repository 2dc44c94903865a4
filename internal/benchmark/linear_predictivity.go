package benchmark

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
	"github.com/neuralign-labs/neuralign/pkg/metric"
)

// LinearPredictivity learns an ordinary least-squares mapping with a bias
// column from source units to target entities. It implements metric.Fitter;
// the learned weights live in the returned mapping, so folds can run in
// parallel against one shared LinearPredictivity value.
type LinearPredictivity struct {
	PresentationDim string
	EntityDim       string
}

// NewLinearPredictivity returns a fitter over the default presentation and
// neuroid axes.
func NewLinearPredictivity() LinearPredictivity {
	return LinearPredictivity{
		PresentationDim: metric.DefaultComparisonDim,
		EntityDim:       metric.DefaultEntityDim,
	}
}

// Fit implements metric.Fitter.
func (lp LinearPredictivity) Fit(trainSource, trainTarget *assembly.Assembly) (metric.Mapping, error) {
	x, err := designMatrix(trainSource, lp.PresentationDim, lp.EntityDim)
	if err != nil {
		return nil, fmt.Errorf("source design matrix: %w", err)
	}
	y, err := toMatrix(trainTarget, lp.PresentationDim, lp.EntityDim)
	if err != nil {
		return nil, fmt.Errorf("target matrix: %w", err)
	}
	xr, _ := x.Dims()
	yr, targetEntities := y.Dims()
	if xr != yr {
		return nil, fmt.Errorf("benchmark: %d source presentations vs %d target presentations", xr, yr)
	}
	var weights mat.Dense
	if err := weights.Solve(x, y); err != nil {
		return nil, fmt.Errorf("least squares solve: %w", err)
	}
	return &linearMapping{
		weights:         &weights,
		targetEntities:  targetEntities,
		presentationDim: lp.PresentationDim,
		entityDim:       lp.EntityDim,
	}, nil
}

type linearMapping struct {
	weights         *mat.Dense
	targetEntities  int
	presentationDim string
	entityDim       string
}

// Predict implements metric.Mapping: applies the learned weights to held-out
// source data, producing values in the target's entity space. Entity identity
// coords are attached by the evaluator scaffolding.
func (m *linearMapping) Predict(testSource *assembly.Assembly) (*assembly.Assembly, error) {
	x, err := designMatrix(testSource, m.presentationDim, m.entityDim)
	if err != nil {
		return nil, fmt.Errorf("test design matrix: %w", err)
	}
	var predicted mat.Dense
	predicted.Mul(x, m.weights)
	rows, cols := predicted.Dims()
	if cols != m.targetEntities {
		return nil, fmt.Errorf("benchmark: predicted %d entities, fitted %d", cols, m.targetEntities)
	}
	data := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		data = append(data, predicted.RawRowView(r)...)
	}
	return assembly.New(
		data,
		[]string{m.presentationDim, m.entityDim},
		[]int{rows, cols},
		testSource.CoordsOn(m.presentationDim),
	)
}

// toMatrix lays an assembly out as rows x cols over the two named axes.
func toMatrix(a *assembly.Assembly, rowDim, colDim string) (*mat.Dense, error) {
	if a.NDim() != 2 {
		return nil, fmt.Errorf("benchmark: expected a 2-d slice over %q and %q, got dims %v", rowDim, colDim, a.Dims())
	}
	rows, err := a.Len(rowDim)
	if err != nil {
		return nil, err
	}
	cols, err := a.Len(colDim)
	if err != nil {
		return nil, err
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("benchmark: empty slice over %q and %q (%d x %d)", rowDim, colDim, rows, cols)
	}
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		taken, err := a.Take(rowDim, []int{r})
		if err != nil {
			return nil, err
		}
		row, err := taken.Squeeze(rowDim)
		if err != nil {
			return nil, err
		}
		out.SetRow(r, row.Values())
	}
	return out, nil
}

// designMatrix is toMatrix plus a trailing bias column of ones.
func designMatrix(a *assembly.Assembly, rowDim, colDim string) (*mat.Dense, error) {
	values, err := toMatrix(a, rowDim, colDim)
	if err != nil {
		return nil, err
	}
	rows, cols := values.Dims()
	out := mat.NewDense(rows, cols+1, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(r, c, values.At(r, c))
		}
		out.Set(r, cols, 1)
	}
	return out, nil
}
