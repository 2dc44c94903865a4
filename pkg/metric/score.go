package metric

import (
	"fmt"
	"math"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// Aggregate collapses the split axis of a per-split tensor into a center
// statistic.
type Aggregate func(values *assembly.Assembly, dim string) (*assembly.Assembly, error)

// MeanAggregate is the default center statistic.
func MeanAggregate(values *assembly.Assembly, dim string) (*assembly.Assembly, error) {
	return values.Mean(dim)
}

// MedianAggregate centers on the median across splits.
func MedianAggregate(values *assembly.Assembly, dim string) (*assembly.Assembly, error) {
	return values.Median(dim)
}

// Score wraps the per-split values of an evaluation together with a center
// (aggregate across splits) and error (population standard deviation across
// splits). Scores are created once, after all folds of all decomposed slices
// are computed, and never mutated; ceiling normalization produces a new Score
// carrying this one as Raw.
type Score struct {
	Values *assembly.Assembly
	Center *assembly.Assembly
	Error  *assembly.Assembly

	// Raw and Ceiling are provenance attributes set by CeilScore: the
	// pre-ceiling score and the ceiling values used.
	Raw     *Score
	Ceiling *assembly.Assembly

	aggregate Aggregate
}

// NewScore derives center and error from a per-split tensor. A nil aggregate
// defaults to the mean.
func NewScore(values *assembly.Assembly, aggregate Aggregate) (*Score, error) {
	if !values.HasDim(SplitDim) {
		return nil, fmt.Errorf("metric: score values have no %q dim", SplitDim)
	}
	if aggregate == nil {
		aggregate = MeanAggregate
	}
	center, err := aggregate(values, SplitDim)
	if err != nil {
		return nil, err
	}
	spread, err := values.Std(SplitDim)
	if err != nil {
		return nil, err
	}
	return &Score{Values: values, Center: center, Error: spread, aggregate: aggregate}, nil
}

// CenterValue returns the center as a scalar; an error if the center still
// carries non-collapsed axes.
func (s *Score) CenterValue() (float64, error) {
	return scalarOf(s.Center)
}

// ErrorValue returns the error as a scalar; an error if the error still
// carries non-collapsed axes.
func (s *Score) ErrorValue() (float64, error) {
	return scalarOf(s.Error)
}

func scalarOf(a *assembly.Assembly) (float64, error) {
	values := a.Values()
	if len(values) != 1 {
		return 0, fmt.Errorf("metric: %d values over dims %v, not a scalar", len(values), a.Dims())
	}
	return values[0], nil
}

// SplitLabels returns the split identifiers of the per-split tensor.
func (s *Score) SplitLabels() ([]assembly.Label, error) {
	return s.Values.CoordValues(SplitDim)
}

// CeilScore rescales a raw score by a split-matched reliability ceiling:
// each split's value is divided by the square root of the same split's
// ceiling value, and the ceiled per-split tensor is re-aggregated with the
// score's own aggregate. The ceiling must be one value per split. The input
// score is attached as Raw and the ceiling values as Ceiling, for provenance
// only. Ceiling an already-ceiled score is rejected with ErrAlreadyCeiled.
func CeilScore(score, ceiling *Score) (*Score, error) {
	if score.Raw != nil {
		return nil, ErrAlreadyCeiled
	}
	scoreSplits, err := score.SplitLabels()
	if err != nil {
		return nil, err
	}
	ceilingSplits, err := ceiling.SplitLabels()
	if err != nil {
		return nil, err
	}
	if !sameLabelSet(scoreSplits, ceilingSplits) {
		return nil, &SplitMismatchError{ScoreSplits: len(scoreSplits), CeilingSplits: len(ceilingSplits)}
	}
	if ceiling.Values.NDim() != 1 {
		return nil, fmt.Errorf("metric: ceiling must be one value per split, got dims %v", ceiling.Values.Dims())
	}
	ceilingBySplit := make(map[assembly.Label]float64, len(ceilingSplits))
	ceilingValues := ceiling.Values.Values()
	for i, l := range ceilingSplits {
		ceilingBySplit[l] = ceilingValues[i]
	}

	dims := score.Values.Dims()
	shape := score.Values.Shape()
	splitAxis := -1
	for i, d := range dims {
		if d == SplitDim {
			splitAxis = i
		}
	}
	data := score.Values.Values()
	ceiled := make([]float64, len(data))
	idx := make([]int, len(shape))
	for i := range data {
		c := ceilingBySplit[scoreSplits[idx[splitAxis]]]
		ceiled[i] = data[i] / math.Sqrt(c)
		incrementIndex(idx, shape)
	}
	values, err := assembly.New(ceiled, dims, shape, score.Values.Coords())
	if err != nil {
		return nil, err
	}
	out, err := NewScore(values, score.aggregate)
	if err != nil {
		return nil, err
	}
	out.Raw = score
	out.Ceiling = ceiling.Values
	return out, nil
}

func sameLabelSet(a, b []assembly.Label) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[assembly.Label]bool, len(a))
	for _, l := range a {
		set[l] = true
	}
	for _, l := range b {
		if !set[l] {
			return false
		}
	}
	return true
}

func incrementIndex(idx, shape []int) {
	for d := len(idx) - 1; d >= 0; d-- {
		idx[d]++
		if idx[d] < shape[d] {
			return
		}
		idx[d] = 0
	}
}
