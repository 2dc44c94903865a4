package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

func splitValues(t *testing.T, values []float64) *assembly.Assembly {
	t.Helper()
	labels := make([]assembly.Label, len(values))
	for i := range labels {
		labels[i] = i
	}
	a, err := assembly.New(values, []string{SplitDim}, []int{len(values)},
		[]assembly.Coord{{Name: SplitDim, Dim: SplitDim, Values: labels}})
	require.NoError(t, err)
	return a
}

func TestNewScoreCenterAndError(t *testing.T) {
	score, err := NewScore(splitValues(t, []float64{0.2, 0.4, 0.6}), nil)
	require.NoError(t, err)

	center, err := score.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 0.4, center, 1e-12)

	spread, err := score.ErrorValue()
	require.NoError(t, err)
	assert.InDelta(t, 0.16329931618554522, spread, 1e-9)
}

func TestNewScoreMedianAggregate(t *testing.T) {
	score, err := NewScore(splitValues(t, []float64{0.1, 0.2, 0.9}), MedianAggregate)
	require.NoError(t, err)

	center, err := score.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 0.2, center, 1e-12)
}

func TestNewScoreRequiresSplitDim(t *testing.T) {
	a, err := assembly.New([]float64{1, 2}, []string{"presentation"}, []int{2}, nil)
	require.NoError(t, err)
	_, err = NewScore(a, nil)
	assert.Error(t, err)
}

func TestCeilScore(t *testing.T) {
	raw, err := NewScore(splitValues(t, []float64{0.4, 0.9}), nil)
	require.NoError(t, err)
	ceiling, err := NewScore(splitValues(t, []float64{0.64, 0.81}), nil)
	require.NoError(t, err)

	ceiled, err := CeilScore(raw, ceiling)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.5, 1.0}, ceiled.Values.Values(), 1e-12)
	center, err := ceiled.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 0.75, center, 1e-12)

	// provenance: the input score and the ceiling values ride along untouched
	require.NotNil(t, ceiled.Raw)
	assert.Same(t, raw, ceiled.Raw)
	rawCenter, err := ceiled.Raw.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 0.65, rawCenter, 1e-12)
	require.NotNil(t, ceiled.Ceiling)
	assert.Equal(t, []float64{0.64, 0.81}, ceiled.Ceiling.Values())
}

func TestCeilScoreRejectsReCeiling(t *testing.T) {
	raw, err := NewScore(splitValues(t, []float64{0.4, 0.9}), nil)
	require.NoError(t, err)
	ceiling, err := NewScore(splitValues(t, []float64{0.64, 0.81}), nil)
	require.NoError(t, err)

	ceiled, err := CeilScore(raw, ceiling)
	require.NoError(t, err)

	_, err = CeilScore(ceiled, ceiling)
	assert.ErrorIs(t, err, ErrAlreadyCeiled)
}

func TestCeilScoreSplitMismatch(t *testing.T) {
	raw, err := NewScore(splitValues(t, []float64{0.4, 0.9}), nil)
	require.NoError(t, err)
	ceiling, err := NewScore(splitValues(t, []float64{0.5, 0.5, 0.5}), nil)
	require.NoError(t, err)

	_, err = CeilScore(raw, ceiling)
	var mismatch *SplitMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.ScoreSplits)
	assert.Equal(t, 3, mismatch.CeilingSplits)
}

func TestCeilScoreRequiresPerSplitCeiling(t *testing.T) {
	raw, err := NewScore(splitValues(t, []float64{0.4, 0.9}), nil)
	require.NoError(t, err)

	wide, err := assembly.New(
		[]float64{0.5, 0.6, 0.7, 0.8},
		[]string{"region", SplitDim},
		[]int{2, 2},
		[]assembly.Coord{
			{Name: "region", Dim: "region", Values: []assembly.Label{"IT", "V4"}},
			{Name: SplitDim, Dim: SplitDim, Values: []assembly.Label{0, 1}},
		},
	)
	require.NoError(t, err)
	ceiling, err := NewScore(wide, nil)
	require.NoError(t, err)

	_, err = CeilScore(raw, ceiling)
	assert.Error(t, err)
}
