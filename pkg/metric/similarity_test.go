package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// identityFitter predicts the held-out source unchanged, so a source equal to
// the target scores a perfect correlation.
type identityFitter struct{}

type identityMapping struct{}

func (identityFitter) Fit(_, _ *assembly.Assembly) (Mapping, error) { return identityMapping{}, nil }

func (identityMapping) Predict(testSource *assembly.Assembly) (*assembly.Assembly, error) {
	return testSource, nil
}

// sumComputer reduces a slice pair to the sum of the two means, which makes
// each decomposed combination recognizable in the merged result.
type sumComputer struct{}

func (sumComputer) Compute(source, target *assembly.Assembly) (float64, error) {
	return stat.Mean(source.Values(), nil) + stat.Mean(target.Values(), nil), nil
}

func recordingAssembly(t *testing.T, values []float64, entityIDs []assembly.Label) *assembly.Assembly {
	t.Helper()
	n := len(values) / len(entityIDs)
	imageIDs := make([]assembly.Label, n)
	objectNames := make([]assembly.Label, n)
	for i := 0; i < n; i++ {
		imageIDs[i] = i
		if i%2 == 0 {
			objectNames[i] = "animal"
		} else {
			objectNames[i] = "vehicle"
		}
	}
	a, err := assembly.New(
		values,
		[]string{"presentation", "neuroid"},
		[]int{n, len(entityIDs)},
		[]assembly.Coord{
			{Name: "image_id", Dim: "presentation", Values: imageIDs},
			{Name: "object_name", Dim: "presentation", Values: objectNames},
			{Name: "neuroid_id", Dim: "neuroid", Values: entityIDs},
		},
	)
	require.NoError(t, err)
	return a
}

func TestCrossValidatedIdentityScoresPerfectly(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	source := recordingAssembly(t, values, []assembly.Label{"n0"})
	target := recordingAssembly(t, values, []assembly.Label{"n0"})

	sim := NewCrossValidationSimilarity(
		NewParametricEvaluator(identityFitter{}, nil),
		WithSplits(5),
		WithTrainRatio(0.8),
		WithSeed(7),
	)
	score, err := sim.Evaluate(source, target)
	require.NoError(t, err)

	assert.Equal(t, []string{SplitDim}, score.Values.Dims())
	assert.Equal(t, []int{5}, score.Values.Shape())
	for _, v := range score.Values.Values() {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	center, err := score.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, center, 1e-9)
}

func TestUndefinedCorrelationsPropagateAsNaN(t *testing.T) {
	source := recordingAssembly(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, []assembly.Label{"n0"})
	flat := recordingAssembly(t, []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}, []assembly.Label{"n0"})

	sim := NewCrossValidationSimilarity(
		NewParametricEvaluator(identityFitter{}, nil),
		WithSplits(3),
		WithTrainRatio(0.8),
		WithSeed(7),
	)
	score, err := sim.Evaluate(source, flat)
	require.NoError(t, err)

	center, err := score.CenterValue()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(center))
}

// an entity with undefined correlation drops out of the median instead of
// dragging the split to NaN
func TestUndefinedEntitiesExcludedFromMedian(t *testing.T) {
	sourceValues := make([]float64, 20)
	targetValues := make([]float64, 20)
	for i := 0; i < 10; i++ {
		sourceValues[2*i] = float64(i)
		sourceValues[2*i+1] = float64(i)
		targetValues[2*i] = float64(i)
		targetValues[2*i+1] = 5 // zero variance
	}
	source := recordingAssembly(t, sourceValues, []assembly.Label{"s0", "s1"})
	target := recordingAssembly(t, targetValues, []assembly.Label{"n0", "n1"})

	sim := NewCrossValidationSimilarity(
		NewParametricEvaluator(identityFitter{}, nil),
		WithSplits(3),
		WithTrainRatio(0.8),
		WithSeed(7),
	)
	score, err := sim.Evaluate(source, target)
	require.NoError(t, err)

	center, err := score.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, center, 1e-9)
}

func adjacentFixture(t *testing.T, adjacentDim, coordName string, labels []assembly.Label, low, high float64) *assembly.Assembly {
	t.Helper()
	// shape [presentation=4, neuroid=1, adjacent=2], constant within each
	// adjacent slice so the merged values identify the combination
	data := make([]float64, 0, 8)
	for p := 0; p < 4; p++ {
		data = append(data, low, high)
	}
	a, err := assembly.New(
		data,
		[]string{"presentation", "neuroid", adjacentDim},
		[]int{4, 1, 2},
		[]assembly.Coord{
			{Name: "image_id", Dim: "presentation", Values: []assembly.Label{0, 1, 2, 3}},
			{Name: "object_name", Dim: "presentation", Values: []assembly.Label{"a", "b", "a", "b"}},
			{Name: "neuroid_id", Dim: "neuroid", Values: []assembly.Label{"n0"}},
			{Name: coordName, Dim: adjacentDim, Values: labels},
		},
	)
	require.NoError(t, err)
	return a
}

func TestDecompositionCoversEveryCombinationOnce(t *testing.T) {
	source := adjacentFixture(t, "time_bin", "time_bin", []assembly.Label{70, 170}, 1, 2)
	target := adjacentFixture(t, "region", "region", []assembly.Label{"IT", "V4"}, 10, 20)

	sim := NewCrossValidationSimilarity(
		NewNonparametricEvaluator(sumComputer{}),
		WithSplits(2),
		WithTrainRatio(0.5),
		WithSeed(3),
	)
	score, err := sim.Evaluate(source, target)
	require.NoError(t, err)

	assert.Equal(t, []string{"time_bin", "region", SplitDim}, score.Values.Dims())
	assert.Equal(t, []int{2, 2, 2}, score.Values.Shape())

	timeBins, err := score.Values.CoordValues("time_bin")
	require.NoError(t, err)
	assert.Equal(t, []assembly.Label{70, 170}, timeBins)
	regions, err := score.Values.CoordValues("region")
	require.NoError(t, err)
	assert.Equal(t, []assembly.Label{"IT", "V4"}, regions)

	want := [2][2]float64{{11, 21}, {12, 22}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				v, err := score.Values.At(i, j, k)
				require.NoError(t, err)
				assert.InDelta(t, want[i][j], v, 1e-12, "combination (%d, %d) split %d", i, j, k)
			}
		}
	}
}

func TestDecompositionRenamesCollidingAxes(t *testing.T) {
	source := adjacentFixture(t, "time_bin", "time_bin", []assembly.Label{70, 170}, 1, 2)
	target := adjacentFixture(t, "time_bin", "time_bin", []assembly.Label{70, 170}, 10, 20)

	sim := NewCrossValidationSimilarity(
		NewNonparametricEvaluator(sumComputer{}),
		WithSplits(2),
		WithTrainRatio(0.5),
		WithSeed(3),
	)
	score, err := sim.Evaluate(source, target)
	require.NoError(t, err)

	assert.Equal(t, []string{"time_bin_left", "time_bin_right", SplitDim}, score.Values.Dims())
	v, err := score.Values.At(0, 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 21, v, 1e-12)
	v, err = score.Values.At(1, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 12, v, 1e-12)
}

func TestParallelEvaluationIsDeterministic(t *testing.T) {
	source := adjacentFixture(t, "time_bin", "time_bin", []assembly.Label{70, 170}, 1, 2)
	target := adjacentFixture(t, "region", "region", []assembly.Label{"IT", "V4"}, 10, 20)

	run := func(parallelism int) []float64 {
		sim := NewCrossValidationSimilarity(
			NewNonparametricEvaluator(sumComputer{}),
			WithSplits(4),
			WithTrainRatio(0.5),
			WithSeed(11),
			WithParallelism(parallelism),
		)
		score, err := sim.Evaluate(source, target)
		require.NoError(t, err)
		return score.Values.Values()
	}

	assert.Equal(t, run(1), run(4))
}

func TestEmptyAdjacentAxisRejected(t *testing.T) {
	source, err := assembly.New(
		[]float64{},
		[]string{"presentation", "neuroid", "time_bin"},
		[]int{4, 1, 0},
		[]assembly.Coord{
			{Name: "image_id", Dim: "presentation", Values: []assembly.Label{0, 1, 2, 3}},
			{Name: "object_name", Dim: "presentation", Values: []assembly.Label{"animal", "vehicle", "animal", "vehicle"}},
			{Name: "neuroid_id", Dim: "neuroid", Values: []assembly.Label{"n0"}},
			{Name: "time_bin", Dim: "time_bin", Values: []assembly.Label{}},
		},
	)
	require.NoError(t, err)
	target := recordingAssembly(t, []float64{0, 1, 2, 3}, []assembly.Label{"n0"})

	sim := NewCrossValidationSimilarity(
		NewNonparametricEvaluator(sumComputer{}),
		WithSplits(2),
		WithTrainRatio(0.5),
	)
	_, err = sim.Evaluate(source, target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adjacent axis with no values")
}

func TestMisalignedStratificationRejected(t *testing.T) {
	source := recordingAssembly(t, []float64{0, 1, 2, 3}, []assembly.Label{"n0"})
	target := recordingAssembly(t, []float64{0, 1, 2, 3}, []assembly.Label{"n0"})
	target, err := target.WithCoord(assembly.Coord{
		Name:   "object_name",
		Dim:    "presentation",
		Values: []assembly.Label{"animal", "vehicle", "vehicle", "animal"},
	})
	require.NoError(t, err)

	sim := NewCrossValidationSimilarity(
		NewNonparametricEvaluator(sumComputer{}),
		WithSplits(2),
		WithTrainRatio(0.5),
	)
	_, err = sim.Evaluate(source, target)
	var misaligned *MisalignedFoldInputError
	require.ErrorAs(t, err, &misaligned)
	assert.Equal(t, "object_name", misaligned.Coord)
}

func TestMetricAppliesCharacterization(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	source := recordingAssembly(t, values, []assembly.Label{"n0"})
	target := recordingAssembly(t, values, []assembly.Label{"n0"})

	sim := NewCrossValidationSimilarity(
		NewParametricEvaluator(identityFitter{}, nil),
		WithSplits(3),
		WithTrainRatio(0.8),
	)
	m := NewMetric(sim, doubling{})
	score, err := m.Evaluate(source, target)
	require.NoError(t, err)

	// a shared linear transform leaves the correlation untouched
	center, err := score.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, center, 1e-9)
}

type doubling struct{}

func (doubling) Characterize(a *assembly.Assembly) (*assembly.Assembly, error) {
	values := a.Values()
	for i := range values {
		values[i] *= 2
	}
	return assembly.New(values, a.Dims(), a.Shape(), a.Coords())
}
