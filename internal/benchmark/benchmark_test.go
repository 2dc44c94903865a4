package benchmark

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
	"github.com/neuralign-labs/neuralign/pkg/metric"
)

// recordedResponses builds a [presentation, neuroid] assembly over images x
// repetitions, with the value of each cell supplied by tune(image, neuroid).
func recordedResponses(t *testing.T, images, reps, neuroids int, tune func(image, neuroid int) float64) *assembly.Assembly {
	t.Helper()
	n := images * reps
	data := make([]float64, 0, n*neuroids)
	imageIDs := make([]assembly.Label, 0, n)
	objectNames := make([]assembly.Label, 0, n)
	repetitions := make([]assembly.Label, 0, n)
	for img := 0; img < images; img++ {
		for rep := 0; rep < reps; rep++ {
			imageIDs = append(imageIDs, img)
			if img%2 == 0 {
				objectNames = append(objectNames, "animal")
			} else {
				objectNames = append(objectNames, "vehicle")
			}
			repetitions = append(repetitions, rep)
			for e := 0; e < neuroids; e++ {
				data = append(data, tune(img, e))
			}
		}
	}
	neuroidIDs := make([]assembly.Label, neuroids)
	for e := range neuroidIDs {
		neuroidIDs[e] = e
	}
	a, err := assembly.New(
		data,
		[]string{"presentation", "neuroid"},
		[]int{n, neuroids},
		[]assembly.Coord{
			{Name: "image_id", Dim: "presentation", Values: imageIDs},
			{Name: "object_name", Dim: "presentation", Values: objectNames},
			{Name: "repetition", Dim: "presentation", Values: repetitions},
			{Name: "neuroid_id", Dim: "neuroid", Values: neuroidIDs},
		},
	)
	require.NoError(t, err)
	return a
}

func randomTuning(images, neuroids int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	tuning := make([][]float64, images)
	for img := range tuning {
		tuning[img] = make([]float64, neuroids)
		for e := range tuning[img] {
			tuning[img][e] = rng.NormFloat64()
		}
	}
	return tuning
}

func TestLinearPredictivityRecoversLinearMap(t *testing.T) {
	sourceTuning := randomTuning(12, 3, 21)
	source := recordedResponses(t, 12, 1, 3, func(img, e int) float64 { return sourceTuning[img][e] })

	// target is an exact affine readout of the source units
	weights := [][]float64{{0.5, -1.2}, {2.0, 0.3}, {-0.7, 1.1}}
	bias := []float64{0.4, -0.9}
	target := recordedResponses(t, 12, 1, 2, func(img, e int) float64 {
		v := bias[e]
		for u := 0; u < 3; u++ {
			v += weights[u][e] * sourceTuning[img][u]
		}
		return v
	})

	sim := metric.NewCrossValidationSimilarity(
		metric.NewParametricEvaluator(NewLinearPredictivity(), nil),
		metric.WithSplits(4),
		metric.WithTrainRatio(0.75),
		metric.WithSeed(5),
	)
	score, err := sim.Evaluate(source, target)
	require.NoError(t, err)

	center, err := score.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, center, 1e-6)
}

// ten presentations in two classes of five round to a full-class train set
// at the default ratio; the engine must still hold out a test entry per
// class and score without error
func TestDefaultOptionsSmallRecording(t *testing.T) {
	sourceTuning := randomTuning(10, 2, 67)
	source := recordedResponses(t, 10, 1, 2, func(img, e int) float64 { return sourceTuning[img][e] })
	target := recordedResponses(t, 10, 1, 1, func(img, _ int) float64 {
		return 1.3*sourceTuning[img][0] - 0.8*sourceTuning[img][1] + 0.2
	})

	sim := metric.NewCrossValidationSimilarity(
		metric.NewParametricEvaluator(NewLinearPredictivity(), nil),
	)
	score, err := sim.Evaluate(source, target)
	require.NoError(t, err)

	assert.Equal(t, []int{10}, score.Values.Shape())
	center, err := score.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, center, 1e-6)
}

func TestFitRejectsEmptyTrain(t *testing.T) {
	empty, err := assembly.New(
		[]float64{},
		[]string{"presentation", "neuroid"},
		[]int{0, 2},
		[]assembly.Coord{
			{Name: "image_id", Dim: "presentation", Values: []assembly.Label{}},
			{Name: "neuroid_id", Dim: "neuroid", Values: []assembly.Label{0, 1}},
		},
	)
	require.NoError(t, err)

	_, err = NewLinearPredictivity().Fit(empty, empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty slice")
}

func TestInternalConsistencyPerfectReplication(t *testing.T) {
	tuning := randomTuning(4, 2, 33)
	target := recordedResponses(t, 4, 2, 2, func(img, e int) float64 { return tuning[img][e] })

	r, err := NewInternalConsistency().Compute(nil, target)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-9)
}

func TestInternalConsistencyUndefined(t *testing.T) {
	flat := recordedResponses(t, 4, 2, 1, func(int, int) float64 { return 3.5 })
	r, err := NewInternalConsistency().Compute(nil, flat)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(r), "zero-variance halves have no defined consistency")

	oneImage := recordedResponses(t, 1, 4, 1, func(img, e int) float64 { return float64(img + e) })
	r, err = NewInternalConsistency().Compute(nil, oneImage)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(r), "fewer than two stimuli have no defined consistency")
}

type replayCandidate struct {
	response *assembly.Assembly
}

func (c replayCandidate) LookAt(_ *assembly.Assembly) (*assembly.Assembly, error) {
	return c.response, nil
}

func TestBenchmarkRunCeilsPerfectCandidate(t *testing.T) {
	tuning := randomTuning(8, 3, 44)
	target := recordedResponses(t, 8, 2, 3, func(img, e int) float64 { return tuning[img][e] })

	b := New("test.predictivity", target,
		metric.WithSplits(3),
		metric.WithTrainRatio(0.875),
		metric.WithSeed(9),
	)

	score, err := b.Run(replayCandidate{response: target})
	require.NoError(t, err)

	center, err := score.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, center, 1e-6)

	require.NotNil(t, score.Raw, "raw score must ride along after ceiling")
	rawLabels, err := score.Raw.SplitLabels()
	require.NoError(t, err)
	assert.Len(t, rawLabels, 3)
	require.NotNil(t, score.Ceiling)
	assert.Equal(t, 3, len(score.Ceiling.Values()))
}

func TestBenchmarkCeilingComputedOnce(t *testing.T) {
	tuning := randomTuning(8, 2, 55)
	target := recordedResponses(t, 8, 2, 2, func(img, e int) float64 { return tuning[img][e] })

	b := New("test.ceiling", target,
		metric.WithSplits(2),
		metric.WithTrainRatio(0.875),
		metric.WithSeed(9),
	)

	first, err := b.Ceiling()
	require.NoError(t, err)
	second, err := b.Ceiling()
	require.NoError(t, err)
	assert.Same(t, first, second)

	center, err := first.CenterValue()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, center, 1e-9, "noiseless repetitions have a ceiling of one")
}
