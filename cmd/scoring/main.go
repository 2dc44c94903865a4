package main

import (
	"math/rand/v2"

	"github.com/rs/zerolog/log"

	"github.com/neuralign-labs/neuralign/internal/benchmark"
	"github.com/neuralign-labs/neuralign/internal/config"
	"github.com/neuralign-labs/neuralign/internal/utils/logger"
	"github.com/neuralign-labs/neuralign/pkg/assembly"
	"github.com/neuralign-labs/neuralign/pkg/metric"
)

const (
	numImages    = 16
	numReps      = 4
	numNeuroids  = 8
	numModelDims = 6
)

func main() {
	logger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	target := syntheticReference()
	bench := benchmark.New("synthetic.predictivity", target,
		metric.WithSplits(cfg.Splits),
		metric.WithTrainRatio(cfg.TrainRatio),
		metric.WithSeed(cfg.Seed),
		metric.WithParallelism(cfg.Parallelism),
	)

	score, err := bench.Run(syntheticCandidate{})
	if err != nil {
		log.Fatal().Err(err).Msg("benchmark run failed")
	}

	center, err := score.CenterValue()
	if err != nil {
		log.Fatal().Err(err).Msg("score center is not scalar")
	}
	spread, err := score.ErrorValue()
	if err != nil {
		log.Fatal().Err(err).Msg("score error is not scalar")
	}
	rawCenter, _ := score.Raw.CenterValue()
	log.Info().
		Float64("ceiled_center", center).
		Float64("ceiled_error", spread).
		Float64("raw_center", rawCenter).
		Msg("benchmark complete")

	benchmark.PlotSplitScoresTerminal(score.Values.Values(), "Ceiled per-split scores")
}

// syntheticReference builds a reference assembly: numImages stimuli in two
// object classes, numReps repetitions each, numNeuroids recording sites, with
// a deterministic tuning structure plus per-repetition noise.
func syntheticReference() *assembly.Assembly {
	rng := rand.New(rand.NewPCG(7, 7))
	presentations := numImages * numReps

	imageIDs := make([]assembly.Label, 0, presentations)
	objectNames := make([]assembly.Label, 0, presentations)
	repetitions := make([]assembly.Label, 0, presentations)
	data := make([]float64, 0, presentations*numNeuroids)

	tuning := make([][]float64, numImages)
	for img := range tuning {
		tuning[img] = make([]float64, numNeuroids)
		for n := range tuning[img] {
			tuning[img][n] = rng.NormFloat64()
		}
	}

	for img := 0; img < numImages; img++ {
		name := "animal"
		if img%2 == 1 {
			name = "vehicle"
		}
		for rep := 0; rep < numReps; rep++ {
			imageIDs = append(imageIDs, img)
			objectNames = append(objectNames, name)
			repetitions = append(repetitions, rep)
			for n := 0; n < numNeuroids; n++ {
				data = append(data, tuning[img][n]+0.1*rng.NormFloat64())
			}
		}
	}

	return assembly.MustNew(
		data,
		[]string{"presentation", "neuroid"},
		[]int{presentations, numNeuroids},
		[]assembly.Coord{
			{Name: "image_id", Dim: "presentation", Values: imageIDs},
			{Name: "object_name", Dim: "presentation", Values: objectNames},
			{Name: "repetition", Dim: "presentation", Values: repetitions},
			{Name: "neuroid_id", Dim: "neuroid", Values: neuroidIDs(numNeuroids)},
		},
	)
}

// syntheticCandidate responds with a fixed linear readout of the stimulus
// tuning, standing in for an external model.
type syntheticCandidate struct{}

func (syntheticCandidate) LookAt(stimuli *assembly.Assembly) (*assembly.Assembly, error) {
	rng := rand.New(rand.NewPCG(11, 11))
	presentations, err := stimuli.Len("presentation")
	if err != nil {
		return nil, err
	}

	stimulusValues := stimuli.Values()
	neuroids, err := stimuli.Len("neuroid")
	if err != nil {
		return nil, err
	}
	mix := make([][]float64, neuroids)
	for n := range mix {
		mix[n] = make([]float64, numModelDims)
		for d := range mix[n] {
			mix[n][d] = rng.NormFloat64()
		}
	}

	data := make([]float64, 0, presentations*numModelDims)
	for p := 0; p < presentations; p++ {
		for d := 0; d < numModelDims; d++ {
			var v float64
			for n := 0; n < neuroids; n++ {
				v += mix[n][d] * stimulusValues[p*neuroids+n]
			}
			data = append(data, v+0.05*rng.NormFloat64())
		}
	}

	imageIDs, err := stimuli.CoordValues("image_id")
	if err != nil {
		return nil, err
	}
	objectNames, err := stimuli.CoordValues("object_name")
	if err != nil {
		return nil, err
	}
	repetitions, err := stimuli.CoordValues("repetition")
	if err != nil {
		return nil, err
	}
	return assembly.New(
		data,
		[]string{"presentation", "neuroid"},
		[]int{presentations, numModelDims},
		[]assembly.Coord{
			{Name: "image_id", Dim: "presentation", Values: imageIDs},
			{Name: "object_name", Dim: "presentation", Values: objectNames},
			{Name: "repetition", Dim: "presentation", Values: repetitions},
			{Name: "neuroid_id", Dim: "neuroid", Values: neuroidIDs(numModelDims)},
		},
	)
}

func neuroidIDs(n int) []assembly.Label {
	ids := make([]assembly.Label, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}
