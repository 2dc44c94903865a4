// Package benchmark builds a concrete neural-predictivity benchmark on top of
// the cross-validated similarity engine: a linear source-to-target mapping
// scored by per-entity Pearson correlation, ceiling-normalized by the
// reference data's internal consistency.
package benchmark

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
	"github.com/neuralign-labs/neuralign/pkg/metric"
)

// Candidate produces a model's responses to a stimulus set. The engine
// places no constraint on how the responses are computed, only that the
// returned assembly labels its presentation axis the way the stimuli do.
type Candidate interface {
	LookAt(stimuli *assembly.Assembly) (*assembly.Assembly, error)
}

// Benchmark evaluates candidates against one reference assembly. The ceiling
// is computed lazily, once, from the reference data.
type Benchmark struct {
	Identifier string

	target     *assembly.Assembly
	metric     *metric.Metric
	ceilingSim metric.Similarity

	ceilingOnce sync.Once
	ceiling     *metric.Score
	ceilingErr  error
}

// New builds a linear-predictivity benchmark over the given reference
// assembly. Engine options (splits, train ratio, seed, parallelism) apply to
// both the score and the ceiling, keeping their splits matched.
func New(identifier string, target *assembly.Assembly, opts ...metric.Option) *Benchmark {
	evaluator := metric.NewParametricEvaluator(NewLinearPredictivity(), nil)
	similarity := metric.NewCrossValidationSimilarity(evaluator, opts...)
	ceilingEvaluator := metric.NewNonparametricEvaluator(NewInternalConsistency())
	ceilingSimilarity := metric.NewCrossValidationSimilarity(ceilingEvaluator, opts...)
	return &Benchmark{
		Identifier: identifier,
		target:     target,
		metric:     metric.NewMetric(similarity, nil),
		ceilingSim: ceilingSimilarity,
	}
}

// Target returns the reference assembly, which doubles as the stimulus
// description handed to candidates.
func (b *Benchmark) Target() *assembly.Assembly { return b.target }

// Ceiling computes (once) the reliability ceiling of the reference data.
func (b *Benchmark) Ceiling() (*metric.Score, error) {
	b.ceilingOnce.Do(func() {
		log.Debug().Str("benchmark", b.Identifier).Msg("computing ceiling")
		b.ceiling, b.ceilingErr = b.ceilingSim.Evaluate(b.target, b.target)
	})
	return b.ceiling, b.ceilingErr
}

// Run evaluates a candidate: collect its responses to the reference stimuli,
// score them against the reference data, and ceiling-normalize the result.
func (b *Benchmark) Run(candidate Candidate) (*metric.Score, error) {
	source, err := candidate.LookAt(b.target)
	if err != nil {
		return nil, err
	}
	score, err := b.metric.Evaluate(source, b.target)
	if err != nil {
		return nil, err
	}
	ceiling, err := b.Ceiling()
	if err != nil {
		return nil, err
	}
	ceiled, err := metric.CeilScore(score, ceiling)
	if err != nil {
		return nil, err
	}
	if center, cerr := ceiled.CenterValue(); cerr == nil {
		log.Info().Str("benchmark", b.Identifier).Float64("score", center).Msg("candidate scored")
	}
	return ceiled, nil
}
