package metric

import (
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// Similarity is the contract exposed to benchmark collaborators: evaluate how
// well a source assembly matches a target assembly.
type Similarity interface {
	Evaluate(source, target *assembly.Assembly) (*Score, error)
}

// Characterization transforms an assembly before similarity is computed,
// e.g. dimensionality reduction.
type Characterization interface {
	Characterize(a *assembly.Assembly) (*assembly.Assembly, error)
}

// Metric composes an optional characterization with a similarity.
type Metric struct {
	similarity       Similarity
	characterization Characterization
}

// NewMetric builds a metric. A nil characterization is the identity.
func NewMetric(similarity Similarity, characterization Characterization) *Metric {
	return &Metric{similarity: similarity, characterization: characterization}
}

// Evaluate characterizes both assemblies, then computes their similarity.
func (m *Metric) Evaluate(source, target *assembly.Assembly) (*Score, error) {
	if m.characterization != nil {
		var err error
		if source, err = m.characterization.Characterize(source); err != nil {
			return nil, err
		}
		if target, err = m.characterization.Characterize(target); err != nil {
			return nil, err
		}
	}
	return m.similarity.Evaluate(source, target)
}

// Config holds the knobs of the cross-validation engine.
type Config struct {
	Splits         int
	TrainRatio     float64
	ComparisonDim  string
	StratifyCoord  string
	IdentityCoord  string
	SimilarityDims []string
	Seed           uint64
	Parallelism    int
	Aggregate      Aggregate
}

// DefaultConfig returns the engine defaults: 10 splits at a 0.9 train ratio
// over the presentation axis, stratified by object_name, mean aggregation.
func DefaultConfig() Config {
	return Config{
		Splits:         DefaultSplits,
		TrainRatio:     DefaultTrainRatio,
		ComparisonDim:  DefaultComparisonDim,
		StratifyCoord:  DefaultStratifyCoord,
		IdentityCoord:  DefaultIdentityCoord,
		SimilarityDims: []string{DefaultComparisonDim, DefaultEntityDim},
		Seed:           42,
		Parallelism:    1,
		Aggregate:      MeanAggregate,
	}
}

// Option tweaks the engine configuration.
type Option func(*Config)

func WithSplits(splits int) Option {
	return func(c *Config) { c.Splits = splits }
}

func WithTrainRatio(ratio float64) Option {
	return func(c *Config) { c.TrainRatio = ratio }
}

func WithComparisonDim(dim string) Option {
	return func(c *Config) { c.ComparisonDim = dim }
}

func WithStratification(coord string) Option {
	return func(c *Config) { c.StratifyCoord = coord }
}

func WithIdentityCoord(coord string) Option {
	return func(c *Config) { c.IdentityCoord = coord }
}

func WithSimilarityDims(dims ...string) Option {
	return func(c *Config) { c.SimilarityDims = dims }
}

func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithParallelism bounds how many adjacent-combination slices run at once.
// Results are merged by index, so parallel runs stay deterministic.
func WithParallelism(n int) Option {
	return func(c *Config) { c.Parallelism = n }
}

func WithAggregate(agg Aggregate) Option {
	return func(c *Config) { c.Aggregate = agg }
}

// CrossValidationSimilarity aligns the source to the target, sorts both by
// the identity coordinate so fold assignment is reproducible, decomposes the
// pair into independent adjacent-dimension slices, cross-validates each slice
// and wraps the reassembled per-split values in a Score.
type CrossValidationSimilarity struct {
	cfg  Config
	eval SplitEvaluator
}

// NewCrossValidationSimilarity builds the engine around a split evaluator.
func NewCrossValidationSimilarity(eval SplitEvaluator, opts ...Option) *CrossValidationSimilarity {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &CrossValidationSimilarity{cfg: cfg, eval: eval}
}

// Evaluate implements Similarity.
func (s *CrossValidationSimilarity) Evaluate(source, target *assembly.Assembly) (*Score, error) {
	source, err := Subset(source, target, s.cfg.ComparisonDim)
	if err != nil {
		return nil, err
	}
	if source, err = source.SortBy(s.cfg.IdentityCoord); err != nil {
		return nil, err
	}
	if target, err = target.SortBy(s.cfg.IdentityCoord); err != nil {
		return nil, err
	}
	values, err := s.apply(source, target)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("splits", s.cfg.Splits).
		Strs("dims", values.Dims()).
		Msg("cross-validated similarity computed")
	return NewScore(values, s.cfg.Aggregate)
}

func (s *CrossValidationSimilarity) adjacentDims(a *assembly.Assembly) []string {
	var out []string
	for _, d := range a.Dims() {
		if !slices.Contains(s.cfg.SimilarityDims, d) {
			out = append(out, d)
		}
	}
	return out
}
