package metric

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// ParametricEvaluator drives the fit/predict/compare cycle: a Fitter learns a
// source-to-target mapping on the train portion, the mapping predicts the
// held-out source, and the prediction is compared to the held-out target per
// entity with the configured correlation, taking the median over entities.
//
// The evaluator owns the alignment scaffolding: it records the target's
// entity-identity labels at fit time, re-attaches them to predictions, and
// verifies identity coords before comparing. Concrete measures supply only
// the Fitter and, optionally, the correlation.
type ParametricEvaluator struct {
	fitter        Fitter
	correlation   CorrelationFunc
	identityCoord string
	entityDim     string
	entityIDCoord string
}

// NewParametricEvaluator wires a Fitter into the parametric protocol. A nil
// correlation defaults to Pearson.
func NewParametricEvaluator(fitter Fitter, correlation CorrelationFunc) *ParametricEvaluator {
	if correlation == nil {
		correlation = PearsonCorrelation
	}
	return &ParametricEvaluator{
		fitter:        fitter,
		correlation:   correlation,
		identityCoord: DefaultIdentityCoord,
		entityDim:     DefaultEntityDim,
		entityIDCoord: DefaultEntityIDCoord,
	}
}

// PearsonCorrelation is the default comparison statistic. NaN when either
// series has zero variance.
func PearsonCorrelation(x, y []float64) float64 {
	return stat.Correlation(x, y, nil)
}

// EvaluateSplit implements SplitEvaluator.
func (e *ParametricEvaluator) EvaluateSplit(trainSource, trainTarget, testSource, testTarget *assembly.Assembly) (float64, error) {
	if err := requireCoordEqual(trainSource, trainTarget, e.identityCoord); err != nil {
		return 0, fmt.Errorf("fit inputs: %w", err)
	}
	targetEntityIDs, err := trainTarget.CoordValues(e.entityIDCoord)
	if err != nil {
		return 0, fmt.Errorf("fit target: %w", err)
	}

	log.Trace().Msg("fitting")
	mapping, err := e.fitter.Fit(trainSource, trainTarget)
	if err != nil {
		return 0, fmt.Errorf("fit: %w", err)
	}

	log.Trace().Msg("predicting")
	prediction, err := mapping.Predict(testSource)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	prediction, err = e.reconcileEntityAxis(prediction, targetEntityIDs)
	if err != nil {
		return 0, err
	}

	log.Trace().Msg("comparing")
	return e.compare(prediction, testTarget)
}

// reconcileEntityAxis restores the entity axis identity after prediction: a
// learned mapping may return values without identity coords, or with the
// entity axis collapsed away entirely. The target's entity labels recorded at
// fit time are authoritative.
func (e *ParametricEvaluator) reconcileEntityAxis(prediction *assembly.Assembly, entityIDs []assembly.Label) (*assembly.Assembly, error) {
	if !prediction.HasDim(e.entityDim) {
		if len(entityIDs) != 1 {
			return nil, fmt.Errorf("metric: prediction lost dim %q but target has %d entities",
				e.entityDim, len(entityIDs))
		}
		expanded, err := prediction.Expand(e.entityDim, 1)
		if err != nil {
			return nil, err
		}
		prediction = expanded
	}
	n, err := prediction.Len(e.entityDim)
	if err != nil {
		return nil, err
	}
	if n != len(entityIDs) {
		return nil, fmt.Errorf("metric: prediction has %d entities, target has %d", n, len(entityIDs))
	}
	return prediction.WithCoord(assembly.Coord{
		Name:   e.entityIDCoord,
		Dim:    e.entityDim,
		Values: entityIDs,
	})
}

// compare aligns the prediction and target on the identity and entity
// identity coords, computes the correlation per entity, and returns the
// median. Entities whose correlation is undefined (zero variance) yield NaN
// and are excluded from the median; if every entity is undefined, the result
// is NaN.
func (e *ParametricEvaluator) compare(prediction, target *assembly.Assembly) (float64, error) {
	if err := requireCoordEqual(prediction, target, e.identityCoord); err != nil {
		return 0, fmt.Errorf("compare inputs: %w", err)
	}
	if err := requireCoordEqual(prediction, target, e.entityIDCoord); err != nil {
		return 0, fmt.Errorf("compare inputs: %w", err)
	}
	n, err := target.Len(e.entityDim)
	if err != nil {
		return 0, err
	}
	rs := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		predLane, err := lane(prediction, e.entityDim, i)
		if err != nil {
			return 0, err
		}
		targetLane, err := lane(target, e.entityDim, i)
		if err != nil {
			return 0, err
		}
		r := e.correlation(targetLane, predLane)
		if math.IsNaN(r) {
			continue
		}
		rs = append(rs, r)
	}
	if len(rs) == 0 {
		return math.NaN(), nil
	}
	return assembly.Median(rs), nil
}

// lane extracts the values at a single position of the given dim, flattened
// over the remaining axes in storage order.
func lane(a *assembly.Assembly, dim string, position int) ([]float64, error) {
	taken, err := a.Take(dim, []int{position})
	if err != nil {
		return nil, err
	}
	squeezed, err := taken.Squeeze(dim)
	if err != nil {
		return nil, err
	}
	return squeezed.Values(), nil
}

// requireCoordEqual verifies that two assemblies agree entry-for-entry on the
// named coord.
func requireCoordEqual(a, b *assembly.Assembly, coord string) error {
	av, err := a.CoordValues(coord)
	if err != nil {
		return err
	}
	bv, err := b.CoordValues(coord)
	if err != nil {
		return err
	}
	if len(av) != len(bv) {
		return &MisalignedFoldInputError{Coord: coord, Position: min(len(av), len(bv))}
	}
	for i := range av {
		if av[i] != bv[i] {
			return &MisalignedFoldInputError{Coord: coord, Position: i}
		}
	}
	return nil
}
