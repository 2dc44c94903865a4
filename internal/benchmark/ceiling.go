package benchmark

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
	"github.com/neuralign-labs/neuralign/pkg/metric"
)

// InternalConsistency estimates a reliability ceiling from the reference data
// alone: per entity, the repetitions of each stimulus are split into two
// halves by parity, each half is averaged per stimulus, the halves are
// correlated across stimuli and Spearman-Brown corrected, and the median over
// entities is returned. It implements metric.Computer, so the cross-validation
// engine applies it to each train portion and yields a split-matched ceiling.
type InternalConsistency struct {
	IdentityCoord   string
	RepetitionCoord string
	EntityDim       string
}

// NewInternalConsistency returns the computer over the default coords.
func NewInternalConsistency() InternalConsistency {
	return InternalConsistency{
		IdentityCoord:   metric.DefaultIdentityCoord,
		RepetitionCoord: "repetition",
		EntityDim:       metric.DefaultEntityDim,
	}
}

// Compute implements metric.Computer. Only the target is consulted; the
// ceiling is a property of the measurement, not of any candidate.
func (ic InternalConsistency) Compute(_, target *assembly.Assembly) (float64, error) {
	imageIDs, err := target.CoordValues(ic.IdentityCoord)
	if err != nil {
		return 0, err
	}
	repetitions, err := target.CoordValues(ic.RepetitionCoord)
	if err != nil {
		return 0, err
	}
	entities, err := target.Len(ic.EntityDim)
	if err != nil {
		return 0, err
	}

	rs := make([]float64, 0, entities)
	for e := 0; e < entities; e++ {
		values, err := entityLane(target, ic.EntityDim, e)
		if err != nil {
			return 0, err
		}
		r, err := splitHalfCorrelation(values, imageIDs, repetitions)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(r) {
			continue
		}
		// Spearman-Brown correction for halving the repetition count
		rs = append(rs, 2*r/(1+r))
	}
	if len(rs) == 0 {
		return math.NaN(), nil
	}
	return assembly.Median(rs), nil
}

type halfSums struct {
	evenSum, oddSum float64
	evenN, oddN     int
}

// splitHalfCorrelation correlates the even-repetition and odd-repetition
// per-stimulus averages of one entity's responses. NaN when fewer than two
// stimuli have both halves or when either half has zero variance.
func splitHalfCorrelation(values []float64, imageIDs, repetitions []assembly.Label) (float64, error) {
	if len(values) != len(imageIDs) || len(values) != len(repetitions) {
		return 0, fmt.Errorf("benchmark: %d values for %d stimuli and %d repetitions",
			len(values), len(imageIDs), len(repetitions))
	}
	byImage := make(map[assembly.Label]*halfSums)
	for i, v := range values {
		rep, err := repetitionIndex(repetitions[i])
		if err != nil {
			return 0, err
		}
		h := byImage[imageIDs[i]]
		if h == nil {
			h = &halfSums{}
			byImage[imageIDs[i]] = h
		}
		if rep%2 == 0 {
			h.evenSum += v
			h.evenN++
		} else {
			h.oddSum += v
			h.oddN++
		}
	}
	var images []assembly.Label
	for id, h := range byImage {
		if h.evenN > 0 && h.oddN > 0 {
			images = append(images, id)
		}
	}
	if len(images) < 2 {
		return math.NaN(), nil
	}
	sort.Slice(images, func(i, j int) bool { return assembly.Compare(images[i], images[j]) < 0 })
	even := make([]float64, len(images))
	odd := make([]float64, len(images))
	for i, id := range images {
		h := byImage[id]
		even[i] = h.evenSum / float64(h.evenN)
		odd[i] = h.oddSum / float64(h.oddN)
	}
	return stat.Correlation(even, odd, nil), nil
}

func repetitionIndex(l assembly.Label) (int, error) {
	switch v := l.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("benchmark: repetition label %v is not numeric", l)
	}
}

// entityLane extracts one entity's values across all presentations.
func entityLane(a *assembly.Assembly, entityDim string, position int) ([]float64, error) {
	taken, err := a.Take(entityDim, []int{position})
	if err != nil {
		return nil, err
	}
	squeezed, err := taken.Squeeze(entityDim)
	if err != nil {
		return nil, err
	}
	return squeezed.Values(), nil
}
