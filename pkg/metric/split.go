package metric

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// Split is one train/test partition of the comparison axis. Train and test
// are disjoint, ascending position index sets.
type Split struct {
	Train []int
	Test  []int
}

// stratifiedShuffleSplit draws the configured number of independent train/test
// partitions over positions 0..len(classes)-1, preserving per-class
// proportions within one entry per class. The rng for split i is derived from
// (seed, i), so the partitions for shared split indices are stable when only
// the split count changes.
func stratifiedShuffleSplit(classes []assembly.Label, splits int, trainRatio float64, seed uint64) ([]Split, error) {
	if splits < 1 {
		return nil, fmt.Errorf("metric: splits must be positive, got %d", splits)
	}
	if trainRatio <= 0 || trainRatio >= 1 {
		return nil, fmt.Errorf("metric: train ratio must be in (0, 1), got %v", trainRatio)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("metric: cannot split an empty comparison axis")
	}

	// class -> member positions, classes kept in first-appearance order so
	// iteration is deterministic
	var order []assembly.Label
	members := make(map[assembly.Label][]int)
	for i, c := range classes {
		if _, ok := members[c]; !ok {
			order = append(order, c)
		}
		members[c] = append(members[c], i)
	}

	out := make([]Split, splits)
	for s := 0; s < splits; s++ {
		rng := rand.New(rand.NewPCG(seed, uint64(s)))
		var train, test []int
		for _, c := range order {
			positions := append([]int(nil), members[c]...)
			rng.Shuffle(len(positions), func(i, j int) {
				positions[i], positions[j] = positions[j], positions[i]
			})
			nTrain := int(math.Round(trainRatio * float64(len(positions))))
			// rounding must not consume the class, every class keeps at
			// least one test entry
			if nTrain >= len(positions) {
				nTrain = len(positions) - 1
			}
			train = append(train, positions[:nTrain]...)
			test = append(test, positions[nTrain:]...)
		}
		sort.Ints(train)
		sort.Ints(test)
		out[s] = Split{Train: train, Test: test}
	}
	return out, nil
}
