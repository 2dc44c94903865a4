package benchmark

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// PlotSplitScoresTerminal renders per-split score values as a horizontal bar
// chart on stdout, one row per split.
func PlotSplitScoresTerminal(scores []float64, title string) {
	if len(scores) == 0 {
		return
	}
	minScore := floats.Min(scores)
	maxScore := floats.Max(scores)

	fmt.Printf("\n%s (per split):\n", title)
	fmt.Println("Split | Score    | Bar Chart")
	fmt.Println("------|----------|" + strings.Repeat("-", 50))

	maxBarWidth := 50
	for i, score := range scores {
		var barWidth int
		if maxScore != minScore {
			barWidth = int((score - minScore) / (maxScore - minScore) * float64(maxBarWidth))
		} else {
			barWidth = maxBarWidth / 2
		}
		bar := strings.Repeat("█", barWidth)
		if barWidth == 0 {
			bar = "▏"
		}
		fmt.Printf("%5d | %.6f | %s\n", i, score, bar)
	}
	fmt.Printf("\nScale: Min=%.6f, Max=%.6f\n", minScore, maxScore)
}
