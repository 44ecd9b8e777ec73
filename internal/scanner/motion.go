package scanner

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MeanSquaredDifference is the per-pixel mean of squared grey differences.
// Frames must be the same size.
func MeanSquaredDifference(a, b *Frame) float64 {
	if a.Pixels() == 0 {
		return 0
	}
	d := floats.Distance(a.levels, b.levels, 2)
	return d * d / float64(a.Pixels())
}

// Correlation is the normalized cross-correlation coefficient of the grey
// levels of a and b, in [-1, 1]. Two flat frames correlate fully when equal
// and not at all otherwise.
func Correlation(a, b *Frame) float64 {
	if a.Pixels() == 0 {
		return 1
	}
	c := stat.Correlation(a.levels, b.levels, nil)
	if math.IsNaN(c) {
		if floats.Equal(a.levels, b.levels) {
			return 1
		}
		return 0
	}
	return c
}

// biggestDifference is the largest MeanSquaredDifference between newest and
// any frame in the history.
func biggestDifference(newest *Frame, history []*Frame) float64 {
	var worst float64
	for _, f := range history {
		worst = math.Max(worst, MeanSquaredDifference(newest, f))
	}
	return worst
}

// backgroundSimilarity is the smallest Correlation between the background
// and any frame in the history.
func backgroundSimilarity(bg *Frame, history []*Frame) float64 {
	sim := math.Inf(1)
	for _, f := range history {
		sim = math.Min(sim, Correlation(bg, f))
	}
	return sim
}
