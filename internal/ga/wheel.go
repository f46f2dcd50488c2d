package ga

import (
	"math"
	"sort"

	"evodrone/internal/rng"
)

// SelectionWheel draws indices with probability proportional to fitness. It is rebuilt
// each generation and must not be shared between goroutines.
type SelectionWheel struct {
	cumulative []float64
	src        *rng.Source
}

// NewSelectionWheel creates an empty wheel drawing from src.
func NewSelectionWheel(src *rng.Source) *SelectionWheel {
	return &SelectionWheel{cumulative: []float64{0}, src: src}
}

// Reset empties the wheel.
func (w *SelectionWheel) Reset() {
	w.cumulative = w.cumulative[:1]
	w.cumulative[0] = 0
}

// Add appends one score. Negative and NaN scores count as zero so the cumulative array
// stays non-decreasing.
func (w *SelectionWheel) Add(score float64) {
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	last := w.cumulative[len(w.cumulative)-1]
	w.cumulative = append(w.cumulative, last+score)
}

// AddFitnessScores resets the wheel and adds scores in order.
func (w *SelectionWheel) AddFitnessScores(scores []float64) {
	w.Reset()
	for _, s := range scores {
		w.Add(s)
	}
}

// Len returns the number of scores on the wheel.
func (w *SelectionWheel) Len() int {
	return len(w.cumulative) - 1
}

// Total returns the sum of all scores.
func (w *SelectionWheel) Total() float64 {
	return w.cumulative[len(w.cumulative)-1]
}

// Cumulative returns the running sums, slot 0 being zero.
func (w *SelectionWheel) Cumulative() []float64 {
	return w.cumulative
}

// AverageFitness returns Total/Len, zero for an empty wheel.
func (w *SelectionWheel) AverageFitness() float64 {
	if w.Len() == 0 {
		return 0
	}
	return w.Total() / float64(w.Len())
}

// IndexOf returns the smallest k with cumulative[k+1] > v. Values at or past the total
// resolve to the last slot.
func (w *SelectionWheel) IndexOf(v float64) int {
	n := w.Len()
	k := sort.Search(n, func(i int) bool { return w.cumulative[i+1] > v })
	if k == n {
		k = n - 1
	}
	return k
}

// Pick draws an index. When every score is zero the draw is uniform. An empty wheel
// returns -1.
func (w *SelectionWheel) Pick() int {
	n := w.Len()
	if n == 0 {
		return -1
	}
	total := w.Total()
	if total <= 0 {
		return w.src.Intn(n)
	}
	return w.IndexOf(w.src.Float64() * total)
}
