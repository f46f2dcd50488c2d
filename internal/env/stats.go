package env

import "gonum.org/v1/gonum/stat"

// DeathReason indicates how an episode ended
type DeathReason int

const (
	DeathNone        DeathReason = iota // survived until the time cap or task end
	DeathOutOfBounds                    // left the arena
	DeathFlipped                        // turned upside down
)

func (d DeathReason) String() string {
	switch d {
	case DeathNone:
		return "none"
	case DeathOutOfBounds:
		return "out_of_bounds"
	case DeathFlipped:
		return "flipped"
	default:
		return "unknown"
	}
}

// EpisodeStats captures all metrics from a single episode
type EpisodeStats struct {
	Fitness float64     // accumulated fitness including the finish bonus
	Ticks   int         // number of ticks survived
	Targets int         // number of targets reached
	Death   DeathReason // how the episode ended
	Seed    int64       // seed used for this episode
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	FitnessMean float64
	FitnessStd  float64
	TicksMean   float64
	TargetsMean float64
	DeathCounts map[DeathReason]int
	NumEpisodes int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	agg := AggregatedStats{
		DeathCounts: make(map[DeathReason]int),
		NumEpisodes: len(episodes),
	}
	if len(episodes) == 0 {
		return agg
	}

	fitness := make([]float64, len(episodes))
	ticks := make([]float64, len(episodes))
	targets := make([]float64, len(episodes))
	for i, ep := range episodes {
		fitness[i] = ep.Fitness
		ticks[i] = float64(ep.Ticks)
		targets[i] = float64(ep.Targets)
		agg.DeathCounts[ep.Death]++
	}

	agg.FitnessMean, agg.FitnessStd = stat.PopMeanStdDev(fitness, nil)
	agg.TicksMean = stat.Mean(ticks, nil)
	agg.TargetsMean = stat.Mean(targets, nil)
	return agg
}

// RobustnessScore computes the ranking score: mean - lambda * std
func (a AggregatedStats) RobustnessScore(lambda float64) float64 {
	return a.FitnessMean - lambda*a.FitnessStd
}
