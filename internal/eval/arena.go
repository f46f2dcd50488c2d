// Package eval drives the evaluation phase of a generation: the Arena ticks every
// individual of the current population through a task on the Swarm, and Benchmark
// replays champions on fixed seeds.
package eval

import (
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"evodrone/internal/env"
	"evodrone/internal/ga"
	"evodrone/internal/nn"
	"evodrone/internal/rng"
	"evodrone/internal/swarm"
)

// TickObserver receives the wall time of every arena tick.
type TickObserver interface {
	ObserveTick(time.Duration)
}

// Options bound an evaluation.
type Options struct {
	// MaxTime is the simulated time cap in seconds.
	MaxTime float64
	DT      float64
	// Observer is optional.
	Observer TickObserver
	Logger   *slog.Logger
}

// MaxTicks converts the time cap into a tick count. At least one tick always runs.
func (o Options) MaxTicks() int {
	if o.DT <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(o.MaxTime/o.DT-1e-9)))
}

// Result summarizes one Arena.Run.
type Result struct {
	Generation int
	Ticks      int
	// BestFitness and BestIndex refer to the fittest individual after the finish bonus.
	BestFitness float64
	BestIndex   int
	// PeakFitness and PeakIndex track the best running fitness seen on any tick.
	PeakFitness float64
	PeakIndex   int
	Survivors   int
	Stats       []env.EpisodeStats
	Elapsed     time.Duration
}

// Arena evaluates a selector's current buffer against a task.
type Arena struct {
	task     env.Task
	selector *ga.Selector
	swarm    *swarm.Swarm
	src      *rng.Source
	opts     Options
	log      *slog.Logger

	episodes []env.Episode
}

// NewArena wires a task to a population. The task must match the population's input
// and output widths.
func NewArena(task env.Task, selector *ga.Selector, sw *swarm.Swarm, src *rng.Source, opts Options) (*Arena, error) {
	if task == nil || selector == nil || sw == nil || src == nil {
		return nil, errors.New("eval: arena needs a task, a selector, a swarm and a random source")
	}
	arch := selector.Architecture()
	if arch[0] != task.Inputs() || arch[len(arch)-1] != task.Outputs() {
		return nil, &ga.ConfigError{
			Field:  "nn",
			Reason: "architecture does not match task " + task.Name(),
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Arena{
		task:     task,
		selector: selector,
		swarm:    sw,
		src:      src,
		opts:     opts,
		log:      logger,
		episodes: make([]env.Episode, len(selector.Current())),
	}, nil
}

// Run evaluates the current population. Individuals are reset, ticked in parallel
// until none is alive or the time cap is hit, then credited with their finish bonus.
// Run must not overlap with Selector.NextGeneration.
func (a *Arena) Run() Result {
	start := time.Now()
	a.task.Reset(a.src)
	a.selector.ResetEvaluation()
	pop := a.selector.Current()
	for i := range pop {
		a.episodes[i] = a.task.NewEpisode()
	}

	res := Result{Generation: a.selector.Generation(), PeakFitness: math.Inf(-1)}
	maxTicks := a.opts.MaxTicks()
	var alive atomic.Int64
	for res.Ticks < maxTicks {
		tickStart := time.Now()
		alive.Store(0)
		a.swarm.Parallel(len(pop), func(lo, hi int) {
			var n int64
			for i := lo; i < hi; i++ {
				ind := pop[i]
				if !ind.Alive {
					continue
				}
				ep := a.episodes[i]
				reward, ok := ep.Step(ind.Execute(ep.Observe()))
				ind.Fitness += reward
				ind.Alive = ok
				if ok {
					n++
				}
			}
			alive.Add(n)
		})
		res.Ticks++
		for i, ind := range pop {
			if ind.Fitness > res.PeakFitness {
				res.PeakFitness, res.PeakIndex = ind.Fitness, i
			}
		}
		if a.opts.Observer != nil {
			a.opts.Observer.ObserveTick(time.Since(tickStart))
		}
		if alive.Load() == 0 {
			break
		}
	}
	res.Survivors = int(alive.Load())

	res.Stats = make([]env.EpisodeStats, len(pop))
	a.swarm.Parallel(len(pop), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			pop[i].Fitness += a.episodes[i].Finish()
			res.Stats[i] = a.episodes[i].Stats()
		}
	})

	best := a.selector.Best()
	res.BestFitness, res.BestIndex = best.Fitness, best.Index
	res.Elapsed = time.Since(start)
	a.log.Debug("arena finished",
		"generation", res.Generation,
		"ticks", res.Ticks,
		"survivors", res.Survivors,
		"best_fitness", res.BestFitness,
		"elapsed", res.Elapsed)
	return res
}

// RunEpisode plays one network through a fresh episode of task for at most maxTicks
// ticks. The task must already be Reset. A non-nil replay records every tick.
func RunEpisode(task env.Task, net *nn.Network, maxTicks int, replay *env.Replay) env.EpisodeStats {
	ep := task.NewEpisode()
	for tick := 0; tick < maxTicks; tick++ {
		inputs := ep.Observe()
		outputs := net.Execute(inputs)
		reward, alive := ep.Step(outputs)
		if replay != nil {
			replay.Record(ep, inputs, outputs, reward)
		}
		if !alive {
			break
		}
	}
	ep.Finish()
	stats := ep.Stats()
	if replay != nil {
		replay.SetFinalStats(stats)
	}
	return stats
}
