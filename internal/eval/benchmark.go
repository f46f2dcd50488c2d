package eval

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"evodrone/internal/dna"
	"evodrone/internal/env"
	"evodrone/internal/nn"
	"evodrone/internal/rng"
)

// TaskFactory builds an independent task instance. Benchmark episodes run
// concurrently and each needs its own task state.
type TaskFactory func() (env.Task, error)

// BenchmarkResult is one champion's score across the benchmark seeds.
type BenchmarkResult struct {
	Index    int
	Episodes []env.EpisodeStats
	Stats    env.AggregatedStats
}

// Benchmark plays every genome on every seed, at most workers episodes at a time.
// Results keep the order of genomes.
func Benchmark(ctx context.Context, newTask TaskFactory, arch []int, genomes []*dna.Genome, seeds []int64, maxTicks, workers int) ([]BenchmarkResult, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("eval: benchmark needs at least one seed")
	}
	for i, g := range genomes {
		if _, err := nn.FromGenome(arch, g); err != nil {
			return nil, fmt.Errorf("benchmark genome %d: %w", i, err)
		}
	}
	if workers <= 0 {
		workers = len(genomes) * len(seeds)
	}

	episodes := make([][]env.EpisodeStats, len(genomes))
	errs := make([]error, len(genomes)*len(seeds))
	p := pool.New().WithMaxGoroutines(max(1, workers))
	for i := range genomes {
		episodes[i] = make([]env.EpisodeStats, len(seeds))
		for j, seed := range seeds {
			p.Go(func() {
				if ctx.Err() != nil {
					errs[i*len(seeds)+j] = ctx.Err()
					return
				}
				task, err := newTask()
				if err != nil {
					errs[i*len(seeds)+j] = err
					return
				}
				// Networks keep forward buffers, every episode gets its own copy.
				net, err := nn.FromGenome(arch, genomes[i])
				if err != nil {
					errs[i*len(seeds)+j] = err
					return
				}
				task.Reset(rng.New(seed))
				stats := RunEpisode(task, net, maxTicks, nil)
				stats.Seed = seed
				episodes[i][j] = stats
			})
		}
	}
	p.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	results := make([]BenchmarkResult, len(genomes))
	for i := range genomes {
		results[i] = BenchmarkResult{
			Index:    i,
			Episodes: episodes[i],
			Stats:    env.Aggregate(episodes[i]),
		}
	}
	return results, nil
}
