package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"evodrone/internal/config"
	"evodrone/internal/dna"
	"evodrone/internal/env"
	"evodrone/internal/eval"
	"evodrone/internal/ga"
	"evodrone/internal/logging"
	"evodrone/internal/metrics"
	"evodrone/internal/rng"
	"evodrone/internal/storage"
	"evodrone/internal/swarm"
)

const benchmarkTopK = 5

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/seek.yaml", "path to config file (.yaml or .ini)")
	generations := flag.Int("generations", 1000, "number of generations to run")
	population := flag.Int("population", 0, "override ga.population")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *population > 0 {
		cfg.GA.Population = *population
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *generations, logger); err != nil {
		logger.Error("training failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, generations int, logger *slog.Logger) error {
	runID := uuid.NewString()
	newTask := func() (env.Task, error) {
		return env.ByName(cfg.Task.Name, env.Options{DT: cfg.Task.DT, Targets: cfg.Task.Targets})
	}
	task, err := newTask()
	if err != nil {
		return err
	}
	arch, err := cfg.Architecture(task.Inputs(), task.Outputs())
	if err != nil {
		return err
	}
	opts, err := cfg.SelectorOptions(arch)
	if err != nil {
		return err
	}

	src := rng.New(cfg.Seed)
	selector, err := ga.NewSelector(opts, src.Fork())
	if err != nil {
		return err
	}
	if cfg.GA.SeedArchive != "" {
		genomes, err := storage.ReadLatest(cfg.GA.SeedArchive, storage.RecordLength(arch), cfg.GA.Population)
		if err != nil {
			logger.Warn("seed archive unreadable, starting from random genomes", "path", cfg.GA.SeedArchive, "err", err)
		}
		n, err := selector.Seed(genomes)
		if err != nil {
			return err
		}
		logger.Info("seeded population", "path", cfg.GA.SeedArchive, "genomes", n)
	}

	sw := swarm.New(cfg.Swarm.Workers)
	defer sw.Stop()

	collectors := metrics.New(runID, task.Name())
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: collectors.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	arenaOpts := eval.Options{
		MaxTime:  cfg.Task.MaxTime,
		DT:       cfg.Task.DT,
		Observer: collectors,
		Logger:   logger,
	}
	arena, err := eval.NewArena(task, selector, sw, src.Fork(), arenaOpts)
	if err != nil {
		return err
	}

	recorder, err := logging.NewRecorder(cfg.Logging.CSVPath, cfg.Logging.JSONPath, logger)
	if err != nil {
		return err
	}
	if err := recorder.Init(); err != nil {
		return err
	}
	defer recorder.Close()

	store, err := storage.NewStore(cfg.Storage.Kind, cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)

	var archive *storage.Archive
	if cfg.Logging.DumpEvery > 0 {
		archive, err = storage.CreateArchive(cfg.Logging.DumpPath, storage.RecordLength(arch))
		if err != nil {
			return err
		}
		defer archive.Close()
	}

	logger.Info("training",
		"run_id", runID,
		"task", task.Name(),
		"architecture", arch,
		"population", cfg.GA.Population,
		"elites", selector.EliteCount(),
		"survivors", selector.SurvivorCount(),
		"workers", sw.Size())

	// Track best ever for the final champion
	bestFitness := math.Inf(-1)
	var bestGenome *dna.Genome
	startTime := time.Now()

	for gen := 0; gen < generations; gen++ {
		if ctx.Err() != nil {
			logger.Warn("interrupted", "generation", gen)
			break
		}
		genStart := time.Now()

		// 1. Evaluate the current population
		res := arena.Run()

		// 2. Benchmark the top candidates on fixed seeds
		if cfg.Eval.BenchmarkEvery > 0 && (gen+1)%cfg.Eval.BenchmarkEvery == 0 {
			if err := benchmark(ctx, cfg, newTask, arch, selector, arenaOpts.MaxTicks(), recorder, collectors, gen); err != nil {
				logger.Warn("benchmark failed", "generation", gen, "err", err)
			}
		}

		// 3. Reproduce
		rep := selector.NextGeneration()

		// 4. Persist the champion
		if rep.BestFitness > bestFitness {
			bestFitness = rep.BestFitness
			bestGenome = rep.Best
			champion := storage.NewChampion(runID, task.Name(), rep.Generation, rep.BestFitness, arch, rep.Best)
			if err := store.SaveChampion(ctx, champion); err != nil {
				logger.Warn("failed to save champion", "err", err)
			}
		}
		if archive != nil && (gen+1)%cfg.Logging.DumpEvery == 0 {
			if err := archive.Append(rep.Best); err != nil {
				logger.Warn("failed to dump champion", "path", archive.Path(), "err", err)
			}
		}

		// 5. Log generation summary
		sum := logging.Summarize(res, rep, time.Since(genStart))
		if err := recorder.LogGeneration(sum, cfg.Logging.EveryGenSummary); err != nil {
			logger.Warn("failed to write generation summary", "err", err)
		}
		collectors.ObserveGeneration(sum.BestFitness, sum.MeanFitness, res.Survivors, rep)
	}

	logger.Info("training complete",
		"run_id", runID,
		"generations", selector.Generation(),
		"elapsed", time.Since(startTime),
		"best_fitness", bestFitness)
	if archive != nil && bestGenome != nil {
		if err := archive.Append(bestGenome); err != nil {
			return err
		}
		logger.Info("champions archived", "path", archive.Path(), "records", archive.Count())
	}
	return nil
}

// benchmark replays the top candidates of the evaluated population on the benchmark
// seeds
func benchmark(ctx context.Context, cfg *config.Config, newTask eval.TaskFactory, arch []int,
	selector *ga.Selector, maxTicks int, recorder *logging.Recorder, collectors *metrics.Collectors, gen int) error {
	selector.SortCurrent()
	pop := selector.Current()
	k := min(benchmarkTopK, len(pop))
	genomes := make([]*dna.Genome, k)
	for i := range genomes {
		genomes[i] = pop[i].Genome.Clone()
	}

	results, err := eval.Benchmark(ctx, newTask, arch, genomes, cfg.Eval.BenchmarkSeeds, maxTicks, cfg.Eval.BenchmarkWorkers)
	if err != nil {
		return err
	}
	recorder.LogBenchmark(gen, results)

	means := make([]float64, len(results))
	for i, r := range results {
		means[i] = r.Stats.FitnessMean
	}
	collectors.Benchmark.Set(stat.Mean(means, nil))
	return nil
}
