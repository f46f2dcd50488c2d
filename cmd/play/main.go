package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"evodrone/internal/config"
	"evodrone/internal/dna"
	"evodrone/internal/env"
	"evodrone/internal/eval"
	"evodrone/internal/logging"
	"evodrone/internal/nn"
	"evodrone/internal/rng"
	"evodrone/internal/storage"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "configs/seek.yaml", "path to config file")
	archivePath := flag.String("archive", "", "genome archive to load the champion from")
	record := flag.Int("record", 0, "archive record index")
	fromEnd := flag.Bool("from-end", true, "count the record index from the end of the archive")
	championID := flag.String("champion", "", "champion id in the configured store")
	runID := flag.String("run", "", "load the latest champion of this run from the configured store")
	seed := flag.Int64("seed", 12345, "task seed of the first episode")
	episodes := flag.Int("episodes", 1, "number of episodes, seeds increase by one")
	replayPath := flag.String("replay", "", "write a per-tick JSON trace of the first episode")
	printNetwork := flag.Bool("print-network", false, "dump biases and weights")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	task, err := env.ByName(cfg.Task.Name, env.Options{DT: cfg.Task.DT, Targets: cfg.Task.Targets})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating task: %v\n", err)
		os.Exit(1)
	}
	arch, err := cfg.Architecture(task.Inputs(), task.Outputs())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building architecture: %v\n", err)
		os.Exit(1)
	}

	// Load champion
	var genome *dna.Genome
	switch {
	case *archivePath != "":
		genome = storage.LoadRecord(*archivePath, storage.RecordLength(arch), *record, *fromEnd, logger)
	case *championID != "" || *runID != "":
		genome, err = loadFromStore(cfg, *championID, *runID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading champion: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "Error: one of -archive, -champion or -run is required")
		os.Exit(1)
	}

	network, err := nn.FromGenome(arch, genome)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding champion: %v\n", err)
		os.Exit(1)
	}
	if *printNetwork {
		fmt.Print(network)
	}

	maxTicks := eval.Options{MaxTime: cfg.Task.MaxTime, DT: cfg.Task.DT}.MaxTicks()
	fmt.Printf("Task: %s, Architecture: %v, Episodes: %d\n", task.Name(), arch, *episodes)

	results := make([]env.EpisodeStats, 0, *episodes)
	for i := 0; i < *episodes; i++ {
		episodeSeed := *seed + int64(i)
		var replay *env.Replay
		if i == 0 && *replayPath != "" {
			replay = env.NewReplay(task.Name(), episodeSeed)
		}

		task.Reset(rng.New(episodeSeed))
		stats := eval.RunEpisode(task, network, maxTicks, replay)
		stats.Seed = episodeSeed
		results = append(results, stats)
		fmt.Printf("  seed %d: fitness=%.3f ticks=%d targets=%d death=%s\n",
			episodeSeed, stats.Fitness, stats.Ticks, stats.Targets, stats.Death)

		if replay != nil {
			if err := replay.Save(*replayPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save replay: %v\n", err)
			}
		}
	}

	// Print final stats
	agg := env.Aggregate(results)
	fmt.Println("-----------------------------------")
	fmt.Printf("  Fitness: %.3f ± %.3f (robust %.3f)\n", agg.FitnessMean, agg.FitnessStd, agg.RobustnessScore(1))
	fmt.Printf("  Ticks: %.1f, Targets: %.2f\n", agg.TicksMean, agg.TargetsMean)
	for reason, count := range agg.DeathCounts {
		fmt.Printf("  %s: %d\n", reason, count)
	}
}

func loadFromStore(cfg *config.Config, championID, runID string) (*dna.Genome, error) {
	ctx := context.Background()
	store, err := storage.NewStore(cfg.Storage.Kind, cfg.Storage.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	defer storage.CloseIfSupported(store)

	var (
		champion storage.Champion
		ok       bool
	)
	if championID != "" {
		champion, ok, err = store.GetChampion(ctx, championID)
	} else {
		champion, ok, err = storage.Latest(ctx, store, runID)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no champion found in %s store", cfg.Storage.Kind)
	}
	fmt.Printf("Loaded champion %s from gen %d (fitness=%.3f)\n", champion.ID, champion.Generation, champion.Fitness)
	return champion.DNA(), nil
}
