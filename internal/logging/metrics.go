package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"evodrone/internal/env"
	"evodrone/internal/eval"
	"evodrone/internal/ga"
)

// Recorder handles all training output
type Recorder struct {
	csvPath     string
	jsonPath    string
	csvFile     *os.File
	csvWriter   *csv.Writer
	jsonFile    *os.File
	log         *slog.Logger
	initialized bool
}

// NewRecorder creates a recorder. Empty paths disable the matching file.
func NewRecorder(csvPath, jsonPath string, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		csvPath:  csvPath,
		jsonPath: jsonPath,
		log:      logger,
	}

	// Ensure directories exist
	for _, p := range []string{csvPath, jsonPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, err
		}
	}
	return r, nil
}

var csvHeader = []string{
	"generation", "best_fitness", "mean_fitness", "std_fitness", "min_fitness",
	"survivor_average", "ticks", "best_targets", "mean_targets",
	"deaths_none", "deaths_out_of_bounds", "deaths_flipped",
	"evolved", "crossed", "elapsed_ms",
}

// Init creates the log files and writes the CSV header
func (r *Recorder) Init() error {
	var err error

	if r.csvPath != "" {
		r.csvFile, err = os.Create(r.csvPath)
		if err != nil {
			return err
		}
		r.csvWriter = csv.NewWriter(r.csvFile)
		if err := r.csvWriter.Write(csvHeader); err != nil {
			return err
		}
		r.csvWriter.Flush()
	}

	if r.jsonPath != "" {
		r.jsonFile, err = os.OpenFile(r.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
	}

	r.initialized = true
	return nil
}

// Close flushes and closes all log files
func (r *Recorder) Close() error {
	var first error
	if r.csvWriter != nil {
		r.csvWriter.Flush()
		first = r.csvWriter.Error()
	}
	for _, f := range []*os.File{r.csvFile, r.jsonFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// GenerationSummary holds per-generation statistics
type GenerationSummary struct {
	Generation      int            `json:"generation"`
	BestFitness     float64        `json:"best_fitness"`
	MeanFitness     float64        `json:"mean_fitness"`
	StdFitness      float64        `json:"std_fitness"`
	MinFitness      float64        `json:"min_fitness"`
	SurvivorAverage float64        `json:"survivor_average"`
	Ticks           int            `json:"ticks"`
	BestTargets     int            `json:"best_targets"`
	MeanTargets     float64        `json:"mean_targets"`
	DeathCounts     map[string]int `json:"death_counts"`
	Evolved         int            `json:"evolved"`
	Crossed         int            `json:"crossed"`
	ElapsedMS       int64          `json:"elapsed_ms"`
}

// Summarize combines an evaluation result with the report of the reproduction that
// followed it.
func Summarize(res eval.Result, rep ga.Report, elapsed time.Duration) GenerationSummary {
	sum := GenerationSummary{
		Generation:      res.Generation,
		BestFitness:     res.BestFitness,
		SurvivorAverage: rep.SurvivorAverage,
		Ticks:           res.Ticks,
		DeathCounts:     make(map[string]int),
		Evolved:         rep.Evolved,
		Crossed:         rep.Crossed,
		ElapsedMS:       elapsed.Milliseconds(),
	}
	if len(res.Stats) == 0 {
		return sum
	}

	fitness := make([]float64, len(res.Stats))
	targets := make([]float64, len(res.Stats))
	for i, s := range res.Stats {
		fitness[i] = s.Fitness
		targets[i] = float64(s.Targets)
		sum.DeathCounts[s.Death.String()]++
	}
	sum.MeanFitness, sum.StdFitness = stat.PopMeanStdDev(fitness, nil)
	sum.MinFitness = floats.Min(fitness)
	sum.BestTargets = int(floats.Max(targets))
	sum.MeanTargets = stat.Mean(targets, nil)
	return sum
}

// LogGeneration writes a generation summary to every enabled sink
func (r *Recorder) LogGeneration(sum GenerationSummary, console bool) error {
	if !r.initialized {
		return fmt.Errorf("logging: recorder not initialized")
	}

	if r.csvWriter != nil {
		row := []string{
			strconv.Itoa(sum.Generation),
			fmt.Sprintf("%.4f", sum.BestFitness),
			fmt.Sprintf("%.4f", sum.MeanFitness),
			fmt.Sprintf("%.4f", sum.StdFitness),
			fmt.Sprintf("%.4f", sum.MinFitness),
			fmt.Sprintf("%.4f", sum.SurvivorAverage),
			strconv.Itoa(sum.Ticks),
			strconv.Itoa(sum.BestTargets),
			fmt.Sprintf("%.2f", sum.MeanTargets),
			strconv.Itoa(sum.DeathCounts[env.DeathNone.String()]),
			strconv.Itoa(sum.DeathCounts[env.DeathOutOfBounds.String()]),
			strconv.Itoa(sum.DeathCounts[env.DeathFlipped.String()]),
			strconv.Itoa(sum.Evolved),
			strconv.Itoa(sum.Crossed),
			strconv.FormatInt(sum.ElapsedMS, 10),
		}
		if err := r.csvWriter.Write(row); err != nil {
			return err
		}
		r.csvWriter.Flush()
		if err := r.csvWriter.Error(); err != nil {
			return err
		}
	}

	if r.jsonFile != nil {
		line, err := json.Marshal(sum)
		if err != nil {
			return err
		}
		if _, err := r.jsonFile.Write(append(line, '\n')); err != nil {
			return err
		}
	}

	if console {
		r.log.Info("generation",
			"gen", sum.Generation,
			"best", sum.BestFitness,
			"mean", sum.MeanFitness,
			"std", sum.StdFitness,
			"ticks", sum.Ticks,
			"targets", sum.BestTargets,
			"evolved", sum.Evolved,
			"crossed", sum.Crossed,
			"elapsed_ms", sum.ElapsedMS)
	}
	return nil
}

// LogBenchmark logs benchmark results
func (r *Recorder) LogBenchmark(gen int, results []eval.BenchmarkResult) {
	if len(results) == 0 {
		return
	}

	means := make([]float64, len(results))
	for i, res := range results {
		means[i] = res.Stats.FitnessMean
		r.log.Debug("benchmark champion",
			"gen", gen,
			"index", res.Index,
			"fitness_mean", res.Stats.FitnessMean,
			"fitness_std", res.Stats.FitnessStd,
			"targets_mean", res.Stats.TargetsMean)
	}
	r.log.Info("benchmark",
		"gen", gen,
		"champions", len(results),
		"fitness_mean", stat.Mean(means, nil),
		"fitness_best", floats.Max(means))
}
