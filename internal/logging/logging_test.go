package logging

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evodrone/internal/env"
	"evodrone/internal/eval"
	"evodrone/internal/ga"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", "json", &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, float64(1), rec["k"])

	_, err = New("loud", "text", &buf)
	assert.Error(t, err)
	_, err = New("info", "xml", &buf)
	assert.Error(t, err)
	_, err = New("", "", &buf)
	assert.NoError(t, err)
}

func sampleResult() eval.Result {
	return eval.Result{
		Generation:  3,
		Ticks:       120,
		BestFitness: 6,
		Stats: []env.EpisodeStats{
			{Fitness: 2, Targets: 0, Death: env.DeathFlipped},
			{Fitness: 4, Targets: 1, Death: env.DeathOutOfBounds},
			{Fitness: 6, Targets: 3, Death: env.DeathNone},
		},
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(sampleResult(), ga.Report{SurvivorAverage: 5, Evolved: 1, Crossed: 2}, 1500*time.Millisecond)
	assert.Equal(t, 3, sum.Generation)
	assert.Equal(t, 6.0, sum.BestFitness)
	assert.InDelta(t, 4, sum.MeanFitness, 1e-12)
	assert.InDelta(t, 1.632993, sum.StdFitness, 1e-6)
	assert.Equal(t, 2.0, sum.MinFitness)
	assert.Equal(t, 3, sum.BestTargets)
	assert.InDelta(t, 4.0/3, sum.MeanTargets, 1e-12)
	assert.Equal(t, map[string]int{"none": 1, "out_of_bounds": 1, "flipped": 1}, sum.DeathCounts)
	assert.Equal(t, 1, sum.Evolved)
	assert.Equal(t, 2, sum.Crossed)
	assert.Equal(t, int64(1500), sum.ElapsedMS)

	empty := Summarize(eval.Result{}, ga.Report{}, 0)
	assert.Zero(t, empty.MeanFitness)
}

func TestRecorderWritesCSVAndJSONL(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "runs", "run.csv")
	jsonPath := filepath.Join(dir, "runs", "run.jsonl")
	var console bytes.Buffer
	logger, err := New("info", "text", &console)
	require.NoError(t, err)

	r, err := NewRecorder(csvPath, jsonPath, logger)
	require.NoError(t, err)
	assert.Error(t, r.LogGeneration(GenerationSummary{}, false))
	require.NoError(t, r.Init())

	sum := Summarize(sampleResult(), ga.Report{}, time.Second)
	require.NoError(t, r.LogGeneration(sum, true))
	sum.Generation = 4
	require.NoError(t, r.LogGeneration(sum, false))
	require.NoError(t, r.Close())

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "3", rows[1][0])
	assert.Equal(t, "6.0000", rows[1][1])
	assert.Equal(t, "4", rows[2][0])

	jf, err := os.Open(jsonPath)
	require.NoError(t, err)
	defer jf.Close()
	var lines []GenerationSummary
	scanner := bufio.NewScanner(jf)
	for scanner.Scan() {
		var s GenerationSummary
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &s))
		lines = append(lines, s)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, 4, lines[1].Generation)

	assert.Contains(t, console.String(), "msg=generation")
	assert.Contains(t, console.String(), "gen=3")
	assert.NotContains(t, console.String(), "gen=4")
}

func TestRecorderWithoutFiles(t *testing.T) {
	r, err := NewRecorder("", "", nil)
	require.NoError(t, err)
	require.NoError(t, r.Init())
	assert.NoError(t, r.LogGeneration(GenerationSummary{Generation: 1}, false))
	assert.NoError(t, r.Close())
}

func TestLogBenchmark(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "text", &buf)
	require.NoError(t, err)
	r, err := NewRecorder("", "", logger)
	require.NoError(t, err)

	r.LogBenchmark(5, nil)
	assert.Empty(t, buf.String())

	r.LogBenchmark(5, []eval.BenchmarkResult{
		{Stats: env.AggregatedStats{FitnessMean: 1}},
		{Index: 1, Stats: env.AggregatedStats{FitnessMean: 3}},
	})
	assert.Contains(t, buf.String(), "fitness_mean=2")
	assert.Contains(t, buf.String(), "fitness_best=3")
}
