package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evodrone/internal/ga"
)

func TestObserveGeneration(t *testing.T) {
	c := New("run-1", "xor")
	c.ObserveGeneration(3.5, 1.25, 4, ga.Report{Evolved: 2, Crossed: 30})
	c.ObserveGeneration(3.75, 1.5, 0, ga.Report{Evolved: 1, Crossed: 31})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Generations))
	assert.Equal(t, 3.75, testutil.ToFloat64(c.BestFitness))
	assert.Equal(t, 1.5, testutil.ToFloat64(c.MeanFitness))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Survivors))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Evolved))
	assert.Equal(t, 61.0, testutil.ToFloat64(c.Crossed))
}

func TestObserveTick(t *testing.T) {
	c := New("run-1", "seek")
	c.ObserveTick(time.Millisecond)
	c.ObserveTick(2 * time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(c.TickDuration))
	n, err := testutil.GatherAndCount(c.Registry())
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestHandler(t *testing.T) {
	c := New("run-42", "xor")
	c.Generations.Inc()

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `evodrone_generations_total{run_id="run-42",task="xor"} 1`)
	assert.Contains(t, string(body), "evodrone_tick_duration_seconds_bucket")
}
