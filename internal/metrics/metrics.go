// Package metrics exposes training progress as prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"evodrone/internal/ga"
)

const namespace = "evodrone"

// Collectors groups the training metrics of one run.
type Collectors struct {
	registry *prometheus.Registry

	Generations  prometheus.Counter
	BestFitness  prometheus.Gauge
	MeanFitness  prometheus.Gauge
	Evolved      prometheus.Counter
	Crossed      prometheus.Counter
	Survivors    prometheus.Gauge
	TickDuration prometheus.Histogram
	Benchmark    prometheus.Gauge
}

// New registers the collectors labelled with runID and task.
func New(runID, task string) *Collectors {
	labels := prometheus.Labels{"run_id": runID, "task": task}
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		Generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "generations_total",
			Help: "Completed generations.", ConstLabels: labels,
		}),
		BestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "best_fitness",
			Help: "Best fitness of the last evaluated generation.", ConstLabels: labels,
		}),
		MeanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "mean_fitness",
			Help: "Mean fitness of the last evaluated generation.", ConstLabels: labels,
		}),
		Evolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "children_evolved_total",
			Help: "Children cloned from identical parents.", ConstLabels: labels,
		}),
		Crossed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "children_crossed_total",
			Help: "Children bred by crossover.", ConstLabels: labels,
		}),
		Survivors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "survivors",
			Help: "Individuals alive when the last evaluation ended.", ConstLabels: labels,
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "tick_duration_seconds",
			Help:        "Wall time of one population tick.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		Benchmark: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "benchmark_fitness",
			Help: "Mean benchmark fitness of the last champion set.", ConstLabels: labels,
		}),
	}
	c.registry.MustRegister(
		c.Generations, c.BestFitness, c.MeanFitness, c.Evolved, c.Crossed,
		c.Survivors, c.TickDuration, c.Benchmark,
	)
	return c
}

// ObserveTick records one tick duration.
func (c *Collectors) ObserveTick(d time.Duration) {
	c.TickDuration.Observe(d.Seconds())
}

// ObserveGeneration records an evaluation summary and the reproduction report.
func (c *Collectors) ObserveGeneration(best, mean float64, survivors int, rep ga.Report) {
	c.Generations.Inc()
	c.BestFitness.Set(best)
	c.MeanFitness.Set(mean)
	c.Survivors.Set(float64(survivors))
	c.Evolved.Add(float64(rep.Evolved))
	c.Crossed.Add(float64(rep.Crossed))
}

// Registry returns the private registry.
func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
