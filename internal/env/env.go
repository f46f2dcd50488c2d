// Package env holds the fitness tasks the trainer evaluates networks against. A task is
// the simulation side of the evaluation boundary: it produces sensor inputs, interprets
// network outputs as actuator commands and scores every tick.
package env

import (
	"fmt"

	"evodrone/internal/rng"
)

// Task creates one Episode per individual and generation.
type Task interface {
	Name() string
	Inputs() int
	Outputs() int
	// Reset prepares shared per-generation state. It runs on a single goroutine.
	Reset(src *rng.Source)
	// NewEpisode starts a fresh episode. Safe for concurrent use once Reset returned.
	NewEpisode() Episode
}

// Episode is one individual's run through a task. An episode is owned by a single
// goroutine.
type Episode interface {
	// Observe returns the sensor inputs for the coming tick.
	Observe() []float32
	// Step applies the network outputs and returns the tick reward and whether the
	// individual is still alive.
	Step(outputs []float32) (reward float64, alive bool)
	// Finish returns the end-of-episode bonus.
	Finish() float64
	Stats() EpisodeStats
}

// Options parameterize the built-in tasks.
type Options struct {
	DT      float64
	Targets int
}

// ByName builds a built-in task.
func ByName(name string, opts Options) (Task, error) {
	switch name {
	case "seek":
		return NewSeek(opts), nil
	case "xor":
		return NewXOR(), nil
	default:
		return nil, fmt.Errorf("env: unknown task %q", name)
	}
}
