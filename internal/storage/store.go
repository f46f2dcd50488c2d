// Package storage persists genomes: flat archive files of fixed-length records, and a
// champion Store keyed by run.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"evodrone/internal/dna"
)

// Champion is the best genome of one generation of a run.
type Champion struct {
	ID           string
	RunID        string
	Task         string
	Generation   int
	Fitness      float64
	Architecture []int
	Genome       []byte
	CreatedAt    time.Time
}

// NewChampion creates a champion record with a fresh id. The genome bytes are copied.
func NewChampion(runID, task string, generation int, fitness float64, arch []int, g *dna.Genome) Champion {
	return Champion{
		ID:           uuid.NewString(),
		RunID:        runID,
		Task:         task,
		Generation:   generation,
		Fitness:      fitness,
		Architecture: append([]int(nil), arch...),
		Genome:       append([]byte(nil), g.Bytes()...),
		CreatedAt:    time.Now().UTC(),
	}
}

// DNA returns the champion genome.
func (c Champion) DNA() *dna.Genome {
	return dna.FromBytes(c.Genome)
}

// Store persists champions.
type Store interface {
	Init(ctx context.Context) error
	SaveChampion(ctx context.Context, champion Champion) error
	GetChampion(ctx context.Context, id string) (Champion, bool, error)
	// ListChampions returns a run's champions ordered by generation.
	ListChampions(ctx context.Context, runID string) ([]Champion, error)
}

// Latest returns the champion of the highest generation of runID.
func Latest(ctx context.Context, store Store, runID string) (Champion, bool, error) {
	champions, err := store.ListChampions(ctx, runID)
	if err != nil || len(champions) == 0 {
		return Champion{}, false, err
	}
	return champions[len(champions)-1], true, nil
}
