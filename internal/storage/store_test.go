package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evodrone/internal/rng"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	src := rng.New(4)
	arch := []int{2, 3, 1}

	runID := uuid.NewString()
	var saved []Champion
	for _, gen := range []int{20, 0, 10} {
		c := NewChampion(runID, "xor", gen, float64(gen)/10, arch, randomGenome(src, 13))
		require.NoError(t, store.SaveChampion(ctx, c))
		saved = append(saved, c)
	}
	other := NewChampion(uuid.NewString(), "seek", 5, 1, arch, randomGenome(src, 13))
	require.NoError(t, store.SaveChampion(ctx, other))

	got, ok, err := store.GetChampion(ctx, saved[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved[0].RunID, got.RunID)
	assert.Equal(t, "xor", got.Task)
	assert.Equal(t, 20, got.Generation)
	assert.Equal(t, 2.0, got.Fitness)
	assert.Equal(t, arch, got.Architecture)
	assert.Equal(t, saved[0].Genome, got.DNA().Bytes())
	assert.True(t, saved[0].CreatedAt.Equal(got.CreatedAt))

	_, ok, err = store.GetChampion(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := store.ListChampions(ctx, runID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{0, 10, 20}, []int{list[0].Generation, list[1].Generation, list[2].Generation})

	latest, ok, err := Latest(ctx, store, runID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved[0].ID, latest.ID)

	_, ok, err = Latest(ctx, store, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	updated := saved[1]
	updated.Fitness = 9
	require.NoError(t, store.SaveChampion(ctx, updated))
	got, ok, err = store.GetChampion(ctx, updated.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9.0, got.Fitness)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	assert.Error(t, store.SaveChampion(context.Background(), Champion{}))
	require.NoError(t, store.Init(context.Background()))
	exerciseStore(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "champions.db"))
	_, _, err := store.GetChampion(context.Background(), "x")
	assert.Error(t, err)

	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	assert.Error(t, NewSQLiteStore("").Init(context.Background()))
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, CloseIfSupported(store))

	store, err = NewStore("sqlite", filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	assert.NoError(t, CloseIfSupported(store))

	_, err = NewStore("postgres", "")
	assert.Error(t, err)
}
