package ga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evodrone/internal/dna"
	"evodrone/internal/rng"
)

var testArch = []int{2, 3, 1}

func newTestSelector(t *testing.T, size int, seed int64) *Selector {
	t.Helper()
	s, err := NewSelector(DefaultOptions(testArch, size), rng.New(seed))
	require.NoError(t, err)
	return s
}

func TestNewSelectorCounts(t *testing.T) {
	s := newTestSelector(t, 100, 1)
	assert.Equal(t, 5, s.EliteCount())
	assert.Equal(t, 25, s.SurvivorCount())
	assert.Len(t, s.Current(), 100)
	assert.Len(t, s.Next(), 100)
	assert.Zero(t, s.Generation())

	for i, ind := range s.Current() {
		assert.Equal(t, i, ind.Index)
		assert.True(t, ind.Alive)
		assert.Equal(t, 52, ind.Genome.ByteLength())
	}
}

func TestSurvivorCountHasFloor(t *testing.T) {
	s := newTestSelector(t, 2, 1)
	assert.Equal(t, 0, s.EliteCount())
	assert.Equal(t, 1, s.SurvivorCount())
}

func TestNewSelectorConfigErrors(t *testing.T) {
	cases := map[string]Options{
		"population_size": {Architecture: testArch, PopulationSize: 0, EliteRatio: 0.1, SurvivorRatio: 0.5},
		"elite_ratio":     {Architecture: testArch, PopulationSize: 10, EliteRatio: 1.5, SurvivorRatio: 0.5},
		"survivor_ratio":  {Architecture: testArch, PopulationSize: 10, EliteRatio: 0.1, SurvivorRatio: 0},
		"architecture":    {Architecture: nil, PopulationSize: 10, EliteRatio: 0.1, SurvivorRatio: 0.5},
		"wheel_scope":     {Architecture: testArch, PopulationSize: 10, EliteRatio: 0.1, SurvivorRatio: 0.5, WheelScope: "half"},
	}
	for field, opts := range cases {
		_, err := NewSelector(opts, rng.New(1))
		require.ErrorIs(t, err, ErrInvalidConfig, field)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, field, cfgErr.Field)
	}
}

func TestElitism(t *testing.T) {
	s := newTestSelector(t, 40, 3)
	for i, ind := range s.Current() {
		ind.Fitness = float64(i % 7)
	}
	champion := s.Current()[0]
	champion.Fitness = 100
	before := champion.Genome.Clone()

	report := s.NextGeneration()
	assert.Equal(t, 100.0, report.BestFitness)
	assert.True(t, report.Best.Equal(before))

	next := s.Current()[0]
	assert.True(t, next.Genome.Equal(before))
	assert.Equal(t, 100.0, next.Fitness)
	assert.Equal(t, 1, s.Generation())
}

func TestElitesKeepRankOrder(t *testing.T) {
	s := newTestSelector(t, 60, 5)
	for i, ind := range s.Current() {
		ind.Fitness = float64(i + 1)
	}
	want := make([]*dna.Genome, s.EliteCount())
	for i := range want {
		want[i] = s.Current()[59-i].Genome.Clone()
	}

	s.NextGeneration()
	for i, g := range want {
		assert.True(t, s.Current()[i].Genome.Equal(g), "elite %d", i)
	}
}

func TestBuffersSwapWithoutCopy(t *testing.T) {
	s := newTestSelector(t, 10, 9)
	oldCurrent := s.Current()[0]
	oldNext := s.Next()

	s.NextGeneration()
	assert.Same(t, oldNext[0], s.Current()[0])
	assert.Contains(t, s.Next(), oldCurrent)
}

func TestNetworksStayInSync(t *testing.T) {
	s := newTestSelector(t, 30, 13)
	for gen := 0; gen < 3; gen++ {
		for i, ind := range s.Current() {
			ind.Fitness = float64(i)
		}
		s.NextGeneration()
		for _, ind := range s.Current() {
			l := ind.Network.Layers()[0]
			assert.Equal(t, ind.Genome.Get(0), l.Bias[0])
			assert.Equal(t, ind.Genome.Get(3), l.Weight(0, 0))
		}
	}
}

func TestChildrenResetFitness(t *testing.T) {
	s := newTestSelector(t, 20, 2)
	for _, ind := range s.Current() {
		ind.Fitness = 4
	}
	s.NextGeneration()
	for i, ind := range s.Current() {
		if i < s.EliteCount() {
			assert.Equal(t, 4.0, ind.Fitness)
			continue
		}
		assert.Zero(t, ind.Fitness)
		assert.True(t, ind.Alive)
	}
}

func TestIdenticalParentsTakeEvolvePath(t *testing.T) {
	opts := DefaultOptions(testArch, 20)
	opts.SurvivorRatio = 0.05 // one survivor: both parents are always the same
	s, err := NewSelector(opts, rng.New(17))
	require.NoError(t, err)
	for i, ind := range s.Current() {
		ind.Fitness = float64(20 - i)
	}

	report := s.NextGeneration()
	assert.Equal(t, 20-s.EliteCount(), report.Evolved)
	assert.Zero(t, report.Crossed)
}

func TestZeroFitnessGenerationDoesNotPanic(t *testing.T) {
	s := newTestSelector(t, 16, 4)
	report := s.NextGeneration()
	assert.Zero(t, report.BestFitness)
	assert.Equal(t, 16-s.EliteCount(), report.Evolved+report.Crossed)
}

func TestWheelScopeAll(t *testing.T) {
	opts := DefaultOptions(testArch, 20)
	opts.WheelScope = ScopeAll
	s, err := NewSelector(opts, rng.New(6))
	require.NoError(t, err)
	for i, ind := range s.Current() {
		ind.Fitness = float64(i)
	}
	report := s.NextGeneration()
	assert.InDelta(t, 9.5, report.SurvivorAverage, 1e-9)
	assert.InDelta(t, 9.5, report.AverageFitness, 1e-9)
}

func runGenerations(t *testing.T, seed int64) *Selector {
	t.Helper()
	s := newTestSelector(t, 50, seed)
	for gen := 0; gen < 10; gen++ {
		s.ResetEvaluation()
		for i, ind := range s.Current() {
			out := ind.Execute([]float32{float32(i % 5), float32(gen)})
			ind.Fitness = float64(out[0]) + float64(i%3)
		}
		s.NextGeneration()
	}
	return s
}

func TestDeterminism(t *testing.T) {
	a := runGenerations(t, 77)
	b := runGenerations(t, 77)
	require.Equal(t, 10, a.Generation())
	for i := range a.Current() {
		assert.True(t, a.Current()[i].Genome.Equal(b.Current()[i].Genome), "slot %d", i)
	}

	c := runGenerations(t, 78)
	differs := false
	for i := range a.Current() {
		if !a.Current()[i].Genome.Equal(c.Current()[i].Genome) {
			differs = true
			break
		}
	}
	assert.True(t, differs)
}

func TestSeedLoadsGenomes(t *testing.T) {
	s := newTestSelector(t, 4, 1)
	g := dna.NewForGenes(13)
	g.Set(0, 1.25)

	n, err := s.Seed([]*dna.Genome{g, g, g, g, g})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, float32(1.25), s.Current()[3].Network.Layers()[0].Bias[0])
	assert.NotSame(t, s.Current()[0].Genome, s.Current()[1].Genome)

	_, err = s.Seed([]*dna.Genome{dna.NewForGenes(3)})
	assert.Error(t, err)
}

func TestBest(t *testing.T) {
	s := newTestSelector(t, 5, 1)
	s.Current()[3].Fitness = 9
	assert.Same(t, s.Current()[3], s.Best())
}
