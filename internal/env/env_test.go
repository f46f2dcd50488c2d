package env

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evodrone/internal/rng"
)

var hover = []float32{0.5, 0.5, 0.5, 0.5}

func TestByName(t *testing.T) {
	seek, err := ByName("seek", Options{})
	require.NoError(t, err)
	assert.Equal(t, 7, seek.Inputs())
	assert.Equal(t, 4, seek.Outputs())

	xor, err := ByName("xor", Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, xor.Inputs())
	assert.Equal(t, 1, xor.Outputs())

	_, err = ByName("pong", Options{})
	assert.Error(t, err)
}

func TestDroneHoverBalancesGravity(t *testing.T) {
	d := Drone{Position: Vec2{100, 100}}
	d.Command(hover)
	for i := 0; i < 1000; i++ {
		d.Update(0.007)
	}
	assert.InDelta(t, 100, d.Position.Y, 1e-6)
	assert.InDelta(t, 100, d.Position.X, 1e-6)
	assert.InDelta(t, 0, d.Angle, 1e-12)
}

func TestDroneCommandMapping(t *testing.T) {
	var d Drone
	d.Command([]float32{1, 0, 0.25, 1})
	assert.Equal(t, 100.0, d.Left.Power)
	assert.InDelta(t, -math.Pi, d.Left.Angle, 1e-9)
	assert.Equal(t, 25.0, d.Right.Power)
	assert.InDelta(t, math.Pi, d.Right.Angle, 1e-9)
}

func TestDroneTorque(t *testing.T) {
	d := Drone{Left: Thruster{Power: 50}}
	assert.Equal(t, 5.0, d.Torque())
	d.Right.Power = 50
	assert.Equal(t, 0.0, d.Torque())
}

func TestSeekResetKeepsTargetsInsideBorder(t *testing.T) {
	s := NewSeek(Options{Targets: 50})
	s.Reset(rng.New(3))
	for _, tg := range s.Targets() {
		assert.GreaterOrEqual(t, tg.X, seekBorder)
		assert.LessOrEqual(t, tg.X, seekWidth-seekBorder)
		assert.GreaterOrEqual(t, tg.Y, seekBorder)
		assert.LessOrEqual(t, tg.Y, seekHeight-seekBorder)
	}
}

func TestSeekReachesTargetWhileHovering(t *testing.T) {
	s := NewSeek(Options{DT: 0.007, Targets: 2})
	center := Vec2{seekWidth / 2, seekHeight / 2}
	s.targets[0], s.targets[1] = center, center

	ep := s.NewEpisode()
	for i := 0; i < 200; i++ {
		require.Len(t, ep.Observe(), 7)
		_, alive := ep.Step(hover)
		require.True(t, alive)
	}
	stats := ep.Stats()
	assert.Equal(t, 1, stats.Targets)
	assert.Equal(t, 200, stats.Ticks)
	assert.Equal(t, DeathNone, stats.Death)
}

func TestSeekObserveNormalizesDirection(t *testing.T) {
	s := NewSeek(Options{})
	s.targets[0] = Vec2{seekWidth/2 + 350, seekHeight / 2}
	in := s.NewEpisode().Observe()
	assert.InDelta(t, 0.5, in[0], 1e-6)
	assert.InDelta(t, 0, in[1], 1e-6)
	assert.InDelta(t, 1, in[4], 1e-6)
}

func TestSeekFreeFallLeavesArena(t *testing.T) {
	s := NewSeek(Options{})
	s.Reset(rng.New(1))
	ep := s.NewEpisode()
	zero := []float32{0, 0.5, 0, 0.5}
	alive := true
	ticks := 0
	for alive && ticks < 5000 {
		ep.Observe()
		_, alive = ep.Step(zero)
		ticks++
	}
	require.False(t, alive)
	assert.Equal(t, DeathOutOfBounds, ep.Stats().Death)
	assert.GreaterOrEqual(t, ep.Finish(), 0.0)
}

func TestSeekSpinningFlips(t *testing.T) {
	s := NewSeek(Options{})
	s.Reset(rng.New(1))
	ep := s.NewEpisode()
	spin := []float32{1, 0.5, 0, 0.5}
	alive := true
	for i := 0; alive && i < 5000; i++ {
		_, alive = ep.Step(spin)
	}
	require.False(t, alive)
	assert.Equal(t, DeathFlipped, ep.Stats().Death)
}

func TestXORPerfectAnswers(t *testing.T) {
	ep := NewXOR().NewEpisode()
	total := 0.0
	for i := 0; i < 4; i++ {
		in := ep.Observe()
		want := float32(0)
		if in[0] != in[1] {
			want = 1
		}
		r, alive := ep.Step([]float32{want})
		total += r
		assert.Equal(t, i < 3, alive)
	}
	assert.Equal(t, 4.0, total)
	assert.Equal(t, 4, ep.Stats().Targets)
	assert.Zero(t, ep.Finish())
}

func TestAggregate(t *testing.T) {
	agg := Aggregate([]EpisodeStats{
		{Fitness: 2, Ticks: 10, Targets: 1, Death: DeathNone},
		{Fitness: 4, Ticks: 20, Targets: 3, Death: DeathFlipped},
	})
	assert.Equal(t, 2, agg.NumEpisodes)
	assert.InDelta(t, 3, agg.FitnessMean, 1e-12)
	assert.InDelta(t, 1, agg.FitnessStd, 1e-12)
	assert.InDelta(t, 15, agg.TicksMean, 1e-12)
	assert.InDelta(t, 2, agg.TargetsMean, 1e-12)
	assert.Equal(t, 1, agg.DeathCounts[DeathFlipped])
	assert.InDelta(t, 2.5, agg.RobustnessScore(0.5), 1e-12)

	empty := Aggregate(nil)
	assert.Zero(t, empty.NumEpisodes)
	assert.NotNil(t, empty.DeathCounts)
}

func TestReplaySaveLoad(t *testing.T) {
	s := NewSeek(Options{})
	s.Reset(rng.New(2))
	ep := s.NewEpisode()
	r := NewReplay("seek", 2)
	in := ep.Observe()
	reward, _ := ep.Step(hover)
	r.Record(ep, in, hover, reward)
	r.SetFinalStats(ep.Stats())

	path := filepath.Join(t.TempDir(), "replay", "r.json")
	require.NoError(t, r.Save(path))
	loaded, err := LoadReplay(path)
	require.NoError(t, err)
	require.Len(t, loaded.Frames, 1)
	assert.Equal(t, "seek", loaded.Task)
	assert.Equal(t, 1, loaded.FinalStats.Ticks)
	assert.InDelta(t, seekWidth/2, loaded.Frames[0].X, 1e-9)
}
