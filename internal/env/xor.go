package env

import (
	"math"

	"evodrone/internal/rng"
)

var xorCases = [4][3]float32{
	{0, 0, 0},
	{0, 1, 1},
	{1, 0, 1},
	{1, 1, 0},
}

// XOR presents the four XOR cases, one per tick, and rewards 1-|out-want|. The maximum
// fitness is 4. Targets counts the cases answered on the right side of 0.5.
type XOR struct{}

// NewXOR creates the task.
func NewXOR() *XOR { return &XOR{} }

func (XOR) Name() string      { return "xor" }
func (XOR) Inputs() int       { return 2 }
func (XOR) Outputs() int      { return 1 }
func (XOR) Reset(*rng.Source) {}

func (XOR) NewEpisode() Episode {
	return &xorEpisode{inputs: make([]float32, 2)}
}

type xorEpisode struct {
	tick   int
	inputs []float32
	stats  EpisodeStats
}

func (e *xorEpisode) Observe() []float32 {
	c := xorCases[e.tick%len(xorCases)]
	e.inputs[0], e.inputs[1] = c[0], c[1]
	return e.inputs
}

func (e *xorEpisode) Step(outputs []float32) (float64, bool) {
	want := xorCases[e.tick%len(xorCases)][2]
	diff := math.Abs(float64(outputs[0] - want))
	if diff < 0.5 {
		e.stats.Targets++
	}
	reward := 1 - diff
	e.tick++
	e.stats.Ticks++
	e.stats.Fitness += reward
	return reward, e.tick < len(xorCases)
}

func (e *xorEpisode) Finish() float64 { return 0 }

func (e *xorEpisode) Stats() EpisodeStats { return e.stats }
