package env

import (
	"math"

	"evodrone/internal/rng"
)

const (
	seekWidth      = 3840.0
	seekHeight     = 2160.0
	seekBorder     = 200.0
	seekMargin     = 50.0
	targetRadius   = 8.0
	targetHoldTime = 1.0
	maxSensorDist  = 700.0
)

// Seek flies a drone through a loop of targets. A target counts once the drone has
// stayed on it for targetHoldTime seconds; reaching it fast and upright pays more.
type Seek struct {
	dt      float64
	targets []Vec2
}

// NewSeek creates the task. Zero options fall back to dt 0.007 and 10 targets.
func NewSeek(opts Options) *Seek {
	if opts.DT <= 0 {
		opts.DT = 0.007
	}
	if opts.Targets <= 0 {
		opts.Targets = 10
	}
	return &Seek{dt: opts.DT, targets: make([]Vec2, opts.Targets)}
}

func (s *Seek) Name() string { return "seek" }
func (s *Seek) Inputs() int  { return 7 }
func (s *Seek) Outputs() int { return 4 }

// Targets returns the current target loop.
func (s *Seek) Targets() []Vec2 { return s.targets }

// Reset scatters a new target loop inside the arena.
func (s *Seek) Reset(src *rng.Source) {
	for i := range s.targets {
		s.targets[i] = Vec2{
			X: seekBorder + float64(src.Under(float32(seekWidth-2*seekBorder))),
			Y: seekBorder + float64(src.Under(float32(seekHeight-2*seekBorder))),
		}
	}
}

func (s *Seek) NewEpisode() Episode {
	ep := &seekEpisode{
		task:   s,
		inputs: make([]float32, 7),
	}
	ep.drone.Position = Vec2{seekWidth / 2, seekHeight / 2}
	ep.points = ep.drone.Position.Sub(s.targets[0]).Length()
	return ep
}

type seekEpisode struct {
	task   *Seek
	drone  Drone
	inputs []float32

	target  int
	timeIn  float64
	timeOut float64
	points  float64

	stats EpisodeStats
}

// Drone exposes the simulated body for tracing.
func (e *seekEpisode) Drone() *Drone { return &e.drone }

func (e *seekEpisode) Observe() []float32 {
	dt := e.task.dt
	toTarget := e.task.targets[e.target].Sub(e.drone.Position)
	norm := math.Max(toTarget.Length(), maxSensorDist)
	e.inputs[0] = float32(toTarget.X / norm)
	e.inputs[1] = float32(toTarget.Y / norm)
	e.inputs[2] = float32(e.drone.Velocity.X * dt)
	e.inputs[3] = float32(e.drone.Velocity.Y * dt)
	e.inputs[4] = float32(math.Cos(e.drone.Angle))
	e.inputs[5] = float32(math.Sin(e.drone.Angle))
	e.inputs[6] = float32(e.drone.AngularVelocity * dt)
	return e.inputs
}

func (e *seekEpisode) Step(outputs []float32) (float64, bool) {
	dt := e.task.dt
	dist := e.task.targets[e.target].Sub(e.drone.Position).Length()

	e.drone.Command(outputs)
	e.drone.Update(dt)
	e.stats.Ticks++

	alive := e.inBounds() && math.Abs(e.drone.Angle) < math.Pi
	if !alive {
		if math.Abs(e.drone.Angle) >= math.Pi {
			e.stats.Death = DeathFlipped
		} else {
			e.stats.Death = DeathOutOfBounds
		}
	}

	reward := 1 / (1 + dist)
	if dist < targetRadius+droneRadius {
		e.timeIn += dt
		if e.timeIn > targetHoldTime {
			upright := math.Pow(math.Cos(e.drone.Angle), 2)
			reward += upright * e.points / (1 + e.timeOut)
			e.nextTarget()
			e.stats.Targets++
		}
	} else {
		e.timeIn = 0
		e.timeOut += dt
	}
	e.stats.Fitness += reward
	return reward, alive
}

func (e *seekEpisode) nextTarget() {
	e.target = (e.target + 1) % len(e.task.targets)
	e.timeIn = 0
	e.timeOut = 0
	e.points = e.drone.Position.Sub(e.task.targets[e.target]).Length()
}

func (e *seekEpisode) inBounds() bool {
	p := e.drone.Position
	return p.X >= -seekMargin && p.Y >= -seekMargin &&
		p.X <= seekWidth+seekMargin && p.Y <= seekHeight+seekMargin
}

// Finish pays the remaining approach to the current target, discounted by time spent
// away from it.
func (e *seekEpisode) Finish() float64 {
	dist := e.drone.Position.Sub(e.task.targets[e.target]).Length()
	bonus := math.Max(0, (e.points-dist)/(1+e.timeOut))
	e.stats.Fitness += bonus
	return bonus
}

func (e *seekEpisode) Stats() EpisodeStats { return e.stats }
