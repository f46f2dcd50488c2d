package env

import "math"

const (
	droneRadius    = 20.0
	thrusterOffset = 10.0
	maxPower       = 100.0
	maxThrustAngle = 2 * math.Pi
	gravity        = 100.0
)

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2   { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Length() float64        { return math.Hypot(v.X, v.Y) }
func polar(angle, length float64) Vec2 { return Vec2{length * math.Cos(angle), length * math.Sin(angle)} }

// Thruster is one engine mounted on a drone arm.
type Thruster struct {
	Angle float64
	Power float64
}

// Drone is a rigid body with two vectored thrusters under gravity.
type Drone struct {
	Position        Vec2
	Velocity        Vec2
	Angle           float64
	AngularVelocity float64
	Left, Right     Thruster
}

// Command maps four network outputs in (0, 1) to thruster power and angle.
func (d *Drone) Command(outputs []float32) {
	d.Left.Power = maxPower * float64(outputs[0])
	d.Left.Angle = maxThrustAngle * (float64(outputs[1]) - 0.5)
	d.Right.Power = maxPower * float64(outputs[2])
	d.Right.Angle = maxThrustAngle * (float64(outputs[3]) - 0.5)
}

// Thrust returns the combined thrust vector.
func (d *Drone) Thrust() Vec2 {
	left := polar(d.Angle+d.Left.Angle-math.Pi/2, d.Left.Power)
	right := polar(d.Angle+d.Right.Angle-math.Pi/2, d.Right.Power)
	return left.Add(right)
}

// Torque returns the angular acceleration produced by the thrusters.
func (d *Drone) Torque() float64 {
	left := d.Left.Power / thrusterOffset * math.Cos(d.Left.Angle)
	right := -d.Right.Power / thrusterOffset * math.Cos(d.Right.Angle)
	return left + right
}

// Update integrates one explicit Euler step.
func (d *Drone) Update(dt float64) {
	accel := d.Thrust().Add(Vec2{0, gravity})
	d.Velocity = d.Velocity.Add(accel.Scale(dt))
	d.Position = d.Position.Add(d.Velocity.Scale(dt))
	d.AngularVelocity += d.Torque() * dt
	d.Angle += d.AngularVelocity * dt
}
