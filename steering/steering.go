// Package steering computes per-tick desired velocities for 2D agents.
//
// Controllers are pure: they take the agent's current state as a Request and return a
// Result. Align additionally threads an ArrivalState through successive calls.
// Angles are degrees, using the physics package convention (0 faces +Y, positive turns left).
package steering

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/physics"
)

// Request is the agent state supplied by the driver each tick.
type Request struct {
	Position           r2.Vec
	Orientation        float64 // degrees
	Velocity           r2.Vec
	MaxSpeed           float64
	MaxRotationalSpeed float64 // degrees per second
	MaxAcceleration    float64
	MaxDeceleration    float64
	StopSpeed          float64
	DeltaTime          float64 // seconds
}

// Capabilities are the per-agent limits copied into every Request.
type Capabilities struct {
	MaxSpeed           float64
	MaxRotationalSpeed float64
	MaxAcceleration    float64
	MaxDeceleration    float64
	StopSpeed          float64
}

// RequestFromBody builds a Request from a rigid-body handle.
func RequestFromBody(body physics.RigidBody, caps Capabilities, dt float64) Request {
	return Request{
		Position:           body.Position(),
		Orientation:        body.Rotation(),
		Velocity:           body.Velocity(),
		MaxSpeed:           caps.MaxSpeed,
		MaxRotationalSpeed: caps.MaxRotationalSpeed,
		MaxAcceleration:    caps.MaxAcceleration,
		MaxDeceleration:    caps.MaxDeceleration,
		StopSpeed:          caps.StopSpeed,
		DeltaTime:          dt,
	}
}

// Result is the desired motion for this tick.
type Result struct {
	Linear  r2.Vec  // desired linear velocity
	Angular float64 // desired angular velocity, degrees per second
}

// Apply writes the result to a rigid body.
func (r Result) Apply(body physics.RigidBody) {
	body.SetVelocity(r.Linear)
	body.SetAngularVelocity(r.Angular)
}

// Pose is a target's position and orientation. A nil *Pose means no target is bound.
type Pose struct {
	Position    r2.Vec
	Orientation float64
}

// DeltaAngle returns the shortest signed rotation from -> to, in (-180, 180].
func DeltaAngle(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// Face returns the pose looking from self toward target.
func Face(self, target r2.Vec) *Pose {
	return &Pose{Position: target, Orientation: physics.Bearing(self, target)}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
