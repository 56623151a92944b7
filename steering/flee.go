package steering

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/physics"
)

// FleeConfig tunes Flee.
type FleeConfig struct {
	// PanicDistance bounds the repulsion; farther threats are ignored and the agent
	// brakes to a stop. Zero means always flee.
	PanicDistance float64
}

// Flee steers directly away from a point, limited by the request's acceleration and
// deceleration.
type Flee struct {
	cfg FleeConfig
}

// NewFlee creates a Flee controller.
func NewFlee(cfg FleeConfig) *Flee {
	return &Flee{cfg: cfg}
}

// Step returns the linear velocity moving away from threat. Angular output is zero.
func (f *Flee) Step(threat r2.Vec, req Request) Result {
	away := r2.Sub(req.Position, threat)
	dist := r2.Norm(away)

	var desired r2.Vec
	switch {
	case f.cfg.PanicDistance > 0 && dist > f.cfg.PanicDistance:
		// out of range: brake
	case dist == 0:
		desired = r2.Scale(req.MaxSpeed, physics.Forward(req.Orientation))
	default:
		desired = r2.Scale(req.MaxSpeed/dist, away)
	}

	return Result{Linear: Approach(req, desired)}
}

// Approach moves the current velocity toward desired, accelerating at most
// MaxAcceleration*dt and braking at most MaxDeceleration*dt. Non-positive limits
// or dt apply the desired velocity directly.
func Approach(req Request, desired r2.Vec) r2.Vec {
	dt := req.DeltaTime
	current := req.Velocity
	curSpeed := r2.Norm(current)
	wantSpeed := r2.Norm(desired)

	slowing := wantSpeed < curSpeed
	limit := req.MaxAcceleration
	if slowing {
		limit = req.MaxDeceleration
	}

	next := desired
	if limit > 0 && dt > 0 {
		change := r2.Sub(desired, current)
		maxChange := limit * dt
		if n := r2.Norm(change); n > maxChange {
			next = r2.Add(current, r2.Scale(maxChange/n, change))
		}
	}

	if slowing && r2.Norm(next) < req.StopSpeed {
		return r2.Vec{}
	}
	if s := r2.Norm(next); req.MaxSpeed > 0 && s > req.MaxSpeed {
		next = r2.Scale(req.MaxSpeed/s, next)
	}
	if math.IsNaN(next.X) || math.IsNaN(next.Y) {
		return r2.Vec{}
	}
	return next
}
