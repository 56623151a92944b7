package steering

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// closingSpeedEpsilon guards the look-ahead division when neither agent can move.
const closingSpeedEpsilon = 1e-9

// EvadeConfig tunes Evade.
type EvadeConfig struct {
	// MaxLookAhead caps the prediction horizon in seconds. Zero means unbounded.
	MaxLookAhead float64
}

// Evade flees from where a moving threat is predicted to be.
type Evade struct {
	cfg  EvadeConfig
	flee *Flee
}

// NewEvade creates an Evade controller delegating to flee.
func NewEvade(cfg EvadeConfig, flee *Flee) *Evade {
	return &Evade{cfg: cfg, flee: flee}
}

// Predict returns the threat's projected position:
// threat + velocity * |toThreat| / (selfMaxSpeed + |velocity|).
// When both speeds are zero the look-ahead is zero.
func (e *Evade) Predict(threat r2.Vec, threatVelocity r2.Vec, req Request) r2.Vec {
	closing := req.MaxSpeed + r2.Norm(threatVelocity)
	if closing <= closingSpeedEpsilon {
		return threat
	}
	lookAhead := r2.Norm(r2.Sub(threat, req.Position)) / closing
	if e.cfg.MaxLookAhead > 0 {
		lookAhead = math.Min(lookAhead, e.cfg.MaxLookAhead)
	}
	return r2.Add(threat, r2.Scale(lookAhead, threatVelocity))
}

// Step flees the predicted threat position. A nil threat yields zero steering.
func (e *Evade) Step(threat *Pose, threatVelocity r2.Vec, req Request) Result {
	if threat == nil {
		return Result{}
	}
	return e.flee.Step(e.Predict(threat.Position, threatVelocity, req), req)
}
