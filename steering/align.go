package steering

import (
	"fmt"
	"math"

	"github.com/pthm-cable/whiskers/curve"
)

// Phase is the arrival branch Align took on its last step.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseAccelerate
	PhaseDecelerate
	PhaseStop
	PhaseCruise
)

var phaseNames = [...]string{"idle", "accelerate", "decelerate", "stop", "cruise"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", p)
}

// ArrivalState is Align's memory between ticks.
type ArrivalState struct {
	Idle              bool
	StartOrientation  float64 // captured on idle -> accelerating
	RotationFromStart float64 // signed degrees turned since StartOrientation
	Phase             Phase
}

// NewArrivalState returns the resting state.
func NewArrivalState() ArrivalState {
	return ArrivalState{Idle: true}
}

// AlignConfig holds the arrival thresholds, all in degrees.
type AlignConfig struct {
	ArrivingMargin     float64
	AccelerationRadius float64
	DecelerationRadius float64
}

// Align rotates an agent toward a target orientation with accelerate, cruise,
// decelerate, and stop phases.
type Align struct {
	cfg   AlignConfig
	accel curve.Curve
	decel curve.Curve
}

// NewAlign creates an Align controller. The acceleration curve is sampled with the
// fraction of AccelerationRadius already turned; the deceleration curve with the
// remaining delta over DecelerationRadius.
func NewAlign(cfg AlignConfig, accel, decel curve.Curve) (*Align, error) {
	if cfg.ArrivingMargin < 0 {
		return nil, fmt.Errorf("align: arriving margin %.4f is negative", cfg.ArrivingMargin)
	}
	if cfg.AccelerationRadius <= 0 || cfg.DecelerationRadius <= 0 {
		return nil, fmt.Errorf("align: acceleration radius %.4f and deceleration radius %.4f must be positive",
			cfg.AccelerationRadius, cfg.DecelerationRadius)
	}
	if accel == nil || decel == nil {
		return nil, fmt.Errorf("align: acceleration and deceleration curves are required")
	}
	return &Align{cfg: cfg, accel: accel, decel: decel}, nil
}

// Config returns the thresholds.
func (a *Align) Config() AlignConfig { return a.cfg }

// Step computes the angular velocity that turns req.Orientation toward target.
// With no target the result is zero and the state is returned unchanged.
func (a *Align) Step(state ArrivalState, req Request, target *Pose) (Result, ArrivalState) {
	if target == nil {
		return Result{}, state
	}

	current := req.Orientation
	delta := DeltaAngle(current, target.Orientation)
	dist := math.Abs(delta)
	side := sign(delta)
	margin := a.cfg.ArrivingMargin

	if state.Idle && dist < margin {
		state.Phase = PhaseIdle
		return Result{}, state
	}

	if state.Idle && state.RotationFromStart != 0 {
		state.RotationFromStart = 0
	}

	var speed float64
	switch {
	case dist >= margin && math.Abs(state.RotationFromStart) < a.cfg.AccelerationRadius:
		if state.Idle {
			state.StartOrientation = current
			state.Idle = false
		}
		state.RotationFromStart = DeltaAngle(state.StartOrientation, current)
		progress := math.Abs(state.RotationFromStart) / a.cfg.AccelerationRadius
		speed = req.MaxRotationalSpeed * a.accel.Evaluate(progress) * side
		state.Phase = PhaseAccelerate

	case dist >= margin && dist < a.cfg.DecelerationRadius:
		speed = req.MaxRotationalSpeed * a.decel.Evaluate(dist/a.cfg.DecelerationRadius) * side
		state.Phase = PhaseDecelerate

	case dist < margin:
		state.Idle = true
		state.Phase = PhaseStop

	default:
		speed = req.MaxRotationalSpeed * side
		state.Phase = PhaseCruise
	}

	return Result{Angular: speed}, state
}
