// Package components defines ECS components for the simulation.
package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/physics"
	"github.com/pthm-cable/whiskers/rangebox"
	"github.com/pthm-cable/whiskers/steering"
	"github.com/pthm-cable/whiskers/whiskers"
)

// Agent bundles identity and movement limits.
type Agent struct {
	ID        uint32
	Archetype uint8 // index into config archetypes
	Behavior  Behavior
	Caps      steering.Capabilities
	Collider  physics.ColliderID // dynamic collider that represents this agent in the world
	Captures  int                // chasers: evaders caught; evaders: times caught
}

// Steering holds per-agent controller state carried between ticks.
type Steering struct {
	Arrival steering.ArrivalState
	Goal    float64 // orientation Align is turning toward, degrees
	Linear  r2.Vec  // last linear request
	Angular float64 // last angular request, degrees per second
	Avoid   int     // whisker avoidance side applied this tick: +1 left, -1 right
}

// Target is the entity a chaser pursues. The zero entity means none.
type Target struct {
	Entity ecs.Entity
}

// Threat is the entity an evader is running from. The zero entity means none.
type Threat struct {
	Entity   ecs.Entity
	Distance float64
}

// Sensors holds an agent's whisker fan and forward range box.
type Sensors struct {
	Whiskers *whiskers.Array
	Box      *rangebox.Box
	InBox    []physics.ColliderID // colliders overlapping the range box on the last tick
	Events   *SensorEvents        // shared with the whisker listeners, so it survives storage moves
}

// SensorEvents counts whisker notifications since the last telemetry sample.
type SensorEvents struct {
	Detected   int // slots that went from clear to hit
	Undetected int // times the fan stopped detecting anything
	Began      int // times the fan went from clear to detecting

	active bool
}

// OnDetected is registered as the whisker fan's detected listener.
func (e *SensorEvents) OnDetected(physics.Hit) {
	e.Detected++
	if !e.active {
		e.active = true
		e.Began++
	}
}

// OnUndetected is registered as the whisker fan's undetected listener.
func (e *SensorEvents) OnUndetected() {
	e.Undetected++
	e.active = false
}

// Active reports whether the fan is detecting something.
func (e *SensorEvents) Active() bool { return e.active }

// Reset zeroes the counters. Whether the fan is detecting is kept.
func (e *SensorEvents) Reset() {
	e.Detected, e.Undetected, e.Began = 0, 0, 0
}
