package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/components"
	"github.com/pthm-cable/whiskers/physics"
)

// Bounds represents the simulation bounds.
type Bounds struct {
	Width, Height float64
}

// PhysicsSystem integrates velocities, keeps agents inside the bounds, and mirrors every
// agent into the collider world as a dynamic circle.
type PhysicsSystem struct {
	filter *ecs.Filter5[components.Position, components.Velocity, components.Rotation, components.Body, components.Agent]
	world  *physics.World
	bounds Bounds
	dt     float64
	bounce float64
	layer  physics.LayerMask

	colliders []physics.Collider
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(w *ecs.World, world *physics.World, bounds Bounds, dt, bounce float64, agentLayer physics.LayerMask) *PhysicsSystem {
	return &PhysicsSystem{
		filter: ecs.NewFilter5[components.Position, components.Velocity, components.Rotation, components.Body, components.Agent](w),
		world:  world,
		bounds: bounds,
		dt:     dt,
		bounce: bounce,
		layer:  agentLayer,
	}
}

// Update runs the physics system.
func (s *PhysicsSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, rot, body, agent := query.Get()

		// Limit velocity
		maxSpeed := agent.Caps.MaxSpeed
		if speed := velocityMagnitude(vel.X, vel.Y); maxSpeed > 0 && speed > maxSpeed {
			scale := maxSpeed / speed
			vel.X *= scale
			vel.Y *= scale
		}

		// Limit turn rate
		if maxRot := agent.Caps.MaxRotationalSpeed; maxRot > 0 {
			rot.AngVel = clampFloat(rot.AngVel, -maxRot, maxRot)
		}

		pos.X += vel.X * s.dt
		pos.Y += vel.Y * s.dt
		rot.Heading = normalizeHeading(rot.Heading + rot.AngVel*s.dt)

		// Walls on every side, bounce slightly
		r := body.Radius
		if pos.X < r {
			pos.X = r
			vel.X *= -s.bounce
		} else if pos.X > s.bounds.Width-r {
			pos.X = s.bounds.Width - r
			vel.X *= -s.bounce
		}
		if pos.Y < r {
			pos.Y = r
			vel.Y *= -s.bounce
		} else if pos.Y > s.bounds.Height-r {
			pos.Y = s.bounds.Height - r
			vel.Y *= -s.bounce
		}
	}

	s.SyncColliders()
}

// SyncColliders replaces the world's dynamic colliders with the agents' current bodies.
func (s *PhysicsSystem) SyncColliders() {
	s.colliders = s.colliders[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, _, _, body, agent := query.Get()
		s.colliders = append(s.colliders, physics.Collider{
			ID:     agent.Collider,
			Layers: s.layer,
			Shape:  physics.ShapeCircle,
			Center: r2.Vec{X: pos.X, Y: pos.Y},
			Radius: body.Radius,
		})
	}
	s.world.SetDynamic(s.colliders)
}
