package components

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/physics"
)

// Body holds physical properties of an entity.
type Body struct {
	Radius float64
}

// BodyRef exposes an entity's components as a physics.RigidBody for the steering controllers.
// It holds pointers returned by an ECS query and is only valid until the next structural change.
type BodyRef struct {
	Pos *Position
	Vel *Velocity
	Rot *Rotation
}

var _ physics.RigidBody = BodyRef{}

func (b BodyRef) Position() r2.Vec             { return b.Pos.Vec() }
func (b BodyRef) Rotation() float64            { return b.Rot.Heading }
func (b BodyRef) Velocity() r2.Vec             { return b.Vel.Vec() }
func (b BodyRef) SetVelocity(v r2.Vec)         { b.Vel.Set(v) }
func (b BodyRef) AngularVelocity() float64     { return b.Rot.AngVel }
func (b BodyRef) SetAngularVelocity(w float64) { b.Rot.AngVel = w }

// Frame returns the body's transform.
func (b BodyRef) Frame() physics.Frame {
	return physics.Frame{Position: b.Pos.Vec(), Rotation: b.Rot.Heading}
}
