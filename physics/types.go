package physics

import "gonum.org/v1/gonum/spatial/r2"

// LayerMask is a set of collision layers, one bit per layer.
type LayerMask uint32

// AllLayers matches every layer.
const AllLayers LayerMask = ^LayerMask(0)

// Layer returns the mask containing only layer n (0-31).
func Layer(n uint) LayerMask {
	return LayerMask(1) << (n & 31)
}

// Contains reports whether m and other share any layer.
func (m LayerMask) Contains(other LayerMask) bool {
	return m&other != 0
}

// ColliderID identifies a collider in a World. Zero is never assigned.
type ColliderID uint64

// Hit is the nearest intersection of a ray with a collider.
type Hit struct {
	Collider ColliderID
	Point    r2.Vec
	Normal   r2.Vec
	Distance float64 // from the ray origin
	Fraction float64 // Distance / ray length
}

// Raycaster casts a segment against colliders matching mask and returns the nearest hit.
type Raycaster interface {
	Raycast(from, to r2.Vec, mask LayerMask) (Hit, bool)
}

// RigidBody is a handle to a simulated 2D body.
type RigidBody interface {
	Position() r2.Vec
	Rotation() float64 // degrees
	Velocity() r2.Vec
	SetVelocity(v r2.Vec)
	AngularVelocity() float64 // degrees per second
	SetAngularVelocity(w float64)
}
