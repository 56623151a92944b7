// Package physics holds the 2D engine capabilities the steering and sensor code consumes:
// frames, layer masks, raycast hits, the rigid-body handle, and an in-memory collider world.
//
// Orientation is in degrees about the depth (Z) axis. Orientation 0 faces local +Y and
// positive angles turn counter-clockwise, toward the agent's left.
package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// Up is the local forward axis.
var Up = r2.Vec{X: 0, Y: 1}

// Frame places a local coordinate system in the world.
type Frame struct {
	Position r2.Vec
	Rotation float64 // degrees
}

// TransformPoint maps a local point to world space.
func (f Frame) TransformPoint(local r2.Vec) r2.Vec {
	return r2.Add(f.Position, Rotate(local, f.Rotation))
}

// InverseTransformPoint maps a world point to local space.
func (f Frame) InverseTransformPoint(world r2.Vec) r2.Vec {
	return Rotate(r2.Sub(world, f.Position), -f.Rotation)
}

// TransformDirection rotates a local direction into world space.
func (f Frame) TransformDirection(local r2.Vec) r2.Vec {
	return Rotate(local, f.Rotation)
}

// Rotate rotates v by deg degrees counter-clockwise about the origin.
func Rotate(v r2.Vec, deg float64) r2.Vec {
	if deg == 0 {
		return v
	}
	return r2.Rotate(v, deg*degToRad, r2.Vec{})
}

// Forward returns the unit facing vector for an orientation.
func Forward(deg float64) r2.Vec {
	rad := deg * degToRad
	return r2.Vec{X: -math.Sin(rad), Y: math.Cos(rad)}
}

// Bearing returns the orientation that faces from -> to.
// Coincident points yield 0.
func Bearing(from, to r2.Vec) float64 {
	d := r2.Sub(to, from)
	if d.X == 0 && d.Y == 0 {
		return 0
	}
	return math.Atan2(-d.X, d.Y) * radToDeg
}
