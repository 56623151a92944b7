package components

import "gonum.org/v1/gonum/spatial/r2"

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Vec returns the position as a vector.
func (p Position) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Set stores v.
func (p *Position) Set(v r2.Vec) { p.X, p.Y = v.X, v.Y }

// Velocity represents an entity's velocity in units per second.
type Velocity struct {
	X, Y float64
}

// Vec returns the velocity as a vector.
func (v Velocity) Vec() r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

// Set stores w.
func (v *Velocity) Set(w r2.Vec) { v.X, v.Y = w.X, w.Y }

// Rotation represents an entity's heading and angular velocity.
type Rotation struct {
	Heading float64 // degrees, 0 faces +Y, positive is counter-clockwise
	AngVel  float64 // degrees per second
}
