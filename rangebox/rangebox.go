// Package rangebox resizes a rectangular detection volume that grows in a chosen direction.
//
// Size.X is the box width across the agent and Size.Y its range ahead of it. The box lives in
// the agent's local frame: +Y is forward, +X is to the right.
package rangebox

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrNegativeSize is returned when a width or range below zero is requested.
var ErrNegativeSize = errors.New("rangebox: size must be >= 0")

// sizeEpsilon is the tolerance under which a resize is treated as a no-op.
const sizeEpsilon = 1e-9

// Direction selects which edge of the box stays put while it grows.
type Direction uint8

const (
	Symmetric Direction = iota // grow evenly around the centre
	Up                         // grow forward, the back edge stays fixed
	Down                       // grow backward, the front edge stays fixed
	Left                       // grow left, the right edge stays fixed
	Right                      // grow right, the left edge stays fixed
)

var directionNames = [...]string{"symmetric", "up", "down", "left", "right"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "direction(?)"
}

// ParseDirection maps a config name to a Direction.
func ParseDirection(s string) (Direction, bool) {
	for i, n := range directionNames {
		if n == s {
			return Direction(i), true
		}
	}
	return Symmetric, false
}

// Bias returns the fraction of a size change that moves the box centre.
func (d Direction) Bias() r2.Vec {
	switch d {
	case Up:
		return r2.Vec{Y: 0.5}
	case Down:
		return r2.Vec{Y: -0.5}
	case Left:
		return r2.Vec{X: -0.5}
	case Right:
		return r2.Vec{X: 0.5}
	default:
		return r2.Vec{}
	}
}

// Box is a rectangle described by its size and the offset of its centre.
type Box struct {
	Size          r2.Vec
	Offset        r2.Vec
	InitialOffset r2.Vec
	Grow          Direction
}

// New returns a box of the given size whose first resize anchors at initial.
func New(size, initial r2.Vec, grow Direction) (*Box, error) {
	if size.X < 0 || size.Y < 0 {
		return nil, ErrNegativeSize
	}
	return &Box{Size: size, InitialOffset: initial, Grow: grow}, nil
}

// Resize sets the box to width x rng and shifts its centre by the grow bias of the change.
// A box whose offset is still zero anchors at InitialOffset instead of the origin.
func (b *Box) Resize(width, rng float64) error {
	if width < 0 || rng < 0 {
		return ErrNegativeSize
	}
	if math.Abs(width-b.Size.X) < sizeEpsilon && math.Abs(rng-b.Size.Y) < sizeEpsilon {
		return nil
	}

	delta := r2.Sub(r2.Vec{X: width, Y: rng}, b.Size)
	bias := b.Grow.Bias()
	shift := r2.Vec{X: delta.X * bias.X, Y: delta.Y * bias.Y}

	base := b.Offset
	if base == (r2.Vec{}) {
		base = b.InitialOffset
	}
	b.Offset = r2.Add(base, shift)
	b.Size = r2.Vec{X: width, Y: rng}
	return nil
}

// SetWidth resizes the box keeping its range.
func (b *Box) SetWidth(w float64) error { return b.Resize(w, b.Size.Y) }

// SetRange resizes the box keeping its width.
func (b *Box) SetRange(r float64) error { return b.Resize(b.Size.X, r) }
