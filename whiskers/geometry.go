// Package whiskers implements a fan of ray sensors spread across a cone in front of an agent.
//
// A fan always has an odd number of rays, 2*resolution+3, so there is a true centre ray.
// Index 0 is the leftmost ray at +SemiConeDegrees and the last index the rightmost at
// -SemiConeDegrees. Ray lengths beyond MinimumRange follow two independent proportion
// curves, one for each half.
package whiskers

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/curve"
	"github.com/pthm-cable/whiskers/physics"
)

// ErrNegativeResolution is returned for a resolution below zero.
var ErrNegativeResolution = errors.New("whiskers: resolution must be >= 0")

// Geometry describes the fan's shape in its local frame.
type Geometry struct {
	Resolution      int
	SemiConeDegrees float64
	Range           float64
	MinimumRange    float64
}

// Validate reports geometry that cannot produce a fan.
func (g Geometry) Validate() error {
	if g.Resolution < 0 {
		return ErrNegativeResolution
	}
	if g.MinimumRange < 0 {
		return fmt.Errorf("whiskers: minimum range %.4f is negative", g.MinimumRange)
	}
	if g.Range < g.MinimumRange {
		return fmt.Errorf("whiskers: range %.4f is below minimum range %.4f", g.Range, g.MinimumRange)
	}
	return nil
}

// Count returns the number of rays, 2*Resolution+3.
func (g Geometry) Count() int {
	return 2*g.Resolution + 3
}

// CenterIndex returns the index of the forward ray.
func (g Geometry) CenterIndex() int {
	return g.Count() / 2
}

// RayAngle returns the angle of ray i in degrees, positive to the left.
func (g Geometry) RayAngle(i int) float64 {
	step := 2 * g.SemiConeDegrees / float64(g.Count()-1)
	return g.SemiConeDegrees - step*float64(i)
}

// RayEnds is one ray segment in the fan's local frame.
type RayEnds struct {
	Start r2.Vec
	End   r2.Vec
}

// Proportion returns the length fraction of ray i: the left curve for rays left of
// centre, the right curve for the centre ray and everything to its right.
func Proportion(g Geometry, left, right curve.Curve, i int) float64 {
	center := g.CenterIndex()
	if i < center {
		return left.Evaluate(inverseLerp(0, float64(center), float64(i)))
	}
	return right.Evaluate(inverseLerp(float64(center), float64(g.Count()-1), float64(i)))
}

// ComputeRayEnds lays out every ray of the fan.
func ComputeRayEnds(g Geometry, left, right curve.Curve) []RayEnds {
	return appendRayEnds(nil, g, left, right)
}

func appendRayEnds(dst []RayEnds, g Geometry, left, right curve.Curve) []RayEnds {
	count := g.Count()
	extra := g.Range - g.MinimumRange

	for i := 0; i < count; i++ {
		// unit direction of the minimum-range base vector rotated about the depth axis
		dir := physics.Rotate(physics.Up, g.RayAngle(i))
		length := Proportion(g, left, right, i) * extra
		dst = append(dst, RayEnds{
			End: r2.Scale(g.MinimumRange+length, dir),
		})
	}
	return dst
}

// inverseLerp returns where v sits between a and b; 0 when a == b.
func inverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return (v - a) / (b - a)
}
