package game

import "math"

// speed returns the magnitude of a velocity.
func speed(x, y float64) float64 {
	return math.Sqrt(x*x + y*y)
}
