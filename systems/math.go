package systems

import "math"

// clampFloat clamps a value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clampInt clamps an int between min and max.
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// normalizeHeading wraps a heading in degrees to (-180, 180].
func normalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h > 180 {
		h -= 360
	} else if h <= -180 {
		h += 360
	}
	return h
}

// velocityMagnitude returns the magnitude of a velocity vector.
func velocityMagnitude(vx, vy float64) float64 {
	return math.Hypot(vx, vy)
}
