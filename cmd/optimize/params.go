// Package main provides CMA-ES optimization for steering and sensor parameters.
package main

import (
	"github.com/pthm-cable/whiskers/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Align
			{Name: "arriving_margin", Path: "align.arriving_margin", Min: 0.5, Max: 15, Default: 4},
			{Name: "acceleration_radius", Path: "align.acceleration_radius", Min: 5, Max: 120, Default: 30},
			{Name: "deceleration_radius", Path: "align.deceleration_radius", Min: 10, Max: 180, Default: 60},
			// Flee / Evade
			{Name: "panic_distance", Path: "flee.panic_distance", Min: 0, Max: 400, Default: 0},
			{Name: "max_look_ahead", Path: "evade.max_look_ahead", Min: 0, Max: 5, Default: 0},
			// Whiskers
			{Name: "semi_cone_degrees", Path: "whiskers.semi_cone_degrees", Min: 10, Max: 120, Default: 60},
			{Name: "whisker_range", Path: "whiskers.range", Min: 30, Max: 200, Default: 90},
			{Name: "avoidance_angle", Path: "whiskers.avoidance_angle", Min: 0, Max: 120, Default: 50},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)

	cfg.Align.ArrivingMargin = c[0]
	cfg.Align.AccelerationRadius = c[1]
	cfg.Align.DecelerationRadius = c[2]
	cfg.Flee.PanicDistance = c[3]
	cfg.Evade.MaxLookAhead = c[4]
	cfg.Whiskers.SemiConeDegrees = c[5]
	cfg.Whiskers.Range = c[6]
	cfg.Whiskers.AvoidanceAngle = c[7]

	// keep the fan's minimum range inside the tuned range
	if cfg.Whiskers.MinimumRange > cfg.Whiskers.Range {
		cfg.Whiskers.MinimumRange = cfg.Whiskers.Range
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Align.ArrivingMargin,
		cfg.Align.AccelerationRadius,
		cfg.Align.DecelerationRadius,
		cfg.Flee.PanicDistance,
		cfg.Evade.MaxLookAhead,
		cfg.Whiskers.SemiConeDegrees,
		cfg.Whiskers.Range,
		cfg.Whiskers.AvoidanceAngle,
	}
}
