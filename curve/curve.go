// Package curve provides 1-D curves mapping normalized progress to a scalar.
// Curves are authored configuration data; steering and sensors only evaluate them.
package curve

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// ErrNoKeys is returned when a keyframe curve is built without keys.
var ErrNoKeys = errors.New("curve: no keys")

// Curve evaluates a scalar at parameter t. Callers pass t in [0,1];
// implementations clamp out-of-range input.
type Curve interface {
	Evaluate(t float64) float64
}

// Func adapts a plain function to the Curve interface.
type Func func(t float64) float64

// Evaluate calls f(t).
func (f Func) Evaluate(t float64) float64 { return f(t) }

// Constant is a flat curve.
type Constant float64

// Evaluate returns the constant value.
func (c Constant) Evaluate(float64) float64 { return float64(c) }

// EaseInOut is a cubic Hermite segment with zero end tangents from From to To.
type EaseInOut struct {
	From, To float64
}

// Evaluate returns From + (To-From)*(3t²-2t³).
func (e EaseInOut) Evaluate(t float64) float64 {
	t = clamp01(t)
	return e.From + (e.To-e.From)*t*t*(3-2*t)
}

// Linear interpolates between From and To.
type Linear struct {
	From, To float64
}

// Evaluate returns From + (To-From)*t.
func (l Linear) Evaluate(t float64) float64 {
	t = clamp01(t)
	return l.From + (l.To-l.From)*t
}

// Key is a single keyframe.
type Key struct {
	Time  float64 `yaml:"time"`
	Value float64 `yaml:"value"`
}

// Mode selects keyframe interpolation.
type Mode uint8

const (
	ModeLinear   Mode = iota // piecewise linear
	ModeMonotone             // Fritsch-Butland monotone cubic
)

// Keyframes is a piecewise curve through user-authored keys.
// Values outside the key range hold the nearest end key.
type Keyframes struct {
	first, last Key
	predictor   interp.Predictor
}

// NewKeyframes fits a curve through keys. Key times must be strictly increasing.
// Monotone mode needs at least three keys and falls back to linear otherwise.
func NewKeyframes(keys []Key, mode Mode) (*Keyframes, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	k := &Keyframes{first: keys[0], last: keys[len(keys)-1]}
	if len(keys) == 1 {
		k.predictor = interp.Constant(keys[0].Value)
		return k, nil
	}

	xs := make([]float64, len(keys))
	ys := make([]float64, len(keys))
	for i, key := range keys {
		if i > 0 && key.Time <= keys[i-1].Time {
			return nil, fmt.Errorf("curve: key %d time %.4f not after %.4f", i, key.Time, keys[i-1].Time)
		}
		xs[i] = key.Time
		ys[i] = key.Value
	}

	if mode == ModeMonotone && len(keys) >= 3 {
		var fb interp.FritschButland
		if err := fb.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("curve: fitting monotone keys: %w", err)
		}
		k.predictor = &fb
		return k, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("curve: fitting linear keys: %w", err)
	}
	k.predictor = &pl
	return k, nil
}

// Evaluate samples the curve at t.
func (k *Keyframes) Evaluate(t float64) float64 {
	if t <= k.first.Time {
		return k.first.Value
	}
	if t >= k.last.Time {
		return k.last.Value
	}
	return k.predictor.Predict(t)
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
