package curve

import "fmt"

// Spec is the YAML form of a curve.
//
//	kind: ease_in_out | linear | monotone | constant
//	from/to: end values for ease_in_out and linear
//	value: the constant
//	keys: keyframes for monotone (and for linear when present)
type Spec struct {
	Kind  string  `yaml:"kind"`
	From  float64 `yaml:"from,omitempty"`
	To    float64 `yaml:"to,omitempty"`
	Value float64 `yaml:"value,omitempty"`
	Keys  []Key   `yaml:"keys,omitempty"`
}

// Build constructs the curve described by s.
func (s Spec) Build() (Curve, error) {
	switch s.Kind {
	case "", "ease_in_out":
		return EaseInOut{From: s.From, To: s.To}, nil
	case "linear":
		if len(s.Keys) > 0 {
			return NewKeyframes(s.Keys, ModeLinear)
		}
		return Linear{From: s.From, To: s.To}, nil
	case "monotone":
		return NewKeyframes(s.Keys, ModeMonotone)
	case "constant":
		return Constant(s.Value), nil
	default:
		return nil, fmt.Errorf("curve: unknown kind %q", s.Kind)
	}
}
