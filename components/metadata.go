package components

// Behavior determines how an agent steers.
type Behavior uint8

const (
	BehaviorChase Behavior = iota // face and pursue a target
	BehaviorEvade                 // run from the nearest threat
)

// String returns the display name for a Behavior.
func (b Behavior) String() string {
	names := BehaviorNames()
	if int(b) < len(names) {
		return names[b]
	}
	return "unknown"
}

// BehaviorNames returns the names for all behaviors.
// The order matches the Behavior constants and the config behavior values.
func BehaviorNames() []string {
	return []string{"chase", "evade"}
}

// ParseBehavior maps a config name to a Behavior.
func ParseBehavior(s string) (Behavior, bool) {
	for i, n := range BehaviorNames() {
		if n == s {
			return Behavior(i), true
		}
	}
	return BehaviorChase, false
}
