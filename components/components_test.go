package components

import (
	"testing"

	"github.com/pthm-cable/whiskers/physics"
)

func TestSensorEvents(t *testing.T) {
	var ev SensorEvents

	ev.OnDetected(physics.Hit{Collider: 1})
	ev.OnDetected(physics.Hit{Collider: 2})
	if ev.Detected != 2 || ev.Began != 1 || !ev.Active() {
		t.Fatalf("after two hits: %+v", ev)
	}

	ev.Reset()
	if ev.Detected != 0 || ev.Began != 0 || !ev.Active() {
		t.Fatalf("Reset must keep the active flag: %+v", ev)
	}

	ev.OnUndetected()
	ev.OnDetected(physics.Hit{Collider: 3})
	if ev.Undetected != 1 || ev.Began != 1 {
		t.Errorf("expected a new detection run: %+v", ev)
	}
}
