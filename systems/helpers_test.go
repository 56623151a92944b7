package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/whiskers/components"
	"github.com/pthm-cable/whiskers/curve"
	"github.com/pthm-cable/whiskers/physics"
	"github.com/pthm-cable/whiskers/steering"
)

// testWorld bundles an ECS world with the mapper used to spawn agents.
type testWorld struct {
	w      *ecs.World
	mapper *ecs.Map6[components.Position, components.Velocity, components.Rotation, components.Body, components.Agent, components.Steering]
	nextID uint32
}

func newTestWorld() *testWorld {
	w := ecs.NewWorld()
	return &testWorld{
		w:      w,
		mapper: ecs.NewMap6[components.Position, components.Velocity, components.Rotation, components.Body, components.Agent, components.Steering](w),
	}
}

func testCaps() steering.Capabilities {
	return steering.Capabilities{
		MaxSpeed:           50,
		MaxRotationalSpeed: 180,
		MaxAcceleration:    100,
		MaxDeceleration:    100,
		StopSpeed:          0.5,
	}
}

func (tw *testWorld) spawn(x, y, heading float64, archetype uint8, behavior components.Behavior) ecs.Entity {
	tw.nextID++
	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{}
	rot := components.Rotation{Heading: heading}
	body := components.Body{Radius: 4}
	agent := components.Agent{
		ID:        tw.nextID,
		Archetype: archetype,
		Behavior:  behavior,
		Caps:      testCaps(),
		Collider:  physics.ColliderID(1000 + tw.nextID),
	}
	st := components.Steering{Arrival: steering.NewArrivalState()}
	return tw.mapper.NewEntity(&pos, &vel, &rot, &body, &agent, &st)
}

func testAlign(t *testing.T) *steering.Align {
	t.Helper()
	a, err := steering.NewAlign(
		steering.AlignConfig{ArrivingMargin: 3, AccelerationRadius: 20, DecelerationRadius: 45},
		curve.EaseInOut{From: 0.2, To: 1},
		curve.EaseInOut{From: 0.05, To: 1},
	)
	if err != nil {
		t.Fatalf("NewAlign: %v", err)
	}
	return a
}
