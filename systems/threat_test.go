package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/whiskers/components"
)

func TestThreatSystemAssignsNearest(t *testing.T) {
	tw := newTestWorld()
	threatMap := ecs.NewMap[components.Threat](tw.w)
	targetMap := ecs.NewMap[components.Target](tw.w)

	// archetype 0 = runner (evade), 1 = hunter (chase)
	runner := tw.spawn(100, 100, 0, 0, components.BehaviorEvade)
	other := tw.spawn(400, 400, 0, 0, components.BehaviorEvade)
	nearHunter := tw.spawn(130, 100, 0, 1, components.BehaviorChase)
	farHunter := tw.spawn(700, 500, 0, 1, components.BehaviorChase)

	threatMap.Add(runner, &components.Threat{})
	threatMap.Add(other, &components.Threat{})
	targetMap.Add(nearHunter, &components.Target{})
	targetMap.Add(farHunter, &components.Target{})

	sys := NewThreatSystem(tw.w, NewSpatialGrid(800, 600, 64), 100, map[uint8]uint8{0: 1, 1: 0})
	sys.Update(tw.w)

	if got := threatMap.Get(runner); got.Entity != nearHunter || got.Distance != 30 {
		t.Errorf("runner threat = %+v, want near hunter at 30", got)
	}
	if got := threatMap.Get(other); !got.Entity.IsZero() {
		t.Errorf("other runner is outside the detection radius, got threat %+v", got)
	}
	if got := targetMap.Get(nearHunter); got.Entity != runner {
		t.Error("near hunter should target the closest runner")
	}
	if got := targetMap.Get(farHunter); got.Entity != other {
		t.Error("far hunter should target the closest runner regardless of radius")
	}
}

func TestThreatSystemKeepsLiveTarget(t *testing.T) {
	tw := newTestWorld()
	targetMap := ecs.NewMap[components.Target](tw.w)

	hunter := tw.spawn(100, 100, 0, 1, components.BehaviorChase)
	distant := tw.spawn(600, 100, 0, 0, components.BehaviorEvade)
	tw.spawn(120, 100, 0, 0, components.BehaviorEvade)
	targetMap.Add(hunter, &components.Target{Entity: distant})

	sys := NewThreatSystem(tw.w, NewSpatialGrid(800, 600, 64), 100, map[uint8]uint8{1: 0})
	sys.Update(tw.w)

	if got := targetMap.Get(hunter); got.Entity != distant {
		t.Error("a live target should not be replaced")
	}
}
