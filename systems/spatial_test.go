package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/whiskers/components"
)

func TestSpatialGridQueryRadius(t *testing.T) {
	tw := newTestWorld()
	posMap := ecs.NewMap[components.Position](tw.w)

	self := tw.spawn(100, 100, 0, 0, components.BehaviorEvade)
	near := tw.spawn(110, 100, 0, 1, components.BehaviorChase)
	far := tw.spawn(300, 300, 0, 1, components.BehaviorChase)
	edge := tw.spawn(795, 100, 0, 1, components.BehaviorChase)

	grid := NewSpatialGrid(800, 600, 64)
	for _, e := range []ecs.Entity{self, near, far, edge} {
		p := posMap.Get(e)
		grid.Insert(e, p.X, p.Y)
	}

	got := grid.QueryRadiusInto(nil, 100, 100, 50, self, posMap)
	if len(got) != 1 {
		t.Fatalf("expected 1 neighbor, got %d", len(got))
	}
	if got[0].E != near {
		t.Errorf("expected the near entity")
	}
	if got[0].DX != 10 || got[0].DY != 0 || got[0].DistSq != 100 {
		t.Errorf("unexpected delta: %+v", got[0])
	}

	// bounded world: no wrap-around from the left edge to the right
	got = grid.QueryRadiusInto(got[:0], 5, 100, 20, self, posMap)
	if len(got) != 0 {
		t.Errorf("expected no neighbors across the world edge, got %d", len(got))
	}
}

func TestSpatialGridClampsOutOfBounds(t *testing.T) {
	tw := newTestWorld()
	posMap := ecs.NewMap[components.Position](tw.w)
	e := tw.spawn(-20, 700, 0, 0, components.BehaviorEvade)

	grid := NewSpatialGrid(800, 600, 64)
	grid.Insert(e, -20, 700)

	got := grid.QueryRadiusInto(nil, 0, 600, 120, ecs.Entity{}, posMap)
	if len(got) != 1 {
		t.Fatalf("expected the clamped entity to be found, got %d", len(got))
	}

	grid.Clear()
	got = grid.QueryRadiusInto(got[:0], 0, 600, 120, ecs.Entity{}, posMap)
	if len(got) != 0 {
		t.Errorf("expected empty grid after Clear, got %d", len(got))
	}
}
