package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/components"
	"github.com/pthm-cable/whiskers/physics"
)

func TestPhysicsIntegratesAndClamps(t *testing.T) {
	tw := newTestWorld()
	e := tw.spawn(100, 100, 170, 0, components.BehaviorEvade)

	velMap := ecs.NewMap[components.Velocity](tw.w)
	rotMap := ecs.NewMap[components.Rotation](tw.w)
	posMap := ecs.NewMap[components.Position](tw.w)
	velMap.Get(e).Set(r2.Vec{X: 300}) // above MaxSpeed 50
	rotMap.Get(e).AngVel = 400       // above MaxRotationalSpeed 180

	world := physics.NewWorld(physics.WorldOptions{})
	sys := NewPhysicsSystem(tw.w, world, Bounds{Width: 800, Height: 600}, 0.1, 0.3, physics.Layer(1))
	sys.Update(tw.w)

	vel := velMap.Get(e)
	if speed := velocityMagnitude(vel.X, vel.Y); math.Abs(speed-50) > 1e-9 {
		t.Errorf("speed not clamped: %v", speed)
	}
	if pos := posMap.Get(e); math.Abs(pos.X-105) > 1e-9 {
		t.Errorf("expected x=105, got %v", pos.X)
	}
	// 170 + 180*0.1 = 188 wraps to -172
	if h := rotMap.Get(e).Heading; math.Abs(h-(-172)) > 1e-9 {
		t.Errorf("expected heading -172, got %v", h)
	}
}

func TestPhysicsBouncesOffWalls(t *testing.T) {
	tw := newTestWorld()
	e := tw.spawn(797, 10, 0, 0, components.BehaviorEvade)
	velMap := ecs.NewMap[components.Velocity](tw.w)
	posMap := ecs.NewMap[components.Position](tw.w)
	velMap.Get(e).Set(r2.Vec{X: 40, Y: -40})

	world := physics.NewWorld(physics.WorldOptions{})
	sys := NewPhysicsSystem(tw.w, world, Bounds{Width: 800, Height: 600}, 0.5, 0.5, physics.Layer(1))
	sys.Update(tw.w)

	pos, vel := posMap.Get(e), velMap.Get(e)
	if pos.X != 796 || pos.Y != 4 {
		t.Errorf("expected position clamped to (796, 4), got (%v, %v)", pos.X, pos.Y)
	}
	if vel.X >= 0 || vel.Y <= 0 {
		t.Errorf("expected velocity reflected, got (%v, %v)", vel.X, vel.Y)
	}
}

func TestPhysicsSyncsDynamicColliders(t *testing.T) {
	tw := newTestWorld()
	tw.spawn(100, 100, 0, 0, components.BehaviorEvade)

	world := physics.NewWorld(physics.WorldOptions{})
	sys := NewPhysicsSystem(tw.w, world, Bounds{Width: 800, Height: 600}, 0.1, 0.3, physics.Layer(1))
	sys.Update(tw.w)

	hit, ok := world.Raycast(r2.Vec{X: 100, Y: 50}, r2.Vec{X: 100, Y: 150}, physics.Layer(1))
	if !ok {
		t.Fatal("expected the agent collider to be hit")
	}
	if math.Abs(hit.Point.Y-96) > 1e-9 {
		t.Errorf("expected hit at y=96, got %v", hit.Point.Y)
	}
	if _, ok := world.Raycast(r2.Vec{X: 100, Y: 50}, r2.Vec{X: 100, Y: 150}, physics.Layer(0)); ok {
		t.Error("agent collider should not be on layer 0")
	}
}
