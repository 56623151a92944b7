package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/components"
	"github.com/pthm-cable/whiskers/config"
	"github.com/pthm-cable/whiskers/physics"
	"github.com/pthm-cable/whiskers/telemetry"
	"github.com/pthm-cable/whiskers/whiskers"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.World.Width, cfg.World.Height = 400, 300
	cfg.Archetypes[0].Count = 2
	cfg.Archetypes[1].Count = 4
	cfg.Obstacles.Circles = 3
	cfg.Obstacles.Boxes = 2
	cfg.Telemetry.SampleEvery = 10
	return cfg
}

func newTestSim(t *testing.T, cfg *config.Config, opts Options) *Sim {
	t.Helper()
	opts.Config = cfg
	s, err := NewSim(opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSimPopulation(t *testing.T) {
	s := newTestSim(t, smallConfig(t), Options{Seed: 1})

	assert.Equal(t, 2, s.ChaserCount())
	assert.Equal(t, 4, s.EvaderCount())
	assert.Equal(t, 5, s.ObstacleCount())
	assert.Equal(t, 5, s.colliders.StaticCount())
	assert.Zero(t, s.Tick())

	var fans int
	query := s.sensorFilter.Query()
	for query.Next() {
		_, sens := query.Get()
		require.NotNil(t, sens.Whiskers)
		require.NotNil(t, sens.Box)
		assert.Equal(t, 9, sens.Whiskers.Count())
		fans++
	}
	assert.Equal(t, 6, fans)
}

func TestNewSimRejectsBadBehavior(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Archetypes[0].Behavior = "wander"
	_, err := NewSim(Options{Config: cfg})
	assert.Error(t, err)
}

func TestRunKeepsAgentsInBounds(t *testing.T) {
	cfg := smallConfig(t)
	s := newTestSim(t, cfg, Options{Seed: 7})
	s.Run(300)

	assert.Equal(t, int32(300), s.Tick())
	query := s.agentFilter.Query()
	for query.Next() {
		pos, vel, rot, body, agent, _ := query.Get()
		assert.GreaterOrEqual(t, pos.X, body.Radius-1e-9)
		assert.LessOrEqual(t, pos.X, cfg.World.Width-body.Radius+1e-9)
		assert.GreaterOrEqual(t, pos.Y, body.Radius-1e-9)
		assert.LessOrEqual(t, pos.Y, cfg.World.Height-body.Radius+1e-9)
		assert.LessOrEqual(t, speed(vel.X, vel.Y), agent.Caps.MaxSpeed+1e-9)
		assert.Greater(t, rot.Heading, -180.0)
		assert.LessOrEqual(t, rot.Heading, 180.0)
	}
}

func TestStatsCallback(t *testing.T) {
	cfg := smallConfig(t)
	var windows []telemetry.WindowStats
	s := newTestSim(t, cfg, Options{
		Seed:           3,
		StatsWindowSec: 1,
		StatsCallback:  func(w telemetry.WindowStats) { windows = append(windows, w) },
	})

	ticksPerWindow := int(s.collector.WindowDurationTicks())
	s.Run(3 * ticksPerWindow)

	require.Len(t, windows, 3)
	for _, w := range windows {
		assert.Equal(t, 2, w.Chasers)
		assert.Equal(t, 4, w.Evaders)
		total := w.IdleFrac + w.AccelerateFrac + w.DecelerateFrac + w.StopFrac + w.CruiseFrac
		assert.InDelta(t, 1, total, 1e-9)
	}
}

func TestCaptureRespawnsEvader(t *testing.T) {
	cfg := smallConfig(t)
	// every chaser is in range of its target on the first tick
	cfg.Population.CaptureRadius = 1000
	s := newTestSim(t, cfg, Options{Seed: 5})

	s.Step()
	// two chasers may share a target, which is only caught once
	caught := s.Captures()
	assert.GreaterOrEqual(t, caught, 1)
	assert.LessOrEqual(t, caught, 2)
	assert.Equal(t, 4, s.EvaderCount(), "caught evaders respawn")

	var chaserCaptures, evaderCaptures int
	query := s.agentFilter.Query()
	for query.Next() {
		_, _, _, _, agent, _ := query.Get()
		if agent.Archetype == 0 {
			chaserCaptures += agent.Captures
		} else {
			evaderCaptures += agent.Captures
		}
	}
	assert.Equal(t, caught, chaserCaptures)
	assert.Equal(t, caught, evaderCaptures)

	var captureEvents int
	for _, ev := range s.pendingEvents {
		if ev.Type == telemetry.EventCapture {
			captureEvents++
		}
	}
	assert.Equal(t, caught, captureEvents)
}

func TestDeterministicWithSeed(t *testing.T) {
	cfg := smallConfig(t)
	a := newTestSim(t, cfg, Options{Seed: 11})
	b := newTestSim(t, cfg, Options{Seed: 11})
	a.Run(120)
	b.Run(120)

	angA, linA := a.sampleSpeeds()
	angB, linB := b.sampleSpeeds()
	assert.Equal(t, angA, angB)
	assert.Equal(t, linA, linB)
	assert.Equal(t, a.Captures(), b.Captures())
}

func TestSetWhiskerGeometry(t *testing.T) {
	s := newTestSim(t, smallConfig(t), Options{Seed: 2})

	assert.Error(t, s.SetWhiskerGeometry(whiskers.Geometry{Resolution: -1, Range: 10}))

	require.NoError(t, s.SetWhiskerGeometry(whiskers.Geometry{Resolution: 1, SemiConeDegrees: 30, Range: 50, MinimumRange: 10}))
	s.Step()

	query := s.sensorFilter.Query()
	for query.Next() {
		_, sens := query.Get()
		assert.Equal(t, 5, sens.Whiskers.Count())
		assert.False(t, sens.Whiskers.RebuildPending())
		assert.True(t, sens.Whiskers.Frozen(), "fans stay frozen between sensor phases")
	}
}

func TestRetuneDuringStepLandsNextTick(t *testing.T) {
	var s *Sim
	retuned := false
	s = newTestSim(t, smallConfig(t), Options{
		Seed:           4,
		StatsWindowSec: 1,
		StatsCallback: func(telemetry.WindowStats) {
			if !retuned {
				retuned = true
				require.NoError(t, s.SetWhiskerGeometry(whiskers.Geometry{Resolution: 1, SemiConeDegrees: 30, Range: 50, MinimumRange: 10}))
			}
		},
	})

	s.Run(int(s.collector.WindowDurationTicks()))
	require.True(t, retuned)

	counts := func() []int {
		var out []int
		query := s.sensorFilter.Query()
		for query.Next() {
			_, sens := query.Get()
			out = append(out, sens.Whiskers.Count())
		}
		return out
	}
	for _, n := range counts() {
		assert.Equal(t, 9, n, "slot set is kept for the rest of the tick")
	}

	s.Step()
	for _, n := range counts() {
		assert.Equal(t, 5, n)
	}
}

func TestRespawnRebuildsFanNextTick(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Population.CaptureRadius = 1000
	s := newTestSim(t, cfg, Options{Seed: 5})

	s.Step()
	respawned := map[ecs.Entity]bool{}
	query := s.sensorFilter.Query()
	for query.Next() {
		e := query.Entity()
		agent, sens := query.Get()
		if agent.Behavior == components.BehaviorEvade && agent.Captures > 0 {
			assert.True(t, sens.Whiskers.RebuildPending(), "rebuild waits for the next sensor phase")
			assert.Equal(t, 9, sens.Whiskers.Count())
			respawned[e] = true
		}
	}
	require.NotEmpty(t, respawned)

	s.Step()
	for e := range respawned {
		agent := s.agentMap.Get(e)
		if agent.Captures > 1 {
			continue // caught again this tick
		}
		sens := s.sensorsMap.Get(e)
		assert.False(t, sens.Whiskers.RebuildPending())
		assert.Equal(t, 9, sens.Whiskers.Count())
	}
}

func TestBlockedChecksBoxExtents(t *testing.T) {
	s := &Sim{obstacles: []physics.Collider{{
		Shape:    physics.ShapeBox,
		Center:   r2.Vec{X: 50, Y: 50},
		HalfSize: r2.Vec{X: 10, Y: 5},
	}}}

	tests := []struct {
		name string
		p    r2.Vec
		want bool
	}{
		{"inside", r2.Vec{X: 55, Y: 52}, true},
		{"left of box within radius", r2.Vec{X: 38, Y: 50}, true},
		{"below box within radius", r2.Vec{X: 50, Y: 43}, true},
		{"clear on the left", r2.Vec{X: 36, Y: 50}, false},
		{"clear below", r2.Vec{X: 50, Y: 41}, false},
	}
	for _, tt := range tests {
		if got := s.blocked(tt.p, 3); got != tt.want {
			t.Errorf("%s: blocked(%v) = %v, want %v", tt.name, tt.p, got, tt.want)
		}
	}
}

func TestOutputFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := smallConfig(t)
	cfg.Population.CaptureRadius = 1000
	s, err := NewSim(Options{Config: cfg, Seed: 9, OutputDir: dir, StatsWindowSec: 0.5})
	require.NoError(t, err)

	s.Run(int(s.collector.WindowDurationTicks()) + 1)
	require.NoError(t, s.Close())

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "events.csv", "agents.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}
