// Package game wires the steering, sensor, and physics systems into a headless chase
// simulation with telemetry output.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/whiskers/components"
	"github.com/pthm-cable/whiskers/config"
	"github.com/pthm-cable/whiskers/physics"
	"github.com/pthm-cable/whiskers/steering"
	"github.com/pthm-cable/whiskers/systems"
	"github.com/pthm-cable/whiskers/telemetry"
	"github.com/pthm-cable/whiskers/whiskers"
)

// Options configures simulation construction.
type Options struct {
	Seed           int64
	LogStats       bool    // log window stats via slog
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // directory for CSV logs and config snapshot (empty = disabled)

	// Config overrides the global config. Used by tools that run many variants.
	Config *config.Config

	// StatsCallback, if set, receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Sim holds the complete simulation state.
type Sim struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand

	// Entity mapper for the components every agent has
	agentMapper *ecs.Map6[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Body,
		components.Agent,
		components.Steering,
	]
	agentFilter *ecs.Filter6[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Body,
		components.Agent,
		components.Steering,
	]

	// Individual component mappers for lookups
	posMap     *ecs.Map[components.Position]
	agentMap   *ecs.Map[components.Agent]
	targetMap  *ecs.Map[components.Target]
	threatMap  *ecs.Map[components.Threat]
	sensorsMap *ecs.Map[components.Sensors]

	sensorFilter *ecs.Filter2[components.Agent, components.Sensors]

	// Collider world shared by the sensors
	colliders *physics.World
	obstacles []physics.Collider

	// Systems
	spatialGrid *systems.SpatialGrid
	threat      *systems.ThreatSystem
	sensors     *systems.SensorSystem
	steering    *systems.SteeringSystem
	physics     *systems.PhysicsSystem

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	pendingEvents []telemetry.Event
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// Archetype lookup
	behaviors []components.Behavior
	caps      []steering.Capabilities

	// State
	tick        int32
	nextID      uint32
	numChasers  int
	numEvaders  int
	totalCaught int
}

// NewSim creates a simulation from opts.
func NewSim(opts Options) (*Sim, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	world := ecs.NewWorld()
	s := &Sim{
		cfg:   cfg,
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		agentMapper: ecs.NewMap6[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Body,
			components.Agent,
			components.Steering,
		](world),
		agentFilter: ecs.NewFilter6[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Body,
			components.Agent,
			components.Steering,
		](world),
		posMap:        ecs.NewMap[components.Position](world),
		agentMap:      ecs.NewMap[components.Agent](world),
		targetMap:     ecs.NewMap[components.Target](world),
		threatMap:     ecs.NewMap[components.Threat](world),
		sensorsMap:    ecs.NewMap[components.Sensors](world),
		sensorFilter:  ecs.NewFilter2[components.Agent, components.Sensors](world),
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}

	if err := s.buildArchetypes(); err != nil {
		return nil, err
	}
	if err := s.buildSystems(); err != nil {
		return nil, err
	}

	s.colliders = physics.NewWorld(physics.WorldOptions{QueriesStartInColliders: cfg.World.QueriesStartInColliders})
	if err := s.placeObstacles(); err != nil {
		return nil, err
	}
	s.sensors = systems.NewSensorSystem(world, s.colliders, systems.SensorConfig{
		BoxRange:   cfg.RangeBox.Range,
		SpeedScale: cfg.RangeBox.SpeedScale,
		BoxMask:    cfg.Derived.RangeBoxMask,
	})
	s.physics = systems.NewPhysicsSystem(world, s.colliders,
		systems.Bounds{Width: cfg.World.Width, Height: cfg.World.Height},
		cfg.Physics.DT, cfg.Physics.WallBounce, cfg.Derived.AgentLayer)

	if err := s.spawnInitialPopulation(); err != nil {
		return nil, err
	}
	s.physics.SyncColliders()

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	s.collector = telemetry.NewCollector(statsWindow, cfg.Physics.DT)
	s.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	s.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	slog.Debug("simulation ready",
		"chasers", s.numChasers,
		"evaders", s.numEvaders,
		"obstacles", len(s.obstacles),
		"output_dir", om.Dir(),
	)
	return s, nil
}

// buildArchetypes resolves per-archetype behavior and limits.
func (s *Sim) buildArchetypes() error {
	for _, arch := range s.cfg.Archetypes {
		b, ok := components.ParseBehavior(arch.Behavior)
		if !ok {
			return fmt.Errorf("archetype %q: unknown behavior %q", arch.Name, arch.Behavior)
		}
		s.behaviors = append(s.behaviors, b)
		s.caps = append(s.caps, steering.Capabilities{
			MaxSpeed:           arch.MaxSpeed,
			MaxRotationalSpeed: arch.MaxRotationalSpeed,
			MaxAcceleration:    arch.MaxAcceleration,
			MaxDeceleration:    arch.MaxDeceleration,
			StopSpeed:          arch.StopSpeed,
		})
	}
	return nil
}

// buildSystems creates the controllers and the systems that do not need the collider world.
func (s *Sim) buildSystems() error {
	cfg := s.cfg
	align, err := steering.NewAlign(steering.AlignConfig{
		ArrivingMargin:     cfg.Align.ArrivingMargin,
		AccelerationRadius: cfg.Align.AccelerationRadius,
		DecelerationRadius: cfg.Align.DecelerationRadius,
	}, cfg.Derived.AlignAcceleration, cfg.Derived.AlignDeceleration)
	if err != nil {
		return err
	}
	flee := steering.NewFlee(steering.FleeConfig{PanicDistance: cfg.Flee.PanicDistance})
	evade := steering.NewEvade(steering.EvadeConfig{MaxLookAhead: cfg.Evade.MaxLookAhead}, flee)

	opponents := make(map[uint8]uint8, len(cfg.Archetypes))
	for i, arch := range cfg.Archetypes {
		if opp, ok := cfg.Derived.ArchetypeIndex[arch.Opponent]; ok {
			opponents[uint8(i)] = opp
		}
	}

	s.spatialGrid = systems.NewSpatialGrid(cfg.World.Width, cfg.World.Height, cfg.Physics.GridCellSize)
	s.threat = systems.NewThreatSystem(s.world, s.spatialGrid, cfg.Evade.DetectionRadius, opponents)
	s.steering = systems.NewSteeringSystem(s.world, align, evade, cfg.Whiskers.AvoidanceAngle, cfg.Physics.DT)
	return nil
}

// Tick returns the current simulation tick.
func (s *Sim) Tick() int32 {
	return s.tick
}

// ChaserCount returns the number of chasing agents.
func (s *Sim) ChaserCount() int {
	return s.numChasers
}

// EvaderCount returns the number of evading agents.
func (s *Sim) EvaderCount() int {
	return s.numEvaders
}

// Captures returns the number of captures since the simulation started.
func (s *Sim) Captures() int {
	return s.totalCaught
}

// ObstacleCount returns the number of static obstacles placed in the world.
func (s *Sim) ObstacleCount() int {
	return len(s.obstacles)
}

// SetWhiskerGeometry retunes every whisker fan. The change takes effect on each fan's
// next tick.
func (s *Sim) SetWhiskerGeometry(g whiskers.Geometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	query := s.sensorFilter.Query()
	for query.Next() {
		_, sens := query.Get()
		if sens.Whiskers != nil {
			// g is valid, so this cannot fail
			_ = sens.Whiskers.SetGeometry(g)
		}
	}
	return nil
}

// Close flushes and closes output files.
func (s *Sim) Close() error {
	if err := s.outputManager.WriteEvents(s.pendingEvents); err != nil {
		slog.Error("failed to write events", "error", err)
	}
	s.pendingEvents = s.pendingEvents[:0]
	return s.outputManager.Close()
}
