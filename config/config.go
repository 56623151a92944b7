// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/whiskers/curve"
	"github.com/pthm-cable/whiskers/physics"
	"github.com/pthm-cable/whiskers/rangebox"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Behavior names an archetype's steering mode.
const (
	BehaviorChase = "chase"
	BehaviorEvade = "evade"
)

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig       `yaml:"world"`
	Physics    PhysicsConfig     `yaml:"physics"`
	Align      AlignConfig       `yaml:"align"`
	Flee       FleeConfig        `yaml:"flee"`
	Evade      EvadeConfig       `yaml:"evade"`
	Whiskers   WhiskersConfig    `yaml:"whiskers"`
	RangeBox   RangeBoxConfig    `yaml:"range_box"`
	Archetypes []ArchetypeConfig `yaml:"archetypes"`
	Population PopulationConfig  `yaml:"population"`
	Obstacles  ObstaclesConfig   `yaml:"obstacles"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation world dimensions and query options.
type WorldConfig struct {
	Width                   float64 `yaml:"width"`
	Height                  float64 `yaml:"height"`
	QueriesStartInColliders bool    `yaml:"queries_start_in_colliders"` // rays starting inside a collider report it
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`
	GridCellSize float64 `yaml:"grid_cell_size"`
	WallBounce   float64 `yaml:"wall_bounce"` // velocity kept (reversed) when hitting the world edge
}

// AlignConfig holds the rotation controller's radii and curves.
type AlignConfig struct {
	ArrivingMargin     float64    `yaml:"arriving_margin"`     // degrees
	AccelerationRadius float64    `yaml:"acceleration_radius"` // degrees turned before reaching full speed
	DecelerationRadius float64    `yaml:"deceleration_radius"` // degrees from target where braking starts
	AccelerationCurve  curve.Spec `yaml:"acceleration_curve"`
	DecelerationCurve  curve.Spec `yaml:"deceleration_curve"`
}

// FleeConfig holds flee parameters.
type FleeConfig struct {
	PanicDistance float64 `yaml:"panic_distance"` // 0 = always flee
}

// EvadeConfig holds evade and threat acquisition parameters.
type EvadeConfig struct {
	MaxLookAhead    float64 `yaml:"max_look_ahead"`   // seconds, 0 = unbounded
	DetectionRadius float64 `yaml:"detection_radius"` // evaders only react to threats this close
}

// WhiskersConfig holds the ray fan's geometry and avoidance tuning.
type WhiskersConfig struct {
	Resolution      int        `yaml:"resolution"`
	SemiConeDegrees float64    `yaml:"semi_cone_degrees"`
	Range           float64    `yaml:"range"`
	MinimumRange    float64    `yaml:"minimum_range"`
	LeftCurve       curve.Spec `yaml:"left_curve"`
	RightCurve      curve.Spec `yaml:"right_curve"`
	Layers          []uint     `yaml:"layers"`          // layer numbers the rays can hit
	AvoidanceAngle  float64    `yaml:"avoidance_angle"` // heading bias in degrees while something is detected
}

// RangeBoxConfig holds the forward detection box parameters.
type RangeBoxConfig struct {
	Width         float64    `yaml:"width"`
	Range         float64    `yaml:"range"`
	InitialOffset [2]float64 `yaml:"initial_offset"`
	Grow          string     `yaml:"grow"`        // symmetric, up, down, left, right
	SpeedScale    float64    `yaml:"speed_scale"` // extra range per unit of speed
	Layers        []uint     `yaml:"layers"`
}

// ArchetypeConfig defines a template for agents.
type ArchetypeConfig struct {
	Name               string  `yaml:"name"`
	Behavior           string  `yaml:"behavior"` // chase or evade
	Opponent           string  `yaml:"opponent"` // archetype chased or evaded
	Count              int     `yaml:"count"`
	Radius             float64 `yaml:"radius"`
	MaxSpeed           float64 `yaml:"max_speed"`
	MaxRotationalSpeed float64 `yaml:"max_rotational_speed"` // degrees per second
	MaxAcceleration    float64 `yaml:"max_acceleration"`
	MaxDeceleration    float64 `yaml:"max_deceleration"`
	StopSpeed          float64 `yaml:"stop_speed"`
	Sensors            bool    `yaml:"sensors"` // attach whiskers and a range box
}

// PopulationConfig holds spawn parameters.
type PopulationConfig struct {
	SpawnMargin   float64 `yaml:"spawn_margin"`   // keep spawns this far from the edges
	CaptureRadius float64 `yaml:"capture_radius"` // chaser-to-evader distance counted as a capture
}

// ObstaclesConfig holds static obstacle generation parameters.
type ObstaclesConfig struct {
	Circles    int     `yaml:"circles"`
	Boxes      int     `yaml:"boxes"`
	MinSize    float64 `yaml:"min_size"`
	MaxSize    float64 `yaml:"max_size"`
	Layer      uint    `yaml:"layer"`
	AgentLayer uint    `yaml:"agent_layer"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	SampleEvery         int     `yaml:"sample_every"` // ticks between agents.csv rows, 0 = off
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	AlignAcceleration curve.Curve
	AlignDeceleration curve.Curve
	WhiskerLeft       curve.Curve
	WhiskerRight      curve.Curve
	WhiskerMask       physics.LayerMask
	RangeBoxMask      physics.LayerMask
	ObstacleLayer     physics.LayerMask
	AgentLayer        physics.LayerMask
	Grow              rangebox.Direction
	ArchetypeIndex    map[string]uint8 // name -> index for archetype lookup
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	cfg.warn()

	return cfg, nil
}

// MaxArchetypes is the number of archetypes an agent's uint8 archetype index can address.
const MaxArchetypes = 256

// Validate reports settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Physics.DT <= 0 {
		errs = append(errs, fmt.Errorf("physics.dt must be > 0, got %v", c.Physics.DT))
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %vx%v", c.World.Width, c.World.Height))
	}
	if c.Physics.GridCellSize <= 0 {
		errs = append(errs, fmt.Errorf("physics.grid_cell_size must be > 0"))
	}
	if c.Align.ArrivingMargin < 0 || c.Align.AccelerationRadius <= 0 || c.Align.DecelerationRadius <= 0 {
		errs = append(errs, fmt.Errorf("align radii must be positive and arriving_margin >= 0"))
	}
	if c.Whiskers.Resolution < 0 {
		errs = append(errs, fmt.Errorf("whiskers.resolution must be >= 0, got %d", c.Whiskers.Resolution))
	}
	if c.Whiskers.MinimumRange < 0 || c.Whiskers.Range < c.Whiskers.MinimumRange {
		errs = append(errs, fmt.Errorf("whiskers: need 0 <= minimum_range <= range"))
	}
	if c.RangeBox.Width < 0 || c.RangeBox.Range < 0 {
		errs = append(errs, fmt.Errorf("range_box: width and range must be >= 0"))
	}
	if _, ok := rangebox.ParseDirection(c.RangeBox.Grow); !ok {
		errs = append(errs, fmt.Errorf("range_box.grow: unknown direction %q", c.RangeBox.Grow))
	}

	if len(c.Archetypes) > MaxArchetypes {
		errs = append(errs, fmt.Errorf("at most %d archetypes are supported, got %d", MaxArchetypes, len(c.Archetypes)))
	}
	seen := make(map[string]bool, len(c.Archetypes))
	for _, a := range c.Archetypes {
		if seen[a.Name] {
			errs = append(errs, fmt.Errorf("archetype %q defined twice", a.Name))
		}
		seen[a.Name] = true
		if a.Behavior != BehaviorChase && a.Behavior != BehaviorEvade {
			errs = append(errs, fmt.Errorf("archetype %q: unknown behavior %q", a.Name, a.Behavior))
		}
		if a.Count < 0 || a.Radius <= 0 || a.MaxSpeed < 0 || a.MaxRotationalSpeed < 0 {
			errs = append(errs, fmt.Errorf("archetype %q: count, radius and speeds must be non-negative", a.Name))
		}
	}
	for _, a := range c.Archetypes {
		if a.Opponent != "" && !seen[a.Opponent] {
			errs = append(errs, fmt.Errorf("archetype %q: opponent %q is not defined", a.Name, a.Opponent))
		}
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	var err error
	if c.Derived.AlignAcceleration, err = c.Align.AccelerationCurve.Build(); err != nil {
		return fmt.Errorf("align.acceleration_curve: %w", err)
	}
	if c.Derived.AlignDeceleration, err = c.Align.DecelerationCurve.Build(); err != nil {
		return fmt.Errorf("align.deceleration_curve: %w", err)
	}
	if c.Derived.WhiskerLeft, err = c.Whiskers.LeftCurve.Build(); err != nil {
		return fmt.Errorf("whiskers.left_curve: %w", err)
	}
	if c.Derived.WhiskerRight, err = c.Whiskers.RightCurve.Build(); err != nil {
		return fmt.Errorf("whiskers.right_curve: %w", err)
	}

	c.Derived.WhiskerMask = layerMask(c.Whiskers.Layers)
	c.Derived.RangeBoxMask = layerMask(c.RangeBox.Layers)
	c.Derived.ObstacleLayer = physics.Layer(c.Obstacles.Layer)
	c.Derived.AgentLayer = physics.Layer(c.Obstacles.AgentLayer)
	c.Derived.Grow, _ = rangebox.ParseDirection(c.RangeBox.Grow)

	c.Derived.ArchetypeIndex = make(map[string]uint8, len(c.Archetypes))
	for i, arch := range c.Archetypes {
		c.Derived.ArchetypeIndex[arch.Name] = uint8(i)
	}
	return nil
}

// warn logs settings that are legal but probably not intended.
func (c *Config) warn() {
	if c.Derived.AlignAcceleration.Evaluate(0) == 0 {
		slog.Warn("align acceleration curve is 0 at t=0; agents starting from rest will never turn")
	}
	if c.Align.AccelerationRadius+c.Align.DecelerationRadius > 360 {
		slog.Warn("align acceleration and deceleration radii overlap a full turn",
			"acceleration_radius", c.Align.AccelerationRadius,
			"deceleration_radius", c.Align.DecelerationRadius)
	}
}

// layerMask builds a mask from layer numbers; an empty list means every layer.
func layerMask(layers []uint) physics.LayerMask {
	if len(layers) == 0 {
		return physics.AllLayers
	}
	var m physics.LayerMask
	for _, l := range layers {
		m |= physics.Layer(l)
	}
	return m
}

// Archetype returns the archetype with the given name.
func (c *Config) Archetype(name string) (*ArchetypeConfig, bool) {
	idx, ok := c.Derived.ArchetypeIndex[name]
	if !ok {
		return nil, false
	}
	return &c.Archetypes[idx], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
