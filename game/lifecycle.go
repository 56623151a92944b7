package game

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/components"
	"github.com/pthm-cable/whiskers/rangebox"
	"github.com/pthm-cable/whiskers/steering"
	"github.com/pthm-cable/whiskers/whiskers"
)

// spawnInitialPopulation creates Count agents for every archetype.
func (s *Sim) spawnInitialPopulation() error {
	for i, arch := range s.cfg.Archetypes {
		for range arch.Count {
			p := s.spawnPoint(arch.Radius)
			heading := s.rng.Float64()*360 - 180
			if _, err := s.spawnAgent(p, heading, uint8(i)); err != nil {
				return fmt.Errorf("spawning %s: %w", arch.Name, err)
			}
		}
	}
	return nil
}

// spawnAgent creates an agent of the given archetype at rest.
func (s *Sim) spawnAgent(p r2.Vec, heading float64, archetypeID uint8) (ecs.Entity, error) {
	arch := &s.cfg.Archetypes[archetypeID]
	behavior := s.behaviors[archetypeID]

	id := s.nextID
	s.nextID++

	pos := components.Position{X: p.X, Y: p.Y}
	vel := components.Velocity{}
	rot := components.Rotation{Heading: heading}
	body := components.Body{Radius: arch.Radius}
	agent := components.Agent{
		ID:        id,
		Archetype: archetypeID,
		Behavior:  behavior,
		Caps:      s.caps[archetypeID],
		Collider:  s.colliders.Allocate(),
	}
	st := components.Steering{Arrival: steering.NewArrivalState(), Goal: heading}

	var sensors *components.Sensors
	if arch.Sensors {
		var err error
		if sensors, err = s.newSensors(); err != nil {
			return ecs.Entity{}, err
		}
	}

	e := s.agentMapper.NewEntity(&pos, &vel, &rot, &body, &agent, &st)

	switch behavior {
	case components.BehaviorChase:
		s.targetMap.Add(e, &components.Target{})
		s.numChasers++
	case components.BehaviorEvade:
		s.threatMap.Add(e, &components.Threat{})
		s.numEvaders++
	}
	if sensors != nil {
		s.sensorsMap.Add(e, sensors)
	}
	return e, nil
}

// newSensors builds a whisker fan and range box from config and hooks the fan's
// notifications into a fresh event counter.
func (s *Sim) newSensors() (*components.Sensors, error) {
	cfg := s.cfg
	fan, err := whiskers.New(whiskers.Config{
		Geometry: whiskers.Geometry{
			Resolution:      cfg.Whiskers.Resolution,
			SemiConeDegrees: cfg.Whiskers.SemiConeDegrees,
			Range:           cfg.Whiskers.Range,
			MinimumRange:    cfg.Whiskers.MinimumRange,
		},
		Layers: cfg.Derived.WhiskerMask,
		Left:   cfg.Derived.WhiskerLeft,
		Right:  cfg.Derived.WhiskerRight,
	})
	if err != nil {
		return nil, err
	}

	rb := cfg.RangeBox
	box, err := rangebox.New(
		r2.Vec{X: rb.Width, Y: rb.Range},
		r2.Vec{X: rb.InitialOffset[0], Y: rb.InitialOffset[1]},
		cfg.Derived.Grow,
	)
	if err != nil {
		return nil, err
	}

	events := &components.SensorEvents{}
	fan.OnDetected(events.OnDetected)
	fan.OnUndetected(events.OnUndetected)

	return &components.Sensors{Whiskers: fan, Box: box, Events: events}, nil
}

// respawn moves a captured evader to a fresh spot and clears its motion and sensor state.
func (s *Sim) respawn(e ecs.Entity) {
	pos, vel, rot, body, _, st := s.agentMapper.Get(e)
	p := s.spawnPoint(body.Radius)
	pos.Set(p)
	*vel = components.Velocity{}
	rot.Heading = s.rng.Float64()*360 - 180
	rot.AngVel = 0
	*st = components.Steering{Arrival: steering.NewArrivalState(), Goal: rot.Heading}

	if s.threatMap.Has(e) {
		*s.threatMap.Get(e) = components.Threat{}
	}
	if s.sensorsMap.Has(e) {
		if sens := s.sensorsMap.Get(e); sens.Whiskers != nil {
			// Stale hits refer to where the agent was. Fans are frozen here, so the
			// rebuild lands at the start of the next sensor phase.
			sens.Whiskers.Populate()
			sens.InBox = sens.InBox[:0]
		}
	}
}
