package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/whiskers/components"
	"github.com/pthm-cable/whiskers/physics"
)

// SensorConfig holds the range box tuning shared by every agent.
type SensorConfig struct {
	BoxRange   float64 // range at rest
	SpeedScale float64 // extra range per unit of speed
	BoxMask    physics.LayerMask
}

// SensorSystem ticks every whisker fan against the collider world and refreshes each
// agent's range box overlap.
type SensorSystem struct {
	filter *ecs.Filter5[components.Position, components.Velocity, components.Rotation, components.Agent, components.Sensors]
	world  *physics.World
	cfg    SensorConfig
}

// NewSensorSystem creates a sensor system.
func NewSensorSystem(w *ecs.World, world *physics.World, cfg SensorConfig) *SensorSystem {
	return &SensorSystem{
		filter: ecs.NewFilter5[components.Position, components.Velocity, components.Rotation, components.Agent, components.Sensors](w),
		world:  world,
		cfg:    cfg,
	}
}

// Update runs the sensor system.
func (s *SensorSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, rot, agent, sens := query.Get()
		frame := physics.Frame{Position: pos.Vec(), Rotation: rot.Heading}

		if sens.Whiskers != nil {
			sens.Whiskers.Tick(frame, s.world)
		}

		if sens.Box == nil {
			continue
		}
		// Box errors only on negative sizes, which speed cannot produce.
		_ = sens.Box.SetRange(s.cfg.BoxRange + velocityMagnitude(vel.X, vel.Y)*s.cfg.SpeedScale)

		sens.InBox = sens.InBox[:0]
		for _, id := range s.world.OverlapBox(frame, sens.Box.Offset, sens.Box.Size, s.cfg.BoxMask) {
			if id != agent.Collider {
				sens.InBox = append(sens.InBox, id)
			}
		}
	}
}
