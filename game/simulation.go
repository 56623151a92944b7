package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/whiskers/telemetry"
)

// Step advances the simulation by one tick.
func (s *Sim) Step() {
	s.perfCollector.StartTick()

	s.perfCollector.StartPhase(telemetry.PhaseThreat)
	s.threat.Update(s.world)

	// Fans are frozen from the end of sensing until the next sensor phase. Respawns and
	// retunes in between are applied when they thaw.
	s.perfCollector.StartPhase(telemetry.PhaseSensors)
	s.setSensorsFrozen(false)
	s.sensors.Update(s.world)
	s.setSensorsFrozen(true)

	s.perfCollector.StartPhase(telemetry.PhaseSteering)
	s.steering.Update(s.world)

	s.perfCollector.StartPhase(telemetry.PhasePhysics)
	s.physics.Update(s.world)

	s.perfCollector.StartPhase(telemetry.PhaseCapture)
	s.resolveCaptures()

	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	s.recordTick()

	s.perfCollector.EndTick()

	s.tick++
	s.flushTelemetry()
}

// Run steps the simulation n times.
func (s *Sim) Run(n int) {
	for range n {
		s.Step()
	}
}

// setSensorsFrozen freezes or thaws every whisker fan.
func (s *Sim) setSensorsFrozen(frozen bool) {
	query := s.sensorFilter.Query()
	for query.Next() {
		_, sens := query.Get()
		if sens.Whiskers == nil {
			continue
		}
		if frozen {
			sens.Whiskers.Freeze()
		} else {
			sens.Whiskers.Thaw()
		}
	}
}

type capture struct {
	chaser, evader ecs.Entity
}

// resolveCaptures counts chasers within capture range of their target and respawns the
// caught evaders. An evader is caught at most once per tick. A chaser that scores drops
// its target and picks a new one next tick.
func (s *Sim) resolveCaptures() {
	radius := s.cfg.Population.CaptureRadius
	var caught []capture
	taken := make(map[ecs.Entity]bool)

	query := s.agentFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos, _, _, body, _, _ := query.Get()
		if !s.targetMap.Has(e) {
			continue
		}
		target := s.targetMap.Get(e)
		if target.Entity.IsZero() || !s.world.Alive(target.Entity) {
			continue
		}
		tp := s.posMap.Get(target.Entity)
		dx, dy := tp.X-pos.X, tp.Y-pos.Y
		reach := radius + body.Radius
		if dx*dx+dy*dy <= reach*reach && !taken[target.Entity] {
			taken[target.Entity] = true
			caught = append(caught, capture{chaser: e, evader: target.Entity})
		}
	}

	for _, c := range caught {
		chaser := s.agentMap.Get(c.chaser)
		evader := s.agentMap.Get(c.evader)
		chaser.Captures++
		evader.Captures++
		s.targetMap.Get(c.chaser).Entity = ecs.Entity{}

		s.respawn(c.evader)
		s.totalCaught++
		s.collector.RecordCapture()
		s.pendingEvents = append(s.pendingEvents, telemetry.NewCaptureEvent(s.tick, chaser.ID, evader.ID))
	}

	if len(caught) > 0 {
		s.physics.SyncColliders()
	}
}
