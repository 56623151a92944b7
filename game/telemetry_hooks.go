package game

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/whiskers/telemetry"
)

// recordTick drains per-agent sensor counters into the collector and event log.
func (s *Sim) recordTick() {
	query := s.agentFilter.Query()
	for query.Next() {
		e := query.Entity()
		_, _, _, _, agent, st := query.Get()
		s.collector.RecordPhase(st.Arrival.Phase)

		if !s.sensorsMap.Has(e) {
			continue
		}
		sens := s.sensorsMap.Get(e)
		s.collector.RecordBoxContacts(len(sens.InBox))

		ev := sens.Events
		if ev == nil {
			continue
		}
		s.collector.RecordDetections(ev.Detected)
		s.collector.RecordClears(ev.Undetected)
		for range ev.Began {
			s.pendingEvents = append(s.pendingEvents, telemetry.NewDetectEvent(s.tick, agent.ID))
		}
		for range ev.Undetected {
			s.pendingEvents = append(s.pendingEvents, telemetry.NewClearEvent(s.tick, agent.ID))
		}
		ev.Reset()
	}

	if every := s.cfg.Telemetry.SampleEvery; every > 0 && s.tick%int32(every) == 0 {
		if err := s.outputManager.WriteAgents(s.sampleAgents()); err != nil {
			slog.Error("failed to write agents", "error", err)
		}
	}
}

// sampleAgents snapshots every agent for agents.csv.
func (s *Sim) sampleAgents() []telemetry.AgentSample {
	if s.outputManager == nil {
		return nil
	}
	var samples []telemetry.AgentSample
	query := s.agentFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos, vel, rot, _, agent, st := query.Get()

		sample := telemetry.AgentSample{
			Tick:      s.tick,
			ID:        agent.ID,
			Archetype: s.cfg.Archetypes[agent.Archetype].Name,
			Behavior:  agent.Behavior.String(),
			X:         pos.X,
			Y:         pos.Y,
			Heading:   rot.Heading,
			Speed:     speed(vel.X, vel.Y),
			AngVel:    rot.AngVel,
			Phase:     st.Arrival.Phase.String(),
			Captures:  agent.Captures,
		}
		if s.sensorsMap.Has(e) {
			sens := s.sensorsMap.Get(e)
			if sens.Whiskers != nil {
				sample.Detected = len(sens.Whiskers.DetectedSet())
			}
			sample.InBox = len(sens.InBox)
		}
		samples = append(samples, sample)
	}
	return samples
}

// sampleSpeeds collects linear and angular speed magnitudes for the window stats.
func (s *Sim) sampleSpeeds() (angular, linear []float64) {
	query := s.agentFilter.Query()
	for query.Next() {
		_, vel, rot, _, _, _ := query.Get()
		linear = append(linear, speed(vel.X, vel.Y))
		angular = append(angular, math.Abs(rot.AngVel))
	}
	return angular, linear
}

// flushTelemetry checks if the stats window should be flushed.
func (s *Sim) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	angular, linear := s.sampleSpeeds()
	stats := s.collector.Flush(s.tick, s.numChasers, s.numEvaders, angular, linear)
	perfStats := s.perfCollector.Stats()

	// Call stats callback if provided
	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if s.outputManager != nil {
		if err := s.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := s.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := s.outputManager.WriteEvents(s.pendingEvents); err != nil {
			slog.Error("failed to write events", "error", err)
		}
	}
	s.pendingEvents = s.pendingEvents[:0]
}
