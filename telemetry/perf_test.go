package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialGrid)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseSteering)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseSpatialGrid]; !ok {
		t.Error("expected spatial_grid phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseSteering]; !ok {
		t.Error("expected steering phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialGrid)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(time.Millisecond)
		pc.StartPhase("slow")
		time.Sleep(10 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]

	// Sleeps are well above timer granularity
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_PhasePercentageArithmetic(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.samples[0] = PerfSample{
		TickDuration: 4 * time.Millisecond,
		Phases:       map[string]time.Duration{PhaseSensors: 3 * time.Millisecond, PhasePhysics: time.Millisecond},
	}
	pc.samples[1] = PerfSample{
		TickDuration: 2 * time.Millisecond,
		Phases:       map[string]time.Duration{PhaseSensors: time.Millisecond, PhasePhysics: time.Millisecond},
	}
	pc.sampleCount = 2

	stats := pc.Stats()
	if stats.AvgTickDuration != 3*time.Millisecond {
		t.Errorf("avg tick wrong: got %v, want 3ms", stats.AvgTickDuration)
	}
	if stats.MinTickDuration != 2*time.Millisecond || stats.MaxTickDuration != 4*time.Millisecond {
		t.Errorf("min/max wrong: got %v/%v", stats.MinTickDuration, stats.MaxTickDuration)
	}
	want := map[string]float64{PhaseSensors: 2.0 / 3 * 100, PhasePhysics: 1.0 / 3 * 100}
	for phase, pct := range want {
		if got := stats.PhasePct[phase]; got < pct-1e-6 || got > pct+1e-6 {
			t.Errorf("%s pct wrong: got %f, want %f", phase, got, pct)
		}
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 250 * time.Microsecond,
		TicksPerSecond:  4000,
		PhasePct:        map[string]float64{PhaseSensors: 42.5, PhasePhysics: 10},
	}

	row := s.ToCSV(120)
	if row.WindowEnd != 120 || row.AvgTickUS != 250 {
		t.Errorf("unexpected header fields: %+v", row)
	}
	if row.SensorsPct != 42.5 || row.PhysicsPct != 10 {
		t.Errorf("phase percentages not copied: %+v", row)
	}
	if row.SteeringPct != 0 {
		t.Errorf("missing phase should be zero, got %v", row.SteeringPct)
	}
}
