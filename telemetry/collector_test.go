package telemetry

import (
	"testing"

	"github.com/pthm-cable/whiskers/steering"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("window ticks = %d, want 10", c.WindowDurationTicks())
	}
	if c.ShouldFlush(9) {
		t.Error("should not flush before the window ends")
	}
	if !c.ShouldFlush(10) {
		t.Error("should flush at the window end")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.5)

	c.RecordCapture()
	c.RecordCapture()
	c.RecordDetections(5)
	c.RecordClears(1)
	c.RecordBoxContacts(3)
	for range 3 {
		c.RecordPhase(steering.PhaseAccelerate)
	}
	c.RecordPhase(steering.PhaseCruise)

	s := c.Flush(4, 2, 7, []float64{10, 20}, []float64{1, 2, 3})
	if s.WindowStartTick != 0 || s.WindowEndTick != 4 {
		t.Errorf("window = [%d, %d], want [0, 4]", s.WindowStartTick, s.WindowEndTick)
	}
	if s.SimTimeSec != 2 {
		t.Errorf("sim time = %v, want 2", s.SimTimeSec)
	}
	if s.Chasers != 2 || s.Evaders != 7 {
		t.Errorf("population = %d/%d, want 2/7", s.Chasers, s.Evaders)
	}
	if s.Captures != 2 || s.Detections != 5 || s.Clears != 1 || s.BoxContacts != 3 {
		t.Errorf("unexpected event counts: %+v", s)
	}
	if s.AccelerateFrac != 0.75 || s.CruiseFrac != 0.25 || s.IdleFrac != 0 {
		t.Errorf("unexpected phase fractions: accel=%v cruise=%v idle=%v", s.AccelerateFrac, s.CruiseFrac, s.IdleFrac)
	}
	if s.AngSpeedMean != 15 || s.SpeedMean != 2 {
		t.Errorf("unexpected means: ang=%v speed=%v", s.AngSpeedMean, s.SpeedMean)
	}

	next := c.Flush(8, 0, 0, nil, nil)
	if next.WindowStartTick != 4 {
		t.Errorf("next window start = %d, want 4", next.WindowStartTick)
	}
	if next.Captures != 0 || next.Detections != 0 || next.AccelerateFrac != 0 {
		t.Errorf("counters were not reset: %+v", next)
	}
}
