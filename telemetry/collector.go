package telemetry

import "github.com/pthm-cable/whiskers/steering"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	captures    int
	detections  int
	clears      int
	boxContacts int
	phaseTicks  [steering.PhaseCruise + 1]int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordCapture records a chaser reaching its target.
func (c *Collector) RecordCapture() {
	c.captures++
}

// RecordDetections adds whisker clear-to-hit transitions.
func (c *Collector) RecordDetections(n int) {
	c.detections += n
}

// RecordClears adds whisker fans that stopped detecting.
func (c *Collector) RecordClears(n int) {
	c.clears += n
}

// RecordBoxContacts adds agents seen inside a range box this tick.
func (c *Collector) RecordBoxContacts(n int) {
	c.boxContacts += n
}

// RecordPhase counts one agent-tick spent in phase.
func (c *Collector) RecordPhase(p steering.Phase) {
	if int(p) < len(c.phaseTicks) {
		c.phaseTicks[p]++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller provides the population counts and per-agent speed samples taken at window end.
func (c *Collector) Flush(currentTick int32, chasers, evaders int, angularSpeeds, speeds []float64) WindowStats {
	var phaseTotal int
	for _, n := range c.phaseTicks {
		phaseTotal += n
	}
	frac := func(p steering.Phase) float64 {
		if phaseTotal == 0 {
			return 0
		}
		return float64(c.phaseTicks[p]) / float64(phaseTotal)
	}

	ang := ComputeSpread(angularSpeeds)
	lin := ComputeSpread(speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Chasers: chasers,
		Evaders: evaders,

		Captures:    c.captures,
		Detections:  c.detections,
		Clears:      c.clears,
		BoxContacts: c.boxContacts,

		IdleFrac:       frac(steering.PhaseIdle),
		AccelerateFrac: frac(steering.PhaseAccelerate),
		DecelerateFrac: frac(steering.PhaseDecelerate),
		StopFrac:       frac(steering.PhaseStop),
		CruiseFrac:     frac(steering.PhaseCruise),

		AngSpeedMean: ang.Mean,
		AngSpeedStd:  ang.Std,
		AngSpeedP50:  ang.P50,
		AngSpeedP90:  ang.P90,

		SpeedMean: lin.Mean,
		SpeedStd:  lin.Std,
		SpeedP10:  lin.P10,
		SpeedP50:  lin.P50,
		SpeedP90:  lin.P90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.captures = 0
	c.detections = 0
	c.clears = 0
	c.boxContacts = 0
	c.phaseTicks = [len(c.phaseTicks)]int{}

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
