package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Chasers int `csv:"chasers"`
	Evaders int `csv:"evaders"`

	// Events during window
	Captures    int `csv:"captures"`
	Detections  int `csv:"detections"`   // whisker slot clear-to-hit transitions
	Clears      int `csv:"clears"`       // whisker fans that stopped detecting
	BoxContacts int `csv:"box_contacts"` // agents seen in range boxes, summed over ticks

	// Align phase occupancy, fraction of agent-ticks in each phase
	IdleFrac       float64 `csv:"idle_frac"`
	AccelerateFrac float64 `csv:"accelerate_frac"`
	DecelerateFrac float64 `csv:"decelerate_frac"`
	StopFrac       float64 `csv:"stop_frac"`
	CruiseFrac     float64 `csv:"cruise_frac"`

	// Angular speed distribution (sampled at window end, degrees per second)
	AngSpeedMean float64 `csv:"ang_speed_mean"`
	AngSpeedStd  float64 `csv:"ang_speed_std"`
	AngSpeedP50  float64 `csv:"ang_speed_p50"`
	AngSpeedP90  float64 `csv:"ang_speed_p90"`

	// Linear speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Spread summarises a sample.
type Spread struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeSpread calculates mean, population standard deviation, and percentiles.
func ComputeSpread(values []float64) Spread {
	n := len(values)
	if n == 0 {
		return Spread{}
	}

	mean := stat.Mean(values, nil)
	std := stat.PopStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Spread{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("chasers", s.Chasers),
		slog.Int("evaders", s.Evaders),
		slog.Int("captures", s.Captures),
		slog.Int("detections", s.Detections),
		slog.Int("clears", s.Clears),
		slog.Int("box_contacts", s.BoxContacts),
		slog.Float64("accelerate_frac", s.AccelerateFrac),
		slog.Float64("cruise_frac", s.CruiseFrac),
		slog.Float64("ang_speed_mean", s.AngSpeedMean),
		slog.Float64("ang_speed_std", s.AngSpeedStd),
		slog.Float64("speed_mean", s.SpeedMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"chasers", s.Chasers,
		"evaders", s.Evaders,
		"captures", s.Captures,
		"detections", s.Detections,
		"clears", s.Clears,
		"box_contacts", s.BoxContacts,
		"idle_frac", s.IdleFrac,
		"accelerate_frac", s.AccelerateFrac,
		"decelerate_frac", s.DecelerateFrac,
		"stop_frac", s.StopFrac,
		"cruise_frac", s.CruiseFrac,
		"ang_speed_mean", s.AngSpeedMean,
		"ang_speed_std", s.AngSpeedStd,
		"ang_speed_p90", s.AngSpeedP90,
		"speed_mean", s.SpeedMean,
		"speed_p50", s.SpeedP50,
	)
}
