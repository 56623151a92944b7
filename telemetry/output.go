package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/whiskers/config"
)

// AgentSample is one row of agents.csv: a snapshot of a single agent.
type AgentSample struct {
	Tick      int32   `csv:"tick"`
	ID        uint32  `csv:"id"`
	Archetype string  `csv:"archetype"`
	Behavior  string  `csv:"behavior"`
	X         float64 `csv:"x"`
	Y         float64 `csv:"y"`
	Heading   float64 `csv:"heading"`
	Speed     float64 `csv:"speed"`
	AngVel    float64 `csv:"ang_vel"`
	Phase     string  `csv:"phase"`
	Detected  int     `csv:"detected"` // distinct colliders in the whisker fan
	InBox     int     `csv:"in_box"`   // agents inside the range box
	Captures  int     `csv:"captures"`
}

// csvSink appends records to a file, writing the header only once.
type csvSink struct {
	f             *os.File
	headerWritten bool
}

func (s *csvSink) write(records any) error {
	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.f); err != nil {
			return err
		}
		s.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, s.f)
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir       string
	telemetry *csvSink
	perf      *csvSink
	events    *csvSink
	agents    *csvSink
}

var outputFiles = []string{"telemetry.csv", "perf.csv", "events.csv", "agents.csv"}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	sinks := make([]*csvSink, 0, len(outputFiles))
	for _, name := range outputFiles {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			for _, s := range sinks {
				s.f.Close()
			}
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		sinks = append(sinks, &csvSink{f: f})
	}

	return &OutputManager{
		dir:       dir,
		telemetry: sinks[0],
		perf:      sinks[1],
		events:    sinks[2],
		agents:    sinks[3],
	}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteEvents appends events to events.csv.
func (om *OutputManager) WriteEvents(events []Event) error {
	if om == nil || len(events) == 0 {
		return nil
	}
	if err := om.events.write(events); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// WriteAgents appends agent samples to agents.csv.
func (om *OutputManager) WriteAgents(samples []AgentSample) error {
	if om == nil || len(samples) == 0 {
		return nil
	}
	if err := om.agents.write(samples); err != nil {
		return fmt.Errorf("writing agents: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvSink{om.telemetry, om.perf, om.events, om.agents} {
		if s == nil {
			continue
		}
		if err := s.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
