package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/whiskers/config"
)

func TestNilOutputManager(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("empty dir should disable output, got %v, %v", om, err)
	}

	// every method is a no-op on nil
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteEvents([]Event{NewClearEvent(1, 2)}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager should report empty dir")
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}

	for i := int32(1); i <= 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: i * 10, Captures: int(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteEvents([]Event{NewCaptureEvent(5, 1, 2), NewDetectEvent(6, 3)}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteEvents(nil); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteAgents([]AgentSample{{Tick: 30, ID: 4, Archetype: "runner", Phase: "cruise"}}); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(PerfStats{PhasePct: map[string]float64{}}, 60); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, filepath.Join(dir, "telemetry.csv"))
	if len(lines) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time,chasers") {
		t.Errorf("unexpected telemetry header %q", lines[0])
	}

	events := readLines(t, filepath.Join(dir, "events.csv"))
	if len(events) != 3 {
		t.Fatalf("events.csv has %d lines, want header + 2", len(events))
	}
	if events[0] != "event,tick,entity,target" {
		t.Errorf("unexpected events header %q", events[0])
	}
	if events[1] != "capture,5,1,2" {
		t.Errorf("unexpected capture row %q", events[1])
	}

	agents := readLines(t, filepath.Join(dir, "agents.csv"))
	if len(agents) != 2 || !strings.Contains(agents[1], "runner") {
		t.Errorf("unexpected agents.csv: %v", agents)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
