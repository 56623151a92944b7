// Package telemetry provides steering statistics, performance tracking, and CSV output.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventCapture EventType = iota // a chaser reached its target
	EventDetect                   // a whisker fan went from clear to detecting
	EventClear                    // a whisker fan stopped detecting anything
)

var eventNames = [...]string{"capture", "detect", "clear"}

// String returns the event name used in events.csv.
func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event represents a single telemetry event.
type Event struct {
	Type     EventType `csv:"-"`
	Name     string    `csv:"event"`
	Tick     int32     `csv:"tick"`
	EntityID uint32    `csv:"entity"`
	TargetID uint32    `csv:"target"` // captured agent; zero otherwise
}

// NewCaptureEvent creates a capture event.
func NewCaptureEvent(tick int32, chaserID, evaderID uint32) Event {
	return Event{Type: EventCapture, Name: EventCapture.String(), Tick: tick, EntityID: chaserID, TargetID: evaderID}
}

// NewDetectEvent creates a whisker detection event.
func NewDetectEvent(tick int32, entityID uint32) Event {
	return Event{Type: EventDetect, Name: EventDetect.String(), Tick: tick, EntityID: entityID}
}

// NewClearEvent creates a whisker cleared event.
func NewClearEvent(tick int32, entityID uint32) Event {
	return Event{Type: EventClear, Name: EventClear.String(), Tick: tick, EntityID: entityID}
}
