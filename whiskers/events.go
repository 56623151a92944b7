package whiskers

import (
	"slices"

	"github.com/google/uuid"

	"github.com/pthm-cable/whiskers/physics"
)

type eventKind uint8

const (
	eventDetected eventKind = iota + 1
	eventUndetected
)

// Subscription identifies a registered listener. The zero value is not registered.
type Subscription struct {
	id   uuid.UUID
	kind eventKind
}

// ID returns the subscription's unique identifier.
func (s Subscription) ID() string { return s.id.String() }

// Valid reports whether s came from a subscribe call.
func (s Subscription) Valid() bool { return s.kind != 0 }

type detectedListener struct {
	id uuid.UUID
	fn func(physics.Hit)
}

type undetectedListener struct {
	id uuid.UUID
	fn func()
}

// listeners is a plain callback list; delivery is synchronous in the ticking goroutine.
// remove never writes into a slice that an emit may be ranging over, so a listener can
// unsubscribe from inside its own callback.
type listeners struct {
	detected   []detectedListener
	undetected []undetectedListener
}

func (l *listeners) addDetected(fn func(physics.Hit)) Subscription {
	id := uuid.New()
	l.detected = append(l.detected, detectedListener{id: id, fn: fn})
	return Subscription{id: id, kind: eventDetected}
}

func (l *listeners) addUndetected(fn func()) Subscription {
	id := uuid.New()
	l.undetected = append(l.undetected, undetectedListener{id: id, fn: fn})
	return Subscription{id: id, kind: eventUndetected}
}

func (l *listeners) remove(s Subscription) bool {
	switch s.kind {
	case eventDetected:
		for i, d := range l.detected {
			if d.id == s.id {
				l.detected = slices.Concat(l.detected[:i], l.detected[i+1:])
				return true
			}
		}
	case eventUndetected:
		for i, u := range l.undetected {
			if u.id == s.id {
				l.undetected = slices.Concat(l.undetected[:i], l.undetected[i+1:])
				return true
			}
		}
	}
	return false
}

func (l *listeners) emitDetected(h physics.Hit) {
	for _, d := range l.detected {
		d.fn(h)
	}
}

func (l *listeners) emitUndetected() {
	for _, u := range l.undetected {
		u.fn()
	}
}
