package log

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is one monitor decision.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// ID uniquely identifies the event (UUID).
	ID string `cbor:"2,keyasint"`

	// Kind is what happened.
	Kind Kind `cbor:"3,keyasint"`

	// Source is the component that emitted the event.
	Source Source `cbor:"4,keyasint"`

	// RoomID is the room the event concerns. Empty for bridge state changes.
	RoomID string `cbor:"5,keyasint,omitempty"`

	// Deadline is when the timer fires (Scheduled, Replaced, Restored).
	Deadline *time.Time `cbor:"6,keyasint,omitempty"`

	// Timeout is the configured delay (Scheduled, Enabled).
	Timeout *time.Duration `cbor:"7,keyasint,omitempty"`

	// TransferredBy is the agent the room was taken from.
	TransferredBy string `cbor:"8,keyasint,omitempty"`

	// Reason explains a skip or a state change.
	Reason string `cbor:"9,keyasint,omitempty"`

	// Error is the failure message (Failed).
	Error string `cbor:"10,keyasint,omitempty"`
}

// NewEvent returns an event stamped with a fresh id and the given time.
func NewEvent(at time.Time, source Source, kind Kind, roomID string) Event {
	return Event{
		Timestamp: at,
		ID:        uuid.New().String(),
		Kind:      kind,
		Source:    source,
		RoomID:    roomID,
	}
}

// WithDeadline sets Deadline.
func (e Event) WithDeadline(t time.Time) Event {
	e.Deadline = &t
	return e
}

// WithTimeout sets Timeout.
func (e Event) WithTimeout(d time.Duration) Event {
	e.Timeout = &d
	return e
}

// Kind classifies an event.
type Kind uint8

const (
	// KindScheduled: a timer was armed for a room with no prior timer.
	KindScheduled Kind = 0
	// KindReplaced: a timer was armed over an existing one.
	KindReplaced Kind = 1
	// KindCancelled: a pending timer was cancelled.
	KindCancelled Kind = 2
	// KindFired: a timer expired and was claimed.
	KindFired Kind = 3
	// KindSkipped: a fired timer did not lead to a transfer.
	KindSkipped Kind = 4
	// KindTransferred: the transfer action succeeded.
	KindTransferred Kind = 5
	// KindFailed: the transfer action returned an error.
	KindFailed Kind = 6
	// KindEnabled: the mechanism was enabled or its timeout changed.
	KindEnabled Kind = 7
	// KindDisabled: the mechanism was disabled.
	KindDisabled Kind = 8
	// KindRestored: a timer was re-armed from a saved snapshot.
	KindRestored Kind = 9
)

var kindNames = map[Kind]string{
	KindScheduled:   "SCHEDULED",
	KindReplaced:    "REPLACED",
	KindCancelled:   "CANCELLED",
	KindFired:       "FIRED",
	KindSkipped:     "SKIPPED",
	KindTransferred: "TRANSFERRED",
	KindFailed:      "FAILED",
	KindEnabled:     "ENABLED",
	KindDisabled:    "DISABLED",
	KindRestored:    "RESTORED",
}

// String returns the kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, bool) {
	upper := strings.ToUpper(s)
	for k, name := range kindNames {
		if name == upper {
			return k, true
		}
	}
	return 0, false
}

// Source identifies the emitting component.
type Source uint8

const (
	// SourceMonitor is the auto-transfer monitor.
	SourceMonitor Source = 0
	// SourceBridge is the event bridge.
	SourceBridge Source = 1
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceMonitor:
		return "MONITOR"
	case SourceBridge:
		return "BRIDGE"
	default:
		return "UNKNOWN"
	}
}

// ParseSource parses a source name, case-insensitively.
func ParseSource(s string) (Source, bool) {
	switch strings.ToUpper(s) {
	case "MONITOR":
		return SourceMonitor, true
	case "BRIDGE":
		return SourceBridge, true
	default:
		return 0, false
	}
}
