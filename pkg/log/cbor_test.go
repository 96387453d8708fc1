package log

import (
	"bytes"
	"testing"
	"time"
)

func TestEncodeDecodeFullEvent(t *testing.T) {
	at := time.Date(2026, 4, 2, 8, 30, 0, 123456789, time.UTC)
	event := NewEvent(at, SourceMonitor, KindFailed, "R1").
		WithDeadline(at.Add(2 * time.Second)).
		WithTimeout(2 * time.Second)
	event.TransferredBy = "alice"
	event.Reason = "transfer action failed"
	event.Error = "no agent available"

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if !got.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v (nanosecond precision)", got.Timestamp, at)
	}
	if got.ID != event.ID || got.Kind != KindFailed || got.Source != SourceMonitor || got.RoomID != "R1" {
		t.Errorf("header mismatch: %+v", got)
	}
	if got.Deadline == nil || !got.Deadline.Equal(*event.Deadline) {
		t.Errorf("Deadline = %v, want %v", got.Deadline, event.Deadline)
	}
	if got.Timeout == nil || *got.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v", got.Timeout)
	}
	if got.TransferredBy != "alice" || got.Reason != event.Reason || got.Error != event.Error {
		t.Errorf("detail mismatch: %+v", got)
	}
}

func TestEncodeOmitsEmptyFields(t *testing.T) {
	minimal, err := EncodeEvent(Event{Timestamp: time.Unix(0, 0).UTC(), ID: "x"})
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	full, err := EncodeEvent(NewEvent(time.Unix(0, 0).UTC(), SourceMonitor, KindSkipped, "room").WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	if len(minimal) >= len(full) {
		t.Errorf("minimal event (%d bytes) should be smaller than populated one (%d bytes)", len(minimal), len(full))
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i, kind := range []Kind{KindScheduled, KindCancelled, KindScheduled} {
		e := NewEvent(time.Unix(int64(i), 0).UTC(), SourceMonitor, kind, "R1")
		if err := enc.Encode(e); err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
	}

	dec := NewDecoder(&buf)
	var kinds []Kind
	for {
		var e Event
		if err := dec.Decode(&e); err != nil {
			break
		}
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) != 3 || kinds[1] != KindCancelled {
		t.Errorf("decoded kinds = %v", kinds)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("DecodeEvent() accepted garbage")
	}
}
