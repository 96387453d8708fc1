package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chatroute/autotransfer/pkg/log"
)

var ts = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// createTestLogFile writes events to a temporary CBOR log file.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.cbor")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

// roomLifecycle is a scheduled-then-transferred sequence for R1 plus a
// cancelled timer for R2.
func roomLifecycle() []log.Event {
	scheduled := log.NewEvent(ts, log.SourceMonitor, log.KindScheduled, "R1").
		WithDeadline(ts.Add(5 * time.Second)).
		WithTimeout(5 * time.Second)
	transferred := log.NewEvent(ts.Add(5*time.Second), log.SourceMonitor, log.KindTransferred, "R1")
	transferred.TransferredBy = "alice"
	failed := log.NewEvent(ts.Add(6*time.Second), log.SourceMonitor, log.KindFailed, "R3")
	failed.Error = "transfer: no agent available"

	return []log.Event{
		log.NewEvent(ts.Add(-time.Second), log.SourceBridge, log.KindEnabled, "").WithTimeout(5 * time.Second),
		scheduled,
		log.NewEvent(ts.Add(time.Second), log.SourceMonitor, log.KindScheduled, "R2"),
		log.NewEvent(ts.Add(2*time.Second), log.SourceMonitor, log.KindCancelled, "R2"),
		log.NewEvent(ts.Add(5*time.Second), log.SourceMonitor, log.KindFired, "R1"),
		transferred,
		failed,
	}
}
