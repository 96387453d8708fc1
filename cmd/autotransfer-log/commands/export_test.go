package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/chatroute/autotransfer/pkg/log"
)

func TestExportJSONL(t *testing.T) {
	path := createTestLogFile(t, roomLifecycle())

	var buf bytes.Buffer
	if err := RunExport(path, "jsonl", log.Filter{RoomID: "R1"}, &buf); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}

	var first Record
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first.Kind != "SCHEDULED" || first.Source != "MONITOR" || first.RoomID != "R1" {
		t.Errorf("unexpected record: %+v", first)
	}
	if first.TimeoutMS == nil || *first.TimeoutMS != 5000 {
		t.Errorf("TimeoutMS = %v, want 5000", first.TimeoutMS)
	}

	var last Record
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if last.TransferredBy != "alice" {
		t.Errorf("TransferredBy = %q, want alice", last.TransferredBy)
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestLogFile(t, roomLifecycle())

	var buf bytes.Buffer
	if err := RunExport(path, "csv", log.Filter{}, &buf); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 1+len(roomLifecycle()) {
		t.Fatalf("got %d rows, want header plus %d", len(rows), len(roomLifecycle()))
	}
	if rows[0][0] != "timestamp" || rows[0][2] != "kind" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[2][2] != "SCHEDULED" || rows[2][4] != "R1" || rows[2][6] != "5000" {
		t.Errorf("unexpected row: %v", rows[2])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, roomLifecycle())

	err := RunExport(path, "xml", log.Filter{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}
