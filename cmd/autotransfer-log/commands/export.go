package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/chatroute/autotransfer/pkg/log"
)

// Record is the JSON form of an event.
type Record struct {
	Timestamp     time.Time  `json:"timestamp"`
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Source        string     `json:"source"`
	RoomID        string     `json:"room_id,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	TimeoutMS     *int64     `json:"timeout_ms,omitempty"`
	TransferredBy string     `json:"transferred_by,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// NewRecord converts an event.
func NewRecord(event log.Event) Record {
	r := Record{
		Timestamp:     event.Timestamp.UTC(),
		ID:            event.ID,
		Kind:          event.Kind.String(),
		Source:        event.Source.String(),
		RoomID:        event.RoomID,
		Deadline:      event.Deadline,
		TransferredBy: event.TransferredBy,
		Reason:        event.Reason,
		Error:         event.Error,
	}
	if event.Timeout != nil {
		ms := event.Timeout.Milliseconds()
		r.TimeoutMS = &ms
	}
	return r
}

// RunExport writes the events of path that match filter to w in format
// jsonl or csv.
func RunExport(path, format string, filter log.Filter, w io.Writer) error {
	var write func(*log.Reader, io.Writer) error
	switch format {
	case "jsonl":
		write = exportJSONL
	case "csv":
		write = exportCSV
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	return write(reader, w)
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(NewRecord(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "id", "kind", "source", "room_id", "deadline", "timeout_ms", "transferred_by", "reason", "error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		r := NewRecord(event)
		deadline, timeout := "", ""
		if r.Deadline != nil {
			deadline = r.Deadline.UTC().Format(timestampLayout)
		}
		if r.TimeoutMS != nil {
			timeout = fmt.Sprintf("%d", *r.TimeoutMS)
		}
		row := []string{
			r.Timestamp.Format(timestampLayout),
			r.ID,
			r.Kind,
			r.Source,
			r.RoomID,
			deadline,
			timeout,
			r.TransferredBy,
			r.Reason,
			r.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
