// Package commands implements the autotransfer-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/chatroute/autotransfer/pkg/log"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// RunView prints the events of path that match filter.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes one event as a header line plus indented details.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format(timestampLayout)
	room := event.RoomID
	if room == "" {
		room = "-"
	}
	fmt.Fprintf(w, "%s [room:%s] %-7s %s\n", ts, room, event.Source, event.Kind)

	if event.Timeout != nil {
		fmt.Fprintf(w, "  Timeout: %s\n", *event.Timeout)
	}
	if event.Deadline != nil {
		fmt.Fprintf(w, "  Deadline: %s", event.Deadline.UTC().Format(timestampLayout))
		if d := event.Deadline.Sub(event.Timestamp); d > 0 {
			fmt.Fprintf(w, " (in %s)", d.Round(time.Millisecond))
		}
		fmt.Fprintln(w)
	}
	if event.TransferredBy != "" {
		fmt.Fprintf(w, "  From: %s\n", event.TransferredBy)
	}
	if event.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", event.Reason)
	}
	if event.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", event.Error)
	}
	fmt.Fprintln(w)
}
