package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/chatroute/autotransfer/pkg/log"
)

// Stats holds aggregate statistics about an event log.
type Stats struct {
	TotalEvents  int
	EventsByKind map[log.Kind]int
	Rooms        map[string]*RoomStats
	TimeRange    struct {
		Start time.Time
		End   time.Time
	}
}

// RoomStats holds statistics for one room.
type RoomStats struct {
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	Scheduled   int
	Cancelled   int
	Transferred int
	Failed      int
	Skipped     int
}

// CollectStats reads every event of path.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByKind: make(map[log.Kind]int),
		Rooms:        make(map[string]*RoomStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByKind[event.Kind]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.RoomID == "" {
			continue
		}
		room, ok := stats.Rooms[event.RoomID]
		if !ok {
			room = &RoomStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.Rooms[event.RoomID] = room
		}
		room.Events++
		if event.Timestamp.After(room.LastSeen) {
			room.LastSeen = event.Timestamp
		}
		switch event.Kind {
		case log.KindScheduled, log.KindReplaced, log.KindRestored:
			room.Scheduled++
		case log.KindCancelled:
			room.Cancelled++
		case log.KindTransferred:
			room.Transferred++
		case log.KindFailed:
			room.Failed++
		case log.KindSkipped:
			room.Skipped++
		}
	}
	return stats, nil
}

// RunStats prints statistics about path.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Auto-Transfer Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Kind:")
	for _, kind := range []log.Kind{
		log.KindScheduled, log.KindReplaced, log.KindCancelled, log.KindFired,
		log.KindSkipped, log.KindTransferred, log.KindFailed,
		log.KindEnabled, log.KindDisabled, log.KindRestored,
	} {
		if count := stats.EventsByKind[kind]; count > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", kind.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Rooms: %d\n", len(stats.Rooms))
	if len(stats.Rooms) == 0 {
		return
	}

	ids := make([]string, 0, len(stats.Rooms))
	for id := range stats.Rooms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := stats.Rooms[ids[i]], stats.Rooms[ids[j]]
		if a.FirstSeen.Equal(b.FirstSeen) {
			return ids[i] < ids[j]
		}
		return a.FirstSeen.Before(b.FirstSeen)
	})

	fmt.Fprintln(w)
	for _, id := range ids {
		r := stats.Rooms[id]
		fmt.Fprintf(w, "  [%s] %d events: scheduled %d, cancelled %d, transferred %d",
			id, r.Events, r.Scheduled, r.Cancelled, r.Transferred)
		if r.Failed > 0 {
			fmt.Fprintf(w, ", failed %d", r.Failed)
		}
		if r.Skipped > 0 {
			fmt.Fprintf(w, ", skipped %d", r.Skipped)
		}
		fmt.Fprintln(w)
	}
}
