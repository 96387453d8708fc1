package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/chatroute/autotransfer/pkg/log"
)

// FilterOptions holds the filter flags shared by view, export, and filter.
type FilterOptions struct {
	RoomID    string
	Kind      string
	Source    string
	TimeStart string
	TimeEnd   string
}

// BuildFilter converts flag values to a log.Filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{RoomID: opts.RoomID}

	if opts.Kind != "" {
		k, ok := log.ParseKind(opts.Kind)
		if !ok {
			return log.Filter{}, fmt.Errorf("invalid kind: %s", opts.Kind)
		}
		filter.Kind = &k
	}

	if opts.Source != "" {
		s, ok := log.ParseSource(opts.Source)
		if !ok {
			return log.Filter{}, fmt.Errorf("invalid source: %s (use monitor or bridge)", opts.Source)
		}
		filter.Source = &s
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// RunFilter copies the events of path that match filter to output and
// returns how many were written.
func RunFilter(path, output string, filter log.Filter) (int, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}
	return count, nil
}
