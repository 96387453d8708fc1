package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("event_id", event.ID),
		slog.String("kind", event.Kind.String()),
		slog.String("source", event.Source.String()),
	}

	if event.RoomID != "" {
		attrs = append(attrs, slog.String("room_id", event.RoomID))
	}
	if event.Deadline != nil {
		attrs = append(attrs, slog.Time("deadline", *event.Deadline))
	}
	if event.Timeout != nil {
		attrs = append(attrs, slog.Duration("timeout", *event.Timeout))
	}
	if event.TransferredBy != "" {
		attrs = append(attrs, slog.String("transferred_by", event.TransferredBy))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "autotransfer", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
