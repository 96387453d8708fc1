package autotransfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatroute/autotransfer/pkg/clock"
	"github.com/chatroute/autotransfer/pkg/livechat"
	"github.com/chatroute/autotransfer/pkg/log"
	"github.com/chatroute/autotransfer/pkg/persistence"
	"github.com/chatroute/autotransfer/pkg/timer"
)

// Default timing values.
const (
	DefaultTransferTimeout = 30 * time.Second
	DefaultRestoreGrace    = time.Second
)

// Skip reasons recorded on KindSkipped events.
const (
	ReasonRoomNotFound       = "room not found"
	ReasonRoomClosed         = "room closed"
	ReasonAlreadyTransferred = "already auto-transferred"
)

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// Clock is the time source. Defaults to clock.Real().
	Clock clock.Clock

	// Context is the parent of the context passed to transfers. Its
	// cancellation aborts in-flight transfers. Defaults to
	// context.Background().
	Context context.Context

	// TransferTimeout bounds the room lookup and transfer run when a
	// timer fires.
	TransferTimeout time.Duration

	// RestoreGrace is the delay used for restored timers whose deadline
	// passed while the process was down.
	RestoreGrace time.Duration

	// Logger is the operational logger (optional).
	Logger *slog.Logger

	// EventLogger receives one event per monitor decision (optional).
	EventLogger log.Logger
}

// Monitor schedules auto-transfers per room.
type Monitor struct {
	rooms    livechat.RoomStore
	transfer livechat.Transferer
	timers   *timer.Registry

	clock           clock.Clock
	transferTimeout time.Duration
	restoreGrace    time.Duration

	logger      *slog.Logger
	eventLogger log.Logger
}

// NewMonitor creates a monitor with no pending timers.
func NewMonitor(rooms livechat.RoomStore, transfer livechat.Transferer, cfg MonitorConfig) *Monitor {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.TransferTimeout <= 0 {
		cfg.TransferTimeout = DefaultTransferTimeout
	}
	if cfg.RestoreGrace <= 0 {
		cfg.RestoreGrace = DefaultRestoreGrace
	}

	if cfg.Context == nil {
		cfg.Context = context.Background()
	}

	m := &Monitor{
		rooms:           rooms,
		transfer:        transfer,
		timers:          timer.NewRegistry(timer.WithClock(cfg.Clock), timer.WithContext(cfg.Context)),
		clock:           cfg.Clock,
		transferTimeout: cfg.TransferTimeout,
		restoreGrace:    cfg.RestoreGrace,
		logger:          cfg.Logger,
		eventLogger:     cfg.EventLogger,
	}
	m.timers.OnFire(func(e timer.Entry) {
		m.emit(log.NewEvent(m.clock.Now(), log.SourceMonitor, log.KindFired, e.ID).WithDeadline(e.Deadline))
	})
	return m
}

// StartMonitoring arms the auto-transfer timer for roomID. A timer
// already pending for the room is replaced. An empty id or a
// non-positive timeout is ignored. The transfer is attributed to the
// agent serving the room when the timer fires.
func (m *Monitor) StartMonitoring(roomID string, timeout time.Duration) {
	m.start(roomID, "", timeout)
}

// MonitorRoom is StartMonitoring for a room already loaded by the
// caller. The transfer is attributed to the agent serving the room now,
// so a reassignment before the deadline does not change it.
func (m *Monitor) MonitorRoom(room *livechat.Room, timeout time.Duration) {
	if room == nil {
		return
	}
	var servedBy string
	if room.ServedBy != nil {
		servedBy = room.ServedBy.Username
	}
	m.start(room.ID, servedBy, timeout)
}

func (m *Monitor) start(roomID, servedBy string, timeout time.Duration) {
	if roomID == "" || timeout <= 0 {
		return
	}

	now := m.clock.Now()
	replaced, err := m.schedule(roomID, servedBy, timeout)
	if err != nil {
		m.debugLog("StartMonitoring: not scheduled", "roomID", roomID, "error", err)
		return
	}

	kind := log.KindScheduled
	if replaced {
		kind = log.KindReplaced
	}
	m.debugLog("StartMonitoring", "roomID", roomID, "timeout", timeout, "replaced", replaced)
	ev := log.NewEvent(now, log.SourceMonitor, kind, roomID).
		WithDeadline(now.Add(timeout)).
		WithTimeout(timeout)
	ev.TransferredBy = servedBy
	m.emit(ev)
}

func (m *Monitor) schedule(roomID, servedBy string, delay time.Duration) (bool, error) {
	return m.timers.ScheduleData(roomID, delay, servedBy, func(ctx context.Context, id string) {
		m.fireAutoTransfer(ctx, id, servedBy)
	})
}

// StopMonitoring cancels the pending timer for roomID, if any.
func (m *Monitor) StopMonitoring(roomID string) {
	if roomID == "" {
		return
	}
	if m.timers.Cancel(roomID) {
		m.debugLog("StopMonitoring", "roomID", roomID)
		m.emit(log.NewEvent(m.clock.Now(), log.SourceMonitor, log.KindCancelled, roomID))
	}
}

// StopAll cancels every pending timer in one step and returns how many
// were cancelled.
func (m *Monitor) StopAll() int {
	cancelled := m.timers.CancelAll()
	now := m.clock.Now()
	for _, e := range cancelled {
		m.emit(log.NewEvent(now, log.SourceMonitor, log.KindCancelled, e.ID))
	}
	if len(cancelled) > 0 {
		m.debugLog("StopAll", "cancelled", len(cancelled))
	}
	return len(cancelled)
}

// IsMonitoring reports whether roomID has a pending timer.
func (m *Monitor) IsMonitoring(roomID string) bool {
	return m.timers.IsScheduled(roomID)
}

// Pending returns the pending timers ordered by deadline.
func (m *Monitor) Pending() []timer.Entry {
	return m.timers.Entries()
}

// Snapshot returns the pending timers as a saveable state.
func (m *Monitor) Snapshot() persistence.MonitorState {
	now := m.clock.Now()
	state := persistence.MonitorState{
		Version: persistence.StateVersion,
		SavedAt: now,
	}
	for _, e := range m.timers.Entries() {
		servedBy, _ := e.Data.(string)
		state.Pending = append(state.Pending, persistence.PendingTransfer{
			RoomID:        e.ID,
			ScheduledAt:   e.ScheduledAt,
			Deadline:      e.Deadline,
			Remaining:     e.Remaining(now),
			TransferredBy: servedBy,
		})
	}
	return state
}

// Restore re-arms the timers in state, keeping their original deadlines.
// Deadlines that already passed fire after RestoreGrace. It returns the
// number of timers armed.
func (m *Monitor) Restore(state *persistence.MonitorState) int {
	if state == nil {
		return 0
	}

	now := m.clock.Now()
	n := 0
	for _, p := range state.Pending {
		if p.RoomID == "" {
			continue
		}
		delay := p.Deadline.Sub(now)
		if delay <= 0 {
			delay = m.restoreGrace
		}
		if _, err := m.schedule(p.RoomID, p.TransferredBy, delay); err != nil {
			m.debugLog("Restore: not scheduled", "roomID", p.RoomID, "error", err)
			break
		}
		n++
		m.emit(log.NewEvent(now, log.SourceMonitor, log.KindRestored, p.RoomID).
			WithDeadline(now.Add(delay)))
	}
	if n > 0 {
		m.debugLog("Restore", "restored", n)
	}
	return n
}

// Close cancels every pending timer. Later StartMonitoring calls are
// ignored.
func (m *Monitor) Close() {
	m.timers.Close()
}

// fireAutoTransfer runs when a room's timer expires. servedBy is the
// agent captured when the timer was armed; when empty the room's
// current agent is used. Every outcome is logged; nothing is returned
// to the timer registry.
func (m *Monitor) fireAutoTransfer(ctx context.Context, roomID, servedBy string) {
	defer func() {
		if r := recover(); r != nil {
			m.fail(roomID, "", fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, m.transferTimeout)
	defer cancel()

	room, err := m.rooms.FindByID(ctx, roomID)
	if errors.Is(err, livechat.ErrRoomNotFound) {
		m.skip(roomID, ReasonRoomNotFound)
		return
	}
	if err != nil {
		m.fail(roomID, "", fmt.Errorf("find room: %w", err))
		return
	}
	if !room.Open {
		m.skip(roomID, ReasonRoomClosed)
		return
	}
	if room.AutoTransferredAt != nil {
		m.skip(roomID, ReasonAlreadyTransferred)
		return
	}

	transferredBy := servedBy
	if transferredBy == "" && room.ServedBy != nil {
		transferredBy = room.ServedBy.Username
	}

	if err := m.transfer.Transfer(ctx, roomID, transferredBy); err != nil {
		m.fail(roomID, transferredBy, fmt.Errorf("transfer: %w", err))
		return
	}

	if err := m.rooms.SetAutoTransferredAt(ctx, roomID, m.clock.Now()); err != nil {
		// The transfer happened; only the mark is missing.
		m.warnLog("auto-transfer: mark room failed", "roomID", roomID, "error", err)
	}

	m.debugLog("auto-transfer: transferred", "roomID", roomID, "transferredBy", transferredBy)
	ev := log.NewEvent(m.clock.Now(), log.SourceMonitor, log.KindTransferred, roomID)
	ev.TransferredBy = transferredBy
	m.emit(ev)
}

func (m *Monitor) skip(roomID, reason string) {
	m.debugLog("auto-transfer: skipped", "roomID", roomID, "reason", reason)
	ev := log.NewEvent(m.clock.Now(), log.SourceMonitor, log.KindSkipped, roomID)
	ev.Reason = reason
	m.emit(ev)
}

func (m *Monitor) fail(roomID, transferredBy string, err error) {
	m.warnLog("auto-transfer: failed", "roomID", roomID, "error", err)
	ev := log.NewEvent(m.clock.Now(), log.SourceMonitor, log.KindFailed, roomID)
	ev.TransferredBy = transferredBy
	ev.Error = err.Error()
	m.emit(ev)
}

func (m *Monitor) emit(event log.Event) {
	if m.eventLogger != nil {
		m.eventLogger.Log(event)
	}
}

func (m *Monitor) debugLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Monitor) warnLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
