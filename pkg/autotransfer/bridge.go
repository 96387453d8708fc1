package autotransfer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chatroute/autotransfer/pkg/hooks"
	"github.com/chatroute/autotransfer/pkg/livechat"
	"github.com/chatroute/autotransfer/pkg/log"
	"github.com/chatroute/autotransfer/pkg/settings"
)

// TimeoutSetting holds the no-response timeout in milliseconds. Zero,
// negative, or missing disables auto-transfer.
const TimeoutSetting = "Livechat_auto_transfer_chat_if_no_response_routing"

// Hook handler ids.
const (
	InquiryHookID = "livechat-livechat-auto-transfer-job-inquiry"
	MessageHookID = "livechat-cancel-auto-transfer-job"
)

// BridgeConfig configures a Bridge.
type BridgeConfig struct {
	// SettingKey overrides TimeoutSetting.
	SettingKey string

	// Unit is the unit of the setting value. Defaults to time.Millisecond.
	Unit time.Duration

	// Logger is the operational logger (optional).
	Logger *slog.Logger

	// EventLogger receives enable and disable events (optional).
	EventLogger log.Logger
}

// Bridge registers the monitor's hook handlers while the timeout
// setting is positive.
type Bridge struct {
	monitor  *Monitor
	hooks    *hooks.Registry
	settings *settings.Store
	rooms    livechat.RoomStore

	settingKey string
	unit       time.Duration

	logger      *slog.Logger
	eventLogger log.Logger

	// armMu orders arming a timer against a state change, so no timer
	// is armed once disable has cancelled the pending ones.
	armMu sync.Mutex

	mu      sync.Mutex
	started bool
	enabled bool
	timeout time.Duration
	unwatch func()
}

// NewBridge creates a stopped bridge.
func NewBridge(monitor *Monitor, hooks *hooks.Registry, settings *settings.Store, rooms livechat.RoomStore, cfg BridgeConfig) *Bridge {
	if cfg.SettingKey == "" {
		cfg.SettingKey = TimeoutSetting
	}
	if cfg.Unit <= 0 {
		cfg.Unit = time.Millisecond
	}
	return &Bridge{
		monitor:     monitor,
		hooks:       hooks,
		settings:    settings,
		rooms:       rooms,
		settingKey:  cfg.SettingKey,
		unit:        cfg.Unit,
		logger:      cfg.Logger,
		eventLogger: cfg.EventLogger,
	}
}

// Start watches the timeout setting. The current value is applied
// before Start returns.
func (b *Bridge) Start() {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	unwatch := b.settings.Watch(b.settingKey, b.onSettingChange)

	b.mu.Lock()
	b.unwatch = unwatch
	b.mu.Unlock()
}

// Stop stops watching the setting, removes the hook handlers, and
// cancels pending timers.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	unwatch := b.unwatch
	b.unwatch = nil
	b.started = false
	b.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	b.disable("bridge stopped")
}

// Enabled reports whether the hook handlers are registered.
func (b *Bridge) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Timeout returns the current timeout, or zero when disabled.
func (b *Bridge) Timeout() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timeout
}

func (b *Bridge) onSettingChange(_, value any) {
	if value == nil {
		b.disable("setting missing")
		return
	}
	timeout, err := settings.Duration(value, b.unit)
	if err != nil {
		b.warnLog("auto-transfer: invalid timeout setting", "key", b.settingKey, "value", value, "error", err)
		b.disable("setting not numeric")
		return
	}
	if timeout <= 0 {
		b.disable("setting not positive")
		return
	}
	b.enable(timeout)
}

func (b *Bridge) enable(timeout time.Duration) {
	b.armMu.Lock()
	defer b.armMu.Unlock()

	b.mu.Lock()
	wasEnabled, previous := b.enabled, b.timeout
	b.enabled = true
	b.timeout = timeout
	b.mu.Unlock()

	// Add replaces by id, so repeated enables keep one handler each.
	b.hooks.Add(livechat.HookAfterTakeInquiry, b.handleAfterTakeInquiry, hooks.PriorityMedium, InquiryHookID)
	b.hooks.Add(livechat.HookAfterSaveMessage, b.handleAfterSaveMessage, hooks.PriorityHigh, MessageHookID)

	if wasEnabled && previous == timeout {
		return
	}
	b.infoLog("auto-transfer enabled", "timeout", timeout)
	b.emit(log.NewEvent(b.monitor.clock.Now(), log.SourceBridge, log.KindEnabled, "").WithTimeout(timeout))
}

func (b *Bridge) disable(reason string) {
	b.armMu.Lock()
	b.mu.Lock()
	wasEnabled := b.enabled
	b.enabled = false
	b.timeout = 0
	b.mu.Unlock()

	b.hooks.Remove(livechat.HookAfterTakeInquiry, InquiryHookID)
	b.hooks.Remove(livechat.HookAfterSaveMessage, MessageHookID)
	cancelled := b.monitor.StopAll()
	b.armMu.Unlock()

	if !wasEnabled {
		return
	}
	b.infoLog("auto-transfer disabled", "reason", reason, "cancelled", cancelled)
	ev := log.NewEvent(b.monitor.clock.Now(), log.SourceBridge, log.KindDisabled, "")
	ev.Reason = reason
	b.emit(ev)
}

// handleAfterTakeInquiry starts monitoring the inquiry's room.
// args[0] is the taken *livechat.Inquiry.
func (b *Bridge) handleAfterTakeInquiry(ctx context.Context, args ...any) error {
	inquiry := inquiryArg(args)
	if inquiry == nil || inquiry.RoomID == "" {
		return nil
	}

	room, err := b.rooms.FindByID(ctx, inquiry.RoomID)
	if err != nil {
		b.debugLog("afterTakeInquiry: room lookup failed", "roomID", inquiry.RoomID, "error", err)
		return nil
	}
	if room.AutoTransferredAt != nil {
		return nil
	}

	b.armMu.Lock()
	defer b.armMu.Unlock()

	timeout := b.Timeout()
	if timeout <= 0 {
		return nil
	}
	b.monitor.MonitorRoom(room, timeout)
	return nil
}

// handleAfterSaveMessage stops monitoring when a human replies in a
// livechat room. args are the saved *livechat.Message and its
// *livechat.Room.
func (b *Bridge) handleAfterSaveMessage(_ context.Context, args ...any) error {
	message, room := messageArgs(args)
	if message == nil || room == nil || room.ID == "" {
		return nil
	}
	if !room.IsLivechat() || message.Token != "" {
		return nil
	}
	b.monitor.StopMonitoring(room.ID)
	return nil
}

func inquiryArg(args []any) *livechat.Inquiry {
	if len(args) == 0 {
		return nil
	}
	switch v := args[0].(type) {
	case *livechat.Inquiry:
		return v
	case livechat.Inquiry:
		return &v
	default:
		return nil
	}
}

func messageArgs(args []any) (*livechat.Message, *livechat.Room) {
	if len(args) < 2 {
		return nil, nil
	}

	var message *livechat.Message
	switch v := args[0].(type) {
	case *livechat.Message:
		message = v
	case livechat.Message:
		message = &v
	}

	var room *livechat.Room
	switch v := args[1].(type) {
	case *livechat.Room:
		room = v
	case livechat.Room:
		room = &v
	}
	return message, room
}

func (b *Bridge) emit(event log.Event) {
	if b.eventLogger != nil {
		b.eventLogger.Log(event)
	}
}

func (b *Bridge) debugLog(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *Bridge) infoLog(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Bridge) warnLog(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
