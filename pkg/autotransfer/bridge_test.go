package autotransfer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatroute/autotransfer/pkg/clock"
	"github.com/chatroute/autotransfer/pkg/hooks"
	"github.com/chatroute/autotransfer/pkg/livechat"
	"github.com/chatroute/autotransfer/pkg/log"
	"github.com/chatroute/autotransfer/pkg/settings"
)

type bridgeFixture struct {
	*monitorFixture
	hooks    *hooks.Registry
	settings *settings.Store
	bridge   *Bridge
}

func newBridgeFixture(t *testing.T, seed map[string]any, rooms ...*livechat.Room) *bridgeFixture {
	t.Helper()
	mf := newMonitorFixture(t, rooms...)
	f := &bridgeFixture{
		monitorFixture: mf,
		hooks:          hooks.NewRegistry(nil),
		settings:       settings.FromMap(seed),
	}
	f.bridge = NewBridge(mf.monitor, f.hooks, f.settings, mf.rooms, BridgeConfig{EventLogger: mf.events})
	f.bridge.Start()
	t.Cleanup(f.bridge.Stop)
	return f
}

func (f *bridgeFixture) takeInquiry(t *testing.T, roomID string) {
	t.Helper()
	inquiry := &livechat.Inquiry{ID: "inq-" + roomID, RoomID: roomID}
	require.NoError(t, f.hooks.Run(context.Background(), livechat.HookAfterTakeInquiry, inquiry))
}

func (f *bridgeFixture) saveMessage(t *testing.T, roomID, token string) {
	t.Helper()
	room, err := f.rooms.FindByID(context.Background(), roomID)
	require.NoError(t, err)
	msg := &livechat.Message{ID: "m-" + roomID, RoomID: roomID, Text: "hi", Token: token}
	require.NoError(t, f.hooks.Run(context.Background(), livechat.HookAfterSaveMessage, msg, room))
}

func timeoutSeed(v any) map[string]any {
	return map[string]any{TimeoutSetting: v}
}

func TestBridgeSettingValues(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		enabled bool
		timeout time.Duration
	}{
		{name: "int", value: 5000, enabled: true, timeout: 5 * time.Second},
		{name: "int64", value: int64(1500), enabled: true, timeout: 1500 * time.Millisecond},
		{name: "float", value: 2000.0, enabled: true, timeout: 2 * time.Second},
		{name: "numeric string", value: "3000", enabled: true, timeout: 3 * time.Second},
		{name: "zero", value: 0},
		{name: "negative", value: -1},
		{name: "not numeric", value: "soon"},
		{name: "bool", value: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBridgeFixture(t, timeoutSeed(tt.value))

			assert.Equal(t, tt.enabled, f.bridge.Enabled())
			assert.Equal(t, tt.timeout, f.bridge.Timeout())
			assert.Equal(t, tt.enabled, f.hooks.Has(livechat.HookAfterTakeInquiry, InquiryHookID))
			assert.Equal(t, tt.enabled, f.hooks.Has(livechat.HookAfterSaveMessage, MessageHookID))
		})
	}
}

func TestBridgeMissingSettingIsDisabled(t *testing.T) {
	f := newBridgeFixture(t, nil)

	assert.False(t, f.bridge.Enabled())
	assert.Equal(t, 0, f.hooks.Count(livechat.HookAfterTakeInquiry))
	assert.Equal(t, 0, f.hooks.Count(livechat.HookAfterSaveMessage))
}

func TestBridgeHandlerPriorities(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(1000))

	noop := func(context.Context, ...any) error { return nil }
	f.hooks.Add(livechat.HookAfterSaveMessage, noop, hooks.PriorityMedium, "other-message")
	f.hooks.Add(livechat.HookAfterTakeInquiry, noop, hooks.PriorityHigh, "other-inquiry")

	assert.Equal(t, []string{MessageHookID, "other-message"}, f.hooks.IDs(livechat.HookAfterSaveMessage))
	assert.Equal(t, []string{"other-inquiry", InquiryHookID}, f.hooks.IDs(livechat.HookAfterTakeInquiry))
}

func TestBridgeDisableRemovesHooksAndCancelsTimers(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(5000), liveRoom("R1", alice))

	f.takeInquiry(t, "R1")
	require.True(t, f.monitor.IsMonitoring("R1"))

	f.settings.Set(TimeoutSetting, 0)

	assert.False(t, f.bridge.Enabled())
	assert.False(t, f.hooks.Has(livechat.HookAfterTakeInquiry, InquiryHookID))
	assert.False(t, f.hooks.Has(livechat.HookAfterSaveMessage, MessageHookID))
	assert.False(t, f.monitor.IsMonitoring("R1"))

	f.takeInquiry(t, "R1")
	f.clock.Advance(10 * time.Second)

	assert.False(t, f.monitor.IsMonitoring("R1"))
	assert.Empty(t, f.transfers.Calls())

	ev, ok := f.events.last(log.KindDisabled)
	require.True(t, ok)
	assert.Equal(t, log.SourceBridge, ev.Source)
}

func TestBridgeDeleteSettingDisables(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(5000), liveRoom("R1", alice))

	f.takeInquiry(t, "R1")
	f.settings.Delete(TimeoutSetting)

	assert.False(t, f.bridge.Enabled())
	assert.False(t, f.monitor.IsMonitoring("R1"))
}

func TestBridgeAgentReplyCancelsTransfer(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(2000), liveRoom("R2", alice))

	f.takeInquiry(t, "R2")
	f.clock.Advance(1000 * time.Millisecond)
	f.saveMessage(t, "R2", "")

	assert.False(t, f.monitor.IsMonitoring("R2"))
	f.clock.Advance(5 * time.Second)
	assert.Empty(t, f.transfers.Calls())
}

func TestBridgeNoReplyTransfersOnce(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(2000), liveRoom("R3", alice))

	f.takeInquiry(t, "R3")
	f.clock.Advance(2000 * time.Millisecond)

	assert.Equal(t, []transferCall{{roomID: "R3", transferredBy: "alice"}}, f.transfers.Calls())

	room, err := f.rooms.FindByID(context.Background(), "R3")
	require.NoError(t, err)
	require.NotNil(t, room.AutoTransferredAt)

	// A marked room is not monitored again.
	f.takeInquiry(t, "R3")
	assert.False(t, f.monitor.IsMonitoring("R3"))

	f.clock.Advance(time.Minute)
	assert.Len(t, f.transfers.Calls(), 1)
}

func TestBridgeUnsetAutoTransferredAllowsMonitoring(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(1000), liveRoom("R1", alice))

	f.takeInquiry(t, "R1")
	f.clock.Advance(time.Second)
	require.Len(t, f.transfers.Calls(), 1)

	require.NoError(t, f.rooms.UnsetAutoTransferredAt(context.Background(), "R1"))
	f.takeInquiry(t, "R1")
	assert.True(t, f.monitor.IsMonitoring("R1"))
}

func TestBridgeTokenMessageDoesNotCancel(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(2000), liveRoom("R1", alice))

	f.takeInquiry(t, "R1")
	f.saveMessage(t, "R1", "visitor-token")

	assert.True(t, f.monitor.IsMonitoring("R1"))
	f.clock.Advance(2 * time.Second)
	assert.Len(t, f.transfers.Calls(), 1)
}

func TestBridgeNonLivechatMessageIgnored(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(2000), liveRoom("R1", alice))

	f.takeInquiry(t, "R1")

	channel := &livechat.Room{ID: "R1", Type: livechat.RoomTypeChannel, Open: true}
	msg := &livechat.Message{RoomID: "R1", Text: "hi"}
	require.NoError(t, f.hooks.Run(context.Background(), livechat.HookAfterSaveMessage, msg, channel))

	assert.True(t, f.monitor.IsMonitoring("R1"))
}

func TestBridgeMalformedHookArgs(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(2000), liveRoom("R1", alice))
	ctx := context.Background()

	tests := []struct {
		name string
		hook string
		args []any
	}{
		{name: "inquiry without args", hook: livechat.HookAfterTakeInquiry},
		{name: "inquiry wrong type", hook: livechat.HookAfterTakeInquiry, args: []any{"R1"}},
		{name: "inquiry without room", hook: livechat.HookAfterTakeInquiry, args: []any{&livechat.Inquiry{ID: "i"}}},
		{name: "inquiry unknown room", hook: livechat.HookAfterTakeInquiry, args: []any{&livechat.Inquiry{RoomID: "nope"}}},
		{name: "message without room", hook: livechat.HookAfterSaveMessage, args: []any{&livechat.Message{}}},
		{name: "message nil room", hook: livechat.HookAfterSaveMessage, args: []any{&livechat.Message{}, (*livechat.Room)(nil)}},
		{name: "message empty room id", hook: livechat.HookAfterSaveMessage, args: []any{&livechat.Message{}, &livechat.Room{Type: livechat.RoomTypeLivechat}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, f.hooks.Run(ctx, tt.hook, tt.args...))
		})
	}

	assert.Empty(t, f.monitor.Pending())
}

func TestBridgeValueArgs(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(2000), liveRoom("R1", alice))
	ctx := context.Background()

	require.NoError(t, f.hooks.Run(ctx, livechat.HookAfterTakeInquiry, livechat.Inquiry{RoomID: "R1"}))
	assert.True(t, f.monitor.IsMonitoring("R1"))

	require.NoError(t, f.hooks.Run(ctx, livechat.HookAfterSaveMessage, livechat.Message{}, *liveRoom("R1", alice)))
	assert.False(t, f.monitor.IsMonitoring("R1"))
}

func TestBridgeRepeatedEnableKeepsOneHandler(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(1000))

	f.settings.Set(TimeoutSetting, 2000)
	f.settings.Set(TimeoutSetting, 3000)

	assert.Equal(t, 1, f.hooks.Count(livechat.HookAfterTakeInquiry))
	assert.Equal(t, 1, f.hooks.Count(livechat.HookAfterSaveMessage))
	assert.Equal(t, 3*time.Second, f.bridge.Timeout())
}

func TestBridgeTimeoutChangeKeepsArmedDeadline(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(5000), liveRoom("R1", alice), liveRoom("R2", bob))

	f.takeInquiry(t, "R1")
	f.settings.Set(TimeoutSetting, 1000)
	f.takeInquiry(t, "R2")

	f.clock.Advance(time.Second)
	assert.Equal(t, []transferCall{{roomID: "R2", transferredBy: "bob"}}, f.transfers.Calls())

	f.clock.Advance(4 * time.Second)
	assert.Len(t, f.transfers.Calls(), 2)
}

func TestBridgeReEnable(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(1000), liveRoom("R1", alice))

	f.settings.Set(TimeoutSetting, -5)
	require.False(t, f.bridge.Enabled())

	f.settings.Set(TimeoutSetting, 1000)
	require.True(t, f.bridge.Enabled())

	f.takeInquiry(t, "R1")
	f.clock.Advance(time.Second)
	assert.Len(t, f.transfers.Calls(), 1)

	var enabled, disabled int
	for _, e := range f.events.events {
		switch e.Kind {
		case log.KindEnabled:
			enabled++
		case log.KindDisabled:
			disabled++
		}
	}
	assert.Equal(t, 2, enabled)
	assert.Equal(t, 1, disabled)
}

func TestBridgeStop(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(1000), liveRoom("R1", alice))

	f.takeInquiry(t, "R1")
	f.bridge.Stop()

	assert.False(t, f.bridge.Enabled())
	assert.False(t, f.monitor.IsMonitoring("R1"))
	assert.Equal(t, 0, f.settings.WatcherCount(TimeoutSetting))
	assert.Equal(t, 0, f.hooks.Count(livechat.HookAfterTakeInquiry))

	f.settings.Set(TimeoutSetting, 2000)
	assert.False(t, f.bridge.Enabled())

	// Stop and Start are idempotent.
	f.bridge.Stop()
	f.bridge.Start()
	f.bridge.Start()
	assert.Equal(t, 1, f.settings.WatcherCount(TimeoutSetting))
	assert.True(t, f.bridge.Enabled())
}

func TestBridgeCustomSettingKey(t *testing.T) {
	mf := newMonitorFixture(t, liveRoom("R1", alice))
	reg := hooks.NewRegistry(nil)
	store := settings.FromMap(map[string]any{"auto_transfer_seconds": 2})

	b := NewBridge(mf.monitor, reg, store, mf.rooms, BridgeConfig{
		SettingKey: "auto_transfer_seconds",
		Unit:       time.Second,
	})
	b.Start()
	defer b.Stop()

	assert.Equal(t, 2*time.Second, b.Timeout())
}

func TestBridgeDisabledStartCancelsEarlierTimers(t *testing.T) {
	c := clock.Fake(epoch)
	rooms := livechat.NewMemoryStore(liveRoom("R1", alice))
	transfers := &transferRecorder{}
	m := NewMonitor(rooms, transfers, MonitorConfig{Clock: c})
	defer m.Close()

	m.StartMonitoring("R1", time.Second)

	b := NewBridge(m, hooks.NewRegistry(nil), settings.New(), rooms, BridgeConfig{})
	b.Start()
	defer b.Stop()

	c.Advance(time.Second)
	assert.Empty(t, transfers.Calls())
}

// gatedClock blocks the first Now call after hold until release is
// closed, pausing a caller between its checks and its schedule.
type gatedClock struct {
	*clock.FakeClock

	mu      sync.Mutex
	held    bool
	entered chan struct{}
	release chan struct{}
}

func (c *gatedClock) hold() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = true
	c.entered = make(chan struct{})
	c.release = make(chan struct{})
}

func (c *gatedClock) Now() time.Time {
	c.mu.Lock()
	held := c.held
	c.held = false
	entered, release := c.entered, c.release
	c.mu.Unlock()

	if held {
		close(entered)
		<-release
	}
	return c.FakeClock.Now()
}

func TestBridgeDisableDuringInquiryCancelsNewTimer(t *testing.T) {
	c := &gatedClock{FakeClock: clock.Fake(epoch)}
	rooms := livechat.NewMemoryStore(liveRoom("R1", alice))
	transfers := &transferRecorder{}
	m := NewMonitor(rooms, transfers, MonitorConfig{Clock: c})
	defer m.Close()

	reg := hooks.NewRegistry(nil)
	store := settings.FromMap(timeoutSeed(5000))
	b := NewBridge(m, reg, store, rooms, BridgeConfig{})
	b.Start()
	defer b.Stop()

	c.hold()
	handlerDone := make(chan error)
	go func() {
		handlerDone <- reg.Run(context.Background(), livechat.HookAfterTakeInquiry, &livechat.Inquiry{ID: "inq-R1", RoomID: "R1"})
	}()
	<-c.entered

	disabled := make(chan struct{})
	go func() {
		store.Set(TimeoutSetting, 0)
		close(disabled)
	}()
	// Let the disable reach the bridge while the handler is paused.
	time.Sleep(20 * time.Millisecond)
	close(c.release)

	require.NoError(t, <-handlerDone)
	<-disabled

	assert.False(t, b.Enabled())
	assert.False(t, m.IsMonitoring("R1"))
	assert.False(t, reg.Has(livechat.HookAfterTakeInquiry, InquiryHookID))
	assert.False(t, reg.Has(livechat.HookAfterSaveMessage, MessageHookID))

	c.Advance(6 * time.Second)
	assert.Empty(t, transfers.Calls())
}

func TestBridgeReassignedRoomTransfersAsPriorAgent(t *testing.T) {
	f := newBridgeFixture(t, timeoutSeed(1000), liveRoom("R1", alice))

	f.takeInquiry(t, "R1")
	require.NoError(t, f.rooms.SetServedBy(context.Background(), "R1", bob))
	f.clock.Advance(time.Second)

	assert.Equal(t, []transferCall{{roomID: "R1", transferredBy: "alice"}}, f.transfers.Calls())
}
