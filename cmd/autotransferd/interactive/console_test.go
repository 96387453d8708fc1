package interactive

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatroute/autotransfer/pkg/autotransfer"
	"github.com/chatroute/autotransfer/pkg/clock"
	"github.com/chatroute/autotransfer/pkg/hooks"
	"github.com/chatroute/autotransfer/pkg/livechat"
	"github.com/chatroute/autotransfer/pkg/settings"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type consoleFixture struct {
	clock   *clock.FakeClock
	env     Env
	console *Console
	notices *bytes.Buffer
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	c := clock.Fake(epoch)
	rooms := livechat.NewMemoryStore()
	agents := livechat.NewAgentPool(rooms, []livechat.Agent{
		{ID: "u1", Username: "alice"},
		{ID: "u2", Username: "bob"},
	}, nil)
	reg := hooks.NewRegistry(nil)
	store := settings.New()
	monitor := autotransfer.NewMonitor(rooms, agents, autotransfer.MonitorConfig{Clock: c})
	bridge := autotransfer.NewBridge(monitor, reg, store, rooms, autotransfer.BridgeConfig{})
	bridge.Start()
	t.Cleanup(func() {
		bridge.Stop()
		monitor.Close()
	})

	f := &consoleFixture{clock: c, console: &Console{}, notices: &bytes.Buffer{}}
	f.console.Attach(Env{
		Settings: store,
		Rooms:    rooms,
		Agents:   agents,
		Hooks:    reg,
		Monitor:  monitor,
		Bridge:   bridge,
		Now:      c.Now,
		Notices:  f.notices,
	})
	f.env = f.console.env
	return f
}

func (f *consoleFixture) exec(t *testing.T, line string) string {
	t.Helper()
	var buf bytes.Buffer
	exit := f.console.Execute(context.Background(), line, &buf)
	require.False(t, exit, line)
	return buf.String()
}

func TestConsoleTakeAndTransfer(t *testing.T) {
	f := newConsoleFixture(t)

	out := f.exec(t, "timeout 2000")
	assert.Contains(t, out, "enabled (timeout 2s)")

	out = f.exec(t, "take R1 alice")
	assert.Contains(t, out, "alice took R1 (monitoring)")

	out = f.exec(t, "pending")
	assert.Contains(t, out, "R1")
	assert.Contains(t, out, "in 2s")

	f.clock.Advance(2 * time.Second)

	out = f.exec(t, "rooms")
	assert.Contains(t, out, "agent=bob")
	assert.Contains(t, out, "auto-transferred=")
	assert.Equal(t, "room R1 transferred: alice -> bob\n", f.notices.String())
}

func TestConsoleAgentReplyStopsMonitoring(t *testing.T) {
	f := newConsoleFixture(t)
	f.exec(t, "timeout 2000")
	f.exec(t, "take R1 alice")

	out := f.exec(t, "visitor R1 hello?")
	assert.Contains(t, out, "still monitoring")

	out = f.exec(t, "msg R1 hi, how can I help")
	assert.Equal(t, "Message saved in R1\n", out)
	assert.False(t, f.env.Monitor.IsMonitoring("R1"))
}

func TestConsoleDisable(t *testing.T) {
	f := newConsoleFixture(t)
	f.exec(t, "timeout 2000")
	f.exec(t, "take R1 alice")

	out := f.exec(t, "timeout 0")
	assert.Contains(t, out, "disabled")
	assert.Empty(t, f.env.Monitor.Pending())

	out = f.exec(t, "hooks")
	assert.Contains(t, out, "livechat.afterTakeInquiry: (none)")
}

func TestConsoleHooks(t *testing.T) {
	f := newConsoleFixture(t)
	f.exec(t, "set "+autotransfer.TimeoutSetting+" 1000")

	out := f.exec(t, "hooks")
	assert.Contains(t, out, autotransfer.InquiryHookID)
	assert.Contains(t, out, autotransfer.MessageHookID)
}

func TestConsoleSettings(t *testing.T) {
	f := newConsoleFixture(t)

	assert.Contains(t, f.exec(t, "settings"), "No settings")

	f.exec(t, "set Site_Name Support Desk")
	f.exec(t, "set Max_Chats 4")

	v, ok := f.env.Settings.Get("Max_Chats")
	require.True(t, ok)
	assert.Equal(t, int64(4), v)

	out := f.exec(t, "settings")
	assert.Contains(t, out, "Site_Name = Support Desk")

	f.exec(t, "unset Max_Chats")
	_, ok = f.env.Settings.Get("Max_Chats")
	assert.False(t, ok)
}

func TestConsoleRoomLifecycle(t *testing.T) {
	f := newConsoleFixture(t)

	assert.Contains(t, f.exec(t, "room R9 bob"), "Room R9 created")
	assert.Contains(t, f.exec(t, "room R8 carol"), "Unknown agent: carol")
	assert.Contains(t, f.exec(t, "close R9"), "Room R9 closed")
	assert.Contains(t, f.exec(t, "rooms"), "closed")
	assert.Contains(t, f.exec(t, "close nope"), "Error:")
	assert.Contains(t, f.exec(t, "reset R9"), "can be auto-transferred again")
}

func TestConsoleAgents(t *testing.T) {
	f := newConsoleFixture(t)

	out := f.exec(t, "agents")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")

	assert.Contains(t, f.exec(t, "offline bob"), "bob is offline")
	assert.Contains(t, f.exec(t, "online bob"), "bob is online")
	assert.Contains(t, f.exec(t, "offline carol"), "Unknown agent")
}

func TestConsoleUsageErrors(t *testing.T) {
	f := newConsoleFixture(t)

	tests := map[string]string{
		"take R1":      "Usage: take",
		"take R1 zed":  "Unknown agent",
		"msg":          "Usage: msg",
		"msg nope hi":  "Error:",
		"timeout soon": "Invalid timeout",
		"set key":      "Usage: set",
		"frobnicate":   "Unknown command",
	}
	for line, want := range tests {
		assert.Contains(t, f.exec(t, line), want, line)
	}
}

func TestConsoleExit(t *testing.T) {
	f := newConsoleFixture(t)
	var buf bytes.Buffer

	assert.True(t, f.console.Execute(context.Background(), "quit", &buf))
	assert.True(t, f.console.Execute(context.Background(), "EXIT", &buf))
	assert.False(t, f.console.Execute(context.Background(), "   ", &buf))
}
