// Package interactive provides the developer console for autotransferd.
//
// The console stands in for the chat server: it creates rooms, takes
// inquiries, and saves messages by running the same hooks the server
// would, so the auto-transfer flow can be exercised by hand.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/chatroute/autotransfer/pkg/autotransfer"
	"github.com/chatroute/autotransfer/pkg/hooks"
	"github.com/chatroute/autotransfer/pkg/livechat"
	"github.com/chatroute/autotransfer/pkg/settings"
)

// VisitorToken is the token attached to messages sent with "visitor".
const VisitorToken = "visitor-console"

// Env holds the components the console drives.
type Env struct {
	Settings *settings.Store
	Rooms    *livechat.MemoryStore
	Agents   *livechat.AgentPool
	Hooks    *hooks.Registry
	Monitor  *autotransfer.Monitor
	Bridge   *autotransfer.Bridge

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Notices receives asynchronous output such as agent assignments.
	// Defaults to the console's stdout.
	Notices io.Writer
}

// Console is the interactive command loop.
type Console struct {
	rl  *readline.Instance
	env Env
}

// New creates a console with its own readline instance. Attach must be
// called before Run.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "autotransfer> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl}, nil
}

// Attach sets the components the console drives.
func (c *Console) Attach(env Env) {
	if env.Now == nil {
		env.Now = time.Now
	}
	if env.Notices == nil {
		env.Notices = io.Discard
		if c.rl != nil {
			env.Notices = c.rl.Stdout()
		}
	}
	c.env = env

	if env.Agents != nil {
		notices := env.Notices
		env.Agents.OnAssign(func(roomID, from string, to livechat.Agent) {
			if from == "" {
				from = "-"
			}
			fmt.Fprintf(notices, "room %s transferred: %s -> %s\n", roomID, from, to.Username)
		})
	}
}

// Stdout returns a writer that coordinates with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that coordinates with the prompt. Use it for
// log output.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run reads commands until exit, EOF, or ctx is done. cancel is called
// when the user exits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	out := c.rl.Stdout()
	printHelp(out)

	go func() {
		<-ctx.Done()
		c.rl.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}

		if c.Execute(ctx, line, out) {
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether the user asked to
// exit.
func (c *Console) Execute(ctx context.Context, line string, out io.Writer) (exit bool) {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		printHelp(out)
	case "status", "s":
		c.cmdStatus(out)
	case "pending", "p":
		c.cmdPending(out)
	case "rooms":
		c.cmdRooms(out)
	case "room":
		c.cmdRoom(out, args)
	case "take", "t":
		c.cmdTake(ctx, out, args)
	case "msg", "m":
		c.cmdMessage(ctx, out, args, "")
	case "visitor", "v":
		c.cmdMessage(ctx, out, args, VisitorToken)
	case "close":
		c.cmdClose(ctx, out, args)
	case "reset":
		c.cmdReset(ctx, out, args)
	case "timeout":
		c.cmdTimeout(out, args)
	case "set":
		c.cmdSet(out, args)
	case "unset":
		c.cmdUnset(out, args)
	case "settings":
		c.cmdSettings(out)
	case "agents", "a":
		c.cmdAgents(out)
	case "online", "offline":
		c.cmdOnline(out, args, cmd == "online")
	case "hooks":
		c.cmdHooks(out)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `
Auto-Transfer Console Commands:
  Rooms:
    rooms                     - List rooms
    room <id> [agent]         - Create an open livechat room
    take <room> <agent>       - Agent takes the room's inquiry (starts monitoring)
    msg <room> <text>         - Agent replies (stops monitoring)
    visitor <room> <text>     - Visitor message (does not stop monitoring)
    close <room>              - Close a room
    reset <room>              - Clear the room's auto-transferred mark

  Settings:
    timeout <ms>              - Set the auto-transfer timeout (0 disables)
    set <key> <value>         - Set a setting
    unset <key>               - Delete a setting
    settings                  - List settings

  Agents:
    agents                    - List agents
    online <agent>            - Mark agent online
    offline <agent>           - Mark agent offline

  Monitor:
    status                    - Show bridge state
    pending                   - List pending transfers
    hooks                     - List registered hook handlers

  help                        - Show this help
  quit                        - Exit`)
}

func (c *Console) cmdStatus(out io.Writer) {
	if c.env.Bridge.Enabled() {
		fmt.Fprintf(out, "Auto-transfer: enabled (timeout %s)\n", c.env.Bridge.Timeout())
	} else {
		fmt.Fprintln(out, "Auto-transfer: disabled")
	}
	fmt.Fprintf(out, "Pending:       %d\n", len(c.env.Monitor.Pending()))
	fmt.Fprintf(out, "Rooms:         %d\n", len(c.env.Rooms.List()))
}

func (c *Console) cmdPending(out io.Writer) {
	pending := c.env.Monitor.Pending()
	if len(pending) == 0 {
		fmt.Fprintln(out, "No pending transfers")
		return
	}
	now := c.env.Now()
	for _, e := range pending {
		fmt.Fprintf(out, "  %-12s due %s (in %s)\n",
			e.ID, e.Deadline.Format(time.TimeOnly), e.Remaining(now).Round(time.Millisecond))
	}
}

func (c *Console) cmdRooms(out io.Writer) {
	rooms := c.env.Rooms.List()
	if len(rooms) == 0 {
		fmt.Fprintln(out, "No rooms")
		return
	}
	for _, r := range rooms {
		agent := "-"
		if r.ServedBy != nil {
			agent = r.ServedBy.Username
		}
		state := "open"
		if !r.Open {
			state = "closed"
		}
		fmt.Fprintf(out, "  %-12s type=%s %-6s agent=%s", r.ID, r.Type, state, agent)
		if r.AutoTransferredAt != nil {
			fmt.Fprintf(out, " auto-transferred=%s", r.AutoTransferredAt.Format(time.TimeOnly))
		}
		if c.env.Monitor.IsMonitoring(r.ID) {
			fmt.Fprint(out, " [monitoring]")
		}
		fmt.Fprintln(out)
	}
}

func (c *Console) cmdRoom(out io.Writer, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: room <id> [agent]")
		return
	}
	room := &livechat.Room{ID: args[0], Type: livechat.RoomTypeLivechat, Open: true}
	if len(args) > 1 {
		agent, ok := c.agent(args[1])
		if !ok {
			fmt.Fprintf(out, "Unknown agent: %s\n", args[1])
			return
		}
		room.ServedBy = &agent
	}
	c.env.Rooms.Put(room)
	fmt.Fprintf(out, "Room %s created\n", room.ID)
}

func (c *Console) cmdTake(ctx context.Context, out io.Writer, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(out, "Usage: take <room> <agent>")
		return
	}
	roomID := args[0]
	agent, ok := c.agent(args[1])
	if !ok {
		fmt.Fprintf(out, "Unknown agent: %s\n", args[1])
		return
	}

	if _, err := c.env.Rooms.FindByID(ctx, roomID); err != nil {
		c.env.Rooms.Put(&livechat.Room{ID: roomID, Type: livechat.RoomTypeLivechat, Open: true})
	}
	if err := c.env.Rooms.SetServedBy(ctx, roomID, &agent); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}

	inquiry := &livechat.Inquiry{ID: uuid.NewString(), RoomID: roomID, Agent: &agent}
	if err := c.env.Hooks.Run(ctx, livechat.HookAfterTakeInquiry, inquiry); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "%s took %s", agent.Username, roomID)
	if c.env.Monitor.IsMonitoring(roomID) {
		fmt.Fprint(out, " (monitoring)")
	}
	fmt.Fprintln(out)
}

func (c *Console) cmdMessage(ctx context.Context, out io.Writer, args []string, token string) {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: msg|visitor <room> <text>")
		return
	}
	room, err := c.env.Rooms.FindByID(ctx, args[0])
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}

	msg := &livechat.Message{
		ID:     uuid.NewString(),
		RoomID: room.ID,
		Text:   strings.Join(args[1:], " "),
		Token:  token,
	}
	if room.ServedBy != nil && token == "" {
		msg.SenderID = room.ServedBy.ID
	}
	if err := c.env.Hooks.Run(ctx, livechat.HookAfterSaveMessage, msg, room); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Message saved in %s", room.ID)
	if c.env.Monitor.IsMonitoring(room.ID) {
		fmt.Fprint(out, " (still monitoring)")
	}
	fmt.Fprintln(out)
}

func (c *Console) cmdClose(ctx context.Context, out io.Writer, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: close <room>")
		return
	}
	if err := c.env.Rooms.Close(ctx, args[0]); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Room %s closed\n", args[0])
}

func (c *Console) cmdReset(ctx context.Context, out io.Writer, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: reset <room>")
		return
	}
	if err := c.env.Rooms.UnsetAutoTransferredAt(ctx, args[0]); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Room %s can be auto-transferred again\n", args[0])
}

func (c *Console) cmdTimeout(out io.Writer, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: timeout <ms>")
		return
	}
	ms, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(out, "Invalid timeout: %s\n", args[0])
		return
	}
	c.env.Settings.Set(autotransfer.TimeoutSetting, ms)
	c.cmdStatus(out)
}

func (c *Console) cmdSet(out io.Writer, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(out, "Usage: set <key> <value>")
		return
	}
	value := parseValue(strings.Join(args[1:], " "))
	c.env.Settings.Set(args[0], value)
	fmt.Fprintf(out, "%s = %v\n", args[0], value)
}

func (c *Console) cmdUnset(out io.Writer, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: unset <key>")
		return
	}
	c.env.Settings.Delete(args[0])
	fmt.Fprintf(out, "%s deleted\n", args[0])
}

func (c *Console) cmdSettings(out io.Writer) {
	keys := c.env.Settings.Keys()
	if len(keys) == 0 {
		fmt.Fprintln(out, "No settings")
		return
	}
	for _, k := range keys {
		v, _ := c.env.Settings.Get(k)
		fmt.Fprintf(out, "  %s = %v\n", k, v)
	}
}

func (c *Console) cmdAgents(out io.Writer) {
	agents := c.env.Agents.Agents()
	if len(agents) == 0 {
		fmt.Fprintln(out, "No agents")
		return
	}
	for _, a := range agents {
		fmt.Fprintf(out, "  %-12s id=%s\n", a.Username, a.ID)
	}
}

func (c *Console) cmdOnline(out io.Writer, args []string, online bool) {
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: online|offline <agent>")
		return
	}
	if _, ok := c.agent(args[0]); !ok {
		fmt.Fprintf(out, "Unknown agent: %s\n", args[0])
		return
	}
	c.env.Agents.SetOnline(args[0], online)
	state := "offline"
	if online {
		state = "online"
	}
	fmt.Fprintf(out, "%s is %s\n", args[0], state)
}

func (c *Console) cmdHooks(out io.Writer) {
	names := []string{livechat.HookAfterTakeInquiry, livechat.HookAfterSaveMessage}
	sort.Strings(names)
	for _, name := range names {
		ids := c.env.Hooks.IDs(name)
		if len(ids) == 0 {
			fmt.Fprintf(out, "  %s: (none)\n", name)
			continue
		}
		fmt.Fprintf(out, "  %s: %s\n", name, strings.Join(ids, ", "))
	}
}

func (c *Console) agent(username string) (livechat.Agent, bool) {
	for _, a := range c.env.Agents.Agents() {
		if a.Username == username {
			return a, true
		}
	}
	return livechat.Agent{}, false
}

// parseValue converts numeric and boolean text to typed values, as a
// YAML seed would.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
