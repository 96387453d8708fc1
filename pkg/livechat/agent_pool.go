package livechat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Assigner records a new serving agent for a room.
type Assigner interface {
	SetServedBy(ctx context.Context, roomID string, agent *Agent) error
}

// AgentPool is a Transferer that hands rooms to the next online agent in
// round-robin order, skipping the agent the room is taken from.
type AgentPool struct {
	mu       sync.Mutex
	agents   []Agent
	offline  map[string]bool
	next     int
	rooms    Assigner
	logger   *slog.Logger
	onAssign func(roomID string, from string, to Agent)
}

// NewAgentPool creates a pool over agents. logger may be nil.
func NewAgentPool(rooms Assigner, agents []Agent, logger *slog.Logger) *AgentPool {
	return &AgentPool{
		agents:  append([]Agent(nil), agents...),
		offline: make(map[string]bool),
		rooms:   rooms,
		logger:  logger,
	}
}

// SetOnline marks an agent as available or unavailable for transfers.
func (p *AgentPool) SetOnline(username string, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if online {
		delete(p.offline, username)
	} else {
		p.offline[username] = true
	}
}

// Agents returns the pool's agents.
func (p *AgentPool) Agents() []Agent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Agent(nil), p.agents...)
}

// OnAssign sets a callback invoked after each successful transfer.
func (p *AgentPool) OnAssign(fn func(roomID string, from string, to Agent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onAssign = fn
}

// Transfer assigns roomID to the next online agent other than
// transferredBy.
func (p *AgentPool) Transfer(ctx context.Context, roomID, transferredBy string) error {
	p.mu.Lock()
	agent, ok := p.pickLocked(transferredBy)
	onAssign := p.onAssign
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("transfer room %s: %w", roomID, ErrNoAgentAvailable)
	}
	if err := p.rooms.SetServedBy(ctx, roomID, &agent); err != nil {
		return fmt.Errorf("transfer room %s: %w", roomID, err)
	}

	if p.logger != nil {
		p.logger.Info("room transferred", "roomID", roomID, "from", transferredBy, "to", agent.Username)
	}
	if onAssign != nil {
		onAssign(roomID, transferredBy, agent)
	}
	return nil
}

// pickLocked advances the round-robin cursor. Must hold p.mu.
func (p *AgentPool) pickLocked(exclude string) (Agent, bool) {
	for i := 0; i < len(p.agents); i++ {
		idx := (p.next + i) % len(p.agents)
		a := p.agents[idx]
		if a.Username == exclude || p.offline[a.Username] {
			continue
		}
		p.next = idx + 1
		return a, true
	}
	return Agent{}, false
}

// Compile-time interface satisfaction checks.
var (
	_ Transferer = (*AgentPool)(nil)
	_ Assigner   = (*MemoryStore)(nil)
)
