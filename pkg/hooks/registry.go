package hooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Priority orders handlers within a hook. Lower values run first.
type Priority int

// Standard priorities.
const (
	PriorityHigh   Priority = -1000
	PriorityMedium Priority = 0
	PriorityLow    Priority = 1000
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// Handler handles a hook invocation. args are hook-specific.
type Handler func(ctx context.Context, args ...any) error

type registration struct {
	id       string
	priority Priority
	seq      uint64
	handler  Handler
}

// Registry holds handlers for named hooks.
type Registry struct {
	mu     sync.RWMutex
	hooks  map[string][]*registration
	seq    uint64
	logger *slog.Logger
}

// NewRegistry creates an empty registry. logger may be nil.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		hooks:  make(map[string][]*registration),
		logger: logger,
	}
}

// Add registers handler for hook under id. An existing handler with the
// same id is replaced and takes the new priority.
func (r *Registry) Add(hook string, handler Handler, priority Priority, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.hooks[hook]
	for i, reg := range regs {
		if reg.id == id {
			regs = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}

	r.seq++
	regs = append(regs, &registration{
		id:       id,
		priority: priority,
		seq:      r.seq,
		handler:  handler,
	})
	sort.SliceStable(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority < regs[j].priority
		}
		return regs[i].seq < regs[j].seq
	})
	r.hooks[hook] = regs

	r.debugLog("hook handler added", "hook", hook, "id", id, "priority", priority.String())
}

// Remove unregisters the handler with id from hook. It reports whether a
// handler was removed.
func (r *Registry) Remove(hook, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.hooks[hook]
	for i, reg := range regs {
		if reg.id != id {
			continue
		}
		regs = append(regs[:i:i], regs[i+1:]...)
		if len(regs) == 0 {
			delete(r.hooks, hook)
		} else {
			r.hooks[hook] = regs
		}
		r.debugLog("hook handler removed", "hook", hook, "id", id)
		return true
	}
	return false
}

// Has reports whether hook has a handler with id.
func (r *Registry) Has(hook, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.hooks[hook] {
		if reg.id == id {
			return true
		}
	}
	return false
}

// Count returns the number of handlers registered for hook.
func (r *Registry) Count(hook string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[hook])
}

// IDs returns the handler ids of hook in execution order.
func (r *Registry) IDs(hook string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.hooks[hook]))
	for _, reg := range r.hooks[hook] {
		ids = append(ids, reg.id)
	}
	return ids
}

// Run calls every handler of hook in order, each with its own copy of
// args. A failing handler does not stop later ones; all errors are
// joined into the result. Handlers may add or remove handlers; the
// change applies to the next Run.
func (r *Registry) Run(ctx context.Context, hook string, args ...any) error {
	r.mu.RLock()
	regs := append([]*registration(nil), r.hooks[hook]...)
	r.mu.RUnlock()

	var errs []error
	for _, reg := range regs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := reg.handler(ctx, append([]any(nil), args...)...); err != nil {
			r.debugLog("hook handler failed", "hook", hook, "id", reg.id, "error", err)
			errs = append(errs, fmt.Errorf("hook %s handler %s: %w", hook, reg.id, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
