package timer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/chatroute/autotransfer/pkg/clock"
)

// ErrClosed is returned by Schedule after Close.
var ErrClosed = errors.New("timer registry closed")

// Func is called when an entry fires. ctx is the registry's base
// context and is cancelled by Close.
type Func func(ctx context.Context, id string)

// Entry describes a scheduled timer.
type Entry struct {
	// ID is the entity the timer belongs to.
	ID string

	// ScheduledAt is when Schedule was called.
	ScheduledAt time.Time

	// Deadline is when the timer fires.
	Deadline time.Time

	// Data is the value passed to ScheduleData, nil for Schedule.
	Data any
}

// Remaining returns the time left until the deadline relative to now.
func (e Entry) Remaining(now time.Time) time.Duration {
	if d := e.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

type entry struct {
	Entry
	generation uint64
	cancelled  bool
	fired      bool
	timer      clock.Timer
}

// Registry maps ids to pending timers.
type Registry struct {
	mu sync.Mutex

	clock   clock.Clock
	entries map[string]*entry

	// generation is incremented for every scheduled entry.
	generation uint64

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	onFire func(e Entry)
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source. Defaults to clock.Real().
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithContext sets the parent of the context passed to callbacks.
func WithContext(ctx context.Context) Option {
	return func(r *Registry) { r.ctx = ctx }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clock:   clock.Real(),
		entries: make(map[string]*entry),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ctx, r.cancel = context.WithCancel(r.ctx)
	return r
}

// Schedule arms a timer that calls fn(id) once delay has elapsed. Any
// entry already scheduled for id is cancelled first, in which case
// replaced is true.
func (r *Registry) Schedule(id string, delay time.Duration, fn Func) (replaced bool, err error) {
	return r.ScheduleData(id, delay, nil, fn)
}

// ScheduleData is Schedule with a value kept on the entry and returned
// by Get and Entries.
func (r *Registry) ScheduleData(id string, delay time.Duration, data any, fn Func) (replaced bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, ErrClosed
	}

	if existing, ok := r.entries[id]; ok {
		r.invalidateLocked(existing)
		replaced = true
	}

	r.generation++
	now := r.clock.Now()
	e := &entry{
		Entry: Entry{
			ID:          id,
			ScheduledAt: now,
			Deadline:    now.Add(delay),
			Data:        data,
		},
		generation: r.generation,
	}
	r.entries[id] = e
	e.timer = r.clock.AfterFunc(delay, func() { r.fire(e, fn) })
	return replaced, nil
}

// Cancel invalidates the entry for id. It reports whether a live entry
// was cancelled; a missing id is not an error.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	r.invalidateLocked(e)
	return true
}

// CancelAll invalidates every entry in one step and returns the
// cancelled entries ordered by deadline. A Schedule racing with CancelAll
// either lands before it and is cancelled, or after it and survives.
func (r *Registry) CancelAll() []Entry {
	r.mu.Lock()
	cancelled := r.cancelAllLocked()
	r.mu.Unlock()

	sortEntries(cancelled)
	return cancelled
}

// Close cancels every entry and the callback context. Later Schedule
// calls fail with ErrClosed. Close may be called more than once.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.cancelAllLocked()
	r.mu.Unlock()

	r.cancel()
}

// IsScheduled reports whether id has a live entry.
func (r *Registry) IsScheduled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Get returns a copy of the entry for id.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return e.Entry, true
}

// Entries returns copies of all live entries ordered by deadline.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	result := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, e.Entry)
	}
	r.mu.Unlock()

	sortEntries(result)
	return result
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Deadline.Equal(entries[j].Deadline) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Deadline.Before(entries[j].Deadline)
	})
}

// Count returns the number of live entries.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Now returns the registry clock's current time.
func (r *Registry) Now() time.Time {
	return r.clock.Now()
}

// OnFire sets a callback invoked after an entry is claimed and before
// its Func runs.
func (r *Registry) OnFire(fn func(e Entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFire = fn
}

// fire runs when e's clock timer expires.
func (r *Registry) fire(e *entry, fn Func) {
	r.mu.Lock()

	current, ok := r.entries[e.ID]
	if !ok || current.generation != e.generation || e.cancelled || e.fired {
		r.mu.Unlock()
		return
	}

	e.fired = true
	delete(r.entries, e.ID)

	onFire := r.onFire
	ctx := r.ctx

	r.mu.Unlock()

	if onFire != nil {
		onFire(e.Entry)
	}
	fn(ctx, e.ID)
}

func (r *Registry) invalidateLocked(e *entry) {
	e.cancelled = true
	if e.timer != nil {
		e.timer.Stop()
	}
	if current, ok := r.entries[e.ID]; ok && current == e {
		delete(r.entries, e.ID)
	}
}

func (r *Registry) cancelAllLocked() []Entry {
	cancelled := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		e.cancelled = true
		if e.timer != nil {
			e.timer.Stop()
		}
		cancelled = append(cancelled, e.Entry)
	}
	r.entries = make(map[string]*entry)
	return cancelled
}
