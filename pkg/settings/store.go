package settings

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotNumeric is returned by Int and Duration for values that are not
// numbers.
var ErrNotNumeric = errors.New("setting is not numeric")

// ChangeFunc receives the previous and the new value of a key. A missing
// value is reported as nil.
type ChangeFunc func(oldValue, newValue any)

type watcher struct {
	id  uint64
	key string
	fn  ChangeFunc
}

// Store is an in-memory settings store with change notification.
//
// Watchers are called outside the value lock but one at a time, so a
// watcher may call Get but must not call Set, Delete, Watch, or Close.
type Store struct {
	// notifyMu serialises mutations together with their notifications.
	notifyMu sync.Mutex

	mu       sync.RWMutex
	values   map[string]any
	watchers map[string][]*watcher
	nextID   uint64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		values:   make(map[string]any),
		watchers: make(map[string][]*watcher),
	}
}

// Load creates a store seeded from a YAML mapping file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return FromMap(values), nil
}

// FromMap creates a store seeded with a copy of values.
func FromMap(values map[string]any) *Store {
	s := New()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get returns the value for key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Set stores value under key and notifies the key's watchers.
func (s *Store) Set(key string, value any) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	old := s.values[key]
	s.values[key] = value
	ws := s.watchersLocked(key)
	s.mu.Unlock()

	for _, w := range ws {
		w.fn(old, value)
	}
}

// Delete removes key and notifies its watchers with a nil new value.
// Deleting a missing key does nothing.
func (s *Store) Delete(key string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	old, ok := s.values[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.values, key)
	ws := s.watchersLocked(key)
	s.mu.Unlock()

	for _, w := range ws {
		w.fn(old, nil)
	}
}

// Watch registers fn for changes of key and calls it once with
// (nil, current) before returning. The returned function unregisters fn
// and is safe to call more than once.
func (s *Store) Watch(key string, fn ChangeFunc) (unwatch func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.nextID++
	w := &watcher{id: s.nextID, key: key, fn: fn}
	s.watchers[key] = append(s.watchers[key], w)
	current := s.values[key]
	s.mu.Unlock()

	fn(nil, current)

	var once sync.Once
	return func() {
		once.Do(func() { s.unwatch(w) })
	}
}

// WatcherCount returns the number of watchers registered for key.
func (s *Store) WatcherCount(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchers[key])
}

// Close unregisters every watcher. Values stay readable.
func (s *Store) Close() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = make(map[string][]*watcher)
}

func (s *Store) unwatch(w *watcher) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	ws := s.watchers[w.key]
	for i, candidate := range ws {
		if candidate.id == w.id {
			s.watchers[w.key] = append(ws[:i:i], ws[i+1:]...)
			break
		}
	}
	if len(s.watchers[w.key]) == 0 {
		delete(s.watchers, w.key)
	}
}

// watchersLocked returns a copy of key's watchers. Must hold s.mu.
func (s *Store) watchersLocked(key string) []*watcher {
	ws := s.watchers[key]
	if len(ws) == 0 {
		return nil
	}
	return append([]*watcher(nil), ws...)
}

// Int coerces a setting value to an integer. Floats are truncated.
func Int(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrNotNumeric, n)
		}
		return int64(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, n)
		}
		return floatToInt(f)
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
}

// Duration interprets a setting value as a number of units.
func Duration(v any, unit time.Duration) (time.Duration, error) {
	n, err := Int(v)
	if err != nil {
		return 0, err
	}
	if n > int64(math.MaxInt64/unit) || n < int64(math.MinInt64/unit) {
		return 0, fmt.Errorf("%w: %d overflows duration", ErrNotNumeric, n)
	}
	return time.Duration(n) * unit, nil
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, f)
	}
	return int64(f), nil
}
