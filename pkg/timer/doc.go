// Package timer implements a keyed one-shot timer registry.
//
// Each id has at most one live entry. Scheduling an id that already has
// an entry replaces it: the old entry is invalidated and its timer
// stopped, so the old callback can never run, even if its clock timer had
// already expired and was waiting for the registry lock.
//
// # Firing
//
// When an entry's deadline passes, the registry claims the entry under
// its lock: the entry must still be the one stored for the id and must
// not be cancelled. The claim removes the entry, then the callback runs
// outside the lock. Each entry is therefore removed exactly once, either
// by Cancel, by replacement, or by its own fire, never by two of them.
//
// # Inputs
//
// The registry trusts its callers: a delay must be positive and an id
// non-empty. Validation belongs to the caller.
package timer
