// Package hooks implements named extension points with ordered handlers.
//
// A hook is identified by name (for example "afterSaveMessage"). Handlers
// are added under a stable id so that the same component can register
// repeatedly without stacking: adding an id that already exists for the
// hook replaces the earlier handler in place.
//
// Run calls handlers in ascending priority order (PriorityHigh first,
// PriorityLow last), with ties in registration order. Every handler
// receives the arguments given to Run; results are not chained from one
// handler into the next, and a handler reports only an error.
package hooks
