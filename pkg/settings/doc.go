// Package settings holds live configuration values and notifies watchers
// when they change.
//
// A Store is the single owner of its values. Watch registers a callback
// for one key; the callback receives the current value immediately and
// then every subsequent change, in commit order. Close drops all
// watchers.
//
// Values are untyped, as they come from YAML or an admin surface. Int and
// Duration coerce the numeric shapes those sources produce.
package settings
