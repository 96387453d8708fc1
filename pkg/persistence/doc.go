// Package persistence saves the auto-transfer monitor's pending timers so
// they survive a restart.
//
// The snapshot records each room's absolute deadline. On restore, a timer
// whose deadline already passed while the process was down is re-armed
// with a short grace delay rather than dropped.
package persistence
