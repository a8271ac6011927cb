// Package history records every onager invocation in a SQLite log.
//
// Entries are append-only. All queries order by seq, a per-database counter
// assigned on append, so listings are stable even when wall clocks move
// backwards.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - single connection: SQLite allows one writer
package history
