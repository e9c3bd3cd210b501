// Package counter implements the Counter Source described in :
// reading raw cumulative counters for a process tree and the host, from
// either the kernel pseudo-filesystem (the primary, Linux-only provider)
// or github.com/shirou/gopsutil/v3 (the cross-platform fallback).
//
// # Provider selection
//
// NewSource picks a provider once at startup: procfs if /proc is a
// readable directory, otherwise gopsutil, otherwise ErrNoCounterSource.
// Callers never branch on which provider is active except by reading
// Source.Implementation() for the artifact's resource_tracker field.
//
// # Differencing
//
// Counter Source only returns snapshots; turning a pair of snapshots into
// a rate (cpu_usage, byte deltas, ...) is DiffPid/DiffHost in diff.go.
// Every delta is clamped to >= 0: counters legally decrease when a pid
// exits or an interface resets, and signed differencing would poison the
// running totals.
//
// # Failure semantics
//
// Every procfs reader in this package treats a vanished pid, a permission
// failure, or a parse error as a zero value rather than an error. This is
// deliberate: a single missing field must never abort a sampling cycle
//.
package counter
