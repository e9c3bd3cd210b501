//go:build linux

package counter

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/taskmetrics/resourcetracker/pkg/rterrors"
)

// NewSource implements the startup selection policy from prefer
// the kernel pseudo-filesystem source when /proc is a readable directory;
// otherwise fall back to the gopsutil-backed library source; otherwise
// fail fast with ErrNoCounterSource.
//
// diskAnchor is the mount point the host snapshot's disk-space fields are
// statfs'd against (the supervisor supplies this, typically the monitored
// task's working directory).
func NewSource(diskAnchor string) (Source, error) {
	if procfsAvailable() {
		return newProcfsSource(diskAnchor), nil
	}
	if gopsutilAvailable() {
		return newGopsutilSource(diskAnchor), nil
	}
	return nil, rterrors.ErrNoCounterSource
}

// NewProcfsSource exposes the primary provider directly, bypassing
// NewSource's selection policy — used by the benchmark CLI command to
// compare both providers unconditionally on the same host.
func NewProcfsSource(diskAnchor string) (Source, error) {
	if !procfsAvailable() {
		return nil, rterrors.ErrNoCounterSource
	}
	return newProcfsSource(diskAnchor), nil
}

// NewGopsutilSource exposes the fallback provider directly, for the same
// benchmark-comparison reason as NewProcfsSource.
func NewGopsutilSource() Source {
	return newGopsutilSource(".")
}

func procfsAvailable() bool {
	info, err := os.Stat("/proc")
	if err != nil || !info.IsDir() {
		return false
	}
	f, err := os.Open("/proc")
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// gopsutilAvailable reports whether the library provider can see at least
// the init process; gopsutil is always statically linked, so "available"
// here means "can actually read something", not "is importable".
func gopsutilAvailable() bool {
	ok, err := process.PidExists(1)
	return err == nil && ok
}
