package counter

import (
	"os"
	"strconv"
)

// ClockTicksPerSecond returns SC_CLK_TCK. Go's standard library has no
// portable sysconf without cgo, so we accept the common default (100) and
// allow an env override for hermetic tests. Shared by
// both providers (procfs needs it to scale utime/stime ticks; gopsutil
// needs it to convert its float-seconds CPU times into the same synthetic
// tick rate so DiffPid/DiffHost behave identically regardless of which
// provider is active).
func ClockTicksPerSecond() int {
	if v, err := strconv.Atoi(os.Getenv("RESOURCETRACKER_CLK_TCK")); err == nil && v > 0 {
		return v
	}
	return 100
}

func clockTicksPerSecond() int { return ClockTicksPerSecond() }
