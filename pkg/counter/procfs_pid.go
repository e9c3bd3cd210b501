//go:build linux

package counter

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// procfsSource is the primary Counter Source, reading directly from the
// kernel pseudo-filesystem. Field-level failures never propagate: every
// reader below returns a zero value instead of an error so a vanished pid
// or a permission failure never poisons a sampling cycle (
// failure semantics).
type procfsSource struct {
	clockTicks int
	pageSize   int
	diskAnchor string
	sectors    *sectorSizeCache
}

// newProcfsSource builds the primary provider. diskAnchor is the mount
// point statfs'd for host disk-space counters (supplied by the supervisor,
// typically the monitored task's working directory).
func newProcfsSource(diskAnchor string) *procfsSource {
	return &procfsSource{
		clockTicks: clockTicksPerSecond(),
		pageSize:   os.Getpagesize(),
		diskAnchor: diskAnchor,
		sectors:    newSectorSizeCache(),
	}
}

func (s *procfsSource) Implementation() string { return "procfs" }

func procExists(pid int) bool {
	_, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	return err == nil
}

// getPidChildren returns the transitive closure of descendant pids by
// reading /proc/<pid>/task/*/children recursively.
func getPidChildren(pid int) map[int]struct{} {
	out := map[int]struct{}{}
	collectPidChildren(pid, out)
	return out
}

func collectPidChildren(pid int, seen map[int]struct{}) {
	glob := fmt.Sprintf("/proc/%d/task/*/children", pid)
	paths, _ := filepath.Glob(glob)
	var direct []int
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		for _, f := range strings.Fields(string(b)) {
			id, err := strconv.Atoi(f)
			if err != nil {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			direct = append(direct, id)
		}
	}
	for _, child := range direct {
		collectPidChildren(child, seen)
	}
}

// readProcStat returns utime and stime in clock ticks for one pid. Any
// failure yields (0, 0) — "any 'pid vanished' condition yields
// neutral zeros so the differencing stays non-negative".
func readProcStat(pid int) (utime, stime uint64) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return 0, 0
	}
	line := sc.Text()
	// comm (field 2) is parenthesized and may itself contain ")"; the last
	// ") " is always the true end of the comm field.
	i := strings.LastIndex(line, ") ")
	if i < 0 {
		return 0, 0
	}
	fields := strings.Fields(line[i+2:])
	get := func(idx int) uint64 {
		if idx >= len(fields) {
			return 0
		}
		v, _ := strconv.ParseUint(fields[idx], 10, 64)
		return v
	}
	// utime is field 14 overall => fields[11] relative to comm; stime 15 => fields[12].
	return get(11), get(12)
}

// readProcIO returns read_bytes/write_bytes from /proc/<pid>/io. Missing
// file or permission failure yields zeros.
func readProcIO(pid int) (readBytes, writeBytes uint64) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/io", pid))
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "read_bytes:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "read_bytes:"))
			readBytes, _ = strconv.ParseUint(v, 10, 64)
		case strings.HasPrefix(line, "write_bytes:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "write_bytes:"))
			writeBytes, _ = strconv.ParseUint(v, 10, 64)
		}
	}
	return readBytes, writeBytes
}

// readPidMemoryKiB prefers PSS from smaps_rollup (proportional share); if
// absent for a given pid, returns 0 for that pid so the tree total is just
// the sum over whichever descendants exposed it.
func readPidMemoryKiB(pid int) float64 {
	if f, err := os.Open(fmt.Sprintf("/proc/%d/smaps_rollup", pid)); err == nil {
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "Pss:") {
				fs := strings.Fields(sc.Text())
				if len(fs) >= 2 {
					kb, _ := strconv.ParseFloat(fs[1], 64)
					return kb
				}
			}
		}
	}
	return 0
}

// PidSnapshot implements PidSource for the procfs provider.
func (s *procfsSource) PidSnapshot(ctx context.Context, pid int, includeChildren bool) (PidSnapshot, error) {
	now := float64(time.Now().UnixNano()) / 1e9

	tree := map[int]struct{}{pid: {}}
	if includeChildren {
		for child := range getPidChildren(pid) {
			tree[child] = struct{}{}
		}
	}

	var utime, stime, readBytes, writeBytes uint64
	var memKiB float64
	for member := range tree {
		if !procExists(member) {
			continue
		}
		ut, st := readProcStat(member)
		utime += ut
		stime += st
		rb, wb := readProcIO(member)
		readBytes += rb
		writeBytes += wb
		memKiB += readPidMemoryKiB(member)
	}

	return PidSnapshot{
		T:             now,
		Pid:           pid,
		ChildrenCount: len(tree) - 1,
		UtimeTicks:    utime,
		StimeTicks:    stime,
		MemoryKiB:     memKiB,
		ReadBytes:     readBytes,
		WriteBytes:    writeBytes,
	}, nil
}
