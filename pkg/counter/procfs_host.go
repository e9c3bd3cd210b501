//go:build linux

package counter

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// HostSnapshot implements HostSource for the procfs provider.
func (s *procfsSource) HostSnapshot(ctx context.Context) (HostSnapshot, error) {
	now := float64(time.Now().UnixNano()) / 1e9

	utime, stime, processes := readSystemCPUAndProcs()
	mem := readMeminfo()
	disks := s.readDiskStats()
	total, used, free := s.readDiskSpace()
	recv, sent := readNetDev()

	return HostSnapshot{
		T:                  now,
		ProcessCount:       processes,
		UtimeTicks:         utime,
		StimeTicks:         stime,
		MemFreeKiB:         mem["MemFree"],
		MemUsedKiB:         mem["MemTotal"] - mem["MemFree"] - mem["Buffers"] - mem["Cached"],
		MemBuffersKiB:      mem["Buffers"],
		MemCachedKiB:       mem["Cached"],
		MemActiveAnonKiB:   mem["Active(anon)"],
		MemInactiveAnonKiB: mem["Inactive(anon)"],
		DiskSpaceTotalGiB:  total,
		DiskSpaceUsedGiB:   used,
		DiskSpaceFreeGiB:   free,
		Disks:              disks,
		NetRecvBytes:       recv,
		NetSentBytes:       sent,
	}, nil
}

// readSystemCPUAndProcs parses the aggregate "cpu" line from /proc/stat:
// utime = user+nice, stime = system, plus the "processes"
// counter.
func readSystemCPUAndProcs() (utime, stime uint64, processes int) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0, 0, 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		fs := strings.Fields(line)
		if len(fs) == 0 {
			continue
		}
		switch {
		case fs[0] == "cpu" && len(fs) >= 5:
			user, _ := strconv.ParseUint(fs[1], 10, 64)
			nice, _ := strconv.ParseUint(fs[2], 10, 64)
			system, _ := strconv.ParseUint(fs[3], 10, 64)
			utime = user + nice
			stime = system
		case fs[0] == "processes" && len(fs) >= 2:
			v, _ := strconv.Atoi(fs[1])
			processes = v
		}
	}
	return utime, stime, processes
}

// readMeminfo reads the well-known keys from /proc/meminfo, all in KiB.
func readMeminfo() map[string]float64 {
	out := map[string]float64{
		"MemTotal": 0, "MemFree": 0, "Buffers": 0, "Cached": 0,
		"Active(anon)": 0, "Inactive(anon)": 0,
	}
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return out
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		key := line[:i]
		if _, want := out[key]; !want {
			continue
		}
		fs := strings.Fields(line[i+1:])
		if len(fs) == 0 {
			continue
		}
		v, _ := strconv.ParseFloat(fs[0], 64)
		out[key] = v
	}
	return out
}

// readDiskSpace statfs's the supervisor-supplied anchor mount point.
func (s *procfsSource) readDiskSpace() (totalGiB, usedGiB, freeGiB float64) {
	if s.diskAnchor == "" {
		return 0, 0, 0
	}
	var st unix.Statfs_t
	if err := unix.Statfs(s.diskAnchor, &st); err != nil {
		return 0, 0, 0
	}
	blockSize := float64(st.Bsize)
	total := float64(st.Blocks) * blockSize
	free := float64(st.Bfree) * blockSize
	const gib = 1024 * 1024 * 1024
	totalGiB = total / gib
	freeGiB = free / gib
	usedGiB = totalGiB - freeGiB
	return totalGiB, usedGiB, freeGiB
}

// readNetDev sums rx_bytes (field 0) and tx_bytes (field 8) over every
// interface but loopback,
func readNetDev() (recv, sent uint64) {
	f, err := os.Open("/proc/net/dev")
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo <= 2 {
			continue // two header lines
		}
		line := sc.Text()
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		iface := strings.TrimSpace(line[:i])
		if iface == "lo" {
			continue
		}
		fs := strings.Fields(line[i+1:])
		if len(fs) < 9 {
			continue
		}
		rx, _ := strconv.ParseUint(fs[0], 10, 64)
		tx, _ := strconv.ParseUint(fs[8], 10, 64)
		recv += rx
		sent += tx
	}
	return recv, sent
}
