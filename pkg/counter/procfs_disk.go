//go:build linux

package counter

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// partitionRE matches common partition name patterns: sdXN, nvmeXnYpZ,
// mmcblkXpY.
//
// Known caveat: this regex also matches some loopback-device naming
// schemes, which can under-count disk I/O on hosts with unusual
// block-device names. Do not "fix" this without a policy decision.
var partitionRE = regexp.MustCompile(`(sd[a-z]+|nvme\d+n\d+|mmcblk\d+)p?\d+$`)

var wholeDeviceCache struct {
	once    sync.Once
	parents []string
}

func wholeDeviceParents() []string {
	wholeDeviceCache.once.Do(func() {
		entries, _ := filepath.Glob("/sys/block/*")
		for _, e := range entries {
			wholeDeviceCache.parents = append(wholeDeviceCache.parents, filepath.Base(e))
		}
	})
	return wholeDeviceCache.parents
}

// isPartition reports whether diskName is a partition (not a whole disk),
// matching name pattern AND having a whole-device parent under
// /sys/block/*.
func isPartition(diskName string) bool {
	if !partitionRE.MatchString(diskName) {
		return false
	}
	for _, parent := range wholeDeviceParents() {
		if diskName != parent && strings.HasPrefix(diskName, parent) {
			return true
		}
	}
	return false
}

// sectorSizeCache memoizes each device's hardware sector size, read once
// from /sys/block/<dev>/queue/hw_sector_size; default 512 when missing.
type sectorSizeCache struct {
	mu   sync.Mutex
	size map[string]uint64
}

func newSectorSizeCache() *sectorSizeCache {
	return &sectorSizeCache{size: make(map[string]uint64)}
}

func (c *sectorSizeCache) get(dev string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.size[dev]; ok {
		return v
	}
	v := readHWSectorSize(dev)
	c.size[dev] = v
	return v
}

func readHWSectorSize(dev string) uint64 {
	b, err := os.ReadFile(filepath.Join("/sys/block", dev, "queue", "hw_sector_size"))
	if err != nil {
		return 512
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil || v == 0 {
		return 512
	}
	return v
}

// readDiskStats parses /proc/diskstats, skipping partitions, and returns
// the retained whole-device {read_sectors, write_sectors} counters.
func (s *procfsSource) readDiskStats() map[string]DiskCounter {
	out := make(map[string]DiskCounter)
	f, err := os.Open("/proc/diskstats")
	if err != nil {
		return out
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fs := strings.Fields(sc.Text())
		// major minor name reads ... read_sectors ... writes ... write_sectors ...
		if len(fs) < 14 {
			continue
		}
		name := fs[2]
		if isPartition(name) {
			continue
		}
		readSectors, _ := strconv.ParseUint(fs[5], 10, 64)
		writeSectors, _ := strconv.ParseUint(fs[9], 10, 64)
		out[name] = DiskCounter{ReadSectors: readSectors, WriteSectors: writeSectors}
	}
	return out
}

// DiskSectorSize exposes the cached hardware sector size for a device,
// used by the differencing layer to convert sector deltas to bytes.
func (s *procfsSource) DiskSectorSize(dev string) uint64 {
	return s.sectors.get(dev)
}
