// Package counter implements the sampler's Counter Source: reading raw
// cumulative counters for a pid-tree and the whole host from either the
// kernel pseudo-filesystem or the gopsutil process library, behind one
// small capability interface (Source).
package counter

import "context"

// PidSnapshot is an immutable record of a process tree's cumulative
// counters taken at a monotonic timestamp. All fields are cumulative since
// process start unless noted otherwise.
type PidSnapshot struct {
	T               float64 // seconds, monotonic+wall-clock
	Pid             int
	ChildrenCount   int
	UtimeTicks      uint64
	StimeTicks      uint64
	MemoryKiB       float64 // PSS on Linux, USS on macOS, RSS as last fallback
	ReadBytes       uint64
	WriteBytes      uint64
	GPUUsage        float64 // instantaneous, in [0, N_gpu]
	GPUVRAMMiB      float64 // instantaneous
	GPUUtilized     int     // count of GPUs with nonzero usage by this tree
	GPUUtilizedIdxs map[int]struct{}
}

// DiskCounter is the per-device {read_sectors, write_sectors} pair tracked
// for the host.
type DiskCounter struct {
	ReadSectors  uint64
	WriteSectors uint64
}

// HostSnapshot is the whole-host analogue of PidSnapshot.
type HostSnapshot struct {
	T                  float64
	ProcessCount       int
	UtimeTicks         uint64
	StimeTicks         uint64
	MemFreeKiB         float64
	MemUsedKiB         float64
	MemBuffersKiB      float64
	MemCachedKiB       float64
	MemActiveAnonKiB   float64
	MemInactiveAnonKiB float64
	DiskSpaceTotalGiB  float64
	DiskSpaceUsedGiB   float64
	DiskSpaceFreeGiB   float64
	Disks              map[string]DiskCounter
	NetRecvBytes       uint64
	NetSentBytes       uint64
	GPUUsage           float64
	GPUVRAMMiB         float64
	GPUUtilized        int
	GPUUtilizedIdxs    map[int]struct{}
}

// PidSource reads cumulative counters for one pid and (optionally) its
// descendant tree.
type PidSource interface {
	PidSnapshot(ctx context.Context, pid int, includeChildren bool) (PidSnapshot, error)
}

// HostSource reads cumulative counters for the whole host.
type HostSource interface {
	HostSnapshot(ctx context.Context) (HostSnapshot, error)
}

// Source is the full Counter Source capability: both readers, plus a label
// identifying which implementation is in effect (used in the artifact's
// resource_tracker.implementation field).
type Source interface {
	PidSource
	HostSource
	Implementation() string
}
