package counter

import "math"

// deltaU64 returns max(0, now-prev): counters may legally decrease when a
// pid or interface disappears, and differencing must never go negative
//.
func deltaU64(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	return 0
}

func deltaF64(now, prev float64) float64 {
	d := now - prev
	if d < 0 {
		return 0
	}
	return d
}

// SafeDiv returns 0 instead of +-Inf/NaN when the denominator is ~0.
func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

// PidRate is the differenced, per-interval form of two PidSnapshots: the
// instantaneous/derived portion of a pid-tree SampleRecord.
type PidRate struct {
	Timestamp   float64
	Pid         int
	Children    int
	UtimeDelta  uint64
	StimeDelta  uint64
	CPUUsage    float64
	MemoryKiB   float64
	ReadBytes   uint64
	WriteBytes  uint64
	GPUUsage    float64
	GPUVRAMMiB  float64
	GPUUtilized int
}

// DiffPid differences two consecutive PidSnapshots into a PidRate.
// clockTicks is SC_CLK_TCK, used to turn tick deltas into cpu_usage.
// cpu_usage is clamped at 0 from below only; no upper bound (N_cpu) is
// applied here.
func DiffPid(prev, cur PidSnapshot, clockTicks int) PidRate {
	dt := cur.T - prev.T
	utimeDelta := deltaU64(cur.UtimeTicks, prev.UtimeTicks)
	stimeDelta := deltaU64(cur.StimeTicks, prev.StimeTicks)

	cpuUsage := 0.0
	if dt > 0 {
		cpuUsage = float64(utimeDelta+stimeDelta) / (dt * float64(clockTicks))
	}
	if cpuUsage < 0 || math.IsNaN(cpuUsage) {
		cpuUsage = 0
	}

	return PidRate{
		Timestamp:   cur.T,
		Pid:         cur.Pid,
		Children:    cur.ChildrenCount,
		UtimeDelta:  utimeDelta,
		StimeDelta:  stimeDelta,
		CPUUsage:    cpuUsage,
		MemoryKiB:   cur.MemoryKiB,
		ReadBytes:   deltaU64(cur.ReadBytes, prev.ReadBytes),
		WriteBytes:  deltaU64(cur.WriteBytes, prev.WriteBytes),
		GPUUsage:    cur.GPUUsage,
		GPUVRAMMiB:  cur.GPUVRAMMiB,
		GPUUtilized: cur.GPUUtilized,
	}
}

// HostRate is the differenced, per-interval form of two HostSnapshots.
type HostRate struct {
	Timestamp          float64
	Processes          int
	UtimeDelta         uint64
	StimeDelta         uint64
	CPUUsage           float64
	MemFreeKiB         float64
	MemUsedKiB         float64
	MemBuffersKiB      float64
	MemCachedKiB       float64
	MemActiveAnonKiB   float64
	MemInactiveAnonKiB float64
	DiskReadBytes      uint64
	DiskWriteBytes     uint64
	DiskSpaceTotalGiB  float64
	DiskSpaceUsedGiB   float64
	DiskSpaceFreeGiB   float64
	NetRecvBytes       uint64
	NetSentBytes       uint64
	GPUUsage           float64
	GPUVRAMMiB         float64
	GPUUtilized        int
}

// SectorSizer reports the cached hardware sector size for a device name
// (procfsSource.DiskSectorSize, or gopsutilSectorSize's constant 1).
type SectorSizer func(dev string) uint64

// DiffHost differences two consecutive HostSnapshots into a HostRate,
// converting per-disk sector deltas to bytes using sectorSize and summing
// across all retained devices.
func DiffHost(prev, cur HostSnapshot, clockTicks int, sectorSize SectorSizer) HostRate {
	dt := cur.T - prev.T
	utimeDelta := deltaU64(cur.UtimeTicks, prev.UtimeTicks)
	stimeDelta := deltaU64(cur.StimeTicks, prev.StimeTicks)

	cpuUsage := 0.0
	if dt > 0 {
		cpuUsage = float64(utimeDelta+stimeDelta) / (dt * float64(clockTicks))
	}
	if cpuUsage < 0 || math.IsNaN(cpuUsage) {
		cpuUsage = 0
	}

	var readBytes, writeBytes uint64
	for dev, c := range cur.Disks {
		prevC := prev.Disks[dev]
		sz := sectorSize(dev)
		readBytes += deltaU64(c.ReadSectors, prevC.ReadSectors) * sz
		writeBytes += deltaU64(c.WriteSectors, prevC.WriteSectors) * sz
	}

	return HostRate{
		Timestamp:          cur.T,
		Processes:          cur.ProcessCount,
		UtimeDelta:         utimeDelta,
		StimeDelta:         stimeDelta,
		CPUUsage:           cpuUsage,
		MemFreeKiB:         cur.MemFreeKiB,
		MemUsedKiB:         cur.MemUsedKiB,
		MemBuffersKiB:      cur.MemBuffersKiB,
		MemCachedKiB:       cur.MemCachedKiB,
		MemActiveAnonKiB:   cur.MemActiveAnonKiB,
		MemInactiveAnonKiB: cur.MemInactiveAnonKiB,
		DiskReadBytes:      readBytes,
		DiskWriteBytes:     writeBytes,
		DiskSpaceTotalGiB:  cur.DiskSpaceTotalGiB,
		DiskSpaceUsedGiB:   cur.DiskSpaceUsedGiB,
		DiskSpaceFreeGiB:   cur.DiskSpaceFreeGiB,
		NetRecvBytes:       deltaU64(cur.NetRecvBytes, prev.NetRecvBytes),
		NetSentBytes:       deltaU64(cur.NetSentBytes, prev.NetSentBytes),
		GPUUsage:           cur.GPUUsage,
		GPUVRAMMiB:         cur.GPUVRAMMiB,
		GPUUtilized:        cur.GPUUtilized,
	}
}
