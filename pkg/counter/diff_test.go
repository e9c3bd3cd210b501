package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaU64(t *testing.T) {
	t.Run("normal_increase", func(t *testing.T) {
		assert.Equal(t, uint64(10), deltaU64(110, 100))
	})
	t.Run("counter_reset", func(t *testing.T) {
		assert.Equal(t, uint64(0), deltaU64(5, 100))
	})
	t.Run("no_change", func(t *testing.T) {
		assert.Equal(t, uint64(0), deltaU64(100, 100))
	})
}

func TestSafeDiv(t *testing.T) {
	require.InDelta(t, 2.5, SafeDiv(5, 2), 1e-12)
	assert.Equal(t, 0.0, SafeDiv(123, 0))
	assert.Equal(t, 0.0, SafeDiv(1, 1e-13))
}

func TestDiffPid_CPUUsageAndClamping(t *testing.T) {
	prev := PidSnapshot{T: 0, UtimeTicks: 100, StimeTicks: 50, ReadBytes: 1000, WriteBytes: 500}
	cur := PidSnapshot{T: 1, UtimeTicks: 150, StimeTicks: 80, ReadBytes: 1200, WriteBytes: 400, MemoryKiB: 2048}

	rate := DiffPid(prev, cur, 100)

	// (150-100 + 80-50) / (1 * 100) = 0.8
	require.InDelta(t, 0.8, rate.CPUUsage, 1e-9)
	assert.Equal(t, uint64(200), rate.ReadBytes)
	// write_bytes decreased: clamp to 0, never negative.
	assert.Equal(t, uint64(0), rate.WriteBytes)
	assert.Equal(t, 2048.0, rate.MemoryKiB)
}

func TestDiffHost_DiskBytesUseSectorSize(t *testing.T) {
	prev := HostSnapshot{
		T: 0,
		Disks: map[string]DiskCounter{
			"sda": {ReadSectors: 10, WriteSectors: 5},
		},
	}
	cur := HostSnapshot{
		T: 1,
		Disks: map[string]DiskCounter{
			"sda": {ReadSectors: 30, WriteSectors: 1}, // write counter reset
		},
	}

	rate := DiffHost(prev, cur, 100, func(string) uint64 { return 512 })

	assert.Equal(t, uint64(20*512), rate.DiskReadBytes)
	assert.Equal(t, uint64(0), rate.DiskWriteBytes)
}
