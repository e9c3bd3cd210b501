package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmetrics/resourcetracker/pkg/table"
)

func TestRoundMemory_LiteralSeeds(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{68, 128},
		{896, 1024},
		{3863, 4096},
		{12000, 12 * 1024},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RoundMemory(c.in), "RoundMemory(%v)", c.in)
	}
}

func TestServerAllocation_SharedWhenHostExceedsTolerance(t *testing.T) {
	task := ColumnMeans{"cpu_usage": 0.1, "memory": 1024, "gpu_usage": 0, "gpu_vram": 0}
	host := ColumnMeans{"cpu_usage": 2.0, "memory": 1024, "gpu_usage": 0, "gpu_vram": 0}
	assert.Equal(t, "Shared", ServerAllocation(task, host))
}

func TestServerAllocation_DedicatedWhenWithinTolerance(t *testing.T) {
	task := ColumnMeans{"cpu_usage": 1.0, "memory": 1024 * 1024, "gpu_usage": 0, "gpu_vram": 0}
	host := ColumnMeans{"cpu_usage": 1.1, "memory": 1024 * 1024, "gpu_usage": 0, "gpu_vram": 0}
	assert.Equal(t, "Dedicated", ServerAllocation(task, host))
}

func TestHistorical_EmptyYieldsUnavailable(t *testing.T) {
	h := Historical(nil)
	assert.False(t, h.Available)
}

func TestHistorical_ReducesUpToFive(t *testing.T) {
	runs := []RunSummary{
		{CPUUsageMean: 1, MemoryMax: 100, DurationSeconds: 10},
		{CPUUsageMean: 3, MemoryMax: 300, DurationSeconds: 20},
	}
	h := Historical(runs)
	require.True(t, h.Available)
	assert.Equal(t, 2.0, h.CPUUsageMean)
	assert.Equal(t, 300.0, h.MemoryMax)
	assert.Equal(t, 15.0, h.DurationSeconds)
}

func TestCompute_MeansMaxesAndTraffic(t *testing.T) {
	pidTracker, err := table.FromColumns(map[string][]table.Cell{
		"cpu_usage":    {table.NumCell(0.1), table.NumCell(0.3)},
		"memory":       {table.NumCell(100), table.NumCell(200)},
		"gpu_usage":    {table.NumCell(0), table.NumCell(0)},
		"gpu_vram":     {table.NumCell(0), table.NumCell(0)},
		"gpu_utilized": {table.NumCell(0), table.NumCell(0)},
	}, []string{"cpu_usage", "memory", "gpu_usage", "gpu_vram", "gpu_utilized"})
	require.NoError(t, err)

	systemTracker, err := table.FromColumns(map[string][]table.Cell{
		"disk_space_used_gb":   {table.NumCell(10), table.NumCell(12)},
		"net_recv_bytes":       {table.NumCell(1000), table.NumCell(2000)},
		"net_sent_bytes":       {table.NumCell(500), table.NumCell(500)},
		"cpu_usage":            {table.NumCell(0.4), table.NumCell(0.6)},
		"gpu_usage":            {table.NumCell(0), table.NumCell(0)},
		"gpu_vram":             {table.NumCell(0), table.NumCell(0)},
		"memory_active_anon":   {table.NumCell(1000), table.NumCell(3000)},
		"memory_inactive_anon": {table.NumCell(200), table.NumCell(600)},
	}, []string{
		"disk_space_used_gb", "net_recv_bytes", "net_sent_bytes",
		"cpu_usage", "gpu_usage", "gpu_vram",
		"memory_active_anon", "memory_inactive_anon",
	})
	require.NoError(t, err)

	start := time.Unix(0, 0)
	end := start.Add(2 * time.Second)

	s, err := Compute(pidTracker, systemTracker, start, end)
	require.NoError(t, err)

	assert.Equal(t, 2.0, s.DurationSeconds)
	assert.InDelta(t, 0.2, s.CPUUsage.Mean, 1e-9)
	assert.Equal(t, 0.3, s.CPUUsage.Max)
	assert.Equal(t, 200.0, s.Memory.Max)
	assert.Equal(t, 12.0, s.DiskSpaceUsedGB)
	assert.Equal(t, uint64(3000), s.Traffic.InboundBytes)
	assert.Equal(t, uint64(1000), s.Traffic.OutboundBytes)

	assert.InDelta(t, 0.2, s.TaskMeans["cpu_usage"], 1e-9)
	assert.Equal(t, 150.0, s.TaskMeans["memory"])
	assert.InDelta(t, 0.5, s.HostMeans["cpu_usage"], 1e-9)
	assert.Equal(t, 2400.0, s.HostMeans["memory"])
}

func TestCompute_HostSideDrivesServerAllocationBothWays(t *testing.T) {
	pidTracker, err := table.FromColumns(map[string][]table.Cell{
		"cpu_usage":    {table.NumCell(0.1)},
		"memory":       {table.NumCell(1024)},
		"gpu_usage":    {table.NumCell(0)},
		"gpu_vram":     {table.NumCell(0)},
		"gpu_utilized": {table.NumCell(0)},
	}, nil)
	require.NoError(t, err)

	contended, err := table.FromColumns(map[string][]table.Cell{
		"disk_space_used_gb":   {table.NumCell(1)},
		"net_recv_bytes":       {table.NumCell(0)},
		"net_sent_bytes":       {table.NumCell(0)},
		"cpu_usage":            {table.NumCell(2.0)},
		"gpu_usage":            {table.NumCell(0)},
		"gpu_vram":             {table.NumCell(0)},
		"memory_active_anon":   {table.NumCell(800)},
		"memory_inactive_anon": {table.NumCell(400)},
	}, nil)
	require.NoError(t, err)

	start := time.Unix(0, 0)
	end := start.Add(time.Second)

	s, err := Compute(pidTracker, contended, start, end)
	require.NoError(t, err)
	assert.Equal(t, "Shared", ServerAllocation(s.TaskMeans, s.HostMeans))

	idle, err := table.FromColumns(map[string][]table.Cell{
		"disk_space_used_gb":   {table.NumCell(1)},
		"net_recv_bytes":       {table.NumCell(0)},
		"net_sent_bytes":       {table.NumCell(0)},
		"cpu_usage":            {table.NumCell(0.1)},
		"gpu_usage":            {table.NumCell(0)},
		"gpu_vram":             {table.NumCell(0)},
		"memory_active_anon":   {table.NumCell(800)},
		"memory_inactive_anon": {table.NumCell(400)},
	}, nil)
	require.NoError(t, err)

	s2, err := Compute(pidTracker, idle, start, end)
	require.NoError(t, err)
	assert.Equal(t, "Dedicated", ServerAllocation(s2.TaskMeans, s2.HostMeans))
}
