// Package stats implements Aggregation / Stats: folding a
// completed run's pid-tree and host tables into summary means/maxes,
// traffic totals, a sizing recommendation, and a shared/dedicated server
// allocation label.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/taskmetrics/resourcetracker/pkg/table"
)

// MeanMax is a paired mean/max over one numeric column.
type MeanMax struct {
	Mean float64
	Max  float64
}

// Traffic is the host's summed inbound/outbound byte counters.
type Traffic struct {
	InboundBytes  uint64
	OutboundBytes uint64
}

// Stats is the aggregate per-run summary of a sampled task.
type Stats struct {
	DurationSeconds float64
	CPUUsage        MeanMax
	Memory          MeanMax
	GPUUsage        MeanMax
	GPUVRAM         MeanMax
	GPUUtilized     MeanMax
	DiskSpaceUsedGB float64 // max over the run
	Traffic         Traffic

	// TaskMeans and HostMeans are the pid-tree-side and host-side column
	// means ServerAllocation compares, keyed by the task-side column name
	// ("cpu_usage", "memory", "gpu_usage", "gpu_vram"). HostMeans' memory
	// entry is memory_active_anon+memory_inactive_anon per row, meaned
	// over the run, since the host stream has no single "memory" column.
	TaskMeans ColumnMeans
	HostMeans ColumnMeans
}

// Compute folds a run's two tables into a Stats.
func Compute(pidTracker, systemTracker *table.Table, tStart, tEnd time.Time) (*Stats, error) {
	s := &Stats{
		DurationSeconds: math.Round(tEnd.Sub(tStart).Seconds()*100) / 100,
	}

	var err error
	if s.CPUUsage, err = meanMaxOf(pidTracker, "cpu_usage"); err != nil {
		return nil, err
	}
	if s.Memory, err = meanMaxOf(pidTracker, "memory"); err != nil {
		return nil, err
	}
	if s.GPUUsage, err = meanMaxOf(pidTracker, "gpu_usage"); err != nil {
		return nil, err
	}
	if s.GPUVRAM, err = meanMaxOf(pidTracker, "gpu_vram"); err != nil {
		return nil, err
	}
	if s.GPUUtilized, err = meanMaxOf(pidTracker, "gpu_utilized"); err != nil {
		return nil, err
	}

	s.TaskMeans = ColumnMeans{
		"cpu_usage": s.CPUUsage.Mean,
		"memory":    s.Memory.Mean,
		"gpu_usage": s.GPUUsage.Mean,
		"gpu_vram":  s.GPUVRAM.Mean,
	}

	if systemTracker != nil {
		diskCol, err := systemTracker.Column("disk_space_used_gb")
		if err != nil {
			return nil, err
		}
		s.DiskSpaceUsedGB = maxOf(diskCol)

		recv, err := systemTracker.Column("net_recv_bytes")
		if err != nil {
			return nil, err
		}
		sent, err := systemTracker.Column("net_sent_bytes")
		if err != nil {
			return nil, err
		}
		s.Traffic.InboundBytes = uint64(sumOf(recv))
		s.Traffic.OutboundBytes = uint64(sumOf(sent))

		hostCPU, err := meanMaxOf(systemTracker, "cpu_usage")
		if err != nil {
			return nil, err
		}
		hostGPUUsage, err := meanMaxOf(systemTracker, "gpu_usage")
		if err != nil {
			return nil, err
		}
		hostGPUVRAM, err := meanMaxOf(systemTracker, "gpu_vram")
		if err != nil {
			return nil, err
		}
		hostMemory, err := meanOfSum(systemTracker, "memory_active_anon", "memory_inactive_anon")
		if err != nil {
			return nil, err
		}

		s.HostMeans = ColumnMeans{
			"cpu_usage": hostCPU.Mean,
			"memory":    hostMemory,
			"gpu_usage": hostGPUUsage.Mean,
			"gpu_vram":  hostGPUVRAM.Mean,
		}
	}

	return s, nil
}

func meanMaxOf(t *table.Table, col string) (MeanMax, error) {
	if t == nil {
		return MeanMax{}, nil
	}
	cells, err := t.Column(col)
	if err != nil {
		return MeanMax{}, fmt.Errorf("stats: %w", err)
	}
	if len(cells) == 0 {
		return MeanMax{}, nil
	}
	var sum, max float64
	for i, c := range cells {
		if i == 0 || c.Num > max {
			max = c.Num
		}
		sum += c.Num
	}
	return MeanMax{Mean: sum / float64(len(cells)), Max: max}, nil
}

func maxOf(cells []table.Cell) float64 {
	var max float64
	for i, c := range cells {
		if i == 0 || c.Num > max {
			max = c.Num
		}
	}
	return max
}

func sumOf(cells []table.Cell) float64 {
	var sum float64
	for _, c := range cells {
		sum += c.Num
	}
	return sum
}

// meanOfSum means colA[i]+colB[i] per row, e.g. memory_usage_bytes =
// memory_active_anon + memory_inactive_anon post-join.
func meanOfSum(t *table.Table, colA, colB string) (float64, error) {
	a, err := t.Column(colA)
	if err != nil {
		return 0, fmt.Errorf("stats: %w", err)
	}
	b, err := t.Column(colB)
	if err != nil {
		return 0, fmt.Errorf("stats: %w", err)
	}
	if len(a) == 0 {
		return 0, nil
	}
	var sum float64
	for i := range a {
		sum += a[i].Num + b[i].Num
	}
	return sum / float64(len(a)), nil
}
