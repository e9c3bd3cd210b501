package stats

import "context"

// RunSummary is the slice of a prior run's Stats needed for the historical
// reducer: cpu/gpu means, memory/vram/gpu_utilized maxes,
// and run duration.
type RunSummary struct {
	CPUUsageMean    float64
	MemoryMax       float64
	GPUUsageMean    float64
	GPUVRAMMax      float64
	GPUUtilizedMax  float64
	DurationSeconds float64
}

// HistoricalStats is the reduced view returned to the artifact: means of
// cpu/gpu mean, maxes of memory/vram/gpu_utilized max, mean of duration,
// over up to 5 prior runs.
type HistoricalStats struct {
	Available       bool
	CPUUsageMean    float64
	MemoryMax       float64
	GPUUsageMean    float64
	GPUVRAMMax      float64
	GPUUtilizedMax  float64
	DurationSeconds float64
}

// HistoricalLookup is the external collaborator: the supervisor calls
// into a host workflow system to enumerate previous successful runs of
// the same step. Declared as an interface only; this module supplies no
// real implementation (a pure HTTP/DB client belongs to that host
// workflow system, out of scope here).
type HistoricalLookup interface {
	Previous(ctx context.Context, step string, limit int) ([]RunSummary, error)
}

// NopHistorical satisfies HistoricalLookup and always reports
// {Available: false}: used when the supervisor isn't given a real
// workflow-system client, so the module runs standalone without
// depending on an external workflow engine.
type NopHistorical struct{}

func (NopHistorical) Previous(ctx context.Context, step string, limit int) ([]RunSummary, error) {
	return nil, nil
}

// Historical reduces up to 5 prior RunSummary values into HistoricalStats
//. An empty slice yields {Available: false}.
func Historical(runs []RunSummary) HistoricalStats {
	if len(runs) == 0 {
		return HistoricalStats{Available: false}
	}
	if len(runs) > 5 {
		runs = runs[:5]
	}

	var sumCPU, sumGPUUsage, sumDuration float64
	var maxMem, maxVRAM, maxGPUUtil float64
	for i, r := range runs {
		sumCPU += r.CPUUsageMean
		sumGPUUsage += r.GPUUsageMean
		sumDuration += r.DurationSeconds
		if i == 0 || r.MemoryMax > maxMem {
			maxMem = r.MemoryMax
		}
		if i == 0 || r.GPUVRAMMax > maxVRAM {
			maxVRAM = r.GPUVRAMMax
		}
		if i == 0 || r.GPUUtilizedMax > maxGPUUtil {
			maxGPUUtil = r.GPUUtilizedMax
		}
	}
	n := float64(len(runs))
	return HistoricalStats{
		Available:       true,
		CPUUsageMean:    sumCPU / n,
		MemoryMax:       maxMem,
		GPUUsageMean:    sumGPUUsage / n,
		GPUVRAMMax:      maxVRAM,
		GPUUtilizedMax:  maxGPUUtil,
		DurationSeconds: sumDuration / n,
	}
}
