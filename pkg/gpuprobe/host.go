package gpuprobe

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// HostStats is the whole-host GPU aggregate: its host CounterSnapshot
// gpu_usage/gpu_vram_mib/gpu_utilized fields.
type HostStats struct {
	Usage           float64
	VRAMMiB         float64
	Utilized        int
	UtilizedIndexes map[int]struct{}
}

// HostProber queries aggregate GPU state for the whole host, independent
// of any particular pid tree.
type HostProber interface {
	SampleHost(ctx context.Context) HostStats
}

// QueryGPUProber shells out to `nvidia-smi --query-gpu=...` once per call.
type QueryGPUProber struct {
	Path string
}

func (q *QueryGPUProber) binary() string {
	if q.Path != "" {
		return q.Path
	}
	return "nvidia-smi"
}

// SampleHost runs a single query-gpu invocation bounded by ctx and parses
// per-GPU utilization/memory-used rows into an aggregate. Absence of the
// binary or any failure yields neutral zeros, matching the per-process
// probe's failure semantics.
func (q *QueryGPUProber) SampleHost(ctx context.Context) HostStats {
	zero := HostStats{UtilizedIndexes: map[int]struct{}{}}

	if _, err := exec.LookPath(q.binary()); err != nil {
		return zero
	}

	runCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, q.binary(),
		"--query-gpu=index,utilization.gpu,memory.used",
		"--format=csv,noheader,nounits")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return zero
	}

	return parseQueryGPU(out.Bytes())
}

func parseQueryGPU(out []byte) HostStats {
	stats := HostStats{UtilizedIndexes: map[int]struct{}{}}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		usage, _ := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		vram, _ := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)

		stats.Usage += usage / 100
		stats.VRAMMiB += vram
		if usage > 0 {
			stats.UtilizedIndexes[idx] = struct{}{}
		}
	}
	stats.Utilized = len(stats.UtilizedIndexes)
	return stats
}
