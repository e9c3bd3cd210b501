// Package gpuprobe implements the GPU Probe: a short-lived external
// `nvidia-smi` invocation, bounded to a hard 0.5s timeout, that never
// blocks a sampling cycle and never fails loudly when the binary is
// absent.
package gpuprobe

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Timeout is the hard bound on the per-process probe.
const Timeout = 500 * time.Millisecond

// Stats is the GPU portion of a CounterSnapshot: its gpu_usage,
// gpu_vram_mib, gpu_utilized, gpu_utilized_indexes.
type Stats struct {
	Usage           float64 // in [0, N_gpu]
	VRAMMiB         float64
	Utilized        int
	UtilizedIndexes map[int]struct{}
}

// Prober is the capability the Sampler Loop depends on, so tests can
// substitute a fake without shelling out.
type Prober interface {
	// Sample runs one nvidia-smi pmon cycle filtered to pids and returns
	// the aggregated stats. Never returns an error: absence or timeout
	// both yield a zero Stats (spec invariant 4).
	Sample(ctx context.Context, pids map[int]struct{}) Stats
}

// PmonProber shells out to `nvidia-smi pmon` once per Sample call.
type PmonProber struct {
	// Path overrides the binary name for tests; empty means "nvidia-smi"
	// resolved via PATH.
	Path string
}

func (p *PmonProber) binary() string {
	if p.Path != "" {
		return p.Path
	}
	return "nvidia-smi"
}

// Sample launches `nvidia-smi pmon -c 1 -s um -d 1`, waits up to Timeout,
// kills the process on expiry, and parses whichever rows belong to pids.
func (p *PmonProber) Sample(ctx context.Context, pids map[int]struct{}) Stats {
	zero := Stats{UtilizedIndexes: map[int]struct{}{}}

	if _, err := exec.LookPath(p.binary()); err != nil {
		return zero
	}

	runCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.binary(), "pmon", "-c", "1", "-s", "um", "-d", "1")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		// Covers both a non-zero exit and runCtx's deadline killing the
		// process (context.DeadlineExceeded) — either way, neutral zeros,
		// never propagated to the Sampler Loop.
		return zero
	}

	return parsePmon(out.Bytes(), pids)
}

// parsePmon skips the first two header lines of `nvidia-smi pmon` output
// and, for each remaining row whose pid is in the tracked set, adds
// usage/100 to gpu_usage, adds VRAM MiB to gpu_vram, and records the GPU
// index when usage is nonzero. Column layout:
// gpu pid type sm mem enc dec jpg ofa fb command.
func parsePmon(out []byte, pids map[int]struct{}) Stats {
	stats := Stats{UtilizedIndexes: map[int]struct{}{}}

	sc := bufio.NewScanner(bytes.NewReader(out))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo <= 2 {
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 10 {
			continue
		}

		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		if pids != nil {
			if _, tracked := pids[pid]; !tracked {
				continue
			}
		}

		gpuIdx, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		if fields[3] != "-" {
			if usage, err := strconv.ParseFloat(fields[3], 64); err == nil {
				stats.Usage += usage / 100
				stats.UtilizedIndexes[gpuIdx] = struct{}{}
			}
		}
		if vram, err := strconv.ParseFloat(fields[9], 64); err == nil {
			stats.VRAMMiB += vram
		}
	}

	// This is the instantaneous count for this one probe cycle. The
	// Sampler Loop (pkg/sampler) is responsible for accumulating
	// UtilizedIndexes as a running union across cycles; gpu_utilized_indexes
	// is never differenced the way other counters are.
	stats.Utilized = len(stats.UtilizedIndexes)
	return stats
}
