// Package sampler implements the Sampler Loop: the per-cycle
// state machine that turns Counter Source snapshots and GPU Probe samples
// into CSV rows, one pid-tree loop and one host loop per sampler-worker
// process (pkg/supervisor launches one of each).
package sampler

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/taskmetrics/resourcetracker/pkg/counter"
	"github.com/taskmetrics/resourcetracker/pkg/gpuprobe"
)

// Loop drives one subject (pid-tree or host) through repeated
// collect-diff-write cycles until the subject naturally ends (pid tree:
// memory reaches 0) or ctx is cancelled.
type Loop struct {
	Subject  Subject
	Pid      int
	Interval time.Duration
	Sink     io.Writer
	Source   counter.Source
	GPUPid   gpuprobe.Prober     // used when Subject == SubjectPid
	GPUHost  gpuprobe.HostProber // used when Subject == SubjectHost
	Logger   *slog.Logger

	state   *stateBox
	w       *csv.Writer
	cycle   int
	unionPk map[int]struct{} // running union of gpu_utilized_indexes across cycles
}

// NewLoop constructs a Loop in StateStarting.
func NewLoop(subject Subject, pid int, interval time.Duration, sink io.Writer, src counter.Source) *Loop {
	return &Loop{
		Subject:  subject,
		Pid:      pid,
		Interval: interval,
		Sink:     sink,
		Source:   src,
		Logger:   slog.Default(),
		state:    newStateBox(),
		w:        csv.NewWriter(sink),
		unionPk:  map[int]struct{}{},
	}
}

// State reports the loop's current lifecycle stage.
func (l *Loop) State() State { return l.state.get() }

// Run executes cycles until the subject's natural termination condition
// fires, ctx is cancelled, or an unrecoverable error occurs. A pid tree
// whose memory reading drops to 0 (the process has exited) ends the loop
// by returning nil.
func (l *Loop) Run(ctx context.Context) error {
	l.state.set(StateRunning)
	defer l.state.set(StateExited)

	var (
		prevPid  counter.PidSnapshot
		prevHost counter.HostSnapshot
		havePrev bool
	)

	clockTicks := clockTicksHint(l.Source)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		t0 := time.Now()

		switch l.Subject {
		case SubjectPid:
			snap, err := l.Source.PidSnapshot(ctx, l.Pid, true)
			if err != nil {
				l.Logger.Warn("pid snapshot failed", "pid", l.Pid, "err", err)
				return nil
			}
			if gp := l.GPUPid; gp != nil {
				gs := gp.Sample(ctx, map[int]struct{}{l.Pid: {}})
				snap.GPUUsage = gs.Usage
				snap.GPUVRAMMiB = gs.VRAMMiB
				for idx := range gs.UtilizedIndexes {
					l.unionPk[idx] = struct{}{}
				}
				snap.GPUUtilized = len(l.unionPk)
			}

			if havePrev {
				rate := counter.DiffPid(prevPid, snap, clockTicks)
				rate.GPUUtilized = len(l.unionPk)
				if err := l.writePidRow(rate); err != nil {
					return fmt.Errorf("sampler: write pid row: %w", err)
				}
			} else {
				if err := l.writeHeaderOnce(PidColumns); err != nil {
					return fmt.Errorf("sampler: write header: %w", err)
				}
			}
			prevPid = snap
			havePrev = true

			if snap.MemoryKiB == 0 && l.cycle > 0 {
				return nil
			}

		case SubjectHost:
			snap, err := l.Source.HostSnapshot(ctx)
			if err != nil {
				l.Logger.Warn("host snapshot failed", "err", err)
				return nil
			}
			if gh := l.GPUHost; gh != nil {
				gs := gh.SampleHost(ctx)
				snap.GPUUsage = gs.Usage
				snap.GPUVRAMMiB = gs.VRAMMiB
				for idx := range gs.UtilizedIndexes {
					l.unionPk[idx] = struct{}{}
				}
				snap.GPUUtilized = len(l.unionPk)
			}

			if havePrev {
				rate := counter.DiffHost(prevHost, snap, clockTicks, sectorSizeOf(l.Source))
				rate.GPUUtilized = len(l.unionPk)
				if err := l.writeHostRow(rate); err != nil {
					return fmt.Errorf("sampler: write host row: %w", err)
				}
			} else {
				if err := l.writeHeaderOnce(HostColumns); err != nil {
					return fmt.Errorf("sampler: write header: %w", err)
				}
			}
			prevHost = snap
			havePrev = true
		}

		l.cycle++

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		elapsed := time.Since(t0)
		sleepFor := l.Interval - elapsed
		if sleepFor < 0 {
			sleepFor = 0
		}
		time.Sleep(sleepFor)
	}
}

func (l *Loop) writeHeaderOnce(cols []string) error {
	if err := l.w.Write(cols); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *Loop) writePidRow(r counter.PidRate) error {
	row := []string{
		formatFloat(r.Timestamp),
		strconv.Itoa(r.Pid),
		strconv.Itoa(r.Children),
		strconv.FormatUint(r.UtimeDelta, 10),
		strconv.FormatUint(r.StimeDelta, 10),
		formatFloat(r.CPUUsage),
		formatFloat(r.MemoryKiB),
		strconv.FormatUint(r.ReadBytes, 10),
		strconv.FormatUint(r.WriteBytes, 10),
		formatFloat(r.GPUUsage),
		formatFloat(r.GPUVRAMMiB),
		strconv.Itoa(r.GPUUtilized),
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *Loop) writeHostRow(r counter.HostRate) error {
	row := []string{
		formatFloat(r.Timestamp),
		strconv.Itoa(r.Processes),
		strconv.FormatUint(r.UtimeDelta, 10),
		strconv.FormatUint(r.StimeDelta, 10),
		formatFloat(r.CPUUsage),
		formatFloat(r.MemFreeKiB),
		formatFloat(r.MemUsedKiB),
		formatFloat(r.MemBuffersKiB),
		formatFloat(r.MemCachedKiB),
		formatFloat(r.MemActiveAnonKiB),
		formatFloat(r.MemInactiveAnonKiB),
		strconv.FormatUint(r.DiskReadBytes, 10),
		strconv.FormatUint(r.DiskWriteBytes, 10),
		formatFloat(r.DiskSpaceTotalGiB),
		formatFloat(r.DiskSpaceUsedGiB),
		formatFloat(r.DiskSpaceFreeGiB),
		strconv.FormatUint(r.NetRecvBytes, 10),
		strconv.FormatUint(r.NetSentBytes, 10),
		formatFloat(r.GPUUsage),
		formatFloat(r.GPUVRAMMiB),
		strconv.Itoa(r.GPUUtilized),
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// clockTicksHint returns the shared synthetic tick rate both Counter
// Source providers normalize to (counter.ClockTicksPerSecond).
func clockTicksHint(_ counter.Source) int {
	return counter.ClockTicksPerSecond()
}

// sectorSizeOf returns the active provider's DiskSectorSize when it has
// one: the cached per-device hardware sector size for procfs, a constant 1
// for gopsutil (which already reports bytes, making DiffHost's
// sector*size multiplication a no-op). A source without DiskSectorSize
// gets 512 for every device.
func sectorSizeOf(src counter.Source) counter.SectorSizer {
	if ss, ok := src.(interface{ DiskSectorSize(string) uint64 }); ok {
		return ss.DiskSectorSize
	}
	return func(string) uint64 { return 512 }
}
