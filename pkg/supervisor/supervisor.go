// Package supervisor implements the Sampler Supervisor: the lifecycle
// around one pid-tree Sampler Loop and one host Sampler Loop, each run in
// its own OS process ("processes, not threads"), plus a concurrent
// cloud-metadata probe and synchronous server-inventory gather.
//
// Concurrency model: three independent units exist during measurement —
// the user's monitored task, the pid-tree sampler subprocess, and the
// host sampler subprocess — plus a lightweight cloud-metadata goroutine
// in the supervisor's own process. Go has no GIL, so goroutines would
// suffice for throughput, but a crash or SIGKILL delivered to the
// monitored task must never touch the sampler, which is only guaranteed
// by process boundaries, so this package re-execs itself rather than
// spawning goroutines for the two loops.
//
//go:build unix

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/taskmetrics/resourcetracker/pkg/artifact"
	"github.com/taskmetrics/resourcetracker/pkg/external"
	"github.com/taskmetrics/resourcetracker/pkg/stats"
	"github.com/taskmetrics/resourcetracker/pkg/table"
)

// WorkerError is posted to a Run's error channel by the goroutine that
// waits on a worker subprocess ("a small process-shared
// channel" — realized as a regular Go channel since both ends live in the
// supervisor's own process; only the sampling itself is isolated into
// subprocesses).
type WorkerError struct {
	Subject string // "pid" or "host"
	Err     error
}

// killGrace is how long Finish waits after SIGTERM before escalating to
// SIGKILL on the host worker ("SIGTERM, then SIGKILL on
// timeout").
const killGrace = 3 * time.Second

// Run tracks one supervised measurement: two worker subprocesses, their
// output files, and the concurrent cloud-info probe.
type Run struct {
	cfg       Config
	targetPid int

	pidCmd      *exec.Cmd
	hostCmd     *exec.Cmd
	pidCSVPath  string
	hostCSVPath string

	errs chan WorkerError

	cloudInfo external.CloudInfo
	cloudDone chan struct{}

	serverInfo external.ServerInfo

	startedAt time.Time

	historical stats.HistoricalLookup

	cleanupOnce sync.Once
}

// Start allocates two unique temp output files, re-execs itself twice as
// `sampler-worker` subprocesses (one per subject), launches the
// cloud-metadata goroutine, and gathers server inventory synchronously,
// exactly matching its pre-task lifecycle.
func Start(ctx context.Context, targetPid int, cfg Config, historical stats.HistoricalLookup) (*Run, error) {
	if historical == nil {
		historical = stats.NopHistorical{}
	}

	pidPath, err := uniqueTempPath("rt-pid-*.csv")
	if err != nil {
		return nil, fmt.Errorf("supervisor: allocate pid csv: %w", err)
	}
	hostPath, err := uniqueTempPath("rt-host-*.csv")
	if err != nil {
		return nil, fmt.Errorf("supervisor: allocate host csv: %w", err)
	}

	r := &Run{
		cfg:         cfg,
		targetPid:   targetPid,
		pidCSVPath:  pidPath,
		hostCSVPath: hostPath,
		errs:        make(chan WorkerError, 2),
		cloudDone:   make(chan struct{}),
		startedAt:   time.Now(),
		historical:  historical,
	}

	r.pidCmd = workerCommand("pid", targetPid, pidPath, cfg.Interval)
	r.hostCmd = workerCommand("host", targetPid, hostPath, cfg.Interval)

	if err := r.pidCmd.Start(); err != nil {
		return nil, fmt.Errorf("supervisor: start pid worker: %w", err)
	}
	if err := r.hostCmd.Start(); err != nil {
		_ = r.pidCmd.Process.Kill()
		return nil, fmt.Errorf("supervisor: start host worker: %w", err)
	}

	go r.waitWorker("pid", r.pidCmd)
	go r.waitWorker("host", r.hostCmd)

	go func() {
		defer close(r.cloudDone)
		r.cloudInfo = external.DetectCloud(ctx)
	}()

	r.serverInfo = external.GatherServerInfo()

	return r, nil
}

func (r *Run) waitWorker(subject string, cmd *exec.Cmd) {
	err := cmd.Wait()
	if err != nil {
		r.errs <- WorkerError{Subject: subject, Err: err}
	}
}

// uniqueTempPath allocates a temp file path under a google/uuid-seeded
// name, guaranteeing no collision across concurrent runs even under
// clock-resolution races.
func uniqueTempPath(pattern string) (string, error) {
	f, err := os.CreateTemp("", addUUID(pattern))
	if err != nil {
		return "", err
	}
	path := f.Name()
	_ = f.Close()
	return path, nil
}

func addUUID(pattern string) string {
	return uuid.NewString() + "-" + pattern
}

func workerCommand(subject string, pid int, outPath string, interval time.Duration) *exec.Cmd {
	args := []string{
		"sampler-worker",
		"--subject=" + subject,
		"--pid=" + strconv.Itoa(pid),
		"--out=" + outPath,
		"--interval=" + strconv.FormatFloat(interval.Seconds(), 'f', -1, 64),
	}
	cmd := exec.Command(os.Args[0], args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd
}

// Finish ends the host worker (SIGTERM, then SIGKILL after killGrace), and
// assembles the Artifact — or, if either worker reported a crash, the
// short-circuit error Artifact tagged SamplerWorkerCrash.
func (r *Run) Finish(ctx context.Context) (*artifact.Artifact, error) {
	r.terminateHost()

	select {
	case <-r.cloudDone:
	case <-time.After(2 * time.Second):
	}

	defer r.cleanup()

	select {
	case werr := <-r.errs:
		return artifact.Failed("SamplerWorkerCrash", fmt.Errorf("%s worker: %w", werr.Subject, werr.Err)), nil
	default:
	}

	pidTable, err := table.FromCSV(ctx, r.pidCSVPath)
	if err != nil {
		return artifact.Failed("SamplerWorkerCrash", err), nil
	}
	hostTable, err := table.FromCSV(ctx, r.hostCSVPath)
	if err != nil {
		return artifact.Failed("SamplerWorkerCrash", err), nil
	}

	pidTable, hostTable = trimToShorter(pidTable, hostTable)

	s, err := stats.Compute(pidTable, hostTable, r.startedAt, time.Now())
	if err != nil {
		return nil, fmt.Errorf("supervisor: compute stats: %w", err)
	}

	allocation := stats.ServerAllocation(s.TaskMeans, s.HostMeans)

	runs, herr := r.historical.Previous(ctx, r.cfg.ArtifactName, 5)
	historical := stats.HistoricalStats{Available: false}
	if herr == nil {
		historical = stats.Historical(runs)
	} else {
		slog.Warn("historical lookup failed", "err", herr)
	}

	a := artifact.Assemble(
		"1.0.0", implementationLabel(),
		pidTable, hostTable,
		r.cloudInfo, r.serverInfo,
		s, allocation, historical,
	)
	return a, nil
}

// trimToShorter enforces spec invariant 2: pid_tracker and system_tracker
// row counts, when compared, are truncated to the shorter of the two.
func trimToShorter(pidTable, hostTable *table.Table) (*table.Table, *table.Table) {
	n := pidTable.Len()
	if hostTable.Len() < n {
		n = hostTable.Len()
	}
	p, err := pidTable.Head(n)
	if err != nil {
		p = pidTable
	}
	h, err := hostTable.Head(n)
	if err != nil {
		h = hostTable
	}
	return p, h
}

func (r *Run) terminateHost() {
	if r.hostCmd == nil || r.hostCmd.Process == nil {
		return
	}
	pid := r.hostCmd.Process.Pid
	_ = unix.Kill(pid, unix.SIGTERM)

	done := make(chan struct{})
	go func() {
		_, _ = r.hostCmd.Process.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(killGrace):
		_ = unix.Kill(pid, unix.SIGKILL)
	}
}

// cleanup removes both temp CSV files; logged, never fatal, and
// guaranteed to run exactly once regardless of which branch Finish took
// (its "guaranteed-release scoped cleanup", realized with defer
// rather than a context-manager/try-finally).
func (r *Run) cleanup() {
	r.cleanupOnce.Do(func() {
		_ = os.Remove(r.pidCSVPath)
		_ = os.Remove(r.hostCSVPath)
	})
}

func implementationLabel() string {
	if _, err := os.Stat("/proc"); err == nil {
		return "procfs"
	}
	return "psutil"
}
