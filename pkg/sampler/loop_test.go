package sampler

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmetrics/resourcetracker/pkg/counter"
)

// fakeSource yields a scripted sequence of snapshots, one per call, then
// repeats the last forever (the pid test's loop stops on a zero-memory
// snapshot, the host test's on ctx cancellation).
type fakeSource struct {
	pidSnaps  []counter.PidSnapshot
	hostSnaps []counter.HostSnapshot
	callPid   int
	callHost  int
}

func (f *fakeSource) Implementation() string { return "fake" }

func (f *fakeSource) PidSnapshot(ctx context.Context, pid int, includeChildren bool) (counter.PidSnapshot, error) {
	i := f.callPid
	if i >= len(f.pidSnaps) {
		i = len(f.pidSnaps) - 1
	}
	f.callPid++
	return f.pidSnaps[i], nil
}

func (f *fakeSource) HostSnapshot(ctx context.Context) (counter.HostSnapshot, error) {
	i := f.callHost
	if i >= len(f.hostSnaps) {
		i = len(f.hostSnaps) - 1
	}
	f.callHost++
	return f.hostSnaps[i], nil
}

func TestLoop_PidStream_HeaderThenRowsThenExitsOnZeroMemory(t *testing.T) {
	src := &fakeSource{
		pidSnaps: []counter.PidSnapshot{
			{T: 0, Pid: 42, UtimeTicks: 100, StimeTicks: 10, MemoryKiB: 2048},
			{T: 1, Pid: 42, UtimeTicks: 150, StimeTicks: 20, MemoryKiB: 1024},
			{T: 2, Pid: 42, UtimeTicks: 150, StimeTicks: 20, MemoryKiB: 0},
		},
	}

	var buf bytes.Buffer
	l := NewLoop(SubjectPid, 42, time.Millisecond, &buf, src)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := l.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateExited, l.State())

	r := csv.NewReader(strings.NewReader(buf.String()))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, PidColumns, rows[0])
	// pid column stays 42 in the first data row.
	assert.Equal(t, "42", rows[1][1])
}

func TestLoop_HostStream_WritesHeaderAndRows(t *testing.T) {
	src := &fakeSource{
		hostSnaps: []counter.HostSnapshot{
			{T: 0, ProcessCount: 100, UtimeTicks: 1000, StimeTicks: 200},
			{T: 1, ProcessCount: 101, UtimeTicks: 1100, StimeTicks: 250},
		},
	}

	var buf bytes.Buffer
	l := NewLoop(SubjectHost, 0, time.Millisecond, &buf, src)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = l.Run(ctx)

	r := csv.NewReader(strings.NewReader(buf.String()))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 1)
	assert.Equal(t, HostColumns, rows[0])
}

func TestSubjectString(t *testing.T) {
	assert.Equal(t, "pid", SubjectPid.String())
	assert.Equal(t, "host", SubjectHost.String())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "exited", StateExited.String())
}
