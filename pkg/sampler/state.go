package sampler

import "sync/atomic"

// Subject distinguishes the two Sampler Loop instances the Supervisor runs:
// one walking a pid tree, one reading whole-host counters.
type Subject int

const (
	SubjectPid Subject = iota
	SubjectHost
)

func (s Subject) String() string {
	if s == SubjectHost {
		return "host"
	}
	return "pid"
}

// State is the Sampler Loop's lifecycle, starting -> running -> exited.
// A typed enum backed by an atomic.Int32 so Run's goroutine and an
// observer (e.g. the Supervisor, or a test) can read it without a mutex.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateExited
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	default:
		return "starting"
	}
}

type stateBox struct {
	v atomic.Int32
}

func newStateBox() *stateBox {
	b := &stateBox{}
	b.v.Store(int32(StateStarting))
	return b
}

func (b *stateBox) get() State { return State(b.v.Load()) }

func (b *stateBox) set(s State) { b.v.Store(int32(s)) }
