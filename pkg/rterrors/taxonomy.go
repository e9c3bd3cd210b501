// Package rterrors defines the sampler's error taxonomy. Every error a
// caller might need to distinguish is a package-level sentinel so it can be
// matched with errors.Is; recovered per-field failures never use this
// package at all (they just become zero, per the best-effort-transparent
// policy described in pkg/counter and pkg/gpuprobe).
package rterrors

import (
	"errors"
	"runtime/debug"
)

var (
	// ErrNoCounterSource means neither procfs nor gopsutil could be used at
	// startup. Fatal to sampling: no CSV is produced for the run.
	ErrNoCounterSource = errors.New("rterrors: no counter source available")

	// ErrSampleFieldMissing is never returned to a caller; it documents the
	// class of error that individual field readers recover from locally.
	ErrSampleFieldMissing = errors.New("rterrors: sample field missing")

	// ErrGpuProbeTimeout means the GPU probe subprocess exceeded its hard
	// deadline and was killed.
	ErrGpuProbeTimeout = errors.New("rterrors: gpu probe timed out")

	// ErrGpuProbeAbsent means nvidia-smi is not installed.
	ErrGpuProbeAbsent = errors.New("rterrors: gpu probe binary not found")

	// ErrSamplerWorkerCrash means a sampler subprocess exited non-zero or
	// was killed by a signal before producing a complete CSV.
	ErrSamplerWorkerCrash = errors.New("rterrors: sampler worker crashed")

	// ErrHistoricalLookupFailure means the historical-run lookup failed;
	// callers fall back to HistoricalStats{Available: false}.
	ErrHistoricalLookupFailure = errors.New("rterrors: historical lookup failed")

	// ErrCloudMetadataFailure means every cloud metadata probe failed;
	// callers fall back to CloudInfo{"unknown","unknown","unknown"}.
	ErrCloudMetadataFailure = errors.New("rterrors: cloud metadata detection failed")

	// ErrColumnNotFound, ErrLengthMismatch, and ErrInvalidIndex are the
	// TableOperationError family: programmer errors, always raised, never
	// silently hidden.
	ErrColumnNotFound  = errors.New("rterrors: column not found")
	ErrLengthMismatch  = errors.New("rterrors: column length mismatch")
	ErrInvalidIndex    = errors.New("rterrors: invalid indexer")
	ErrInvalidConfig   = errors.New("rterrors: invalid configuration option")
)

// Tracked is the structured error object the artifact carries for the
// short-circuit path: {error_type, error_message, traceback}.
type Tracked struct {
	Type      string `json:"error_type"`
	Message   string `json:"error_message"`
	Traceback string `json:"traceback"`
}

func (t *Tracked) Error() string {
	return t.Type + ": " + t.Message
}

// Capture wraps err into a Tracked record, stamping a stack trace captured
// at the call site (the Go analogue of a Python traceback).
func Capture(errType string, err error) *Tracked {
	if err == nil {
		return nil
	}
	return &Tracked{
		Type:      errType,
		Message:   err.Error(),
		Traceback: string(debug.Stack()),
	}
}
