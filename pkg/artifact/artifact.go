// Package artifact assembles the aggregate record the sampler
// yields to its caller: the Counter Source implementation label, the two
// per-interval tables, cloud/server inventory, derived stats, and
// historical comparison — or, on the short-circuit path, a structured
// error in place of the normal payload.
package artifact

import (
	"github.com/taskmetrics/resourcetracker/pkg/external"
	"github.com/taskmetrics/resourcetracker/pkg/rterrors"
	"github.com/taskmetrics/resourcetracker/pkg/stats"
	"github.com/taskmetrics/resourcetracker/pkg/table"
)

// ResourceTrackerInfo identifies which Counter Source implementation
// produced an artifact (its resource_tracker.{version,
// implementation}).
type ResourceTrackerInfo struct {
	Version        string
	Implementation string // "procfs" or "psutil"
}

// Artifact is the full aggregate record produced by one supervised run.
type Artifact struct {
	ResourceTracker ResourceTrackerInfo
	PidTracker      *table.Table
	SystemTracker   *table.Table
	CloudInfo       external.CloudInfo
	ServerInfo      external.ServerInfo
	Stats           *stats.Stats
	Allocation      string
	HistoricalStats stats.HistoricalStats

	// Error, when non-nil, replaces the normal payload entirely: the
	// short-circuit path for a worker crash, tagged SamplerWorkerCrash.
	// Callers must check Error before touching any other field.
	Error *rterrors.Tracked
}

// Assemble is the pure function pkg/supervisor's post-task step calls:
// kept separate from supervisor so it's testable without spawning real
// subprocesses.
func Assemble(
	version, implementation string,
	pidTracker, systemTracker *table.Table,
	cloud external.CloudInfo,
	server external.ServerInfo,
	s *stats.Stats,
	allocation string,
	historical stats.HistoricalStats,
) *Artifact {
	return &Artifact{
		ResourceTracker: ResourceTrackerInfo{Version: version, Implementation: implementation},
		PidTracker:      pidTracker,
		SystemTracker:   systemTracker,
		CloudInfo:       cloud,
		ServerInfo:      server,
		Stats:           s,
		Allocation:      allocation,
		HistoricalStats: historical,
	}
}

// Failed builds the short-circuit artifact for a worker crash.
func Failed(errType string, err error) *Artifact {
	return &Artifact{Error: rterrors.Capture(errType, err)}
}
