package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmetrics/resourcetracker/pkg/artifact"
	"github.com/taskmetrics/resourcetracker/pkg/external"
	"github.com/taskmetrics/resourcetracker/pkg/stats"
)

func TestRender_SuccessPath(t *testing.T) {
	a := artifact.Assemble(
		"1.0.0", "procfs", nil, nil,
		external.CloudInfo{Vendor: "aws", InstanceType: "m5.large", Region: "us-east-1"},
		external.ServerInfo{VCPUs: 8, MemoryMB: 32000},
		&stats.Stats{DurationSeconds: 12.34, CPUUsage: stats.MeanMax{Mean: 0.5, Max: 0.9}},
		"Dedicated",
		stats.HistoricalStats{Available: false},
	)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, a))
	out := buf.String()
	assert.Contains(t, out, "Dedicated")
	assert.Contains(t, out, "aws")
	assert.NotContains(t, out, "Historical")
}

func TestRender_ErrorPath(t *testing.T) {
	a := artifact.Failed("SamplerWorkerCrash", errors.New("boom"))

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, a))
	assert.Contains(t, buf.String(), "run failed")
	assert.Contains(t, buf.String(), "SamplerWorkerCrash")
}
