package artifact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmetrics/resourcetracker/pkg/external"
	"github.com/taskmetrics/resourcetracker/pkg/stats"
)

func TestAssemble_PopulatesEveryField(t *testing.T) {
	a := Assemble(
		"1.0.0", "procfs",
		nil, nil,
		external.CloudInfo{Vendor: "aws"},
		external.ServerInfo{VCPUs: 4},
		&stats.Stats{DurationSeconds: 1.5},
		"Dedicated",
		stats.HistoricalStats{Available: false},
	)
	require.Nil(t, a.Error)
	assert.Equal(t, "procfs", a.ResourceTracker.Implementation)
	assert.Equal(t, "aws", a.CloudInfo.Vendor)
	assert.Equal(t, 4, a.ServerInfo.VCPUs)
	assert.Equal(t, "Dedicated", a.Allocation)
}

func TestFailed_ShortCircuitsPayload(t *testing.T) {
	a := Failed("SamplerWorkerCrash", errors.New("boom"))
	require.NotNil(t, a.Error)
	assert.Equal(t, "SamplerWorkerCrash", a.Error.Type)
	assert.Nil(t, a.PidTracker)
}
