package supervisor

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmetrics/resourcetracker/pkg/table"
)

func TestNewConfig_Defaults(t *testing.T) {
	c, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.Interval)
	assert.Equal(t, "resource_tracker_data", c.ArtifactName)
	assert.True(t, c.CreateCard)
}

func TestNewConfig_RejectsNonPositiveInterval(t *testing.T) {
	_, err := NewConfig(WithInterval(0))
	assert.Error(t, err)
	_, err = NewConfig(WithInterval(-5))
	assert.Error(t, err)
}

func TestNewConfig_RejectsEmptyArtifactName(t *testing.T) {
	_, err := NewConfig(WithArtifactName(""))
	assert.Error(t, err)
}

func TestUniqueTempPath_NeverCollides(t *testing.T) {
	a, err := uniqueTempPath("rt-*.csv")
	require.NoError(t, err)
	defer os.Remove(a)
	b, err := uniqueTempPath("rt-*.csv")
	require.NoError(t, err)
	defer os.Remove(b)

	assert.NotEqual(t, a, b)
}

func TestWorkerCommand_BuildsExpectedFlags(t *testing.T) {
	cmd := workerCommand("host", 4242, "/tmp/out.csv", 2*time.Second)
	args := cmd.Args[1:]
	assert.Contains(t, args, "sampler-worker")
	assert.Contains(t, args, "--subject=host")
	assert.Contains(t, args, "--pid=4242")
	assert.Contains(t, args, "--out=/tmp/out.csv")
	assert.Contains(t, args, "--interval=2")
}

func TestTrimToShorter_KeepsShorterLength(t *testing.T) {
	pidTable, _ := table.FromColumns(map[string][]table.Cell{
		"a": {table.NumCell(1), table.NumCell(2), table.NumCell(3)},
	}, []string{"a"})
	hostTable, _ := table.FromColumns(map[string][]table.Cell{
		"b": {table.NumCell(9), table.NumCell(8)},
	}, []string{"b"})

	p, h := trimToShorter(pidTable, hostTable)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 2, h.Len())
}
