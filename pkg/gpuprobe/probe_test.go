package gpuprobe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePmon_FiltersByPid(t *testing.T) {
	out := []byte(
		"# gpu        pid  type    sm   mem   enc   dec   jpg   ofa    fb   command\n" +
			"# Idx          #   C/G     %     %     %     %     %     %    MB   name\n" +
			"    0       1234     C    45    20     -     -     -     -  1024   python\n" +
			"    0       9999     C    10     5     -     -     -     -   256   other\n" +
			"    1       1234     C     -     -     -     -     -     -     0   python\n",
	)

	stats := parsePmon(out, map[int]struct{}{1234: {}})

	assert.InDelta(t, 0.45, stats.Usage, 1e-9)
	assert.Equal(t, 1024.0, stats.VRAMMiB)
	assert.Equal(t, 1, stats.Utilized)
	assert.Contains(t, stats.UtilizedIndexes, 0)
	assert.NotContains(t, stats.UtilizedIndexes, 1)
}

func TestParsePmon_NoTrackedRows(t *testing.T) {
	out := []byte(
		"# gpu pid type sm mem enc dec jpg ofa fb command\n" +
			"# Idx   #  C/G  %   %   %   %   %   %  MB name\n" +
			"   0  555    C 10   5   -   -   -   - 64 other\n",
	)

	stats := parsePmon(out, map[int]struct{}{1234: {}})

	assert.Equal(t, 0.0, stats.Usage)
	assert.Equal(t, 0, stats.Utilized)
	assert.Empty(t, stats.UtilizedIndexes)
}

func TestPmonProber_Sample_MissingBinary(t *testing.T) {
	p := &PmonProber{Path: "nvidia-smi-does-not-exist-xyz"}
	stats := p.Sample(nil, nil)
	assert.Equal(t, 0.0, stats.Usage)
	assert.NotNil(t, stats.UtilizedIndexes)
}

func TestParseQueryGPU_AggregatesAcrossDevices(t *testing.T) {
	out := []byte("0, 50, 1024\n1, 0, 512\n")

	stats := parseQueryGPU(out)

	require := assert.New(t)
	require.InDelta(0.5, stats.Usage, 1e-9)
	require.Equal(1536.0, stats.VRAMMiB)
	require.Equal(1, stats.Utilized)
	require.Contains(stats.UtilizedIndexes, 0)
	require.NotContains(stats.UtilizedIndexes, 1)
}

func TestQueryGPUProber_SampleHost_MissingBinary(t *testing.T) {
	q := &QueryGPUProber{Path: "nvidia-smi-does-not-exist-xyz"}
	stats := q.SampleHost(nil)
	assert.Equal(t, 0, stats.Utilized)
	assert.NotNil(t, stats.UtilizedIndexes)
}
