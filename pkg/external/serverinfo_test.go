package external

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatherServerInfo_NeverPanics(t *testing.T) {
	info := GatherServerInfo()
	assert.GreaterOrEqual(t, info.VCPUs, 1)
	assert.GreaterOrEqual(t, info.GPUCount, 0)
}
