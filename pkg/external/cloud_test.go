package external

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastPathSegment(t *testing.T) {
	assert.Equal(t, "n1-standard-2", lastPathSegment("projects/123/machineTypes/n1-standard-2"))
	assert.Equal(t, "plain", lastPathSegment("plain"))
}

func TestUnknownCloudShape(t *testing.T) {
	assert.Equal(t, CloudInfo{Vendor: "unknown", InstanceType: "unknown", Region: "unknown"}, unknownCloud)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.234))
	assert.Equal(t, 1.24, round2(1.235))
}
