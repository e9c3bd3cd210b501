//go:build linux

package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPartition_NamePatterns(t *testing.T) {
	t.Run("non_matching_name", func(t *testing.T) {
		assert.False(t, isPartition("totally-not-a-disk"))
	})
	t.Run("whole_disk_name_without_parent", func(t *testing.T) {
		// A whole-disk name such as "sda" has no trailing partition number,
		// so it never matches the partition pattern.
		assert.False(t, isPartition("sda"))
	})
}

func TestSectorSizeCache_DefaultsTo512(t *testing.T) {
	c := newSectorSizeCache()
	assert.Equal(t, uint64(512), c.get("nonexistent-device-xyz"))
	// second call hits the cache and returns the same value.
	assert.Equal(t, uint64(512), c.get("nonexistent-device-xyz"))
}
