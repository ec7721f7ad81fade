package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func family(flags vk.QueueFlagBits, count uint32) vk.QueueFamilyProperties {
	return vk.QueueFamilyProperties{
		QueueFlags: vk.QueueFlags(flags),
		QueueCount: count,
	}
}

func TestFindQueueFamilies(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		family(vk.QueueTransferBit, 1),
		family(vk.QueueGraphicsBit|vk.QueueComputeBit, 1),
		family(vk.QueueComputeBit, 1),
	}

	t.Run("shared family", func(t *testing.T) {
		q := findQueueFamilies(families, func(i uint32) bool { return i == 1 })
		assert.True(t, q.complete())
		assert.Equal(t, int32(1), q.graphics)
		assert.Equal(t, int32(1), q.present)
	})

	t.Run("separate present family", func(t *testing.T) {
		q := findQueueFamilies(families, func(i uint32) bool { return i == 2 })
		assert.Equal(t, int32(1), q.graphics)
		assert.Equal(t, int32(2), q.present)
	})

	t.Run("no present support", func(t *testing.T) {
		q := findQueueFamilies(families, func(uint32) bool { return false })
		assert.False(t, q.complete())
	})

	t.Run("empty graphics family is skipped", func(t *testing.T) {
		q := findQueueFamilies([]vk.QueueFamilyProperties{
			family(vk.QueueGraphicsBit, 0),
			family(vk.QueueGraphicsBit, 2),
		}, func(uint32) bool { return true })
		assert.Equal(t, int32(1), q.graphics)
		assert.Equal(t, int32(0), q.present)
	})
}

func TestUniqueQueueFamilies(t *testing.T) {
	assert.Equal(t, []uint32{0}, uniqueQueueFamilies(0, 0))
	assert.Equal(t, []uint32{0, 2}, uniqueQueueFamilies(0, 2))
}
