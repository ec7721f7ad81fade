package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

// FindMemoryType returns the lowest memory type index allowed by typeFilter
// whose property flags include every bit of required.
func FindMemoryType(props vk.PhysicalDeviceMemoryProperties, typeFilter uint32, required vk.MemoryPropertyFlags) (uint32, error) {
	count := props.MemoryTypeCount
	if count > uint32(len(props.MemoryTypes)) {
		count = uint32(len(props.MemoryTypes))
	}
	for i := uint32(0); i < count; i++ {
		if typeFilter&(1<<i) != 0 && props.MemoryTypes[i].PropertyFlags&required == required {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: filter %#x, flags %#x", core.ErrNoSuitableMemoryType, typeFilter, uint32(required))
}
