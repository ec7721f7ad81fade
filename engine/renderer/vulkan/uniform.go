package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/math"
)

const uniformBufferSize = 3 * 16 * 4

// createUniformBuffers makes one persistently mapped uniform buffer per
// swapchain image.
func createUniformBuffers(ctx *DeviceContext, imageCount int) ([]*VulkanBuffer, error) {
	buffers := make([]*VulkanBuffer, 0, imageCount)
	for i := 0; i < imageCount; i++ {
		buf, err := NewBuffer(ctx, uniformBufferSize,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
		if err != nil {
			destroyBuffers(ctx, buffers)
			return nil, err
		}
		if err := buf.Map(ctx); err != nil {
			buf.Destroy(ctx)
			destroyBuffers(ctx, buffers)
			return nil, err
		}
		buffers = append(buffers, buf)
	}
	return buffers, nil
}

func destroyBuffers(ctx *DeviceContext, buffers []*VulkanBuffer) {
	for _, buf := range buffers {
		buf.Destroy(ctx)
	}
}

// writeUniform stores the transform in the uniform buffer of the given image.
func writeUniform(ctx *DeviceContext, buffer *VulkanBuffer, transform math.SpinTransform) error {
	return buffer.LoadData(ctx, transform.Bytes())
}
