package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

// VulkanBuffer is a buffer handle with its dedicated memory allocation.
type VulkanBuffer struct {
	Handle     vk.Buffer
	Memory     vk.DeviceMemory
	Size       uint64
	Usage      vk.BufferUsageFlags
	Properties vk.MemoryPropertyFlags

	mapped unsafe.Pointer
}

func NewBuffer(ctx *DeviceContext, size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: zero sized buffer", core.ErrResourceCreation)
	}
	buf := &VulkanBuffer{
		Size:       size,
		Usage:      usage,
		Properties: properties,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if res := vk.CreateBuffer(ctx.Device, &bufferInfo, ctx.Allocator, &handle); res != vk.Success {
		return nil, vkResultError(core.ErrResourceCreation, "vkCreateBuffer", res)
	}
	buf.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(ctx.Device, buf.Handle, &requirements)
	requirements.Deref()

	memoryIndex, err := ctx.FindMemoryIndex(requirements.MemoryTypeBits, properties)
	if err != nil {
		buf.Destroy(ctx)
		return nil, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(ctx.Device, &allocInfo, ctx.Allocator, &memory); res != vk.Success {
		buf.Destroy(ctx)
		return nil, vkResultError(core.ErrResourceCreation, "vkAllocateMemory", res)
	}
	buf.Memory = memory

	if res := vk.BindBufferMemory(ctx.Device, buf.Handle, buf.Memory, 0); res != vk.Success {
		buf.Destroy(ctx)
		return nil, vkResultError(core.ErrResourceCreation, "vkBindBufferMemory", res)
	}
	return buf, nil
}

// Map keeps the whole buffer mapped until Unmap or Destroy.
func (b *VulkanBuffer) Map(ctx *DeviceContext) error {
	if b.mapped != nil {
		return nil
	}
	var data unsafe.Pointer
	if res := vk.MapMemory(ctx.Device, b.Memory, 0, vk.DeviceSize(b.Size), 0, &data); res != vk.Success {
		return vkResultError(core.ErrResourceCreation, "vkMapMemory", res)
	}
	b.mapped = data
	return nil
}

func (b *VulkanBuffer) Unmap(ctx *DeviceContext) {
	if b.mapped == nil {
		return
	}
	vk.UnmapMemory(ctx.Device, b.Memory)
	b.mapped = nil
}

// LoadData copies data into host visible memory, mapping it for the duration
// of the copy unless the buffer is already mapped.
func (b *VulkanBuffer) LoadData(ctx *DeviceContext, data []byte) error {
	if uint64(len(data)) > b.Size {
		return fmt.Errorf("%w: %d bytes do not fit a %d byte buffer", core.ErrResourceCreation, len(data), b.Size)
	}
	if b.mapped != nil {
		vk.Memcopy(b.mapped, data)
		return nil
	}
	if err := b.Map(ctx); err != nil {
		return err
	}
	vk.Memcopy(b.mapped, data)
	b.Unmap(ctx)
	return nil
}

// Destroy releases the handle before its memory. Safe on a partial buffer.
func (b *VulkanBuffer) Destroy(ctx *DeviceContext) {
	if b == nil || ctx.Device == nil {
		return
	}
	b.Unmap(ctx)
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(ctx.Device, b.Handle, ctx.Allocator)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(ctx.Device, b.Memory, ctx.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
}
