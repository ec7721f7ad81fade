package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(ctx *DeviceContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(ctx.Device, &fenceCreateInfo, ctx.Allocator, &handle); res != vk.Success {
		return nil, vkResultError(core.ErrResourceCreation, "vkCreateFence", res)
	}
	fence.Handle = handle
	return fence, nil
}

func (vf *VulkanFence) Destroy(ctx *DeviceContext) {
	if vf.Handle != vk.NullFence {
		vk.DestroyFence(ctx.Device, vf.Handle, ctx.Allocator)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

// Wait blocks until the fence signals or timeoutNs elapses.
func (vf *VulkanFence) Wait(ctx *DeviceContext, timeoutNs uint64) bool {
	if vf.IsSignaled {
		return true
	}
	result := vk.WaitForFences(ctx.Device, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return true
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
	case vk.ErrorDeviceLost:
		core.LogError("vk_fence_wait - VK_ERROR_DEVICE_LOST.")
	case vk.ErrorOutOfHostMemory:
		core.LogError("vk_fence_wait - VK_ERROR_OUT_OF_HOST_MEMORY.")
	case vk.ErrorOutOfDeviceMemory:
		core.LogError("vk_fence_wait - VK_ERROR_OUT_OF_DEVICE_MEMORY.")
	default:
		core.LogError("vk_fence_wait - %s", VulkanResultString(result, true))
	}
	return false
}

func (vf *VulkanFence) Reset(ctx *DeviceContext) error {
	if !vf.IsSignaled {
		return nil
	}
	if res := vk.ResetFences(ctx.Device, 1, []vk.Fence{vf.Handle}); res != vk.Success {
		return vkResultError(core.ErrSubmission, "vkResetFences", res)
	}
	vf.IsSignaled = false
	return nil
}
