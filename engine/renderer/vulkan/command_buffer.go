package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

var errCommandBufferState = fmt.Errorf("command buffer in wrong state")

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState
}

// allocateCommandBuffers allocates count primary command buffers from the
// graphics command pool.
func allocateCommandBuffers(ctx *DeviceContext, count int) ([]*VulkanCommandBuffer, error) {
	if count == 0 {
		return nil, nil
	}
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        ctx.GraphicsCommandPool,
		CommandBufferCount: uint32(count),
		Level:              vk.CommandBufferLevelPrimary,
	}
	handles := make([]vk.CommandBuffer, count)
	err := ctx.locks.SafeCall(CommandPoolManagement, func() error {
		if res := vk.AllocateCommandBuffers(ctx.Device, &allocateInfo, handles); res != vk.Success {
			return vkResultError(core.ErrResourceCreation, "vkAllocateCommandBuffers", res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	buffers := make([]*VulkanCommandBuffer, count)
	for i, handle := range handles {
		buffers[i] = &VulkanCommandBuffer{
			Handle: handle,
			State:  COMMAND_BUFFER_STATE_READY,
		}
	}
	return buffers, nil
}

// freeCommandBuffers returns the buffers to the graphics command pool.
func freeCommandBuffers(ctx *DeviceContext, buffers []*VulkanCommandBuffer) {
	handles := make([]vk.CommandBuffer, 0, len(buffers))
	for _, cb := range buffers {
		if cb == nil || cb.Handle == nil {
			continue
		}
		handles = append(handles, cb.Handle)
		cb.Handle = nil
		cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	if len(handles) == 0 {
		return
	}
	_ = ctx.locks.SafeCall(CommandPoolManagement, func() error {
		vk.FreeCommandBuffers(ctx.Device, ctx.GraphicsCommandPool, uint32(len(handles)), handles)
		return nil
	})
}

func (v *VulkanCommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	if v.State != COMMAND_BUFFER_STATE_READY {
		return fmt.Errorf("%w: begin in state %d", errCommandBufferState, v.State)
	}
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if res := vk.BeginCommandBuffer(v.Handle, &beginInfo); res != vk.Success {
		return vkResultError(core.ErrResourceCreation, "vkBeginCommandBuffer", res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if v.State != COMMAND_BUFFER_STATE_RECORDING {
		return fmt.Errorf("%w: end in state %d", errCommandBufferState, v.State)
	}
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return vkResultError(core.ErrResourceCreation, "vkEndCommandBuffer", res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (v *VulkanCommandBuffer) Reset() {
	v.State = COMMAND_BUFFER_STATE_READY
}

// allocateAndBeginSingleUse allocates a command buffer and begins recording a
// one time submission.
func allocateAndBeginSingleUse(ctx *DeviceContext) (*VulkanCommandBuffer, error) {
	buffers, err := allocateCommandBuffers(ctx, 1)
	if err != nil {
		return nil, err
	}
	cb := buffers[0]
	if err := cb.Begin(true, false, false); err != nil {
		freeCommandBuffers(ctx, buffers)
		return nil, err
	}
	return cb, nil
}

// endSingleUse ends recording, submits to the graphics queue, waits for the
// queue to drain and frees the command buffer.
func (v *VulkanCommandBuffer) endSingleUse(ctx *DeviceContext) error {
	defer freeCommandBuffers(ctx, []*VulkanCommandBuffer{v})

	if err := v.End(); err != nil {
		return err
	}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}
	return ctx.locks.SafeQueueCall(ctx.Adapter.GraphicsFamily, func() error {
		if res := vk.QueueSubmit(ctx.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
			return vkResultError(core.ErrSubmission, "vkQueueSubmit", res)
		}
		v.UpdateSubmitted()
		if res := vk.QueueWaitIdle(ctx.GraphicsQueue); res != vk.Success {
			return vkResultError(core.ErrSubmission, "vkQueueWaitIdle", res)
		}
		return nil
	})
}

// recordQuadCommands records the full draw for one swapchain image: begin the
// render pass on its framebuffer, bind the pipeline, the quad geometry and
// the image's descriptor set, draw the indices and end.
func recordQuadCommands(cb *VulkanCommandBuffer, rp *VulkanRenderpass, fb vk.Framebuffer, extent vk.Extent2D, pipeline *PipelineState, vertex, index *VulkanBuffer, indexCount uint32, set vk.DescriptorSet) error {
	if err := cb.Begin(false, false, false); err != nil {
		return err
	}
	rp.begin(cb, fb, extent)

	vk.CmdBindPipeline(cb.Handle, vk.PipelineBindPointGraphics, pipeline.Handle)
	vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{vertex.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cb.Handle, index.Handle, 0, vk.IndexTypeUint16)
	vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, pipeline.Layout, 0, 1, []vk.DescriptorSet{set}, 0, nil)
	vk.CmdDrawIndexed(cb.Handle, indexCount, 1, 0, 0, 0)

	rp.end(cb)
	return cb.End()
}
