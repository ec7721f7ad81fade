package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

// frameSlot is the synchronization of one of the K frames in flight.
type frameSlot struct {
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       *VulkanFence
}

func newSemaphore(ctx *DeviceContext) (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(ctx.Device, &semaphoreCreateInfo, ctx.Allocator, &semaphore); res != vk.Success {
		return vk.NullSemaphore, vkResultError(core.ErrResourceCreation, "vkCreateSemaphore", res)
	}
	return semaphore, nil
}

// createFrameSlots creates the semaphores and the signaled fences of every slot.
func createFrameSlots(ctx *DeviceContext) ([MaxFramesInFlight]frameSlot, error) {
	var slots [MaxFramesInFlight]frameSlot
	for i := range slots {
		if err := slots[i].create(ctx); err != nil {
			destroyFrameSlots(ctx, slots[:])
			return slots, err
		}
	}
	return slots, nil
}

func (f *frameSlot) create(ctx *DeviceContext) error {
	var err error
	if f.imageAvailable, err = newSemaphore(ctx); err != nil {
		return err
	}
	if f.renderFinished, err = newSemaphore(ctx); err != nil {
		return err
	}
	// Signaled, so the first wait on a fresh slot does not block.
	f.inFlight, err = NewFence(ctx, true)
	return err
}

// recycleImageAvailable replaces the acquire semaphore of the slot. Used when
// an image was acquired but the frame was abandoned, which leaves the old
// semaphore signaled with no wait pending on it.
func (f *frameSlot) recycleImageAvailable(ctx *DeviceContext) error {
	semaphore, err := newSemaphore(ctx)
	if err != nil {
		return err
	}
	if f.imageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(ctx.Device, f.imageAvailable, ctx.Allocator)
	}
	f.imageAvailable = semaphore
	return nil
}

func (f *frameSlot) destroy(ctx *DeviceContext) {
	if f.imageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(ctx.Device, f.imageAvailable, ctx.Allocator)
		f.imageAvailable = vk.NullSemaphore
	}
	if f.renderFinished != vk.NullSemaphore {
		vk.DestroySemaphore(ctx.Device, f.renderFinished, ctx.Allocator)
		f.renderFinished = vk.NullSemaphore
	}
	if f.inFlight != nil {
		f.inFlight.Destroy(ctx)
		f.inFlight = nil
	}
}

func destroyFrameSlots(ctx *DeviceContext, slots []frameSlot) {
	for i := range slots {
		slots[i].destroy(ctx)
	}
}
