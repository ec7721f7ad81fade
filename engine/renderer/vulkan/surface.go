package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

type SurfaceState uint8

const (
	SurfaceUninitialized SurfaceState = iota
	SurfaceReady
	SurfaceStale
	SurfaceDestroyed
)

func (s SurfaceState) String() string {
	switch s {
	case SurfaceReady:
		return "ready"
	case SurfaceStale:
		return "stale"
	case SurfaceDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

// PresentationSurface owns the native surface and the swapchain built on it.
type PresentationSurface struct {
	ctx    *DeviceContext
	window Window

	Surface vk.Surface
	State   SurfaceState

	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Images      []vk.Image
	Views       []vk.ImageView
}

func newPresentationSurface(ctx *DeviceContext, window Window) (*PresentationSurface, error) {
	surface, err := window.CreateSurface(ctx.Instance)
	if err != nil {
		return nil, fmt.Errorf("%w: surface: %s", core.ErrContextCreation, err)
	}
	core.LogDebug("Vulkan surface created.")
	return &PresentationSurface{
		ctx:     ctx,
		window:  window,
		Surface: surface,
		State:   SurfaceUninitialized,
	}, nil
}

// ImageCount is N, the number of presentable images.
func (ps *PresentationSurface) ImageCount() int {
	return len(ps.Images)
}

// MarkStale records that the swapchain no longer matches the surface.
func (ps *PresentationSurface) MarkStale() {
	if ps.State == SurfaceReady {
		ps.State = SurfaceStale
	}
}

// createSwapchain negotiates the swapchain against the current surface
// capabilities and creates one view per image.
func (ps *PresentationSurface) createSwapchain() error {
	if ps.State == SurfaceDestroyed {
		return fmt.Errorf("%w: surface already destroyed", core.ErrSwapchainCreation)
	}
	support, err := querySwapchainSupport(ps.ctx.Adapter.PhysicalDevice, ps.Surface)
	if err != nil {
		return err
	}
	width, height := ps.window.FramebufferSize()
	settings, err := negotiateSwapchain(support, width, height)
	if err != nil {
		return err
	}
	ps.ImageFormat = settings.Format
	ps.PresentMode = settings.PresentMode
	ps.Extent = settings.Extent

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ps.Surface,
		MinImageCount:    settings.ImageCount,
		ImageFormat:      ps.ImageFormat.Format,
		ImageColorSpace:  ps.ImageFormat.ColorSpace,
		ImageExtent:      ps.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      ps.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	mode, families := sharingMode(ps.ctx.Adapter.GraphicsFamily, ps.ctx.Adapter.PresentFamily)
	swapchainCreateInfo.ImageSharingMode = mode
	swapchainCreateInfo.QueueFamilyIndexCount = uint32(len(families))
	swapchainCreateInfo.PQueueFamilyIndices = families

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(ps.ctx.Device, &swapchainCreateInfo, ps.ctx.Allocator, &handle); res != vk.Success {
		return vkResultError(core.ErrSwapchainCreation, "vkCreateSwapchainKHR", res)
	}
	ps.Handle = handle

	var count uint32
	if res := vk.GetSwapchainImages(ps.ctx.Device, ps.Handle, &count, nil); res != vk.Success {
		ps.destroySwapchain()
		return vkResultError(core.ErrSwapchainCreation, "vkGetSwapchainImagesKHR", res)
	}
	images := make([]vk.Image, count)
	if res := vk.GetSwapchainImages(ps.ctx.Device, ps.Handle, &count, images); res != vk.Success {
		ps.destroySwapchain()
		return vkResultError(core.ErrSwapchainCreation, "vkGetSwapchainImagesKHR", res)
	}
	ps.Images = images[:count]

	ps.Views = make([]vk.ImageView, 0, count)
	for _, image := range ps.Images {
		view, err := createImageView(ps.ctx, image, ps.ImageFormat.Format)
		if err != nil {
			ps.destroySwapchain()
			return fmt.Errorf("%w: %s", core.ErrSwapchainCreation, err)
		}
		ps.Views = append(ps.Views, view)
	}

	ps.State = SurfaceReady
	core.LogInfo("Swapchain created: %dx%d, %d images, present mode %d.", ps.Extent.Width, ps.Extent.Height, len(ps.Images), ps.PresentMode)
	return nil
}

// destroySwapchain releases the views and the swapchain. The images belong to
// the swapchain and go with it.
func (ps *PresentationSurface) destroySwapchain() {
	for _, view := range ps.Views {
		vk.DestroyImageView(ps.ctx.Device, view, ps.ctx.Allocator)
	}
	ps.Views = nil
	ps.Images = nil

	if ps.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(ps.ctx.Device, ps.Handle, ps.ctx.Allocator)
		ps.Handle = vk.NullSwapchain
	}
	if ps.State != SurfaceDestroyed {
		ps.State = SurfaceUninitialized
	}
}

func (ps *PresentationSurface) acquireNextImage(timeoutNS uint64, imageAvailable vk.Semaphore) (uint32, vk.Result) {
	var imageIndex uint32
	res := vk.AcquireNextImage(ps.ctx.Device, ps.Handle, timeoutNS, imageAvailable, vk.NullFence, &imageIndex)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal {
		ps.MarkStale()
	}
	return imageIndex, res
}

func (ps *PresentationSurface) present(renderFinished vk.Semaphore, imageIndex uint32) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{ps.Handle},
		PImageIndices:      []uint32{imageIndex},
	}
	var res vk.Result
	_ = ps.ctx.locks.SafeQueueCall(ps.ctx.Adapter.PresentFamily, func() error {
		res = vk.QueuePresent(ps.ctx.PresentQueue, &presentInfo)
		return nil
	})
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal {
		ps.MarkStale()
	}
	return res
}

// Destroy tears down the swapchain and the native surface.
func (ps *PresentationSurface) Destroy() {
	if ps.ctx.Device != nil {
		ps.destroySwapchain()
	}
	if ps.Surface != vk.NullSurface && ps.ctx.Instance != nil {
		vk.DestroySurface(ps.ctx.Instance, ps.Surface, ps.ctx.Allocator)
		ps.Surface = vk.NullSurface
	}
	ps.State = SurfaceDestroyed
}
