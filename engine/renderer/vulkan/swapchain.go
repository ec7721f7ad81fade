package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
	"github.com/spaghettifunk/vkquad/engine/math"
)

var preferredSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Unorm,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// chooseSurfaceFormat prefers BGRA8 unorm with an sRGB nonlinear color space
// and otherwise takes the first format offered. A lone Undefined entry means
// the surface has no preference.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	if len(formats) == 0 {
		return preferredSurfaceFormat
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return preferredSurfaceFormat
	}
	for _, format := range formats {
		if format.Format == preferredSurfaceFormat.Format &&
			format.ColorSpace == preferredSurfaceFormat.ColorSpace {
			return format
		}
	}
	return formats[0]
}

// choosePresentMode takes Mailbox when offered; FIFO is always available.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the surface's current extent verbatim unless the surface
// leaves it to the swapchain, in which case the drawable size is clamped
// into the supported range.
func chooseExtent(caps vk.SurfaceCapabilities, drawableWidth, drawableHeight uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != surfaceExtentUndefined {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  math.Clamp(drawableWidth, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: math.Clamp(drawableHeight, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount asks for one image above the minimum, capped by the
// maximum when the surface has one.
func chooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}
	return imageCount
}

// sharingMode is concurrent across both families when they differ.
func sharingMode(graphicsFamily, presentFamily uint32) (vk.SharingMode, []uint32) {
	if graphicsFamily != presentFamily {
		return vk.SharingModeConcurrent, []uint32{graphicsFamily, presentFamily}
	}
	return vk.SharingModeExclusive, nil
}

// swapchainSettings is what a swapchain is created with.
type swapchainSettings struct {
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	ImageCount  uint32
}

// negotiateSwapchain picks the settings for the surface support and the
// current drawable size. The same inputs always give the same settings.
func negotiateSwapchain(support *SwapchainSupportInfo, drawableWidth, drawableHeight uint32) (swapchainSettings, error) {
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return swapchainSettings{}, fmt.Errorf("%w: surface reports no formats or present modes", core.ErrSwapchainCreation)
	}
	return swapchainSettings{
		Format:      chooseSurfaceFormat(support.Formats),
		PresentMode: choosePresentMode(support.PresentModes),
		Extent:      chooseExtent(support.Capabilities, drawableWidth, drawableHeight),
		ImageCount:  chooseImageCount(support.Capabilities),
	}, nil
}
