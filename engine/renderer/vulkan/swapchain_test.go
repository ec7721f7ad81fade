package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkquad/engine/core"
)

func TestChooseSurfaceFormat(t *testing.T) {
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	assert.Equal(t, preferredSurfaceFormat, chooseSurfaceFormat([]vk.SurfaceFormat{srgb, preferredSurfaceFormat}))
	assert.Equal(t, srgb, chooseSurfaceFormat([]vk.SurfaceFormat{srgb}))
	assert.Equal(t, preferredSurfaceFormat, chooseSurfaceFormat([]vk.SurfaceFormat{{Format: vk.FormatUndefined}}))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode([]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(nil))
}

func TestChooseExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: surfaceExtentUndefined, Height: surfaceExtentUndefined},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, chooseExtent(caps, 1024, 768))
	assert.Equal(t, vk.Extent2D{Width: 4096, Height: 1}, chooseExtent(caps, 5000, 0))

	caps.CurrentExtent = vk.Extent2D{Width: 800, Height: 600}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, chooseExtent(caps, 1024, 768))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 3}))
	assert.Equal(t, uint32(3), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}))
	assert.Equal(t, uint32(4), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 0}))
}

func TestSharingMode(t *testing.T) {
	mode, families := sharingMode(0, 0)
	assert.Equal(t, vk.SharingModeExclusive, mode)
	assert.Empty(t, families)

	mode, families = sharingMode(0, 1)
	assert.Equal(t, vk.SharingModeConcurrent, mode)
	assert.Equal(t, []uint32{0, 1}, families)
}

func TestNegotiateSwapchainIsStable(t *testing.T) {
	support := &SwapchainSupportInfo{
		Capabilities: vk.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  vk.Extent2D{Width: surfaceExtentUndefined, Height: surfaceExtentUndefined},
			MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		},
		Formats:      []vk.SurfaceFormat{{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}, preferredSurfaceFormat},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
	}

	first, err := negotiateSwapchain(support, 800, 600)
	require.NoError(t, err)
	second, err := negotiateSwapchain(support, 800, 600)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, swapchainSettings{
		Format:      preferredSurfaceFormat,
		PresentMode: vk.PresentModeMailbox,
		Extent:      vk.Extent2D{Width: 800, Height: 600},
		ImageCount:  3,
	}, first)

	// A new drawable size only moves the extent.
	resized, err := negotiateSwapchain(support, 1024, 768)
	require.NoError(t, err)
	assert.Equal(t, first.Format, resized.Format)
	assert.Equal(t, first.PresentMode, resized.PresentMode)
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, resized.Extent)

	_, err = negotiateSwapchain(&SwapchainSupportInfo{PresentModes: support.PresentModes}, 800, 600)
	assert.ErrorIs(t, err, core.ErrSwapchainCreation)
}
