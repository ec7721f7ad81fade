package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

const textureFormat = vk.FormatR8g8b8a8Srgb

// Texture is a sampled 2D image. Layout is the layout the image was last
// transitioned to and must be the source of the next transition.
type Texture struct {
	Image   vk.Image
	Memory  vk.DeviceMemory
	View    vk.ImageView
	Sampler vk.Sampler
	Layout  vk.ImageLayout
	Format  vk.Format
	Width   uint32
	Height  uint32
}

// layoutBarrier is the access and stage masks of one legal image layout transition.
type layoutBarrier struct {
	oldLayout, newLayout vk.ImageLayout
	srcAccess, dstAccess vk.AccessFlags
	srcStage, dstStage   vk.PipelineStageFlags
}

// layoutTransition looks up the barrier for oldLayout -> newLayout. Only the
// two transitions of a texture upload are known.
func layoutTransition(oldLayout, newLayout vk.ImageLayout) (layoutBarrier, error) {
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		return layoutBarrier{
			oldLayout: oldLayout,
			newLayout: newLayout,
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, nil
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return layoutBarrier{
			oldLayout: oldLayout,
			newLayout: newLayout,
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, nil
	default:
		return layoutBarrier{}, fmt.Errorf("%w: %d -> %d", core.ErrUnsupportedLayoutTransition, oldLayout, newLayout)
	}
}

func (b layoutBarrier) imageMemoryBarrier(image vk.Image) vk.ImageMemoryBarrier {
	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       b.srcAccess,
		DstAccessMask:       b.dstAccess,
		OldLayout:           b.oldLayout,
		NewLayout:           b.newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange:    colorSubresourceRange(),
	}
}

func colorSubresourceRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
}

// createImageView makes an identity-swizzle 2D color view.
func createImageView(ctx *DeviceContext, image vk.Image, format vk.Format) (vk.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: colorSubresourceRange(),
	}
	var view vk.ImageView
	if res := vk.CreateImageView(ctx.Device, &viewInfo, ctx.Allocator, &view); res != vk.Success {
		return vk.NullImageView, vkResultError(core.ErrResourceCreation, "vkCreateImageView", res)
	}
	return view, nil
}

// createImage allocates an optimally tiled device-local 2D image in the Undefined layout.
func createImage(ctx *DeviceContext, width, height uint32, format vk.Format, usage vk.ImageUsageFlags) (*Texture, error) {
	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}

	tex := &Texture{
		Layout: vk.ImageLayoutUndefined,
		Format: format,
		Width:  width,
		Height: height,
	}
	var image vk.Image
	if res := vk.CreateImage(ctx.Device, &imageInfo, ctx.Allocator, &image); res != vk.Success {
		return nil, vkResultError(core.ErrResourceCreation, "vkCreateImage", res)
	}
	tex.Image = image

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(ctx.Device, tex.Image, &requirements)
	requirements.Deref()

	memoryIndex, err := ctx.FindMemoryIndex(requirements.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		tex.Destroy(ctx)
		return nil, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(ctx.Device, &allocInfo, ctx.Allocator, &memory); res != vk.Success {
		tex.Destroy(ctx)
		return nil, vkResultError(core.ErrResourceCreation, "vkAllocateMemory", res)
	}
	tex.Memory = memory

	if res := vk.BindImageMemory(ctx.Device, tex.Image, tex.Memory, 0); res != vk.Success {
		tex.Destroy(ctx)
		return nil, vkResultError(core.ErrResourceCreation, "vkBindImageMemory", res)
	}
	return tex, nil
}

// samplerAnisotropy clamps the requested anisotropy to the device limit.
func samplerAnisotropy(adapter *AdapterChoice) (vk.Bool32, float32) {
	if adapter.Features.SamplerAnisotropy != vk.True {
		return vk.False, 1
	}
	limit := adapter.Properties.Limits.MaxSamplerAnisotropy
	if limit <= 0 || limit > textureMaxAnisotropy {
		limit = textureMaxAnisotropy
	}
	return vk.True, limit
}

// createSampler builds the linear, repeating, anisotropic sampler used for the texture.
func createSampler(ctx *DeviceContext) (vk.Sampler, error) {
	anisotropyEnable, maxAnisotropy := samplerAnisotropy(ctx.Adapter)
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        anisotropyEnable,
		MaxAnisotropy:           maxAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  0,
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(ctx.Device, &samplerInfo, ctx.Allocator, &sampler); res != vk.Success {
		return nil, vkResultError(core.ErrResourceCreation, "vkCreateSampler", res)
	}
	return sampler, nil
}

// Destroy releases sampler, view, image and memory. Safe on a partial texture.
func (t *Texture) Destroy(ctx *DeviceContext) {
	if t == nil || ctx.Device == nil {
		return
	}
	if t.Sampler != nil {
		vk.DestroySampler(ctx.Device, t.Sampler, ctx.Allocator)
		t.Sampler = nil
	}
	if t.View != vk.NullImageView {
		vk.DestroyImageView(ctx.Device, t.View, ctx.Allocator)
		t.View = vk.NullImageView
	}
	if t.Image != vk.NullImage {
		vk.DestroyImage(ctx.Device, t.Image, ctx.Allocator)
		t.Image = vk.NullImage
	}
	if t.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(ctx.Device, t.Memory, ctx.Allocator)
		t.Memory = vk.NullDeviceMemory
	}
}
