package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/assets/loaders"
	"github.com/spaghettifunk/vkquad/engine/core"
)

// transferDevice is the slice of the device the staging protocol needs.
type transferDevice interface {
	createBuffer(size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*VulkanBuffer, error)
	writeBuffer(buffer *VulkanBuffer, data []byte) error
	destroyBuffer(buffer *VulkanBuffer)
	createTexture(width, height uint32) (*Texture, error)
	finishTexture(texture *Texture) error
	destroyTexture(texture *Texture)
	// submitOneShot records into a single use command buffer, submits it to
	// the graphics queue and waits for the queue to go idle.
	submitOneShot(record func(cmd transferCommands) error) error
}

type transferCommands interface {
	copyBuffer(src, dst *VulkanBuffer, size uint64)
	imageBarrier(texture *Texture, barrier layoutBarrier)
	copyBufferToImage(src *VulkanBuffer, texture *Texture)
}

// ResourceUploader moves host data into device local buffers and images
// through a temporary staging buffer.
type ResourceUploader struct {
	dev transferDevice
}

func NewResourceUploader(ctx *DeviceContext) *ResourceUploader {
	return &ResourceUploader{dev: &vkTransfer{ctx: ctx}}
}

var stagingProperties = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

func (u *ResourceUploader) stage(data []byte) (*VulkanBuffer, error) {
	staging, err := u.dev.createBuffer(uint64(len(data)), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), stagingProperties)
	if err != nil {
		return nil, err
	}
	if err := u.dev.writeBuffer(staging, data); err != nil {
		u.dev.destroyBuffer(staging)
		return nil, err
	}
	return staging, nil
}

// UploadBuffer creates a device local buffer with the given usage holding a copy of data.
func (u *ResourceUploader) UploadBuffer(data []byte, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", core.ErrResourceCreation)
	}
	staging, err := u.stage(data)
	if err != nil {
		return nil, err
	}
	defer u.dev.destroyBuffer(staging)

	size := uint64(len(data))
	dst, err := u.dev.createBuffer(size, vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|usage, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	err = u.dev.submitOneShot(func(cmd transferCommands) error {
		cmd.copyBuffer(staging, dst, size)
		return nil
	})
	if err != nil {
		u.dev.destroyBuffer(dst)
		return nil, err
	}
	return dst, nil
}

// UploadTexture creates a sampled texture from an RGBA8 image, leaving it in
// the shader read only layout.
func (u *ResourceUploader) UploadTexture(img *loaders.Image) (*Texture, error) {
	if img == nil || img.Width == 0 || img.Height == 0 {
		return nil, fmt.Errorf("%w: empty image", core.ErrResourceCreation)
	}
	if expected := int(img.Width) * int(img.Height) * 4; len(img.Pixels) != expected {
		return nil, fmt.Errorf("%w: image has %d bytes, want %d for %dx%d RGBA8", core.ErrResourceCreation, len(img.Pixels), expected, img.Width, img.Height)
	}

	staging, err := u.stage(img.Pixels)
	if err != nil {
		return nil, err
	}
	defer u.dev.destroyBuffer(staging)

	texture, err := u.dev.createTexture(img.Width, img.Height)
	if err != nil {
		return nil, err
	}
	err = u.dev.submitOneShot(func(cmd transferCommands) error {
		if err := transitionImageLayout(cmd, texture, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		cmd.copyBufferToImage(staging, texture)
		return transitionImageLayout(cmd, texture, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err == nil {
		err = u.dev.finishTexture(texture)
	}
	if err != nil {
		u.dev.destroyTexture(texture)
		return nil, err
	}
	return texture, nil
}

// transitionImageLayout records the barrier for oldLayout -> newLayout.
// oldLayout must be the layout the texture is currently in.
func transitionImageLayout(cmd transferCommands, texture *Texture, oldLayout, newLayout vk.ImageLayout) error {
	if texture.Layout != oldLayout {
		return fmt.Errorf("%w: texture is in layout %d, not %d", core.ErrUnsupportedLayoutTransition, texture.Layout, oldLayout)
	}
	barrier, err := layoutTransition(oldLayout, newLayout)
	if err != nil {
		return err
	}
	cmd.imageBarrier(texture, barrier)
	texture.Layout = newLayout
	return nil
}

// vkTransfer runs the staging protocol against a real device.
type vkTransfer struct {
	ctx *DeviceContext
}

func (t *vkTransfer) createBuffer(size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	return NewBuffer(t.ctx, size, usage, properties)
}

func (t *vkTransfer) writeBuffer(buffer *VulkanBuffer, data []byte) error {
	return buffer.LoadData(t.ctx, data)
}

func (t *vkTransfer) destroyBuffer(buffer *VulkanBuffer) {
	buffer.Destroy(t.ctx)
}

func (t *vkTransfer) createTexture(width, height uint32) (*Texture, error) {
	usage := vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit)
	return createImage(t.ctx, width, height, textureFormat, usage)
}

func (t *vkTransfer) finishTexture(texture *Texture) error {
	view, err := createImageView(t.ctx, texture.Image, texture.Format)
	if err != nil {
		return err
	}
	texture.View = view
	sampler, err := createSampler(t.ctx)
	if err != nil {
		return err
	}
	texture.Sampler = sampler
	return nil
}

func (t *vkTransfer) destroyTexture(texture *Texture) {
	texture.Destroy(t.ctx)
}

func (t *vkTransfer) submitOneShot(record func(cmd transferCommands) error) error {
	cb, err := allocateAndBeginSingleUse(t.ctx)
	if err != nil {
		return err
	}
	if err := record(&vkTransferCommands{cb: cb}); err != nil {
		_ = cb.End()
		freeCommandBuffers(t.ctx, []*VulkanCommandBuffer{cb})
		return err
	}
	return cb.endSingleUse(t.ctx)
}

type vkTransferCommands struct {
	cb *VulkanCommandBuffer
}

func (c *vkTransferCommands) copyBuffer(src, dst *VulkanBuffer, size uint64) {
	region := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(c.cb.Handle, src.Handle, dst.Handle, 1, []vk.BufferCopy{region})
}

func (c *vkTransferCommands) imageBarrier(texture *Texture, barrier layoutBarrier) {
	vk.CmdPipelineBarrier(c.cb.Handle,
		barrier.srcStage, barrier.dstStage,
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier.imageMemoryBarrier(texture.Image)})
}

func (c *vkTransferCommands) copyBufferToImage(src *VulkanBuffer, texture *Texture) {
	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: texture.Width, Height: texture.Height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(c.cb.Handle, src.Handle, texture.Image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}
