package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

type VulkanFramebuffer struct {
	Handle      vk.Framebuffer
	Attachments []vk.ImageView
	Renderpass  *VulkanRenderpass
}

func newFramebuffer(ctx *DeviceContext, renderpass *VulkanRenderpass, extent vk.Extent2D, attachments []vk.ImageView) (*VulkanFramebuffer, error) {
	fb := &VulkanFramebuffer{
		Attachments: append([]vk.ImageView(nil), attachments...),
		Renderpass:  renderpass,
	}

	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass.Handle,
		AttachmentCount: uint32(len(fb.Attachments)),
		PAttachments:    fb.Attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if res := vk.CreateFramebuffer(ctx.Device, &framebufferCreateInfo, ctx.Allocator, &handle); res != vk.Success {
		return nil, vkResultError(core.ErrResourceCreation, "vkCreateFramebuffer", res)
	}
	fb.Handle = handle
	return fb, nil
}

// createFramebuffers builds one framebuffer per swapchain view. On failure
// the ones already created are destroyed.
func createFramebuffers(ctx *DeviceContext, renderpass *VulkanRenderpass, extent vk.Extent2D, views []vk.ImageView) ([]*VulkanFramebuffer, error) {
	framebuffers := make([]*VulkanFramebuffer, 0, len(views))
	for _, view := range views {
		fb, err := newFramebuffer(ctx, renderpass, extent, []vk.ImageView{view})
		if err != nil {
			destroyFramebuffers(ctx, framebuffers)
			return nil, err
		}
		framebuffers = append(framebuffers, fb)
	}
	return framebuffers, nil
}

func destroyFramebuffers(ctx *DeviceContext, framebuffers []*VulkanFramebuffer) {
	for _, fb := range framebuffers {
		fb.Destroy(ctx)
	}
}

func (vfb *VulkanFramebuffer) Destroy(ctx *DeviceContext) {
	if vfb.Handle != vk.NullFramebuffer {
		vk.DestroyFramebuffer(ctx.Device, vfb.Handle, ctx.Allocator)
		vfb.Handle = vk.NullFramebuffer
	}
	vfb.Attachments = nil
	vfb.Renderpass = nil
}
