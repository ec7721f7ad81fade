package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

const (
	bindingUniform = 0
	bindingTexture = 1
)

// DescriptorBinder owns the set layout for the renderer lifetime and the
// pool and per-image sets, which are rebuilt with the swapchain.
type DescriptorBinder struct {
	Layout vk.DescriptorSetLayout
	Pool   vk.DescriptorPool
	Sets   []vk.DescriptorSet
}

// descriptorSetCount is the number of sets the pool must hold for n images.
func descriptorSetCount(imageCount int) uint32 {
	if imageCount < MaxFramesInFlight {
		return MaxFramesInFlight
	}
	return uint32(imageCount)
}

func descriptorPoolSizes(count uint32) []vk.DescriptorPoolSize {
	return []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: count},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: count},
	}
}

func descriptorSetLayoutBindings() []vk.DescriptorSetLayoutBinding {
	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         bindingUniform,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         bindingTexture,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
}

func newDescriptorBinder(ctx *DeviceContext) (*DescriptorBinder, error) {
	bindings := descriptorSetLayoutBindings()
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(ctx.Device, &layoutInfo, ctx.Allocator, &layout); res != vk.Success {
		return nil, vkResultError(core.ErrResourceCreation, "vkCreateDescriptorSetLayout", res)
	}
	return &DescriptorBinder{Layout: layout}, nil
}

// allocateAndWrite creates a fresh pool and one set per uniform buffer, each
// pointing at its own uniform buffer and the shared texture.
func (d *DescriptorBinder) allocateAndWrite(ctx *DeviceContext, uniforms []*VulkanBuffer, texture *Texture) error {
	if len(uniforms) == 0 {
		return fmt.Errorf("%w: no uniform buffers to bind", core.ErrResourceCreation)
	}
	count := descriptorSetCount(len(uniforms))
	poolSizes := descriptorPoolSizes(count)
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       count,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	return ctx.locks.SafeCall(DescriptorManagement, func() error {
		var pool vk.DescriptorPool
		if res := vk.CreateDescriptorPool(ctx.Device, &poolInfo, ctx.Allocator, &pool); res != vk.Success {
			return vkResultError(core.ErrResourceCreation, "vkCreateDescriptorPool", res)
		}
		d.Pool = pool

		layouts := make([]vk.DescriptorSetLayout, len(uniforms))
		for i := range layouts {
			layouts[i] = d.Layout
		}
		allocInfo := vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     d.Pool,
			DescriptorSetCount: uint32(len(layouts)),
			PSetLayouts:        layouts,
		}
		sets := make([]vk.DescriptorSet, len(layouts))
		if res := vk.AllocateDescriptorSets(ctx.Device, &allocInfo, &sets[0]); res != vk.Success {
			d.destroyPool(ctx)
			return vkResultError(core.ErrResourceCreation, "vkAllocateDescriptorSets", res)
		}
		d.Sets = sets

		for i, set := range d.Sets {
			writes := []vk.WriteDescriptorSet{
				uniformWrite(set, uniforms[i]),
				textureWrite(set, texture),
			}
			vk.UpdateDescriptorSets(ctx.Device, uint32(len(writes)), writes, 0, nil)
		}
		return nil
	})
}

func uniformWrite(set vk.DescriptorSet, buffer *VulkanBuffer) vk.WriteDescriptorSet {
	return vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      bindingUniform,
		DstArrayElement: 0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer.Handle,
			Offset: 0,
			Range:  vk.DeviceSize(buffer.Size),
		}},
	}
}

func textureWrite(set vk.DescriptorSet, texture *Texture) vk.WriteDescriptorSet {
	return vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      bindingTexture,
		DstArrayElement: 0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		PImageInfo: []vk.DescriptorImageInfo{{
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			ImageView:   texture.View,
			Sampler:     texture.Sampler,
		}},
	}
}

// destroyPool frees the pool, which implicitly frees its sets.
func (d *DescriptorBinder) destroyPool(ctx *DeviceContext) {
	if d.Pool != nil {
		vk.DestroyDescriptorPool(ctx.Device, d.Pool, ctx.Allocator)
		d.Pool = nil
	}
	d.Sets = nil
}

func (d *DescriptorBinder) Destroy(ctx *DeviceContext) {
	if d == nil {
		return
	}
	d.destroyPool(ctx)
	if d.Layout != nil {
		vk.DestroyDescriptorSetLayout(ctx.Device, d.Layout, ctx.Allocator)
		d.Layout = nil
	}
}
