package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

const spirvMagic uint32 = 0x07230203

// spirvWords checks that code looks like a SPIR-V module and repacks it into
// the 32-bit words vkCreateShaderModule expects.
func spirvWords(code []byte) ([]uint32, error) {
	switch {
	case len(code) == 0:
		return nil, fmt.Errorf("%w: empty shader binary", core.ErrPipelineCreation)
	case len(code)%4 != 0:
		return nil, fmt.Errorf("%w: shader binary of %d bytes is not word aligned", core.ErrPipelineCreation, len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("%w: bad SPIR-V magic %#08x", core.ErrPipelineCreation, words[0])
	}
	return words, nil
}

// VulkanShaderStage is a compiled shader module and the stage it is bound to.
type VulkanShaderStage struct {
	Handle vk.ShaderModule
	Stage  vk.ShaderStageFlagBits
}

// shaderModuleInfo describes a module over code. CodeSize is in bytes.
func shaderModuleInfo(code []byte) (vk.ShaderModuleCreateInfo, error) {
	words, err := spirvWords(code)
	if err != nil {
		return vk.ShaderModuleCreateInfo{}, err
	}
	return vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    words,
	}, nil
}

func newShaderStage(ctx *DeviceContext, code []byte, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	moduleInfo, err := shaderModuleInfo(code)
	if err != nil {
		return nil, err
	}
	var handle vk.ShaderModule
	if res := vk.CreateShaderModule(ctx.Device, &moduleInfo, ctx.Allocator, &handle); res != vk.Success {
		return nil, vkResultError(core.ErrPipelineCreation, "vkCreateShaderModule", res)
	}
	return &VulkanShaderStage{
		Handle: handle,
		Stage:  stage,
	}, nil
}

func (s *VulkanShaderStage) createInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.Stage,
		Module: s.Handle,
		PName:  VulkanSafeString(shaderEntryPoint),
	}
}

func (s *VulkanShaderStage) Destroy(ctx *DeviceContext) {
	if s == nil {
		return
	}
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(ctx.Device, s.Handle, ctx.Allocator)
		s.Handle = vk.NullShaderModule
	}
}
