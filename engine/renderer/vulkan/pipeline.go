package vulkan

import (
	"fmt"
	"strings"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

// ParseFrontFace maps the configured winding name to the rasterizer front face.
func ParseFrontFace(name string) (vk.FrontFace, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "counter_clockwise", "ccw":
		return vk.FrontFaceCounterClockwise, nil
	case "clockwise", "cw":
		return vk.FrontFaceClockwise, nil
	default:
		return vk.FrontFaceCounterClockwise, fmt.Errorf("unknown front face %q", name)
	}
}

// PipelineState holds the graphics pipeline and its layout. Viewport and
// scissor are baked in, so the pipeline is rebuilt along with the swapchain.
type PipelineState struct {
	Handle vk.Pipeline
	Layout vk.PipelineLayout
}

type pipelineConfig struct {
	Renderpass          *VulkanRenderpass
	Stages              []*VulkanShaderStage
	DescriptorSetLayout vk.DescriptorSetLayout
	Extent              vk.Extent2D
	FrontFace           vk.FrontFace
}

func fullViewport(extent vk.Extent2D) (vk.Viewport, vk.Rect2D) {
	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	return viewport, scissor
}

func newGraphicsPipeline(ctx *DeviceContext, config *pipelineConfig) (*PipelineState, error) {
	out := &PipelineState{}

	viewport, scissor := fullViewport(config.Extent)
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:               config.FrontFace,
		DepthBiasEnable:         vk.False,
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	attributes := vertexAttributeDescriptions()
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{vertexBindingDescription()},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{config.DescriptorSetLayout},
	}

	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(ctx.Device, &pipelineLayoutCreateInfo, ctx.Allocator, &layout); res != vk.Success {
		return nil, vkResultError(core.ErrPipelineCreation, "vkCreatePipelineLayout", res)
	}
	out.Layout = layout

	stages := make([]vk.PipelineShaderStageCreateInfo, len(config.Stages))
	for i, stage := range config.Stages {
		stages[i] = stage.createInfo()
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PColorBlendState:    &colorBlendStateCreateInfo,
		Layout:              out.Layout,
		RenderPass:          config.Renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(ctx.Device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, ctx.Allocator, pipelines); res != vk.Success {
		out.Destroy(ctx)
		return nil, vkResultError(core.ErrPipelineCreation, "vkCreateGraphicsPipelines", res)
	}
	out.Handle = pipelines[0]
	core.LogDebug("Graphics pipeline created for %dx%d.", config.Extent.Width, config.Extent.Height)
	return out, nil
}

func (p *PipelineState) Destroy(ctx *DeviceContext) {
	if p == nil {
		return
	}
	if p.Handle != vk.NullPipeline {
		vk.DestroyPipeline(ctx.Device, p.Handle, ctx.Allocator)
		p.Handle = vk.NullPipeline
	}
	if p.Layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(ctx.Device, p.Layout, ctx.Allocator)
		p.Layout = vk.NullPipelineLayout
	}
}
