package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkquad/engine/core"
)

func TestLayoutTransition(t *testing.T) {
	b, err := layoutTransition(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.AccessFlags(0), b.srcAccess)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), b.dstAccess)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), b.srcStage)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTransferBit), b.dstStage)

	b, err = layoutTransition(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), b.srcAccess)
	assert.Equal(t, vk.AccessFlags(vk.AccessShaderReadBit), b.dstAccess)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), b.dstStage)

	barrier := b.imageMemoryBarrier(vk.NullImage)
	assert.Equal(t, vk.ImageLayoutTransferDstOptimal, barrier.OldLayout)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, barrier.NewLayout)
	assert.Equal(t, uint32(vk.QueueFamilyIgnored), barrier.SrcQueueFamilyIndex)
}

func TestLayoutTransitionUnsupported(t *testing.T) {
	cases := [][2]vk.ImageLayout{
		{vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutUndefined},
		{vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal},
		{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferDstOptimal},
	}
	for _, c := range cases {
		_, err := layoutTransition(c[0], c[1])
		assert.ErrorIs(t, err, core.ErrUnsupportedLayoutTransition)
	}
}

func TestSamplerAnisotropy(t *testing.T) {
	adapter := &AdapterChoice{}
	enabled, max := samplerAnisotropy(adapter)
	assert.Equal(t, vk.Bool32(vk.False), enabled)
	assert.Equal(t, float32(1), max)

	adapter.Features.SamplerAnisotropy = vk.True
	adapter.Properties.Limits.MaxSamplerAnisotropy = 8
	enabled, max = samplerAnisotropy(adapter)
	assert.Equal(t, vk.Bool32(vk.True), enabled)
	assert.Equal(t, float32(8), max)

	adapter.Properties.Limits.MaxSamplerAnisotropy = 64
	_, max = samplerAnisotropy(adapter)
	assert.Equal(t, textureMaxAnisotropy, max)
}
