package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontFace(t *testing.T) {
	for _, name := range []string{"", "counter_clockwise", "CCW"} {
		ff, err := ParseFrontFace(name)
		require.NoError(t, err)
		assert.Equal(t, vk.FrontFaceCounterClockwise, ff)
	}
	ff, err := ParseFrontFace(" clockwise ")
	require.NoError(t, err)
	assert.Equal(t, vk.FrontFaceClockwise, ff)

	_, err = ParseFrontFace("sideways")
	assert.Error(t, err)
}

func TestFullViewport(t *testing.T) {
	viewport, scissor := fullViewport(vk.Extent2D{Width: 1024, Height: 768})
	assert.Equal(t, float32(1024), viewport.Width)
	assert.Equal(t, float32(768), viewport.Height)
	assert.Equal(t, float32(0), viewport.MinDepth)
	assert.Equal(t, float32(1), viewport.MaxDepth)
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, scissor.Extent)
	assert.Equal(t, vk.Offset2D{}, scissor.Offset)
}
