package vulkan

import (
	"os"
	"path/filepath"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkquad/engine/assets/loaders"
	"github.com/spaghettifunk/vkquad/engine/core"
	"github.com/spaghettifunk/vkquad/engine/platform"
)

// newGPURenderer brings up a real window and renderer. It needs a Vulkan
// driver, a display and the compiled shaders (mage build:shaders).
func newGPURenderer(t *testing.T) *VulkanRenderer {
	t.Helper()
	if os.Getenv("VKQUAD_GPU_TESTS") != "1" {
		t.Skip("set VKQUAD_GPU_TESTS=1 to run tests against a real device")
	}
	shaderDir := filepath.Join("..", "..", "..", "shaders")
	vert, err := os.ReadFile(filepath.Join(shaderDir, "vert.spv"))
	require.NoError(t, err)
	frag, err := os.ReadFile(filepath.Join(shaderDir, "frag.spv"))
	require.NoError(t, err)

	p := platform.New(core.NewEventBus())
	require.NoError(t, p.Startup("vkquad-test", 0, 0, 320, 240))
	t.Cleanup(func() { _ = p.Shutdown() })

	r := New()
	require.NoError(t, r.Initialize(p, RendererConfig{
		ApplicationName: "vkquad-test",
		FrontFace:       vk.FrontFaceCounterClockwise,
		ClearColor:      [4]float32{0, 0, 0, 1},
		VertexShader:    vert,
		FragmentShader:  frag,
		Texture:         loaders.Checkerboard(64, 8),
	}))
	t.Cleanup(r.Shutdown)
	return r
}

func TestRendererPerImageResources(t *testing.T) {
	r := newGPURenderer(t)

	n := r.surface.ImageCount()
	require.Greater(t, n, 0)
	assert.Len(t, r.surface.Views, n)
	assert.Len(t, r.images, n)
	assert.Len(t, r.binder.Sets, n)
	for _, image := range r.images {
		assert.NotNil(t, image.framebuffer)
		assert.NotNil(t, image.uniform)
		assert.NotNil(t, image.commandBuffer)
	}
	assert.Equal(t, SurfaceReady, r.surface.State)

	for i := 0; i < 10; i++ {
		require.NoError(t, r.DrawFrame())
	}
}

func TestRendererRecreateIsStable(t *testing.T) {
	r := newGPURenderer(t)

	format, mode, extent := r.surface.ImageFormat, r.surface.PresentMode, r.surface.Extent
	for i := 0; i < 2; i++ {
		require.NoError(t, r.scheduler.Rebuild())
		assert.Equal(t, format, r.surface.ImageFormat)
		assert.Equal(t, mode, r.surface.PresentMode)
		assert.Equal(t, extent, r.surface.Extent)
		assert.Len(t, r.images, r.surface.ImageCount())
	}
}

func TestRendererResizeRecreatesOnce(t *testing.T) {
	r := newGPURenderer(t)

	r.Resized(320, 240)
	assert.Equal(t, SurfaceStale, r.surface.State)
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, SurfaceReady, r.surface.State)
	assert.Equal(t, uint64(1), r.FrameNumber)
}
