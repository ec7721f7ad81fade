package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/assets/loaders"
	"github.com/spaghettifunk/vkquad/engine/core"
	"github.com/spaghettifunk/vkquad/engine/math"
)

// Window is what the renderer needs from the windowing layer.
type Window interface {
	VulkanProcAddr() unsafe.Pointer
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	FramebufferSize() (uint32, uint32)
	// WaitEvents blocks until the window receives an event.
	WaitEvents()
	ShouldClose() bool
}

type RendererConfig struct {
	ApplicationName  string
	EnableValidation bool
	FrontFace        vk.FrontFace
	ClearColor       [4]float32
	VertexShader     []byte
	FragmentShader   []byte
	Texture          *loaders.Image
}

// imageResources is everything that exists once per swapchain image.
type imageResources struct {
	framebuffer   *VulkanFramebuffer
	uniform       *VulkanBuffer
	descriptorSet vk.DescriptorSet
	commandBuffer *VulkanCommandBuffer
}

type VulkanRenderer struct {
	config RendererConfig
	window Window
	clock  *core.Clock

	context  *DeviceContext
	surface  *PresentationSurface
	binder   *DescriptorBinder
	uploader *ResourceUploader

	vertexBuffer *VulkanBuffer
	indexBuffer  *VulkanBuffer
	texture      *Texture

	renderpass *VulkanRenderpass
	pipeline   *PipelineState
	images     []imageResources

	slots     [MaxFramesInFlight]frameSlot
	chain     *swapchainChain
	scheduler *FrameScheduler

	FrameNumber uint64
}

func New() *VulkanRenderer {
	return &VulkanRenderer{
		clock: core.NewClock(),
	}
}

// Initialize brings the renderer up in dependency order. On failure
// everything created so far is released.
func (vr *VulkanRenderer) Initialize(window Window, config RendererConfig) error {
	vr.window = window
	vr.config = config

	if err := vr.initialize(); err != nil {
		vr.Shutdown()
		return err
	}
	vr.clock.Start()
	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) initialize() error {
	procAddr := vr.window.VulkanProcAddr()
	if procAddr == nil {
		return fmt.Errorf("%w: GetInstanceProcAddress is nil", core.ErrContextCreation)
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return fmt.Errorf("%w: %s", core.ErrContextCreation, err)
	}

	ctx, err := createContext(vr.config.ApplicationName, vr.window.RequiredInstanceExtensions(), vr.config.EnableValidation)
	if err != nil {
		return err
	}
	vr.context = ctx

	if vr.surface, err = newPresentationSurface(ctx, vr.window); err != nil {
		return err
	}
	adapter, err := ctx.selectAdapter(vr.surface.Surface)
	if err != nil {
		return err
	}
	if err := ctx.createLogicalDevice(adapter); err != nil {
		return err
	}

	if vr.binder, err = newDescriptorBinder(ctx); err != nil {
		return err
	}

	vr.uploader = NewResourceUploader(ctx)
	if vr.vertexBuffer, err = vr.uploader.UploadBuffer(vertexBytes(QuadVertices), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)); err != nil {
		return err
	}
	if vr.indexBuffer, err = vr.uploader.UploadBuffer(indexBytes(QuadIndices), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)); err != nil {
		return err
	}
	if vr.texture, err = vr.uploader.UploadTexture(vr.config.Texture); err != nil {
		return err
	}

	if vr.slots, err = createFrameSlots(ctx); err != nil {
		return err
	}

	vr.chain = &swapchainChain{steps: vr.swapchainSteps()}
	if err := vr.chain.build(); err != nil {
		return err
	}
	vr.scheduler = newFrameScheduler(vr)
	return nil
}

// checkPerImage fails unless count matches the swapchain image count.
func checkPerImage(images []imageResources, count int, what string) error {
	if count != len(images) {
		return fmt.Errorf("%w: %d %s for %d swapchain images", core.ErrSwapchainCreation, count, what, len(images))
	}
	return nil
}

// fillPerImage hands items out one per swapchain image. Every per-image
// resource comes in exactly N.
func fillPerImage[T any](images []imageResources, items []T, what string, assign func(*imageResources, T)) error {
	if err := checkPerImage(images, len(items), what); err != nil {
		return err
	}
	for i, item := range items {
		assign(&images[i], item)
	}
	return nil
}

// swapchainSteps lists the swapchain dependent resources in creation order.
func (vr *VulkanRenderer) swapchainSteps() []chainStep {
	ctx := vr.context
	return []chainStep{
		{
			name: "swapchain",
			build: func() error {
				if err := vr.surface.createSwapchain(); err != nil {
					return err
				}
				vr.images = make([]imageResources, vr.surface.ImageCount())
				return checkPerImage(vr.images, len(vr.surface.Views), "image views")
			},
			teardown: func() {
				vr.images = nil
				vr.surface.destroySwapchain()
			},
		},
		{
			name: "render pass",
			build: func() (err error) {
				vr.renderpass, err = newRenderpass(ctx, vr.surface.ImageFormat.Format, vr.config.ClearColor)
				return err
			},
			teardown: func() {
				vr.renderpass.Destroy(ctx)
				vr.renderpass = nil
			},
		},
		{
			name:  "pipeline",
			build: vr.buildPipeline,
			teardown: func() {
				vr.pipeline.Destroy(ctx)
				vr.pipeline = nil
			},
		},
		{
			name: "framebuffers",
			build: func() error {
				framebuffers, err := createFramebuffers(ctx, vr.renderpass, vr.surface.Extent, vr.surface.Views)
				if err != nil {
					return err
				}
				err = fillPerImage(vr.images, framebuffers, "framebuffers", func(image *imageResources, fb *VulkanFramebuffer) {
					image.framebuffer = fb
				})
				if err != nil {
					destroyFramebuffers(ctx, framebuffers)
				}
				return err
			},
			teardown: func() {
				for i := range vr.images {
					if vr.images[i].framebuffer != nil {
						vr.images[i].framebuffer.Destroy(ctx)
						vr.images[i].framebuffer = nil
					}
				}
			},
		},
		{
			name: "uniform buffers",
			build: func() error {
				uniforms, err := createUniformBuffers(ctx, len(vr.images))
				if err != nil {
					return err
				}
				err = fillPerImage(vr.images, uniforms, "uniform buffers", func(image *imageResources, buf *VulkanBuffer) {
					image.uniform = buf
				})
				if err != nil {
					destroyBuffers(ctx, uniforms)
				}
				return err
			},
			teardown: func() {
				for i := range vr.images {
					vr.images[i].uniform.Destroy(ctx)
					vr.images[i].uniform = nil
				}
			},
		},
		{
			name: "descriptor sets",
			build: func() error {
				uniforms := make([]*VulkanBuffer, len(vr.images))
				for i := range vr.images {
					uniforms[i] = vr.images[i].uniform
				}
				if err := vr.binder.allocateAndWrite(ctx, uniforms, vr.texture); err != nil {
					return err
				}
				err := fillPerImage(vr.images, vr.binder.Sets, "descriptor sets", func(image *imageResources, set vk.DescriptorSet) {
					image.descriptorSet = set
				})
				if err != nil {
					vr.binder.destroyPool(ctx)
				}
				return err
			},
			teardown: func() {
				for i := range vr.images {
					vr.images[i].descriptorSet = nil
				}
				vr.binder.destroyPool(ctx)
			},
		},
		{
			name:     "command buffers",
			build:    vr.buildCommandBuffers,
			teardown: vr.freeCommandBuffers,
		},
	}
}

func (vr *VulkanRenderer) buildPipeline() error {
	ctx := vr.context
	vertex, err := newShaderStage(ctx, vr.config.VertexShader, vk.ShaderStageVertexBit)
	if err != nil {
		return err
	}
	defer vertex.Destroy(ctx)
	fragment, err := newShaderStage(ctx, vr.config.FragmentShader, vk.ShaderStageFragmentBit)
	if err != nil {
		return err
	}
	defer fragment.Destroy(ctx)

	vr.pipeline, err = newGraphicsPipeline(ctx, &pipelineConfig{
		Renderpass:          vr.renderpass,
		Stages:              []*VulkanShaderStage{vertex, fragment},
		DescriptorSetLayout: vr.binder.Layout,
		Extent:              vr.surface.Extent,
		FrontFace:           vr.config.FrontFace,
	})
	return err
}

func (vr *VulkanRenderer) buildCommandBuffers() error {
	buffers, err := allocateCommandBuffers(vr.context, len(vr.images))
	if err != nil {
		return err
	}
	err = fillPerImage(vr.images, buffers, "command buffers", func(image *imageResources, cb *VulkanCommandBuffer) {
		image.commandBuffer = cb
	})
	if err != nil {
		freeCommandBuffers(vr.context, buffers)
		return err
	}
	for i := range vr.images {
		image := &vr.images[i]
		err := recordQuadCommands(image.commandBuffer, vr.renderpass, image.framebuffer.Handle, vr.surface.Extent,
			vr.pipeline, vr.vertexBuffer, vr.indexBuffer, uint32(len(QuadIndices)), image.descriptorSet)
		if err != nil {
			vr.freeCommandBuffers()
			return err
		}
	}
	return nil
}

func (vr *VulkanRenderer) freeCommandBuffers() {
	buffers := make([]*VulkanCommandBuffer, 0, len(vr.images))
	for i := range vr.images {
		buffers = append(buffers, vr.images[i].commandBuffer)
		vr.images[i].commandBuffer = nil
	}
	freeCommandBuffers(vr.context, buffers)
}

// recreateSwapchain waits out a minimized window, drains the device and
// rebuilds the whole swapchain chain.
func (vr *VulkanRenderer) recreateSwapchain() error {
	width, height := vr.window.FramebufferSize()
	for width == 0 || height == 0 {
		if vr.window.ShouldClose() {
			return nil
		}
		vr.window.WaitEvents()
		width, height = vr.window.FramebufferSize()
	}

	vr.context.WaitIdle()
	vr.chain.teardown()
	if err := vr.chain.build(); err != nil {
		return err
	}
	core.LogDebug("Swapchain recreated at %dx%d.", vr.surface.Extent.Width, vr.surface.Extent.Height)
	return nil
}

// DrawFrame renders and presents one frame.
func (vr *VulkanRenderer) DrawFrame() error {
	if !vr.chain.isBuilt() {
		return fmt.Errorf("%w: swapchain resources were not rebuilt", core.ErrSwapchainCreation)
	}
	if err := vr.scheduler.DrawFrame(); err != nil {
		return err
	}
	vr.FrameNumber++
	return nil
}

// Resized records a framebuffer size change. The swapchain is rebuilt on the
// next frame.
func (vr *VulkanRenderer) Resized(width, height uint32) {
	core.LogDebug("Framebuffer resized to %dx%d.", width, height)
	if vr.surface != nil {
		vr.surface.MarkStale()
	}
	if vr.scheduler != nil {
		vr.scheduler.NotifyResized()
	}
}

// ReloadShaders swaps in a new shader pair and rebuilds the pipeline chain.
// If the new pair does not build, the previous one is restored.
func (vr *VulkanRenderer) ReloadShaders(vertex, fragment []byte) error {
	if _, err := spirvWords(vertex); err != nil {
		return err
	}
	if _, err := spirvWords(fragment); err != nil {
		return err
	}
	previousVertex, previousFragment := vr.config.VertexShader, vr.config.FragmentShader
	vr.config.VertexShader, vr.config.FragmentShader = vertex, fragment
	err := vr.scheduler.Rebuild()
	if err == nil {
		core.LogInfo("Shaders reloaded.")
		return nil
	}
	core.LogWarn("Shader reload failed, restoring previous shaders: %s", err)
	vr.config.VertexShader, vr.config.FragmentShader = previousVertex, previousFragment
	if restoreErr := vr.scheduler.Rebuild(); restoreErr != nil {
		return restoreErr
	}
	return err
}

// ReloadTexture uploads a replacement texture and rebuilds the descriptor
// sets and command buffers that reference it.
func (vr *VulkanRenderer) ReloadTexture(img *loaders.Image) error {
	texture, err := vr.uploader.UploadTexture(img)
	if err != nil {
		return err
	}
	previous := vr.texture
	vr.texture = texture
	if err := vr.scheduler.Rebuild(); err != nil {
		core.LogWarn("Texture reload failed, restoring previous texture: %s", err)
		vr.texture = previous
		texture.Destroy(vr.context)
		if restoreErr := vr.scheduler.Rebuild(); restoreErr != nil {
			return restoreErr
		}
		return err
	}
	// Rebuild waited for the device, nothing references the old texture now.
	previous.Destroy(vr.context)
	core.LogInfo("Texture reloaded (%dx%d).", img.Width, img.Height)
	return nil
}

// Shutdown waits for the device and releases everything in reverse creation
// order. Safe after a failed Initialize.
func (vr *VulkanRenderer) Shutdown() {
	ctx := vr.context
	if ctx == nil {
		return
	}
	ctx.WaitIdle()
	vr.clock.Stop()

	if ctx.Device != nil {
		if vr.chain != nil {
			vr.chain.teardown()
		}
		destroyFrameSlots(ctx, vr.slots[:])
		vr.texture.Destroy(ctx)
		vr.indexBuffer.Destroy(ctx)
		vr.vertexBuffer.Destroy(ctx)
		vr.binder.Destroy(ctx)
	}
	vr.texture, vr.indexBuffer, vr.vertexBuffer, vr.binder = nil, nil, nil, nil
	vr.scheduler, vr.chain = nil, nil

	if vr.surface != nil {
		vr.surface.Destroy()
		vr.surface = nil
	}
	ctx.Destroy()
	vr.context = nil
	core.LogInfo("Vulkan renderer shut down.")
}

func (vr *VulkanRenderer) waitFence(slot int) error {
	if !vr.slots[slot].inFlight.Wait(vr.context, noTimeout) {
		return fmt.Errorf("%w: waiting on frame %d fence", core.ErrSubmission, slot)
	}
	return nil
}

func (vr *VulkanRenderer) acquire(slot int) (uint32, vk.Result) {
	return vr.surface.acquireNextImage(noTimeout, vr.slots[slot].imageAvailable)
}

func (vr *VulkanRenderer) resetFence(slot int) error {
	return vr.slots[slot].inFlight.Reset(vr.context)
}

func (vr *VulkanRenderer) updateUniform(imageIndex uint32) error {
	vr.clock.Update()
	transform := math.SpinTransformAt(vr.clock.Seconds(), vr.surface.Extent.Width, vr.surface.Extent.Height)
	return writeUniform(vr.context, vr.images[imageIndex].uniform, transform)
}

func (vr *VulkanRenderer) submit(slot int, imageIndex uint32) error {
	ctx := vr.context
	frame := &vr.slots[slot]
	cb := vr.images[imageIndex].commandBuffer
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{frame.imageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{frame.renderFinished},
	}
	return ctx.locks.SafeQueueCall(ctx.Adapter.GraphicsFamily, func() error {
		if res := vk.QueueSubmit(ctx.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, frame.inFlight.Handle); res != vk.Success {
			return vkResultError(core.ErrSubmission, "vkQueueSubmit", res)
		}
		cb.UpdateSubmitted()
		return nil
	})
}

func (vr *VulkanRenderer) present(slot int, imageIndex uint32) vk.Result {
	return vr.surface.present(vr.slots[slot].renderFinished, imageIndex)
}

func (vr *VulkanRenderer) recycleImageAvailable(slot int) error {
	return vr.slots[slot].recycleImageAvailable(vr.context)
}

func (vr *VulkanRenderer) surfaceStale() bool {
	return vr.surface.State == SurfaceStale
}

func (vr *VulkanRenderer) recreate() error {
	return vr.recreateSwapchain()
}

func (vr *VulkanRenderer) imageCount() int {
	return len(vr.images)
}
