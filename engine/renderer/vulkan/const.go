package vulkan

import "math"

// MaxFramesInFlight is K: how many frames the CPU may record ahead of the GPU.
const MaxFramesInFlight = 2

const (
	validationLayerName          = "VK_LAYER_KHRONOS_validation"
	portabilitySubsetName        = "VK_KHR_portability_subset"
	shaderEntryPoint             = "main"
	noTimeout             uint64 = math.MaxUint64

	// 0xFFFFFFFF in currentExtent.width means the surface size is decided by the swapchain.
	surfaceExtentUndefined uint32 = math.MaxUint32

	textureMaxAnisotropy float32 = 16
)
