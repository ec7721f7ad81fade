package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

// DeviceContext owns the instance, the chosen adapter, the logical device with
// its graphics and present queues, and the graphics command pool. Every other
// component receives it explicitly.
type DeviceContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks

	debugCallback vk.DebugReportCallback
	validation    bool

	Adapter *AdapterChoice

	Device        vk.Device
	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	locks *VulkanLockPool
}

// AdapterChoice is the physical device picked for rendering and the queue
// families used on it.
type AdapterChoice struct {
	PhysicalDevice vk.PhysicalDevice
	GraphicsFamily uint32
	PresentFamily  uint32
	Properties     vk.PhysicalDeviceProperties
	Features       vk.PhysicalDeviceFeatures
	Memory         vk.PhysicalDeviceMemoryProperties
}

func (a *AdapterChoice) Name() string {
	return fixedString(a.Properties.DeviceName[:])
}

// FindMemoryIndex returns the memory type for an allocation on the selected adapter.
func (c *DeviceContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	return FindMemoryType(c.Adapter.Memory, typeFilter, propertyFlags)
}

// WaitIdle blocks until the device has finished all submitted work.
func (c *DeviceContext) WaitIdle() {
	if c.Device != nil {
		vk.DeviceWaitIdle(c.Device)
	}
}

// Destroy releases the command pool, the device, the debug hook and the
// instance in that order. Safe on a partially created context.
func (c *DeviceContext) Destroy() {
	if c.Device != nil {
		if c.GraphicsCommandPool != vk.NullCommandPool {
			core.LogInfo("Destroying command pools...")
			vk.DestroyCommandPool(c.Device, c.GraphicsCommandPool, c.Allocator)
			c.GraphicsCommandPool = vk.NullCommandPool
		}
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(c.Device, c.Allocator)
		c.Device = nil
		c.GraphicsQueue = nil
		c.PresentQueue = nil
	}
	c.Adapter = nil

	if c.Instance != nil {
		if c.debugCallback != vk.NullDebugReportCallback {
			core.LogDebug("Destroying Vulkan debugger...")
			vk.DestroyDebugReportCallback(c.Instance, c.debugCallback, c.Allocator)
			c.debugCallback = vk.NullDebugReportCallback
		}
		core.LogInfo("Destroying Vulkan instance...")
		vk.DestroyInstance(c.Instance, c.Allocator)
		c.Instance = nil
	}
}
