package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

var requiredDeviceExtensions = []string{"VK_KHR_swapchain"}

type SwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// queueFamilyIndices holds -1 for a family that was not found.
type queueFamilyIndices struct {
	graphics int32
	present  int32
}

func (q queueFamilyIndices) complete() bool {
	return q.graphics >= 0 && q.present >= 0
}

// findQueueFamilies returns the first family with graphics support and the
// first family that can present to the surface.
func findQueueFamilies(families []vk.QueueFamilyProperties, supportsPresent func(index uint32) bool) queueFamilyIndices {
	out := queueFamilyIndices{graphics: -1, present: -1}
	for i, family := range families {
		if out.graphics < 0 && family.QueueCount > 0 &&
			vk.QueueFlagBits(family.QueueFlags)&vk.QueueGraphicsBit != 0 {
			out.graphics = int32(i)
		}
		if out.present < 0 && supportsPresent(uint32(i)) {
			out.present = int32(i)
		}
		if out.complete() {
			break
		}
	}
	return out
}

// uniqueQueueFamilies lists each family once; one queue is requested per entry.
func uniqueQueueFamilies(graphics, present uint32) []uint32 {
	if graphics == present {
		return []uint32{graphics}
	}
	return []uint32{graphics, present}
}

// selectAdapter picks the first physical device that has graphics and present
// queues, the swapchain extension, and at least one surface format and present mode.
func (c *DeviceContext) selectAdapter(surface vk.Surface) (*AdapterChoice, error) {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(c.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return nil, vkResultError(core.ErrNoSuitableAdapter, "vkEnumeratePhysicalDevices", res)
	}
	if physicalDeviceCount == 0 {
		return nil, fmt.Errorf("%w: no devices which support Vulkan were found", core.ErrNoSuitableAdapter)
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(c.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return nil, vkResultError(core.ErrNoSuitableAdapter, "vkEnumeratePhysicalDevices", res)
	}

	for _, pd := range physicalDevices[:physicalDeviceCount] {
		choice, reason := c.evaluateAdapter(pd, surface)
		if choice == nil {
			core.LogInfo("Skipping device: %s", reason)
			continue
		}
		logAdapter(choice)
		c.Adapter = choice
		return choice, nil
	}
	return nil, fmt.Errorf("%w: no physical devices were found which meet the requirements", core.ErrNoSuitableAdapter)
}

func (c *DeviceContext) evaluateAdapter(pd vk.PhysicalDevice, surface vk.Surface) (*AdapterChoice, string) {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()
	properties.Limits.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &features)
	features.Deref()

	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memory)
	memory.Deref()
	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		memory.MemoryTypes[i].Deref()
	}
	for i := uint32(0); i < memory.MemoryHeapCount; i++ {
		memory.MemoryHeaps[i].Deref()
	}

	name := fixedString(properties.DeviceName[:])

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, families)
	for i := range families {
		families[i].Deref()
	}

	indices := findQueueFamilies(families, func(index uint32) bool {
		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(pd, index, surface, &supportsPresent); res != vk.Success {
			return false
		}
		return supportsPresent == vk.True
	})
	if !indices.complete() {
		return nil, fmt.Sprintf("'%s' lacks a graphics or present queue", name)
	}

	extensions, err := deviceExtensionNames(pd)
	if err != nil {
		return nil, fmt.Sprintf("'%s': %s", name, err)
	}
	if missing := missingNames(requiredDeviceExtensions, extensions); len(missing) > 0 {
		return nil, fmt.Sprintf("'%s' is missing extensions %v", name, missing)
	}

	support, err := querySwapchainSupport(pd, surface)
	if err != nil {
		return nil, fmt.Sprintf("'%s': %s", name, err)
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return nil, fmt.Sprintf("'%s' has no surface formats or present modes", name)
	}

	return &AdapterChoice{
		PhysicalDevice: pd,
		GraphicsFamily: uint32(indices.graphics),
		PresentFamily:  uint32(indices.present),
		Properties:     properties,
		Features:       features,
		Memory:         memory,
	}, ""
}

func logAdapter(choice *AdapterChoice) {
	properties := choice.Properties
	core.LogInfo("Selected device: '%s'.", choice.Name())
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}

	core.LogInfo(
		"GPU Driver version: %d.%d.%d",
		vk.Version.Major(vk.Version(properties.DriverVersion)),
		vk.Version.Minor(vk.Version(properties.DriverVersion)),
		vk.Version.Patch(vk.Version(properties.DriverVersion)),
	)
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version.Major(vk.Version(properties.ApiVersion)),
		vk.Version.Minor(vk.Version(properties.ApiVersion)),
		vk.Version.Patch(vk.Version(properties.ApiVersion)),
	)

	for j := uint32(0); j < choice.Memory.MemoryHeapCount; j++ {
		heap := choice.Memory.MemoryHeaps[j]
		memorySizeGib := float64(heap.Size) / 1024.0 / 1024.0 / 1024.0
		if vk.MemoryHeapFlagBits(heap.Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", memorySizeGib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", memorySizeGib)
		}
	}
	core.LogDebug("Graphics Family Index: %d", choice.GraphicsFamily)
	core.LogDebug("Present Family Index:  %d", choice.PresentFamily)
}

func deviceExtensionNames(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil); res != vk.Success {
		return nil, fmt.Errorf("vkEnumerateDeviceExtensionProperties: %s", VulkanResultString(res, false))
	}
	props := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(pd, "", &count, props); res != vk.Success {
		return nil, fmt.Errorf("vkEnumerateDeviceExtensionProperties: %s", VulkanResultString(res, false))
	}
	names := make([]string, 0, count)
	for i := range props[:count] {
		props[i].Deref()
		names = append(names, fixedString(props[i].ExtensionName[:]))
	}
	return names, nil
}

// createLogicalDevice creates the device with one queue per unique family,
// sampler anisotropy enabled, and the graphics command pool.
func (c *DeviceContext) createLogicalDevice(adapter *AdapterChoice) error {
	core.LogInfo("Creating logical device...")

	families := uniqueQueueFamilies(adapter.GraphicsFamily, adapter.PresentFamily)
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
		c.locks.SetQueueFamily(family)
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{
		SamplerAnisotropy: adapter.Features.SamplerAnisotropy,
	}

	extensionNames := append([]string(nil), requiredDeviceExtensions...)
	available, err := deviceExtensionNames(adapter.PhysicalDevice)
	if err != nil {
		return fmt.Errorf("%w: %s", core.ErrDeviceCreation, err)
	}
	if len(missingNames([]string{portabilitySubsetName}, available)) == 0 {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetName)
		extensionNames = append(extensionNames, portabilitySubsetName)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var device vk.Device
	if res := vk.CreateDevice(adapter.PhysicalDevice, &deviceCreateInfo, c.Allocator, &device); res != vk.Success {
		return vkResultError(core.ErrDeviceCreation, "vkCreateDevice", res)
	}
	c.Device = device
	core.LogInfo("Logical device created.")

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(c.Device, adapter.GraphicsFamily, 0, &graphicsQueue)
	vk.GetDeviceQueue(c.Device, adapter.PresentFamily, 0, &presentQueue)
	c.GraphicsQueue = graphicsQueue
	c.PresentQueue = presentQueue
	core.LogInfo("Queues obtained.")

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: adapter.GraphicsFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(c.Device, &poolCreateInfo, c.Allocator, &pool); res != vk.Success {
		return vkResultError(core.ErrDeviceCreation, "vkCreateCommandPool", res)
	}
	c.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	return nil
}

func querySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (*SwapchainSupportInfo, error) {
	info := &SwapchainSupportInfo{}

	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &info.Capabilities); res != vk.Success {
		return nil, vkResultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
	}
	info.Capabilities.Deref()
	info.Capabilities.CurrentExtent.Deref()
	info.Capabilities.MinImageExtent.Deref()
	info.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return nil, vkResultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfaceFormatsKHR", res)
	}
	if formatCount != 0 {
		info.Formats = make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, info.Formats); res != vk.Success {
			return nil, vkResultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfaceFormatsKHR", res)
		}
		info.Formats = info.Formats[:formatCount]
		for i := range info.Formats {
			info.Formats[i].Deref()
		}
	}

	var presentModeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil); res != vk.Success {
		return nil, vkResultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfacePresentModesKHR", res)
	}
	if presentModeCount != 0 {
		info.PresentModes = make([]vk.PresentMode, presentModeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, info.PresentModes); res != vk.Success {
			return nil, vkResultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfacePresentModesKHR", res)
		}
		info.PresentModes = info.PresentModes[:presentModeCount]
	}

	return info, nil
}
