package vulkan

import (
	"fmt"
	"runtime"
	"strings"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

// createContext creates the instance and, when validation is enabled, the
// debug report hook. Required layers and extensions are checked before
// creation so a missing one is reported by name.
func createContext(appName string, windowExtensions []string, enableValidation bool) (*DeviceContext, error) {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("vkquad"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := requiredInstanceExtensions(windowExtensions, enableValidation)
	if runtime.GOOS == "darwin" {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	availableExtensions, err := instanceExtensionNames()
	if err != nil {
		return nil, err
	}
	if missing := missingNames(requiredExtensions, availableExtensions); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing instance extensions: %s", core.ErrContextCreation, strings.Join(missing, ", "))
	}
	core.LogDebug("Required extensions: %s", strings.Join(requiredExtensions, ", "))

	var requiredLayers []string
	if enableValidation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredLayers = []string{validationLayerName}
		availableLayers, err := instanceLayerNames()
		if err != nil {
			return nil, err
		}
		if missing := missingNames(requiredLayers, availableLayers); len(missing) > 0 {
			return nil, fmt.Errorf("%w: missing validation layers: %s", core.ErrContextCreation, strings.Join(missing, ", "))
		}
		core.LogInfo("All required validation layers are present.")
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredLayers)

	ctx := &DeviceContext{
		Allocator:  nil,
		validation: enableValidation,
		locks:      NewVulkanLockPool(),
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, ctx.Allocator, &instance); res != vk.Success {
		return nil, vkResultError(core.ErrContextCreation, "vkCreateInstance", res)
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, ctx.Allocator)
		return nil, fmt.Errorf("%w: %s", core.ErrContextCreation, err)
	}
	ctx.Instance = instance
	core.LogInfo("Vulkan Instance created.")

	if enableValidation {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType: vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
				vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(ctx.Instance, &debugCreateInfo, ctx.Allocator, &dbg)); err != nil {
			// validation output is diagnostics only; keep going without it
			core.LogWarn("vk.CreateDebugReportCallback failed with %s", err)
		} else {
			ctx.debugCallback = dbg
			core.LogDebug("Vulkan debugger created.")
		}
	}

	return ctx, nil
}

func requiredInstanceExtensions(windowExtensions []string, enableValidation bool) []string {
	required := []string{"VK_KHR_surface"}
	required = appendUnique(required, windowExtensions...)
	if runtime.GOOS == "darwin" {
		required = appendUnique(required, "VK_KHR_portability_enumeration", "VK_KHR_get_physical_device_properties2")
	}
	if enableValidation {
		required = appendUnique(required, "VK_EXT_debug_report")
	}
	return required
}

func appendUnique(list []string, names ...string) []string {
	for _, n := range names {
		n = strings.TrimRight(n, "\x00")
		found := false
		for _, existing := range list {
			if existing == n {
				found = true
				break
			}
		}
		if !found {
			list = append(list, n)
		}
	}
	return list
}

// missingNames returns the entries of required absent from available, in order.
func missingNames(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, a := range available {
		have[strings.TrimRight(a, "\x00")] = struct{}{}
	}
	var missing []string
	for _, r := range required {
		if _, ok := have[strings.TrimRight(r, "\x00")]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

func instanceExtensionNames() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceExtensionProperties("", &count, nil); res != vk.Success {
		return nil, vkResultError(core.ErrContextCreation, "vkEnumerateInstanceExtensionProperties", res)
	}
	props := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateInstanceExtensionProperties("", &count, props); res != vk.Success {
		return nil, vkResultError(core.ErrContextCreation, "vkEnumerateInstanceExtensionProperties", res)
	}
	names := make([]string, 0, count)
	for i := range props[:count] {
		props[i].Deref()
		names = append(names, fixedString(props[i].ExtensionName[:]))
	}
	return names, nil
}

func instanceLayerNames() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, vkResultError(core.ErrContextCreation, "vkEnumerateInstanceLayerProperties", res)
	}
	props := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, props); res != vk.Success {
		return nil, vkResultError(core.ErrContextCreation, "vkEnumerateInstanceLayerProperties", res)
	}
	names := make([]string, 0, count)
	for i := range props[:count] {
		props[i].Deref()
		names = append(names, fixedString(props[i].LayerName[:]))
	}
	return names, nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
