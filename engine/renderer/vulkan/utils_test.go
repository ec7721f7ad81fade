package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/vkquad/engine/core"
)

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_SUCCESS", VulkanResultString(vk.Success, false))
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", VulkanResultString(vk.ErrorOutOfDate, false))
	assert.Contains(t, VulkanResultString(vk.ErrorDeviceLost, true), "device has been lost")
	assert.Equal(t, "VK_RESULT_-12345", VulkanResultString(vk.Result(-12345), true))
}

func TestVulkanResultIsSuccess(t *testing.T) {
	assert.True(t, VulkanResultIsSuccess(vk.Success))
	assert.True(t, VulkanResultIsSuccess(vk.Suboptimal))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorOutOfDate))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorUnknown))
}

func TestVkResultErrorWrapsSentinel(t *testing.T) {
	err := vkResultError(core.ErrSubmission, "vkQueueSubmit", vk.ErrorDeviceLost)
	assert.True(t, errors.Is(err, core.ErrSubmission))
	assert.Contains(t, err.Error(), "vkQueueSubmit")
	assert.Contains(t, err.Error(), "VK_ERROR_DEVICE_LOST")
}

func TestVulkanSafeStrings(t *testing.T) {
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))

	in := []string{"a", "b\x00"}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"a\x00", "b\x00"}, out)
	assert.Equal(t, "a", in[0])
}

func TestFixedString(t *testing.T) {
	assert.Equal(t, 3, FindFirstZeroInByteArray([]byte{'g', 'p', 'u', 0, 'x'}))
	assert.Equal(t, 3, FindFirstZeroInByteArray([]byte{'g', 'p', 'u'}))
	assert.Equal(t, "gpu", fixedString([]byte{'g', 'p', 'u', 0, 'x'}))
	assert.Equal(t, "", fixedString([]byte{0, 'x'}))
}
