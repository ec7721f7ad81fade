package vulkan

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeCallReturnsError(t *testing.T) {
	pool := NewVulkanLockPool()
	boom := errors.New("boom")

	assert.NoError(t, pool.SafeCall(CommandPoolManagement, func() error { return nil }))
	assert.ErrorIs(t, pool.SafeCall(DescriptorManagement, func() error { return boom }), boom)
}

func TestSafeQueueCallSerializesFamily(t *testing.T) {
	pool := NewVulkanLockPool()
	pool.SetQueueFamily(0)

	var (
		wg      sync.WaitGroup
		inside  int
		overlap bool
		counter int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.SafeQueueCall(0, func() error {
				inside++
				if inside > 1 {
					overlap = true
				}
				counter++
				inside--
				return nil
			})
		}()
	}
	wg.Wait()

	assert.False(t, overlap)
	assert.Equal(t, 16, counter)
}

func TestSafeQueueCallUnknownFamily(t *testing.T) {
	pool := NewVulkanLockPool()
	called := false
	assert.NoError(t, pool.SafeQueueCall(7, func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
}
