package vulkan

import (
	"fmt"

	"github.com/spaghettifunk/vkquad/engine/core"
)

// chainStep is one link of the swapchain dependent resource graph.
type chainStep struct {
	name     string
	build    func() error
	teardown func()
}

// swapchainChain builds its steps in order and tears down the built ones in
// reverse. A step that fails cleans up its own partial work.
type swapchainChain struct {
	steps []chainStep
	built int
}

func (c *swapchainChain) build() error {
	for c.built < len(c.steps) {
		step := c.steps[c.built]
		if err := step.build(); err != nil {
			c.teardown()
			return fmt.Errorf("rebuilding %s: %w", step.name, err)
		}
		core.LogDebug("Swapchain step %q built.", step.name)
		c.built++
	}
	return nil
}

func (c *swapchainChain) teardown() {
	for c.built > 0 {
		c.built--
		c.steps[c.built].teardown()
	}
}

func (c *swapchainChain) isBuilt() bool {
	return c.built == len(c.steps)
}
