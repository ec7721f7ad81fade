package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkquad/engine/core"
)

// frameTarget is everything DrawFrame touches on the renderer. Slots are
// frame slot indices in [0, K); images are swapchain image indices.
type frameTarget interface {
	waitFence(slot int) error
	acquire(slot int) (uint32, vk.Result)
	resetFence(slot int) error
	updateUniform(imageIndex uint32) error
	submit(slot int, imageIndex uint32) error
	present(slot int, imageIndex uint32) vk.Result
	recycleImageAvailable(slot int) error
	// surfaceStale reports a swapchain that no longer matches its surface.
	surfaceStale() bool
	recreate() error
	imageCount() int
}

// FrameScheduler runs the acquire, submit and present loop over K frame
// slots and triggers swapchain recreation when the surface goes stale.
type FrameScheduler struct {
	target  frameTarget
	current int
	resized bool

	// imagesInFlight maps each swapchain image to the slot whose submission
	// last used it, or -1.
	imagesInFlight []int
}

func newFrameScheduler(target frameTarget) *FrameScheduler {
	s := &FrameScheduler{target: target}
	s.resetImages()
	return s
}

func (s *FrameScheduler) resetImages() {
	s.imagesInFlight = make([]int, s.target.imageCount())
	for i := range s.imagesInFlight {
		s.imagesInFlight[i] = -1
	}
}

// NotifyResized flags the swapchain for recreation at the next acquire or
// present. The flag is consumed once.
func (s *FrameScheduler) NotifyResized() {
	s.resized = true
}

// CurrentFrame is the slot the next DrawFrame will use.
func (s *FrameScheduler) CurrentFrame() int {
	return s.current
}

// Rebuild recreates the swapchain chain outside of the frame loop.
func (s *FrameScheduler) Rebuild() error {
	if err := s.target.recreate(); err != nil {
		return err
	}
	s.resetImages()
	return nil
}

func (s *FrameScheduler) DrawFrame() error {
	slot := s.current
	if err := s.target.waitFence(slot); err != nil {
		return err
	}

	imageIndex, res := s.target.acquire(slot)
	acquired := res == vk.Success || res == vk.Suboptimal
	if res == vk.ErrorOutOfDate || s.resized {
		s.resized = false
		if err := s.Rebuild(); err != nil {
			return err
		}
		if acquired {
			return s.target.recycleImageAvailable(slot)
		}
		return nil
	}
	if !acquired {
		return vkResultError(core.ErrPresentation, "vkAcquireNextImageKHR", res)
	}

	if int(imageIndex) < len(s.imagesInFlight) {
		if owner := s.imagesInFlight[imageIndex]; owner >= 0 && owner != slot {
			if err := s.target.waitFence(owner); err != nil {
				return err
			}
		}
		s.imagesInFlight[imageIndex] = slot
	}

	if err := s.target.resetFence(slot); err != nil {
		return err
	}
	if err := s.target.updateUniform(imageIndex); err != nil {
		return err
	}
	if err := s.target.submit(slot, imageIndex); err != nil {
		return err
	}

	res = s.target.present(slot, imageIndex)
	switch {
	case res == vk.ErrorOutOfDate || res == vk.Suboptimal || s.resized || s.target.surfaceStale():
		s.resized = false
		if err := s.Rebuild(); err != nil {
			return err
		}
	case res != vk.Success:
		return vkResultError(core.ErrPresentation, "vkQueuePresentKHR", res)
	}

	s.current = (s.current + 1) % MaxFramesInFlight
	return nil
}
