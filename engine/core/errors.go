package core

import (
	"errors"
)

var (
	ErrContextCreation             = errors.New("context creation failed")
	ErrNoSuitableAdapter           = errors.New("no suitable adapter")
	ErrDeviceCreation              = errors.New("device creation failed")
	ErrSwapchainCreation           = errors.New("swapchain creation failed")
	ErrPipelineCreation            = errors.New("pipeline creation failed")
	ErrResourceCreation            = errors.New("resource creation failed")
	ErrNoSuitableMemoryType        = errors.New("no suitable memory type")
	ErrUnsupportedLayoutTransition = errors.New("unsupported layout transition")
	ErrSubmission                  = errors.New("queue submission failed")
	ErrPresentation                = errors.New("presentation failed")
	ErrUnknown                     = errors.New("unknown")
)
