//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the GPU-free test suite.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Runs the suite including the tests that need a Vulkan device and a display.
func (Test) GPU() error {
	mg.Deps(Build.Shaders)
	if err := os.Setenv("VKQUAD_GPU_TESTS", "1"); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("test", "-count=1", "./engine/renderer/vulkan/..."), withStream())
	return err
}
