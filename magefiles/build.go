//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderSources = map[string]string{
	"shaders/shader.vert": "shaders/vert.spv",
	"shaders/shader.frag": "shaders/frag.spv",
}

// Compiles the GLSL shaders into SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders and builds the vkquad binary.
func (Build) Binary() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/vkquad", "."), withStream())
	return err
}

func buildShaders() error {
	for src, out := range shaderSources {
		if _, err := executeCmd("glslc", withArgs(src, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}
