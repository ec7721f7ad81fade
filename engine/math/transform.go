package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SpinTransform holds the three matrices of the spinning quad, column-major.
type SpinTransform struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

const (
	spinDegreesPerSecond = 90.0
	fovYDegrees          = 45.0
	nearPlane            = 0.1
	farPlane             = 10.0
)

var (
	cameraEye    = mgl32.Vec3{2, 2, 2}
	cameraCenter = mgl32.Vec3{0, 0, 0}
	cameraUp     = mgl32.Vec3{0, 0, 1}
)

// SpinTransformAt returns the quad transform t seconds into the animation.
// The projection has its Y axis flipped to match Vulkan clip space.
func SpinTransformAt(seconds float64, width, height uint32) SpinTransform {
	aspect := float32(1)
	if height != 0 {
		aspect = float32(width) / float32(height)
	}

	model := mgl32.HomogRotate3D(mgl32.DegToRad(float32(seconds)*spinDegreesPerSecond), mgl32.Vec3{0, 0, 1})
	view := mgl32.LookAtV(cameraEye, cameraCenter, cameraUp)
	proj := mgl32.Perspective(mgl32.DegToRad(fovYDegrees), aspect, nearPlane, farPlane)
	proj[5] *= -1

	return SpinTransform{Model: model, View: view, Proj: proj}
}

// Bytes packs the matrices as three consecutive column-major mat4 values.
func (s SpinTransform) Bytes() []byte {
	out := make([]byte, 0, 3*16*4)
	for _, m := range []mgl32.Mat4{s.Model, s.View, s.Proj} {
		for _, f := range m {
			out = appendFloat32(out, f)
		}
	}
	return out
}
