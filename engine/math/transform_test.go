package math

import (
	"encoding/binary"
	stdmath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, uint32(1024), Clamp(uint32(1024), 1, 4096))
	assert.Equal(t, uint32(4096), Clamp(uint32(8000), 1, 4096))
	assert.Equal(t, uint32(1), Clamp(uint32(0), 1, 4096))
	assert.Equal(t, -1.0, Clamp(-3.0, -1.0, 1.0))
}

func TestSpinTransformAtZero(t *testing.T) {
	s := SpinTransformAt(0, 800, 600)
	assert.True(t, s.Model.ApproxEqual(mgl32.Ident4()))
	assert.Less(t, s.Proj[5], float32(0), "projection Y must be flipped")
}

func TestSpinTransformQuarterTurn(t *testing.T) {
	s := SpinTransformAt(1, 800, 600)
	// one second at 90 deg/s maps +X onto +Y
	v := s.Model.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, v.X(), 1e-5)
	assert.InDelta(t, 1, v.Y(), 1e-5)
}

func TestSpinTransformZeroHeight(t *testing.T) {
	s := SpinTransformAt(0, 800, 0)
	assert.False(t, stdmath.IsInf(float64(s.Proj[0]), 0))
	assert.False(t, stdmath.IsNaN(float64(s.Proj[0])))
}

func TestSpinTransformBytes(t *testing.T) {
	s := SpinTransformAt(0.25, 1024, 768)
	b := s.Bytes()
	require.Len(t, b, 192)

	// element 5 of the projection lives after two full matrices
	off := (2*16 + 5) * 4
	got := stdmath.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	assert.Equal(t, s.Proj[5], got)
}
