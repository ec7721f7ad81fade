package vulkan

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, uintptr(vertexStride), unsafe.Sizeof(Vertex{}))
	assert.Equal(t, uintptr(vertexOffsetColor), unsafe.Offsetof(Vertex{}.Color))
	assert.Equal(t, uintptr(vertexOffsetTexCoord), unsafe.Offsetof(Vertex{}.TexCoord))

	binding := vertexBindingDescription()
	assert.Equal(t, uint32(vertexStride), binding.Stride)

	attrs := vertexAttributeDescriptions()
	require.Len(t, attrs, 3)
	for i, offset := range []uint32{0, 8, 20} {
		assert.Equal(t, uint32(i), attrs[i].Location)
		assert.Equal(t, offset, attrs[i].Offset)
	}
}

func TestVertexBytes(t *testing.T) {
	data := vertexBytes(QuadVertices)
	require.Len(t, data, len(QuadVertices)*vertexStride)

	f := func(offset int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
	}
	// second vertex: pos {0.5,-0.5}, color {0,1,0}, uv {0,0}
	base := vertexStride
	assert.Equal(t, float32(0.5), f(base))
	assert.Equal(t, float32(-0.5), f(base+4))
	assert.Equal(t, float32(1), f(base+vertexOffsetColor+4))
	assert.Equal(t, float32(0), f(base+vertexOffsetTexCoord))
}

func TestIndexBytes(t *testing.T) {
	data := indexBytes(QuadIndices)
	require.Len(t, data, 12)
	got := make([]uint16, 6)
	for i := range got {
		got[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	assert.Equal(t, []uint16{0, 1, 2, 2, 3, 0}, got)
}
