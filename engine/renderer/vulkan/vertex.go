package vulkan

import (
	"encoding/binary"
	"math"

	vk "github.com/goki/vulkan"
)

// Vertex is the interleaved layout of the quad geometry.
type Vertex struct {
	Pos      [2]float32
	Color    [3]float32
	TexCoord [2]float32
}

const (
	vertexStride         = 28
	vertexOffsetPos      = 0
	vertexOffsetColor    = 8
	vertexOffsetTexCoord = 20
)

var QuadVertices = []Vertex{
	{Pos: [2]float32{-0.5, -0.5}, Color: [3]float32{1, 0, 0}, TexCoord: [2]float32{1, 0}},
	{Pos: [2]float32{0.5, -0.5}, Color: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 0}},
	{Pos: [2]float32{0.5, 0.5}, Color: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 1}},
	{Pos: [2]float32{-0.5, 0.5}, Color: [3]float32{1, 1, 1}, TexCoord: [2]float32{1, 1}},
}

var QuadIndices = []uint16{0, 1, 2, 2, 3, 0}

func vertexBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    vertexStride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
}

func vertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Binding: 0, Location: 0, Format: vk.FormatR32g32Sfloat, Offset: vertexOffsetPos},
		{Binding: 0, Location: 1, Format: vk.FormatR32g32b32Sfloat, Offset: vertexOffsetColor},
		{Binding: 0, Location: 2, Format: vk.FormatR32g32Sfloat, Offset: vertexOffsetTexCoord},
	}
}

// vertexBytes packs vertices little endian at the stride the pipeline reads.
func vertexBytes(vertices []Vertex) []byte {
	out := make([]byte, 0, len(vertices)*vertexStride)
	for _, v := range vertices {
		for _, f := range v.Pos {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
		for _, f := range v.Color {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
		for _, f := range v.TexCoord {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

func indexBytes(indices []uint16) []byte {
	out := make([]byte, 0, len(indices)*2)
	for _, i := range indices {
		out = binary.LittleEndian.AppendUint16(out, i)
	}
	return out
}
