package vulkan

import (
	"encoding/binary"
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkquad/engine/assets/loaders"
	"github.com/spaghettifunk/vkquad/engine/core"
)

// fakeTransfer keeps buffer and image contents in host memory.
type fakeTransfer struct {
	memory    map[*VulkanBuffer][]byte
	pixels    map[*Texture][]byte
	destroyed []*VulkanBuffer
	released  []*Texture
	finished  []*Texture
	barriers  []layoutBarrier
	// layout of the texture when the buffer to image copy was recorded
	copyLayouts []vk.ImageLayout
	submits     int
	submitErr   error
}

func newFakeTransfer() *fakeTransfer {
	return &fakeTransfer{
		memory: make(map[*VulkanBuffer][]byte),
		pixels: make(map[*Texture][]byte),
	}
}

func (f *fakeTransfer) createBuffer(size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	b := &VulkanBuffer{Size: size, Usage: usage, Properties: properties}
	f.memory[b] = make([]byte, size)
	return b, nil
}

func (f *fakeTransfer) writeBuffer(buffer *VulkanBuffer, data []byte) error {
	copy(f.memory[buffer], data)
	return nil
}

func (f *fakeTransfer) destroyBuffer(buffer *VulkanBuffer) {
	delete(f.memory, buffer)
	f.destroyed = append(f.destroyed, buffer)
}

func (f *fakeTransfer) createTexture(width, height uint32) (*Texture, error) {
	return &Texture{Layout: vk.ImageLayoutUndefined, Format: textureFormat, Width: width, Height: height}, nil
}

func (f *fakeTransfer) finishTexture(texture *Texture) error {
	f.finished = append(f.finished, texture)
	return nil
}

func (f *fakeTransfer) destroyTexture(texture *Texture) {
	f.released = append(f.released, texture)
}

func (f *fakeTransfer) submitOneShot(record func(cmd transferCommands) error) error {
	f.submits++
	if err := record(f); err != nil {
		return err
	}
	return f.submitErr
}

func (f *fakeTransfer) copyBuffer(src, dst *VulkanBuffer, size uint64) {
	copy(f.memory[dst][:size], f.memory[src][:size])
}

func (f *fakeTransfer) imageBarrier(texture *Texture, barrier layoutBarrier) {
	f.barriers = append(f.barriers, barrier)
}

func (f *fakeTransfer) copyBufferToImage(src *VulkanBuffer, texture *Texture) {
	f.copyLayouts = append(f.copyLayouts, texture.Layout)
	f.pixels[texture] = append([]byte(nil), f.memory[src]...)
}

func TestUploadBufferQuadIndices(t *testing.T) {
	fake := newFakeTransfer()
	uploader := &ResourceUploader{dev: fake}

	src := indexBytes(QuadIndices)
	dst, err := uploader.UploadBuffer(src, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	require.NoError(t, err)

	assert.Equal(t, 1, fake.submits)
	assert.Equal(t, src, fake.memory[dst])
	got := make([]uint16, len(QuadIndices))
	for i := range got {
		got[i] = binary.LittleEndian.Uint16(fake.memory[dst][i*2:])
	}
	assert.Equal(t, []uint16{0, 1, 2, 2, 3, 0}, got)

	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageTransferDstBit|vk.BufferUsageIndexBufferBit), dst.Usage)
	assert.Equal(t, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), dst.Properties)

	// Only the destination survives; the staging buffer is gone.
	require.Len(t, fake.destroyed, 1)
	staging := fake.destroyed[0]
	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), staging.Usage)
	assert.Equal(t, stagingProperties, staging.Properties)
	assert.Len(t, fake.memory, 1)
}

func TestUploadBufferVertices(t *testing.T) {
	fake := newFakeTransfer()
	uploader := &ResourceUploader{dev: fake}

	src := vertexBytes(QuadVertices)
	dst, err := uploader.UploadBuffer(src, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	require.NoError(t, err)
	assert.Equal(t, uint64(len(src)), dst.Size)
	assert.Equal(t, src, fake.memory[dst])
}

func TestUploadBufferSubmitFailure(t *testing.T) {
	fake := newFakeTransfer()
	fake.submitErr = core.ErrSubmission
	uploader := &ResourceUploader{dev: fake}

	_, err := uploader.UploadBuffer([]byte{1, 2, 3, 4}, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	assert.ErrorIs(t, err, core.ErrSubmission)
	assert.Len(t, fake.destroyed, 2)
	assert.Empty(t, fake.memory)
}

func TestUploadBufferEmpty(t *testing.T) {
	uploader := &ResourceUploader{dev: newFakeTransfer()}
	_, err := uploader.UploadBuffer(nil, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	assert.ErrorIs(t, err, core.ErrResourceCreation)
}

func TestUploadTexture(t *testing.T) {
	fake := newFakeTransfer()
	uploader := &ResourceUploader{dev: fake}
	img := loaders.Checkerboard(8, 2)

	texture, err := uploader.UploadTexture(img)
	require.NoError(t, err)

	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, texture.Layout)
	assert.Equal(t, textureFormat, texture.Format)
	assert.Equal(t, uint32(8), texture.Width)

	require.Len(t, fake.barriers, 2)
	assert.Equal(t, vk.ImageLayoutUndefined, fake.barriers[0].oldLayout)
	assert.Equal(t, vk.ImageLayoutTransferDstOptimal, fake.barriers[0].newLayout)
	assert.Equal(t, vk.ImageLayoutTransferDstOptimal, fake.barriers[1].oldLayout)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, fake.barriers[1].newLayout)

	assert.Equal(t, []vk.ImageLayout{vk.ImageLayoutTransferDstOptimal}, fake.copyLayouts)
	assert.Equal(t, img.Pixels, fake.pixels[texture])
	assert.Equal(t, []*Texture{texture}, fake.finished)
	assert.Empty(t, fake.memory)
}

func TestUploadTextureRejectsBadImage(t *testing.T) {
	fake := newFakeTransfer()
	uploader := &ResourceUploader{dev: fake}

	_, err := uploader.UploadTexture(&loaders.Image{Pixels: make([]byte, 10), Width: 2, Height: 2, Channels: 4})
	assert.ErrorIs(t, err, core.ErrResourceCreation)
	_, err = uploader.UploadTexture(nil)
	assert.ErrorIs(t, err, core.ErrResourceCreation)
	assert.Zero(t, fake.submits)
}

func TestUploadTextureSubmitFailureReleasesTexture(t *testing.T) {
	fake := newFakeTransfer()
	fake.submitErr = errors.New("queue lost")
	uploader := &ResourceUploader{dev: fake}

	_, err := uploader.UploadTexture(loaders.Checkerboard(4, 2))
	assert.Error(t, err)
	assert.Len(t, fake.released, 1)
	assert.Empty(t, fake.finished)
	assert.Empty(t, fake.memory)
}

func TestTransitionImageLayoutOrder(t *testing.T) {
	fake := newFakeTransfer()
	texture := &Texture{Layout: vk.ImageLayoutUndefined}

	// Out of order: the texture is not in TransferDst yet.
	err := transitionImageLayout(fake, texture, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	assert.ErrorIs(t, err, core.ErrUnsupportedLayoutTransition)
	assert.Equal(t, vk.ImageLayoutUndefined, texture.Layout)

	require.NoError(t, transitionImageLayout(fake, texture, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal))
	require.NoError(t, transitionImageLayout(fake, texture, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal))
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, texture.Layout)

	err = transitionImageLayout(fake, texture, vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutUndefined)
	assert.ErrorIs(t, err, core.ErrUnsupportedLayoutTransition)
	assert.Len(t, fake.barriers, 2)
}
