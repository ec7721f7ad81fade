package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type TextureLoader struct{}

func (tl *TextureLoader) Load(path string) (*Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	rgba := ToRGBA8(img)
	if rgba.Width == 0 || rgba.Height == 0 {
		return nil, fmt.Errorf("image %s (%s) has no pixels", path, format)
	}
	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		Type:     ResourceTypeImage,
		DataSize: uint64(len(rgba.Pixels)),
		Data:     rgba,
	}, nil
}

func (tl *TextureLoader) Unload(r *Resource) error {
	r.Data = nil
	r.DataSize = 0
	return nil
}

// ToRGBA8 converts any decoded image into a tightly packed RGBA8 buffer.
func ToRGBA8(img image.Image) *Image {
	b := img.Bounds()
	dst, ok := img.(*image.RGBA)
	if !ok || dst.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	return &Image{
		Pixels:   dst.Pix,
		Width:    uint32(b.Dx()),
		Height:   uint32(b.Dy()),
		Channels: 4,
	}
}

// Checkerboard generates a size x size RGBA8 image of alternating cells,
// used when no texture file is configured.
func Checkerboard(size, cells uint32) *Image {
	if cells == 0 {
		cells = 1
	}
	cell := size / cells
	if cell == 0 {
		cell = 1
	}
	pix := make([]byte, 0, size*size*4)
	for y := uint32(0); y < size; y++ {
		for x := uint32(0); x < size; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				pix = append(pix, 0xff, 0xff, 0xff, 0xff)
			} else {
				pix = append(pix, 0x30, 0x30, 0x30, 0xff)
			}
		}
	}
	return &Image{Pixels: pix, Width: size, Height: size, Channels: 4}
}
