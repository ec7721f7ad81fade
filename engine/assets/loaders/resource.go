package loaders

type ResourceType uint8

const (
	ResourceTypeNone ResourceType = iota
	ResourceTypeShader
	ResourceTypeImage
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	default:
		return "none"
	}
}

// Resource is what a loader hands back. Data is []byte for shaders and *Image for images.
type Resource struct {
	Name     string
	FullPath string
	Type     ResourceType
	DataSize uint64
	Data     interface{}
}

// Image is a decoded RGBA8 pixel buffer, row-major with a top-left origin.
type Image struct {
	Pixels   []byte
	Width    uint32
	Height   uint32
	Channels uint32
}
