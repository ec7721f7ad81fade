package loaders

import (
	"fmt"
	"os"
	"path/filepath"
)

type ShaderLoader struct{}

// Load reads a compiled SPIR-V binary. The bytes are passed through untouched;
// the renderer validates them when it builds the shader module.
func (sl *ShaderLoader) Load(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("shader %s is empty", path)
	}
	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		Type:     ResourceTypeShader,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

func (sl *ShaderLoader) Unload(r *Resource) error {
	r.Data = nil
	r.DataSize = 0
	return nil
}
