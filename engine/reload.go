package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spaghettifunk/vkquad/engine/assets/loaders"
	"github.com/spaghettifunk/vkquad/engine/core"
	"github.com/spaghettifunk/vkquad/engine/systems"
)

type reloadKind uint8

const (
	reloadNone reloadKind = iota
	reloadShaders
	reloadTexture
)

// assetReload is a decoded asset waiting to be applied on the render thread.
type assetReload struct {
	kind     reloadKind
	vertex   []byte
	fragment []byte
	texture  *loaders.Image
}

type assetLoader interface {
	LoadAsset(path string) (*loaders.Resource, error)
}

type jobSubmitter interface {
	Submit(jt systems.JobTask) error
}

type rendererReloader interface {
	ReloadShaders(vertex, fragment []byte) error
	ReloadTexture(img *loaders.Image) error
}

// assetReloader decodes changed assets on the job pool and queues the
// results until the frame loop applies them.
type assetReloader struct {
	config  *AssetsConfig
	loader  assetLoader
	jobs    jobSubmitter
	pending chan assetReload
}

func newAssetReloader(config *AssetsConfig, loader assetLoader, jobs jobSubmitter) *assetReloader {
	return &assetReloader{
		config:  config,
		loader:  loader,
		jobs:    jobs,
		pending: make(chan assetReload, 4),
	}
}

func (r *assetReloader) kindOf(path string) reloadKind {
	clean := filepath.Clean(path)
	switch clean {
	case filepath.Clean(r.config.VertexShaderPath()), filepath.Clean(r.config.FragmentShaderPath()):
		return reloadShaders
	}
	if texture := r.config.TexturePath(); texture != "" && filepath.Clean(texture) == clean {
		return reloadTexture
	}
	return reloadNone
}

func (r *assetReloader) onAssetChanged(code core.SystemEventCode, sender interface{}, context core.EventContext) bool {
	path := context.Data.C[0]
	switch r.kindOf(path) {
	case reloadShaders:
		r.submit("reload shaders", func() (assetReload, error) {
			vert, frag, err := loadShaderPair(r.loader, r.config)
			return assetReload{kind: reloadShaders, vertex: vert, fragment: frag}, err
		})
	case reloadTexture:
		r.submit("reload texture", func() (assetReload, error) {
			img, err := loadTexture(r.loader, path)
			return assetReload{kind: reloadTexture, texture: img}, err
		})
	default:
		return false
	}
	core.LogInfo("%s changed, reloading.", path)
	return true
}

func (r *assetReloader) submit(name string, load func() (assetReload, error)) {
	err := r.jobs.Submit(systems.JobTask{
		Name: name,
		OnStart: func(ctx context.Context) (interface{}, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return load()
		},
		OnComplete: func(result interface{}) {
			r.enqueue(result.(assetReload))
		},
	})
	if err != nil {
		core.LogWarn("could not queue %s: %s", name, err)
	}
}

func (r *assetReloader) enqueue(reload assetReload) {
	select {
	case r.pending <- reload:
	default:
		core.LogWarn("reload queue full, dropping reload")
	}
}

// apply hands every queued reload to the renderer. Must run on the render
// thread between frames. A rejected reload keeps the current assets.
func (r *assetReloader) apply(target rendererReloader) error {
	for {
		select {
		case reload := <-r.pending:
			var err error
			switch reload.kind {
			case reloadShaders:
				err = target.ReloadShaders(reload.vertex, reload.fragment)
			case reloadTexture:
				err = target.ReloadTexture(reload.texture)
			}
			if err != nil {
				core.LogWarn("asset reload rejected: %s", err)
			}
		default:
			return nil
		}
	}
}

func loadShaderPair(loader assetLoader, config *AssetsConfig) ([]byte, []byte, error) {
	vert, err := loadShader(loader, config.VertexShaderPath())
	if err != nil {
		return nil, nil, err
	}
	frag, err := loadShader(loader, config.FragmentShaderPath())
	if err != nil {
		return nil, nil, err
	}
	return vert, frag, nil
}

func loadShader(loader assetLoader, path string) ([]byte, error) {
	res, err := loader.LoadAsset(path)
	if err != nil {
		return nil, err
	}
	code, ok := res.Data.([]byte)
	if !ok {
		return nil, fmt.Errorf("%s is not a shader binary", path)
	}
	return code, nil
}

func loadTexture(loader assetLoader, path string) (*loaders.Image, error) {
	res, err := loader.LoadAsset(path)
	if err != nil {
		return nil, err
	}
	img, ok := res.Data.(*loaders.Image)
	if !ok {
		return nil, fmt.Errorf("%s is not an image", path)
	}
	return img, nil
}
