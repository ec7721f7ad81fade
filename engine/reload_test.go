package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkquad/engine/assets/loaders"
	"github.com/spaghettifunk/vkquad/engine/core"
	"github.com/spaghettifunk/vkquad/engine/systems"
)

type fakeLoader map[string]*loaders.Resource

func (f fakeLoader) LoadAsset(path string) (*loaders.Resource, error) {
	res, ok := f[path]
	if !ok {
		return nil, errors.New("not found: " + path)
	}
	return res, nil
}

// inlineJobs runs submitted jobs on the caller's goroutine.
type inlineJobs struct{}

func (inlineJobs) Submit(jt systems.JobTask) error {
	result, err := jt.OnStart(context.Background())
	if err != nil {
		if jt.OnFailure != nil {
			jt.OnFailure(err)
		}
		return nil
	}
	jt.OnComplete(result)
	return nil
}

type fakeRenderer struct {
	shaders  [][2][]byte
	textures []*loaders.Image
	err      error
}

func (f *fakeRenderer) ReloadShaders(vertex, fragment []byte) error {
	f.shaders = append(f.shaders, [2][]byte{vertex, fragment})
	return f.err
}

func (f *fakeRenderer) ReloadTexture(img *loaders.Image) error {
	f.textures = append(f.textures, img)
	return f.err
}

func testAssets() *AssetsConfig {
	return &AssetsConfig{
		Directory:      "assets",
		VertexShader:   "shaders/vert.spv",
		FragmentShader: "shaders/frag.spv",
		Texture:        "textures/quad.png",
		Workers:        1,
	}
}

func changed(path string) core.EventContext {
	ctx := core.EventContext{}
	ctx.Data.C[0] = path
	return ctx
}

func TestReloaderClassifiesPaths(t *testing.T) {
	r := newAssetReloader(testAssets(), fakeLoader{}, inlineJobs{})

	assert.Equal(t, reloadShaders, r.kindOf("assets/shaders/vert.spv"))
	assert.Equal(t, reloadShaders, r.kindOf("./assets/shaders/frag.spv"))
	assert.Equal(t, reloadTexture, r.kindOf("assets/textures/quad.png"))
	assert.Equal(t, reloadNone, r.kindOf("assets/textures/other.png"))

	noTexture := testAssets()
	noTexture.Texture = ""
	r = newAssetReloader(noTexture, fakeLoader{}, inlineJobs{})
	assert.Equal(t, reloadNone, r.kindOf("assets"))
}

func TestReloaderAppliesShaderPair(t *testing.T) {
	loader := fakeLoader{
		"assets/shaders/vert.spv": {Data: []byte{1}},
		"assets/shaders/frag.spv": {Data: []byte{2}},
	}
	r := newAssetReloader(testAssets(), loader, inlineJobs{})

	assert.True(t, r.onAssetChanged(core.EVENT_CODE_ASSET_CHANGED, nil, changed("assets/shaders/frag.spv")))
	assert.False(t, r.onAssetChanged(core.EVENT_CODE_ASSET_CHANGED, nil, changed("assets/readme.txt")))

	target := &fakeRenderer{}
	require.NoError(t, r.apply(target))
	require.Len(t, target.shaders, 1)
	assert.Equal(t, []byte{1}, target.shaders[0][0])
	assert.Equal(t, []byte{2}, target.shaders[0][1])
	assert.Empty(t, target.textures)

	// Queue is drained.
	require.NoError(t, r.apply(target))
	assert.Len(t, target.shaders, 1)
}

func TestReloaderAppliesTexture(t *testing.T) {
	img := loaders.Checkerboard(4, 2)
	loader := fakeLoader{"assets/textures/quad.png": {Data: img}}
	r := newAssetReloader(testAssets(), loader, inlineJobs{})

	r.onAssetChanged(core.EVENT_CODE_ASSET_CHANGED, nil, changed("assets/textures/quad.png"))

	target := &fakeRenderer{}
	require.NoError(t, r.apply(target))
	require.Len(t, target.textures, 1)
	assert.Same(t, img, target.textures[0])
}

func TestReloaderSkipsFailedLoads(t *testing.T) {
	loader := fakeLoader{"assets/shaders/vert.spv": {Data: []byte{1}}}
	r := newAssetReloader(testAssets(), loader, inlineJobs{})

	r.onAssetChanged(core.EVENT_CODE_ASSET_CHANGED, nil, changed("assets/shaders/vert.spv"))

	target := &fakeRenderer{}
	require.NoError(t, r.apply(target))
	assert.Empty(t, target.shaders)
}

func TestReloaderKeepsRunningWhenRendererRejects(t *testing.T) {
	loader := fakeLoader{"assets/textures/quad.png": {Data: loaders.Checkerboard(4, 2)}}
	r := newAssetReloader(testAssets(), loader, inlineJobs{})
	r.onAssetChanged(core.EVENT_CODE_ASSET_CHANGED, nil, changed("assets/textures/quad.png"))
	r.onAssetChanged(core.EVENT_CODE_ASSET_CHANGED, nil, changed("assets/textures/quad.png"))

	target := &fakeRenderer{err: core.ErrPipelineCreation}
	assert.NoError(t, r.apply(target))
	assert.Len(t, target.textures, 2)
}

func TestLoadHelpersRejectWrongTypes(t *testing.T) {
	loader := fakeLoader{
		"assets/shaders/vert.spv":  {Data: loaders.Checkerboard(2, 1)},
		"assets/textures/quad.png": {Data: []byte{0}},
	}
	_, _, err := loadShaderPair(loader, testAssets())
	assert.Error(t, err)

	_, err = loadTexture(loader, "assets/textures/quad.png")
	assert.Error(t, err)
}

func TestReloaderWithJobSystem(t *testing.T) {
	loader := fakeLoader{
		"assets/shaders/vert.spv": {Data: []byte{1}},
		"assets/shaders/frag.spv": {Data: []byte{2}},
	}
	js, err := systems.NewJobSystem(2, 4)
	require.NoError(t, err)
	r := newAssetReloader(testAssets(), loader, js)

	r.onAssetChanged(core.EVENT_CODE_ASSET_CHANGED, nil, changed("assets/shaders/vert.spv"))
	require.Eventually(t, func() bool { return len(r.pending) == 1 }, time.Second, time.Millisecond)
	require.NoError(t, js.Shutdown())

	target := &fakeRenderer{}
	require.NoError(t, r.apply(target))
	assert.Len(t, target.shaders, 1)
}
