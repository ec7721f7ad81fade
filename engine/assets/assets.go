package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/vkquad/engine/assets/loaders"
	"github.com/spaghettifunk/vkquad/engine/core"
)

var ErrWatcherClosed = errors.New("asset watcher already closed")

type AssetInfo struct {
	Path        string
	Type        loaders.ResourceType
	LastChanged time.Time
}

// AssetManager indexes the asset directory, loads shaders and images on demand,
// and fires EVENT_CODE_ASSET_CHANGED on the event bus when a known asset changes on disk.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[loaders.ResourceType]Loader
	bus     *core.EventBus

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	started  bool
	isClosed bool
}

func NewAssetManager(bus *core.EventBus) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[loaders.ResourceType]Loader),
		bus:      bus,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(loaders.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(loaders.ResourceTypeImage, &loaders.TextureLoader{})

	return am, nil
}

// Initialize indexes assetsDir and, when watch is set, starts watching it for changes.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	if err := am.watchRecursive(assetsDir, watch); err != nil {
		return err
	}
	am.started = true
	if watch {
		go am.start()
	} else {
		close(am.stopped)
	}
	return nil
}

// Watch adds a single file outside the asset directory, such as a texture given by path.
func (am *AssetManager) Watch(path string) error {
	if am.isClosed {
		return ErrWatcherClosed
	}
	am.index(path)
	// fsnotify tracks files through their parent directory
	return am.fsnotify.Add(filepath.Dir(path))
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType loaders.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset reads the file at path with the loader matching its extension.
func (am *AssetManager) LoadAsset(path string) (*loaders.Resource, error) {
	assetType := DetermineAssetType(path)
	if assetType == loaders.ResourceTypeNone {
		return nil, fmt.Errorf("unknown resource type for %s", path)
	}

	loader, loaderExists := am.loaders[assetType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", assetType)
	}
	res, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	core.LogDebug("loaded %s asset %s (%d bytes)", assetType, path, res.DataSize)
	return res, nil
}

func (am *AssetManager) UnloadAsset(res *loaders.Resource) error {
	if res == nil {
		return nil
	}
	loader, ok := am.loaders[res.Type]
	if !ok {
		return nil
	}
	return loader.Unload(res)
}

// Lookup returns the index entry for path.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.Clean(path)]
	return info, ok
}

// Shutdown stops the watcher goroutine and closes the fsnotify handle.
func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	if am.started {
		<-am.stopped
	}
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleWatchEvent(e)

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(e.Error())

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleWatchEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := am.watchRecursive(e.Name, true); err != nil {
				core.LogWarn("failed to watch %s: %s", e.Name, err)
			}
			return
		}
	}
	// Handle create or modify events
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if !am.index(e.Name) {
			return
		}
		ctx := core.EventContext{}
		ctx.Data.C[0] = filepath.Clean(e.Name)
		am.bus.Fire(core.EVENT_CODE_ASSET_CHANGED, am, ctx)
	}
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
	}
}

// watchRecursive indexes every file under path and, when watch is set, adds its directories to the watch list.
func (am *AssetManager) watchRecursive(path string, watch bool) error {
	if am.isClosed {
		return ErrWatcherClosed
	}
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if watch {
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		am.index(walkPath)
		return nil
	})
}

// index records a known asset; it reports false for files no loader handles.
func (am *AssetManager) index(path string) bool {
	assetType := DetermineAssetType(path)
	if assetType == loaders.ResourceTypeNone {
		return false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	path = filepath.Clean(path)
	am.assets[path] = AssetInfo{
		Path:        path,
		Type:        assetType,
		LastChanged: time.Now(),
	}
	return true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func DetermineAssetType(path string) loaders.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv":
		return loaders.ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return loaders.ResourceTypeImage
	default:
		return loaders.ResourceTypeNone
	}
}
