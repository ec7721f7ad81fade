package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/vkquad/engine/assets"
	"github.com/spaghettifunk/vkquad/engine/assets/loaders"
	"github.com/spaghettifunk/vkquad/engine/core"
	"github.com/spaghettifunk/vkquad/engine/platform"
	"github.com/spaghettifunk/vkquad/engine/renderer/vulkan"
	"github.com/spaghettifunk/vkquad/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const metricsLogInterval = 5 * time.Second

type Engine struct {
	currentStage Stage
	config       *ApplicationConfig
	isRunning    atomic.Bool
	isSuspended  bool

	bus          *core.EventBus
	platform     *platform.Platform
	assetManager *assets.AssetManager
	jobSystem    *systems.JobSystem
	renderer     *vulkan.VulkanRenderer
	reloader     *assetReloader

	clock         *core.Clock
	metrics       *core.Metrics
	lastMetricLog time.Duration
}

func New(cfg *ApplicationConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bus := core.NewEventBus()

	am, err := assets.NewAssetManager(bus)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		bus:          bus,
		platform:     platform.New(bus),
		assetManager: am,
		renderer:     vulkan.New(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	level, err := core.ParseLogLevel(e.config.LogLevel)
	if err != nil {
		return err
	}
	core.SetLogLevel(level)

	e.bus.Register(core.EVENT_CODE_APPLICATION_QUIT, e.onQuit)
	e.bus.Register(core.EVENT_CODE_RESIZED, e.onResized)

	window := e.config.Window
	if err := e.platform.Startup(window.Title, window.StartPosX, window.StartPosY, window.StartWidth, window.StartHeight); err != nil {
		return err
	}

	assetsConfig := e.config.Assets
	if err := e.assetManager.Initialize(assetsConfig.Directory, assetsConfig.HotReload); err != nil {
		return err
	}
	if texture := assetsConfig.TexturePath(); texture != "" && assetsConfig.HotReload {
		if err := e.assetManager.Watch(texture); err != nil {
			return err
		}
	}

	js, err := systems.NewJobSystem(assetsConfig.Workers, assetsConfig.Workers*2)
	if err != nil {
		return err
	}
	e.jobSystem = js
	e.reloader = newAssetReloader(&assetsConfig, e.assetManager, e.jobSystem)
	if assetsConfig.HotReload {
		e.bus.Register(core.EVENT_CODE_ASSET_CHANGED, e.reloader.onAssetChanged)
	}

	rendererConfig, err := e.rendererConfig()
	if err != nil {
		return err
	}
	if err := e.renderer.Initialize(e.platform, rendererConfig); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// rendererConfig loads the startup shaders and texture. With no texture
// configured a checkerboard is generated.
func (e *Engine) rendererConfig() (vulkan.RendererConfig, error) {
	frontFace, err := vulkan.ParseFrontFace(e.config.Renderer.FrontFace)
	if err != nil {
		return vulkan.RendererConfig{}, err
	}
	vert, frag, err := loadShaderPair(e.assetManager, &e.config.Assets)
	if err != nil {
		return vulkan.RendererConfig{}, err
	}

	img := loaders.Checkerboard(256, 8)
	if path := e.config.Assets.TexturePath(); path != "" {
		if img, err = loadTexture(e.assetManager, path); err != nil {
			return vulkan.RendererConfig{}, err
		}
	} else {
		core.LogInfo("No texture configured, using the generated checkerboard.")
	}

	return vulkan.RendererConfig{
		ApplicationName:  e.config.Window.Title,
		EnableValidation: e.config.Renderer.EnableValidation,
		FrontFace:        frontFace,
		ClearColor:       e.config.Renderer.ClearColor,
		VertexShader:     vert,
		FragmentShader:   frag,
		Texture:          img,
	}, nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine is not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)
	e.clock.Start()

	for e.isRunning.Load() {
		if !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}

		if err := e.reloader.apply(e.renderer); err != nil {
			return err
		}

		if e.isSuspended {
			// Minimized, sleep until the window gets an event.
			e.platform.WaitEvents()
			continue
		}

		frameStart := time.Now()
		if err := e.renderer.DrawFrame(); err != nil {
			return err
		}
		e.metrics.Update(time.Since(frameStart))

		e.clock.Update()
		if elapsed := e.clock.Elapsed(); elapsed-e.lastMetricLog >= metricsLogInterval {
			fps, frameTime := e.metrics.Frame()
			core.LogDebug("%.0f fps, %.3f ms/frame (%d frames)", fps, frameTime, e.renderer.FrameNumber)
			e.lastMetricLog = elapsed
		}
	}
	return nil
}

// Stop asks the frame loop to exit. Safe from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
	e.platform.Wake()
}

// Shutdown releases the renderer, the asset watcher, the job pool and the
// window, in that order. It tolerates a partially initialized engine.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.clock.Stop()

	e.renderer.Shutdown()

	var firstErr error
	if err := e.assetManager.Shutdown(); err != nil {
		firstErr = err
	}
	if e.jobSystem != nil {
		if err := e.jobSystem.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.platform.Window != nil {
		if err := e.platform.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.bus.Shutdown()
	return firstErr
}

func (e *Engine) onQuit(code core.SystemEventCode, sender interface{}, context core.EventContext) bool {
	core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
	e.isRunning.Store(false)
	return true
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, context core.EventContext) bool {
	width := context.Data.U32[0]
	height := context.Data.U32[1]

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	e.renderer.Resized(width, height)
	// Other listeners may be interested.
	return false
}
