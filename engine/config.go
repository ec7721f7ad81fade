package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/vkquad/engine/core"
	"github.com/spaghettifunk/vkquad/engine/renderer/vulkan"
)

type WindowConfig struct {
	// The application name used in windowing.
	Title string `toml:"title"`
	// Window starting position x axis.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height.
	StartHeight uint32 `toml:"start_height"`
}

type RendererConfig struct {
	EnableValidation bool `toml:"enable_validation"`
	// "counter_clockwise" (or "ccw") or "clockwise" (or "cw"). Empty means counter_clockwise.
	FrontFace  string     `toml:"front_face"`
	ClearColor [4]float32 `toml:"clear_color"`
}

type AssetsConfig struct {
	Directory      string `toml:"directory"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	// Empty selects the generated checkerboard.
	Texture   string `toml:"texture"`
	HotReload bool   `toml:"hot_reload"`
	Workers   int    `toml:"workers"`
}

type ApplicationConfig struct {
	LogLevel string         `toml:"log_level"`
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
}

func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		LogLevel: string(core.LogLevelInfo),
		Window: WindowConfig{
			Title:       "vkquad",
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  800,
			StartHeight: 600,
		},
		Renderer: RendererConfig{
			EnableValidation: true,
			FrontFace:        "counter_clockwise",
			ClearColor:       [4]float32{0, 0, 0, 1},
		},
		Assets: AssetsConfig{
			Directory:      "shaders",
			VertexShader:   "vert.spv",
			FragmentShader: "frag.spv",
			HotReload:      true,
			Workers:        2,
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file yields the defaults.
func LoadConfig(path string) (*ApplicationConfig, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		core.LogWarn("config file %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Window.StartWidth == 0 || c.Window.StartHeight == 0 {
		return fmt.Errorf("window size must be non-zero, got %dx%d", c.Window.StartWidth, c.Window.StartHeight)
	}
	if _, err := vulkan.ParseFrontFace(c.Renderer.FrontFace); err != nil {
		return fmt.Errorf("renderer.front_face: %w", err)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("renderer.clear_color[%d] out of range: %f", i, v)
		}
	}
	if c.Assets.VertexShader == "" || c.Assets.FragmentShader == "" {
		return errors.New("assets.vertex_shader and assets.fragment_shader are required")
	}
	if c.Assets.Workers < 1 {
		return fmt.Errorf("assets.workers must be at least 1, got %d", c.Assets.Workers)
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *AssetsConfig) VertexShaderPath() string {
	return filepath.Join(c.Directory, c.VertexShader)
}

func (c *AssetsConfig) FragmentShaderPath() string {
	return filepath.Join(c.Directory, c.FragmentShader)
}

// TexturePath is empty when no texture file is configured.
func (c *AssetsConfig) TexturePath() string {
	if c.Texture == "" {
		return ""
	}
	return filepath.Join(c.Directory, c.Texture)
}
