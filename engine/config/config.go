// Package config loads the application configuration from yaml and OXYBLOOM_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-bloom/engine/logging"
	"github.com/Carmen-Shannon/oxy-bloom/engine/postprocess"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. OXYBLOOM_BLOOM_EXPOSURE.
const EnvPrefix = "OXYBLOOM"

// Config holds the complete application configuration.
type Config struct {
	Window   WindowConfig                `mapstructure:"window" yaml:"window"`
	Renderer RendererConfig              `mapstructure:"renderer" yaml:"renderer"`
	Bloom    postprocess.BloomParameters `mapstructure:"bloom" yaml:"bloom"`
	Camera   CameraConfig                `mapstructure:"camera" yaml:"camera"`
	Logging  logging.Config              `mapstructure:"logging" yaml:"logging"`
	State    StateConfig                 `mapstructure:"state" yaml:"state"`
	Shaders  ShaderConfig                `mapstructure:"shaders" yaml:"shaders"`
	Profiler ProfilerConfig              `mapstructure:"profiler" yaml:"profiler"`
}

// WindowConfig holds window settings.
type WindowConfig struct {
	Title  string `mapstructure:"title" yaml:"title"`
	Width  int    `mapstructure:"width" yaml:"width"`
	Height int    `mapstructure:"height" yaml:"height"`
	VSync  bool   `mapstructure:"vsync" yaml:"vsync"`
}

// RendererConfig selects and tunes the rendering backend.
type RendererConfig struct {
	Backend              string `mapstructure:"backend" yaml:"backend"` // wgpu or software
	ForceFallbackAdapter bool   `mapstructure:"force_fallback_adapter" yaml:"force_fallback_adapter"`
	SoftwareWorkers      int    `mapstructure:"software_workers" yaml:"software_workers"` // 0 uses one per CPU
}

// CameraConfig holds the first-person camera settings.
type CameraConfig struct {
	Fov         float32 `mapstructure:"fov" yaml:"fov"` // degrees
	Speed       float32 `mapstructure:"speed" yaml:"speed"`
	Sensitivity float32 `mapstructure:"sensitivity" yaml:"sensitivity"`
	Near        float32 `mapstructure:"near" yaml:"near"`
	Far         float32 `mapstructure:"far" yaml:"far"`
}

// StateConfig controls ProgramState persistence.
type StateConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	AutoSave bool   `mapstructure:"autosave" yaml:"autosave"`
}

// ShaderConfig controls where WGSL sources come from.
type ShaderConfig struct {
	// Dir overrides the embedded shaders when set.
	Dir       string `mapstructure:"dir" yaml:"dir"`
	HotReload bool   `mapstructure:"hot_reload" yaml:"hot_reload"`
}

// ProfilerConfig controls the periodic frame stats log line.
type ProfilerConfig struct {
	Enabled  bool    `mapstructure:"enabled" yaml:"enabled"`
	Interval float32 `mapstructure:"interval" yaml:"interval"` // seconds
}

// DefaultConfig returns a new configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "oxy-bloom",
			Width:  800,
			Height: 600,
			VSync:  true,
		},
		Renderer: RendererConfig{
			Backend: "wgpu",
		},
		Bloom: postprocess.DefaultBloomParameters(),
		Camera: CameraConfig{
			Fov:         45,
			Speed:       2.5,
			Sensitivity: 0.1,
			Near:        0.1,
			Far:         100,
		},
		Logging: logging.DefaultConfig(),
		State: StateConfig{
			Path:     "state.yaml",
			AutoSave: true,
		},
		Shaders: ShaderConfig{},
		Profiler: ProfilerConfig{
			Interval: 1,
		},
	}
}

// Load loads configuration from the yaml file at configPath, then applies OXYBLOOM_*
// environment overrides. An empty configPath searches ./oxy-bloom.yaml and
// $HOME/.config/oxy-bloom/oxy-bloom.yaml; not finding either is not an error.
//
// Parameters:
//   - configPath: explicit config file, or ""
//
// Returns:
//   - *Config: the merged configuration
//   - error: a read, parse or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("oxy-bloom")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/oxy-bloom")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Bloom = cfg.Bloom.Sanitize()
	return &cfg, nil
}

// Validate checks the fields that cannot be repaired by clamping.
//
// Returns:
//   - error: the first invalid field found
func (c *Config) Validate() error {
	switch strings.ToLower(c.Renderer.Backend) {
	case "wgpu", "software":
	default:
		return fmt.Errorf("invalid renderer backend: %q (must be wgpu or software)", c.Renderer.Backend)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("invalid window size: %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("invalid camera clip range: near %v far %v", c.Camera.Near, c.Camera.Far)
	}
	return nil
}

// Save writes the configuration to path as yaml, creating the directory when needed.
//
// Parameters:
//   - path: the destination file
//
// Returns:
//   - error: a marshal or write error
func (c *Config) Save(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// YAML renders the configuration as yaml.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("window.width", d.Window.Width)
	v.SetDefault("window.height", d.Window.Height)
	v.SetDefault("window.vsync", d.Window.VSync)
	v.SetDefault("renderer.backend", d.Renderer.Backend)
	v.SetDefault("renderer.force_fallback_adapter", d.Renderer.ForceFallbackAdapter)
	v.SetDefault("renderer.software_workers", d.Renderer.SoftwareWorkers)
	v.SetDefault("bloom.enabled", d.Bloom.Enabled)
	v.SetDefault("bloom.exposure", d.Bloom.Exposure)
	v.SetDefault("bloom.iterations", d.Bloom.Iterations)
	v.SetDefault("bloom.threshold", d.Bloom.Threshold)
	v.SetDefault("camera.fov", d.Camera.Fov)
	v.SetDefault("camera.speed", d.Camera.Speed)
	v.SetDefault("camera.sensitivity", d.Camera.Sensitivity)
	v.SetDefault("camera.near", d.Camera.Near)
	v.SetDefault("camera.far", d.Camera.Far)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("state.path", d.State.Path)
	v.SetDefault("state.autosave", d.State.AutoSave)
	v.SetDefault("shaders.dir", d.Shaders.Dir)
	v.SetDefault("shaders.hot_reload", d.Shaders.HotReload)
	v.SetDefault("profiler.enabled", d.Profiler.Enabled)
	v.SetDefault("profiler.interval", d.Profiler.Interval)
}
