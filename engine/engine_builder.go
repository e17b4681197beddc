package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-bloom/engine/camera"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/state"
	"github.com/Carmen-Shannon/oxy-bloom/engine/window"
	"github.com/rs/zerolog"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//   - interval: time between stats lines, 0 for one second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool, interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
		if interval > 0 {
			e.profileInterval = interval
		}
	}
}

// WithWindow sets the window the engine binds its input and resize callbacks to.
// Without one the engine runs headless and frames are driven by calling Frame.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer. Required.
//
// Parameters:
//   - r: the renderer, owned by the engine from here on
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithLogger sets the logger. Each component gets a child logger tagged with its name.
func WithLogger(logger zerolog.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = logger
	}
}

// WithCamera sets the camera. Its controller is moved to the state's camera position and front.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(cam camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.cam = cam
	}
}

// WithState sets the program state the engine starts from.
//
// Parameters:
//   - st: the initial state
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithState(st state.ProgramState) EngineBuilderOption {
	return func(e *engine) {
		e.st = st
	}
}

// WithStatePath sets where Release saves the program state.
//
// Parameters:
//   - path: the yaml file
//   - autoSave: whether Release writes it
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStatePath(path string, autoSave bool) EngineBuilderOption {
	return func(e *engine) {
		e.statePath = path
		e.autoSave = autoSave
	}
}

// WithShaderDir loads the WGSL sources from dir, falling back to the embedded copies,
// and optionally watches it for edits.
//
// Parameters:
//   - dir: the override directory
//   - hotReload: rebuild pipelines when a file in dir changes
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderDir(dir string, hotReload bool) EngineBuilderOption {
	return func(e *engine) {
		e.shaderDir = dir
		e.hotReload = hotReload
	}
}

// WithExposureRate sets how much exposure changes per second while Q or E is held.
func WithExposureRate(rate float32) EngineBuilderOption {
	return func(e *engine) {
		if rate > 0 {
			e.exposureRate = rate
		}
	}
}
