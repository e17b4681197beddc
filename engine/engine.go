package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/camera"
	"github.com/Carmen-Shannon/oxy-bloom/engine/input"
	"github.com/Carmen-Shannon/oxy-bloom/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-bloom/engine/profiler"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-bloom/engine/scene"
	"github.com/Carmen-Shannon/oxy-bloom/engine/state"
	"github.com/Carmen-Shannon/oxy-bloom/engine/window"
	"github.com/rs/zerolog"
)

// DefaultExposureRate is how much exposure Q and E change per second of holding.
const DefaultExposureRate float32 = 1

var movementKeys = []struct {
	key uint32
	dir camera.Direction
}{
	{common.KeyW, camera.Forward},
	{common.KeyS, camera.Backward},
	{common.KeyA, camera.Left},
	{common.KeyD, camera.Right},
}

// FrameStats describes what one Frame did.
type FrameStats struct {
	// Skipped is true when the renderer could not begin the frame.
	Skipped bool

	Scene scene.DrawStats
	Post  postprocess.FrameReport
}

// engine implements the Engine interface.
// Every frame runs on the thread that owns the window: input, scene update, capture,
// blur, composite, present.
type engine struct {
	mu *sync.Mutex

	window    window.Window
	baseTitle string
	renderer  renderer.Renderer
	logger    zerolog.Logger

	cam  camera.Camera
	demo *scene.Demo
	post postprocess.Pipeline

	input        *input.InputState
	st           state.ProgramState
	statePath    string
	autoSave     bool
	exposureRate float32

	shaderDir string
	hotReload bool
	watcher   *shader.Watcher

	profiler         *profiler.Profiler
	profilingEnabled bool
	profileInterval  time.Duration

	lastFrame time.Time
	frames    uint64
	quitOnce  *sync.Once
	released  bool
}

// Engine owns the renderer, the farm scene and the bloom chain, and runs the frame loop.
type Engine interface {
	// Window returns the window the engine presents to, or nil when headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer.
	Renderer() renderer.Renderer

	// Camera returns the first-person camera.
	Camera() camera.Camera

	// Scene returns the farm scene.
	Scene() *scene.Demo

	// PostProcess returns the bloom chain.
	PostProcess() postprocess.Pipeline

	// Input returns the key and mouse state fed by the window callbacks.
	Input() *input.InputState

	// State returns a copy of the current program state.
	//
	// Returns:
	//   - state.ProgramState: the state
	State() state.ProgramState

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Frame runs one frame: input, scene update, scene capture, post-process and present.
	// Problems are logged; the frame degrades instead of failing.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - FrameStats: what the frame drew
	Frame(dt float32) FrameStats

	// Resize resizes the screen, the bloom targets and the camera aspect.
	//
	// Parameters:
	//   - width: new width in pixels
	//   - height: new height in pixels
	Resize(width, height int)

	// Run drives Frame from the window message loop and blocks until the window closes.
	// The program state is saved on the way out when autosave is on.
	//
	// Returns:
	//   - error: an error if the engine has no window, or the state cannot be saved
	Run() error

	// Quit closes the window, which ends Run. Safe to call multiple times.
	Quit()

	// Release saves the state when autosave is on and frees the scene, the bloom chain,
	// the shader watcher and the renderer. Later calls are no-ops.
	//
	// Returns:
	//   - error: an error if the state cannot be saved
	Release() error
}

var _ Engine = &engine{}

// NewEngine builds the scene and the bloom chain on the given renderer.
// A renderer is required; a window is optional for headless use.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if no renderer is set or the scene or post-process setup fails
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:              &sync.Mutex{},
		logger:          zerolog.Nop(),
		input:           input.NewInputState(),
		st:              state.Default(),
		exposureRate:    DefaultExposureRate,
		profileInterval: time.Second,
		quitOnce:        &sync.Once{},
	}
	for _, opt := range options {
		opt(e)
	}
	if e.renderer == nil {
		return nil, errors.New("engine: a renderer is required")
	}

	width, height := e.renderer.Width(), e.renderer.Height()
	if e.cam == nil {
		e.cam = camera.NewCamera(camera.WithController(camera.NewCameraController()))
	}
	if ctrl := e.cam.Controller(); ctrl != nil {
		ctrl.SetPosition(e.st.CameraPosition)
		ctrl.SetFront(e.st.CameraFront)
	}
	if height > 0 {
		e.cam.SetAspect(float32(width) / float32(height))
	}
	e.cam.Update()

	e.demo = scene.NewDemo(e.cam, e.st,
		scene.WithLogger(e.logger.With().Str("component", "scene").Logger()),
		scene.WithShaderDir(e.shaderDir),
	)
	if err := e.demo.Init(e.renderer); err != nil {
		return nil, fmt.Errorf("engine: failed to init scene: %w", err)
	}

	post, err := postprocess.New(e.renderer, width, height,
		postprocess.WithLogger(e.logger.With().Str("component", "postprocess").Logger()),
		postprocess.WithShaderDir(e.shaderDir),
		postprocess.WithClearColor(clearColor(e.st)),
	)
	if err != nil {
		e.demo.Release()
		return nil, fmt.Errorf("engine: failed to create post-process pipeline: %w", err)
	}
	e.post = post

	if e.hotReload && e.shaderDir != "" {
		w, err := shader.NewWatcher(e.shaderDir, e.logger.With().Str("component", "shader").Logger())
		if err != nil {
			e.logger.Warn().Err(err).Str("dir", e.shaderDir).Msg("shader hot reload disabled")
		} else {
			e.watcher = w
		}
	}

	e.profiler = profiler.NewProfiler(e.logger, e.profileInterval)

	if e.window != nil {
		e.bindWindow()
	}
	return e, nil
}

// bindWindow routes the window callbacks into the input state and the frame loop.
func (e *engine) bindWindow() {
	e.baseTitle = e.window.Title()
	e.window.SetKeyDownCallback(e.input.KeyDown)
	e.window.SetKeyUpCallback(e.input.KeyUp)
	e.window.SetMouseMoveCallback(e.input.MouseMove)
	e.window.SetScrollCallback(e.input.Scroll)
	e.window.SetResizeCallback(e.Resize)
	e.window.SetCursorCaptured(e.st.MouseLook)
	e.window.SetUpdateCallback(func() {
		now := time.Now()
		dt := float32(0)
		if !e.lastFrame.IsZero() {
			dt = float32(now.Sub(e.lastFrame).Seconds())
		}
		e.lastFrame = now
		e.Frame(dt)
	})
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Camera() camera.Camera {
	return e.cam
}

func (e *engine) Scene() *scene.Demo {
	return e.demo
}

func (e *engine) PostProcess() postprocess.Pipeline {
	return e.post
}

func (e *engine) Input() *input.InputState {
	return e.input
}

func (e *engine) State() state.ProgramState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) Frame(dt float32) FrameStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var stats FrameStats
	if e.released {
		stats.Skipped = true
		return stats
	}

	e.drainReloads()
	e.processInput(dt)
	e.updateTitle()
	e.demo.Update(dt, &e.st)

	if err := e.renderer.BeginFrame(); err != nil {
		e.logger.Warn().Err(err).Msg("failed to begin frame")
		stats.Skipped = true
		e.tick(stats)
		return stats
	}

	e.post.SetClearColor(clearColor(e.st))
	e.post.BeginSceneCapture()
	drawn, err := e.demo.DrawCalls(e.renderer, e.st.Bloom.Threshold)
	if err != nil {
		e.logger.Error().Err(err).Msg("scene draw failed")
	}
	stats.Scene = drawn
	stats.Post = e.post.RunPostProcess(e.st.Bloom)

	e.renderer.EndFrame()
	e.renderer.Present()

	e.frames++
	e.tick(stats)
	return stats
}

// tick feeds the profiler when profiling is on. Caller must hold the mutex.
func (e *engine) tick(stats FrameStats) {
	if !e.profilingEnabled {
		return
	}
	e.profiler.Tick(profiler.FrameSample{
		Drawn:     stats.Scene.Drawn,
		Culled:    stats.Scene.Culled,
		BlurDraws: stats.Post.BlurDraws,
		Bloom:     stats.Post.BloomBound,
		Skipped:   stats.Skipped || stats.Post.Skipped,
	})
}

// processInput applies held keys, edge-triggered toggles, mouse look and scroll zoom.
// Caller must hold the mutex.
func (e *engine) processInput(dt float32) {
	in := e.input
	st := &e.st

	if in.Pressed(common.KeySpace) {
		st.Bloom.Enabled = !st.Bloom.Enabled
		e.logger.Debug().Bool("bloom", st.Bloom.Enabled).Msg("bloom toggled")
	}
	if in.Held(common.KeyQ) {
		st.Bloom.Exposure -= e.exposureRate * dt
	}
	if in.Held(common.KeyE) {
		st.Bloom.Exposure += e.exposureRate * dt
	}
	st.Bloom = st.Bloom.Sanitize()

	if in.Pressed(common.KeyX) && !st.Abduct {
		st.Abduct = true
		e.logger.Info().Msg("abduction started")
	}
	if in.Pressed(common.KeyF) {
		st.Flashlight = !st.Flashlight
	}
	if in.Pressed(common.KeyF1) {
		st.MouseLook = !st.MouseLook
		if e.window != nil {
			e.window.SetCursorCaptured(st.MouseLook)
		}
		in.ResetMouse()
	}

	ctrl := e.cam.Controller()
	if ctrl != nil {
		for _, m := range movementKeys {
			if in.Held(m.key) {
				ctrl.Move(m.dir, dt)
			}
		}
		dx, dy := in.ConsumeMouse()
		if st.MouseLook && (dx != 0 || dy != 0) {
			ctrl.Look(dx, dy)
		}
	}
	if scroll := in.ConsumeScroll(); scroll != 0 {
		e.cam.Zoom(scroll)
	}
	e.cam.Update()

	if ctrl != nil {
		st.CameraPosition = ctrl.Position()
		st.CameraFront = ctrl.Front()
	}
}

// updateTitle shows the bloom toggle and exposure in the title bar.
// Caller must hold the mutex.
func (e *engine) updateTitle() {
	if e.window == nil {
		return
	}
	bloom := "off"
	if e.st.Bloom.Enabled {
		bloom = "on"
	}
	e.window.SetTitle(fmt.Sprintf("%s | bloom %s | exposure %.2f", e.baseTitle, bloom, e.st.Bloom.Exposure))
}

// drainReloads rebuilds the pipelines of every shader edited since the last frame.
// Caller must hold the mutex.
func (e *engine) drainReloads() {
	if e.watcher == nil {
		return
	}
	for {
		select {
		case r := <-e.watcher.Reloads():
			var err error
			switch r.Name {
			case shader.SourceScene, shader.SourceSky:
				err = e.demo.ReloadShaders(e.renderer, e.shaderDir)
			case shader.SourceBlur, shader.SourceComposite:
				err = e.post.ReloadShaders(e.shaderDir)
			default:
				continue
			}
			if err != nil {
				e.logger.Warn().Err(err).Str("shader", r.Name).Msg("shader reload failed, keeping previous version")
			}
		default:
			return
		}
	}
}

func (e *engine) Resize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return
	}
	e.renderer.Resize(width, height)
	e.post.Resize(width, height)
	if height > 0 {
		e.cam.SetAspect(float32(width) / float32(height))
	}
	e.logger.Debug().Int("width", width).Int("height", height).Msg("resized")
}

func (e *engine) Run() error {
	if e.window == nil {
		return errors.New("engine: Run needs a window")
	}
	e.window.ProcessMessages()
	err := e.Release()
	e.Quit()
	return err
}

// Quit closes the window. Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		if e.window != nil {
			if err := e.window.Close(); err != nil {
				e.logger.Warn().Err(err).Msg("failed to close window")
			}
		}
	})
}

func (e *engine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return nil
	}
	e.released = true

	var saveErr error
	if e.autoSave && e.statePath != "" {
		if err := e.st.Save(e.statePath); err != nil {
			saveErr = fmt.Errorf("engine: %w", err)
		} else {
			e.logger.Info().Str("path", e.statePath).Msg("program state saved")
		}
	}

	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("failed to close shader watcher")
		}
	}
	e.demo.Release()
	e.post.Release()
	e.renderer.Release()
	e.logger.Info().Uint64("frames", e.frames).Msg("engine released")
	return saveErr
}

func clearColor(st state.ProgramState) common.Color {
	return common.Color{st.ClearColor[0], st.ClearColor[1], st.ClearColor[2], 1}
}
