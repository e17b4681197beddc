package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, options ...EngineBuilderOption) Engine {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithSize(32, 16), renderer.WithSoftwareWorkers(2))
	require.NoError(t, err)
	e, err := NewEngine(append([]EngineBuilderOption{WithRenderer(r)}, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Release() })
	return e
}

// tap presses and releases a key between frames.
func tap(e Engine, key uint32) {
	e.Input().KeyDown(key)
	e.Frame(0.016)
	e.Input().KeyUp(key)
}

func TestNewEngineNeedsRenderer(t *testing.T) {
	_, err := NewEngine()
	assert.Error(t, err)
}

func TestFrameRunsBloomChain(t *testing.T) {
	e := newTestEngine(t)
	stats := e.Frame(0.016)

	assert.False(t, stats.Skipped)
	assert.Positive(t, stats.Scene.Drawn)
	assert.Positive(t, stats.Scene.Culled)
	assert.True(t, stats.Scene.Sky)
	assert.Equal(t, postprocess.DefaultIterations, stats.Post.BlurDraws)
	assert.Equal(t, 1, stats.Post.CompositeDraws)
	assert.True(t, stats.Post.BloomBound)
}

func TestSpaceTogglesBloomOncePerPress(t *testing.T) {
	e := newTestEngine(t)
	require.True(t, e.State().Bloom.Enabled)

	e.Input().KeyDown(common.KeySpace)
	stats := e.Frame(0.016)
	assert.False(t, e.State().Bloom.Enabled)
	assert.False(t, stats.Post.BloomBound)

	// Still held: no second toggle.
	e.Frame(0.016)
	assert.False(t, e.State().Bloom.Enabled)

	e.Input().KeyUp(common.KeySpace)
	tap(e, common.KeySpace)
	assert.True(t, e.State().Bloom.Enabled)
}

func TestExposureKeys(t *testing.T) {
	e := newTestEngine(t, WithExposureRate(2))

	e.Input().KeyDown(common.KeyE)
	e.Frame(0.25)
	e.Input().KeyUp(common.KeyE)
	assert.InDelta(t, 1.0, e.State().Bloom.Exposure, 1e-5)

	e.Input().KeyDown(common.KeyQ)
	for i := 0; i < 4; i++ {
		e.Frame(0.5)
	}
	assert.Equal(t, postprocess.MinExposure, e.State().Bloom.Exposure)
}

func TestAbductionAndFlashlight(t *testing.T) {
	e := newTestEngine(t)

	tap(e, common.KeyX)
	st := e.State()
	assert.True(t, st.Abduct)
	assert.Greater(t, st.CowHeight, state.DefaultCowHeight)
	assert.True(t, e.Scene().Beam().Enabled())

	tap(e, common.KeyF)
	assert.True(t, e.State().Flashlight)
	assert.True(t, e.Scene().Flashlight().Enabled())
	tap(e, common.KeyF)
	assert.False(t, e.State().Flashlight)
}

func TestMovementAndMouseLook(t *testing.T) {
	e := newTestEngine(t)
	start := e.State().CameraPosition

	e.Input().KeyDown(common.KeyW)
	e.Frame(0.5)
	e.Input().KeyUp(common.KeyW)
	moved := e.State().CameraPosition
	assert.Less(t, moved[2], start[2])

	front := e.State().CameraFront
	e.Input().MouseMove(100, 100)
	e.Input().MouseMove(150, 100)
	e.Frame(0.016)
	assert.NotEqual(t, front, e.State().CameraFront)

	// F1 turns mouse look off; motion is then ignored.
	tap(e, common.KeyF1)
	assert.False(t, e.State().MouseLook)
	front = e.State().CameraFront
	e.Input().MouseMove(100, 100)
	e.Input().MouseMove(300, 50)
	e.Frame(0.016)
	assert.Equal(t, front, e.State().CameraFront)
}

func TestScrollZooms(t *testing.T) {
	e := newTestEngine(t)
	before := e.Camera().Fov()
	e.Input().Scroll(5)
	e.Frame(0.016)
	assert.Less(t, e.Camera().Fov(), before)
}

func TestResize(t *testing.T) {
	e := newTestEngine(t)
	e.Resize(64, 16)
	assert.Equal(t, 64, e.Renderer().Width())
	assert.InDelta(t, 4, e.Camera().Aspect(), 1e-6)
	assert.Equal(t, 64, e.PostProcess().HDRTarget().Width())
	assert.False(t, e.Frame(0.016).Skipped)
}

func TestReleaseSavesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "program.yaml")
	st := state.Default()
	st.Bloom.Iterations = 4
	e := newTestEngine(t, WithState(st), WithStatePath(path, true))

	tap(e, common.KeyF)
	require.NoError(t, e.Release())
	require.NoError(t, e.Release())
	assert.True(t, e.Frame(0.016).Skipped)

	loaded, err := state.Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Flashlight)
	assert.Equal(t, 4, loaded.Bloom.Iterations)
}

func TestRunNeedsWindow(t *testing.T) {
	e := newTestEngine(t)
	assert.Error(t, e.Run())
}

func TestRunDrivesFramesFromWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	win := &fakeWindow{
		title: "oxy-bloom",
		loops: 4,
		script: func(w *fakeWindow, i int) {
			switch i {
			case 1:
				w.onKeyDown(common.KeySpace)
			case 2:
				w.onKeyUp(common.KeySpace)
				w.onResize(64, 16)
			}
		},
	}
	e := newTestEngine(t, WithWindow(win), WithStatePath(path, true))
	assert.True(t, win.captured)

	require.NoError(t, e.Run())
	assert.Equal(t, 1, win.closed)
	assert.Equal(t, "oxy-bloom | bloom off | exposure 0.50", win.title)
	assert.Equal(t, 64, e.Renderer().Width())

	loaded, err := state.Load(path)
	require.NoError(t, err)
	assert.False(t, loaded.Bloom.Enabled)

	e.Quit()
	assert.Equal(t, 1, win.closed)
}

func TestF1ReleasesCursor(t *testing.T) {
	win := &fakeWindow{}
	e := newTestEngine(t, WithWindow(win))
	require.True(t, win.captured)

	tap(e, common.KeyF1)
	assert.False(t, win.captured)
	tap(e, common.KeyF1)
	assert.True(t, win.captured)
}

func TestProfilerSeesFrames(t *testing.T) {
	e := newTestEngine(t, WithProfiling(true, time.Hour))
	e.Frame(0.016)
	e.DisableProfiler()
	e.Frame(0.016)
	e.EnableProfiler()
	e.Frame(0.016)

	assert.Equal(t, 2, e.(*engine).profiler.Frames())
}
