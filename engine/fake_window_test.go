package engine

import (
	"github.com/Carmen-Shannon/oxy-bloom/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// fakeWindow runs a scripted number of message loop iterations, feeding keys before each.
type fakeWindow struct {
	title    string
	captured bool
	closed   int

	// script is called before the update callback of iteration i.
	script func(w *fakeWindow, i int)
	loops  int

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
	onMove    func(x, y int32)
}

var _ window.Window = &fakeWindow{}

func (w *fakeWindow) SetUpdateCallback(cb func())                  { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(cb func(delta float32))     { w.onScroll = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(keyCode uint32))   { w.onKeyDown = cb }
func (w *fakeWindow) SetKeyUpCallback(cb func(keyCode uint32))     { w.onKeyUp = cb }
func (w *fakeWindow) SetMouseMoveCallback(cb func(x, y int32))     { w.onMove = cb }
func (w *fakeWindow) SetCursorCaptured(captured bool)              { w.captured = captured }
func (w *fakeWindow) CursorCaptured() bool                         { return w.captured }
func (w *fakeWindow) SetTitle(title string)                        { w.title = title }
func (w *fakeWindow) Title() string                                { return w.title }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor   { return nil }
func (w *fakeWindow) IsRunning() bool                              { return w.closed == 0 }
func (w *fakeWindow) Width() int                                   { return 32 }
func (w *fakeWindow) Height() int                                  { return 16 }

func (w *fakeWindow) Close() error {
	w.closed++
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	for i := 0; i < w.loops && w.IsRunning(); i++ {
		if w.script != nil {
			w.script(w, i)
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}
