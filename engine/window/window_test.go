package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{}
	for _, opt := range []WindowBuilderOption{
		WithTitle("bloom"),
		WithSize(1024, 768),
		WithSizeLimits(100, 50, 2000, 1000),
		WithCursorCaptured(true),
	} {
		opt(w)
	}

	assert.Equal(t, "bloom", w.title)
	assert.Equal(t, 1024, w.width)
	assert.Equal(t, 768, w.height)
	assert.Equal(t, 100, w.minWidth)
	assert.Equal(t, 1000, w.maxHeight)
	assert.True(t, w.cursorCaptured)
}

func TestClampSize(t *testing.T) {
	tests := []struct {
		name         string
		width        int
		height       int
		wantW, wantH int
	}{
		{name: "inside", width: 800, height: 600, wantW: 800, wantH: 600},
		{name: "too small", width: 10, height: 0, wantW: 320, wantH: 200},
		{name: "too large", width: 5000, height: 4000, wantW: 3840, wantH: 2160},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := clampSize(tt.width, tt.height, 320, 200, 3840, 2160)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestClampSizeMaxBelowMin(t *testing.T) {
	w, h := clampSize(50, 50, 400, 300, 100, 100)
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
}

func TestUnopenedWindow(t *testing.T) {
	w := &engineWindow{title: "a"}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.NoError(t, w.Close())

	w.SetTitle("b")
	assert.Equal(t, "b", w.Title())
	w.SetCursorCaptured(true)
	assert.True(t, w.CursorCaptured())

	called := false
	w.SetUpdateCallback(func() { called = true })
	w.ProcessMessages()
	assert.False(t, called)
}
