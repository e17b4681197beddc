package software

import (
	"runtime"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullscreenStrip is a clip-space quad as a triangle strip, (x, y, u, v) per vertex.
var fullscreenStrip = []float32{
	-1, 1, 0, 1,
	-1, -1, 0, 0,
	1, 1, 1, 1,
	1, -1, 1, 0,
}

func flatStage(depth float32, colors ...mgl32.Vec4) Stage {
	return Stage{
		Varyings: 2,
		Vertex: func(in []float32, out *Varyings) mgl32.Vec4 {
			out[0], out[1] = in[2], in[3]
			return mgl32.Vec4{in[0], in[1], depth, 1}
		},
		Fragment: func(_ *Varyings, _ Sampler, out *[MaxColorTargets]mgl32.Vec4) bool {
			for i := range colors {
				out[i] = colors[i]
			}
			return true
		},
	}
}

func newTestRasterizer(t *testing.T, workers int) *Rasterizer {
	t.Helper()
	r := NewRasterizer(workers)
	t.Cleanup(r.Release)
	return r
}

func TestRasterizerCoversEveryPixel(t *testing.T) {
	r := newTestRasterizer(t, 2)
	img := NewImage(37, 70)
	fb := Framebuffer{Color: []*Image{img}}

	r.Draw(fb, State{Topology: wgpu.PrimitiveTopologyTriangleStrip}, flatStage(0.5, mgl32.Vec4{1, 0.5, 0.25, 1}), nil, fullscreenStrip, 4)

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			require.Equal(t, mgl32.Vec4{1, 0.5, 0.25, 1}, img.At(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestRasterizerWritesMultipleTargets(t *testing.T) {
	r := newTestRasterizer(t, 1)
	a, b := NewImage(8, 8), NewImage(8, 8)
	fb := Framebuffer{Color: []*Image{a, b}}

	r.Draw(fb, State{Topology: wgpu.PrimitiveTopologyTriangleStrip}, flatStage(0.5, mgl32.Vec4{1, 0, 0, 1}, mgl32.Vec4{0, 1, 0, 1}), nil, fullscreenStrip, 4)

	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, a.At(3, 3))
	assert.Equal(t, mgl32.Vec4{0, 1, 0, 1}, b.At(3, 3))
}

func TestRasterizerDepthTest(t *testing.T) {
	r := newTestRasterizer(t, 1)
	img := NewImage(4, 4)
	depth := NewDepthBuffer(4, 4)
	fb := Framebuffer{Color: []*Image{img}, Depth: depth}
	st := State{Topology: wgpu.PrimitiveTopologyTriangleStrip, DepthTest: true, DepthWrite: true}

	r.Draw(fb, st, flatStage(0.25, mgl32.Vec4{1, 0, 0, 1}), nil, fullscreenStrip, 4)
	r.Draw(fb, st, flatStage(0.75, mgl32.Vec4{0, 0, 1, 1}), nil, fullscreenStrip, 4)

	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, img.At(2, 2), "farther draw is rejected")
	assert.InDelta(t, 0.25, depth.Z[5], 1e-6)
}

func TestRasterizerFarPlaneNeedsLessEqual(t *testing.T) {
	r := newTestRasterizer(t, 1)
	img := NewImage(4, 4)
	fb := Framebuffer{Color: []*Image{img}, Depth: NewDepthBuffer(4, 4)}
	st := State{Topology: wgpu.PrimitiveTopologyTriangleStrip, DepthTest: true}

	r.Draw(fb, st, flatStage(1, mgl32.Vec4{1, 0, 0, 1}), nil, fullscreenStrip, 4)
	assert.Equal(t, mgl32.Vec4{}, img.At(2, 2), "Less rejects the cleared far plane")

	st.DepthCompare = wgpu.CompareFunctionLessEqual
	r.Draw(fb, st, flatStage(1, mgl32.Vec4{0, 1, 0, 1}), nil, fullscreenStrip, 4)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			require.Equal(t, mgl32.Vec4{0, 1, 0, 1}, img.At(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestDepthPasses(t *testing.T) {
	tests := []struct {
		compare wgpu.CompareFunction
		z       float32
		want    bool
	}{
		{wgpu.CompareFunctionUndefined, 0.5, true},
		{wgpu.CompareFunctionUndefined, 1, false},
		{wgpu.CompareFunctionLess, 1, false},
		{wgpu.CompareFunctionLessEqual, 1, true},
		{wgpu.CompareFunctionLessEqual, 1.5, false},
		{wgpu.CompareFunctionGreater, 1.5, true},
		{wgpu.CompareFunctionEqual, 1, true},
		{wgpu.CompareFunctionNever, 0, false},
		{wgpu.CompareFunctionAlways, 2, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, depthPasses(tt.compare, tt.z, 1), "%v z=%v", tt.compare, tt.z)
	}
}

func TestRasterizerBlend(t *testing.T) {
	r := newTestRasterizer(t, 1)
	img := NewImage(2, 2)
	img.Fill(mgl32.Vec4{0, 0, 1, 1})
	fb := Framebuffer{Color: []*Image{img}}

	r.Draw(fb, State{Topology: wgpu.PrimitiveTopologyTriangleStrip, Blend: true}, flatStage(0.5, mgl32.Vec4{1, 0, 0, 0.5}), nil, fullscreenStrip, 4)

	got := img.At(0, 0)
	assert.InDelta(t, 0.5, got[0], 1e-6)
	assert.InDelta(t, 0.5, got[2], 1e-6)
	assert.InDelta(t, 1, got[3], 1e-6)
}

func TestRasterizerBackFaceCulling(t *testing.T) {
	r := newTestRasterizer(t, 1)
	img := NewImage(4, 4)
	fb := Framebuffer{Color: []*Image{img}}

	// Clockwise in NDC.
	cw := []float32{
		-1, -1, 0, 0,
		-1, 3, 0, 0,
		3, -1, 0, 0,
	}
	st := State{Topology: wgpu.PrimitiveTopologyTriangleList, CullMode: wgpu.CullModeBack, FrontFace: wgpu.FrontFaceCCW}
	r.Draw(fb, st, flatStage(0.5, mgl32.Vec4{1, 1, 1, 1}), nil, cw, 4)
	assert.Equal(t, mgl32.Vec4{}, img.At(1, 1))

	st.FrontFace = wgpu.FrontFaceCW
	r.Draw(fb, st, flatStage(0.5, mgl32.Vec4{1, 1, 1, 1}), nil, cw, 4)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, img.At(1, 1))
}

func TestRasterizerInterpolatesVaryings(t *testing.T) {
	r := newTestRasterizer(t, 1)
	img := NewImage(4, 4)
	fb := Framebuffer{Color: []*Image{img}}

	stage := flatStage(0.5)
	stage.Fragment = func(in *Varyings, _ Sampler, out *[MaxColorTargets]mgl32.Vec4) bool {
		out[0] = mgl32.Vec4{in[0], in[1], 0, 1}
		return true
	}
	r.Draw(fb, State{Topology: wgpu.PrimitiveTopologyTriangleStrip}, stage, nil, fullscreenStrip, 4)

	// Pixel (0, 0) is the top left, where the strip carries uv (0, 1).
	got := img.At(0, 0)
	assert.InDelta(t, 0.125, got[0], 1e-5)
	assert.InDelta(t, 0.875, got[1], 1e-5)
}

func TestRasterizerDiscard(t *testing.T) {
	r := newTestRasterizer(t, 1)
	img := NewImage(2, 2)
	fb := Framebuffer{Color: []*Image{img}}

	stage := flatStage(0.5, mgl32.Vec4{1, 1, 1, 1})
	stage.Fragment = func(*Varyings, Sampler, *[MaxColorTargets]mgl32.Vec4) bool { return false }
	r.Draw(fb, State{Topology: wgpu.PrimitiveTopologyTriangleStrip}, stage, nil, fullscreenStrip, 4)

	assert.Equal(t, mgl32.Vec4{}, img.At(1, 1))
}

func TestRasterizerReleaseStopsWorkers(t *testing.T) {
	before := runtime.NumGoroutine()
	var rasterizers []*Rasterizer
	for range 5 {
		r := NewRasterizer(4)
		assert.Equal(t, 4, r.Workers())
		rasterizers = append(rasterizers, r)
	}
	img := NewImage(8, 70)
	rasterizers[0].Draw(Framebuffer{Color: []*Image{img}}, State{Topology: wgpu.PrimitiveTopologyTriangleStrip}, flatStage(0.5, mgl32.Vec4{1, 1, 1, 1}), nil, fullscreenStrip, 4)

	for _, r := range rasterizers {
		r.Release()
		r.Release()
		assert.Zero(t, r.Workers())
	}
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRasterizerDrawAfterReleaseIsNoop(t *testing.T) {
	r := NewRasterizer(2)
	r.Release()
	img := NewImage(4, 4)
	assert.NotPanics(t, func() {
		r.Draw(Framebuffer{Color: []*Image{img}}, State{Topology: wgpu.PrimitiveTopologyTriangleStrip}, flatStage(0.5, mgl32.Vec4{1, 1, 1, 1}), nil, fullscreenStrip, 4)
	})
	assert.Equal(t, mgl32.Vec4{}, img.At(1, 1))
}
