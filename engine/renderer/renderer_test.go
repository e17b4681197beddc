package renderer

import (
	"runtime"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quadVertices = []float32{
	-1, 1, 0, 1,
	-1, -1, 0, 0,
	1, 1, 1, 1,
	1, -1, 1, 0,
}

// copyProgram writes the "color" uniform, plus texture unit 0 when "sample" is set, to every target.
var copyProgram = software.ProgramFunc(func(u software.Uniforms) software.Stage {
	color := u.Vec4("color")
	sample := u.Int("sample") != 0
	return software.Stage{
		Varyings: 2,
		Vertex: func(in []float32, out *software.Varyings) mgl32.Vec4 {
			out[0], out[1] = in[2], 1-in[3]
			return mgl32.Vec4{in[0], in[1], 0, 1}
		},
		Fragment: func(in *software.Varyings, tex software.Sampler, out *[software.MaxColorTargets]mgl32.Vec4) bool {
			c := color
			if sample {
				c = c.Add(tex.Sample(0, in[0], in[1]))
			}
			out[0], out[1] = c, c.Mul(2)
			return true
		},
	}
})

func newTestRenderer(t *testing.T) Renderer {
	t.Helper()
	r, err := NewRenderer(BackendTypeSoftware, nil, WithSize(16, 8), WithSoftwareWorkers(2))
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func newCopyPipeline(t *testing.T, r Renderer) pipeline.Pipeline {
	t.Helper()
	p := pipeline.NewPipeline("copy",
		pipeline.WithProgram(copyProgram),
		pipeline.WithVertexLayout(pipeline.PositionUV),
		pipeline.WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithDepthWriteEnabled(false),
	)
	require.NoError(t, r.RegisterPipeline(p))
	return p
}

func TestNewRendererSoftware(t *testing.T) {
	r := newTestRenderer(t)
	assert.Equal(t, BackendTypeSoftware, r.BackendType())
	assert.Equal(t, 16, r.Width())
	assert.Equal(t, 8, r.Height())
	_, ok := r.Backend().(Readback)
	assert.True(t, ok)
}

func TestNewRendererWGPUNeedsSurface(t *testing.T) {
	_, err := NewRenderer(BackendTypeWGPU, nil)
	assert.Error(t, err)
}

func TestRegisterPipelineRequiresProgram(t *testing.T) {
	r := newTestRenderer(t)
	err := r.RegisterPipeline(pipeline.NewPipeline("empty"))
	assert.Error(t, err)
	assert.Nil(t, r.Pipeline("empty"))
}

func TestRegisterPipelineCaches(t *testing.T) {
	r := newTestRenderer(t)
	p := newCopyPipeline(t, r)
	assert.Same(t, p, r.Pipeline("copy"))
	assert.Len(t, r.Pipelines(), 1)
}

func TestCreateTargetIncomplete(t *testing.T) {
	r := newTestRenderer(t)
	desc := hdrDescriptor()
	desc.Color = nil

	target, err := r.CreateTarget(desc)
	require.ErrorIs(t, err, ErrIncompleteTarget)
	require.NotNil(t, target)
	assert.ErrorIs(t, target.Status(), ErrIncompleteTarget)
	assert.Zero(t, target.ColorCount())
	assert.Nil(t, target.Color(0))
}

func TestCreateVertexBufferValidatesStride(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.CreateVertexBuffer("bad", pipeline.PositionUV, []float32{1, 2, 3})
	assert.Error(t, err)

	buf, err := r.CreateVertexBuffer("quad", pipeline.PositionUV, quadVertices)
	require.NoError(t, err)
	assert.Equal(t, 4, buf.VertexCount())
	buf.Release()
	assert.Zero(t, buf.VertexCount())
}

func TestDrawWithoutPipeline(t *testing.T) {
	r := newTestRenderer(t)
	buf, err := r.CreateVertexBuffer("quad", pipeline.PositionUV, quadVertices)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Draw(buf), ErrNoPipeline)
}

func TestDrawReleasedBuffer(t *testing.T) {
	r := newTestRenderer(t)
	r.UsePipeline(newCopyPipeline(t, r))
	buf, err := r.CreateVertexBuffer("quad", pipeline.PositionUV, quadVertices)
	require.NoError(t, err)
	buf.Release()
	assert.ErrorIs(t, r.Draw(buf), ErrReleased)
}

func TestDrawToTargetWritesAllAttachments(t *testing.T) {
	r := newTestRenderer(t)
	p := newCopyPipeline(t, r)
	p.SetVec4("color", mgl32.Vec4{0.5, 0.25, 0, 1})
	buf, err := r.CreateVertexBuffer("quad", pipeline.PositionUV, quadVertices)
	require.NoError(t, err)

	desc := hdrDescriptor()
	desc.Width, desc.Height = 16, 8
	target, err := r.CreateTarget(desc)
	require.NoError(t, err)
	require.Equal(t, 2, target.ColorCount())
	assert.True(t, target.HasDepth())

	r.BindTarget(target)
	r.Clear(common.Color{0, 0, 0, 1})
	r.UsePipeline(p)
	require.NoError(t, r.Draw(buf))

	rb := r.Backend().(Readback)
	c0, err := rb.ReadTexture(target.Color(0))
	require.NoError(t, err)
	c1, err := rb.ReadTexture(target.Color(1))
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{0.5, 0.25, 0, 1}, c0.At(5, 5))
	assert.Equal(t, mgl32.Vec4{1, 0.5, 0, 2}, c1.At(5, 5))
}

func TestClearZeroesLaterAttachments(t *testing.T) {
	r := newTestRenderer(t)
	desc := hdrDescriptor()
	desc.Width, desc.Height = 16, 8
	target, err := r.CreateTarget(desc)
	require.NoError(t, err)

	r.BindTarget(target)
	r.Clear(common.Color{0.3, 0.3, 0.3, 1})

	rb := r.Backend().(Readback)
	c0, err := rb.ReadTexture(target.Color(0))
	require.NoError(t, err)
	c1, err := rb.ReadTexture(target.Color(1))
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{0.3, 0.3, 0.3, 1}, c0.At(2, 2))
	assert.Equal(t, mgl32.Vec4{}, c1.At(2, 2))
}

func TestSampleTargetToScreen(t *testing.T) {
	r := newTestRenderer(t)
	p := newCopyPipeline(t, r)
	buf, err := r.CreateVertexBuffer("quad", pipeline.PositionUV, quadVertices)
	require.NoError(t, err)

	desc := hdrDescriptor()
	desc.Width, desc.Height = 16, 8
	desc.Depth = nil
	target, err := r.CreateTarget(desc)
	require.NoError(t, err)
	r.BindTarget(target)
	r.Clear(common.Color{0.2, 0.4, 0.6, 1})

	r.BindTarget(nil)
	r.Clear(common.Color{})
	r.BindTexture(0, target.Color(0))
	p.SetInt("sample", 1)
	p.SetVec4("color", mgl32.Vec4{})
	r.UsePipeline(p)
	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Draw(buf))
	r.EndFrame()
	r.Present()

	screen := r.Backend().(Readback).ReadScreen()
	got := screen.At(3, 3)
	assert.InDelta(t, 0.2, got[0], 1e-6)
	assert.InDelta(t, 0.6, got[2], 1e-6)
}

func TestBindReleasedTargetFallsBackToScreen(t *testing.T) {
	r := newTestRenderer(t)
	p := newCopyPipeline(t, r)
	p.SetVec4("color", mgl32.Vec4{1, 1, 1, 1})
	buf, err := r.CreateVertexBuffer("quad", pipeline.PositionUV, quadVertices)
	require.NoError(t, err)

	desc := hdrDescriptor()
	desc.Width, desc.Height = 16, 8
	target, err := r.CreateTarget(desc)
	require.NoError(t, err)
	target.Release()
	assert.ErrorIs(t, target.Status(), ErrReleased)

	r.BindTarget(target)
	r.UsePipeline(p)
	require.NoError(t, r.Draw(buf))
	r.Present()

	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, r.Backend().(Readback).ReadScreen().At(0, 0))
	_, err = r.Backend().(Readback).ReadTexture(target.Color(0))
	assert.ErrorIs(t, err, ErrReleased)
}

func TestReleaseStopsSoftwareWorkers(t *testing.T) {
	before := runtime.NumGoroutine()
	for range 5 {
		r, err := NewRenderer(BackendTypeSoftware, nil, WithSize(4, 4), WithSoftwareWorkers(4))
		require.NoError(t, err)
		r.Release()
	}
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBindTextureOutOfRangeIgnored(t *testing.T) {
	r := newTestRenderer(t)
	assert.NotPanics(t, func() {
		r.BindTexture(-1, nil)
		r.BindTexture(MaxTextureUnits, nil)
	})
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := newTestRenderer(t)
	r.Release()
	r.Release()

	assert.ErrorIs(t, r.RegisterPipeline(pipeline.NewPipeline("late", pipeline.WithProgram(copyProgram))), ErrReleased)
	assert.ErrorIs(t, r.BeginFrame(), ErrReleased)
	_, err := r.CreateTarget(hdrDescriptor())
	assert.ErrorIs(t, err, ErrReleased)
}

func TestResizeIgnoresInvalidSize(t *testing.T) {
	r := newTestRenderer(t)
	r.Resize(0, 10)
	assert.Equal(t, 16, r.Width())
	r.Resize(32, 24)
	assert.Equal(t, 32, r.Width())
	assert.Equal(t, 24, r.Height())
	assert.Equal(t, 32, r.Backend().(Readback).ReadScreen().Width)
}
