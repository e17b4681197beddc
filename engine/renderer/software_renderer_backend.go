package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

type softwareTexture struct {
	label    string
	format   wgpu.TextureFormat
	img      *software.Image
	released bool
}

func (t *softwareTexture) Label() string              { return t.label }
func (t *softwareTexture) Width() int                 { return t.img.Width }
func (t *softwareTexture) Height() int                { return t.img.Height }
func (t *softwareTexture) Format() wgpu.TextureFormat { return t.format }

type softwareTarget struct {
	label    string
	width    int
	height   int
	colors   []*softwareTexture
	depth    *software.DepthBuffer
	released bool
}

func (t *softwareTarget) Label() string   { return t.label }
func (t *softwareTarget) Width() int      { return t.width }
func (t *softwareTarget) Height() int     { return t.height }
func (t *softwareTarget) ColorCount() int { return len(t.colors) }
func (t *softwareTarget) HasDepth() bool  { return t.depth != nil }

func (t *softwareTarget) Color(i int) Texture {
	if i < 0 || i >= len(t.colors) {
		return nil
	}
	return t.colors[i]
}

func (t *softwareTarget) Status() error {
	if t.released {
		return ErrReleased
	}
	return nil
}

func (t *softwareTarget) Release() {
	t.released = true
	for _, c := range t.colors {
		c.released = true
	}
}

func (t *softwareTarget) framebuffer() software.Framebuffer {
	fb := software.Framebuffer{Depth: t.depth}
	for _, c := range t.colors {
		fb.Color = append(fb.Color, c.img)
	}
	return fb
}

type softwareVertexBuffer struct {
	label    string
	layout   pipeline.VertexLayout
	data     []float32
	released bool
}

func (b *softwareVertexBuffer) Label() string                 { return b.label }
func (b *softwareVertexBuffer) Layout() pipeline.VertexLayout { return b.layout }
func (b *softwareVertexBuffer) Release()                      { b.released = true }

func (b *softwareVertexBuffer) VertexCount() int {
	if b.released {
		return 0
	}
	return len(b.data) / b.layout.Stride()
}

// textureUnits implements software.Sampler over the units bound for one draw.
type textureUnits [MaxTextureUnits]*software.Image

func (u *textureUnits) Sample(unit int, s, t float32) mgl32.Vec4 {
	if unit < 0 || unit >= len(u) || u[unit] == nil {
		return mgl32.Vec4{}
	}
	return u[unit].Sample(s, t)
}

func (u *textureUnits) TexelSize(unit int) (float32, float32) {
	if unit < 0 || unit >= len(u) || u[unit] == nil {
		return 0, 0
	}
	return 1 / float32(u[unit].Width), 1 / float32(u[unit].Height)
}

// softwareRendererBackendImpl renders on the CPU. The default framebuffer is an
// RGBA image with a depth buffer; Present copies it to the presented image.
type softwareRendererBackendImpl struct {
	mu     *sync.Mutex
	raster *software.Rasterizer

	screen      *software.Image
	screenDepth *software.DepthBuffer
	presented   *software.Image

	bound *softwareTarget
	units [MaxTextureUnits]*softwareTexture
}

var (
	_ RendererBackend = &softwareRendererBackendImpl{}
	_ Readback        = &softwareRendererBackendImpl{}
)

func newSoftwareRendererBackend(workers int) *softwareRendererBackendImpl {
	return &softwareRendererBackendImpl{
		mu:     &sync.Mutex{},
		raster: software.NewRasterizer(workers),
	}
}

func (b *softwareRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.screen = software.NewImage(width, height)
	b.screenDepth = software.NewDepthBuffer(width, height)
	b.presented = software.NewImage(width, height)
}

func (b *softwareRendererBackendImpl) SetPresentMode(PresentMode) {}

func (b *softwareRendererBackendImpl) RegisterPipeline(p pipeline.Pipeline) error {
	if p.Program() == nil {
		return fmt.Errorf("pipeline %q has no software program", p.PipelineKey())
	}
	p.SetBackendState(p.Program())
	return nil
}

func (b *softwareRendererBackendImpl) CreateTarget(desc TargetDescriptor) (RenderTarget, error) {
	t := &softwareTarget{
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
	}
	for i, c := range desc.Color {
		img := software.NewImage(desc.Width, desc.Height)
		img.Sampler = common.SamplerStagingData{
			AddressModeU: common.Coalesce(desc.Sampler.AddressModeU, wgpu.AddressModeClampToEdge),
			AddressModeV: common.Coalesce(desc.Sampler.AddressModeV, wgpu.AddressModeClampToEdge),
			MagFilter:    common.Coalesce(desc.Sampler.MagFilter, wgpu.FilterModeLinear),
			MinFilter:    common.Coalesce(desc.Sampler.MinFilter, wgpu.FilterModeLinear),
		}
		t.colors = append(t.colors, &softwareTexture{
			label:  fmt.Sprintf("%s color %d", desc.Label, i),
			format: c.Format,
			img:    img,
		})
	}
	if desc.Depth != nil {
		t.depth = software.NewDepthBuffer(desc.Width, desc.Height)
	}
	return t, nil
}

func (b *softwareRendererBackendImpl) CreateVertexBuffer(label string, layout pipeline.VertexLayout, data []float32) (VertexBuffer, error) {
	return &softwareVertexBuffer{
		label:  label,
		layout: layout,
		data:   append([]float32(nil), data...),
	}, nil
}

func (b *softwareRendererBackendImpl) BindTarget(t RenderTarget) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := t.(*softwareTarget)
	if !ok || st.released {
		b.bound = nil
		return
	}
	b.bound = st
}

func (b *softwareRendererBackendImpl) framebuffer() software.Framebuffer {
	if b.bound != nil {
		return b.bound.framebuffer()
	}
	return software.Framebuffer{Color: []*software.Image{b.screen}, Depth: b.screenDepth}
}

func (b *softwareRendererBackendImpl) Clear(color common.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fb := b.framebuffer()
	for i, img := range fb.Color {
		if i == 0 {
			img.Fill(mgl32.Vec4(color))
		} else {
			img.Fill(mgl32.Vec4{})
		}
	}
	if fb.Depth != nil {
		fb.Depth.Clear()
	}
}

func (b *softwareRendererBackendImpl) BindTexture(unit int, tex Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _ := tex.(*softwareTexture)
	b.units[unit] = st
}

func (b *softwareRendererBackendImpl) Draw(p pipeline.Pipeline, buf VertexBuffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	program, ok := p.BackendState().(software.Program)
	if !ok {
		return fmt.Errorf("pipeline %q is not registered with the software backend", p.PipelineKey())
	}
	vb, ok := buf.(*softwareVertexBuffer)
	if !ok || vb.released {
		return fmt.Errorf("vertex buffer %q: %w", buf.Label(), ErrReleased)
	}

	var units textureUnits
	for i, t := range b.units {
		if t != nil && !t.released {
			units[i] = t.img
		}
	}

	b.raster.Draw(b.framebuffer(), software.State{
		Topology:   p.Topology(),
		CullMode:   p.CullMode(),
		FrontFace:  p.FrontFace(),
		DepthTest:  p.DepthTestEnabled(),
		DepthWrite: p.DepthWriteEnabled(),
		Blend:      p.BlendEnabled(),

		DepthCompare: p.DepthCompare(),
	}, program.Prepare(p), &units, vb.data, vb.layout.Stride())
	return nil
}

func (b *softwareRendererBackendImpl) BeginFrame() error {
	return nil
}

func (b *softwareRendererBackendImpl) EndFrame() {}

func (b *softwareRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.presented.Pix, b.screen.Pix)
}

func (b *softwareRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound = nil
	b.units = [MaxTextureUnits]*softwareTexture{}
	b.raster.Release()
}

func (b *softwareRendererBackendImpl) ReadTexture(tex Texture) (*software.Image, error) {
	st, ok := tex.(*softwareTexture)
	if !ok {
		return nil, fmt.Errorf("texture %T was not created by the software backend", tex)
	}
	if st.released {
		return nil, fmt.Errorf("texture %q: %w", st.label, ErrReleased)
	}
	return st.img, nil
}

func (b *softwareRendererBackendImpl) ReadScreen() *software.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.presented
}
