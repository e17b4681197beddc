package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

const (
	// uniformAlignment is the minimum dynamic uniform buffer offset alignment WebGPU guarantees.
	uniformAlignment = 256

	// uniformRingSlots is the number of draws a pipeline can record before its uniform ring is flushed.
	uniformRingSlots = 256
)

type wgpuTexture struct {
	id       uint64
	label    string
	width    int
	height   int
	format   wgpu.TextureFormat
	texture  *wgpu.Texture
	view     *wgpu.TextureView
	sampler  *wgpu.Sampler
	released bool
}

func (t *wgpuTexture) Label() string              { return t.label }
func (t *wgpuTexture) Width() int                 { return t.width }
func (t *wgpuTexture) Height() int                { return t.height }
func (t *wgpuTexture) Format() wgpu.TextureFormat { return t.format }

func (t *wgpuTexture) release() {
	if t.released {
		return
	}
	t.released = true
	if t.sampler != nil {
		t.sampler.Release()
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

type wgpuTarget struct {
	backend   *wgpuRendererBackendImpl
	label     string
	width     int
	height    int
	colors    []*wgpuTexture
	depth     *wgpu.Texture
	depthView *wgpu.TextureView
	depthFmt  wgpu.TextureFormat
	released  bool
}

func (t *wgpuTarget) Label() string   { return t.label }
func (t *wgpuTarget) Width() int      { return t.width }
func (t *wgpuTarget) Height() int     { return t.height }
func (t *wgpuTarget) ColorCount() int { return len(t.colors) }
func (t *wgpuTarget) HasDepth() bool  { return t.depthView != nil }

func (t *wgpuTarget) Color(i int) Texture {
	if i < 0 || i >= len(t.colors) {
		return nil
	}
	return t.colors[i]
}

func (t *wgpuTarget) Status() error {
	if t.released {
		return ErrReleased
	}
	return nil
}

func (t *wgpuTarget) Release() {
	if t.released {
		return
	}
	t.backend.releaseTarget(t)
}

// signature identifies the attachment formats a render pipeline variant must match.
func (t *wgpuTarget) signature() targetSignature {
	sig := targetSignature{depth: t.depthFmt, hasDepth: t.depthView != nil}
	for _, c := range t.colors {
		sig.colors = append(sig.colors, c.format)
	}
	return sig
}

type wgpuVertexBuffer struct {
	label    string
	layout   pipeline.VertexLayout
	count    int
	buffer   *wgpu.Buffer
	released bool
}

func (b *wgpuVertexBuffer) Label() string                 { return b.label }
func (b *wgpuVertexBuffer) Layout() pipeline.VertexLayout { return b.layout }

func (b *wgpuVertexBuffer) VertexCount() int {
	if b.released {
		return 0
	}
	return b.count
}

func (b *wgpuVertexBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.buffer.Release()
}

type targetSignature struct {
	colors   []wgpu.TextureFormat
	depth    wgpu.TextureFormat
	hasDepth bool
}

func (s targetSignature) key() string {
	var sb strings.Builder
	for _, c := range s.colors {
		fmt.Fprintf(&sb, "%d,", c)
	}
	if s.hasDepth {
		fmt.Fprintf(&sb, "d%d", s.depth)
	}
	return sb.String()
}

// uniformField is a reflected uniform member in upload order.
type uniformField struct {
	name   string
	kind   string
	offset int
}

// compiledPipeline is the wgpu state attached to a pipeline.Pipeline.
type compiledPipeline struct {
	revision   int
	vs, fs     *wgpu.ShaderModule
	vsEntry    string
	fsEntry    string
	bindLayout *wgpu.BindGroupLayout
	layout     *wgpu.PipelineLayout
	variants   map[string]*wgpu.RenderPipeline

	// Uniforms are written into a ring of 256-byte aligned slots and selected per draw with a dynamic offset.
	fields    []uniformField
	blockSize uint64
	slotSize  uint64
	ring      *wgpu.Buffer
	ringNext  int
	staging   []byte

	// units maps texture unit to whether the shader samples it.
	units      [MaxTextureUnits]bool
	bindGroups map[[MaxTextureUnits]uint64]*wgpu.BindGroup
}

func (c *compiledPipeline) dropBindGroups() {
	for k, bg := range c.bindGroups {
		bg.Release()
		delete(c.bindGroups, k)
	}
}

func (c *compiledPipeline) release() {
	c.dropBindGroups()
	for _, v := range c.variants {
		v.Release()
	}
	if c.ring != nil {
		c.ring.Release()
	}
	c.layout.Release()
	c.bindLayout.Release()
	c.vs.Release()
	c.fs.Release()
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	logger zerolog.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat    wgpu.TextureFormat
	presentMode      wgpu.PresentMode
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	fallback *wgpuTexture
	nextID   uint64

	compiled []*compiledPipeline
	targets  map[*wgpuTarget]struct{}

	// Frame state. The encoder spans the frame; passes open lazily on the first draw
	// after a target or clear change.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	bound        *wgpuTarget
	pendingClear *common.Color
	units        [MaxTextureUnits]*wgpuTexture
	released     bool
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, logger zerolog.Logger) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		logger:      logger,
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		targets:     make(map[*wgpuTarget]struct{}),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: failed to request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	// Empty texture units sample this 1x1 texture, which WebGPU zero-initializes to black.
	b.fallback, err = b.newTexture("Fallback Texture", 1, 1, wgpu.TextureFormatRGBA16Float, common.ClampedLinearSampler)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	// The composite pass applies gamma itself, so prefer a linear surface format.
	for _, f := range capabilities.Formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			b.surfaceFormat = f
			break
		}
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to create surface depth texture")
		b.depthTexture, b.depthTextureView = nil, nil
		return
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to create surface depth view")
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) RegisterPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := &compiledPipeline{
		revision:   p.Revision(),
		vsEntry:    vertexShader.EntryPoint(),
		fsEntry:    fragmentShader.EntryPoint(),
		variants:   make(map[string]*wgpu.RenderPipeline),
		bindGroups: make(map[[MaxTextureUnits]uint64]*wgpu.BindGroup),
	}

	var err error
	if c.vs, err = b.device.CreateShaderModule(vertexShader.Module()); err != nil {
		return fmt.Errorf("vertex shader %s: %w", vertexShader.Key(), err)
	}
	if c.fs, err = b.device.CreateShaderModule(fragmentShader.Module()); err != nil {
		c.vs.Release()
		return fmt.Errorf("fragment shader %s: %w", fragmentShader.Key(), err)
	}

	entries := []wgpu.BindGroupLayoutEntry{}
	if block := fragmentShader.Uniforms(); block != nil {
		c.blockSize = block.Size
		c.slotSize = uint64(roundUp(int(block.Size), uniformAlignment))
		c.staging = make([]byte, block.Size)
		for name, f := range block.Fields {
			c.fields = append(c.fields, uniformField{name: name, kind: f.Type, offset: int(f.Offset)})
		}
		sort.Slice(c.fields, func(i, j int) bool { return c.fields[i].offset < c.fields[j].offset })

		entry := wgpu.BindGroupLayoutEntry{
			Binding:    block.Binding,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		}
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.HasDynamicOffset = true
		entry.Buffer.MinBindingSize = block.Size
		entries = append(entries, entry)

		c.ring, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: p.PipelineKey() + " Uniform Ring",
			Size:  c.slotSize * uniformRingSlots,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
	}
	for _, tb := range fragmentShader.TextureBindings() {
		unit := int(tb.Binding-1) / 2
		if unit < 0 || unit >= MaxTextureUnits {
			return fmt.Errorf("binding %d (%s) is outside the texture unit range", tb.Binding, tb.Name)
		}
		c.units[unit] = true
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    tb.Binding,
			Visibility: wgpu.ShaderStageFragment,
		}
		if tb.Sampler {
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		} else {
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		}
		entries = append(entries, entry)
	}

	if c.bindLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   p.PipelineKey() + " Bind Group Layout",
		Entries: entries,
	}); err != nil {
		return fmt.Errorf("failed to create bind group layout: %w", err)
	}
	if c.layout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: []*wgpu.BindGroupLayout{c.bindLayout},
	}); err != nil {
		return err
	}

	// Compile the surface variant eagerly so shader errors surface at registration.
	if _, err := b.variant(p, c, b.screenSignature()); err != nil {
		c.release()
		return err
	}

	if old, ok := p.BackendState().(*compiledPipeline); ok {
		b.forget(old)
		old.release()
	}
	p.SetBackendState(c)
	b.compiled = append(b.compiled, c)
	return nil
}

func (b *wgpuRendererBackendImpl) forget(c *compiledPipeline) {
	for i, existing := range b.compiled {
		if existing == c {
			b.compiled = append(b.compiled[:i], b.compiled[i+1:]...)
			return
		}
	}
}

func (b *wgpuRendererBackendImpl) screenSignature() targetSignature {
	return targetSignature{
		colors:   []wgpu.TextureFormat{b.surfaceFormat},
		depth:    wgpu.TextureFormatDepth24Plus,
		hasDepth: true,
	}
}

// variant returns the render pipeline of p compiled for the attachment formats in sig.
func (b *wgpuRendererBackendImpl) variant(p pipeline.Pipeline, c *compiledPipeline, sig targetSignature) (*wgpu.RenderPipeline, error) {
	key := sig.key()
	if rp, ok := c.variants[key]; ok {
		return rp, nil
	}

	targets := make([]wgpu.ColorTargetState, len(sig.colors))
	for i, f := range sig.colors {
		targets[i] = wgpu.ColorTargetState{
			Format:    f,
			WriteMask: p.WriteMask(),
		}
		if p.BlendEnabled() {
			targets[i].Blend = p.BlendState()
		}
	}

	var depthStencil *wgpu.DepthStencilState
	if sig.hasDepth {
		depthCompare := p.DepthCompare()
		if !p.DepthTestEnabled() {
			depthCompare = wgpu.CompareFunctionAlways
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:            sig.depth,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	rp, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: c.layout,
		Vertex: wgpu.VertexState{
			Module:     c.vs,
			EntryPoint: c.vsEntry,
			Buffers:    []wgpu.VertexBufferLayout{p.VertexLayout().WGPULayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     c.fs,
			EntryPoint: c.fsEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %q for targets %s: %w", p.PipelineKey(), key, err)
	}
	c.variants[key] = rp
	return rp, nil
}

func (b *wgpuRendererBackendImpl) newTexture(label string, width, height int, format wgpu.TextureFormat, s common.SamplerStagingData) (*wgpuTexture, error) {
	texture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, err
	}
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		texture.Release()
		return nil, err
	}
	b.nextID++
	return &wgpuTexture{
		id:      b.nextID,
		label:   label,
		width:   width,
		height:  height,
		format:  format,
		texture: texture,
		view:    view,
		sampler: samp,
	}, nil
}

func (b *wgpuRendererBackendImpl) CreateTarget(desc TargetDescriptor) (RenderTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := &wgpuTarget{
		backend: b,
		label:   desc.Label,
		width:   desc.Width,
		height:  desc.Height,
	}
	for i, c := range desc.Color {
		tex, err := b.newTexture(fmt.Sprintf("%s Color %d", desc.Label, i), desc.Width, desc.Height, c.Format, desc.Sampler)
		if err != nil {
			t.releaseLocked()
			return nil, err
		}
		t.colors = append(t.colors, tex)
	}
	if desc.Depth != nil {
		depth, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: desc.Label + " Depth",
			Size: wgpu.Extent3D{
				Width:              uint32(desc.Width),
				Height:             uint32(desc.Height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        desc.Depth.Format,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			t.releaseLocked()
			return nil, err
		}
		t.depth = depth
		t.depthFmt = desc.Depth.Format
		if t.depthView, err = depth.CreateView(nil); err != nil {
			t.releaseLocked()
			return nil, err
		}
	}
	b.targets[t] = struct{}{}
	return t, nil
}

func (t *wgpuTarget) releaseLocked() {
	t.released = true
	for _, c := range t.colors {
		c.release()
	}
	if t.depthView != nil {
		t.depthView.Release()
	}
	if t.depth != nil {
		t.depth.Release()
	}
}

// releaseTarget frees t. Cached bind groups may reference its views, so they are dropped too.
func (b *wgpuRendererBackendImpl) releaseTarget(t *wgpuTarget) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bound == t {
		b.endPass()
		b.bound = nil
	}
	for i, u := range b.units {
		for _, c := range t.colors {
			if u == c {
				b.units[i] = nil
			}
		}
	}
	for _, c := range b.compiled {
		c.dropBindGroups()
	}
	delete(b.targets, t)
	t.releaseLocked()
}

func (b *wgpuRendererBackendImpl) CreateVertexBuffer(label string, layout pipeline.VertexLayout, data []float32) (VertexBuffer, error) {
	bytes := common.SliceToBytes(data)
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Vertex Buffer",
		Size:             uint64(len(bytes)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, bytes)
	return &wgpuVertexBuffer{
		label:  label,
		layout: layout,
		count:  len(data) / layout.Stride(),
		buffer: buf,
	}, nil
}

func (b *wgpuRendererBackendImpl) BindTarget(t RenderTarget) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wt, _ := t.(*wgpuTarget)
	if wt != nil && wt.released {
		wt = nil
	}
	if wt == b.bound && b.framePass != nil {
		return
	}
	b.endPass()
	b.bound = wt
	b.pendingClear = nil
}

func (b *wgpuRendererBackendImpl) Clear(color common.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endPass()
	b.pendingClear = &color
}

func (b *wgpuRendererBackendImpl) BindTexture(unit int, tex Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wt, _ := tex.(*wgpuTexture)
	b.units[unit] = wt
}

func (b *wgpuRendererBackendImpl) ensureEncoder() error {
	if b.frameEncoder != nil {
		return nil
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.frameEncoder = encoder
	return nil
}

// ensurePass opens a render pass on the bound framebuffer, applying any pending clear.
func (b *wgpuRendererBackendImpl) ensurePass() error {
	if b.framePass != nil {
		return nil
	}
	if err := b.ensureEncoder(); err != nil {
		return err
	}

	loadOp := wgpu.LoadOpLoad
	clear := wgpu.Color{A: 1}
	if b.pendingClear != nil {
		loadOp = wgpu.LoadOpClear
		c := *b.pendingClear
		clear = wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
	}

	desc := &wgpu.RenderPassDescriptor{}
	var depthView *wgpu.TextureView
	if b.bound != nil {
		for i, c := range b.bound.colors {
			value := clear
			if i > 0 {
				value = wgpu.Color{}
			}
			desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
				View:       c.view,
				LoadOp:     loadOp,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: value,
			})
		}
		depthView = b.bound.depthView
	} else {
		if b.frameView == nil {
			return errors.New("no frame in progress, call BeginFrame before drawing to the screen")
		}
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{{
			View:       b.frameView,
			LoadOp:     loadOp,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clear,
		}}
		depthView = b.depthTextureView
	}
	if depthView != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     loadOp,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}

	b.framePass = b.frameEncoder.BeginRenderPass(desc)
	b.pendingClear = nil
	return nil
}

// endPass closes the open pass. A clear with no draws after it still runs as an empty pass.
func (b *wgpuRendererBackendImpl) endPass() {
	if b.framePass == nil && b.pendingClear != nil {
		if err := b.ensurePass(); err != nil {
			b.logger.Warn().Err(err).Msg("dropping clear")
			b.pendingClear = nil
			return
		}
	}
	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil
}

// submit ends the pass and submits everything recorded so far.
func (b *wgpuRendererBackendImpl) submit() {
	b.endPass()
	if b.frameEncoder == nil {
		return
	}
	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to finish command encoder")
		return
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
}

func (b *wgpuRendererBackendImpl) Draw(p pipeline.Pipeline, buf VertexBuffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := p.BackendState().(*compiledPipeline)
	if !ok {
		return fmt.Errorf("pipeline %q is not registered with the wgpu backend", p.PipelineKey())
	}
	vb, ok := buf.(*wgpuVertexBuffer)
	if !ok || vb.released {
		return fmt.Errorf("vertex buffer %q: %w", buf.Label(), ErrReleased)
	}

	sig := b.screenSignature()
	if b.bound != nil {
		sig = b.bound.signature()
	}
	rp, err := b.variant(p, c, sig)
	if err != nil {
		return err
	}

	var offsets []uint32
	if c.ring != nil {
		if c.ringNext == uniformRingSlots {
			b.submit()
			c.ringNext = 0
		}
		b.packUniforms(p, c)
		offset := uint64(c.ringNext) * c.slotSize
		b.queue.WriteBuffer(c.ring, offset, c.staging)
		offsets = []uint32{uint32(offset)}
		c.ringNext++
	}

	bg, err := b.bindGroup(p, c)
	if err != nil {
		return err
	}
	if err := b.ensurePass(); err != nil {
		return err
	}

	b.framePass.SetPipeline(rp)
	b.framePass.SetBindGroup(0, bg, offsets)
	b.framePass.SetVertexBuffer(0, vb.buffer, 0, wgpu.WholeSize)
	b.framePass.Draw(uint32(vb.count), 1, 0, 0)
	return nil
}

// packUniforms copies the pipeline's named values into the staging block at their reflected offsets.
func (b *wgpuRendererBackendImpl) packUniforms(p pipeline.Pipeline, c *compiledPipeline) {
	for _, f := range c.fields {
		v, ok := p.Uniform(f.name)
		switch {
		case !ok && strings.HasPrefix(f.kind, "mat4x4"):
			ident := mgl32.Ident4()
			common.PutFloat32s(c.staging, f.offset, ident[:]...)
		case !ok:
			continue
		case v.Type == pipeline.UniformTypeInt:
			common.PutInt32(c.staging, f.offset, v.I)
		case v.Type == pipeline.UniformTypeFloat:
			common.PutFloat32s(c.staging, f.offset, v.F[0])
		case v.Type == pipeline.UniformTypeVec3:
			common.PutFloat32s(c.staging, f.offset, v.F[:3]...)
		case v.Type == pipeline.UniformTypeVec4:
			common.PutFloat32s(c.staging, f.offset, v.F[:4]...)
		case v.Type == pipeline.UniformTypeMat4:
			common.PutFloat32s(c.staging, f.offset, v.F[:]...)
		}
	}
}

func (b *wgpuRendererBackendImpl) bindGroup(p pipeline.Pipeline, c *compiledPipeline) (*wgpu.BindGroup, error) {
	var key [MaxTextureUnits]uint64
	var textures [MaxTextureUnits]*wgpuTexture
	for unit, used := range c.units {
		if !used {
			continue
		}
		t := b.units[unit]
		if t == nil || t.released {
			t = b.fallback
		}
		textures[unit] = t
		key[unit] = t.id
	}
	if bg, ok := c.bindGroups[key]; ok {
		return bg, nil
	}

	var entries []wgpu.BindGroupEntry
	if c.ring != nil {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: 0,
			Buffer:  c.ring,
			Offset:  0,
			Size:    c.blockSize,
		})
	}
	for unit, t := range textures {
		if t == nil {
			continue
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: uint32(1 + 2*unit), TextureView: t.view},
			wgpu.BindGroupEntry{Binding: uint32(2 + 2*unit), Sampler: t.sampler},
		)
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.PipelineKey() + " Bind Group",
		Layout:  c.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	c.bindGroups[key] = bg
	return bg, nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	if err := b.ensureEncoder(); err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	for _, c := range b.compiled {
		c.ringNext = 0
	}
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submit()
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true

	if b.framePass != nil {
		b.framePass.End()
		b.framePass.Release()
		b.framePass = nil
	}
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameSurface.Release()
	}
	for t := range b.targets {
		t.releaseLocked()
	}
	for _, c := range b.compiled {
		c.release()
	}
	b.fallback.release()
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}

func roundUp(v, align int) int {
	return (v + align - 1) / align * align
}
