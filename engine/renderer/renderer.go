package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rs/zerolog"
)

// Surface is the window a GPU backend presents to. window.Window satisfies it.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	current       pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
	logger      zerolog.Logger

	width, height int
	released      bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	softwareWorkers      int
}

// Renderer defines the interface for the rendering system.
//
// It is an immediate-mode API over a backend: pick a pipeline, bind a target and textures,
// draw. The Renderer keeps the pipeline cache, validates targets before they reach the
// backend, and keeps draws on released or incomplete resources from reaching the device.
type Renderer interface {
	// Backend returns the active backend. Callers may type-assert it to Readback.
	//
	// Returns:
	//   - RendererBackend: the backend
	Backend() RendererBackend

	// BackendType returns which backend is active.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	BackendType() RendererBackendType

	// Width returns the width of the default framebuffer in pixels.
	Width() int

	// Height returns the height of the default framebuffer in pixels.
	Height() int

	// Resize configures the default framebuffer for a new size.
	// This should be called when re-sizing the window.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A call to Resize applies it.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// RegisterPipeline compiles p on the backend and caches it by PipelineKey.
	// Registering a key again replaces the cached pipeline.
	//
	// Parameters:
	//   - p: the pipeline to register
	//
	// Returns:
	//   - error: an error if compilation fails
	RegisterPipeline(p pipeline.Pipeline) error

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves the entire cache of Pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// UsePipeline selects the pipeline for subsequent draws.
	//
	// Parameters:
	//   - p: a registered pipeline
	UsePipeline(p pipeline.Pipeline)

	// CreateTarget validates desc and allocates a render target.
	// An incomplete descriptor still yields a target, whose Status reports the problem, together
	// with the same ErrIncompleteTarget-wrapped error. Such a target is never rendered into.
	//
	// Parameters:
	//   - desc: the target descriptor
	//
	// Returns:
	//   - RenderTarget: the target
	//   - error: ErrIncompleteTarget-wrapped when desc is incomplete, or an allocation error
	CreateTarget(desc TargetDescriptor) (RenderTarget, error)

	// CreateVertexBuffer uploads interleaved vertex data.
	//
	// Parameters:
	//   - label: debug label
	//   - layout: attribute layout of data
	//   - data: the vertex data, a whole number of vertices
	//
	// Returns:
	//   - VertexBuffer: the buffer
	//   - error: an error if data does not match the layout or the upload fails
	CreateVertexBuffer(label string, layout pipeline.VertexLayout, data []float32) (VertexBuffer, error)

	// BindTarget selects the framebuffer for subsequent Clear and Draw calls.
	// nil, released and incomplete targets all select the screen.
	//
	// Parameters:
	//   - t: the target, or nil for the screen
	BindTarget(t RenderTarget)

	// Clear clears the bound framebuffer's depth and its color attachments. Attachment 0
	// takes color. Later attachments, such as the bright pass, are cleared to zero.
	//
	// Parameters:
	//   - color: the clear color
	Clear(color common.Color)

	// BindTexture binds tex to a texture unit for the following draws.
	//
	// Parameters:
	//   - unit: the texture unit, 0 to MaxTextureUnits-1
	//   - tex: the texture, or nil to unbind
	BindTexture(unit int, tex Texture)

	// Draw draws buf with the pipeline selected by UsePipeline.
	//
	// Parameters:
	//   - buf: the vertex buffer
	//
	// Returns:
	//   - error: ErrNoPipeline, ErrReleased, or a backend error
	Draw(buf VertexBuffer) error

	// BeginFrame prepares the default framebuffer.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// EndFrame submits the frame's work.
	EndFrame()

	// Present presents the default framebuffer.
	Present()

	// Release frees the backend. Later calls are no-ops.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type.
// The wgpu backend presents to surface; the software backend ignores surface and
// takes its size from surface when set, or WithSize otherwise.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - surface: the window to present to, may be nil for the software backend
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if the backend cannot be created
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		logger:        zerolog.Nop(),
		width:         800,
		height:        600,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	if surface != nil {
		r.width, r.height = surface.Width(), surface.Height()
	}

	switch backendType {
	case BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend(r.softwareWorkers)
	default:
		if surface == nil {
			return nil, fmt.Errorf("renderer: the %s backend needs a surface", backendType)
		}
		b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.logger)
		if err != nil {
			return nil, err
		}
		r.backend = b
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.ConfigureSurface(r.width, r.height)
	r.logger.Info().Str("backend", backendType.String()).Int("width", r.width).Int("height", r.height).Msg("renderer created")
	return r, nil
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

func (r *renderer) Height() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.height
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released || width <= 0 || height <= 0 {
		return
	}
	r.width, r.height = width, height
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) RegisterPipeline(p pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	if err := r.backend.RegisterPipeline(p); err != nil {
		return fmt.Errorf("renderer: failed to register pipeline %q: %w", p.PipelineKey(), err)
	}
	r.pipelineCache[p.PipelineKey()] = p
	return nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache
}

func (r *renderer) UsePipeline(p pipeline.Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = p
}

func (r *renderer) CreateTarget(desc TargetDescriptor) (RenderTarget, error) {
	if err := CheckComplete(desc); err != nil {
		r.logger.Error().Err(err).Str("target", desc.Label).Msg("framebuffer not complete")
		return &incompleteTarget{desc: desc, status: err}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil, ErrReleased
	}
	t, err := r.backend.CreateTarget(desc)
	if err != nil {
		return nil, fmt.Errorf("renderer: failed to create target %q: %w", desc.Label, err)
	}
	return t, nil
}

func (r *renderer) CreateVertexBuffer(label string, layout pipeline.VertexLayout, data []float32) (VertexBuffer, error) {
	stride := layout.Stride()
	if stride == 0 || len(data) == 0 || len(data)%stride != 0 {
		return nil, fmt.Errorf("renderer: vertex buffer %q has %d floats, not a multiple of stride %d", label, len(data), stride)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil, ErrReleased
	}
	return r.backend.CreateVertexBuffer(label, layout, data)
}

func (r *renderer) BindTarget(t RenderTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t != nil && t.Status() != nil {
		t = nil
	}
	r.backend.BindTarget(t)
}

func (r *renderer) Clear(color common.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Clear(color)
}

func (r *renderer) BindTexture(unit int, tex Texture) {
	if unit < 0 || unit >= MaxTextureUnits {
		r.logger.Warn().Int("unit", unit).Msg("texture unit out of range")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.BindTexture(unit, tex)
}

func (r *renderer) Draw(buf VertexBuffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	if r.current == nil {
		return ErrNoPipeline
	}
	if buf == nil || buf.VertexCount() == 0 {
		return fmt.Errorf("renderer: draw with %w vertex buffer", ErrReleased)
	}
	return r.backend.Draw(r.current, buf)
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	return r.backend.BeginFrame()
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.released {
		r.backend.EndFrame()
	}
}

func (r *renderer) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.released {
		r.backend.Present()
	}
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.current = nil
	r.backend.Release()
}

// incompleteTarget stands in for a target whose descriptor failed CheckComplete.
// It owns no attachments.
type incompleteTarget struct {
	desc   TargetDescriptor
	status error
}

func (t *incompleteTarget) Label() string     { return t.desc.Label }
func (t *incompleteTarget) Width() int        { return t.desc.Width }
func (t *incompleteTarget) Height() int       { return t.desc.Height }
func (t *incompleteTarget) ColorCount() int   { return 0 }
func (t *incompleteTarget) Color(int) Texture { return nil }
func (t *incompleteTarget) HasDepth() bool    { return false }
func (t *incompleteTarget) Status() error     { return t.status }
func (t *incompleteTarget) Release()          {}
