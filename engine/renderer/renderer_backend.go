package renderer

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU rasterizer. It needs no window and can be read back.
	BackendTypeSoftware
)

// String returns the name used in configuration files.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeSoftware:
		return "software"
	default:
		return "wgpu"
	}
}

// ParseBackendType maps a configuration name to a backend type. Unknown names select wgpu.
func ParseBackendType(name string) RendererBackendType {
	if name == "software" {
		return BackendTypeSoftware
	}
	return BackendTypeWGPU
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MaxTextureUnits is the number of texture units a pipeline can sample from.
const MaxTextureUnits = 4

// RendererBackend is implemented by every backend. The Renderer owns pipeline lookup and
// validation and forwards the immediate-mode calls here.
type RendererBackend interface {
	// ConfigureSurface resizes the default framebuffer.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. Backends without a surface ignore it.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// RegisterPipeline compiles p for this backend and attaches the result with SetBackendState.
	// Registering the same pipeline again rebuilds it, which is how shader reloads take effect.
	//
	// Parameters:
	//   - p: the pipeline to compile
	//
	// Returns:
	//   - error: an error if the pipeline cannot be compiled
	RegisterPipeline(p pipeline.Pipeline) error

	// CreateTarget allocates a complete render target.
	//
	// Parameters:
	//   - desc: a descriptor that already passed CheckComplete
	//
	// Returns:
	//   - RenderTarget: the allocated target
	//   - error: an error if allocation fails
	CreateTarget(desc TargetDescriptor) (RenderTarget, error)

	// CreateVertexBuffer uploads vertex data.
	//
	// Parameters:
	//   - label: debug label
	//   - layout: the attribute layout of data
	//   - data: interleaved float vertex data
	//
	// Returns:
	//   - VertexBuffer: the uploaded buffer
	//   - error: an error if the upload fails
	CreateVertexBuffer(label string, layout pipeline.VertexLayout, data []float32) (VertexBuffer, error)

	// BindTarget selects the framebuffer subsequent Clear and Draw calls write to. nil selects the screen.
	BindTarget(t RenderTarget)

	// Clear clears color attachment 0 of the bound target to color, every later attachment
	// to transparent black and the depth to 1.
	Clear(color common.Color)

	// BindTexture binds tex to a texture unit. nil unbinds the unit.
	BindTexture(unit int, tex Texture)

	// Draw draws buf with p into the bound target using the bound textures.
	//
	// Returns:
	//   - error: an error if the draw cannot be encoded
	Draw(p pipeline.Pipeline, buf VertexBuffer) error

	// BeginFrame prepares the default framebuffer for a new frame.
	BeginFrame() error

	// EndFrame submits all work recorded since BeginFrame.
	EndFrame()

	// Present shows the default framebuffer.
	Present()

	// Release frees every backend resource.
	Release()
}

// Readback is implemented by backends whose images can be read on the CPU.
type Readback interface {
	// ReadTexture returns the pixels of a texture created by this backend.
	ReadTexture(tex Texture) (*software.Image, error)

	// ReadScreen returns the default framebuffer as last presented.
	ReadScreen() *software.Image
}
