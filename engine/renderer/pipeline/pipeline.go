package pipeline

import (
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the shader pair, the fixed-function configuration and the CPU side uniform values.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// vertexShader and fragmentShader are the WGSL stages used by the GPU backend.
	vertexShader, fragmentShader shader.Shader

	// program is the Go counterpart of the shader pair used by the software backend.
	program software.Program

	// revision increments whenever the shaders are swapped so backends can rebuild.
	revision int

	// backendState is opaque per-backend compiled state (pipeline variants, bind group caches).
	backendState any

	vertexLayout VertexLayout
	textureUnits int

	// The following properties are used to configure the pipeline during creation and can be toggled/set with the builder options.

	depthTestEnabled  bool
	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState

	uniforms uniformStore
}

// Pipeline defines the interface for a render pipeline: a vertex + fragment shader pair
// (WGSL for the GPU backend, a software.Program for the CPU backend), its fixed-function
// state, and the named uniform values the next draw will use.
//
// Pipeline also satisfies software.Uniforms so the CPU backend can read values by name.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// SetShaders swaps the WGSL stages and bumps the revision. Used by shader hot reload.
	//
	// Parameters:
	//   - vertex: the new vertex stage
	//   - fragment: the new fragment stage
	SetShaders(vertex, fragment shader.Shader)

	// Revision returns a counter that changes every time SetShaders is called.
	//
	// Returns:
	//   - int: the current revision
	Revision() int

	// Program returns the software program, or nil if the pipeline has none.
	//
	// Returns:
	//   - software.Program: the CPU program
	Program() software.Program

	// BackendState returns the state a backend attached with SetBackendState.
	//
	// Returns:
	//   - any: backend specific state, nil until registered
	BackendState() any

	// SetBackendState attaches backend specific compiled state to the pipeline.
	//
	// Parameters:
	//   - state: the state to attach
	SetBackendState(state any)

	// VertexLayout returns the vertex buffer layout the pipeline consumes.
	//
	// Returns:
	//   - VertexLayout: the layout
	VertexLayout() VertexLayout

	// TextureUnits returns how many sampled textures the fragment stage reads.
	//
	// Returns:
	//   - int: the number of texture units
	TextureUnits() int

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthCompare returns the depth test function, wgpu.CompareFunctionLess unless set.
	DepthCompare() wgpu.CompareFunction

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state used when blending is enabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// SetInt stores an integer uniform. Flags are carried as ints.
	SetInt(name string, value int)

	// SetFloat stores a float uniform.
	SetFloat(name string, value float32)

	// SetVec3 stores a vec3 uniform.
	SetVec3(name string, value mgl32.Vec3)

	// SetVec4 stores a vec4 uniform.
	SetVec4(name string, value mgl32.Vec4)

	// SetMat4 stores a mat4 uniform.
	SetMat4(name string, value mgl32.Mat4)

	// Uniform returns the stored value for name.
	//
	// Parameters:
	//   - name: the uniform name as declared in the shader's uniform struct
	//
	// Returns:
	//   - UniformValue: the stored value
	//   - bool: false if the uniform was never set
	Uniform(name string) (UniformValue, bool)

	software.Uniforms
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new render pipeline with the given key and options.
//
// Parameters:
//   - pipelineKey: the unique key for caching and lookups
//   - opts: builder options
//
// Returns:
//   - Pipeline: the configured pipeline, not yet registered with a renderer
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      wgpu.CompareFunctionLess,
		blendEnabled:      false,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		vertexLayout:      PositionNormalUV,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
		uniforms: newUniformStore(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) SetShaders(vertex, fragment shader.Shader) {
	p.vertexShader = vertex
	p.fragmentShader = fragment
	p.revision++
}

func (p *pipeline) Revision() int {
	return p.revision
}

func (p *pipeline) Program() software.Program {
	return p.program
}

func (p *pipeline) BackendState() any {
	return p.backendState
}

func (p *pipeline) SetBackendState(state any) {
	p.backendState = state
}

func (p *pipeline) VertexLayout() VertexLayout {
	return p.vertexLayout
}

func (p *pipeline) TextureUnits() int {
	return p.textureUnits
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}
