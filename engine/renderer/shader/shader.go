package shader

import (
	"errors"
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies which programmable stage a shader feeds.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// String returns the lower-case stage name.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

var (
	// ErrReflection is returned when the resources of a shader cannot be laid out.
	ErrReflection = errors.New("shader: reflection failed")

	// ErrNoEntryPoint is returned when a source has no entry point for the requested stage.
	ErrNoEntryPoint = errors.New("shader: no entry point")
)

// shader is the implementation of the Shader interface.
// It holds the source and the reflection data needed to build a pipeline and pack its uniforms.
type shader struct {
	key        string
	path       string
	source     string
	shaderType ShaderType
	entryPoint string
	uniforms   *UniformBlock
	textures   []TextureBinding
	module     *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a loaded and reflected WGSL shader stage.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Path returns the file the source was read from, or "" for embedded and in-memory sources.
	//
	// Returns:
	//   - string: the source path
	Path() string

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader's stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// Uniforms returns the reflected uniform block, or nil if the shader declares none.
	// Both stages of one source share the same block.
	//
	// Returns:
	//   - *UniformBlock: the uniform layout keyed by flattened field name
	Uniforms() *UniformBlock

	// TextureBindings returns the texture and sampler resources in declaration order.
	//
	// Returns:
	//   - []TextureBinding: the declared texture and sampler bindings
	TextureBindings() []TextureBinding

	// Module returns the wgpu.ShaderModuleDescriptor built from the source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader reads WGSL source from disk and reflects it.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage whose entry point is used
//   - sourcePath: the file path to read WGSL source from
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if the file cannot be read or reflected
func NewShader(key string, shaderType ShaderType, sourcePath string) (Shader, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("shader: failed to read source file %q: %w", sourcePath, err)
	}
	s, err := newShader(key, shaderType, string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourcePath, err)
	}
	s.path = sourcePath
	return s, nil
}

// NewShaderFromSource reflects WGSL source that is already in memory.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage whose entry point is used
//   - source: the WGSL source
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if the source has no entry point for the stage or cannot be reflected
func NewShaderFromSource(key string, shaderType ShaderType, source string) (Shader, error) {
	return newShader(key, shaderType, source)
}

func newShader(key string, shaderType ShaderType, source string) (*shader, error) {
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		entryPoint: parseEntryPoint(source, shaderType),
	}
	if s.entryPoint == "" {
		return nil, fmt.Errorf("%w: %s has no %s stage", ErrNoEntryPoint, key, shaderType)
	}
	var err error
	s.uniforms, s.textures, err = reflectResources(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Uniforms() *UniformBlock {
	return s.uniforms
}

func (s *shader) TextureBindings() []TextureBinding {
	return s.textures
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

// Field looks up a flattened uniform field by name.
//
// Parameters:
//   - name: the flattened field name, e.g. "lights[0].diffuse"
//
// Returns:
//   - UniformField: the field layout
//   - bool: false if the block has no such field
func (b *UniformBlock) Field(name string) (UniformField, bool) {
	if b == nil {
		return UniformField{}, false
	}
	f, ok := b.Fields[name]
	return f, ok
}
