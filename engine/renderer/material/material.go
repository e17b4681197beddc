package material

import (
	"github.com/go-gl/mathgl/mgl32"
)

// material is the implementation of the Material interface.
type material struct {
	name          string
	baseColor     mgl32.Vec4
	specularColor mgl32.Vec3
	shininess     float32
	emissive      mgl32.Vec3
	alphaCutoff   float32
}

// Material defines the interface for a Phong surface description.
//
// A material is immutable after construction. Apply copies its values into the
// scene pipeline's uniforms before each draw that uses it.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo RGBA color of the material.
	//
	// Returns:
	//   - mgl32.Vec4: the base color
	BaseColor() mgl32.Vec4

	// SpecularColor retrieves the color the specular highlight is tinted with.
	//
	// Returns:
	//   - mgl32.Vec3: the specular color
	SpecularColor() mgl32.Vec3

	// Shininess retrieves the Blinn-Phong specular exponent.
	//
	// Returns:
	//   - float32: the exponent
	Shininess() float32

	// Emissive retrieves the self-illumination color added before lighting.
	// Emissive values above the bloom threshold make a surface glow.
	//
	// Returns:
	//   - mgl32.Vec3: the emitted radiance
	Emissive() mgl32.Vec3

	// AlphaCutoff reports whether the billboard cut-out is applied. Zero disables it.
	//
	// Returns:
	//   - float32: the cut-out setting
	AlphaCutoff() float32

	// Apply writes the material's uniforms.
	//
	// Parameters:
	//   - u: the pipeline to write to
	Apply(u UniformSetter)
}

// UniformSetter receives named uniform values. pipeline.Pipeline implements it.
type UniformSetter interface {
	SetFloat(name string, value float32)
	SetVec3(name string, value mgl32.Vec3)
	SetVec4(name string, value mgl32.Vec4)
}

var _ Material = &material{}

// NewMaterial creates a new Material with the provided options. Defaults are an opaque
// white surface with a white specular of exponent 32 and no emission.
//
// Parameters:
//   - opts: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: the newly created material
func NewMaterial(opts ...MaterialBuilderOption) Material {
	m := &material{
		baseColor:     mgl32.Vec4{1, 1, 1, 1},
		specularColor: mgl32.Vec3{1, 1, 1},
		shininess:     32,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() mgl32.Vec4 {
	return m.baseColor
}

func (m *material) SpecularColor() mgl32.Vec3 {
	return m.specularColor
}

func (m *material) Shininess() float32 {
	return m.shininess
}

func (m *material) Emissive() mgl32.Vec3 {
	return m.emissive
}

func (m *material) AlphaCutoff() float32 {
	return m.alphaCutoff
}

func (m *material) Apply(u UniformSetter) {
	u.SetVec4("base_color", m.baseColor)
	u.SetVec3("specular_color", m.specularColor)
	u.SetFloat("shininess", m.shininess)
	u.SetVec3("emissive", m.emissive)
	u.SetFloat("alpha_cutoff", m.alphaCutoff)
}
