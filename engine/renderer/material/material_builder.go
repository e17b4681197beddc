package material

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo RGBA color of the material.
//
// Parameters:
//   - color: the base color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color mgl32.Vec4) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithSpecular is an option builder that sets the specular tint and exponent.
//
// Parameters:
//   - color: the specular color
//   - shininess: the Blinn-Phong exponent, values below 1 are raised to 1
//
// Returns:
//   - MaterialBuilderOption: a function that applies the specular option to a material
func WithSpecular(color mgl32.Vec3, shininess float32) MaterialBuilderOption {
	return func(m *material) {
		m.specularColor = color
		m.shininess = max(shininess, 1)
	}
}

// WithEmissive is an option builder that sets the emitted radiance.
//
// Parameters:
//   - emissive: HDR emission, may exceed 1
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive option to a material
func WithEmissive(emissive mgl32.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = emissive
	}
}

// WithAlphaCutoff is an option builder that enables the billboard cut-out.
func WithAlphaCutoff(cutoff float32) MaterialBuilderOption {
	return func(m *material) {
		m.alphaCutoff = cutoff
	}
}
