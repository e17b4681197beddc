package light

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - position: the world-space position
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(position mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.Position = position
	}
}

// WithDirection is an option builder that sets the direction of the light.
// The direction is normalized before storing.
//
// Parameters:
//   - direction: the direction the light travels
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(direction mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.Direction = normalize(direction)
	}
}

// WithPhong is an option builder that sets the ambient, diffuse and specular terms.
//
// Parameters:
//   - ambient: the ambient color
//   - diffuse: the diffuse color
//   - specular: the specular color
//
// Returns:
//   - LightBuilderOption: a function that applies the color terms to a lightImpl
func WithPhong(ambient, diffuse, specular mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.Ambient = ambient
		l.params.Diffuse = diffuse
		l.params.Specular = specular
	}
}

// WithAttenuation is an option builder that sets the distance attenuation factors
// 1 / (constant + linear*d + quadratic*d^2).
//
// Parameters:
//   - constant: the constant term
//   - linear: the linear term
//   - quadratic: the quadratic term
//
// Returns:
//   - LightBuilderOption: a function that applies the attenuation option to a lightImpl
func WithAttenuation(constant, linear, quadratic float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.Constant = constant
		l.params.Linear = linear
		l.params.Quadratic = quadratic
	}
}

// WithSpotCone is an option builder that sets the inner and outer cone half-angles in degrees.
//
// Parameters:
//   - innerDeg: the inner half-angle, full intensity inside it
//   - outerDeg: the outer half-angle, zero intensity outside it
//
// Returns:
//   - LightBuilderOption: a function that applies the cone option to a lightImpl
func WithSpotCone(innerDeg, outerDeg float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.CutOff, l.params.OuterCutOff = coneCosines(innerDeg, outerDeg)
	}
}

// WithEnabled is an option builder that sets whether the light starts on.
//
// Parameters:
//   - enabled: true to start enabled
//
// Returns:
//   - LightBuilderOption: a function that applies the enabled option to a lightImpl
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.Enabled = enabled
	}
}

func cosDeg(deg float32) float32 {
	return math32.Cos(mgl32.DegToRad(deg))
}
