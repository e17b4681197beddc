package light

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source. The values match the kind constants in scene.wgsl.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Affects all fragments uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position
	// and attenuates with distance.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Attenuates with both distance and angle from the cone axis.
	LightTypeSpot
)

// String returns the lowercase name of the light type.
func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	default:
		return "directional"
	}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu     *sync.Mutex
	params Params
}

// Light defines the interface for a Phong light source in the scene.
//
// All light types share this interface; type-specific properties (e.g. cone angles for
// spot lights) are ignored by the shader when not applicable.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	Position() mgl32.Vec3

	// Direction returns the normalized direction the light travels.
	// Meaningless for point lights.
	Direction() mgl32.Vec3

	// Ambient returns the ambient color term.
	Ambient() mgl32.Vec3

	// Diffuse returns the diffuse color term.
	Diffuse() mgl32.Vec3

	// Specular returns the specular color term.
	Specular() mgl32.Vec3

	// Attenuation returns the constant, linear and quadratic distance attenuation factors.
	Attenuation() (constant, linear, quadratic float32)

	// CutOff returns the cosine of the inner cone half-angle for spot lights.
	CutOff() float32

	// OuterCutOff returns the cosine of the outer cone half-angle for spot lights.
	OuterCutOff() float32

	// Enabled returns whether this light contributes to shading.
	Enabled() bool

	// Params returns a snapshot of every light property.
	//
	// Returns:
	//   - Params: the light's current parameters
	Params() Params

	// SetPosition sets the world-space position of the light.
	SetPosition(position mgl32.Vec3)

	// SetDirection sets the light direction. The direction is normalized before storing.
	SetDirection(direction mgl32.Vec3)

	// SetAmbient sets the ambient color term.
	SetAmbient(color mgl32.Vec3)

	// SetDiffuse sets the diffuse color term.
	SetDiffuse(color mgl32.Vec3)

	// SetSpecular sets the specular color term.
	SetSpecular(color mgl32.Vec3)

	// SetAttenuation sets the constant, linear and quadratic distance falloff terms.
	SetAttenuation(constant, linear, quadratic float32)

	// SetSpotCone sets the inner and outer cone half-angles of a spot light.
	//
	// Parameters:
	//   - innerDeg: inner half-angle in degrees
	//   - outerDeg: outer half-angle in degrees
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled turns the light on or off.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a light of the given type. Lights start enabled, white diffuse and
// specular, no ambient, with attenuation 1/0/0 and a 12.5/15 degree spot cone.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: the newly created light
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu: &sync.Mutex{},
		params: Params{
			Type:      lightType,
			Enabled:   true,
			Direction: mgl32.Vec3{0, -1, 0},
			Diffuse:   mgl32.Vec3{1, 1, 1},
			Specular:  mgl32.Vec3{1, 1, 1},
			Constant:  1,
		},
	}
	l.params.CutOff, l.params.OuterCutOff = coneCosines(12.5, 15)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func coneCosines(innerDeg, outerDeg float32) (float32, float32) {
	return cosDeg(innerDeg), cosDeg(outerDeg)
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}

func (l *lightImpl) Type() LightType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.Type
}

func (l *lightImpl) Position() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.Position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.Direction
}

func (l *lightImpl) Ambient() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.Ambient
}

func (l *lightImpl) Diffuse() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.Diffuse
}

func (l *lightImpl) Specular() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.Specular
}

func (l *lightImpl) Attenuation() (float32, float32, float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.Constant, l.params.Linear, l.params.Quadratic
}

func (l *lightImpl) CutOff() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.CutOff
}

func (l *lightImpl) OuterCutOff() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.OuterCutOff
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.Enabled
}

func (l *lightImpl) Params() Params {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params
}

func (l *lightImpl) SetPosition(position mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params.Position = position
}

func (l *lightImpl) SetDirection(direction mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params.Direction = normalize(direction)
}

func (l *lightImpl) SetAmbient(color mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params.Ambient = color
}

func (l *lightImpl) SetDiffuse(color mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params.Diffuse = color
}

func (l *lightImpl) SetSpecular(color mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params.Specular = color
}

func (l *lightImpl) SetAttenuation(constant, linear, quadratic float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params.Constant, l.params.Linear, l.params.Quadratic = constant, linear, quadratic
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params.CutOff, l.params.OuterCutOff = coneCosines(innerDeg, outerDeg)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params.Enabled = enabled
}
