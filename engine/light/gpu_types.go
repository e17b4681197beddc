package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights is the length of the lights array in the scene shader.
const MaxLights = 4

// Params is a plain copy of a light's properties, as uploaded to the scene shader's Light struct.
type Params struct {
	Type      LightType
	Enabled   bool
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3

	// CutOff and OuterCutOff are cosines of the spot cone half-angles.
	CutOff      float32
	OuterCutOff float32

	Constant  float32
	Linear    float32
	Quadratic float32
}

// UniformSetter receives named uniform values. pipeline.Pipeline implements it.
type UniformSetter interface {
	SetInt(name string, value int)
	SetFloat(name string, value float32)
	SetVec3(name string, value mgl32.Vec3)
}

// UniformGetter reads named uniform values. pipeline.Pipeline and software.Uniforms implement it.
type UniformGetter interface {
	Int(name string) int
	Float(name string) float32
	Vec3(name string) mgl32.Vec3
}

// field returns the uniform name of a member of lights[index].
func field(index int, name string) string {
	return fmt.Sprintf("lights[%d].%s", index, name)
}

// Pack writes lights into the lights array uniform. Slots beyond len(lights) are disabled,
// and lights past MaxLights are dropped.
//
// Parameters:
//   - u: the pipeline to write to
//   - lights: the lights in slot order
func Pack(u UniformSetter, lights []Light) {
	for i := 0; i < MaxLights; i++ {
		if i >= len(lights) || lights[i] == nil {
			u.SetInt(field(i, "enabled"), 0)
			continue
		}
		p := lights[i].Params()
		u.SetVec3(field(i, "position"), p.Position)
		u.SetInt(field(i, "enabled"), common.BoolToInt(p.Enabled))
		u.SetVec3(field(i, "direction"), p.Direction)
		u.SetFloat(field(i, "cut_off"), p.CutOff)
		u.SetVec3(field(i, "ambient"), p.Ambient)
		u.SetFloat(field(i, "outer_cut_off"), p.OuterCutOff)
		u.SetVec3(field(i, "diffuse"), p.Diffuse)
		u.SetFloat(field(i, "att_constant"), p.Constant)
		u.SetVec3(field(i, "specular"), p.Specular)
		u.SetFloat(field(i, "att_linear"), p.Linear)
		u.SetFloat(field(i, "att_quadratic"), p.Quadratic)
		u.SetInt(field(i, "kind"), int(p.Type))
	}
}

// Unpack reads lights[index] back out of uniform storage.
//
// Parameters:
//   - u: the uniform source
//   - index: the slot, 0 to MaxLights-1
//
// Returns:
//   - Params: the light in that slot
func Unpack(u UniformGetter, index int) Params {
	return Params{
		Type:        LightType(u.Int(field(index, "kind"))),
		Enabled:     u.Int(field(index, "enabled")) != 0,
		Position:    u.Vec3(field(index, "position")),
		Direction:   u.Vec3(field(index, "direction")),
		Ambient:     u.Vec3(field(index, "ambient")),
		Diffuse:     u.Vec3(field(index, "diffuse")),
		Specular:    u.Vec3(field(index, "specular")),
		CutOff:      u.Float(field(index, "cut_off")),
		OuterCutOff: u.Float(field(index, "outer_cut_off")),
		Constant:    u.Float(field(index, "att_constant")),
		Linear:      u.Float(field(index, "att_linear")),
		Quadratic:   u.Float(field(index, "att_quadratic")),
	}
}
