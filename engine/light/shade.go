package light

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Surface is the material and geometry a light is evaluated against.
type Surface struct {
	Normal        mgl32.Vec3 // normalized
	Position      mgl32.Vec3
	ViewDir       mgl32.Vec3 // normalized, from the surface to the eye
	Base          mgl32.Vec3
	SpecularColor mgl32.Vec3
	Shininess     float32
}

// Shade evaluates the Blinn-Phong contribution of p at s, the same way the scene shader does.
//
// Parameters:
//   - p: the light
//   - s: the surface point
//
// Returns:
//   - mgl32.Vec3: the reflected radiance
func Shade(p Params, s Surface) mgl32.Vec3 {
	if !p.Enabled {
		return mgl32.Vec3{}
	}
	axis := normalize(p.Direction.Mul(-1))
	lightDir := axis
	if p.Type != LightTypeDirectional {
		lightDir = normalize(p.Position.Sub(s.Position))
	}
	diff := math32.Max(s.Normal.Dot(lightDir), 0)
	halfway := normalize(lightDir.Add(s.ViewDir))
	spec := math32.Pow(math32.Max(s.Normal.Dot(halfway), 0), s.Shininess)

	ambient := mul(p.Ambient, s.Base)
	diffuse := mul(p.Diffuse, s.Base).Mul(diff)
	specular := mul(p.Specular, s.SpecularColor).Mul(spec)

	scale := float32(1)
	if p.Type != LightTypeDirectional {
		d := p.Position.Sub(s.Position).Len()
		scale = 1 / (p.Constant + p.Linear*d + p.Quadratic*d*d)
	}
	if p.Type == LightTypeSpot {
		theta := lightDir.Dot(axis)
		scale *= common.Clamp((theta-p.OuterCutOff)/(p.CutOff-p.OuterCutOff), 0, 1)
	}
	return ambient.Add(diffuse).Add(specular).Mul(scale)
}

func mul(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
