package postprocess

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Gamma is the display gamma applied after exposure tonemapping.
const Gamma float32 = 2.2

// Tonemap maps HDR radiance to display range with the same curve the composite pass uses:
// 1 - exp(-hdr * exposure), then gamma correction.
//
// Parameters:
//   - hdr: linear HDR color
//   - exposure: exposure scale
//
// Returns:
//   - mgl32.Vec3: gamma-corrected color in [0, 1)
func Tonemap(hdr mgl32.Vec3, exposure float32) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := range hdr {
		mapped := 1 - math32.Exp(-hdr[i]*exposure)
		out[i] = math32.Pow(mapped, 1/Gamma)
	}
	return out
}
