// Package software implements a small CPU rasterizer that runs Go shader programs.
// It backs the headless renderer and lets the post-process pipeline be exercised
// without a GPU.
package software

import "github.com/go-gl/mathgl/mgl32"

const (
	// MaxVaryings is the number of floats a vertex stage can pass to the fragment stage.
	MaxVaryings = 16

	// MaxColorTargets is the number of color outputs a fragment stage can write (MRT).
	MaxColorTargets = 2
)

// Varyings carries interpolated per-vertex values from the vertex stage to the fragment stage.
type Varyings [MaxVaryings]float32

// Uniforms provides named uniform values to a program. It is read once per draw
// in Program.Prepare, never per fragment.
type Uniforms interface {
	Int(name string) int
	Float(name string) float32
	Vec3(name string) mgl32.Vec3
	Vec4(name string) mgl32.Vec4
	Mat4(name string) mgl32.Mat4
}

// Sampler reads the textures bound to texture units for the current draw.
type Sampler interface {
	// Sample returns the filtered texel at normalized coordinates (u, v) from the texture
	// on the given unit. Row 0 of a texture is v = 0. An empty unit samples as black.
	Sample(unit int, u, v float32) mgl32.Vec4

	// TexelSize returns 1/width and 1/height of the texture on the given unit.
	TexelSize(unit int) (float32, float32)
}

// Stage is a prepared program for a single draw.
type Stage struct {
	// Varyings is how many entries of Varyings the vertex stage fills.
	Varyings int

	// Vertex transforms one vertex. in holds the vertex attributes in layout order.
	// It returns the clip space position.
	Vertex func(in []float32, out *Varyings) mgl32.Vec4

	// Fragment shades one fragment and returns false to discard it.
	Fragment func(in *Varyings, tex Sampler, out *[MaxColorTargets]mgl32.Vec4) bool
}

// Program is the CPU counterpart of a WGSL vertex + fragment shader pair.
// Stage closures may be called from several goroutines at once and must only
// read shared state.
type Program interface {
	Prepare(u Uniforms) Stage
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc func(u Uniforms) Stage

// Prepare calls f(u).
func (f ProgramFunc) Prepare(u Uniforms) Stage {
	return f(u)
}
