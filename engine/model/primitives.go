package model

import "github.com/go-gl/mathgl/mgl32"

// face is one side of a quad mesh. tangent x bitangent points along normal, which
// makes the emitted triangles counter-clockwise when seen from the front.
type face struct {
	normal, tangent, bitangent mgl32.Vec3
}

var cubeFaces = []face{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// quad emits two triangles of a square centered on center, spanning +-half along the
// face tangents, with uvs from 0 to uvScale.
func quad(f face, center mgl32.Vec3, half, uvScale float32) []Vertex {
	corner := func(su, sv float32) Vertex {
		p := center.Add(f.tangent.Mul(su * half)).Add(f.bitangent.Mul(sv * half))
		return Vertex{
			Position: p,
			Normal:   f.normal,
			UV:       mgl32.Vec2{(su + 1) * 0.5 * uvScale, (sv + 1) * 0.5 * uvScale},
		}
	}
	p0, p1, p2, p3 := corner(-1, -1), corner(1, -1), corner(1, 1), corner(-1, 1)
	return []Vertex{p0, p1, p2, p0, p2, p3}
}

// CubeVertices returns a unit cube centered on the origin, 36 vertices with flat normals.
//
// Returns:
//   - []Vertex: the cube triangles
func CubeVertices() []Vertex {
	out := make([]Vertex, 0, 36)
	for _, f := range cubeFaces {
		out = append(out, quad(f, f.normal.Mul(0.5), 0.5, 1)...)
	}
	return out
}

// PlaneVertices returns a square on the XZ plane facing +Y.
//
// Parameters:
//   - half: half the side length
//   - uvScale: how many times the uv range repeats across the plane
//
// Returns:
//   - []Vertex: the plane triangles
func PlaneVertices(half, uvScale float32) []Vertex {
	return quad(cubeFaces[2], mgl32.Vec3{}, half, uvScale)
}

// BillboardVertices returns a unit square on the XY plane facing +Z with its bottom edge
// on y = 0. The scene shader cuts the grass blade out of it.
//
// Returns:
//   - []Vertex: the billboard triangles
func BillboardVertices() []Vertex {
	return quad(cubeFaces[4], mgl32.Vec3{0, 0.5, 0}, 0.5, 1)
}
