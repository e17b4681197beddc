package model

import (
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one mesh vertex in the layout the scene shader consumes (pipeline.PositionNormalUV).
type Vertex struct {
	Position mgl32.Vec3 // location 0
	Normal   mgl32.Vec3 // location 1
	UV       mgl32.Vec2 // location 2, v grows upward
}

// Layout is the vertex layout of every mesh in this package.
var Layout = pipeline.PositionNormalUV

// Flatten interleaves vertices into the float stream a vertex buffer is created from.
//
// Parameters:
//   - vertices: the mesh vertices
//
// Returns:
//   - []float32: Layout.Stride() floats per vertex
func Flatten(vertices []Vertex) []float32 {
	out := make([]float32, 0, len(vertices)*Layout.Stride())
	for _, v := range vertices {
		out = append(out,
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.UV[0], v.UV[1],
		)
	}
	return out
}
