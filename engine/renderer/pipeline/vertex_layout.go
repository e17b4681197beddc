package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// VertexAttribute describes one float attribute of an interleaved vertex.
type VertexAttribute struct {
	// Location is the shader @location the attribute feeds.
	Location uint32
	// Components is the float count (1 to 4).
	Components int
}

// VertexLayout describes an interleaved, float-only vertex buffer.
type VertexLayout struct {
	Attributes []VertexAttribute
}

// Stride returns the number of floats per vertex.
//
// Returns:
//   - int: floats per vertex
func (l VertexLayout) Stride() int {
	n := 0
	for _, a := range l.Attributes {
		n += a.Components
	}
	return n
}

// WGPULayout converts the layout to a wgpu.VertexBufferLayout.
//
// Returns:
//   - wgpu.VertexBufferLayout: the buffer layout with one attribute per entry
func (l VertexLayout) WGPULayout() wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, 0, len(l.Attributes))
	offset := uint64(0)
	for _, a := range l.Attributes {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         floatFormat(a.Components),
			Offset:         offset,
			ShaderLocation: a.Location,
		})
		offset += uint64(a.Components) * 4
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

func floatFormat(components int) wgpu.VertexFormat {
	switch components {
	case 1:
		return wgpu.VertexFormatFloat32
	case 2:
		return wgpu.VertexFormatFloat32x2
	case 3:
		return wgpu.VertexFormatFloat32x3
	default:
		return wgpu.VertexFormatFloat32x4
	}
}

// PositionUV is the layout of the full-screen quad: vec2 position, vec2 uv.
var PositionUV = VertexLayout{Attributes: []VertexAttribute{
	{Location: 0, Components: 2},
	{Location: 1, Components: 2},
}}

// PositionNormalUV is the layout of scene meshes: vec3 position, vec3 normal, vec2 uv.
var PositionNormalUV = VertexLayout{Attributes: []VertexAttribute{
	{Location: 0, Components: 3},
	{Location: 1, Components: 3},
	{Location: 2, Components: 2},
}}
