package model

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
)

// model is the implementation of the Model interface.
type model struct {
	mu             *sync.Mutex
	name           string
	vertices       []Vertex
	boundingRadius float32
	buffer         renderer.VertexBuffer
}

// BufferCreator creates vertex buffers. renderer.Renderer implements it.
type BufferCreator interface {
	CreateVertexBuffer(label string, layout pipeline.VertexLayout, data []float32) (renderer.VertexBuffer, error)
}

// Model defines the interface for a procedural mesh.
// A Model holds its vertices on the CPU and, once uploaded, a vertex buffer on the renderer.
// Many game objects can share one Model.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Vertices returns the CPU copy of the mesh.
	//
	// Returns:
	//   - []Vertex: the triangle list vertices
	Vertices() []Vertex

	// VertexCount returns the number of vertices in the mesh.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// BoundingRadius returns the bounding sphere radius for this model, measured as
	// the maximum vertex distance from the origin. Used by frustum culling.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Upload creates the vertex buffer if it does not exist yet.
	//
	// Parameters:
	//   - device: the renderer to create the buffer on
	//
	// Returns:
	//   - error: the buffer creation error, if any
	Upload(device BufferCreator) error

	// Buffer returns the uploaded vertex buffer, or nil before Upload.
	//
	// Returns:
	//   - renderer.VertexBuffer: the buffer or nil
	Buffer() renderer.VertexBuffer

	// Release frees the vertex buffer. The model can be uploaded again afterwards.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{mu: &sync.Mutex{}}
	for _, opt := range options {
		opt(m)
	}
	for _, v := range m.vertices {
		m.boundingRadius = max(m.boundingRadius, v.Position.Len())
	}
	return m
}

// NewCube creates a unit cube model.
func NewCube(name string) Model {
	return NewModel(WithName(name), WithVertices(CubeVertices()))
}

// NewPlane creates a ground plane model.
func NewPlane(name string, half, uvScale float32) Model {
	return NewModel(WithName(name), WithVertices(PlaneVertices(half, uvScale)))
}

// NewBillboard creates a grass billboard model.
func NewBillboard(name string) Model {
	return NewModel(WithName(name), WithVertices(BillboardVertices()))
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Vertices() []Vertex {
	return m.vertices
}

func (m *model) VertexCount() int {
	return len(m.vertices)
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Upload(device BufferCreator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buffer != nil {
		return nil
	}
	buf, err := device.CreateVertexBuffer(m.name, Layout, Flatten(m.vertices))
	if err != nil {
		return fmt.Errorf("failed to upload model %q: %w", m.name, err)
	}
	m.buffer = buf
	return nil
}

func (m *model) Buffer() renderer.VertexBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffer
}

func (m *model) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buffer != nil {
		m.buffer.Release()
		m.buffer = nil
	}
}
