package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-bloom/engine/light"
	"github.com/Carmen-Shannon/oxy-bloom/engine/model"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	mu            *sync.Mutex
	id            uint64
	name          string
	enabled       atomic.Bool
	mdl           model.Model
	mat           material.Material
	attachedLight light.Light

	position mgl32.Vec3
	rotation mgl32.Vec3 // euler degrees, applied Y then X then Z
	scale    mgl32.Vec3
}

// GameObject defines the interface for a placed model instance in the scene.
// It combines a shared Model with its own transform and Material.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Name returns the object's display name.
	Name() string

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Model returns the Model associated with this object, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// Material returns the surface description this object is drawn with.
	//
	// Returns:
	//   - material.Material: the material, never nil
	Material() material.Material

	// Position returns the world-space position.
	Position() mgl32.Vec3

	// Rotation returns the Euler rotation in degrees.
	Rotation() mgl32.Vec3

	// Scale returns the per-axis scale.
	Scale() mgl32.Vec3

	// ModelMatrix returns translate * rotate * scale.
	//
	// Returns:
	//   - mgl32.Mat4: the object to world transform
	ModelMatrix() mgl32.Mat4

	// NormalMatrix returns the inverse transpose of the model matrix, for transforming normals.
	//
	// Returns:
	//   - mgl32.Mat4: the normal transform
	NormalMatrix() mgl32.Mat4

	// BoundingSphere returns a world-space sphere that contains the object.
	//
	// Returns:
	//   - center: the sphere center
	//   - radius: the sphere radius
	BoundingSphere() (center mgl32.Vec3, radius float32)

	// SetEnabled sets whether the object is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetMaterial replaces the material. A nil material is ignored.
	SetMaterial(m material.Material)

	// SetPosition moves the object. An attached light moves with it.
	//
	// Parameters:
	//   - position: the new world-space position
	SetPosition(position mgl32.Vec3)

	// SetRotation sets the Euler rotation in degrees.
	SetRotation(rotation mgl32.Vec3)

	// SetScale sets the per-axis scale.
	SetScale(scale mgl32.Vec3)

	// Light returns the Light attached to this object, or nil if none is set.
	//
	// Returns:
	//   - light.Light: the attached light or nil
	Light() light.Light

	// SetLight attaches a Light to this object. The light's position follows the object
	// from then on. Pass nil to detach.
	//
	// Parameters:
	//   - l: the Light to attach, or nil to detach
	SetLight(l light.Light)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject configured with the given options.
// Objects start enabled, at the origin, unrotated with unit scale and a default material.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		mu:    &sync.Mutex{},
		scale: mgl32.Vec3{1, 1, 1},
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	if obj.mat == nil {
		obj.mat = material.NewMaterial()
	}
	if obj.attachedLight != nil {
		obj.attachedLight.SetPosition(obj.position)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Model() model.Model {
	return g.mdl
}

func (g *gameObject) Material() material.Material {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mat
}

func (g *gameObject) Position() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position
}

func (g *gameObject) Rotation() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rotation
}

func (g *gameObject) Scale() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scale
}

func (g *gameObject) ModelMatrix() mgl32.Mat4 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.modelMatrix()
}

func (g *gameObject) modelMatrix() mgl32.Mat4 {
	rot := mgl32.HomogRotate3DY(mgl32.DegToRad(g.rotation[1])).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(g.rotation[0]))).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(g.rotation[2])))
	return mgl32.Translate3D(g.position[0], g.position[1], g.position[2]).
		Mul4(rot).
		Mul4(mgl32.Scale3D(g.scale[0], g.scale[1], g.scale[2]))
}

func (g *gameObject) NormalMatrix() mgl32.Mat4 {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.modelMatrix()
	if m.Det() == 0 {
		return mgl32.Ident4()
	}
	return m.Inv().Transpose()
}

func (g *gameObject) BoundingSphere() (mgl32.Vec3, float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mdl == nil {
		return g.position, 0
	}
	s := max(abs(g.scale[0]), abs(g.scale[1]), abs(g.scale[2]))
	return g.position, g.mdl.BoundingRadius() * s
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetMaterial(m material.Material) {
	if m == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mat = m
}

func (g *gameObject) SetPosition(position mgl32.Vec3) {
	g.mu.Lock()
	g.position = position
	l := g.attachedLight
	g.mu.Unlock()
	if l != nil {
		l.SetPosition(position)
	}
}

func (g *gameObject) SetRotation(rotation mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = rotation
}

func (g *gameObject) SetScale(scale mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = scale
}

func (g *gameObject) Light() light.Light {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Light) {
	g.mu.Lock()
	g.attachedLight = l
	pos := g.position
	g.mu.Unlock()
	if l != nil {
		l.SetPosition(pos)
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
