package material

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	values map[string]any
}

func (r *recorder) SetFloat(name string, value float32) { r.values[name] = value }

func (r *recorder) SetVec3(name string, value mgl32.Vec3) { r.values[name] = value }

func (r *recorder) SetVec4(name string, value mgl32.Vec4) { r.values[name] = value }

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial()
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, m.BaseColor())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, m.SpecularColor())
	assert.Equal(t, float32(32), m.Shininess())
	assert.Equal(t, mgl32.Vec3{}, m.Emissive())
	assert.Zero(t, m.AlphaCutoff())
}

func TestApply(t *testing.T) {
	m := NewMaterial(
		WithName("marker"),
		WithBaseColor(mgl32.Vec4{0.2, 0.3, 0.4, 1}),
		WithSpecular(mgl32.Vec3{0.5, 0.5, 0.5}, 0),
		WithEmissive(mgl32.Vec3{5, 5, 5}),
		WithAlphaCutoff(0.5),
	)
	r := &recorder{values: map[string]any{}}
	m.Apply(r)

	assert.Equal(t, "marker", m.Name())
	assert.Equal(t, mgl32.Vec4{0.2, 0.3, 0.4, 1}, r.values["base_color"])
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, r.values["specular_color"])
	assert.Equal(t, float32(1), r.values["shininess"])
	assert.Equal(t, mgl32.Vec3{5, 5, 5}, r.values["emissive"])
	assert.Equal(t, float32(0.5), r.values["alpha_cutoff"])
}
