package light

import (
	"fmt"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniformMap records values written by Pack and serves them back to Unpack.
type uniformMap struct {
	ints   map[string]int
	floats map[string]float32
	vecs   map[string]mgl32.Vec3
}

func newUniformMap() *uniformMap {
	return &uniformMap{ints: map[string]int{}, floats: map[string]float32{}, vecs: map[string]mgl32.Vec3{}}
}

func (m *uniformMap) SetInt(name string, value int) { m.ints[name] = value }
func (m *uniformMap) SetFloat(name string, value float32) { m.floats[name] = value }
func (m *uniformMap) SetVec3(name string, value mgl32.Vec3) { m.vecs[name] = value }
func (m *uniformMap) Int(name string) int { return m.ints[name] }
func (m *uniformMap) Float(name string) float32 { return m.floats[name] }
func (m *uniformMap) Vec3(name string) mgl32.Vec3 { return m.vecs[name] }

func TestNewLightDefaults(t *testing.T) {
	l := NewLight(LightTypePoint)
	assert.Equal(t, LightTypePoint, l.Type())
	assert.True(t, l.Enabled())
	c, lin, q := l.Attenuation()
	assert.Equal(t, float32(1), c)
	assert.Zero(t, lin)
	assert.Zero(t, q)
	assert.InDelta(t, math32.Cos(mgl32.DegToRad(12.5)), l.CutOff(), 1e-6)
	assert.InDelta(t, math32.Cos(mgl32.DegToRad(15)), l.OuterCutOff(), 1e-6)
	assert.Greater(t, l.CutOff(), l.OuterCutOff())
}

func TestBuilderOptions(t *testing.T) {
	l := NewLight(LightTypeSpot,
		WithPosition(mgl32.Vec3{-6, 1, 4}),
		WithDirection(mgl32.Vec3{0, -3, 0}),
		WithPhong(mgl32.Vec3{0.1, 0.1, 0.1}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0.5, 0.5, 0.5}),
		WithAttenuation(1, 0.09, 0.032),
		WithSpotCone(10, 20),
		WithEnabled(false),
	)
	p := l.Params()
	assert.Equal(t, mgl32.Vec3{-6, 1, 4}, p.Position)
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, p.Direction)
	assert.Equal(t, mgl32.Vec3{0.1, 0.1, 0.1}, p.Ambient)
	assert.Equal(t, float32(0.09), p.Linear)
	assert.InDelta(t, math32.Cos(mgl32.DegToRad(20)), p.OuterCutOff, 1e-6)
	assert.False(t, p.Enabled)
}

func TestSetters(t *testing.T) {
	l := NewLight(LightTypeDirectional)
	l.SetDirection(mgl32.Vec3{0, 0, 0})
	assert.Equal(t, mgl32.Vec3{}, l.Direction())
	l.SetDirection(mgl32.Vec3{2, 0, 0})
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, l.Direction())
	l.SetPosition(mgl32.Vec3{1, 2, 3})
	l.SetAmbient(mgl32.Vec3{0.05, 0.05, 0.05})
	l.SetDiffuse(mgl32.Vec3{0.4, 0.4, 0.4})
	l.SetSpecular(mgl32.Vec3{0.5, 0.5, 0.5})
	l.SetEnabled(false)
	l.SetSpotCone(5, 6)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, l.Position())
	assert.Equal(t, mgl32.Vec3{0.05, 0.05, 0.05}, l.Ambient())
	assert.Equal(t, mgl32.Vec3{0.4, 0.4, 0.4}, l.Diffuse())
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, l.Specular())
	assert.False(t, l.Enabled())
	assert.InDelta(t, math32.Cos(mgl32.DegToRad(5)), l.CutOff(), 1e-6)
}

func TestPackUnpack(t *testing.T) {
	point := NewLight(LightTypePoint, WithPosition(mgl32.Vec3{4, 4, 4}), WithAttenuation(1, 0.09, 0.032))
	spot := NewLight(LightTypeSpot, WithEnabled(false))
	u := newUniformMap()
	Pack(u, []Light{point, spot})

	got := Unpack(u, 0)
	assert.Equal(t, point.Params(), got)
	assert.Equal(t, 1, u.Int("lights[0].kind"))
	assert.Equal(t, 0, u.Int("lights[1].enabled"))
	assert.Equal(t, 2, u.Int("lights[1].kind"))
	for i := 2; i < MaxLights; i++ {
		v, ok := u.ints[fmt.Sprintf("lights[%d].enabled", i)]
		require.True(t, ok, "slot %d", i)
		assert.Zero(t, v)
	}
}

func TestPackDropsExtraLights(t *testing.T) {
	lights := make([]Light, MaxLights+2)
	for i := range lights {
		lights[i] = NewLight(LightTypePoint)
	}
	u := newUniformMap()
	Pack(u, lights)
	_, ok := u.ints[fmt.Sprintf("lights[%d].enabled", MaxLights)]
	assert.False(t, ok)
}

func TestShade(t *testing.T) {
	surface := Surface{
		Normal:        mgl32.Vec3{0, 1, 0},
		ViewDir:       mgl32.Vec3{0, 1, 0},
		Base:          mgl32.Vec3{1, 0.5, 0.25},
		SpecularColor: mgl32.Vec3{1, 1, 1},
		Shininess:     32,
	}

	t.Run("disabled light contributes nothing", func(t *testing.T) {
		p := NewLight(LightTypeDirectional, WithEnabled(false)).Params()
		assert.Equal(t, mgl32.Vec3{}, Shade(p, surface))
	})

	t.Run("directional head on", func(t *testing.T) {
		p := NewLight(LightTypeDirectional,
			WithDirection(mgl32.Vec3{0, -1, 0}),
			WithPhong(mgl32.Vec3{0.1, 0.1, 0.1}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}),
		).Params()
		got := Shade(p, surface)
		// ambient + diffuse on the base color, plus full specular
		assert.InDelta(t, 0.1*1+1+1, got[0], 1e-5)
		assert.InDelta(t, 0.1*0.5+0.5+1, got[1], 1e-5)
		assert.InDelta(t, 0.1*0.25+0.25+1, got[2], 1e-5)
	})

	t.Run("point light attenuates", func(t *testing.T) {
		p := NewLight(LightTypePoint,
			WithPosition(mgl32.Vec3{0, 2, 0}),
			WithPhong(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}),
			WithAttenuation(1, 0.5, 0.25),
		).Params()
		got := Shade(p, surface)
		assert.InDelta(t, 1.0/3.0, got[0], 1e-5)
	})

	t.Run("spot outside the outer cone is dark", func(t *testing.T) {
		p := NewLight(LightTypeSpot,
			WithPosition(mgl32.Vec3{5, 1, 0}),
			WithDirection(mgl32.Vec3{0, -1, 0}),
		).Params()
		assert.Equal(t, mgl32.Vec3{}, Shade(p, surface))
	})

	t.Run("spot inside the inner cone is full", func(t *testing.T) {
		p := NewLight(LightTypeSpot,
			WithPosition(mgl32.Vec3{0, 1, 0}),
			WithDirection(mgl32.Vec3{0, -1, 0}),
			WithPhong(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}),
		).Params()
		assert.InDelta(t, 1, Shade(p, surface)[0], 1e-5)
	})
}

func TestLightTypeString(t *testing.T) {
	assert.Equal(t, "directional", LightTypeDirectional.String())
	assert.Equal(t, "point", LightTypePoint.String())
	assert.Equal(t, "spot", LightTypeSpot.String())
}
