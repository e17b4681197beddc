package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/camera"
	"github.com/Carmen-Shannon/oxy-bloom/engine/game_object"
	"github.com/Carmen-Shannon/oxy-bloom/engine/light"
	"github.com/Carmen-Shannon/oxy-bloom/engine/model"
	"github.com/Carmen-Shannon/oxy-bloom/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-bloom/engine/state"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCamera(position mgl32.Vec3) camera.Camera {
	ctrl := camera.NewCameraController(camera.WithPosition(position))
	return camera.NewCamera(camera.WithController(ctrl), camera.WithAspect(2))
}

func newTestRenderer(t *testing.T) renderer.Renderer {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithSize(32, 16), renderer.WithSoftwareWorkers(2))
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func glowingCube(name string, position mgl32.Vec3, emissive float32) game_object.GameObject {
	return game_object.NewGameObject(
		game_object.WithName(name),
		game_object.WithModel(model.NewCube(name)),
		game_object.WithPosition(position),
		game_object.WithMaterial(material.NewMaterial(
			material.WithBaseColor(mgl32.Vec4{0, 0, 0, 1}),
			material.WithEmissive(mgl32.Vec3{emissive, emissive, emissive}),
		)),
	)
}

func TestAddGetRemove(t *testing.T) {
	s := NewScene(newTestCamera(mgl32.Vec3{}))

	a := s.Add(game_object.NewGameObject(game_object.WithName("a")))
	b := s.Add(game_object.NewGameObject(game_object.WithName("b")))
	c := s.Add(game_object.NewGameObject(game_object.WithName("c"), game_object.WithID(10)))
	assert.Equal(t, uint64(1), a)
	assert.Equal(t, uint64(2), b)
	assert.Equal(t, uint64(10), c)
	assert.Equal(t, 3, s.Count())

	s.Remove(b)
	s.Remove(99)
	assert.Nil(t, s.Get(b))
	assert.Equal(t, "c", s.Get(c).Name())

	var names []string
	for _, obj := range s.Objects() {
		names = append(names, obj.Name())
	}
	assert.Equal(t, []string{"a", "c"}, names)
	assert.Equal(t, uint64(11), s.Add(game_object.NewGameObject()))
}

func TestInitRegistersPipelineAndUploads(t *testing.T) {
	r := newTestRenderer(t)
	s := NewScene(newTestCamera(mgl32.Vec3{}))
	obj := glowingCube("cube", mgl32.Vec3{0, 0, -3}, 1)
	s.Add(obj)

	_, err := s.DrawCalls(r, 1)
	assert.Error(t, err)

	require.NoError(t, s.Init(r))
	assert.NotNil(t, r.Pipeline(ScenePipelineKey))
	assert.Same(t, r.Pipeline(ScenePipelineKey), s.Pipeline())
	assert.NotNil(t, obj.Model().Buffer())

	late := glowingCube("late", mgl32.Vec3{1, 0, -3}, 1)
	s.Add(late)
	assert.NotNil(t, late.Model().Buffer())

	s.Release()
	s.Release()
	assert.Nil(t, obj.Model().Buffer())
	assert.ErrorIs(t, s.Init(r), renderer.ErrReleased)
}

func TestDrawCallsCullsOutsideFrustum(t *testing.T) {
	r := newTestRenderer(t)
	s := NewScene(newTestCamera(mgl32.Vec3{}))
	s.Add(glowingCube("ahead", mgl32.Vec3{0, 0, -3}, 1))
	s.Add(glowingCube("behind", mgl32.Vec3{0, 0, 5}, 1))
	hidden := glowingCube("hidden", mgl32.Vec3{0, 0, -4}, 1)
	hidden.SetEnabled(false)
	s.Add(hidden)
	require.NoError(t, s.Init(r))

	require.NoError(t, r.BeginFrame())
	stats, err := s.DrawCalls(r, 1)
	require.NoError(t, err)
	assert.Equal(t, DrawStats{Drawn: 1, Culled: 1}, stats)

	s.SetCullingDisabled(true)
	assert.True(t, s.CullingDisabled())
	stats, err = s.DrawCalls(r, 1)
	require.NoError(t, err)
	assert.Equal(t, DrawStats{Drawn: 2}, stats)
	r.EndFrame()
}

func TestDrawCallsUploadsCameraAndLights(t *testing.T) {
	r := newTestRenderer(t)
	s := NewScene(newTestCamera(mgl32.Vec3{1, 2, 3}))
	s.AddLight(light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{4, 4, 4})))
	require.NoError(t, s.Init(r))

	require.NoError(t, r.BeginFrame())
	_, err := s.DrawCalls(r, 0.75)
	require.NoError(t, err)
	r.EndFrame()

	p := s.Pipeline()
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, p.Vec3("view_pos"))
	assert.Equal(t, float32(0.75), p.Float("threshold"))
	assert.Equal(t, mgl32.Vec3{4, 4, 4}, light.Unpack(p, 0).Position)
	assert.True(t, light.Unpack(p, 0).Enabled)
	assert.False(t, light.Unpack(p, 1).Enabled)
}

func TestSceneProgramBrightPass(t *testing.T) {
	u := pipeline.NewPipeline("uniforms")
	u.SetFloat("threshold", 1)

	shade := func(emissive float32) [software.MaxColorTargets]mgl32.Vec4 {
		u.SetVec3("emissive", mgl32.Vec3{emissive, emissive, emissive})
		stage := SceneProgram.Prepare(u)
		vary := software.Varyings{0, 0, 0, 0, 0, 1, 0.5, 0.5}
		var out [software.MaxColorTargets]mgl32.Vec4
		require.True(t, stage.Fragment(&vary, nil, &out))
		return out
	}

	hot := shade(4)
	assert.Equal(t, mgl32.Vec4{4, 4, 4, 1}, hot[0])
	assert.Equal(t, mgl32.Vec4{4, 4, 4, 1}, hot[1])

	dim := shade(0.5)
	assert.Equal(t, mgl32.Vec4{0.5, 0.5, 0.5, 1}, dim[0])
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, dim[1])

	// Luminance exactly at the threshold stays out of the bright pass.
	u.SetFloat("threshold", mgl32.Vec3{1, 1, 1}.Dot(common.Luminance))
	edge := shade(1)
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, edge[1])
}

func TestSceneProgramVertex(t *testing.T) {
	u := pipeline.NewPipeline("uniforms")
	u.SetMat4("model", mgl32.Translate3D(1, 2, 3))
	u.SetMat4("view_proj", mgl32.Ident4())

	stage := SceneProgram.Prepare(u)
	var vary software.Varyings
	clip := stage.Vertex([]float32{0, 0, 0, 0, 1, 0, 0.25, 0.75}, &vary)
	assert.Equal(t, mgl32.Vec4{1, 2, 3, 1}, clip)
	assert.Equal(t, []float32{1, 2, 3, 0, 1, 0, 0.25, 0.75}, vary[:8])
}

func TestBladeDiscard(t *testing.T) {
	assert.False(t, BladeDiscard(0, 0.1, 0.9))
	assert.True(t, BladeDiscard(0.5, 0.1, 0.9))
	assert.False(t, BladeDiscard(0.5, 0.5, 0.5))
	assert.False(t, BladeDiscard(0.5, 0.5, 0.99))
	assert.True(t, BladeDiscard(0.5, 0.9, 0.5))
}

func TestRenderIntoHDRTarget(t *testing.T) {
	r := newTestRenderer(t)
	pp, err := postprocess.New(r, 32, 16)
	require.NoError(t, err)
	t.Cleanup(pp.Release)

	s := NewScene(newTestCamera(mgl32.Vec3{}))
	s.Add(glowingCube("left", mgl32.Vec3{-1.2, 0, -4}, 4))
	s.Add(glowingCube("right", mgl32.Vec3{1.2, 0, -4}, 0.5))
	require.NoError(t, s.Init(r))

	require.NoError(t, r.BeginFrame())
	pp.BeginSceneCapture()
	stats, err := s.DrawCalls(r, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Drawn)
	pp.RunPostProcess(postprocess.DefaultBloomParameters())
	r.EndFrame()

	rb := r.Backend().(renderer.Readback)
	radiance, err := rb.ReadTexture(pp.HDRTarget().Color(postprocess.AttachmentRadiance))
	require.NoError(t, err)
	bright, err := rb.ReadTexture(pp.HDRTarget().Color(postprocess.AttachmentBright))
	require.NoError(t, err)

	// Both cubes land in the radiance attachment, only the hot one passes the threshold.
	assert.InDelta(t, 4, radiance.At(10, 8)[0], 1e-4)
	assert.InDelta(t, 0.5, radiance.At(22, 8)[0], 1e-4)
	assert.InDelta(t, 4, bright.At(10, 8)[0], 1e-4)
	assert.Zero(t, bright.At(22, 8)[0])
	assert.Zero(t, radiance.At(0, 0)[0])
}

func TestDemoLayout(t *testing.T) {
	d := NewDemo(newTestCamera(mgl32.Vec3{0, -0.7, 3}), state.Default())

	// field, 11x6 grass blades, three cows, the abductee, the truck, the UFO with its lamp, the point light marker
	assert.Equal(t, 1+66+3+1+1+2+1, d.Count())
	require.Len(t, d.Lights(), light.MaxLights)
	assert.Equal(t, light.LightTypeDirectional, d.Lights()[0].Type())
	assert.Same(t, d.PointLight(), d.Lights()[1])
	assert.Same(t, d.Beam(), d.Lights()[2])
	assert.Same(t, d.Flashlight(), d.Lights()[3])

	assert.Equal(t, mgl32.Vec3{-6, 1, 4}, d.Beam().Position())
	assert.False(t, d.Beam().Enabled())
	assert.False(t, d.Flashlight().Enabled())
	assert.Equal(t, mgl32.Vec3{4, 4, 4}, d.PointLight().Position())
	assert.Equal(t, mgl32.Vec3{4, 4, 4}, d.PointLightMarker().Position())

	sky, ok := d.Sky()
	require.True(t, ok)
	assert.True(t, sky.SunDirection.ApproxEqualThreshold(mgl32.Vec3{-0.2, -1, -0.3}.Normalize(), 1e-5))
}

func TestDemoAbduction(t *testing.T) {
	d := NewDemo(newTestCamera(mgl32.Vec3{0, -0.7, 3}), state.Default())
	st := state.Default()

	d.Update(0.016, &st)
	assert.Equal(t, state.DefaultCowHeight, st.CowHeight)
	assert.True(t, d.Abductee().Enabled())

	st.Abduct = true
	d.Update(0.016, &st)
	assert.True(t, d.Beam().Enabled())
	assert.InDelta(t, state.DefaultCowHeight+AbductionStep, st.CowHeight, 1e-6)
	assert.InDelta(t, st.CowHeight, d.Abductee().Position()[1], 1e-6)

	for i := 0; i < 200; i++ {
		d.Update(0.016, &st)
	}
	assert.False(t, d.Abductee().Enabled())
	assert.GreaterOrEqual(t, st.CowHeight, AbductionCeiling)
	assert.Less(t, st.CowHeight, AbductionCeiling+AbductionStep+1e-4)
}

func TestDemoFlashlightFollowsCamera(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, -0.7, 3})
	d := NewDemo(cam, state.Default())
	st := state.Default()
	st.Flashlight = true

	cam.Controller().SetPosition(mgl32.Vec3{2, 0, 1})
	cam.Controller().SetFront(mgl32.Vec3{1, 0, 0})
	d.Update(0.016, &st)

	assert.True(t, d.Flashlight().Enabled())
	assert.Equal(t, mgl32.Vec3{2, 0, 1}, d.Flashlight().Position())
	assert.True(t, d.Flashlight().Direction().ApproxEqual(mgl32.Vec3{1, 0, 0}))

	st.Flashlight = false
	d.Update(0.016, &st)
	assert.False(t, d.Flashlight().Enabled())
}

func TestDemoPointLightFromState(t *testing.T) {
	d := NewDemo(newTestCamera(mgl32.Vec3{}), state.Default())
	st := state.Default()
	st.PointLight.Position = mgl32.Vec3{1, 2, 3}
	st.PointLight.Diffuse = mgl32.Vec3{0.2, 0.3, 0.4}
	st.PointLight.Linear = 0.5

	d.Update(0.5, &st)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, d.PointLight().Position())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, d.PointLightMarker().Position())
	assert.Equal(t, mgl32.Vec3{0.2, 0.3, 0.4}, d.PointLight().Diffuse())
	_, linear, _ := d.PointLight().Attenuation()
	assert.Equal(t, float32(0.5), linear)

	// The saucer turns one radian per second.
	assert.InDelta(t, mgl32.RadToDeg(0.5), d.UFO().Rotation()[1], 1e-4)
}

func TestSkyRadiance(t *testing.T) {
	sky := DefaultSky(mgl32.Vec3{0, -1, 0})

	assert.Equal(t, sky.Horizon, sky.Radiance(mgl32.Vec3{1, 0, 0}))
	assert.True(t, sky.Radiance(mgl32.Vec3{0, -1, 0}).ApproxEqualThreshold(sky.Ground, 1e-5))
	// Straight up looks into the sun.
	assert.True(t, sky.Radiance(mgl32.Vec3{0, 1, 0}).ApproxEqualThreshold(sky.Zenith.Add(sky.SunColor), 1e-5))

	sky.SunDirection = mgl32.Vec3{1, 0, 0}
	assert.True(t, sky.Radiance(mgl32.Vec3{0, 1, 0}).ApproxEqualThreshold(sky.Zenith, 1e-5))
	assert.Less(t, sky.Horizon.Dot(common.Luminance), float32(1))
	assert.Less(t, sky.Zenith.Dot(common.Luminance), float32(1))
}

func TestSkyDirectionIgnoresCameraPosition(t *testing.T) {
	near := newTestCamera(mgl32.Vec3{})
	far := newTestCamera(mgl32.Vec3{50, -3, 20})

	a := SkyDirection(SkyInverseViewProjection(near.ViewMatrix(), near.ProjectionMatrix()), 0, 0)
	b := SkyDirection(SkyInverseViewProjection(far.ViewMatrix(), far.ProjectionMatrix()), 0, 0)
	assert.True(t, a.ApproxEqualThreshold(b, 1e-4))
	assert.True(t, a.ApproxEqualThreshold(near.Controller().Front().Normalize(), 1e-4))
}

func TestSkyProgramBrightPass(t *testing.T) {
	u := pipeline.NewPipeline("uniforms")
	DefaultSky(mgl32.Vec3{0, 0, -1}).apply(u)
	u.SetMat4("inv_view_proj", mgl32.Ident4())
	u.SetFloat("threshold", 1)

	stage := SkyProgram.Prepare(u)
	vary := software.Varyings{}
	clip := stage.Vertex([]float32{0, 0, 0.5, 0.5}, &vary)
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 1}, clip, "the sky sits on the far plane")

	// NDC (0, 0) maps to +z through the identity, where the sun is.
	var out [software.MaxColorTargets]mgl32.Vec4
	require.True(t, stage.Fragment(&vary, nil, &out))
	assert.Greater(t, out[0][0], float32(1))
	assert.Equal(t, out[0], out[1])

	u.SetMat4("inv_view_proj", mgl32.HomogRotate3DY(mgl32.DegToRad(90)))
	stage = SkyProgram.Prepare(u)
	require.True(t, stage.Fragment(&vary, nil, &out))
	assert.Less(t, out[0][0], float32(1))
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, out[1])
}

func TestSkyFillsOnlyUncoveredPixels(t *testing.T) {
	r := newTestRenderer(t)
	pp, err := postprocess.New(r, 32, 16)
	require.NoError(t, err)
	t.Cleanup(pp.Release)

	s := NewScene(newTestCamera(mgl32.Vec3{}), WithSky(DefaultSky(mgl32.Vec3{0, -1, 0})))
	s.Add(glowingCube("cube", mgl32.Vec3{0, 0, -4}, 4))
	require.NoError(t, s.Init(r))
	require.NotNil(t, s.SkyPipeline())
	assert.Same(t, r.Pipeline(SkyPipelineKey), s.SkyPipeline())

	require.NoError(t, r.BeginFrame())
	pp.BeginSceneCapture()
	stats, err := s.DrawCalls(r, 1)
	require.NoError(t, err)
	assert.Equal(t, DrawStats{Drawn: 1, Sky: true}, stats)
	r.EndFrame()

	rb := r.Backend().(renderer.Readback)
	radiance, err := rb.ReadTexture(pp.HDRTarget().Color(postprocess.AttachmentRadiance))
	require.NoError(t, err)
	bright, err := rb.ReadTexture(pp.HDRTarget().Color(postprocess.AttachmentBright))
	require.NoError(t, err)

	// The cube keeps its radiance, the background is sky below the bright threshold.
	assert.InDelta(t, 4, radiance.At(16, 8)[0], 1e-4)
	assert.InDelta(t, 4, bright.At(16, 8)[0], 1e-4)
	corner := radiance.At(0, 0)
	assert.Greater(t, corner[2], float32(0.5))
	assert.Zero(t, bright.At(0, 0)[0])

	s.Release()
	assert.Nil(t, s.(*scene).skyQuad)
}

func TestSceneWithoutSky(t *testing.T) {
	r := newTestRenderer(t)
	s := NewScene(newTestCamera(mgl32.Vec3{}))
	require.NoError(t, s.Init(r))

	_, ok := s.Sky()
	assert.False(t, ok)
	assert.Nil(t, s.SkyPipeline())
	assert.Nil(t, r.Pipeline(SkyPipelineKey))
}
