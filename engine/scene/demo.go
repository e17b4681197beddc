package scene

import (
	"github.com/Carmen-Shannon/oxy-bloom/engine/camera"
	"github.com/Carmen-Shannon/oxy-bloom/engine/game_object"
	"github.com/Carmen-Shannon/oxy-bloom/engine/light"
	"github.com/Carmen-Shannon/oxy-bloom/engine/model"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/state"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// AbductionStep is how far the abductee rises per frame while the beam is on.
	AbductionStep float32 = 0.02

	// AbductionCeiling is the height at which the abductee disappears into the UFO.
	AbductionCeiling float32 = 1.3

	groundY = -0.8
)

var (
	ufoPosition      = mgl32.Vec3{-6, 1, 4}
	directionalLight = mgl32.Vec3{-0.2, -1, -0.3}

	cowPositions = []mgl32.Vec3{
		{-4, -0.7, 6},
		{-7.5, -0.75, 1.3},
		{-8, -0.7, 5},
	}
	cowScale = mgl32.Vec3{0.6, 0.2, 0.3}
)

// Demo is the fixed farm scene: a field with grass, grazing cows, a truck, a spinning UFO
// that can abduct one cow, a point light, a camera flashlight and a sky lit by the sun.
type Demo struct {
	Scene

	ufo      game_object.GameObject
	abductee game_object.GameObject
	marker   game_object.GameObject

	directional light.Light
	point       light.Light
	beam        light.Light
	flashlight  light.Light

	elapsed float32
}

// NewDemo builds the farm scene from st. Lights are added in the order directional,
// point, UFO beam, flashlight.
//
// Parameters:
//   - cam: the camera the scene is drawn from
//   - st: the program state the scene starts from
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - *Demo: the scene, not yet initialized
func NewDemo(cam camera.Camera, st state.ProgramState, options ...SceneBuilderOption) *Demo {
	defaults := []SceneBuilderOption{WithName("farm"), WithSky(DefaultSky(directionalLight))}
	d := &Demo{Scene: NewScene(cam, append(defaults, options...)...)}

	cube := model.NewCube("cube")
	field := model.NewPlane("field", 15, 6)
	blade := model.NewBillboard("grass")

	d.Add(game_object.NewGameObject(
		game_object.WithName("field"),
		game_object.WithModel(field),
		game_object.WithPosition(mgl32.Vec3{2, groundY, 2}),
		game_object.WithMaterial(material.NewMaterial(
			material.WithName("field"),
			material.WithBaseColor(mgl32.Vec4{0.22, 0.4, 0.12, 1}),
			material.WithSpecular(mgl32.Vec3{0.1, 0.1, 0.1}, 8),
		)),
	))

	grass := material.NewMaterial(
		material.WithName("grass"),
		material.WithBaseColor(mgl32.Vec4{0.3, 0.6, 0.18, 1}),
		material.WithSpecular(mgl32.Vec3{0.2, 0.2, 0.2}, 16),
		material.WithAlphaCutoff(0.5),
	)
	for x := -8; x <= 12; x += 2 {
		for z := -2; z >= -7; z-- {
			d.Add(game_object.NewGameObject(
				game_object.WithName("grass"),
				game_object.WithModel(blade),
				game_object.WithMaterial(grass),
				game_object.WithPosition(mgl32.Vec3{float32(x), groundY, float32(z)}),
			))
		}
	}

	hide := material.NewMaterial(
		material.WithName("cow"),
		material.WithBaseColor(mgl32.Vec4{0.9, 0.88, 0.82, 1}),
	)
	for _, pos := range cowPositions {
		d.Add(game_object.NewGameObject(
			game_object.WithName("cow"),
			game_object.WithModel(cube),
			game_object.WithMaterial(hide),
			game_object.WithPosition(pos),
			game_object.WithScale(cowScale),
		))
	}
	d.abductee = game_object.NewGameObject(
		game_object.WithName("abductee"),
		game_object.WithModel(cube),
		game_object.WithMaterial(hide),
		game_object.WithPosition(mgl32.Vec3{ufoPosition[0], state.DefaultCowHeight, ufoPosition[2]}),
		game_object.WithScale(cowScale),
	)
	d.Add(d.abductee)

	d.Add(game_object.NewGameObject(
		game_object.WithName("truck"),
		game_object.WithModel(cube),
		game_object.WithMaterial(material.NewMaterial(
			material.WithName("paint"),
			material.WithBaseColor(mgl32.Vec4{0.65, 0.08, 0.06, 1}),
			material.WithSpecular(mgl32.Vec3{1, 1, 1}, 64),
		)),
		game_object.WithPosition(mgl32.Vec3{0, -0.77, 8}),
		game_object.WithRotation(mgl32.Vec3{-15, -90, -5}),
		game_object.WithScale(mgl32.Vec3{1.6, 0.5, 0.7}),
	))

	d.directional = light.NewLight(light.LightTypeDirectional,
		light.WithDirection(directionalLight),
		light.WithPhong(mgl32.Vec3{0.05, 0.05, 0.05}, mgl32.Vec3{0.4, 0.4, 0.4}, mgl32.Vec3{0.5, 0.5, 0.5}),
	)
	d.point = light.NewLight(light.LightTypePoint)
	d.beam = light.NewLight(light.LightTypeSpot,
		light.WithDirection(mgl32.Vec3{0, -1, 0}),
		light.WithPhong(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}),
		light.WithAttenuation(1, 0.09, 0.032),
		light.WithSpotCone(12.5, 15),
		light.WithEnabled(st.Abduct),
	)
	d.flashlight = light.NewLight(light.LightTypeSpot,
		light.WithPhong(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}),
		light.WithAttenuation(1, 0.09, 0.032),
		light.WithSpotCone(12.5, 15),
		light.WithEnabled(st.Flashlight),
	)

	d.ufo = game_object.NewGameObject(
		game_object.WithName("ufo"),
		game_object.WithModel(cube),
		game_object.WithMaterial(material.NewMaterial(
			material.WithName("hull"),
			material.WithBaseColor(mgl32.Vec4{0.55, 0.58, 0.62, 1}),
			material.WithSpecular(mgl32.Vec3{1, 1, 1}, 32),
		)),
		game_object.WithPosition(ufoPosition),
		game_object.WithScale(mgl32.Vec3{1.4, 0.18, 1.4}),
		game_object.WithLight(d.beam),
	)
	d.Add(d.ufo)
	d.Add(game_object.NewGameObject(
		game_object.WithName("ufo.lamp"),
		game_object.WithModel(cube),
		game_object.WithMaterial(material.NewMaterial(
			material.WithName("lamp"),
			material.WithBaseColor(mgl32.Vec4{0, 0, 0, 1}),
			material.WithEmissive(mgl32.Vec3{2.5, 4, 2.5}),
		)),
		game_object.WithPosition(ufoPosition.Add(mgl32.Vec3{0, -0.12, 0})),
		game_object.WithScale(mgl32.Vec3{0.4, 0.08, 0.4}),
	))

	d.marker = game_object.NewGameObject(
		game_object.WithName("point.marker"),
		game_object.WithModel(cube),
		game_object.WithMaterial(material.NewMaterial(
			material.WithName("bulb"),
			material.WithBaseColor(mgl32.Vec4{0, 0, 0, 1}),
			material.WithEmissive(mgl32.Vec3{6, 6, 6}),
		)),
		game_object.WithScale(mgl32.Vec3{0.2, 0.2, 0.2}),
		game_object.WithLight(d.point),
	)
	d.Add(d.marker)

	d.AddLight(d.directional)
	d.AddLight(d.point)
	d.AddLight(d.beam)
	d.AddLight(d.flashlight)

	d.syncPointLight(st.PointLight)
	d.syncFlashlight(st.Flashlight)
	return d
}

// UFO returns the spinning saucer. The beam light is attached to it.
func (d *Demo) UFO() game_object.GameObject {
	return d.ufo
}

// Abductee returns the cow the UFO lifts.
func (d *Demo) Abductee() game_object.GameObject {
	return d.abductee
}

// PointLightMarker returns the emissive cube drawn at the point light.
func (d *Demo) PointLightMarker() game_object.GameObject {
	return d.marker
}

// DirectionalLight returns the sun.
func (d *Demo) DirectionalLight() light.Light {
	return d.directional
}

// PointLight returns the point light.
func (d *Demo) PointLight() light.Light {
	return d.point
}

// Beam returns the UFO's downward spot light.
func (d *Demo) Beam() light.Light {
	return d.beam
}

// Flashlight returns the spot light that follows the camera.
func (d *Demo) Flashlight() light.Light {
	return d.flashlight
}

// Update advances the scene by one frame. It spins the UFO, applies the point light
// and toggles from st, moves the flashlight to the camera and lifts the abductee.
// The abductee's height is written back to st.CowHeight.
//
// Parameters:
//   - dt: seconds since the previous frame
//   - st: the program state, updated in place
func (d *Demo) Update(dt float32, st *state.ProgramState) {
	d.elapsed += dt
	d.ufo.SetRotation(mgl32.Vec3{0, mgl32.RadToDeg(d.elapsed), 0})

	d.syncPointLight(st.PointLight)
	d.beam.SetEnabled(st.Abduct)
	d.syncFlashlight(st.Flashlight)
	d.updateAbduction(st)
}

func (d *Demo) syncPointLight(p state.PointLightState) {
	d.marker.SetPosition(p.Position)
	d.point.SetAmbient(p.Ambient)
	d.point.SetDiffuse(p.Diffuse)
	d.point.SetSpecular(p.Specular)
	d.point.SetAttenuation(p.Constant, p.Linear, p.Quadratic)
}

func (d *Demo) syncFlashlight(on bool) {
	d.flashlight.SetEnabled(on)
	if ctrl := d.Camera().Controller(); ctrl != nil {
		d.flashlight.SetPosition(ctrl.Position())
		d.flashlight.SetDirection(ctrl.Front())
	}
}

// updateAbduction stands the abductee in the field until the beam is on, then lifts it a
// fixed step per frame and hides it once it reaches the saucer.
func (d *Demo) updateAbduction(st *state.ProgramState) {
	if !st.Abduct {
		d.abductee.SetPosition(mgl32.Vec3{ufoPosition[0], state.DefaultCowHeight, ufoPosition[2]})
		d.abductee.SetEnabled(true)
		return
	}
	if st.CowHeight >= AbductionCeiling {
		d.abductee.SetEnabled(false)
		return
	}
	st.CowHeight += AbductionStep
	d.abductee.SetPosition(mgl32.Vec3{ufoPosition[0], st.CowHeight, ufoPosition[2]})
	d.abductee.SetEnabled(true)
}
