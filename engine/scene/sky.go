package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// SkyPipelineKey is the pipeline key of the sky pass.
const SkyPipelineKey = "scene.sky"

// skyVertices is a clip-space strip covering the viewport, (x, y, u, v) per vertex.
var skyVertices = []float32{
	-1, 1, 0, 1,
	-1, -1, 0, 0,
	1, 1, 1, 1,
	1, -1, 1, 0,
}

// Sky is a procedural backdrop drawn at the far plane after every object, so it only
// fills pixels no object covered.
type Sky struct {
	Zenith  mgl32.Vec3
	Horizon mgl32.Vec3
	Ground  mgl32.Vec3

	// SunDirection is the direction sunlight travels. The disc is drawn opposite it.
	SunDirection mgl32.Vec3
	SunColor     mgl32.Vec3

	// SunCos is the cosine of the disc's angular radius.
	SunCos float32
}

// DefaultSky returns a clear day sky whose sun sits opposite sunDirection. The gradient
// stays below a luminance of 1, so only the sun disc reaches the bright pass at the
// default threshold.
//
// Parameters:
//   - sunDirection: the direction the sun's light travels
//
// Returns:
//   - Sky: the sky
func DefaultSky(sunDirection mgl32.Vec3) Sky {
	return Sky{
		Zenith:       mgl32.Vec3{0.18, 0.32, 0.6},
		Horizon:      mgl32.Vec3{0.55, 0.65, 0.75},
		Ground:       mgl32.Vec3{0.12, 0.14, 0.1},
		SunDirection: normalize(sunDirection),
		SunColor:     mgl32.Vec3{6, 5.5, 4.5},
		SunCos:       math32.Cos(mgl32.DegToRad(1.5)),
	}
}

// Radiance returns the sky color seen along the unit direction dir.
func (s Sky) Radiance(dir mgl32.Vec3) mgl32.Vec3 {
	var color mgl32.Vec3
	if dir[1] >= 0 {
		color = mix(s.Horizon, s.Zenith, math32.Sqrt(dir[1]))
	} else {
		color = mix(s.Horizon, s.Ground, min(-dir[1]*4, 1))
	}
	if dir.Dot(s.SunDirection.Mul(-1)) > s.SunCos {
		color = color.Add(s.SunColor)
	}
	return color
}

func (s Sky) apply(p pipeline.Pipeline) {
	p.SetVec3("zenith", s.Zenith)
	p.SetVec3("horizon", s.Horizon)
	p.SetVec3("ground", s.Ground)
	// The shader takes the direction towards the sun.
	p.SetVec3("sun_dir", s.SunDirection.Mul(-1))
	p.SetVec3("sun_color", s.SunColor)
	p.SetFloat("sun_cos", s.SunCos)
}

// SkyInverseViewProjection returns the inverse of proj * view with the view's translation
// removed, mapping far-plane NDC to a world direction from the eye.
//
// Parameters:
//   - view: the camera view matrix
//   - proj: the camera projection matrix
//
// Returns:
//   - mgl32.Mat4: the inverse rotation-only view-projection
func SkyInverseViewProjection(view, proj mgl32.Mat4) mgl32.Mat4 {
	view[12], view[13], view[14] = 0, 0, 0
	return proj.Mul4(view).Inv()
}

// SkyDirection is the unit world direction through the far-plane point at (x, y) in NDC.
func SkyDirection(invViewProj mgl32.Mat4, x, y float32) mgl32.Vec3 {
	p := invViewProj.Mul4x1(mgl32.Vec4{x, y, 1, 1})
	if p[3] == 0 {
		return normalize(p.Vec3())
	}
	return normalize(p.Vec3().Mul(1 / p[3]))
}

// SkyProgram is the CPU version of sky.wgsl. Every vertex sits on the far plane; the
// fragment writes the sky radiance to target 0 and its bright pass to target 1.
var SkyProgram = software.ProgramFunc(func(u software.Uniforms) software.Stage {
	invViewProj := u.Mat4("inv_view_proj")
	threshold := u.Float("threshold")
	sky := Sky{
		Zenith:       u.Vec3("zenith"),
		Horizon:      u.Vec3("horizon"),
		Ground:       u.Vec3("ground"),
		SunDirection: u.Vec3("sun_dir").Mul(-1),
		SunColor:     u.Vec3("sun_color"),
		SunCos:       u.Float("sun_cos"),
	}

	return software.Stage{
		Varyings: 2,
		Vertex: func(in []float32, out *software.Varyings) mgl32.Vec4 {
			out[0], out[1] = in[0], in[1]
			return mgl32.Vec4{in[0], in[1], 1, 1}
		},
		Fragment: func(in *software.Varyings, _ software.Sampler, out *[software.MaxColorTargets]mgl32.Vec4) bool {
			color := sky.Radiance(SkyDirection(invViewProj, in[0], in[1]))
			out[0] = color.Vec4(1)
			out[1] = BrightPass(color, threshold).Vec4(1)
			return true
		},
	}
})

// NewSkyPipeline builds the sky pass: depth tested with LessEqual against the cleared
// far plane, no depth writes. A non-empty shaderDir overrides the embedded sky.wgsl.
//
// Parameters:
//   - shaderDir: override directory, "" for the embedded shader
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
//   - error: an error if the shader cannot be loaded
func NewSkyPipeline(shaderDir string) (pipeline.Pipeline, error) {
	vs, fs, err := shader.LoadPair(shaderDir, shader.SourceSky)
	if err != nil {
		return nil, fmt.Errorf("scene: failed to load %s: %w", shader.SourceSky, err)
	}
	return pipeline.NewPipeline(SkyPipelineKey,
		pipeline.WithShaders(vs, fs),
		pipeline.WithProgram(SkyProgram),
		pipeline.WithVertexLayout(pipeline.PositionUV),
		pipeline.WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		pipeline.WithDepthCompare(wgpu.CompareFunctionLessEqual),
		pipeline.WithDepthWriteEnabled(false),
	), nil
}

func mix(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
