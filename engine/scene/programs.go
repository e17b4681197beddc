package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/light"
	"github.com/Carmen-Shannon/oxy-bloom/engine/model"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ScenePipelineKey is the pipeline key of the lit scene pass.
const ScenePipelineKey = "scene.phong"

// SceneProgram is the CPU version of scene.wgsl. It writes radiance to target 0 and
// the bright pass to target 1.
var SceneProgram = software.ProgramFunc(func(u software.Uniforms) software.Stage {
	mdl := u.Mat4("model")
	normalMatrix := u.Mat4("normal_matrix")
	viewProj := u.Mat4("view_proj")
	viewPos := u.Vec3("view_pos")
	threshold := u.Float("threshold")
	base := u.Vec4("base_color").Vec3()
	specular := u.Vec3("specular_color")
	shininess := u.Float("shininess")
	emissive := u.Vec3("emissive")
	cutoff := u.Float("alpha_cutoff")

	var lights [light.MaxLights]light.Params
	for i := range lights {
		lights[i] = light.Unpack(u, i)
	}

	return software.Stage{
		Varyings: 8,
		Vertex: func(in []float32, out *software.Varyings) mgl32.Vec4 {
			world := mdl.Mul4x1(mgl32.Vec4{in[0], in[1], in[2], 1})
			normal := normalMatrix.Mul4x1(mgl32.Vec4{in[3], in[4], in[5], 0})
			out[0], out[1], out[2] = world[0], world[1], world[2]
			out[3], out[4], out[5] = normal[0], normal[1], normal[2]
			out[6], out[7] = in[6], in[7]
			return viewProj.Mul4x1(world)
		},
		Fragment: func(in *software.Varyings, _ software.Sampler, out *[software.MaxColorTargets]mgl32.Vec4) bool {
			if BladeDiscard(cutoff, in[6], in[7]) {
				return false
			}
			pos := mgl32.Vec3{in[0], in[1], in[2]}
			surface := light.Surface{
				Normal:        normalize(mgl32.Vec3{in[3], in[4], in[5]}),
				Position:      pos,
				ViewDir:       normalize(viewPos.Sub(pos)),
				Base:          base,
				SpecularColor: specular,
				Shininess:     shininess,
			}
			color := emissive
			for i := range lights {
				color = color.Add(light.Shade(lights[i], surface))
			}
			out[0] = color.Vec4(1)
			out[1] = BrightPass(color, threshold).Vec4(1)
			return true
		},
	}
})

// BrightPass returns color when its luminance is above threshold and black otherwise.
//
// Parameters:
//   - color: linear HDR radiance
//   - threshold: the luminance cut
//
// Returns:
//   - mgl32.Vec3: the bright-pass contribution
func BrightPass(color mgl32.Vec3, threshold float32) mgl32.Vec3 {
	if color.Dot(common.Luminance) > threshold {
		return color
	}
	return mgl32.Vec3{}
}

// BladeDiscard reports whether a billboard fragment falls outside the grass blade cut-out.
// A cutoff of zero keeps every fragment.
func BladeDiscard(cutoff, u, v float32) bool {
	return cutoff > 0 && v > 1-math32.Abs(2*u-1)
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if l := v.Len(); l > 0 {
		return v.Mul(1 / l)
	}
	return v
}

// NewScenePipeline builds the lit scene pass. A non-empty shaderDir overrides the embedded scene.wgsl.
//
// Parameters:
//   - shaderDir: override directory, "" for the embedded shader
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
//   - error: an error if the shader cannot be loaded
func NewScenePipeline(shaderDir string) (pipeline.Pipeline, error) {
	vs, fs, err := shader.LoadPair(shaderDir, shader.SourceScene)
	if err != nil {
		return nil, fmt.Errorf("scene: failed to load %s: %w", shader.SourceScene, err)
	}
	return pipeline.NewPipeline(ScenePipelineKey,
		pipeline.WithShaders(vs, fs),
		pipeline.WithProgram(SceneProgram),
		pipeline.WithVertexLayout(model.Layout),
	), nil
}
