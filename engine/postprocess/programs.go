package postprocess

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Pipeline keys of the post-process passes.
const (
	BlurPipelineKey      = "postprocess.blur"
	CompositePipelineKey = "postprocess.composite"
)

// BlurWeights are the gaussian weights of the center tap and the four taps on each side.
var BlurWeights = [5]float32{0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216}

// fullscreenVertex passes the quad through and flips v so that texture row 0 is the top.
func fullscreenVertex(in []float32, out *software.Varyings) mgl32.Vec4 {
	out[0], out[1] = in[2], 1-in[3]
	return mgl32.Vec4{in[0], in[1], 0, 1}
}

// BlurProgram is the CPU version of blur.wgsl.
var BlurProgram = software.ProgramFunc(func(u software.Uniforms) software.Stage {
	horizontal := u.Int("horizontal") != 0
	return software.Stage{
		Varyings: 2,
		Vertex:   fullscreenVertex,
		Fragment: func(in *software.Varyings, tex software.Sampler, out *[software.MaxColorTargets]mgl32.Vec4) bool {
			tw, th := tex.TexelSize(0)
			dx, dy := float32(0), th
			if horizontal {
				dx, dy = tw, 0
			}
			s, t := in[0], in[1]

			result := tex.Sample(0, s, t).Vec3().Mul(BlurWeights[0])
			for i := 1; i < len(BlurWeights); i++ {
				ox, oy := dx*float32(i), dy*float32(i)
				result = result.Add(tex.Sample(0, s+ox, t+oy).Vec3().Mul(BlurWeights[i]))
				result = result.Add(tex.Sample(0, s-ox, t-oy).Vec3().Mul(BlurWeights[i]))
			}
			out[0] = result.Vec4(1)
			return true
		},
	}
})

// CompositeProgram is the CPU version of composite.wgsl.
var CompositeProgram = software.ProgramFunc(func(u software.Uniforms) software.Stage {
	bloom := u.Int("bloom") != 0
	exposure := u.Float("exposure")
	return software.Stage{
		Varyings: 2,
		Vertex:   fullscreenVertex,
		Fragment: func(in *software.Varyings, tex software.Sampler, out *[software.MaxColorTargets]mgl32.Vec4) bool {
			hdr := tex.Sample(0, in[0], in[1]).Vec3()
			bloomColor := tex.Sample(1, in[0], in[1]).Vec3()
			if bloom {
				hdr = hdr.Add(bloomColor)
			}
			out[0] = Tonemap(hdr, exposure).Vec4(1)
			return true
		},
	}
})

// newFullscreenPipeline builds a pass over the quad from one WGSL file and its CPU program.
func newFullscreenPipeline(key, source, shaderDir string, program software.Program, units int) (pipeline.Pipeline, error) {
	vs, fs, err := shader.LoadPair(shaderDir, source)
	if err != nil {
		return nil, fmt.Errorf("postprocess: failed to load %s: %w", source, err)
	}
	return pipeline.NewPipeline(key,
		pipeline.WithShaders(vs, fs),
		pipeline.WithProgram(program),
		pipeline.WithVertexLayout(pipeline.PositionUV),
		pipeline.WithTextureUnits(units),
		pipeline.WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithDepthWriteEnabled(false),
	), nil
}

// NewBlurPipeline builds the blur pass. A non-empty shaderDir overrides the embedded blur.wgsl.
func NewBlurPipeline(shaderDir string) (pipeline.Pipeline, error) {
	return newFullscreenPipeline(BlurPipelineKey, shader.SourceBlur, shaderDir, BlurProgram, 1)
}

// NewCompositePipeline builds the composite pass. A non-empty shaderDir overrides the embedded composite.wgsl.
func NewCompositePipeline(shaderDir string) (pipeline.Pipeline, error) {
	return newFullscreenPipeline(CompositePipelineKey, shader.SourceComposite, shaderDir, CompositeProgram, 2)
}
