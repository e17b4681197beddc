// Package postprocess implements the HDR bloom chain: an offscreen HDR target the scene
// renders into, a separable gaussian blur over a ping-pong pair, and a composite pass
// that adds the bloom and tonemaps to the screen.
package postprocess

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
)

// Device is the part of renderer.Renderer the post-process chain drives.
type Device interface {
	CreateTarget(desc renderer.TargetDescriptor) (renderer.RenderTarget, error)
	CreateVertexBuffer(label string, layout pipeline.VertexLayout, data []float32) (renderer.VertexBuffer, error)
	RegisterPipeline(p pipeline.Pipeline) error
	UsePipeline(p pipeline.Pipeline)
	BindTarget(t renderer.RenderTarget)
	Clear(color common.Color)
	BindTexture(unit int, tex renderer.Texture)
	Draw(buf renderer.VertexBuffer) error
}

var _ Device = renderer.Renderer(nil)
