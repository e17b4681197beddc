package postprocess

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/rs/zerolog"
)

// CompositeReport describes one Composite.Run.
type CompositeReport struct {
	Draws int

	// BloomBound is true when the blurred texture was bound to unit 1.
	BloomBound bool
}

// Composite adds bloom to the scene and tonemaps the result onto the screen.
type Composite struct {
	device   Device
	pipeline pipeline.Pipeline
	quad     *Quad
	logger   zerolog.Logger
}

// NewComposite wires the composite pass.
func NewComposite(device Device, p pipeline.Pipeline, quad *Quad, logger zerolog.Logger) *Composite {
	return &Composite{device: device, pipeline: p, quad: quad, logger: logger}
}

// Run draws the final image to the screen. The blurred texture is only bound when bloom
// is enabled; otherwise unit 1 samples sharp and the shader ignores it, so the output
// is the tonemapped scene alone.
//
// Parameters:
//   - sharp: the scene radiance
//   - blurred: the blurred bright pass
//   - bloomEnabled: whether to add the bloom
//   - exposure: exposure for the tonemap
//
// Returns:
//   - CompositeReport: draw count and whether the bloom texture was bound
func (c *Composite) Run(sharp, blurred renderer.Texture, bloomEnabled bool, exposure float32) CompositeReport {
	var report CompositeReport

	c.device.BindTarget(nil)
	c.device.Clear(common.Color{0, 0, 0, 1})
	c.device.UsePipeline(c.pipeline)
	c.device.BindTexture(0, sharp)
	if bloomEnabled {
		c.device.BindTexture(1, blurred)
		report.BloomBound = true
	} else {
		c.device.BindTexture(1, sharp)
	}
	c.pipeline.SetInt("bloom", common.BoolToInt(bloomEnabled))
	c.pipeline.SetFloat("exposure", exposure)

	if err := c.quad.Draw(); err != nil {
		c.logger.Error().Err(err).Msg("composite pass failed")
		return report
	}
	report.Draws++
	return report
}
