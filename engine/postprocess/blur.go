package postprocess

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/rs/zerolog"
)

// BlurState tracks which ping-pong buffer each blur pass reads and writes.
type BlurState struct {
	// Horizontal is the direction of the next pass.
	Horizontal bool

	// First is true until the first pass has been drawn. The first pass reads the bright-pass source.
	First bool

	// WriteIndex is the ping-pong target the next pass writes.
	WriteIndex int

	// ReadIndex is the ping-pong texture the next pass reads when First is false.
	ReadIndex int

	// FinalIndex is the target written by the most recent pass, or -1 before any pass.
	FinalIndex int
}

// NewBlurState returns the state before the first pass.
func NewBlurState() BlurState {
	return BlurState{
		Horizontal: true,
		First:      true,
		WriteIndex: 1,
		ReadIndex:  0,
		FinalIndex: -1,
	}
}

// Advance moves the state past a completed pass: the buffer just written becomes the
// one read, the direction flips.
func (s *BlurState) Advance() {
	s.FinalIndex = s.WriteIndex
	s.ReadIndex = s.WriteIndex
	s.WriteIndex = 1 - s.WriteIndex
	s.Horizontal = !s.Horizontal
	s.First = false
}

// BlurReport describes one Blur.Run.
type BlurReport struct {
	Draws      int
	FinalIndex int
}

// Blur runs the separable gaussian blur over a ping-pong pair.
type Blur struct {
	device   Device
	pipeline pipeline.Pipeline
	quad     *Quad
	targets  *PingPong
	logger   zerolog.Logger
}

// NewBlur wires the blur pass to its buffers.
//
// Parameters:
//   - device: the device to draw with
//   - p: the registered blur pipeline
//   - quad: the full-screen quad
//   - targets: the ping-pong pair
//   - logger: logger for draw failures
//
// Returns:
//   - *Blur: the blur stage
func NewBlur(device Device, p pipeline.Pipeline, quad *Quad, targets *PingPong, logger zerolog.Logger) *Blur {
	return &Blur{device: device, pipeline: p, quad: quad, targets: targets, logger: logger}
}

// Run blurs source for the given number of passes, alternating direction starting with horizontal.
// With iterations <= 0 nothing is drawn and source is returned unchanged.
//
// Parameters:
//   - source: the bright-pass texture
//   - iterations: number of passes
//
// Returns:
//   - renderer.Texture: the blurred texture
//   - BlurReport: draw count and final index
func (b *Blur) Run(source renderer.Texture, iterations int) (renderer.Texture, BlurReport) {
	state := NewBlurState()
	report := BlurReport{FinalIndex: state.FinalIndex}
	if iterations <= 0 {
		return source, report
	}

	b.device.UsePipeline(b.pipeline)
	for i := 0; i < iterations; i++ {
		b.device.BindTarget(b.targets.TargetFor(state.WriteIndex))
		b.pipeline.SetInt("horizontal", common.BoolToInt(state.Horizontal))
		if state.First {
			b.device.BindTexture(0, source)
		} else {
			b.device.BindTexture(0, b.targets.ColorOf(state.ReadIndex))
		}
		if err := b.quad.Draw(); err != nil {
			b.logger.Error().Err(err).Int("pass", i).Msg("blur pass failed")
			break
		}
		report.Draws++
		state.Advance()
	}

	report.FinalIndex = state.FinalIndex
	if state.FinalIndex < 0 {
		return source, report
	}
	return b.targets.ColorOf(state.FinalIndex), report
}
