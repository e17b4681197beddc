package postprocess

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/rs/zerolog"
)

// QuadVertices is a full-screen triangle strip, (x, y, u, v) per vertex.
var QuadVertices = []float32{
	-1, 1, 0, 1,
	-1, -1, 0, 0,
	1, 1, 1, 1,
	1, -1, 1, 0,
}

// Quad owns the vertex buffer every full-screen pass draws.
type Quad struct {
	device   Device
	buffer   renderer.VertexBuffer
	logger   zerolog.Logger
	released bool
}

// NewQuad uploads the full-screen quad.
//
// Parameters:
//   - device: the device to upload to
//   - logger: logger for misuse after release
//
// Returns:
//   - *Quad: the quad
//   - error: an error if the vertex buffer cannot be created
func NewQuad(device Device, logger zerolog.Logger) (*Quad, error) {
	buf, err := device.CreateVertexBuffer("Fullscreen Quad", pipeline.PositionUV, QuadVertices)
	if err != nil {
		return nil, fmt.Errorf("postprocess: failed to create quad: %w", err)
	}
	return &Quad{device: device, buffer: buf, logger: logger}, nil
}

// Draw draws the quad with the device's current pipeline, target and textures.
// After Release it only logs and returns renderer.ErrReleased.
func (q *Quad) Draw() error {
	if q.released {
		q.logger.Warn().Msg("draw on released fullscreen quad")
		return fmt.Errorf("postprocess: quad: %w", renderer.ErrReleased)
	}
	return q.device.Draw(q.buffer)
}

// Released reports whether Release has been called.
func (q *Quad) Released() bool {
	return q.released
}

// Release frees the vertex buffer. Later calls are no-ops.
func (q *Quad) Release() {
	if q.released {
		return
	}
	q.released = true
	q.buffer.Release()
}
