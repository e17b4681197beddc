package postprocess

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubComposite(t *testing.T) (*stubDevice, *Composite) {
	t.Helper()
	d := &stubDevice{}
	p, err := NewCompositePipeline("")
	require.NoError(t, err)
	q, err := NewQuad(d, zerolog.Nop())
	require.NoError(t, err)
	return d, NewComposite(d, p, q, zerolog.Nop())
}

func TestCompositeBloomEnabled(t *testing.T) {
	d, c := newStubComposite(t)
	sharp, blurred := &stubTexture{label: "sharp"}, &stubTexture{label: "blurred"}

	report := c.Run(sharp, blurred, true, 0.75)
	assert.Equal(t, 1, report.Draws)
	assert.True(t, report.BloomBound)

	require.Len(t, d.draws, 1)
	draw := d.draws[0]
	assert.Equal(t, CompositePipelineKey, draw.pipeline)
	assert.Nil(t, draw.target, "composite draws to the screen")
	assert.Same(t, sharp, draw.units[0])
	assert.Same(t, blurred, draw.units[1])
	assert.Equal(t, 1, draw.bloom)
	assert.Equal(t, float32(0.75), draw.exposure)
}

func TestCompositeBloomDisabledNeverBindsBlur(t *testing.T) {
	d, c := newStubComposite(t)
	sharp, blurred := &stubTexture{label: "sharp"}, &stubTexture{label: "blurred"}

	report := c.Run(sharp, blurred, false, 0.5)
	assert.False(t, report.BloomBound)

	require.Len(t, d.draws, 1)
	draw := d.draws[0]
	assert.Same(t, sharp, draw.units[0])
	assert.Same(t, sharp, draw.units[1])
	assert.Equal(t, 0, draw.bloom)
}

func TestQuadReleaseIsIdempotent(t *testing.T) {
	d := &stubDevice{}
	q, err := NewQuad(d, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, d.buffers, 1)

	q.Release()
	q.Release()
	assert.True(t, q.Released())
	assert.True(t, d.buffers[0].released)
	assert.Error(t, q.Draw())
	assert.Empty(t, d.draws)
}
