package software

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestImageSampleTexelCenter(t *testing.T) {
	img := NewImage(4, 2)
	img.Set(1, 0, mgl32.Vec4{1, 2, 3, 4})

	got := img.Sample(1.5/4, 0.5/2)
	assert.Equal(t, mgl32.Vec4{1, 2, 3, 4}, got)
}

func TestImageSampleBilinear(t *testing.T) {
	img := NewImage(2, 1)
	img.Set(0, 0, mgl32.Vec4{0, 0, 0, 1})
	img.Set(1, 0, mgl32.Vec4{1, 1, 1, 1})

	got := img.Sample(0.5, 0.5)
	assert.InDelta(t, 0.5, got[0], 1e-6)
	assert.InDelta(t, 1, got[3], 1e-6)
}

func TestImageSampleClampsAtEdges(t *testing.T) {
	img := NewImage(2, 2)
	img.Fill(mgl32.Vec4{0.25, 0.25, 0.25, 1})
	img.Set(0, 0, mgl32.Vec4{1, 0, 0, 1})

	// Left of the first texel center, clamp to edge repeats texel 0.
	got := img.Sample(-0.5, 0.25)
	assert.InDelta(t, 1, got[0], 1e-6)
}

func TestImageSampleRepeat(t *testing.T) {
	img := NewImage(2, 1)
	img.Sampler = common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeRepeat,
		MagFilter:    wgpu.FilterModeNearest,
	}
	img.Set(0, 0, mgl32.Vec4{1, 0, 0, 1})
	img.Set(1, 0, mgl32.Vec4{0, 1, 0, 1})

	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, img.Sample(1.25, 0.5))
	assert.Equal(t, mgl32.Vec4{0, 1, 0, 1}, img.Sample(-0.25, 0.5))
}

func TestImageToNRGBAClamps(t *testing.T) {
	img := NewImage(1, 1)
	img.Set(0, 0, mgl32.Vec4{2, -1, 0.5, 1})

	c := img.ToNRGBA().NRGBAAt(0, 0)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(0), c.G)
	assert.Equal(t, uint8(128), c.B)
	assert.Equal(t, uint8(255), c.A)
}

func TestImageMap(t *testing.T) {
	img := NewImage(2, 2)
	img.Fill(mgl32.Vec4{1, 1, 1, 1})

	out := img.Map(func(c mgl32.Vec4) mgl32.Vec4 { return c.Mul(2) })
	assert.Equal(t, mgl32.Vec4{2, 2, 2, 2}, out.At(1, 1))
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, img.At(1, 1), "source is left untouched")
}

func TestDepthBufferClear(t *testing.T) {
	d := NewDepthBuffer(3, 2)
	d.Z[4] = 0.2
	d.Clear()
	for _, z := range d.Z {
		assert.Equal(t, float32(1), z)
	}
}
