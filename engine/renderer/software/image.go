package software

import (
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Image is a floating point RGBA image used as both a color attachment and a sampled texture.
// Row 0 is the top of the image.
type Image struct {
	Width, Height int
	Pix           []float32
	Sampler       common.SamplerStagingData
}

// NewImage allocates a zeroed width x height image that samples clamped and linear.
//
// Parameters:
//   - width: width in pixels
//   - height: height in pixels
//
// Returns:
//   - *Image: the allocated image
func NewImage(width, height int) *Image {
	return &Image{
		Width:   width,
		Height:  height,
		Pix:     make([]float32, width*height*4),
		Sampler: common.ClampedLinearSampler,
	}
}

// At returns the texel at (x, y). Coordinates must be in range.
func (m *Image) At(x, y int) mgl32.Vec4 {
	i := (y*m.Width + x) * 4
	return mgl32.Vec4{m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]}
}

// Set writes the texel at (x, y). Coordinates must be in range.
func (m *Image) Set(x, y int, c mgl32.Vec4) {
	i := (y*m.Width + x) * 4
	m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = c[0], c[1], c[2], c[3]
}

// Fill sets every texel to c.
func (m *Image) Fill(c mgl32.Vec4) {
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = c[0], c[1], c[2], c[3]
	}
}

// Sample filters the image at normalized coordinates using the image's sampler settings.
//
// Parameters:
//   - u: horizontal coordinate, 0 is the left edge
//   - v: vertical coordinate, 0 is the top edge
//
// Returns:
//   - mgl32.Vec4: the filtered texel
func (m *Image) Sample(u, v float32) mgl32.Vec4 {
	if m.Width == 0 || m.Height == 0 {
		return mgl32.Vec4{}
	}
	fx := u*float32(m.Width) - 0.5
	fy := v*float32(m.Height) - 0.5

	if m.Sampler.MagFilter == wgpu.FilterModeNearest {
		return m.fetch(int(math32.Floor(fx+0.5)), int(math32.Floor(fy+0.5)))
	}

	x0f, y0f := math32.Floor(fx), math32.Floor(fy)
	tx, ty := fx-x0f, fy-y0f
	x0, y0 := int(x0f), int(y0f)

	// Texel centers need a single fetch; the blur taps land on them every time.
	if tx == 0 && ty == 0 {
		return m.fetch(x0, y0)
	}

	c00 := m.fetch(x0, y0)
	c10 := m.fetch(x0+1, y0)
	c01 := m.fetch(x0, y0+1)
	c11 := m.fetch(x0+1, y0+1)
	top := c00.Mul(1 - tx).Add(c10.Mul(tx))
	bottom := c01.Mul(1 - tx).Add(c11.Mul(tx))
	return top.Mul(1 - ty).Add(bottom.Mul(ty))
}

// fetch reads a texel applying the address mode for out of range coordinates.
func (m *Image) fetch(x, y int) mgl32.Vec4 {
	x = address(x, m.Width, m.Sampler.AddressModeU)
	y = address(y, m.Height, m.Sampler.AddressModeV)
	return m.At(x, y)
}

func address(i, n int, mode wgpu.AddressMode) int {
	if mode == wgpu.AddressModeRepeat {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	return common.Clamp(i, 0, n-1)
}

// Map returns a new image with f applied to every texel.
//
// Parameters:
//   - f: the per-texel mapping
//
// Returns:
//   - *Image: the mapped copy
func (m *Image) Map(f func(mgl32.Vec4) mgl32.Vec4) *Image {
	out := NewImage(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out.Set(x, y, f(m.At(x, y)))
		}
	}
	return out
}

// ToNRGBA converts the image to 8-bit, clamping each channel to [0, 1].
// Values are written as-is; tonemapping and gamma are the caller's job.
//
// Returns:
//   - *image.NRGBA: the converted image
func (m *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			c := m.At(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: to8(c[0]),
				G: to8(c[1]),
				B: to8(c[2]),
				A: to8(c[3]),
			})
		}
	}
	return out
}

func to8(v float32) uint8 {
	return uint8(common.Clamp(v, 0, 1)*255 + 0.5)
}

// DepthBuffer stores one depth value per pixel, cleared to 1 (far).
type DepthBuffer struct {
	Width, Height int
	Z             []float32
}

// NewDepthBuffer allocates a cleared depth buffer.
func NewDepthBuffer(width, height int) *DepthBuffer {
	d := &DepthBuffer{Width: width, Height: height, Z: make([]float32, width*height)}
	d.Clear()
	return d
}

// Clear resets every depth value to 1.
func (d *DepthBuffer) Clear() {
	for i := range d.Z {
		d.Z[i] = 1
	}
}
