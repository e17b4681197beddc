package postprocess

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// HDRFormat is the color format of every post-process attachment.
const HDRFormat = wgpu.TextureFormatRGBA16Float

// Attachment indices of the HDR target.
const (
	AttachmentRadiance = 0
	AttachmentBright   = 1
)

// HDRDescriptor describes the scene target: radiance and bright-pass color attachments
// plus depth, all at the output size.
func HDRDescriptor(width, height int) renderer.TargetDescriptor {
	return renderer.TargetDescriptor{
		Label:  "HDR",
		Width:  width,
		Height: height,
		Color: []renderer.AttachmentDescriptor{
			{Format: HDRFormat},
			{Format: HDRFormat},
		},
		Depth:   &renderer.AttachmentDescriptor{Format: wgpu.TextureFormatDepth24Plus},
		Sampler: common.ClampedLinearSampler,
	}
}

// NewHDRTarget creates the scene target. When the target is incomplete the returned error
// wraps renderer.ErrIncompleteTarget and the target must not be rendered into.
//
// Parameters:
//   - device: the device to allocate on
//   - width: output width in pixels
//   - height: output height in pixels
//
// Returns:
//   - renderer.RenderTarget: the target, possibly incomplete
//   - error: an error if the target is incomplete or allocation failed
func NewHDRTarget(device Device, width, height int) (renderer.RenderTarget, error) {
	return device.CreateTarget(HDRDescriptor(width, height))
}

// PingPong is the pair of single-attachment targets the blur alternates between.
type PingPong struct {
	targets [2]renderer.RenderTarget
}

// NewPingPong creates both blur targets at the given size.
//
// Parameters:
//   - device: the device to allocate on
//   - width: target width in pixels
//   - height: target height in pixels
//
// Returns:
//   - *PingPong: the pair, possibly holding incomplete targets
//   - error: an ErrIncompleteTarget-wrapped error if either target is incomplete
func NewPingPong(device Device, width, height int) (*PingPong, error) {
	pp := &PingPong{}
	var errs []error
	for i := range pp.targets {
		t, err := device.CreateTarget(renderer.TargetDescriptor{
			Label:   fmt.Sprintf("Ping Pong %d", i),
			Width:   width,
			Height:  height,
			Color:   []renderer.AttachmentDescriptor{{Format: HDRFormat}},
			Sampler: common.ClampedLinearSampler,
		})
		if t == nil && err != nil {
			pp.Release()
			return nil, err
		}
		pp.targets[i] = t
		errs = append(errs, err)
	}
	return pp, errors.Join(errs...)
}

func checkIndex(index int) {
	if index != 0 && index != 1 {
		panic(fmt.Sprintf("postprocess: ping-pong index %d out of range", index))
	}
}

// TargetFor returns the target written when index is the write index. It panics unless index is 0 or 1.
func (p *PingPong) TargetFor(index int) renderer.RenderTarget {
	checkIndex(index)
	return p.targets[index]
}

// ColorOf returns the texture read when index is the read index. It panics unless index is 0 or 1.
func (p *PingPong) ColorOf(index int) renderer.Texture {
	checkIndex(index)
	return p.targets[index].Color(0)
}

// Status returns the first non-nil status of the two targets.
func (p *PingPong) Status() error {
	for _, t := range p.targets {
		if t == nil {
			return renderer.ErrReleased
		}
		if err := t.Status(); err != nil {
			return err
		}
	}
	return nil
}

// Release frees both targets.
func (p *PingPong) Release() {
	for _, t := range p.targets {
		if t != nil {
			t.Release()
		}
	}
}
