package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrIncompleteTarget marks a render target that cannot be rendered into.
	ErrIncompleteTarget = errors.New("renderer: render target incomplete")

	// ErrReleased is returned when a released resource or renderer is used.
	ErrReleased = errors.New("renderer: resource released")

	// ErrNoPipeline is returned by Draw when no pipeline has been selected with UsePipeline.
	ErrNoPipeline = errors.New("renderer: no pipeline in use")
)

// AttachmentDescriptor describes one attachment of a render target.
// A zero Width or Height means the attachment takes the target's size.
type AttachmentDescriptor struct {
	Format        wgpu.TextureFormat
	Width, Height int
}

// TargetDescriptor describes an offscreen render target with one or more color
// attachments and an optional depth attachment.
type TargetDescriptor struct {
	Label         string
	Width, Height int
	Color         []AttachmentDescriptor
	Depth         *AttachmentDescriptor
	Sampler       common.SamplerStagingData
}

// size resolves an attachment's effective size against the target.
func (a AttachmentDescriptor) size(width, height int) (int, int) {
	return common.Coalesce(a.Width, width), common.Coalesce(a.Height, height)
}

// CheckComplete validates a target descriptor the way a framebuffer completeness check does.
//
// Parameters:
//   - desc: the descriptor to check
//
// Returns:
//   - error: nil when the target is complete, otherwise an ErrIncompleteTarget-wrapped reason
func CheckComplete(desc TargetDescriptor) error {
	if desc.Width <= 0 || desc.Height <= 0 {
		return fmt.Errorf("%w: %s has size %dx%d", ErrIncompleteTarget, desc.Label, desc.Width, desc.Height)
	}
	if len(desc.Color) == 0 {
		return fmt.Errorf("%w: %s has no color attachments", ErrIncompleteTarget, desc.Label)
	}
	for i, c := range desc.Color {
		w, h := c.size(desc.Width, desc.Height)
		if w <= 0 || h <= 0 {
			return fmt.Errorf("%w: %s color attachment %d has size %dx%d", ErrIncompleteTarget, desc.Label, i, w, h)
		}
		if w != desc.Width || h != desc.Height {
			return fmt.Errorf("%w: %s color attachment %d is %dx%d, target is %dx%d", ErrIncompleteTarget, desc.Label, i, w, h, desc.Width, desc.Height)
		}
		if !isColorFormat(c.Format) {
			return fmt.Errorf("%w: %s color attachment %d has unsupported format %v", ErrIncompleteTarget, desc.Label, i, c.Format)
		}
	}
	if d := desc.Depth; d != nil {
		w, h := d.size(desc.Width, desc.Height)
		if w != desc.Width || h != desc.Height {
			return fmt.Errorf("%w: %s depth attachment is %dx%d, target is %dx%d", ErrIncompleteTarget, desc.Label, w, h, desc.Width, desc.Height)
		}
		if d.Format != wgpu.TextureFormatDepth24Plus && d.Format != wgpu.TextureFormatDepth32Float {
			return fmt.Errorf("%w: %s depth attachment has unsupported format %v", ErrIncompleteTarget, desc.Label, d.Format)
		}
	}
	return nil
}

func isColorFormat(f wgpu.TextureFormat) bool {
	switch f {
	case wgpu.TextureFormatRGBA16Float, wgpu.TextureFormatRGBA32Float,
		wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatBGRA8Unorm:
		return true
	}
	return false
}

// Texture is a sampled image owned by a render target.
type Texture interface {
	Label() string
	Width() int
	Height() int
	Format() wgpu.TextureFormat
}

// RenderTarget is an offscreen framebuffer: color attachments readable as textures
// and an optional depth attachment.
type RenderTarget interface {
	Label() string
	Width() int
	Height() int

	// ColorCount returns the number of color attachments.
	ColorCount() int

	// Color returns the texture of color attachment i.
	//
	// Parameters:
	//   - i: the attachment index
	//
	// Returns:
	//   - Texture: the attachment texture, nil when i is out of range
	Color(i int) Texture

	// HasDepth reports whether the target has a depth attachment.
	HasDepth() bool

	// Status returns the completeness result recorded when the target was created.
	// A released target reports ErrReleased.
	Status() error

	// Release frees the target's attachments. It is safe to call more than once.
	Release()
}

// VertexBuffer is uploaded vertex data with its layout.
type VertexBuffer interface {
	Label() string
	VertexCount() int
	Layout() pipeline.VertexLayout

	// Release frees the buffer. It is safe to call more than once.
	Release()
}
