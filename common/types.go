// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "github.com/cogentcore/webgpu/wgpu"

// Color is a linear RGBA color. HDR values above 1 are allowed.
type Color [4]float32

// SamplerStagingData holds the configuration for a sampler attached to a render target's color attachments.
// Zero fields fall back to the renderer defaults (clamp-to-edge, linear).
type SamplerStagingData struct {
	// AddressModeU, AddressModeV specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
}

// ClampedLinearSampler is the sampler every post-process target uses. Clamping keeps the
// separable blur from pulling texels across the image border.
var ClampedLinearSampler = SamplerStagingData{
	AddressModeU: wgpu.AddressModeClampToEdge,
	AddressModeV: wgpu.AddressModeClampToEdge,
	MagFilter:    wgpu.FilterModeLinear,
	MinFilter:    wgpu.FilterModeLinear,
}
