package postprocess

import "github.com/chewxy/math32"

const (
	// MinExposure replaces non-positive or NaN exposures.
	MinExposure float32 = 0.01

	// MaxExposure is the largest accepted exposure.
	MaxExposure float32 = 20

	// MaxIterations is the largest accepted number of blur passes.
	MaxIterations = 100

	DefaultExposure   float32 = 0.5
	DefaultIterations         = 10
	DefaultThreshold  float32 = 1.0
)

// BloomParameters are the per-frame knobs of the post-process chain.
type BloomParameters struct {
	// Enabled adds the blurred bright pass to the scene during composite.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Exposure scales HDR radiance before tonemapping.
	Exposure float32 `mapstructure:"exposure" yaml:"exposure"`

	// Iterations is the number of separable blur passes. Each pass blurs in one direction.
	Iterations int `mapstructure:"iterations" yaml:"iterations"`

	// Threshold is the luminance above which the scene pass writes a fragment to the bright attachment.
	Threshold float32 `mapstructure:"threshold" yaml:"threshold"`
}

// DefaultBloomParameters returns bloom enabled with exposure 0.5, 10 blur passes and a threshold of 1.
func DefaultBloomParameters() BloomParameters {
	return BloomParameters{
		Enabled:    true,
		Exposure:   DefaultExposure,
		Iterations: DefaultIterations,
		Threshold:  DefaultThreshold,
	}
}

// Sanitize returns a copy of p with every field clamped into its valid range.
//
// Returns:
//   - BloomParameters: the clamped parameters
func (p BloomParameters) Sanitize() BloomParameters {
	switch {
	case math32.IsNaN(p.Exposure) || p.Exposure <= 0:
		p.Exposure = MinExposure
	case p.Exposure > MaxExposure:
		p.Exposure = MaxExposure
	}

	p.Iterations = min(max(p.Iterations, 0), MaxIterations)

	switch {
	case math32.IsNaN(p.Threshold):
		p.Threshold = DefaultThreshold
	case p.Threshold < 0:
		p.Threshold = 0
	}
	return p
}
