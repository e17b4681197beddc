package postprocess

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/rs/zerolog"
)

// PipelineBuilderOption is a functional option applied to a Pipeline during construction via New.
type PipelineBuilderOption func(*postProcessPipeline)

// WithLogger sets the logger for diagnostics such as incomplete targets.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - PipelineBuilderOption: a function that applies the logger option to a pipeline
func WithLogger(logger zerolog.Logger) PipelineBuilderOption {
	return func(p *postProcessPipeline) {
		p.logger = logger
	}
}

// WithClearColor sets the color the HDR target is cleared to.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - PipelineBuilderOption: a function that applies the clear color option to a pipeline
func WithClearColor(color common.Color) PipelineBuilderOption {
	return func(p *postProcessPipeline) {
		p.clearColor = color
	}
}

// WithShaderDir loads the blur and composite shaders from dir, falling back to the embedded copies.
//
// Parameters:
//   - dir: the override directory
//
// Returns:
//   - PipelineBuilderOption: a function that applies the shader directory option to a pipeline
func WithShaderDir(dir string) PipelineBuilderOption {
	return func(p *postProcessPipeline) {
		p.shaderDir = dir
	}
}
