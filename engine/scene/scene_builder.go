package scene

import "github.com/rs/zerolog"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier. Defaults to "scene".
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithLogger sets the logger the scene reports upload and reload problems to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger zerolog.Logger) SceneBuilderOption {
	return func(s *scene) {
		s.logger = logger
	}
}

// WithShaderDir loads scene.wgsl from dir, falling back to the embedded copy.
//
// Parameters:
//   - dir: the override directory
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShaderDir(dir string) SceneBuilderOption {
	return func(s *scene) {
		s.shaderDir = dir
	}
}

// WithCullingDisabled turns frustum culling off, so every enabled object is drawn.
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.cullingDisabled = disabled
	}
}

// WithSky gives the scene a procedural sky, drawn after every object at the far plane.
//
// Parameters:
//   - sky: the sky
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSky(sky Sky) SceneBuilderOption {
	return func(s *scene) {
		s.sky = &sky
	}
}
