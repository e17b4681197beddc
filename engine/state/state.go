// Package state persists the interactive program state between runs as yaml.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-bloom/engine/postprocess"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// DefaultCowHeight is where the abductee stands before the beam lifts it.
const DefaultCowHeight float32 = -0.7

// PointLightState is the editable part of the scene's point light.
type PointLightState struct {
	Position  mgl32.Vec3 `yaml:"position,flow"`
	Ambient   mgl32.Vec3 `yaml:"ambient,flow"`
	Diffuse   mgl32.Vec3 `yaml:"diffuse,flow"`
	Specular  mgl32.Vec3 `yaml:"specular,flow"`
	Constant  float32    `yaml:"constant"`
	Linear    float32    `yaml:"linear"`
	Quadratic float32    `yaml:"quadratic"`
}

// ProgramState is everything the user can change at runtime that survives a restart.
type ProgramState struct {
	ClearColor     mgl32.Vec3                  `yaml:"clear_color,flow"`
	MouseLook      bool                        `yaml:"mouse_look"`
	CameraPosition mgl32.Vec3                  `yaml:"camera_position,flow"`
	CameraFront    mgl32.Vec3                  `yaml:"camera_front,flow"`
	Abduct         bool                        `yaml:"abduct"`
	Flashlight     bool                        `yaml:"flashlight"`
	CowHeight      float32                     `yaml:"cow_height"`
	PointLight     PointLightState             `yaml:"point_light"`
	Bloom          postprocess.BloomParameters `yaml:"bloom"`
}

// Default returns the state of a first run.
//
// Returns:
//   - ProgramState: black clear color, camera at (0, -0.7, 3) looking down -Z, bloom defaults
func Default() ProgramState {
	return ProgramState{
		MouseLook:      true,
		CameraPosition: mgl32.Vec3{0, -0.7, 3},
		CameraFront:    mgl32.Vec3{0, 0, -1},
		CowHeight:      DefaultCowHeight,
		PointLight: PointLightState{
			Position:  mgl32.Vec3{4, 4, 4},
			Ambient:   mgl32.Vec3{1, 1, 1},
			Diffuse:   mgl32.Vec3{0.6, 0.6, 0.6},
			Specular:  mgl32.Vec3{1, 1, 1},
			Constant:  1,
			Linear:    0.09,
			Quadratic: 0.032,
		},
		Bloom: postprocess.DefaultBloomParameters(),
	}
}

// Load reads a state file. Fields missing from the file keep their defaults, and a
// missing file yields Default() without an error.
//
// Parameters:
//   - path: the yaml file
//
// Returns:
//   - ProgramState: the loaded state
//   - error: a read or parse error
func Load(path string) (ProgramState, error) {
	st := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("failed to read state file: %w", err)
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return Default(), fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	st.Bloom = st.Bloom.Sanitize()
	if st.CameraFront.Len() == 0 {
		st.CameraFront = Default().CameraFront
	}
	return st, nil
}

// Save writes the state file, creating its directory when needed.
//
// Parameters:
//   - path: the yaml file
//
// Returns:
//   - error: a marshal or write error
func (s ProgramState) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
