package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/oxy-bloom/engine/camera"
	"github.com/Carmen-Shannon/oxy-bloom/engine/config"
	"github.com/Carmen-Shannon/oxy-bloom/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-bloom/engine/state"
	"github.com/spf13/pflag"
)

// bloomFlags are command line overrides for the bloom parameters. Only flags the user
// actually set replace the loaded values.
type bloomFlags struct {
	enabled    bool
	exposure   float32
	iterations int
	threshold  float32
}

func addBloomFlags(flags *pflag.FlagSet, b *bloomFlags) {
	flags.BoolVar(&b.enabled, "bloom", true, "add the blurred bright pass during composite")
	flags.Float32Var(&b.exposure, "exposure", postprocess.DefaultExposure, "tonemapping exposure")
	flags.IntVar(&b.iterations, "iterations", postprocess.DefaultIterations, "number of blur passes")
	flags.Float32Var(&b.threshold, "threshold", postprocess.DefaultThreshold, "bright pass luminance threshold")
}

// apply returns p with every changed flag applied, sanitized.
func (b *bloomFlags) apply(flags *pflag.FlagSet, p postprocess.BloomParameters) postprocess.BloomParameters {
	if flags.Changed("bloom") {
		p.Enabled = b.enabled
	}
	if flags.Changed("exposure") {
		p.Exposure = b.exposure
	}
	if flags.Changed("iterations") {
		p.Iterations = b.iterations
	}
	if flags.Changed("threshold") {
		p.Threshold = b.threshold
	}
	return p.Sanitize()
}

// loadState reads the saved program state. Without a state file the bloom parameters
// come from the configuration instead of the built-in defaults.
func loadState(cfg *config.Config) (state.ProgramState, error) {
	if _, err := os.Stat(cfg.State.Path); errors.Is(err, fs.ErrNotExist) {
		st := state.Default()
		st.Bloom = cfg.Bloom
		return st, nil
	}
	return state.Load(cfg.State.Path)
}

func newCamera(cfg config.CameraConfig, aspect float32) camera.Camera {
	return camera.NewCamera(
		camera.WithFov(cfg.Fov),
		camera.WithAspect(aspect),
		camera.WithNear(cfg.Near),
		camera.WithFar(cfg.Far),
		camera.WithController(camera.NewCameraController(
			camera.WithMovementSpeed(cfg.Speed),
			camera.WithMouseSensitivity(cfg.Sensitivity),
		)),
	)
}
