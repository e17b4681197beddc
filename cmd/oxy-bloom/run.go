package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-bloom/engine"
	"github.com/Carmen-Shannon/oxy-bloom/engine/config"
	"github.com/Carmen-Shannon/oxy-bloom/engine/logging"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/window"
	"github.com/spf13/cobra"
)

func newRunCommand(root *rootOptions) *cobra.Command {
	var (
		bloom   bloomFlags
		backend string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the window and run the farm scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("backend") {
				cfg.Renderer.Backend = backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger, err := logging.New(cfg.Logging, os.Stdout)
			if err != nil {
				return err
			}
			defer logger.Close()

			st, err := loadState(cfg)
			if err != nil {
				return err
			}
			st.Bloom = bloom.apply(cmd.Flags(), st.Bloom)

			return runWindowed(cfg, logger, engine.WithState(st))
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "renderer backend: wgpu or software (overrides config)")
	addBloomFlags(cmd.Flags(), &bloom)
	return cmd
}

// runWindowed opens the window and blocks until it is closed.
func runWindowed(cfg *config.Config, logger *logging.Logger, options ...engine.EngineBuilderOption) error {
	log := logger.Component("cli")

	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)

	presentMode := renderer.PresentModeUncapped
	if cfg.Window.VSync {
		presentMode = renderer.PresentModeVSync
	}
	r, err := renderer.NewRenderer(renderer.ParseBackendType(cfg.Renderer.Backend), win,
		renderer.WithPresentMode(presentMode),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceFallbackAdapter),
		renderer.WithSoftwareWorkers(cfg.Renderer.SoftwareWorkers),
		renderer.WithLogger(logger.Component("renderer")),
	)
	if err != nil {
		_ = win.Close()
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	aspect := float32(win.Width()) / float32(max(win.Height(), 1))
	e, err := engine.NewEngine(append([]engine.EngineBuilderOption{
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithLogger(logger.Zerolog()),
		engine.WithCamera(newCamera(cfg.Camera, aspect)),
		engine.WithStatePath(cfg.State.Path, cfg.State.AutoSave),
		engine.WithShaderDir(cfg.Shaders.Dir, cfg.Shaders.HotReload),
		engine.WithProfiling(cfg.Profiler.Enabled, seconds(cfg.Profiler.Interval)),
	}, options...)...)
	if err != nil {
		r.Release()
		_ = win.Close()
		return fmt.Errorf("failed to create engine: %w", err)
	}

	log.Info().
		Str("backend", r.BackendType().String()).
		Int("width", r.Width()).
		Int("height", r.Height()).
		Msg("running")
	if err := e.Run(); err != nil {
		return fmt.Errorf("engine stopped: %w", err)
	}
	log.Info().Msg("window closed")
	return nil
}

func seconds(s float32) time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}
