package main

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/engine"
	"github.com/Carmen-Shannon/oxy-bloom/engine/config"
	"github.com/Carmen-Shannon/oxy-bloom/engine/logging"
	"github.com/Carmen-Shannon/oxy-bloom/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/state"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// renderOptions are the flags of the render command.
type renderOptions struct {
	output string
	sheet  string
	frames int
	width  int
	height int
	scale  float64
	dt     float32
	abduct bool
	bloom  bloomFlags
}

func newRenderCommand(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render frames headless with the software backend and save the last one as PNG",
		Long: `render runs the frame loop without a window on the CPU rasterizer and writes
the presented frame to --out. With --sheet it also writes a 2x2 contact sheet of
the HDR radiance, the bright pass, the blurred bright pass and the final frame.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("width") {
				opts.width = cfg.Window.Width
			}
			if !cmd.Flags().Changed("height") {
				opts.height = cfg.Window.Height
			}
			if opts.width <= 0 || opts.height <= 0 {
				return fmt.Errorf("invalid render size: %dx%d", opts.width, opts.height)
			}
			if opts.frames < 1 {
				return fmt.Errorf("invalid frame count: %d", opts.frames)
			}
			if opts.scale <= 0 {
				return fmt.Errorf("invalid scale: %v", opts.scale)
			}

			logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logger.Close()

			st, err := loadState(cfg)
			if err != nil {
				return err
			}
			st.Bloom = opts.bloom.apply(cmd.Flags(), st.Bloom)
			if opts.abduct {
				st.Abduct = true
			}

			return renderHeadless(cfg, st, opts, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "out", "o", "frame.png", "output PNG")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "also write a contact sheet of the intermediates to this PNG")
	cmd.Flags().IntVar(&opts.frames, "frames", 1, "number of frames to run before saving")
	cmd.Flags().IntVar(&opts.width, "width", 0, "render width (default window.width)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "render height (default window.height)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 1, "resize the saved images by this factor")
	cmd.Flags().Float32Var(&opts.dt, "dt", 1.0/60, "seconds per simulated frame")
	cmd.Flags().BoolVar(&opts.abduct, "abduct", false, "start with the UFO beam on")
	addBloomFlags(cmd.Flags(), &opts.bloom)
	return cmd
}

// renderHeadless runs opts.frames frames on the software backend and saves the result.
func renderHeadless(cfg *config.Config, st state.ProgramState, opts *renderOptions, logger *logging.Logger) error {
	log := logger.Component("cli")

	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil,
		renderer.WithSize(opts.width, opts.height),
		renderer.WithSoftwareWorkers(cfg.Renderer.SoftwareWorkers),
		renderer.WithLogger(logger.Component("renderer")),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	e, err := engine.NewEngine(
		engine.WithRenderer(r),
		engine.WithLogger(logger.Zerolog()),
		engine.WithCamera(newCamera(cfg.Camera, float32(opts.width)/float32(opts.height))),
		engine.WithState(st),
		engine.WithShaderDir(cfg.Shaders.Dir, false),
		engine.WithProfiling(cfg.Profiler.Enabled, seconds(cfg.Profiler.Interval)),
	)
	if err != nil {
		r.Release()
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer func() {
		if err := e.Release(); err != nil {
			log.Warn().Err(err).Msg("failed to release engine")
		}
	}()

	var stats engine.FrameStats
	for i := 0; i < opts.frames; i++ {
		stats = e.Frame(opts.dt)
		log.Debug().
			Int("frame", i).
			Bool("skipped", stats.Skipped).
			Int("drawn", stats.Scene.Drawn).
			Int("culled", stats.Scene.Culled).
			Int("blur_draws", stats.Post.BlurDraws).
			Msg("frame")
	}
	if stats.Skipped {
		return errors.New("the last frame was skipped")
	}

	rb, ok := r.Backend().(renderer.Readback)
	if !ok {
		return fmt.Errorf("the %s backend cannot be read back", r.BackendType())
	}
	screen := rb.ReadScreen()
	if screen == nil {
		return errors.New("nothing was presented")
	}
	final := screen.ToNRGBA()

	if err := savePNG(opts.output, scaled(final, opts.scale)); err != nil {
		return err
	}
	log.Info().Str("path", opts.output).Int("frames", opts.frames).Msg("frame saved")

	if opts.sheet == "" {
		return nil
	}
	panels := intermediates(e.PostProcess(), rb, stats.Post, log)
	panels = append(panels, panel{name: "final", img: final})
	b := final.Bounds()
	sheet := contactSheet(panels, b.Dx(), b.Dy())
	if err := savePNG(opts.sheet, scaled(sheet, opts.scale)); err != nil {
		return err
	}
	log.Info().Str("path", opts.sheet).Msg("contact sheet saved")
	return nil
}

// intermediates reads back the radiance, bright and blurred textures of the last frame,
// tonemapped with the frame's exposure. Textures that cannot be read are left nil.
func intermediates(post postprocess.Pipeline, rb renderer.Readback, report postprocess.FrameReport, log zerolog.Logger) []panel {
	panels := []panel{{name: "radiance"}, {name: "bright"}, {name: "blurred"}}

	var textures [3]renderer.Texture
	if hdr := post.HDRTarget(); hdr != nil && hdr.Status() == nil {
		textures[0] = hdr.Color(postprocess.AttachmentRadiance)
		textures[1] = hdr.Color(postprocess.AttachmentBright)
	}
	if pp := post.PingPong(); pp != nil && pp.Status() == nil && report.FinalIndex >= 0 {
		textures[2] = pp.ColorOf(report.FinalIndex)
	}

	for i, tex := range textures {
		if tex == nil {
			log.Warn().Str("panel", panels[i].name).Msg("texture unavailable")
			continue
		}
		img, err := rb.ReadTexture(tex)
		if err != nil {
			log.Warn().Err(err).Str("panel", panels[i].name).Msg("failed to read texture")
			continue
		}
		panels[i].img = tonemapped(img, report.Params.Exposure)
	}
	return panels
}
