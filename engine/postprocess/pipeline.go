package postprocess

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/rs/zerolog"
)

// FrameReport describes what the last RunPostProcess did.
type FrameReport struct {
	// Params are the sanitized parameters the frame used.
	Params BloomParameters

	// Skipped is true when the chain did not run because the pipeline is degraded or released.
	Skipped bool

	BlurDraws      int
	CompositeDraws int

	// FinalIndex is the ping-pong index holding the blurred result, or -1 when no blur pass ran.
	FinalIndex int

	// BloomBound is true when the blurred texture was bound for composite.
	BloomBound bool
}

// postProcessPipeline is the implementation of the Pipeline interface.
type postProcessPipeline struct {
	mu     *sync.Mutex
	device Device
	logger zerolog.Logger

	width, height int
	clearColor    common.Color
	shaderDir     string

	hdr      renderer.RenderTarget
	pingPong *PingPong
	quad     *Quad

	blurPipeline      pipeline.Pipeline
	compositePipeline pipeline.Pipeline
	blur              *Blur
	composite         *Composite

	degraded    bool
	bloomBroken bool
	released    bool
	report      FrameReport
}

// Pipeline owns every resource of the bloom chain and runs it once per frame:
// BeginSceneCapture, scene draws, RunPostProcess.
type Pipeline interface {
	// BeginSceneCapture binds the HDR target, clears the radiance attachment to the clear
	// color, the bright attachment to zero and the depth to 1.
	// In degraded mode the screen is bound and cleared instead.
	BeginSceneCapture()

	// RunPostProcess blurs the bright pass and composites it with the scene onto the screen.
	// The parameters are sanitized first. In degraded mode nothing is drawn.
	//
	// Parameters:
	//   - params: the frame's bloom parameters
	//
	// Returns:
	//   - FrameReport: what was drawn
	RunPostProcess(params BloomParameters) FrameReport

	// Resize recreates the HDR target and ping-pong pair at the new size.
	// A size the targets cannot take puts the pipeline in degraded mode until the next Resize.
	//
	// Parameters:
	//   - width: output width in pixels
	//   - height: output height in pixels
	Resize(width, height int)

	// ReloadShaders rebuilds the blur and composite passes from shaderDir.
	// On failure the previous passes stay in use.
	//
	// Parameters:
	//   - shaderDir: override directory, "" for the embedded shaders
	//
	// Returns:
	//   - error: an error if a shader fails to load or compile
	ReloadShaders(shaderDir string) error

	// SetClearColor sets the color BeginSceneCapture clears to.
	SetClearColor(color common.Color)

	// Degraded reports whether the HDR target is unusable and scenes render straight to the screen.
	Degraded() bool

	// LastReport returns the report of the most recent RunPostProcess.
	LastReport() FrameReport

	// HDRTarget returns the scene target, for inspection of the radiance and bright attachments.
	HDRTarget() renderer.RenderTarget

	// PingPong returns the blur buffers.
	PingPong() *PingPong

	// Release frees every resource. Later calls are no-ops.
	Release()
}

var _ Pipeline = &postProcessPipeline{}

// New builds the bloom chain at the given size. Incomplete targets do not fail New: they
// are logged and the pipeline starts degraded.
//
// Parameters:
//   - device: the device to render with
//   - width: output width in pixels
//   - height: output height in pixels
//   - options: builder options
//
// Returns:
//   - Pipeline: the pipeline
//   - error: an error if the passes or the quad cannot be created
func New(device Device, width, height int, options ...PipelineBuilderOption) (Pipeline, error) {
	p := &postProcessPipeline{
		mu:         &sync.Mutex{},
		device:     device,
		logger:     zerolog.Nop(),
		clearColor: common.Color{0, 0, 0, 1},
		report:     FrameReport{FinalIndex: -1, Skipped: true},
	}
	for _, opt := range options {
		opt(p)
	}

	var err error
	if p.blurPipeline, err = NewBlurPipeline(p.shaderDir); err != nil {
		return nil, err
	}
	if p.compositePipeline, err = NewCompositePipeline(p.shaderDir); err != nil {
		return nil, err
	}
	if err := device.RegisterPipeline(p.blurPipeline); err != nil {
		return nil, err
	}
	if err := device.RegisterPipeline(p.compositePipeline); err != nil {
		return nil, err
	}

	if p.quad, err = NewQuad(device, p.logger); err != nil {
		return nil, err
	}

	if err := p.createTargets(width, height); err != nil {
		p.quad.Release()
		return nil, err
	}
	return p, nil
}

// createTargets allocates the HDR target and ping-pong pair, logging incompleteness
// instead of failing. It only returns allocation errors.
func (p *postProcessPipeline) createTargets(width, height int) error {
	p.width, p.height = width, height
	p.degraded, p.bloomBroken = false, false

	hdr, err := NewHDRTarget(p.device, width, height)
	switch {
	case errors.Is(err, renderer.ErrIncompleteTarget):
		p.logger.Error().Err(err).Int("width", width).Int("height", height).Msg("HDR framebuffer not complete, rendering without post-processing")
		p.degraded = true
	case err != nil:
		return fmt.Errorf("postprocess: failed to create HDR target: %w", err)
	}
	p.hdr = hdr

	pp, err := NewPingPong(p.device, width, height)
	switch {
	case errors.Is(err, renderer.ErrIncompleteTarget):
		p.logger.Error().Err(err).Msg("ping-pong framebuffer not complete, bloom disabled")
		p.bloomBroken = true
	case err != nil:
		return fmt.Errorf("postprocess: failed to create ping-pong targets: %w", err)
	}
	p.pingPong = pp

	p.blur = NewBlur(p.device, p.blurPipeline, p.quad, p.pingPong, p.logger)
	p.composite = NewComposite(p.device, p.compositePipeline, p.quad, p.logger)
	return nil
}

func (p *postProcessPipeline) releaseTargets() {
	if p.hdr != nil {
		p.hdr.Release()
		p.hdr = nil
	}
	if p.pingPong != nil {
		p.pingPong.Release()
		p.pingPong = nil
	}
}

func (p *postProcessPipeline) BeginSceneCapture() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	if p.degraded {
		p.device.BindTarget(nil)
	} else {
		p.device.BindTarget(p.hdr)
	}
	p.device.Clear(p.clearColor)
}

func (p *postProcessPipeline) RunPostProcess(params BloomParameters) FrameReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	params = params.Sanitize()
	report := FrameReport{Params: params, FinalIndex: -1}
	if p.released || p.degraded {
		report.Skipped = true
		p.report = report
		return report
	}

	sharp := p.hdr.Color(AttachmentRadiance)
	bright := p.hdr.Color(AttachmentBright)
	bloom := params.Enabled && !p.bloomBroken

	// The blur always runs when it can, so toggling bloom costs no allocation.
	// Only the composite decides whether the result is used.
	blurred := bright
	if !p.bloomBroken {
		var br BlurReport
		blurred, br = p.blur.Run(bright, params.Iterations)
		report.BlurDraws = br.Draws
		report.FinalIndex = br.FinalIndex
	}

	cr := p.composite.Run(sharp, blurred, bloom, params.Exposure)
	report.CompositeDraws = cr.Draws
	report.BloomBound = cr.BloomBound
	p.report = report
	return report
}

func (p *postProcessPipeline) Resize(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released || (!p.degraded && width == p.width && height == p.height) {
		return
	}
	p.releaseTargets()
	if err := p.createTargets(width, height); err != nil {
		p.logger.Error().Err(err).Msg("failed to resize post-process targets")
		p.degraded = true
		return
	}
	p.logger.Debug().Int("width", width).Int("height", height).Bool("degraded", p.degraded).Msg("post-process targets resized")
}

func (p *postProcessPipeline) ReloadShaders(shaderDir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return renderer.ErrReleased
	}

	for _, pass := range []struct {
		p      pipeline.Pipeline
		source string
	}{
		{p.blurPipeline, shader.SourceBlur},
		{p.compositePipeline, shader.SourceComposite},
	} {
		vs, fs, err := shader.LoadPair(shaderDir, pass.source)
		if err != nil {
			return err
		}
		oldVS, oldFS := pass.p.Shader(shader.ShaderTypeVertex), pass.p.Shader(shader.ShaderTypeFragment)
		pass.p.SetShaders(vs, fs)
		if err := p.device.RegisterPipeline(pass.p); err != nil {
			pass.p.SetShaders(oldVS, oldFS)
			return err
		}
	}
	p.shaderDir = shaderDir
	p.logger.Info().Str("dir", shaderDir).Msg("post-process shaders reloaded")
	return nil
}

func (p *postProcessPipeline) SetClearColor(color common.Color) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearColor = color
}

func (p *postProcessPipeline) Degraded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded
}

func (p *postProcessPipeline) LastReport() FrameReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.report
}

func (p *postProcessPipeline) HDRTarget() renderer.RenderTarget {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hdr
}

func (p *postProcessPipeline) PingPong() *PingPong {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pingPong
}

func (p *postProcessPipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true
	p.releaseTargets()
	p.quad.Release()
}
