package postprocess

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

type stubTexture struct {
	label string
}

func (t *stubTexture) Label() string              { return t.label }
func (t *stubTexture) Width() int                 { return 1 }
func (t *stubTexture) Height() int                { return 1 }
func (t *stubTexture) Format() wgpu.TextureFormat { return HDRFormat }

type stubTarget struct {
	desc     renderer.TargetDescriptor
	colors   []*stubTexture
	status   error
	released bool
}

func (t *stubTarget) Label() string   { return t.desc.Label }
func (t *stubTarget) Width() int      { return t.desc.Width }
func (t *stubTarget) Height() int     { return t.desc.Height }
func (t *stubTarget) ColorCount() int { return len(t.colors) }
func (t *stubTarget) HasDepth() bool  { return t.desc.Depth != nil }
func (t *stubTarget) Release()        { t.released = true }

func (t *stubTarget) Color(i int) renderer.Texture {
	if i < 0 || i >= len(t.colors) {
		return nil
	}
	return t.colors[i]
}

func (t *stubTarget) Status() error {
	if t.released {
		return renderer.ErrReleased
	}
	return t.status
}

type stubBuffer struct {
	released bool
}

func (b *stubBuffer) Label() string                 { return "stub" }
func (b *stubBuffer) Layout() pipeline.VertexLayout { return pipeline.PositionUV }
func (b *stubBuffer) Release()                      { b.released = true }

func (b *stubBuffer) VertexCount() int {
	if b.released {
		return 0
	}
	return 4
}

// drawRecord is the device state captured at each Draw.
type drawRecord struct {
	pipeline   string
	target     renderer.RenderTarget
	units      [renderer.MaxTextureUnits]renderer.Texture
	horizontal int
	bloom      int
	exposure   float32
}

// stubDevice records what the post-process chain asks of the device.
type stubDevice struct {
	targets    []*stubTarget
	buffers    []*stubBuffer
	registered []string
	clears     []renderer.RenderTarget
	draws      []drawRecord

	// incompleteLabel makes targets with this label incomplete.
	incompleteLabel string

	// createErr fails every CreateTarget with an allocation error.
	createErr error

	current pipeline.Pipeline
	bound   renderer.RenderTarget
	units   [renderer.MaxTextureUnits]renderer.Texture
}

var _ Device = &stubDevice{}

func (d *stubDevice) CreateTarget(desc renderer.TargetDescriptor) (renderer.RenderTarget, error) {
	if d.createErr != nil {
		return nil, d.createErr
	}
	t := &stubTarget{desc: desc}
	t.status = renderer.CheckComplete(desc)
	if desc.Label == d.incompleteLabel {
		t.status = fmt.Errorf("%w: forced", renderer.ErrIncompleteTarget)
	}
	if t.status == nil {
		for i := range desc.Color {
			t.colors = append(t.colors, &stubTexture{label: fmt.Sprintf("%s/%d", desc.Label, i)})
		}
	}
	d.targets = append(d.targets, t)
	return t, t.status
}

func (d *stubDevice) CreateVertexBuffer(string, pipeline.VertexLayout, []float32) (renderer.VertexBuffer, error) {
	b := &stubBuffer{}
	d.buffers = append(d.buffers, b)
	return b, nil
}

func (d *stubDevice) RegisterPipeline(p pipeline.Pipeline) error {
	d.registered = append(d.registered, p.PipelineKey())
	return nil
}

func (d *stubDevice) UsePipeline(p pipeline.Pipeline) { d.current = p }

func (d *stubDevice) BindTarget(t renderer.RenderTarget) {
	if t != nil && t.Status() != nil {
		t = nil
	}
	d.bound = t
}

func (d *stubDevice) Clear(common.Color) { d.clears = append(d.clears, d.bound) }

func (d *stubDevice) BindTexture(unit int, tex renderer.Texture) { d.units[unit] = tex }

func (d *stubDevice) Draw(buf renderer.VertexBuffer) error {
	if d.current == nil {
		return renderer.ErrNoPipeline
	}
	if buf.VertexCount() == 0 {
		return renderer.ErrReleased
	}
	d.draws = append(d.draws, drawRecord{
		pipeline:   d.current.PipelineKey(),
		target:     d.bound,
		units:      d.units,
		horizontal: d.current.Int("horizontal"),
		bloom:      d.current.Int("bloom"),
		exposure:   d.current.Float("exposure"),
	})
	return nil
}
