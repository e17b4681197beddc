package postprocess

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubBlur(t *testing.T) (*stubDevice, *Blur, *PingPong) {
	t.Helper()
	d := &stubDevice{}
	p, err := NewBlurPipeline("")
	require.NoError(t, err)
	q, err := NewQuad(d, zerolog.Nop())
	require.NoError(t, err)
	pp, err := NewPingPong(d, 8, 8)
	require.NoError(t, err)
	return d, NewBlur(d, p, q, pp, zerolog.Nop()), pp
}

func TestBlurStateAdvance(t *testing.T) {
	s := NewBlurState()
	assert.True(t, s.Horizontal)
	assert.True(t, s.First)
	assert.Equal(t, 1, s.WriteIndex)
	assert.Equal(t, -1, s.FinalIndex)

	s.Advance()
	assert.Equal(t, BlurState{Horizontal: false, First: false, WriteIndex: 0, ReadIndex: 1, FinalIndex: 1}, s)

	s.Advance()
	assert.Equal(t, BlurState{Horizontal: true, First: false, WriteIndex: 1, ReadIndex: 0, FinalIndex: 0}, s)
}

func TestBlurZeroIterations(t *testing.T) {
	for _, n := range []int{0, -3} {
		d, blur, _ := newStubBlur(t)
		source := &stubTexture{label: "bright"}

		out, report := blur.Run(source, n)
		assert.Same(t, source, out)
		assert.Zero(t, report.Draws)
		assert.Equal(t, -1, report.FinalIndex)
		assert.Empty(t, d.draws)
	}
}

func TestBlurRunSequence(t *testing.T) {
	d, blur, pp := newStubBlur(t)
	source := &stubTexture{label: "bright"}

	out, report := blur.Run(source, 3)
	require.Len(t, d.draws, 3)
	assert.Equal(t, 3, report.Draws)
	assert.Equal(t, 1, report.FinalIndex)
	assert.Same(t, pp.ColorOf(1), out)

	wantTargets := []int{1, 0, 1}
	wantHorizontal := []int{1, 0, 1}
	wantReads := []renderer.Texture{source, pp.ColorOf(1), pp.ColorOf(0)}
	for i, draw := range d.draws {
		assert.Equal(t, BlurPipelineKey, draw.pipeline)
		assert.Same(t, pp.TargetFor(wantTargets[i]), draw.target, "pass %d target", i)
		assert.Equal(t, wantHorizontal[i], draw.horizontal, "pass %d direction", i)
		assert.Same(t, wantReads[i], draw.units[0], "pass %d source", i)
		assert.NotSame(t, draw.target.Color(0), draw.units[0], "pass %d reads its own target", i)
	}
}

func TestBlurStateSequenceForTenPasses(t *testing.T) {
	s := NewBlurState()
	var first, horizontal []bool
	for range 10 {
		first = append(first, s.First)
		horizontal = append(horizontal, s.Horizontal)
		require.NotEqual(t, s.WriteIndex, s.ReadIndex)
		s.Advance()
	}
	assert.Equal(t, []bool{true, false, false, false, false, false, false, false, false, false}, first)
	assert.Equal(t, []bool{true, false, true, false, true, false, true, false, true, false}, horizontal)
	assert.Equal(t, 0, s.FinalIndex)
}

func TestBlurRunIterationSweep(t *testing.T) {
	tests := []struct {
		name       string
		from, to   int
		finalIndex int
	}{
		{name: "odd", from: 1, to: 99, finalIndex: 1},
		{name: "even", from: 2, to: 100, finalIndex: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for n := tt.from; n <= tt.to; n += 2 {
				d, blur, pp := newStubBlur(t)
				source := &stubTexture{label: "bright"}

				out, report := blur.Run(source, n)
				require.Len(t, d.draws, n)
				assert.Equal(t, n, report.Draws)
				require.Equal(t, tt.finalIndex, report.FinalIndex, "n=%d", n)
				assert.Same(t, pp.ColorOf(tt.finalIndex), out, "n=%d", n)
				assert.Same(t, pp.TargetFor(tt.finalIndex), d.draws[n-1].target, "n=%d output is the last draw's target", n)

				for i, draw := range d.draws {
					assert.Equal(t, 1-i%2, draw.horizontal, "n=%d pass %d direction", n, i)
					assert.NotSame(t, draw.target.Color(0), draw.units[0], "n=%d pass %d reads its own target", n, i)
					if i == 0 {
						assert.Same(t, source, draw.units[0])
					} else {
						assert.Same(t, d.draws[i-1].target.Color(0), draw.units[0], "n=%d pass %d reads the previous pass", n, i)
					}
				}
			}
		})
	}
}

func TestBlurEvenIterationsEndOnZero(t *testing.T) {
	_, blur, pp := newStubBlur(t)
	out, report := blur.Run(&stubTexture{}, 10)
	assert.Equal(t, 10, report.Draws)
	assert.Equal(t, 0, report.FinalIndex)
	assert.Same(t, pp.ColorOf(0), out)
}

func TestBlurStopsWhenQuadReleased(t *testing.T) {
	d, blur, _ := newStubBlur(t)
	blur.quad.Release()
	source := &stubTexture{}

	out, report := blur.Run(source, 4)
	assert.Zero(t, report.Draws)
	assert.Same(t, source, out)
	assert.Empty(t, d.draws)
}

func TestPingPongIndexOutOfRange(t *testing.T) {
	_, _, pp := newStubBlur(t)
	assert.Panics(t, func() { pp.TargetFor(2) })
	assert.Panics(t, func() { pp.ColorOf(-1) })
	assert.NotPanics(t, func() { pp.TargetFor(0) })
}

func TestPingPongTargets(t *testing.T) {
	d := &stubDevice{}
	pp, err := NewPingPong(d, 16, 4)
	require.NoError(t, err)
	require.Len(t, d.targets, 2)
	for _, target := range d.targets {
		assert.Len(t, target.desc.Color, 1)
		assert.Equal(t, HDRFormat, target.desc.Color[0].Format)
		assert.Nil(t, target.desc.Depth)
		assert.Equal(t, 16, target.desc.Width)
		assert.Equal(t, 4, target.desc.Height)
	}
	assert.NotSame(t, pp.TargetFor(0), pp.TargetFor(1))

	pp.Release()
	assert.ErrorIs(t, pp.Status(), renderer.ErrReleased)
}

func TestPingPongIncomplete(t *testing.T) {
	d := &stubDevice{incompleteLabel: "Ping Pong 1"}
	pp, err := NewPingPong(d, 16, 4)
	assert.ErrorIs(t, err, renderer.ErrIncompleteTarget)
	require.NotNil(t, pp)
	assert.ErrorIs(t, pp.Status(), renderer.ErrIncompleteTarget)
}
