package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickLogsAfterInterval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProfiler(zerolog.New(&buf), time.Second)
	start := time.Unix(100, 0)
	p.start = start
	p.now = func() time.Time { return start.Add(500 * time.Millisecond) }

	assert.False(t, p.Tick(FrameSample{Drawn: 10, Culled: 2, BlurDraws: 4, Bloom: true}))
	assert.False(t, p.Tick(FrameSample{Skipped: true}))
	assert.Zero(t, buf.Len())

	p.now = func() time.Time { return start.Add(2 * time.Second) }
	require.True(t, p.Tick(FrameSample{Drawn: 20, Culled: 4, BlurDraws: 4}))

	last := p.Last()
	assert.Equal(t, 3, last.Frames)
	assert.Equal(t, 1, last.Skipped)
	assert.InDelta(t, 1.5, last.FPS, 1e-9)
	assert.InDelta(t, 15, last.AvgDrawn, 1e-9)
	assert.InDelta(t, 3, last.AvgCulled, 1e-9)
	assert.InDelta(t, 4, last.AvgBlurDraws, 1e-9)
	assert.Equal(t, 1, last.BloomFrames)

	assert.Contains(t, buf.String(), `"component":"profiler"`)
	assert.Contains(t, buf.String(), `"blur_draws":4`)
}

func TestTickStartsNewInterval(t *testing.T) {
	p := NewProfiler(zerolog.Nop(), time.Second)
	start := time.Unix(100, 0)
	p.start = start
	p.now = func() time.Time { return start.Add(time.Second) }
	require.True(t, p.Tick(FrameSample{Drawn: 5}))

	p.now = func() time.Time { return start.Add(1500 * time.Millisecond) }
	assert.False(t, p.Tick(FrameSample{Drawn: 7}))
	assert.Equal(t, 1, p.Last().Frames)
	assert.Equal(t, 1, p.acc.Frames)
}

func TestAllSkippedHasNoAverages(t *testing.T) {
	p := NewProfiler(zerolog.Nop(), time.Second)
	p.now = func() time.Time { return p.start.Add(time.Second) }
	require.True(t, p.Tick(FrameSample{Skipped: true, Drawn: 9}))
	assert.Zero(t, p.Last().AvgDrawn)
}

func TestDefaultInterval(t *testing.T) {
	p := NewProfiler(zerolog.Nop(), 0)
	assert.Equal(t, time.Second, p.interval)
}
