// Package profiler logs a periodic line of frame rate, draw counts and memory statistics.
package profiler

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// FrameSample is what one frame drew.
type FrameSample struct {
	Drawn     int
	Culled    int
	BlurDraws int
	Bloom     bool
	Skipped   bool
}

// Summary is the aggregate of the frames of one interval.
type Summary struct {
	FPS float64

	Frames  int
	Skipped int

	// AvgDrawn, AvgCulled and AvgBlurDraws are per rendered frame.
	AvgDrawn     float64
	AvgCulled    float64
	AvgBlurDraws float64

	// BloomFrames counts rendered frames that composited the blurred bright pass.
	BloomFrames int
}

// Profiler accumulates FrameSamples and logs a Summary every interval, along with heap
// and GC figures.
type Profiler struct {
	logger   zerolog.Logger
	interval time.Duration
	now      func() time.Time

	start   time.Time
	acc     Summary
	drawn   int
	culled  int
	blurs   int
	last    Summary
	mem     runtime.MemStats
	lastGC  uint32
	lastTot uint64
}

// NewProfiler creates a new Profiler that logs through logger.
// An interval of zero or less defaults to 1 second.
//
// Parameters:
//   - logger: destination of the periodic stats line
//   - interval: time between stats lines
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger zerolog.Logger, interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		logger:   logger.With().Str("component", "profiler").Logger(),
		interval: interval,
		now:      time.Now,
		start:    time.Now(),
	}
}

// Last returns the summary of the last completed interval, zero before the first one.
func (p *Profiler) Last() Summary {
	return p.last
}

// Frames returns the number of frames recorded in the current interval.
func (p *Profiler) Frames() int {
	return p.acc.Frames
}

// Tick records one frame. When the interval has elapsed it logs the summary and starts
// a new interval.
//
// Parameters:
//   - sample: what the frame drew
//
// Returns:
//   - bool: true if stats were logged this tick
func (p *Profiler) Tick(sample FrameSample) bool {
	p.acc.Frames++
	if sample.Skipped {
		p.acc.Skipped++
	} else {
		p.drawn += sample.Drawn
		p.culled += sample.Culled
		p.blurs += sample.BlurDraws
		if sample.Bloom {
			p.acc.BloomFrames++
		}
	}

	now := p.now()
	elapsed := now.Sub(p.start)
	if elapsed < p.interval {
		return false
	}

	s := p.acc
	s.FPS = float64(s.Frames) / elapsed.Seconds()
	if rendered := s.Frames - s.Skipped; rendered > 0 {
		s.AvgDrawn = float64(p.drawn) / float64(rendered)
		s.AvgCulled = float64(p.culled) / float64(rendered)
		s.AvgBlurDraws = float64(p.blurs) / float64(rendered)
	}

	runtime.ReadMemStats(&p.mem)
	allocRate := float64(p.mem.TotalAlloc-p.lastTot) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a ring of the last 256 pauses.
	var maxPauseUs uint64
	from := p.lastGC
	if p.mem.NumGC-from > 256 {
		from = p.mem.NumGC - 256
	}
	for i := from; i < p.mem.NumGC; i++ {
		maxPauseUs = max(maxPauseUs, p.mem.PauseNs[i%256]/1000)
	}

	p.logger.Info().
		Float64("fps", s.FPS).
		Int("skipped", s.Skipped).
		Float64("drawn", s.AvgDrawn).
		Float64("culled", s.AvgCulled).
		Float64("blur_draws", s.AvgBlurDraws).
		Int("bloom_frames", s.BloomFrames).
		Float64("heap_mb", float64(p.mem.Alloc)/1024/1024).
		Float64("alloc_rate_mb_s", allocRate).
		Uint32("gc", p.mem.NumGC).
		Uint64("gc_max_us", maxPauseUs).
		Msg("frame stats")

	p.last = s
	p.acc = Summary{}
	p.drawn, p.culled, p.blurs = 0, 0, 0
	p.start = now
	p.lastGC = p.mem.NumGC
	p.lastTot = p.mem.TotalAlloc
	return true
}
