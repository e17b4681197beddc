package software

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// bandHeight is the number of rows one raster task covers.
const bandHeight = 32

// Framebuffer is the set of attachments a draw writes into.
type Framebuffer struct {
	Color []*Image
	Depth *DepthBuffer
}

// Size returns the framebuffer dimensions taken from its first attachment.
func (fb Framebuffer) Size() (int, int) {
	if len(fb.Color) > 0 {
		return fb.Color[0].Width, fb.Color[0].Height
	}
	if fb.Depth != nil {
		return fb.Depth.Width, fb.Depth.Height
	}
	return 0, 0
}

// State is the fixed-function configuration of a draw.
type State struct {
	Topology   wgpu.PrimitiveTopology
	CullMode   wgpu.CullMode
	FrontFace  wgpu.FrontFace
	DepthTest  bool
	DepthWrite bool
	Blend      bool

	// DepthCompare is the depth test function. The zero value tests with Less.
	DepthCompare wgpu.CompareFunction
}

// depthPasses applies the depth test function to a fragment depth z and the stored depth.
func depthPasses(compare wgpu.CompareFunction, z, stored float32) bool {
	switch compare {
	case wgpu.CompareFunctionNever:
		return false
	case wgpu.CompareFunctionLessEqual:
		return z <= stored
	case wgpu.CompareFunctionEqual:
		return z == stored
	case wgpu.CompareFunctionGreater:
		return z > stored
	case wgpu.CompareFunctionGreaterEqual:
		return z >= stored
	case wgpu.CompareFunctionNotEqual:
		return z != stored
	case wgpu.CompareFunctionAlways:
		return true
	default:
		return z < stored
	}
}

// clipVertex is a vertex after the vertex stage.
type clipVertex struct {
	pos  mgl32.Vec4
	vary Varyings
}

// screenVertex is a vertex after clipping, perspective divide and viewport mapping.
type screenVertex struct {
	x, y, z float32
	invW    float32
	vary    Varyings // already multiplied by invW
}

type triangle struct {
	v          [3]screenVertex
	minY, maxY int
}

// Rasterizer draws triangles into a Framebuffer. Rows are split into bands that run
// on a fixed set of workers; every Draw waits for all of its bands before returning.
// Release stops the workers.
type Rasterizer struct {
	mu        *sync.Mutex
	tasks     chan worker.Task
	stop      chan int
	workers   []worker.Worker
	clipped   []clipVertex
	triangles []triangle
	taskID    int
	released  bool
}

// NewRasterizer creates a rasterizer and starts its workers.
// A count below 1 uses one worker per CPU.
//
// Parameters:
//   - workers: number of worker goroutines
//
// Returns:
//   - *Rasterizer: the rasterizer
func NewRasterizer(workers int) *Rasterizer {
	if workers < 1 {
		workers = max(runtime.NumCPU(), 1)
	}
	r := &Rasterizer{
		mu:    &sync.Mutex{},
		tasks: make(chan worker.Task, 256),
		stop:  make(chan int, workers),
	}
	for i := range workers {
		w := worker.NewWorker(i, r.tasks, r.stop, time.Second, nil)
		w.Start()
		r.workers = append(r.workers, w)
	}
	return r
}

// Workers returns the number of worker goroutines, zero once released.
func (r *Rasterizer) Workers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return 0
	}
	return len(r.workers)
}

// Release stops the workers by closing their channels. Later calls, and Draw after
// Release, do nothing.
func (r *Rasterizer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	close(r.tasks)
	close(r.stop)
}

// Draw runs stage over the vertex data and rasterizes the result into fb.
//
// Parameters:
//   - fb: the attachments to write
//   - st: fixed-function state
//   - stage: the prepared program
//   - tex: texture units for the fragment stage
//   - vertices: interleaved float vertex data
//   - stride: floats per vertex
func (r *Rasterizer) Draw(fb Framebuffer, st State, stage Stage, tex Sampler, vertices []float32, stride int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}

	width, height := fb.Size()
	if width == 0 || height == 0 || stride <= 0 || stage.Vertex == nil || stage.Fragment == nil {
		return
	}

	count := len(vertices) / stride
	r.clipped = r.clipped[:0]
	for i := 0; i < count; i++ {
		var cv clipVertex
		cv.pos = stage.Vertex(vertices[i*stride:(i+1)*stride], &cv.vary)
		r.clipped = append(r.clipped, cv)
	}

	r.triangles = r.triangles[:0]
	assemble(st.Topology, count, func(a, b, c int) {
		r.addTriangle(st, stage.Varyings, width, height, r.clipped[a], r.clipped[b], r.clipped[c])
	})
	if len(r.triangles) == 0 {
		return
	}

	var wg sync.WaitGroup
	for y0 := 0; y0 < height; y0 += bandHeight {
		y1 := min(y0+bandHeight, height)
		wg.Add(1)
		band0, band1 := y0, y1
		r.taskID++
		r.tasks <- worker.Task{
			ID: r.taskID,
			Do: func() (any, error) {
				defer wg.Done()
				r.rasterBand(fb, st, stage, tex, band0, band1)
				return nil, nil
			},
		}
	}
	wg.Wait()
}

// assemble walks the primitive topology and emits vertex index triples.
func assemble(topology wgpu.PrimitiveTopology, count int, emit func(a, b, c int)) {
	switch topology {
	case wgpu.PrimitiveTopologyTriangleStrip:
		for i := 0; i+2 < count; i++ {
			// Odd strip triangles swap the first two vertices to keep the winding.
			if i%2 == 0 {
				emit(i, i+1, i+2)
			} else {
				emit(i+1, i, i+2)
			}
		}
	default:
		for i := 0; i+2 < count; i += 3 {
			emit(i, i+1, i+2)
		}
	}
}

// addTriangle culls, clips against the near plane and queues the result.
func (r *Rasterizer) addTriangle(st State, varyings, width, height int, a, b, c clipVertex) {
	poly := clipNear([]clipVertex{a, b, c}, varyings)
	if len(poly) < 3 {
		return
	}

	// Facing is decided in NDC where y points up, matching the GPU convention.
	p0 := ndc(poly[0].pos)
	p1 := ndc(poly[1].pos)
	p2 := ndc(poly[2].pos)
	area := (p1[0]-p0[0])*(p2[1]-p0[1]) - (p2[0]-p0[0])*(p1[1]-p0[1])
	if area == 0 {
		return
	}
	front := area > 0
	if st.FrontFace == wgpu.FrontFaceCW {
		front = !front
	}
	if (st.CullMode == wgpu.CullModeBack && !front) || (st.CullMode == wgpu.CullModeFront && front) {
		return
	}

	for i := 1; i+1 < len(poly); i++ {
		t := triangle{v: [3]screenVertex{
			toScreen(poly[0], varyings, width, height),
			toScreen(poly[i], varyings, width, height),
			toScreen(poly[i+1], varyings, width, height),
		}}
		minY := math32.Min(t.v[0].y, math32.Min(t.v[1].y, t.v[2].y))
		maxY := math32.Max(t.v[0].y, math32.Max(t.v[1].y, t.v[2].y))
		t.minY = max(int(math32.Floor(minY)), 0)
		t.maxY = min(int(math32.Ceil(maxY)), height-1)
		if t.minY > t.maxY {
			continue
		}
		r.triangles = append(r.triangles, t)
	}
}

// clipNear clips a polygon against the z >= 0 clip plane.
func clipNear(in []clipVertex, varyings int) []clipVertex {
	out := make([]clipVertex, 0, len(in)+1)
	for i := range in {
		cur := in[i]
		next := in[(i+1)%len(in)]
		curIn := cur.pos[2] >= 0
		nextIn := next.pos[2] >= 0
		if curIn {
			out = append(out, cur)
		}
		if curIn != nextIn {
			t := cur.pos[2] / (cur.pos[2] - next.pos[2])
			var v clipVertex
			v.pos = cur.pos.Add(next.pos.Sub(cur.pos).Mul(t))
			for k := 0; k < varyings; k++ {
				v.vary[k] = cur.vary[k] + (next.vary[k]-cur.vary[k])*t
			}
			out = append(out, v)
		}
	}
	return out
}

func ndc(p mgl32.Vec4) mgl32.Vec3 {
	return mgl32.Vec3{p[0] / p[3], p[1] / p[3], p[2] / p[3]}
}

func toScreen(v clipVertex, varyings, width, height int) screenVertex {
	invW := 1 / v.pos[3]
	p := ndc(v.pos)
	sv := screenVertex{
		x:    (p[0]*0.5 + 0.5) * float32(width),
		y:    (0.5 - p[1]*0.5) * float32(height),
		z:    p[2],
		invW: invW,
	}
	for k := 0; k < varyings; k++ {
		sv.vary[k] = v.vary[k] * invW
	}
	return sv
}

// rasterBand shades every queued triangle restricted to rows [y0, y1).
func (r *Rasterizer) rasterBand(fb Framebuffer, st State, stage Stage, tex Sampler, y0, y1 int) {
	width, _ := fb.Size()
	var vary Varyings
	var out [MaxColorTargets]mgl32.Vec4

	for ti := range r.triangles {
		t := &r.triangles[ti]
		if t.maxY < y0 || t.minY >= y1 {
			continue
		}
		a, b, c := &t.v[0], &t.v[1], &t.v[2]
		area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
		if area == 0 {
			continue
		}
		invArea := 1 / area

		minX := max(int(math32.Floor(math32.Min(a.x, math32.Min(b.x, c.x)))), 0)
		maxX := min(int(math32.Ceil(math32.Max(a.x, math32.Max(b.x, c.x)))), width-1)
		rowStart := max(t.minY, y0)
		rowEnd := min(t.maxY, y1-1)

		for y := rowStart; y <= rowEnd; y++ {
			py := float32(y) + 0.5
			for x := minX; x <= maxX; x++ {
				px := float32(x) + 0.5
				w0 := edge(b.x, b.y, c.x, c.y, px, py) * invArea
				w1 := edge(c.x, c.y, a.x, a.y, px, py) * invArea
				w2 := edge(a.x, a.y, b.x, b.y, px, py) * invArea
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}

				// Relative to a.z so a constant depth interpolates exactly. Depth is
				// clamped to the viewport range, as on the GPU.
				z := math32.Min(a.z+w1*(b.z-a.z)+w2*(c.z-a.z), 1)
				di := y*width + x
				if fb.Depth != nil && st.DepthTest && !depthPasses(st.DepthCompare, z, fb.Depth.Z[di]) {
					continue
				}

				invW := w0*a.invW + w1*b.invW + w2*c.invW
				for k := 0; k < stage.Varyings; k++ {
					vary[k] = (w0*a.vary[k] + w1*b.vary[k] + w2*c.vary[k]) / invW
				}

				if !stage.Fragment(&vary, tex, &out) {
					continue
				}
				if fb.Depth != nil && st.DepthWrite {
					fb.Depth.Z[di] = z
				}
				for i, img := range fb.Color {
					if i >= MaxColorTargets {
						break
					}
					src := out[i]
					if st.Blend {
						dst := img.At(x, y)
						alpha := src[3]
						src = mgl32.Vec4{
							src[0]*alpha + dst[0]*(1-alpha),
							src[1]*alpha + dst[1]*(1-alpha),
							src[2]*alpha + dst[2]*(1-alpha),
							alpha + dst[3]*(1-alpha),
						}
					}
					img.Set(x, y, src)
				}
			}
		}
	}
}

// edge is the signed area of (a, b, p) times two.
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}
