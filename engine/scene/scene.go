package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/camera"
	"github.com/Carmen-Shannon/oxy-bloom/engine/game_object"
	"github.com/Carmen-Shannon/oxy-bloom/engine/light"
	"github.com/Carmen-Shannon/oxy-bloom/engine/model"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// Device is the part of the renderer a scene draws with.
type Device interface {
	model.BufferCreator
	RegisterPipeline(p pipeline.Pipeline) error
	UsePipeline(p pipeline.Pipeline)
	Draw(buf renderer.VertexBuffer) error
}

var _ Device = renderer.Renderer(nil)

// DrawStats counts what one DrawCalls pass did.
type DrawStats struct {
	Drawn  int
	Culled int

	// Sky is true when the sky was drawn behind the objects.
	Sky bool
}

// Scene holds a fixed set of GameObjects and up to light.MaxLights lights, and issues
// their draw calls through the lit scene pipeline into whatever target is bound.
// Objects are drawn in insertion order. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Add adds a GameObject and assigns it an ID when it has none.
	// Models are uploaded by Init, or immediately when the scene is already initialized.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves a GameObject by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes a GameObject by ID. Its model is not released.
	Remove(id uint64)

	// Objects returns the GameObjects in draw order.
	Objects() []game_object.GameObject

	// Count returns the number of GameObjects.
	Count() int

	// AddLight appends a light. Lights past light.MaxLights are kept but never uploaded.
	AddLight(l light.Light)

	// Lights returns the scene's lights in upload order.
	Lights() []light.Light

	// CullingDisabled reports whether frustum culling is off.
	CullingDisabled() bool

	// SetCullingDisabled turns frustum culling off or back on.
	SetCullingDisabled(disabled bool)

	// Pipeline returns the lit scene pipeline, or nil before Init.
	Pipeline() pipeline.Pipeline

	// Sky returns the scene's sky and whether it has one.
	Sky() (Sky, bool)

	// SkyPipeline returns the sky pipeline, or nil before Init or without a sky.
	SkyPipeline() pipeline.Pipeline

	// Init builds and registers the scene pipeline, and the sky pipeline when the scene
	// has a sky, and uploads every model.
	//
	// Parameters:
	//   - device: the device to render with
	//
	// Returns:
	//   - error: an error if the pipeline cannot be built or registered, or a model fails to upload
	Init(device Device) error

	// ReloadShaders rebuilds the scene and sky pipelines from shaderDir. On failure the
	// previous shaders of the failing pipeline stay in use.
	//
	// Parameters:
	//   - device: the device the pipeline is registered with
	//   - shaderDir: override directory, "" for the embedded shader
	//
	// Returns:
	//   - error: an error if the shader fails to load or compile
	ReloadShaders(device Device, shaderDir string) error

	// DrawCalls uploads the camera and lights and draws every enabled object into the bound
	// target, then the sky at the far plane. Objects outside the view frustum are skipped
	// unless culling is disabled.
	// Draw errors do not stop the pass; they are joined and returned.
	//
	// Parameters:
	//   - device: the device to draw with
	//   - threshold: luminance above which radiance also goes to the bright attachment
	//
	// Returns:
	//   - DrawStats: how many objects were drawn and culled
	//   - error: the joined draw errors, or an error if the scene is not initialized
	DrawCalls(device Device, threshold float32) (DrawStats, error)

	// Release frees every model's vertex buffer and the sky quad. Later calls are no-ops.
	Release()
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu     *sync.RWMutex
	name   string
	logger zerolog.Logger
	cam    camera.Camera

	registry map[uint64]game_object.GameObject
	order    []uint64
	nextID   uint64
	lights   []light.Light

	cullingDisabled bool
	shaderDir       string
	pipeline        pipeline.Pipeline
	device          Device
	released        bool

	sky         *Sky
	skyPipeline pipeline.Pipeline
	skyQuad     renderer.VertexBuffer
}

var _ Scene = &scene{}

// NewScene creates an empty scene viewed through cam.
//
// Parameters:
//   - cam: the camera the scene is drawn from
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - Scene: the new scene
func NewScene(cam camera.Camera, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:       &sync.RWMutex{},
		name:     "scene",
		logger:   zerolog.Nop(),
		cam:      cam,
		registry: make(map[uint64]game_object.GameObject),
		nextID:   1,
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With().Str("scene", s.name).Logger()
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := obj.ID()
	if id == 0 {
		id = s.nextID
	}
	if id >= s.nextID {
		s.nextID = id + 1
	}
	if _, exists := s.registry[id]; !exists {
		s.order = append(s.order, id)
	}
	s.registry[id] = obj

	if s.device != nil && obj.Model() != nil {
		if err := obj.Model().Upload(s.device); err != nil {
			s.logger.Error().Err(err).Str("object", obj.Name()).Msg("failed to upload model")
		}
	}
	return id
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registry[id]; !ok {
		return
	}
	delete(s.registry, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects()
}

func (s *scene) objects() []game_object.GameObject {
	out := make([]game_object.GameObject, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.registry[id])
	}
	return out
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lights) == light.MaxLights {
		s.logger.Warn().Int("max", light.MaxLights).Msg("light limit reached, extra lights are not uploaded")
	}
	s.lights = append(s.lights, l)
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]light.Light, len(s.lights))
	copy(out, s.lights)
	return out
}

func (s *scene) CullingDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cullingDisabled
}

func (s *scene) SetCullingDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cullingDisabled = disabled
}

func (s *scene) Pipeline() pipeline.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

func (s *scene) Sky() (Sky, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sky == nil {
		return Sky{}, false
	}
	return *s.sky, true
}

func (s *scene) SkyPipeline() pipeline.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skyPipeline
}

func (s *scene) Init(device Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return renderer.ErrReleased
	}

	p, err := NewScenePipeline(s.shaderDir)
	if err != nil {
		return err
	}
	if err := device.RegisterPipeline(p); err != nil {
		return fmt.Errorf("scene: failed to register pipeline: %w", err)
	}
	s.pipeline = p
	s.device = device

	if s.sky != nil && s.skyPipeline == nil {
		if err := s.initSky(device); err != nil {
			return err
		}
	}

	var errs []error
	for _, obj := range s.objects() {
		if obj.Model() == nil {
			continue
		}
		if err := obj.Model().Upload(device); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("scene: failed to upload models: %w", err)
	}
	s.logger.Debug().Int("objects", len(s.order)).Int("lights", len(s.lights)).Msg("scene initialized")
	return nil
}

// initSky builds the sky pipeline and uploads its quad. Caller must hold the lock.
func (s *scene) initSky(device Device) error {
	p, err := NewSkyPipeline(s.shaderDir)
	if err != nil {
		return err
	}
	if err := device.RegisterPipeline(p); err != nil {
		return fmt.Errorf("scene: failed to register sky pipeline: %w", err)
	}
	quad, err := device.CreateVertexBuffer("sky", pipeline.PositionUV, skyVertices)
	if err != nil {
		return fmt.Errorf("scene: failed to upload sky quad: %w", err)
	}
	s.skyPipeline = p
	s.skyQuad = quad
	return nil
}

func (s *scene) ReloadShaders(device Device, shaderDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pipeline == nil {
		return fmt.Errorf("scene: reload before init")
	}

	if err := reloadPipeline(device, s.pipeline, shaderDir, shader.SourceScene); err != nil {
		return err
	}
	if s.skyPipeline != nil {
		if err := reloadPipeline(device, s.skyPipeline, shaderDir, shader.SourceSky); err != nil {
			return err
		}
	}
	s.shaderDir = shaderDir
	s.logger.Info().Str("dir", shaderDir).Msg("scene shaders reloaded")
	return nil
}

func (s *scene) DrawCalls(device Device, threshold float32) (DrawStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats DrawStats
	if s.pipeline == nil {
		return stats, fmt.Errorf("scene: draw before init")
	}
	if s.released {
		return stats, renderer.ErrReleased
	}

	p := s.pipeline
	device.UsePipeline(p)

	viewProj := s.cam.ViewProjectionMatrix()
	p.SetMat4("view_proj", viewProj)
	p.SetVec3("view_pos", eyePosition(s.cam))
	p.SetFloat("threshold", threshold)
	light.Pack(p, s.lights)
	frustum := common.ExtractFrustum(viewProj)

	var errs []error
	for _, id := range s.order {
		obj := s.registry[id]
		if !obj.Enabled() || obj.Model() == nil || obj.Model().Buffer() == nil {
			continue
		}
		if !s.cullingDisabled {
			center, radius := obj.BoundingSphere()
			if !frustum.ContainsSphere(center, radius) {
				stats.Culled++
				continue
			}
		}

		obj.Material().Apply(p)
		p.SetMat4("model", obj.ModelMatrix())
		p.SetMat4("normal_matrix", obj.NormalMatrix())
		if err := device.Draw(obj.Model().Buffer()); err != nil {
			errs = append(errs, fmt.Errorf("scene: failed to draw %q: %w", obj.Name(), err))
			continue
		}
		stats.Drawn++
	}

	if s.skyPipeline != nil && s.skyQuad != nil {
		device.UsePipeline(s.skyPipeline)
		s.skyPipeline.SetMat4("inv_view_proj", SkyInverseViewProjection(s.cam.ViewMatrix(), s.cam.ProjectionMatrix()))
		s.skyPipeline.SetFloat("threshold", threshold)
		s.sky.apply(s.skyPipeline)
		if err := device.Draw(s.skyQuad); err != nil {
			errs = append(errs, fmt.Errorf("scene: failed to draw sky: %w", err))
		} else {
			stats.Sky = true
		}
	}
	return stats, errors.Join(errs...)
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true

	// Objects may share a model, so each is released once.
	seen := make(map[model.Model]bool)
	for _, obj := range s.objects() {
		m := obj.Model()
		if m == nil || seen[m] {
			continue
		}
		seen[m] = true
		m.Release()
	}
	if s.skyQuad != nil {
		s.skyQuad.Release()
		s.skyQuad = nil
	}
}

// reloadPipeline swaps p's shaders for the pair in source and re-registers it, restoring
// the previous pair when registration fails.
func reloadPipeline(device Device, p pipeline.Pipeline, shaderDir, source string) error {
	vs, fs, err := shader.LoadPair(shaderDir, source)
	if err != nil {
		return err
	}
	oldVS, oldFS := p.Shader(shader.ShaderTypeVertex), p.Shader(shader.ShaderTypeFragment)
	p.SetShaders(vs, fs)
	if err := device.RegisterPipeline(p); err != nil {
		p.SetShaders(oldVS, oldFS)
		return err
	}
	return nil
}

// eyePosition is the controller position, or the translation of the inverse view matrix
// for a camera without a controller.
func eyePosition(cam camera.Camera) mgl32.Vec3 {
	if ctrl := cam.Controller(); ctrl != nil {
		return ctrl.Position()
	}
	return cam.ViewMatrix().Inv().Col(3).Vec3()
}
