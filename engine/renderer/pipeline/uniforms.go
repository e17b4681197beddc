package pipeline

import "github.com/go-gl/mathgl/mgl32"

// UniformType identifies the shape of a named uniform value.
type UniformType int

const (
	UniformTypeInt UniformType = iota
	UniformTypeFloat
	UniformTypeVec3
	UniformTypeVec4
	UniformTypeMat4
)

// UniformValue is a single named uniform held on the CPU until the backend uploads it.
// Ints are stored in I, every float shape is stored in F.
type UniformValue struct {
	Type UniformType
	I    int32
	F    [16]float32
}

// uniformStore keeps the uniform values set on a pipeline.
type uniformStore struct {
	values map[string]*UniformValue
}

func newUniformStore() uniformStore {
	return uniformStore{values: make(map[string]*UniformValue)}
}

// slot returns the stored value for name, creating it on first use so that steady-state
// frames reuse the same entry.
func (s *uniformStore) slot(name string, t UniformType) *UniformValue {
	v, ok := s.values[name]
	if !ok {
		v = &UniformValue{}
		s.values[name] = v
	}
	v.Type = t
	return v
}

func (s *uniformStore) get(name string) (*UniformValue, bool) {
	v, ok := s.values[name]
	return v, ok
}

func (p *pipeline) SetInt(name string, value int) {
	p.uniforms.slot(name, UniformTypeInt).I = int32(value)
}

func (p *pipeline) SetFloat(name string, value float32) {
	p.uniforms.slot(name, UniformTypeFloat).F[0] = value
}

func (p *pipeline) SetVec3(name string, value mgl32.Vec3) {
	copy(p.uniforms.slot(name, UniformTypeVec3).F[:3], value[:])
}

func (p *pipeline) SetVec4(name string, value mgl32.Vec4) {
	copy(p.uniforms.slot(name, UniformTypeVec4).F[:4], value[:])
}

func (p *pipeline) SetMat4(name string, value mgl32.Mat4) {
	copy(p.uniforms.slot(name, UniformTypeMat4).F[:], value[:])
}

func (p *pipeline) Int(name string) int {
	if v, ok := p.uniforms.get(name); ok {
		if v.Type == UniformTypeInt {
			return int(v.I)
		}
		return int(v.F[0])
	}
	return 0
}

func (p *pipeline) Float(name string) float32 {
	if v, ok := p.uniforms.get(name); ok {
		if v.Type == UniformTypeInt {
			return float32(v.I)
		}
		return v.F[0]
	}
	return 0
}

func (p *pipeline) Vec3(name string) mgl32.Vec3 {
	if v, ok := p.uniforms.get(name); ok {
		return mgl32.Vec3{v.F[0], v.F[1], v.F[2]}
	}
	return mgl32.Vec3{}
}

func (p *pipeline) Vec4(name string) mgl32.Vec4 {
	if v, ok := p.uniforms.get(name); ok {
		return mgl32.Vec4{v.F[0], v.F[1], v.F[2], v.F[3]}
	}
	return mgl32.Vec4{}
}

func (p *pipeline) Mat4(name string) mgl32.Mat4 {
	if v, ok := p.uniforms.get(name); ok {
		var m mgl32.Mat4
		copy(m[:], v.F[:])
		return m
	}
	return mgl32.Ident4()
}

func (p *pipeline) Uniform(name string) (UniformValue, bool) {
	v, ok := p.uniforms.get(name)
	if !ok {
		return UniformValue{}, false
	}
	return *v, true
}
