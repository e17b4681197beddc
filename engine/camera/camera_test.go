package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func TestControllerDefaults(t *testing.T) {
	cc := NewCameraController(WithPosition(mgl32.Vec3{0, -0.7, 3}))
	assertVec3(t, mgl32.Vec3{0, 0, -1}, cc.Front())
	assertVec3(t, mgl32.Vec3{1, 0, 0}, cc.Right())
	assertVec3(t, mgl32.Vec3{0, 1, 0}, cc.Up())
	assert.Equal(t, mgl32.Vec3{0, -0.7, 3}, cc.Position())
}

func TestControllerMove(t *testing.T) {
	cc := NewCameraController(WithMovementSpeed(2))
	cc.Move(Forward, 0.5)
	assertVec3(t, mgl32.Vec3{0, 0, -1}, cc.Position())
	cc.Move(Right, 1)
	assertVec3(t, mgl32.Vec3{2, 0, -1}, cc.Position())
	cc.Move(Left, 1)
	cc.Move(Backward, 0.5)
	assertVec3(t, mgl32.Vec3{}, cc.Position())
}

func TestControllerLookClampsPitch(t *testing.T) {
	cc := NewCameraController(WithMouseSensitivity(1))
	cc.Look(0, 500)
	assert.Equal(t, MaxPitch, cc.Pitch())
	cc.Look(0, -1000)
	assert.Equal(t, -MaxPitch, cc.Pitch())

	cc.Look(90, 89)
	assert.Equal(t, float32(0), cc.Yaw())
	assertVec3(t, mgl32.Vec3{1, 0, 0}, cc.Front())
}

func TestControllerSetFront(t *testing.T) {
	cc := NewCameraController()
	cc.SetFront(mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, 0, cc.Yaw(), 1e-4)
	assertVec3(t, mgl32.Vec3{1, 0, 0}, cc.Front())

	cc.SetFront(mgl32.Vec3{})
	assertVec3(t, mgl32.Vec3{1, 0, 0}, cc.Front())

	cc.SetFront(mgl32.Vec3{0, 1, 0})
	assert.Equal(t, MaxPitch, cc.Pitch())
}

func TestCameraZoomClamps(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, MaxFov, c.Fov())
	c.Zoom(10)
	assert.Equal(t, float32(35), c.Fov())
	c.Zoom(100)
	assert.Equal(t, MinFov, c.Fov())
	c.Zoom(-100)
	assert.Equal(t, MaxFov, c.Fov())
}

func TestCameraDepthRange(t *testing.T) {
	cc := NewCameraController()
	c := NewCamera(WithController(cc), WithAspect(800.0/600.0))

	vp := c.ViewProjectionMatrix()
	near := vp.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	far := vp.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	assert.InDelta(t, 0, near[2]/near[3], 1e-4)
	assert.InDelta(t, 1, far[2]/far[3], 1e-4)
}

func TestCameraFollowsController(t *testing.T) {
	cc := NewCameraController()
	c := NewCamera(WithController(cc))
	before := c.ViewMatrix()

	cc.Move(Forward, 1)
	assert.Equal(t, before, c.ViewMatrix(), "matrices change on Update")
	c.Update()
	assert.NotEqual(t, before, c.ViewMatrix())

	// The camera's position maps to the view space origin.
	origin := c.ViewMatrix().Mul4x1(cc.Position().Vec4(1))
	assertVec3(t, mgl32.Vec3{}, origin.Vec3())
}

func TestSetAspectIgnoresInvalid(t *testing.T) {
	c := NewCamera(WithAspect(2))
	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())
}
