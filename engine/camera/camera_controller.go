package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Direction is a movement direction relative to where the camera looks.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
)

// MaxPitch is the largest pitch in degrees the controller allows, short of looking straight up or down.
const MaxPitch float32 = 89

// CameraController owns the camera's position and orientation.
// It is a free-fly controller: yaw and pitch in degrees set the look direction, and
// movement follows that direction including its vertical part.
type CameraController interface {
	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// SetPosition sets the camera's world-space position.
	//
	// Parameters:
	//   - position: world-space coordinates
	SetPosition(position mgl32.Vec3)

	// Front returns the normalized look direction.
	Front() mgl32.Vec3

	// SetFront points the camera along front, deriving yaw and pitch from it.
	// A zero vector is ignored.
	//
	// Parameters:
	//   - front: the new look direction, need not be normalized
	SetFront(front mgl32.Vec3)

	// Right returns the normalized right vector.
	Right() mgl32.Vec3

	// Up returns the normalized camera up vector.
	Up() mgl32.Vec3

	// Yaw returns the heading in degrees. -90 looks down -Z.
	Yaw() float32

	// Pitch returns the elevation of the look direction in degrees.
	Pitch() float32

	// Move translates the camera along its axes by MovementSpeed * dt.
	//
	// Parameters:
	//   - direction: which way to move
	//   - dt: frame time in seconds
	Move(direction Direction, dt float32)

	// Look turns the camera by mouse offsets scaled by MouseSensitivity.
	// Positive dy looks up. Pitch is clamped to +/- MaxPitch.
	//
	// Parameters:
	//   - dx: horizontal offset in pixels
	//   - dy: vertical offset in pixels
	Look(dx, dy float32)

	// MovementSpeed returns the speed in world units per second.
	MovementSpeed() float32

	// MouseSensitivity returns the degrees turned per pixel of mouse movement.
	MouseSensitivity() float32
}

// cameraControllerImpl is the single implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	worldUp  mgl32.Vec3
	front    mgl32.Vec3
	right    mgl32.Vec3
	up       mgl32.Vec3

	yaw   float32
	pitch float32

	movementSpeed    float32
	mouseSensitivity float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a free-fly controller at the origin looking down -Z,
// moving 2.5 units per second and turning 0.1 degrees per pixel.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:               &sync.Mutex{},
		worldUp:          mgl32.Vec3{0, 1, 0},
		yaw:              -90,
		pitch:            0,
		movementSpeed:    2.5,
		mouseSensitivity: 0.1,
	}
	for _, option := range options {
		option(cc)
	}
	cc.pitch = common.Clamp(cc.pitch, -MaxPitch, MaxPitch)
	cc.updateVectors()
	return cc
}

// updateVectors recomputes front, right and up from yaw and pitch.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updateVectors() {
	yaw, pitch := mgl32.DegToRad(cc.yaw), mgl32.DegToRad(cc.pitch)
	cc.front = mgl32.Vec3{
		math32.Cos(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Sin(yaw) * math32.Cos(pitch),
	}.Normalize()
	cc.right = cc.front.Cross(cc.worldUp).Normalize()
	cc.up = cc.right.Cross(cc.front).Normalize()
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(position mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = position
}

func (cc *cameraControllerImpl) Front() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.front
}

func (cc *cameraControllerImpl) SetFront(front mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if front.Len() == 0 {
		return
	}
	front = front.Normalize()
	cc.pitch = common.Clamp(mgl32.RadToDeg(math32.Asin(common.Clamp(front[1], -1, 1))), -MaxPitch, MaxPitch)
	cc.yaw = mgl32.RadToDeg(math32.Atan2(front[2], front[0]))
	cc.updateVectors()
}

func (cc *cameraControllerImpl) Right() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.right
}

func (cc *cameraControllerImpl) Up() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.up
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) Move(direction Direction, dt float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	velocity := cc.movementSpeed * dt
	switch direction {
	case Forward:
		cc.position = cc.position.Add(cc.front.Mul(velocity))
	case Backward:
		cc.position = cc.position.Sub(cc.front.Mul(velocity))
	case Left:
		cc.position = cc.position.Sub(cc.right.Mul(velocity))
	case Right:
		cc.position = cc.position.Add(cc.right.Mul(velocity))
	}
}

func (cc *cameraControllerImpl) Look(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw += dx * cc.mouseSensitivity
	cc.pitch = common.Clamp(cc.pitch+dy*cc.mouseSensitivity, -MaxPitch, MaxPitch)
	cc.updateVectors()
}

func (cc *cameraControllerImpl) MovementSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.movementSpeed
}

func (cc *cameraControllerImpl) MouseSensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.mouseSensitivity
}
