package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - position: world-space coordinates
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(position mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = position
	}
}

// WithYawPitch sets the initial orientation in degrees.
//
// Parameters:
//   - yaw: heading in degrees, -90 looks down -Z
//   - pitch: elevation in degrees, clamped to +/- MaxPitch
//
// Returns:
//   - CameraControllerOption: functional option to set the orientation
func WithYawPitch(yaw, pitch float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw = yaw
		cc.pitch = pitch
	}
}

// WithWorldUp sets the world up vector used to derive the right vector.
//
// Parameters:
//   - up: world up, normally +Y
//
// Returns:
//   - CameraControllerOption: functional option to set the world up vector
func WithWorldUp(up mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.worldUp = up
	}
}

// WithMovementSpeed sets the movement speed in world units per second.
//
// Parameters:
//   - speed: units per second
//
// Returns:
//   - CameraControllerOption: functional option to set the movement speed
func WithMovementSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.movementSpeed = speed
	}
}

// WithMouseSensitivity sets the degrees turned per pixel of mouse movement.
//
// Parameters:
//   - sensitivity: degrees per pixel
//
// Returns:
//   - CameraControllerOption: functional option to set the mouse sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}
