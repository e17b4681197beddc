// Package input collects window events into a state the frame loop polls once per frame.
package input

import (
	"sync"
)

// InputState holds which keys are down, one-shot press latches and accumulated
// mouse and scroll deltas. Window callbacks write it and the frame loop reads it.
type InputState struct {
	mu      *sync.Mutex
	held    map[uint32]bool
	latched map[uint32]bool

	haveCursor   bool
	lastX, lastY int32
	mouseDX      float32
	mouseDY      float32
	scroll       float32
}

// NewInputState creates an empty InputState.
//
// Returns:
//   - *InputState: the state with no keys held
func NewInputState() *InputState {
	return &InputState{
		mu:      &sync.Mutex{},
		held:    make(map[uint32]bool),
		latched: make(map[uint32]bool),
	}
}

// KeyDown records a key press. Repeats of a key that is already held do not
// set its latch again.
//
// Parameters:
//   - keyCode: the GLFW key code
func (s *InputState) KeyDown(keyCode uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.held[keyCode] {
		s.latched[keyCode] = true
	}
	s.held[keyCode] = true
}

// KeyUp records a key release.
//
// Parameters:
//   - keyCode: the GLFW key code
func (s *InputState) KeyUp(keyCode uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held[keyCode] = false
}

// Held reports whether the key is currently down.
func (s *InputState) Held(keyCode uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held[keyCode]
}

// Pressed reports whether the key went down since the last call and clears the latch.
// Holding a key triggers it once; it must be released and pressed again to trigger again.
//
// Parameters:
//   - keyCode: the GLFW key code
//
// Returns:
//   - bool: true once per physical press
func (s *InputState) Pressed(keyCode uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.latched[keyCode] {
		return false
	}
	s.latched[keyCode] = false
	return true
}

// MouseMove accumulates cursor motion. The first event after a reset only records the position.
//
// Parameters:
//   - x, y: cursor position in window pixels
func (s *InputState) MouseMove(x, y int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.haveCursor {
		s.mouseDX += float32(x - s.lastX)
		// window y grows downward, look pitch grows upward
		s.mouseDY += float32(s.lastY - y)
	}
	s.lastX, s.lastY = x, y
	s.haveCursor = true
}

// ConsumeMouse returns the motion accumulated since the last call.
//
// Returns:
//   - dx: rightward motion in pixels
//   - dy: upward motion in pixels
func (s *InputState) ConsumeMouse() (dx, dy float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dx, dy = s.mouseDX, s.mouseDY
	s.mouseDX, s.mouseDY = 0, 0
	return dx, dy
}

// ResetMouse drops accumulated motion and forgets the last cursor position, so the
// next move after a cursor mode change does not produce a jump.
func (s *InputState) ResetMouse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.haveCursor = false
	s.mouseDX, s.mouseDY = 0, 0
}

// Scroll accumulates wheel motion.
func (s *InputState) Scroll(delta float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scroll += delta
}

// ConsumeScroll returns the wheel motion accumulated since the last call.
//
// Returns:
//   - float32: positive for scrolling up
func (s *InputState) ConsumeScroll() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.scroll
	s.scroll = 0
	return d
}
