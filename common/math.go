package common

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// DepthRangeCorrection converts an OpenGL style clip space depth range of [-1, 1]
// into the [0, 1] range that WebGPU expects. Multiply it on the left of a
// projection built with mgl32.Perspective.
var DepthRangeCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Luminance weights (Rec. 709) used by the bright pass.
var Luminance = mgl32.Vec3{0.2126, 0.7152, 0.0722}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// PutFloat32s writes values into dst starting at offset using the host byte order,
// which is what the GPU queue expects for uniform uploads.
//
// Parameters:
//   - dst: destination byte slice, must hold offset + 4*len(values) bytes
//   - offset: byte offset into dst
//   - values: the floats to write
func PutFloat32s(dst []byte, offset int, values ...float32) {
	copy(dst[offset:], SliceToBytes(values))
}

// PutInt32 writes a single int32 into dst at offset using the host byte order.
//
// Parameters:
//   - dst: destination byte slice
//   - offset: byte offset into dst
//   - v: the value to write
func PutInt32(dst []byte, offset int, v int32) {
	copy(dst[offset:], unsafe.Slice((*byte)(unsafe.Pointer(&v)), 4))
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T ~int | ~int32 | ~float32 | ~float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
