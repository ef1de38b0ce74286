package wgpu

import (
	"encoding/binary"
	"math"

	"golang.org/x/image/math/f32"
)

// putFloats writes vs little-endian at the start of dst.
func putFloats(dst []byte, vs ...float32) {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// putMatrix writes m column-major, the layout of a WGSL mat4x4<f32>.
// f32.Mat4 is row-major, so element (row, col) lands at col*4+row.
func putMatrix(dst []byte, m f32.Mat4) {
	for row := range 4 {
		for col := range 4 {
			binary.LittleEndian.PutUint32(dst[(col*4+row)*4:], math.Float32bits(m[row*4+col]))
		}
	}
}

// spirvWords converts naga's little-endian SPIR-V bytes to words.
func spirvWords(b []byte) ([]uint32, bool) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, false
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, true
}
