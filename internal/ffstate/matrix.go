package ffstate

import (
	"errors"
	"math"

	"golang.org/x/image/math/f32"
)

// Matrices are f32.Mat4 in row-major order: m[row*4+col]. Vectors are
// columns, so Mul(a, b) applies b first.

// Matrix stack errors.
var (
	ErrStackOverflow  = errors.New("ffstate: matrix stack overflow")
	ErrStackUnderflow = errors.New("ffstate: matrix stack underflow")
)

// Identity returns the identity matrix.
func Identity() f32.Mat4 {
	return f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns a*b.
func Mul(a, b f32.Mat4) f32.Mat4 {
	var m f32.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += a[r*4+k] * b[k*4+c]
			}
			m[r*4+c] = s
		}
	}
	return m
}

// MulVec returns m*v.
func MulVec(m f32.Mat4, v f32.Vec4) f32.Vec4 {
	var out f32.Vec4
	for r := 0; r < 4; r++ {
		out[r] = m[r*4]*v[0] + m[r*4+1]*v[1] + m[r*4+2]*v[2] + m[r*4+3]*v[3]
	}
	return out
}

// Transpose returns the transpose of m.
func Transpose(m f32.Mat4) f32.Mat4 {
	var t f32.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[c*4+r] = m[r*4+c]
		}
	}
	return t
}

// FromColumnMajor converts 16 values in GL's column-major order.
func FromColumnMajor(v [16]float32) f32.Mat4 {
	return Transpose(f32.Mat4(v))
}

// Inverse returns the inverse of m, or the identity and false when m is
// singular.
func Inverse(m f32.Mat4) (f32.Mat4, bool) {
	// Cofactor expansion in float64.
	var a [16]float64
	for i, v := range m {
		a[i] = float64(v)
	}
	var inv [16]float64
	inv[0] = a[5]*a[10]*a[15] - a[5]*a[11]*a[14] - a[9]*a[6]*a[15] + a[9]*a[7]*a[14] + a[13]*a[6]*a[11] - a[13]*a[7]*a[10]
	inv[4] = -a[4]*a[10]*a[15] + a[4]*a[11]*a[14] + a[8]*a[6]*a[15] - a[8]*a[7]*a[14] - a[12]*a[6]*a[11] + a[12]*a[7]*a[10]
	inv[8] = a[4]*a[9]*a[15] - a[4]*a[11]*a[13] - a[8]*a[5]*a[15] + a[8]*a[7]*a[13] + a[12]*a[5]*a[11] - a[12]*a[7]*a[9]
	inv[12] = -a[4]*a[9]*a[14] + a[4]*a[10]*a[13] + a[8]*a[5]*a[14] - a[8]*a[6]*a[13] - a[12]*a[5]*a[10] + a[12]*a[6]*a[9]
	inv[1] = -a[1]*a[10]*a[15] + a[1]*a[11]*a[14] + a[9]*a[2]*a[15] - a[9]*a[3]*a[14] - a[13]*a[2]*a[11] + a[13]*a[3]*a[10]
	inv[5] = a[0]*a[10]*a[15] - a[0]*a[11]*a[14] - a[8]*a[2]*a[15] + a[8]*a[3]*a[14] + a[12]*a[2]*a[11] - a[12]*a[3]*a[10]
	inv[9] = -a[0]*a[9]*a[15] + a[0]*a[11]*a[13] + a[8]*a[1]*a[15] - a[8]*a[3]*a[13] - a[12]*a[1]*a[11] + a[12]*a[3]*a[9]
	inv[13] = a[0]*a[9]*a[14] - a[0]*a[10]*a[13] - a[8]*a[1]*a[14] + a[8]*a[2]*a[13] + a[12]*a[1]*a[10] - a[12]*a[2]*a[9]
	inv[2] = a[1]*a[6]*a[15] - a[1]*a[7]*a[14] - a[5]*a[2]*a[15] + a[5]*a[3]*a[14] + a[13]*a[2]*a[7] - a[13]*a[3]*a[6]
	inv[6] = -a[0]*a[6]*a[15] + a[0]*a[7]*a[14] + a[4]*a[2]*a[15] - a[4]*a[3]*a[14] - a[12]*a[2]*a[7] + a[12]*a[3]*a[6]
	inv[10] = a[0]*a[5]*a[15] - a[0]*a[7]*a[13] - a[4]*a[1]*a[15] + a[4]*a[3]*a[13] + a[12]*a[1]*a[7] - a[12]*a[3]*a[5]
	inv[14] = -a[0]*a[5]*a[14] + a[0]*a[6]*a[13] + a[4]*a[1]*a[14] - a[4]*a[2]*a[13] - a[12]*a[1]*a[6] + a[12]*a[2]*a[5]
	inv[3] = -a[1]*a[6]*a[11] + a[1]*a[7]*a[10] + a[5]*a[2]*a[11] - a[5]*a[3]*a[10] - a[9]*a[2]*a[7] + a[9]*a[3]*a[6]
	inv[7] = a[0]*a[6]*a[11] - a[0]*a[7]*a[10] - a[4]*a[2]*a[11] + a[4]*a[3]*a[10] + a[8]*a[2]*a[7] - a[8]*a[3]*a[6]
	inv[11] = -a[0]*a[5]*a[11] + a[0]*a[7]*a[9] + a[4]*a[1]*a[11] - a[4]*a[3]*a[9] - a[8]*a[1]*a[7] + a[8]*a[3]*a[5]
	inv[15] = a[0]*a[5]*a[10] - a[0]*a[6]*a[9] - a[4]*a[1]*a[10] + a[4]*a[2]*a[9] + a[8]*a[1]*a[6] - a[8]*a[2]*a[5]

	det := a[0]*inv[0] + a[1]*inv[4] + a[2]*inv[8] + a[3]*inv[12]
	if det == 0 || math.IsNaN(det) {
		return Identity(), false
	}
	var out f32.Mat4
	for i := range inv {
		out[i] = float32(inv[i] / det)
	}
	return out, true
}

// NormalMatrix returns the inverse transpose of m's upper 3x3 block,
// embedded in a 4x4 matrix with no translation.
func NormalMatrix(m f32.Mat4) f32.Mat4 {
	upper := m
	upper[3], upper[7], upper[11] = 0, 0, 0
	upper[12], upper[13], upper[14], upper[15] = 0, 0, 0, 1
	inv, _ := Inverse(upper)
	return Transpose(inv)
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) f32.Mat4 {
	m := Identity()
	m[3], m[7], m[11] = x, y, z
	return m
}

// Scale returns a scaling matrix.
func Scale(x, y, z float32) f32.Mat4 {
	m := Identity()
	m[0], m[5], m[10] = x, y, z
	return m
}

// Rotate returns a rotation of angle degrees about the axis (x, y, z).
func Rotate(angle, x, y, z float32) f32.Mat4 {
	l := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if l == 0 {
		return Identity()
	}
	x, y, z = x/l, y/l, z/l
	rad := float64(angle) * math.Pi / 180
	c := float32(math.Cos(rad))
	s := float32(math.Sin(rad))
	t := 1 - c
	return f32.Mat4{
		x*x*t + c, x*y*t - z*s, x*z*t + y*s, 0,
		y*x*t + z*s, y*y*t + c, y*z*t - x*s, 0,
		x*z*t - y*s, y*z*t + x*s, z*z*t + c, 0,
		0, 0, 0, 1,
	}
}

// Ortho returns a parallel projection.
func Ortho(left, right, bottom, top, near, far float32) f32.Mat4 {
	return f32.Mat4{
		2 / (right - left), 0, 0, -(right + left) / (right - left),
		0, 2 / (top - bottom), 0, -(top + bottom) / (top - bottom),
		0, 0, -2 / (far - near), -(far + near) / (far - near),
		0, 0, 0, 1,
	}
}

// Frustum returns a perspective projection.
func Frustum(left, right, bottom, top, near, far float32) f32.Mat4 {
	return f32.Mat4{
		2 * near / (right - left), 0, (right + left) / (right - left), 0,
		0, 2 * near / (top - bottom), (top + bottom) / (top - bottom), 0,
		0, 0, -(far + near) / (far - near), -2 * far * near / (far - near),
		0, 0, -1, 0,
	}
}

// MatrixStack is a bounded stack of matrices whose top is the current
// matrix.
type MatrixStack struct {
	stack []f32.Mat4
	depth int
}

// NewMatrixStack returns a stack holding up to depth matrices, initialised
// with the identity.
func NewMatrixStack(depth int) *MatrixStack {
	if depth < 1 {
		depth = 1
	}
	s := &MatrixStack{stack: make([]f32.Mat4, 1, depth), depth: depth}
	s.stack[0] = Identity()
	return s
}

// Top returns the current matrix.
func (s *MatrixStack) Top() f32.Mat4 { return s.stack[len(s.stack)-1] }

// Depth returns the number of matrices on the stack.
func (s *MatrixStack) Depth() int { return len(s.stack) }

// Load replaces the current matrix.
func (s *MatrixStack) Load(m f32.Mat4) { s.stack[len(s.stack)-1] = m }

// Mult post-multiplies the current matrix by m.
func (s *MatrixStack) Mult(m f32.Mat4) {
	top := &s.stack[len(s.stack)-1]
	*top = Mul(*top, m)
}

// Push duplicates the current matrix.
func (s *MatrixStack) Push() error {
	if len(s.stack) == s.depth {
		return ErrStackOverflow
	}
	s.stack = append(s.stack, s.Top())
	return nil
}

// Pop discards the current matrix.
func (s *MatrixStack) Pop() error {
	if len(s.stack) == 1 {
		return ErrStackUnderflow
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}
