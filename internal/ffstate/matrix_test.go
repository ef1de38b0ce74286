package ffstate

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/image/math/f32"
)

func nearlyEqual(a, b f32.Mat4) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func TestMulVecTranslate(t *testing.T) {
	got := MulVec(Translate(1, 2, 3), f32.Vec4{1, 1, 1, 1})
	if got != (f32.Vec4{2, 3, 4, 1}) {
		t.Errorf("MulVec = %v", got)
	}
}

func TestMulOrder(t *testing.T) {
	// Scale then translate: the translation is not scaled.
	m := Mul(Translate(1, 0, 0), Scale(2, 2, 2))
	got := MulVec(m, f32.Vec4{1, 0, 0, 1})
	if got != (f32.Vec4{3, 0, 0, 1}) {
		t.Errorf("T*S applied to x=1 gives %v, want x=3", got)
	}
}

func TestInverse(t *testing.T) {
	m := Mul(Translate(1, -2, 3), Mul(Rotate(30, 0, 1, 0), Scale(2, 3, 4)))
	inv, ok := Inverse(m)
	if !ok {
		t.Fatal("Inverse reported singular")
	}
	if !nearlyEqual(Mul(m, inv), Identity()) {
		t.Errorf("m * inv(m) = %v", Mul(m, inv))
	}

	if _, ok := Inverse(Scale(1, 0, 1)); ok {
		t.Error("singular matrix inverted")
	}
}

func TestNormalMatrixIgnoresTranslation(t *testing.T) {
	n := NormalMatrix(Mul(Translate(5, 5, 5), Scale(2, 2, 2)))
	want := Scale(0.5, 0.5, 0.5)
	if !nearlyEqual(n, want) {
		t.Errorf("NormalMatrix = %v, want %v", n, want)
	}
}

func TestFromColumnMajor(t *testing.T) {
	// GL column-major translation has the offset in elements 12..14.
	m := FromColumnMajor([16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 7, 8, 9, 1})
	if m != Translate(7, 8, 9) {
		t.Errorf("FromColumnMajor = %v", m)
	}
}

func TestMatrixStack(t *testing.T) {
	s := NewMatrixStack(2)
	if s.Top() != Identity() {
		t.Fatal("new stack top is not identity")
	}
	if err := s.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("Pop on base: err = %v", err)
	}

	s.Mult(Translate(1, 0, 0))
	if err := s.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Push(); !errors.Is(err, ErrStackOverflow) {
		t.Errorf("Push past depth: err = %v", err)
	}
	s.Load(Scale(2, 2, 2))
	if err := s.Pop(); err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if s.Top() != Translate(1, 0, 0) {
		t.Errorf("Top after Pop = %v", s.Top())
	}
}
