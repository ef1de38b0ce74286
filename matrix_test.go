package gldirect

import (
	"testing"

	"github.com/gogpu/gldirect/internal/ffstate"
	"golang.org/x/image/math/f32"
)

func TestTextureMatrixFollowsActiveUnit(t *testing.T) {
	c, _ := newTestContext(t)

	c.MatrixMode(Texture)
	c.ActiveTexture(1)
	c.Scale(2, 2, 1)
	checkNoError(t, c)

	if got := c.state.Units[0].Matrix; got != ffstate.Identity() {
		t.Errorf("unit 0 texture matrix = %v, want identity", got)
	}
	if got := c.state.Units[1].Matrix; got != ffstate.Scale(2, 2, 1) {
		t.Errorf("unit 1 texture matrix = %v, want scale", got)
	}
}

func TestPushPopRestoresMatrix(t *testing.T) {
	c, _ := newTestContext(t)

	c.Translate(1, 0, 0)
	c.PushMatrix()
	c.Rotate(90, 0, 0, 1)
	c.PopMatrix()
	checkNoError(t, c)

	if got, want := c.state.ModelView, ffstate.Translate(1, 0, 0); got != want {
		t.Errorf("modelview after Push/Pop = %v, want %v", got, want)
	}
}

func TestProjectionValidation(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *Context)
		want ErrorCode
	}{
		{"ortho empty width", func(c *Context) { c.Ortho(1, 1, 0, 1, -1, 1) }, InvalidValue},
		{"frustum near zero", func(c *Context) { c.Frustum(-1, 1, -1, 1, 0, 10) }, InvalidValue},
		{"frustum ok", func(c *Context) { c.Frustum(-1, 1, -1, 1, 1, 10) }, NoError},
		{"bad matrix mode", func(c *Context) { c.MatrixMode(MatrixMode(0x1703)) }, InvalidEnum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t)
			tt.run(c)
			if got := c.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEyePlaneUsesInverseModelView(t *testing.T) {
	c, _ := newTestContext(t)

	c.Translate(0, 0, -5)
	c.TexGenPlane(CoordS, EyePlane, f32.Vec4{0, 0, 1, 0})
	checkNoError(t, c)

	// Object z = 0 lands on eye z = -5, so the stored plane is z + 5 = 0.
	got := c.state.Units[0].TexGen[ffstate.CoordS].EyePlane
	if want := (f32.Vec4{0, 0, 1, 5}); got != want {
		t.Errorf("eye plane = %v, want %v", got, want)
	}
}
