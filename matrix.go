package gldirect

import (
	"errors"
	"fmt"

	"github.com/gogpu/gldirect/internal/ffstate"
	"golang.org/x/image/math/f32"
)

// MatrixMode selects the stack subsequent matrix operations apply to.
// The texture stack is the active unit's.
func (c *Context) MatrixMode(m MatrixMode) {
	if m != ModelView && m != Projection && m != Texture {
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:  fmt.Sprintf("MatrixMode(0x%04x)", uint32(m)),
		apply: func(c *Context) { c.matrixMode = m },
	})
}

func (c *Context) stack() *ffstate.MatrixStack {
	switch c.matrixMode {
	case Projection:
		return c.projection
	case Texture:
		return c.texture[c.activeUnit]
	default:
		return c.modelview
	}
}

// matrixOp records or applies an operation on the current stack and
// mirrors the stack tops into the shading state.
func (c *Context) matrixOp(name string, op func(s *ffstate.MatrixStack) error) {
	c.change(&stateChange{
		name: name,
		apply: func(c *Context) {
			if err := op(c.stack()); err != nil {
				switch {
				case errors.Is(err, ffstate.ErrStackOverflow):
					c.setError(StackOverflow)
				case errors.Is(err, ffstate.ErrStackUnderflow):
					c.setError(StackUnderflow)
				}
			}
			c.syncMatrices()
		},
	})
}

func (c *Context) syncMatrices() {
	c.state.ModelView = c.modelview.Top()
	c.state.Projection = c.projection.Top()
	for i := range c.texture {
		c.state.Units[i].Matrix = c.texture[i].Top()
	}
}

// LoadIdentity replaces the current matrix with the identity.
func (c *Context) LoadIdentity() {
	c.matrixOp("LoadIdentity", func(s *ffstate.MatrixStack) error {
		s.Load(ffstate.Identity())
		return nil
	})
}

// LoadMatrix replaces the current matrix. m is in GL column-major order.
func (c *Context) LoadMatrix(m [16]float32) {
	mat := ffstate.FromColumnMajor(m)
	c.matrixOp("LoadMatrix", func(s *ffstate.MatrixStack) error {
		s.Load(mat)
		return nil
	})
}

// MultMatrix post-multiplies the current matrix by m, given in GL
// column-major order.
func (c *Context) MultMatrix(m [16]float32) {
	c.mult("MultMatrix", ffstate.FromColumnMajor(m))
}

func (c *Context) mult(name string, m f32.Mat4) {
	c.matrixOp(name, func(s *ffstate.MatrixStack) error {
		s.Mult(m)
		return nil
	})
}

// PushMatrix duplicates the top of the current stack.
func (c *Context) PushMatrix() {
	c.matrixOp("PushMatrix", (*ffstate.MatrixStack).Push)
}

// PopMatrix discards the top of the current stack.
func (c *Context) PopMatrix() {
	c.matrixOp("PopMatrix", (*ffstate.MatrixStack).Pop)
}

// Translate multiplies the current matrix by a translation.
func (c *Context) Translate(x, y, z float32) {
	c.mult(fmt.Sprintf("Translate(%g, %g, %g)", x, y, z), ffstate.Translate(x, y, z))
}

// Scale multiplies the current matrix by a scale.
func (c *Context) Scale(x, y, z float32) {
	c.mult(fmt.Sprintf("Scale(%g, %g, %g)", x, y, z), ffstate.Scale(x, y, z))
}

// Rotate multiplies the current matrix by a rotation of angle degrees
// around the axis (x, y, z).
func (c *Context) Rotate(angle, x, y, z float32) {
	c.mult(fmt.Sprintf("Rotate(%g, %g, %g, %g)", angle, x, y, z), ffstate.Rotate(angle, x, y, z))
}

// Ortho multiplies the current matrix by a parallel projection.
func (c *Context) Ortho(left, right, bottom, top, near, far float32) {
	if left == right || bottom == top || near == far {
		c.setError(InvalidValue)
		return
	}
	c.mult("Ortho", ffstate.Ortho(left, right, bottom, top, near, far))
}

// Frustum multiplies the current matrix by a perspective projection.
func (c *Context) Frustum(left, right, bottom, top, near, far float32) {
	if near <= 0 || far <= 0 || left == right || bottom == top || near == far {
		c.setError(InvalidValue)
		return
	}
	c.mult("Frustum", ffstate.Frustum(left, right, bottom, top, near, far))
}
