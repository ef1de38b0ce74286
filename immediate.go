package gldirect

import (
	"github.com/gogpu/gldirect/internal/ffstate"
)

// Begin opens a primitive of the given mode. Vertices up to the matching
// End form the primitive.
func (c *Context) Begin(mode Mode) {
	t, ok := mode.primitive()
	if !ok {
		c.setError(InvalidEnum)
		return
	}
	c.handle(c.assembler().Begin(t))
}

// End closes the primitive opened by Begin.
func (c *Context) End() {
	c.handle(c.assembler().End())
}

// Vertex2 emits a vertex at (x, y, 0, 1).
func (c *Context) Vertex2(x, y float32) { c.Vertex4(x, y, 0, 1) }

// Vertex3 emits a vertex at (x, y, z, 1).
func (c *Context) Vertex3(x, y, z float32) { c.Vertex4(x, y, z, 1) }

// Vertex4 emits a vertex carrying the current normal, color and texture
// coordinates.
func (c *Context) Vertex4(x, y, z, w float32) {
	v := c.current
	v.Position = [4]float32{x, y, z, w}
	c.handle(c.assembler().Emit(v))
}

// Normal3 sets the current normal. While a list is being defined the
// normal is baked into the vertices that follow rather than recorded, so
// it also changes the current normal and replaying the list leaves the
// current normal alone.
func (c *Context) Normal3(x, y, z float32) {
	c.current.Normal = [3]float32{x, y, z}
}

// Color3 sets the current color with full alpha.
func (c *Context) Color3(r, g, b float32) { c.Color4(r, g, b, 1) }

// Color4 sets the current color. Inside a list definition it behaves like
// Normal3: the color is baked into later vertices, not recorded.
func (c *Context) Color4(r, g, b, a float32) {
	c.current.Color = [4]float32{r, g, b, a}
}

// TexCoord2 sets texture coordinates (s, t, 0, 1) of unit 0.
func (c *Context) TexCoord2(s, t float32) { c.MultiTexCoord4(0, s, t, 0, 1) }

// TexCoord4 sets texture coordinates of unit 0.
func (c *Context) TexCoord4(s, t, r, q float32) { c.MultiTexCoord4(0, s, t, r, q) }

// MultiTexCoord4 sets texture coordinates of a unit. Inside a list
// definition the coordinates are baked into later vertices, not recorded.
func (c *Context) MultiTexCoord4(unit int, s, t, r, q float32) {
	if unit < 0 || unit >= ffstate.MaxTextureUnits {
		c.setError(InvalidEnum)
		return
	}
	c.current.TexCoord[unit] = [4]float32{s, t, r, q}
}
