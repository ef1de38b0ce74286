package gldirect

import (
	"math"

	"github.com/gogpu/gldirect/internal/ffstate"
)

// clientArray is one client-side attribute array. Data is read as size
// floats per element, stride floats apart.
type clientArray struct {
	enabled bool
	size    int
	stride  int
	data    []float32
}

func (a *clientArray) set(size, stride int, data []float32) {
	if stride == 0 {
		stride = size
	}
	a.size, a.stride, a.data = size, stride, data
}

// elements returns how many complete elements the array holds.
func (a *clientArray) elements() int {
	if a.stride == 0 || len(a.data) < a.size {
		return 0
	}
	return (len(a.data)-a.size)/a.stride + 1
}

// at returns element i with missing components taken from def.
func (a *clientArray) at(i int, def [4]float32) [4]float32 {
	off := i * a.stride
	copy(def[:a.size], a.data[off:off+a.size])
	return def
}

type clientArrays struct {
	vertex   clientArray
	normal   clientArray
	color    clientArray
	texCoord [ffstate.MaxTextureUnits]clientArray

	// clientUnit is the unit TexCoordPointer and the texture coordinate
	// client state apply to.
	clientUnit int
}

// maxElements returns the number of elements every enabled array can
// supply.
func (a *clientArrays) maxElements() int {
	n := math.MaxInt
	limit := func(arr *clientArray) {
		if arr.enabled {
			n = min(n, arr.elements())
		}
	}
	limit(&a.vertex)
	limit(&a.normal)
	limit(&a.color)
	for i := range a.texCoord {
		limit(&a.texCoord[i])
	}
	return n
}

// VertexPointer sets the vertex position array: size (2, 3 or 4) floats
// per vertex, stride floats apart. A zero stride means tightly packed.
func (c *Context) VertexPointer(size, stride int, data []float32) {
	if size < 2 || size > 4 || stride < 0 || (stride > 0 && stride < size) {
		c.setError(InvalidValue)
		return
	}
	c.arrays.vertex.set(size, stride, data)
}

// NormalPointer sets the normal array of three floats per vertex.
func (c *Context) NormalPointer(stride int, data []float32) {
	if stride < 0 || (stride > 0 && stride < 3) {
		c.setError(InvalidValue)
		return
	}
	c.arrays.normal.set(3, stride, data)
}

// ColorPointer sets the color array: size (3 or 4) floats per vertex.
func (c *Context) ColorPointer(size, stride int, data []float32) {
	if size < 3 || size > 4 || stride < 0 || (stride > 0 && stride < size) {
		c.setError(InvalidValue)
		return
	}
	c.arrays.color.set(size, stride, data)
}

// ClientActiveTexture selects the unit TexCoordPointer and the
// TextureCoordArray client state apply to.
func (c *Context) ClientActiveTexture(unit int) {
	if unit < 0 || unit >= ffstate.MaxTextureUnits {
		c.setError(InvalidEnum)
		return
	}
	c.arrays.clientUnit = unit
}

// TexCoordPointer sets the texture coordinate array of the client active
// unit: size (1 to 4) floats per vertex.
func (c *Context) TexCoordPointer(size, stride int, data []float32) {
	if size < 1 || size > 4 || stride < 0 || (stride > 0 && stride < size) {
		c.setError(InvalidValue)
		return
	}
	c.arrays.texCoord[c.arrays.clientUnit].set(size, stride, data)
}

// EnableClientState enables a client array.
func (c *Context) EnableClientState(s ClientState) { c.clientState(s, true) }

// DisableClientState disables a client array.
func (c *Context) DisableClientState(s ClientState) { c.clientState(s, false) }

func (c *Context) clientState(s ClientState, on bool) {
	switch s {
	case VertexArray:
		c.arrays.vertex.enabled = on
	case NormalArray:
		c.arrays.normal.enabled = on
	case ColorArray:
		c.arrays.color.enabled = on
	case TextureCoordArray:
		c.arrays.texCoord[c.arrays.clientUnit].enabled = on
	default:
		c.setError(InvalidEnum)
	}
}

// fetch loads the enabled non-position attributes of element i into the
// current vertex state and reports whether a position is available.
func (c *Context) fetch(i int) bool {
	a := &c.arrays
	if a.normal.enabled {
		n := a.normal.at(i, [4]float32{})
		c.current.Normal = [3]float32{n[0], n[1], n[2]}
	}
	if a.color.enabled {
		c.current.Color = a.color.at(i, [4]float32{0, 0, 0, 1})
	}
	for u := range a.texCoord {
		if a.texCoord[u].enabled {
			c.current.TexCoord[u] = a.texCoord[u].at(i, [4]float32{0, 0, 0, 1})
		}
	}
	return a.vertex.enabled
}

// ArrayElement emits element i of the enabled arrays, as Vertex would
// with the attributes taken from the arrays.
func (c *Context) ArrayElement(i int) {
	if i < 0 || i >= c.arrays.maxElements() {
		c.setError(InvalidValue)
		return
	}
	if !c.fetch(i) {
		return
	}
	p := c.arrays.vertex.at(i, [4]float32{0, 0, 0, 1})
	c.Vertex4(p[0], p[1], p[2], p[3])
}

// DrawArrays draws count consecutive elements starting at first.
func (c *Context) DrawArrays(mode Mode, first, count int) {
	if _, ok := mode.primitive(); !ok {
		c.setError(InvalidEnum)
		return
	}
	if first < 0 || count < 0 {
		c.setError(InvalidValue)
		return
	}
	if c.inBegin() {
		c.setError(InvalidOperation)
		return
	}
	if first+count > c.arrays.maxElements() {
		c.setError(InvalidValue)
		return
	}
	c.drawElements(mode, count, func(k int) int { return first + k })
}

// DrawElements draws the elements named by indices.
func (c *Context) DrawElements(mode Mode, indices []uint32) {
	if _, ok := mode.primitive(); !ok {
		c.setError(InvalidEnum)
		return
	}
	if c.inBegin() {
		c.setError(InvalidOperation)
		return
	}
	n := c.arrays.maxElements()
	for _, ix := range indices {
		if int(ix) >= n {
			c.setError(InvalidValue)
			return
		}
	}
	c.drawElements(mode, len(indices), func(k int) int { return int(indices[k]) })
}

// drawElements runs elements through Begin/End so array draws batch and
// expand exactly like immediate mode. Current attributes are left as the
// last element set them.
func (c *Context) drawElements(mode Mode, count int, index func(k int) int) {
	if !c.arrays.vertex.enabled || count == 0 {
		return
	}
	t, _ := mode.primitive()
	asm := c.assembler()
	c.handle(asm.Begin(t))
	for k := range count {
		i := index(k)
		c.fetch(i)
		p := c.arrays.vertex.at(i, [4]float32{0, 0, 0, 1})
		v := c.current
		v.Position = p
		c.handle(asm.Emit(v))
	}
	c.handle(asm.End())
}
