package batch

import (
	"fmt"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/primitive"
)

// PrimitiveBuffer holds the input vertices of the primitive currently open
// between Begin and End.
type PrimitiveBuffer struct {
	verts     []primitive.Vertex
	increment int
}

// NewPrimitiveBuffer creates a buffer that grows by increment vertices.
func NewPrimitiveBuffer(increment int) *PrimitiveBuffer {
	if increment <= 0 {
		increment = DefaultPrimitiveIncrement
	}
	return &PrimitiveBuffer{
		verts:     make([]primitive.Vertex, 0, increment),
		increment: increment,
	}
}

// Append adds v, growing the buffer by one increment when it is full.
// Existing vertices are preserved.
func (b *PrimitiveBuffer) Append(v primitive.Vertex) {
	if len(b.verts) == cap(b.verts) {
		grown := make([]primitive.Vertex, len(b.verts), cap(b.verts)+b.increment)
		copy(grown, b.verts)
		b.verts = grown
	}
	b.verts = append(b.verts, v)
}

// Vertices returns the buffered vertices. The slice is valid until the
// next Append or Reset.
func (b *PrimitiveBuffer) Vertices() []primitive.Vertex { return b.verts }

// Len returns the number of buffered vertices.
func (b *PrimitiveBuffer) Len() int { return len(b.verts) }

// Cap returns the current capacity in vertices.
func (b *PrimitiveBuffer) Cap() int { return cap(b.verts) }

// Reset logically clears the buffer, keeping its storage.
func (b *PrimitiveBuffer) Reset() { b.verts = b.verts[:0] }

// VertexBuffer is a fixed-capacity buffer of expanded vertices: a CPU shadow
// plus, when attached to a device, a device buffer of the same size.
//
// Vertices in [first, next) are pending; everything before first has been
// flushed. 0 <= first <= next <= capacity always holds.
type VertexBuffer struct {
	verts []primitive.Vertex
	first int
	next  int
	tag   primitive.Reduced

	dev     device.Device
	id      device.BufferID
	scratch []byte
}

// NewVertexBuffer creates a buffer for capacity expanded vertices.
func NewVertexBuffer(capacity int) *VertexBuffer {
	if capacity <= 0 {
		capacity = DefaultVertexCapacity
	}
	return &VertexBuffer{verts: make([]primitive.Vertex, capacity)}
}

// Capacity returns the buffer size in vertices.
func (b *VertexBuffer) Capacity() int { return len(b.verts) }

// First returns the index of the first unflushed vertex.
func (b *VertexBuffer) First() int { return b.first }

// Next returns the index of the next free slot.
func (b *VertexBuffer) Next() int { return b.next }

// Pending returns the number of unflushed vertices.
func (b *VertexBuffer) Pending() int { return b.next - b.first }

// PendingVertices returns the unflushed vertices. The slice aliases the
// buffer and is valid until the next write.
func (b *VertexBuffer) PendingVertices() []primitive.Vertex {
	return b.verts[b.first:b.next]
}

// Tag returns the reduced topology resident in the buffer.
func (b *VertexBuffer) Tag() primitive.Reduced { return b.tag }

// Buffer returns the device buffer, or device.InvalidID when detached.
func (b *VertexBuffer) Buffer() device.BufferID { return b.id }

// Attached reports whether a device buffer backs the shadow.
func (b *VertexBuffer) Attached() bool { return b.dev != nil && b.id != device.InvalidID }

// Attach allocates the device buffer on dev, releasing any previous one.
// A nil dev detaches without touching the old device.
func (b *VertexBuffer) Attach(dev device.Device) error {
	b.Release()
	if dev == nil {
		return nil
	}
	size := uint64(len(b.verts)) * primitive.VertexStride
	id, err := dev.CreateVertexBuffer(size)
	if err != nil {
		return fmt.Errorf("batch: create vertex buffer (%d bytes): %w", size, err)
	}
	b.dev = dev
	b.id = id
	return nil
}

// Release destroys the device buffer if one is attached.
func (b *VertexBuffer) Release() {
	if b.dev != nil && b.id != device.InvalidID {
		b.dev.DestroyBuffer(b.id)
	}
	b.Forget()
}

// Forget drops the device buffer without destroying it. Used after device
// loss, when the buffer is already gone.
func (b *VertexBuffer) Forget() {
	b.dev = nil
	b.id = device.InvalidID
}

// Upload writes the pending range to the device buffer at the matching
// byte offset.
func (b *VertexBuffer) Upload() error {
	if !b.Attached() {
		return device.ErrDeviceLost
	}
	if b.Pending() == 0 {
		return nil
	}
	b.scratch = primitive.Pack(b.scratch[:0], b.PendingVertices())
	offset := uint64(b.first) * primitive.VertexStride
	return b.dev.WriteBuffer(b.id, offset, b.scratch)
}

// reserve returns the n slots starting at next. The caller commits what it
// wrote.
func (b *VertexBuffer) reserve(n int) []primitive.Vertex {
	return b.verts[b.next : b.next+n]
}

func (b *VertexBuffer) commit(n int) { b.next += n }

func (b *VertexBuffer) setTag(r primitive.Reduced) { b.tag = r }

func (b *VertexBuffer) markFlushed() { b.first = b.next }

// reset rewinds both indices to 0 and drops anything pending.
func (b *VertexBuffer) reset() {
	b.first = 0
	b.next = 0
}
