// Package batch accumulates fixed-function vertices, expands them into
// native topologies and decides when to submit them.
//
// An Assembler owns a PrimitiveBuffer for the primitive currently open
// between Begin and End, and a VertexBuffer of expanded vertices. Where a
// flush sends those vertices is fixed when the Assembler is created: an
// immediate target uploads them to the device buffer and draws, a record
// target hands them to a display-list recorder.
package batch

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/glog"
	"github.com/gogpu/gldirect/internal/primitive"
)

// ErrSequence is returned for Begin while a primitive is open, and for
// Emit or End while none is.
var ErrSequence = errors.New("batch: invalid Begin/End sequence")

// Default sizes.
const (
	DefaultVertexCapacity     = 4096
	DefaultPrimitiveIncrement = 64
)

// Config sizes an Assembler's buffers.
type Config struct {
	// VertexCapacity is the vertex buffer size in expanded vertices.
	VertexCapacity int

	// PrimitiveIncrement is the growth step of the primitive buffer.
	PrimitiveIncrement int
}

// DefaultConfig returns the default buffer sizes.
func DefaultConfig() Config {
	return Config{
		VertexCapacity:     DefaultVertexCapacity,
		PrimitiveIncrement: DefaultPrimitiveIncrement,
	}
}

// Drawer draws vertices that were uploaded to a device buffer.
type Drawer interface {
	DrawBatch(r primitive.Reduced, buf device.BufferID, first, count int) error
}

// Recorder receives expanded vertices at each flush of a recording
// Assembler. vs aliases the vertex buffer and must be copied if retained.
type Recorder interface {
	RecordBatch(r primitive.Reduced, vs []primitive.Vertex) error
}

// Kind selects where an Assembler's flushes go.
type Kind uint8

const (
	Immediate Kind = iota
	Record
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case Immediate:
		return "Immediate"
	case Record:
		return "Record"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Target is the destination of an Assembler's flushes.
type Target struct {
	kind     Kind
	drawer   Drawer
	recorder Recorder
}

// ImmediateTarget draws every flush through d.
func ImmediateTarget(d Drawer) Target {
	return Target{kind: Immediate, drawer: d}
}

// RecordTarget hands every flush to r.
func RecordTarget(r Recorder) Target {
	return Target{kind: Record, recorder: r}
}

// Kind returns the target kind.
func (t Target) Kind() Kind { return t.kind }

// Stats counts Assembler activity.
type Stats struct {
	// Primitives is the number of primitive runs expanded.
	Primitives uint64
	// Discarded is the number of runs that produced no native primitive.
	Discarded uint64
	// Dropped is the number of runs larger than the vertex buffer.
	Dropped uint64
	// Expanded is the number of vertices written by the expander.
	Expanded uint64
	// Flushes counts flushes by reason.
	Flushes [NumReasons]uint64
}

// Assembler implements the Begin/Emit/End state machine.
// It is not safe for concurrent use.
type Assembler struct {
	target Target
	prim   *PrimitiveBuffer
	vb     *VertexBuffer
	sched  Scheduler

	open bool
	typ  primitive.Type

	stats Stats
}

// New creates an Assembler flushing to target.
func New(target Target, cfg Config) *Assembler {
	return &Assembler{
		target: target,
		prim:   NewPrimitiveBuffer(cfg.PrimitiveIncrement),
		vb:     NewVertexBuffer(cfg.VertexCapacity),
	}
}

// Kind returns the kind of the Assembler's target.
func (a *Assembler) Kind() Kind { return a.target.kind }

// Open reports whether a primitive is open.
func (a *Assembler) Open() bool { return a.open }

// VertexBuffer returns the expanded-vertex buffer.
func (a *Assembler) VertexBuffer() *VertexBuffer { return a.vb }

// Scheduler returns the flush scheduler.
func (a *Assembler) Scheduler() *Scheduler { return &a.sched }

// Stats returns a snapshot of the activity counters.
func (a *Assembler) Stats() Stats {
	s := a.stats
	for r := Reason(0); r < NumReasons; r++ {
		s.Flushes[r] = a.sched.Count(r)
	}
	return s
}

// SetDevice attaches the vertex buffer to dev. Only immediate Assemblers
// own a device buffer; recording ones ignore the call.
func (a *Assembler) SetDevice(dev device.Device) error {
	if a.target.kind != Immediate {
		return nil
	}
	return a.vb.Attach(dev)
}

// Begin opens a primitive of type t. t must be valid.
//
// If vertices of another reduced topology are pending, they are flushed
// first. A flush error is returned but the primitive is still opened.
func (a *Assembler) Begin(t primitive.Type) error {
	if a.open {
		return ErrSequence
	}
	r := primitive.Classify(t)

	var err error
	if a.sched.TopologyChange(a.vb.Tag(), r, a.vb.Pending()) {
		err = a.flush(ReasonTopology)
	}
	a.open = true
	a.typ = t
	a.prim.Reset()
	return err
}

// Emit appends v to the open primitive.
func (a *Assembler) Emit(v primitive.Vertex) error {
	if !a.open {
		return ErrSequence
	}
	a.prim.Append(v)
	return nil
}

// End closes the open primitive and expands it into the vertex buffer.
//
// A run yielding no native primitive is discarded. A run whose expansion
// exceeds the vertex buffer capacity is dropped and logged. If the
// expansion does not fit behind the pending vertices, those are flushed
// and writing restarts at index 0.
func (a *Assembler) End() error {
	if !a.open {
		return ErrSequence
	}
	a.open = false
	defer a.prim.Reset()

	src := a.prim.Vertices()
	c := primitive.Count(a.typ, len(src))
	if c.Vertices == 0 {
		a.stats.Discarded++
		glog.L().Debug("batch: degenerate primitive discarded",
			slog.String("type", a.typ.String()), slog.Int("vertices", len(src)))
		return nil
	}
	if c.Vertices > a.vb.Capacity() {
		a.stats.Dropped++
		glog.L().Warn("batch: primitive exceeds vertex buffer, dropped",
			slog.String("type", a.typ.String()),
			slog.Int("expanded", c.Vertices),
			slog.Int("capacity", a.vb.Capacity()))
		return nil
	}

	var err error
	if a.sched.Overflow(a.vb.Next(), c.Vertices, a.vb.Capacity()) {
		err = a.flush(ReasonOverflow)
		a.vb.reset()
	}

	a.vb.setTag(c.Reduced)
	n := primitive.Expand(a.vb.reserve(c.Vertices), src, a.typ)
	a.vb.commit(n)
	a.stats.Primitives++
	a.stats.Expanded += uint64(n)
	a.sched.markNeeded()
	return err
}

// Flush submits the pending vertices. It is a no-op when nothing is
// pending. An open primitive is unaffected.
func (a *Assembler) Flush(r Reason) error {
	return a.flush(r)
}

// Abandon discards an open primitive without expanding it.
func (a *Assembler) Abandon() {
	a.open = false
	a.prim.Reset()
}

// Invalidate drops every pending vertex and forgets the device buffer,
// which is assumed to be gone with its device. An open primitive stays
// open so the caller's Begin/End sequence is unaffected.
func (a *Assembler) Invalidate() {
	a.vb.reset()
	a.vb.setTag(primitive.Unknown)
	a.vb.Forget()
	a.sched.clear()
}

// Release flushes nothing and destroys the device buffer.
func (a *Assembler) Release() {
	a.Abandon()
	a.vb.reset()
	a.vb.Release()
	a.sched.clear()
}

func (a *Assembler) flush(r Reason) error {
	n := a.vb.Pending()
	if n == 0 {
		a.sched.clear()
		return nil
	}

	var err error
	switch a.target.kind {
	case Immediate:
		err = a.flushImmediate(n)
		a.vb.markFlushed()
	case Record:
		err = a.target.recorder.RecordBatch(a.vb.Tag(), a.vb.PendingVertices())
		// Recorded vertices are copied out, so the shadow can be reused.
		a.vb.reset()
	}
	a.sched.flushed(r)

	glog.L().Debug("batch: flush",
		slog.String("reason", r.String()),
		slog.String("kind", a.target.kind.String()),
		slog.String("topology", a.vb.Tag().String()),
		slog.Int("vertices", n))
	return err
}

func (a *Assembler) flushImmediate(n int) error {
	if !a.vb.Attached() {
		// Device lost: nothing is drawn.
		return nil
	}
	first := a.vb.First()
	if err := a.vb.Upload(); err != nil {
		return fmt.Errorf("batch: upload %d vertices: %w", n, err)
	}
	return a.target.drawer.DrawBatch(a.vb.Tag(), a.vb.Buffer(), first, n)
}
