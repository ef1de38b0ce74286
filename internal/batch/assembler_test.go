package batch

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/fakedevice"
	"github.com/gogpu/gldirect/internal/primitive"
)

type drawCall struct {
	reduced primitive.Reduced
	buf     device.BufferID
	first   int
	count   int
}

type mockDrawer struct {
	calls []drawCall
	err   error
}

func (m *mockDrawer) DrawBatch(r primitive.Reduced, buf device.BufferID, first, count int) error {
	m.calls = append(m.calls, drawCall{r, buf, first, count})
	return m.err
}

type mockRecorder struct {
	batches [][]primitive.Vertex
	reduced []primitive.Reduced
}

func (m *mockRecorder) RecordBatch(r primitive.Reduced, vs []primitive.Vertex) error {
	m.batches = append(m.batches, append([]primitive.Vertex(nil), vs...))
	m.reduced = append(m.reduced, r)
	return nil
}

func vertex(i int) primitive.Vertex {
	return primitive.Vertex{
		Position: [4]float32{float32(i), float32(i), 0, 1},
		Color:    [4]float32{1, 1, 1, 1},
	}
}

func newImmediate(t *testing.T, capacity int) (*Assembler, *mockDrawer, *fakedevice.Device) {
	t.Helper()
	d := &mockDrawer{}
	dev := fakedevice.New(fakedevice.DefaultCaps())
	a := New(ImmediateTarget(d), Config{VertexCapacity: capacity, PrimitiveIncrement: 4})
	if err := a.SetDevice(dev); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}
	return a, d, dev
}

func emitRun(t *testing.T, a *Assembler, typ primitive.Type, n int) {
	t.Helper()
	if err := a.Begin(typ); err != nil {
		t.Fatalf("Begin(%v): %v", typ, err)
	}
	for i := 0; i < n; i++ {
		if err := a.Emit(vertex(i)); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	if err := a.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
}

func TestAssemblerOverflowFlushesOnceAndResets(t *testing.T) {
	a, d, _ := newImmediate(t, 6)

	emitRun(t, a, primitive.Triangles, 3)
	emitRun(t, a, primitive.Triangles, 3)
	if len(d.calls) != 0 {
		t.Fatalf("flushed %d times before overflow, want 0", len(d.calls))
	}
	if a.VertexBuffer().Next() != 6 {
		t.Fatalf("Next() = %d, want 6", a.VertexBuffer().Next())
	}

	emitRun(t, a, primitive.Triangles, 3)

	if len(d.calls) != 1 {
		t.Fatalf("overflow flushed %d times, want exactly 1", len(d.calls))
	}
	if got := d.calls[0]; got.first != 0 || got.count != 6 || got.reduced != primitive.ReducedTriangles {
		t.Errorf("overflow flush = %+v, want first 0 count 6 triangles", got)
	}
	vb := a.VertexBuffer()
	if vb.First() != 0 || vb.Next() != 3 {
		t.Errorf("after overflow first=%d next=%d, want 0 and 3", vb.First(), vb.Next())
	}
	if got := a.Stats().Flushes[ReasonOverflow]; got != 1 {
		t.Errorf("overflow flush count = %d, want 1", got)
	}
}

func TestAssemblerDegenerateLeavesBufferUnchanged(t *testing.T) {
	for typ := primitive.Type(0); typ < primitive.NumTypes; typ++ {
		t.Run(typ.String(), func(t *testing.T) {
			a, d, dev := newImmediate(t, 64)
			// A valid run of the same type leaves something pending.
			emitRun(t, a, typ, primitive.MinVertices(typ))
			first, next := a.VertexBuffer().First(), a.VertexBuffer().Next()

			emitRun(t, a, typ, primitive.MinVertices(typ)-1)

			if a.VertexBuffer().First() != first || a.VertexBuffer().Next() != next {
				t.Errorf("buffer moved to [%d,%d), want [%d,%d)",
					a.VertexBuffer().First(), a.VertexBuffer().Next(), first, next)
			}
			if len(d.calls) != 0 {
				t.Errorf("degenerate run issued %d draws", len(d.calls))
			}
			if dev.Writes != 0 {
				t.Errorf("degenerate run wrote to the device %d times", dev.Writes)
			}
			if a.Stats().Discarded != 1 {
				t.Errorf("Discarded = %d, want 1", a.Stats().Discarded)
			}
		})
	}
}

func TestAssemblerSequenceErrors(t *testing.T) {
	a, _, _ := newImmediate(t, 16)

	if err := a.End(); !errors.Is(err, ErrSequence) {
		t.Errorf("End outside: err = %v, want ErrSequence", err)
	}
	if err := a.Emit(vertex(0)); !errors.Is(err, ErrSequence) {
		t.Errorf("Emit outside: err = %v, want ErrSequence", err)
	}

	if err := a.Begin(primitive.Lines); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := a.Begin(primitive.Triangles); !errors.Is(err, ErrSequence) {
		t.Errorf("nested Begin: err = %v, want ErrSequence", err)
	}
	// The nested Begin is a no-op: the open primitive is still Lines.
	_ = a.Emit(vertex(0))
	_ = a.Emit(vertex(1))
	if err := a.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if tag := a.VertexBuffer().Tag(); tag != primitive.ReducedLines {
		t.Errorf("tag = %v, want Lines", tag)
	}
}

func TestAssemblerTopologyChangeFlushes(t *testing.T) {
	a, d, _ := newImmediate(t, 64)

	emitRun(t, a, primitive.Lines, 4)
	emitRun(t, a, primitive.LineStrip, 3) // same reduced topology
	if len(d.calls) != 0 {
		t.Fatalf("same topology flushed")
	}

	if err := a.Begin(primitive.Triangles); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(d.calls) != 1 {
		t.Fatalf("topology change flushed %d times, want 1", len(d.calls))
	}
	if got := d.calls[0]; got.reduced != primitive.ReducedLines || got.count != 8 {
		t.Errorf("flush = %+v, want 8 line vertices", got)
	}
	if a.Stats().Flushes[ReasonTopology] != 1 {
		t.Error("flush not attributed to topology change")
	}
	a.Abandon()
}

func TestAssemblerDropsOversizedPrimitive(t *testing.T) {
	a, d, _ := newImmediate(t, 6)

	emitRun(t, a, primitive.TriangleFan, 10) // 24 expanded vertices

	if a.Stats().Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", a.Stats().Dropped)
	}
	if a.VertexBuffer().Next() != 0 || len(d.calls) != 0 {
		t.Error("oversized primitive reached the vertex buffer")
	}
}

func TestAssemblerFlushUploadsPendingRange(t *testing.T) {
	a, d, dev := newImmediate(t, 64)

	emitRun(t, a, primitive.Points, 2)
	if err := a.Flush(ReasonExplicit); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	emitRun(t, a, primitive.Triangles, 3)
	if err := a.Flush(ReasonExplicit); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if len(d.calls) != 2 {
		t.Fatalf("got %d draws, want 2", len(d.calls))
	}
	second := d.calls[1]
	if second.first != 2 || second.count != 3 {
		t.Errorf("second draw = %+v, want first 2 count 3", second)
	}

	src := []primitive.Vertex{vertex(0), vertex(1), vertex(2)}
	want := primitive.Pack(nil, []primitive.Vertex{src[2], src[0], src[1]})
	data := dev.BufferData(second.buf)
	got := data[2*primitive.VertexStride : 5*primitive.VertexStride]
	if !bytes.Equal(got, want) {
		t.Error("uploaded bytes do not match the expanded triangle")
	}

	// Nothing pending: flush is a no-op.
	if err := a.Flush(ReasonExplicit); err != nil || len(d.calls) != 2 {
		t.Errorf("empty flush drew (err %v, draws %d)", err, len(d.calls))
	}
}

func TestAssemblerRecordTarget(t *testing.T) {
	rec := &mockRecorder{}
	a := New(RecordTarget(rec), DefaultConfig())
	if a.Kind() != Record {
		t.Fatalf("Kind() = %v", a.Kind())
	}

	emitRun(t, a, primitive.Triangles, 3)
	if err := a.Flush(ReasonListBoundary); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if len(rec.batches) != 1 || len(rec.batches[0]) != 3 {
		t.Fatalf("recorded %v, want one 3-vertex batch", rec.batches)
	}
	if rec.reduced[0] != primitive.ReducedTriangles {
		t.Errorf("recorded topology %v", rec.reduced[0])
	}
	if a.VertexBuffer().Next() != 0 {
		t.Error("recording buffer not rewound after flush")
	}
}

func TestAssemblerInvalidateDropsPending(t *testing.T) {
	a, d, _ := newImmediate(t, 64)

	emitRun(t, a, primitive.Triangles, 3)
	a.Invalidate()

	if a.VertexBuffer().Pending() != 0 || a.VertexBuffer().Attached() {
		t.Error("Invalidate kept pending vertices or the device buffer")
	}

	// Without a device, draws do nothing and report no error.
	emitRun(t, a, primitive.Triangles, 3)
	if err := a.Flush(ReasonExplicit); err != nil {
		t.Errorf("Flush without device: %v", err)
	}
	if len(d.calls) != 0 {
		t.Errorf("drew %d batches without a device", len(d.calls))
	}
}

func TestAssemblerInvalidateKeepsOpenPrimitive(t *testing.T) {
	a, _, _ := newImmediate(t, 64)

	if err := a.Begin(primitive.Triangles); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	a.Invalidate()
	if !a.Open() {
		t.Fatal("Invalidate closed the open primitive")
	}
	for range 3 {
		if err := a.Emit(primitive.Vertex{}); err != nil {
			t.Fatalf("Emit after Invalidate: %v", err)
		}
	}
	if err := a.End(); err != nil {
		t.Errorf("End after Invalidate: %v", err)
	}
}

func TestAssemblerReleaseDestroysBuffer(t *testing.T) {
	a, _, dev := newImmediate(t, 64)
	if dev.LiveBuffers() != 1 {
		t.Fatalf("LiveBuffers = %d, want 1", dev.LiveBuffers())
	}
	a.Release()
	if dev.LiveBuffers() != 0 {
		t.Errorf("LiveBuffers after Release = %d, want 0", dev.LiveBuffers())
	}
}

func TestPrimitiveBufferGrowth(t *testing.T) {
	b := NewPrimitiveBuffer(4)
	for i := 0; i < 9; i++ {
		b.Append(vertex(i))
	}
	if b.Cap() != 12 {
		t.Errorf("Cap() = %d, want 12", b.Cap())
	}
	for i, v := range b.Vertices() {
		if v != vertex(i) {
			t.Fatalf("vertex %d lost after growth", i)
		}
	}
	b.Reset()
	if b.Len() != 0 || b.Cap() != 12 {
		t.Errorf("Reset: len %d cap %d", b.Len(), b.Cap())
	}
}
