package displaylist

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/glog"
	"github.com/gogpu/gldirect/internal/primitive"
)

// DefaultMaxNesting is the default CallList nesting limit.
const DefaultMaxNesting = 64

// ErrNotRecording is returned when a Recording is used after Finish.
var ErrNotRecording = errors.New("displaylist: recording finished")

// Executor receives replayed commands.
type Executor interface {
	DrawBatch(r primitive.Reduced, buf device.BufferID, first, count int) error
	ApplyState(s StateChange) error
}

type listBuffer struct {
	id    device.BufferID
	verts []primitive.Vertex
}

// List is a compiled display list.
type List struct {
	name     uint32
	commands []Command
	buffers  []listBuffer
}

// Name returns the list name.
func (l *List) Name() uint32 { return l.name }

// Commands returns the recorded commands.
func (l *List) Commands() []Command { return l.commands }

// NumBuffers returns the number of private buffers.
func (l *List) NumBuffers() int { return len(l.buffers) }

// BufferVertices returns the CPU copy of private buffer i.
func (l *List) BufferVertices(i int) []primitive.Vertex { return l.buffers[i].verts }

// Buffer returns the device buffer of private buffer i.
func (l *List) Buffer(i int) device.BufferID { return l.buffers[i].id }

func (l *List) release(dev device.Device) {
	for i := range l.buffers {
		if dev != nil && l.buffers[i].id != device.InvalidID {
			dev.DestroyBuffer(l.buffers[i].id)
		}
		l.buffers[i].id = device.InvalidID
	}
}

func (l *List) upload(dev device.Device, i int) error {
	b := &l.buffers[i]
	if dev == nil {
		return nil
	}
	size := uint64(len(b.verts)) * primitive.VertexStride
	id, err := dev.CreateVertexBuffer(size)
	if err != nil {
		return fmt.Errorf("displaylist: create buffer (%d bytes): %w", size, err)
	}
	if err := dev.WriteBuffer(id, 0, primitive.Pack(nil, b.verts)); err != nil {
		dev.DestroyBuffer(id)
		return fmt.Errorf("displaylist: upload buffer: %w", err)
	}
	b.id = id
	return nil
}

// Recording builds one list. It implements batch.Recorder.
type Recording struct {
	list *List
	dev  device.Device

	// exec, when set, runs each recorded batch right away.
	exec Executor
}

// NewRecording starts recording list name on dev. A non-nil exec makes the
// recording compile-and-execute: every batch and state change is also
// executed as it is recorded.
func NewRecording(name uint32, dev device.Device, exec Executor) *Recording {
	return &Recording{
		list: &List{name: name},
		dev:  dev,
		exec: exec,
	}
}

// Name returns the name of the list being recorded.
func (r *Recording) Name() uint32 { return r.list.name }

// RecordBatch copies vs into a new private buffer and appends a
// BindBuffer/Draw pair.
func (r *Recording) RecordBatch(red primitive.Reduced, vs []primitive.Vertex) error {
	if r.list == nil {
		return ErrNotRecording
	}
	l := r.list
	l.buffers = append(l.buffers, listBuffer{verts: append([]primitive.Vertex(nil), vs...)})
	idx := len(l.buffers) - 1
	err := l.upload(r.dev, idx)

	l.commands = append(l.commands,
		Command{Op: OpBindBuffer, Buffer: idx},
		Command{Op: OpDraw, Topology: red, First: 0, Count: len(vs)},
	)

	if r.exec != nil && err == nil && l.buffers[idx].id != device.InvalidID {
		err = r.exec.DrawBatch(red, l.buffers[idx].id, 0, len(vs))
	}
	return err
}

// State appends a state change.
func (r *Recording) State(s StateChange) error {
	if r.list == nil {
		return ErrNotRecording
	}
	r.list.commands = append(r.list.commands, Command{Op: OpState, State: s})
	if r.exec != nil {
		return r.exec.ApplyState(s)
	}
	return nil
}

// CallList appends a call to another list.
func (r *Recording) CallList(name uint32) error {
	if r.list == nil {
		return ErrNotRecording
	}
	r.list.commands = append(r.list.commands, Command{Op: OpCallList, List: name})
	return nil
}

// Finish ends the recording and returns the list.
func (r *Recording) Finish() *List {
	l := r.list
	r.list = nil
	return l
}

// Abort ends the recording and releases the buffers created so far.
func (r *Recording) Abort() {
	if r.list != nil {
		r.list.release(r.dev)
		r.list = nil
	}
}

// Invalidate forgets the device buffers recorded so far after device loss.
func (r *Recording) Invalidate() {
	if r.list != nil {
		r.list.release(nil)
	}
	r.dev = nil
}

// SetDevice re-uploads the buffers recorded so far to dev.
func (r *Recording) SetDevice(dev device.Device) error {
	r.dev = dev
	if r.list == nil {
		return nil
	}
	var errs []error
	for i := range r.list.buffers {
		if r.list.buffers[i].id != device.InvalidID {
			continue
		}
		if err := r.list.upload(dev, i); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats counts replay activity.
type Stats struct {
	Replays uint64
	Draws   uint64
	// Truncated counts calls skipped for exceeding the nesting limit.
	Truncated uint64
}

// Registry owns list names and compiled lists.
type Registry struct {
	dev      device.Device
	lists    map[uint32]*List
	reserved map[uint32]bool
	next     uint32
	maxDepth int
	stats    Stats
}

// NewRegistry creates a registry whose lists live on dev. maxDepth bounds
// CallList nesting; values below 1 select DefaultMaxNesting.
func NewRegistry(dev device.Device, maxDepth int) *Registry {
	if maxDepth < 1 {
		maxDepth = DefaultMaxNesting
	}
	return &Registry{
		dev:      dev,
		lists:    make(map[uint32]*List),
		reserved: make(map[uint32]bool),
		next:     1,
		maxDepth: maxDepth,
	}
}

// Device returns the device lists are uploaded to.
func (r *Registry) Device() device.Device { return r.dev }

// Stats returns replay counters.
func (r *Registry) Stats() Stats { return r.stats }

// GenLists reserves n contiguous unused names and returns the first, or 0
// when n is not positive.
func (r *Registry) GenLists(n int) uint32 {
	if n <= 0 {
		return 0
	}
	first := r.next
	for {
		free := true
		for i := uint32(0); i < uint32(n); i++ {
			if r.used(first + i) {
				free = false
				first += i + 1
				break
			}
		}
		if free {
			break
		}
	}
	for i := uint32(0); i < uint32(n); i++ {
		r.reserved[first+i] = true
	}
	r.next = first + uint32(n)
	return first
}

func (r *Registry) used(name uint32) bool {
	return r.reserved[name] || r.lists[name] != nil
}

// IsList reports whether name holds a compiled list.
func (r *Registry) IsList(name uint32) bool { return r.lists[name] != nil }

// Lookup returns the list named name, or nil.
func (r *Registry) Lookup(name uint32) *List { return r.lists[name] }

// Define installs l under its name, releasing any list it replaces.
func (r *Registry) Define(l *List) {
	if old := r.lists[l.name]; old != nil {
		old.release(r.dev)
	}
	r.lists[l.name] = l
	r.reserved[l.name] = true
}

// Delete releases n lists starting at first and frees their names.
func (r *Registry) Delete(first uint32, n int) {
	for i := uint32(0); i < uint32(max(n, 0)); i++ {
		name := first + i
		if l := r.lists[name]; l != nil {
			l.release(r.dev)
			delete(r.lists, name)
		}
		delete(r.reserved, name)
	}
}

// Call replays list name through exec. Unknown names are ignored, as are
// calls nested deeper than the limit.
func (r *Registry) Call(name uint32, exec Executor) error {
	return r.call(name, exec, 0)
}

func (r *Registry) call(name uint32, exec Executor, depth int) error {
	if depth >= r.maxDepth {
		r.stats.Truncated++
		glog.L().Debug("displaylist: nesting limit reached", slog.Uint64("list", uint64(name)))
		return nil
	}
	l := r.lists[name]
	if l == nil {
		return nil
	}
	r.stats.Replays++

	bound := device.BufferID(device.InvalidID)
	for _, cmd := range l.commands {
		switch cmd.Op {
		case OpBindBuffer:
			bound = l.buffers[cmd.Buffer].id
		case OpDraw:
			if bound == device.InvalidID {
				// Buffer gone with the device.
				continue
			}
			if err := exec.DrawBatch(cmd.Topology, bound, cmd.First, cmd.Count); err != nil {
				return err
			}
			r.stats.Draws++
		case OpCallList:
			if err := r.call(cmd.List, exec, depth+1); err != nil {
				return err
			}
		case OpState:
			if err := exec.ApplyState(cmd.State); err != nil {
				return err
			}
		}
	}
	return nil
}

// Invalidate forgets every device buffer after device loss. The CPU copies
// are kept.
func (r *Registry) Invalidate() {
	for _, l := range r.lists {
		l.release(nil)
	}
	r.dev = nil
}

// SetDevice re-uploads every list without a device buffer to dev from
// the CPU copies.
func (r *Registry) SetDevice(dev device.Device) error {
	r.dev = dev
	var errs []error
	for _, l := range r.lists {
		for i := range l.buffers {
			if l.buffers[i].id != device.InvalidID {
				continue
			}
			if err := l.upload(dev, i); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Release destroys every list buffer and forgets every list.
func (r *Registry) Release() {
	for name, l := range r.lists {
		l.release(r.dev)
		delete(r.lists, name)
	}
	clear(r.reserved)
}
