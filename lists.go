package gldirect

import (
	"log/slog"

	"github.com/gogpu/gldirect/internal/batch"
	"github.com/gogpu/gldirect/internal/displaylist"
	"github.com/gogpu/gldirect/internal/glog"
)

// GenLists reserves n consecutive unused list names and returns the first.
func (c *Context) GenLists(n int) uint32 {
	if n < 0 {
		c.setError(InvalidValue)
		return 0
	}
	if c.inBegin() {
		c.setError(InvalidOperation)
		return 0
	}
	return c.lists.GenLists(n)
}

// NewList starts recording list name. Geometry and state changes up to
// EndList are recorded; with CompileAndExecute they are executed as well.
func (c *Context) NewList(name uint32, mode ListMode) {
	if name == 0 {
		c.setError(InvalidValue)
		return
	}
	if mode != Compile && mode != CompileAndExecute {
		c.setError(InvalidEnum)
		return
	}
	if c.recording != nil || c.inBegin() {
		c.setError(InvalidOperation)
		return
	}
	c.handle(c.immediate.Flush(batch.ReasonListBoundary))

	var exec displaylist.Executor
	if mode == CompileAndExecute {
		exec = c.rd
	}
	c.recording = displaylist.NewRecording(name, c.dev, exec)
	c.recorder = batch.New(batch.RecordTarget(c.recording), c.batchConfig())
	c.listMode = mode
}

// EndList finishes the list started by NewList and makes it callable.
func (c *Context) EndList() {
	if c.recording == nil || c.inBegin() {
		c.setError(InvalidOperation)
		return
	}
	c.handle(c.recorder.Flush(batch.ReasonListBoundary))
	l := c.recording.Finish()
	c.lists.Define(l)
	c.recording = nil
	c.recorder = nil

	glog.L().Debug("gldirect: list compiled",
		slog.Uint64("list", uint64(l.Name())),
		slog.Int("commands", len(l.Commands())),
		slog.Int("buffers", l.NumBuffers()))
}

// CallList executes list name. Unknown names are ignored. While a list is
// being recorded the call is recorded too.
func (c *Context) CallList(name uint32) {
	if c.inBegin() {
		c.setError(InvalidOperation)
		return
	}
	if c.recording != nil {
		c.handle(c.recorder.Flush(batch.ReasonListBoundary))
		c.handle(c.recording.CallList(name))
		if c.listMode != CompileAndExecute {
			return
		}
	} else {
		c.handle(c.immediate.Flush(batch.ReasonListBoundary))
	}
	c.handle(c.lists.Call(name, c.rd))
}

// DeleteLists deletes n lists starting at first and releases their
// buffers.
func (c *Context) DeleteLists(first uint32, n int) {
	if n < 0 {
		c.setError(InvalidValue)
		return
	}
	if c.inBegin() {
		c.setError(InvalidOperation)
		return
	}
	c.lists.Delete(first, n)
}

// IsList reports whether name holds a list.
func (c *Context) IsList(name uint32) bool {
	return c.lists.IsList(name)
}
