package gldirect

import (
	"errors"
	"log/slog"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/batch"
	"github.com/gogpu/gldirect/internal/displaylist"
	"github.com/gogpu/gldirect/internal/effect"
	"github.com/gogpu/gldirect/internal/ffstate"
	"github.com/gogpu/gldirect/internal/glog"
	"github.com/gogpu/gldirect/internal/primitive"
)

// Matrix stack depths.
const (
	ModelViewStackDepth  = 32
	ProjectionStackDepth = 2
	TextureStackDepth    = 2
)

// Context is a fixed-function rendering context.
//
// It collects immediate-mode and vertex-array geometry into batches,
// selects a generated program for the current shading state and draws
// through the device shared by every context created from the same
// device.Shared.
//
// A Context is not safe for concurrent use. Each context is used from one
// goroutine; contexts on different goroutines may share a device.
type Context struct {
	opts contextOptions

	shared *device.Shared
	dev    device.Device
	gen    uint64
	lost   bool
	closed bool

	state       ffstate.State
	key         ffstate.Key
	keyDirty    bool
	paramsDirty bool
	effects     *effect.Cache

	modelview  *ffstate.MatrixStack
	projection *ffstate.MatrixStack
	texture    [ffstate.MaxTextureUnits]*ffstate.MatrixStack
	matrixMode MatrixMode
	activeUnit int

	// current holds the attributes the next vertex inherits.
	current primitive.Vertex

	rd        *renderer
	immediate *batch.Assembler

	lists     *displaylist.Registry
	recording *displaylist.Recording
	recorder  *batch.Assembler
	listMode  ListMode

	arrays clientArrays

	err   ErrorCode
	draws uint64
}

// NewContext creates a context on the shared device, creating the device
// if this is the first context.
//
// Example:
//
//	shared := device.NewShared(func() (device.Device, error) {
//	    return wgpu.NewFromProvider(provider, wgpu.DefaultConfig())
//	})
//	ctx, err := gldirect.NewContext(shared)
//	if err != nil {
//	    return err
//	}
//	defer ctx.Close()
func NewContext(shared *device.Shared, opts ...ContextOption) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dev, gen, err := shared.Acquire()
	if err != nil {
		return nil, err
	}

	c := &Context{
		opts:        o,
		shared:      shared,
		dev:         dev,
		gen:         gen,
		state:       ffstate.Default(),
		keyDirty:    true,
		paramsDirty: true,
		modelview:   ffstate.NewMatrixStack(ModelViewStackDepth),
		projection:  ffstate.NewMatrixStack(ProjectionStackDepth),
		matrixMode:  ModelView,
	}
	for i := range c.texture {
		c.texture[i] = ffstate.NewMatrixStack(TextureStackDepth)
	}
	c.current.Color = [4]float32{1, 1, 1, 1}
	c.current.Normal = [3]float32{0, 0, 1}
	for i := range c.current.TexCoord {
		c.current.TexCoord[i] = [4]float32{0, 0, 0, 1}
	}

	c.rd = &renderer{c: c}
	c.immediate = batch.New(batch.ImmediateTarget(c.rd), c.batchConfig())
	if err := c.immediate.SetDevice(dev); err != nil {
		shared.Release()
		return nil, err
	}
	c.effects = effect.New(dev)
	c.lists = displaylist.NewRegistry(dev, o.maxListNesting)

	glog.L().Info("gldirect: context created",
		slog.Int("vertex_capacity", o.vertexCapacity),
		slog.Uint64("generation", gen))
	return c, nil
}

func (c *Context) batchConfig() batch.Config {
	return batch.Config{
		VertexCapacity:     c.opts.vertexCapacity,
		PrimitiveIncrement: c.opts.primitiveIncrement,
	}
}

// Close draws pending vertices, releases the context's device resources
// and drops its reference to the shared device. An open Begin/End run or
// list recording is abandoned.
func (c *Context) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.immediate.Abandon()
	err := c.immediate.Flush(batch.ReasonTeardown)
	if c.recording != nil {
		c.recording.Abort()
		c.recording = nil
		c.recorder = nil
	}

	c.immediate.Release()
	c.effects.Release()
	c.lists.Release()
	c.shared.Release()
	c.dev = nil
	c.closed = true
	glog.L().Info("gldirect: context closed", slog.Uint64("draws", c.draws))
	if errors.Is(err, device.ErrDeviceLost) {
		return nil
	}
	return err
}

// Flush draws every pending immediate-mode vertex.
func (c *Context) Flush() {
	if c.closed || c.inBegin() {
		return
	}
	c.handle(c.immediate.Flush(batch.ReasonExplicit))
}

// Error returns and clears the first error recorded since the last call.
func (c *Context) Error() ErrorCode {
	e := c.err
	c.err = NoError
	return e
}

func (c *Context) setError(e ErrorCode) {
	if c.err == NoError {
		c.err = e
	}
}

// handle routes an error from the batching, effect or list layers.
func (c *Context) handle(err error) {
	switch {
	case err == nil:
	case errors.Is(err, batch.ErrSequence):
		c.setError(InvalidOperation)
	case errors.Is(err, device.ErrDeviceLost):
		c.DeviceLost()
	default:
		glog.L().Warn("gldirect: draw failed", slog.String("error", err.Error()))
	}
}

// DeviceLost reports that the shared device was lost. Pending vertices are
// dropped, device buffers and compiled programs are forgotten and draws do
// nothing until DeviceRestored succeeds. Keys, generated programs and
// display list contents are kept.
func (c *Context) DeviceLost() {
	if c.lost || c.closed {
		return
	}
	c.lost = true
	c.immediate.Invalidate()
	if c.recorder != nil {
		c.recorder.Invalidate()
		c.recording.Invalidate()
	}
	c.effects.Invalidate()
	c.lists.Invalidate()
	c.shared.Lost(c.gen)
	c.dev = nil
	glog.L().Info("gldirect: device lost", slog.Uint64("generation", c.gen))
}

// DeviceRestored reacquires the shared device after a loss, recreating it
// if no other context has. Programs are recompiled lazily on the next draw;
// display list buffers are uploaded again from their retained copies.
func (c *Context) DeviceRestored() error {
	if c.closed {
		return ErrClosed
	}
	if !c.lost {
		return nil
	}
	dev, gen, err := c.shared.Restore()
	if err != nil {
		return err
	}
	c.dev, c.gen, c.lost = dev, gen, false
	c.keyDirty = true
	c.paramsDirty = true

	var errs []error
	if err := c.immediate.SetDevice(dev); err != nil {
		errs = append(errs, err)
	}
	c.effects.SetDevice(dev)
	if err := c.lists.SetDevice(dev); err != nil {
		errs = append(errs, err)
	}
	if c.recording != nil {
		if err := c.recording.SetDevice(dev); err != nil {
			errs = append(errs, err)
		}
	}
	glog.L().Info("gldirect: device restored", slog.Uint64("generation", gen))
	return errors.Join(errs...)
}

// Stats reports context activity.
type Stats struct {
	// Draws counts device draw calls.
	Draws uint64

	// Immediate counts immediate-mode batching activity.
	Immediate batch.Stats

	// Effects counts program cache activity.
	Effects effect.Stats

	// Lists counts display list replays.
	Lists displaylist.Stats
}

// Stats returns the context's activity counters.
func (c *Context) Stats() Stats {
	return Stats{
		Draws:     c.draws,
		Immediate: c.immediate.Stats(),
		Effects:   c.effects.Stats(),
		Lists:     c.lists.Stats(),
	}
}

// assembler returns the assembler new primitives go to: the recording one
// while a list is being compiled.
func (c *Context) assembler() *batch.Assembler {
	if c.recorder != nil {
		return c.recorder
	}
	return c.immediate
}

func (c *Context) inBegin() bool {
	return c.assembler().Open()
}
