package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/glog"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Errors returned by Device in addition to the device package sentinels.
var (
	// ErrNoTarget is returned by Draw before SetTarget was called.
	ErrNoTarget = errors.New("wgpu: no render target")

	// ErrNoHAL is returned when a provider does not expose HAL objects.
	ErrNoHAL = errors.New("wgpu: provider does not expose HAL device and queue")

	// ErrBufferSize is returned for zero or oversized vertex buffers.
	ErrBufferSize = errors.New("wgpu: invalid buffer size")
)

// halProvider is implemented by hosts that expose their HAL objects
// alongside the gpucontext interfaces.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

type buffer struct {
	buf  hal.Buffer
	size uint64
}

// Device is a device.Device drawing through a hal.Device.
//
// Device is safe for concurrent use. Creating and destroying objects takes
// the device lock exclusively; writes, parameter updates and draws share it,
// so contexts drawing with different buffers and programs only meet at
// queue submission.
type Device struct {
	// mu guards the object maps, the target and destroyed. A program's
	// mutable state is guarded by its own mutex, taken while mu is held
	// shared, or by mu held exclusively.
	mu sync.RWMutex

	cfg    Config
	device hal.Device
	queue  hal.Queue
	now    func() time.Time

	nextID   uint64
	buffers  map[device.BufferID]*buffer
	programs map[device.ProgramID]*program
	textures map[device.TextureID]hal.TextureView
	samplers map[samplerKey]hal.Sampler

	target hal.TextureView
	depth  hal.TextureView

	whiteMu   sync.Mutex
	white     hal.Texture
	whiteView hal.TextureView

	sub submissions

	lost      atomic.Bool
	destroyed bool
}

var _ device.Device = (*Device)(nil)

// New returns a device drawing with the given HAL device and queue. The
// caller keeps ownership of both.
func New(dev hal.Device, queue hal.Queue, cfg Config) (*Device, error) {
	if dev == nil || queue == nil {
		return nil, ErrNoHAL
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultConfig().SubmitTimeout
	}
	if cfg.ShaderModel == device.ShaderModelNone {
		cfg.ShaderModel = device.ShaderModelWGSL
	}
	d := &Device{
		cfg:      cfg,
		device:   dev,
		queue:    queue,
		now:      time.Now,
		buffers:  make(map[device.BufferID]*buffer),
		programs: make(map[device.ProgramID]*program),
		textures: make(map[device.TextureID]hal.TextureView),
		samplers: make(map[samplerKey]hal.Sampler),
	}
	glog.L().Info("wgpu: device ready",
		slog.String("shader_model", cfg.ShaderModel.String()),
		slog.Bool("depth", cfg.Depth))
	return d, nil
}

// NewFromProvider returns a device on the HAL objects behind a host
// provider, such as a gogpu application.
func NewFromProvider(provider gpucontext.DeviceProvider, cfg Config) (*Device, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("%w: HalDevice is not a hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not a hal.Queue", ErrNoHAL)
	}
	if cfg.ColorFormat == gputypes.TextureFormatUndefined {
		cfg.ColorFormat = provider.SurfaceFormat()
	}
	return New(dev, queue, cfg)
}

// Caps returns the configured capabilities.
func (d *Device) Caps() device.Caps {
	return device.Caps{
		MaxShaderModel:  d.cfg.ShaderModel,
		MaxTextureUnits: d.cfg.MaxTextureUnits,
		MaxBufferSize:   d.cfg.MaxBufferSize,
	}
}

// SetTarget sets the color attachment, and the depth attachment when the
// device was configured with depth, that later draws render into.
func (d *Device) SetTarget(color, depth hal.TextureView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target = color
	d.depth = depth
}

// RegisterTexture makes a host texture view available to SetTexture.
func (d *Device) RegisterTexture(view hal.TextureView) device.TextureID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return device.InvalidID
	}
	id := device.TextureID(d.newID())
	d.textures[id] = view
	return id
}

// UnregisterTexture forgets a texture. Programs that sample it fall back to
// white on their next draw.
func (d *Device) UnregisterTexture(id device.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[id]; !ok {
		return
	}
	delete(d.textures, id)
	for _, p := range d.programs {
		p.bindDirty = true
	}
}

// Lose marks the device lost. Hosts call it when the underlying GPU device
// goes away; every later call fails with device.ErrDeviceLost.
func (d *Device) Lose() {
	d.lose("host")
}

func (d *Device) lose(reason string) {
	if d.lost.Swap(true) {
		return
	}
	glog.L().Warn("wgpu: device lost", slog.String("reason", reason))
}

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) checkLocked() error {
	if d.lost.Load() || d.destroyed {
		return device.ErrDeviceLost
	}
	return nil
}

// CreateVertexBuffer allocates a vertex buffer.
func (d *Device) CreateVertexBuffer(size uint64) (device.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkLocked(); err != nil {
		return device.InvalidID, err
	}
	if size == 0 || (d.cfg.MaxBufferSize > 0 && size > d.cfg.MaxBufferSize) {
		return device.InvalidID, fmt.Errorf("%w: %d bytes", ErrBufferSize, size)
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gldirect_vertices",
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return device.InvalidID, fmt.Errorf("wgpu: create vertex buffer: %w", err)
	}
	id := device.BufferID(d.newID())
	d.buffers[id] = &buffer{buf: buf, size: size}
	return id, nil
}

// WriteBuffer copies data into a vertex buffer.
func (d *Device) WriteBuffer(id device.BufferID, offset uint64, data []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkLocked(); err != nil {
		return err
	}
	b, ok := d.buffers[id]
	if !ok {
		return device.ErrInvalidBuffer
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: write of %d bytes at %d overflows %d", device.ErrInvalidBuffer, len(data), offset, b.size)
	}
	if err := d.queue.WriteBuffer(b.buf, offset, data); err != nil {
		return fmt.Errorf("wgpu: write vertex buffer: %w", err)
	}
	return nil
}

// DestroyBuffer releases a vertex buffer once the draws reading it have
// completed.
func (d *Device) DestroyBuffer(id device.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	delete(d.buffers, id)
	d.retire(func() { d.device.DestroyBuffer(b.buf) })
}

// Destroy waits for submitted work and releases everything the device
// created. The HAL device and queue belong to the host and are left alone.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	d.destroyed = true
	if !d.lost.Load() {
		if err := d.device.WaitIdle(); err != nil {
			glog.L().Warn("wgpu: wait idle failed", slog.String("error", err.Error()))
		}
	}
	d.drain()

	for id, p := range d.programs {
		p.destroy(d.device)
		delete(d.programs, id)
	}
	for id, b := range d.buffers {
		d.device.DestroyBuffer(b.buf)
		delete(d.buffers, id)
	}
	for k, s := range d.samplers {
		d.device.DestroySampler(s)
		delete(d.samplers, k)
	}
	if d.whiteView != nil {
		d.device.DestroyTextureView(d.whiteView)
		d.whiteView = nil
	}
	if d.white != nil {
		d.device.DestroyTexture(d.white)
		d.white = nil
	}
	d.textures = nil
	d.target, d.depth = nil, nil
}
