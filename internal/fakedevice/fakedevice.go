// Package fakedevice provides an in-memory device.Device that records every
// call, for tests.
package fakedevice

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/primitive"
	"golang.org/x/image/math/f32"
)

// Draw is one recorded draw call with a copy of the vertex bytes it read.
type Draw struct {
	Call device.DrawCall
	Data []byte
}

// Vertices returns the number of vertices the draw read.
func (d Draw) Vertices() int { return int(d.Call.Count) }

// Program is a compiled program as the fake sees it.
type Program struct {
	Desc     device.ProgramDesc
	Scalars  map[device.ParamHandle]float32
	Vectors  map[device.ParamHandle]f32.Vec4
	Matrices map[device.ParamHandle]f32.Mat4
	Textures map[device.ParamHandle]device.TextureID
}

// Device is a recording fake. The zero value is not usable; call New.
type Device struct {
	mu sync.Mutex

	caps device.Caps

	nextID   uint64
	buffers  map[device.BufferID][]byte
	programs map[device.ProgramID]*Program

	// FailCompile, when set, makes CompileProgram fail for programs whose
	// source contains the string.
	FailCompile string

	lost      bool
	destroyed bool

	Compiles         int
	FailedCompiles   int
	BuffersCreated   int
	BuffersDestroyed int
	Writes           int
	Draws            []Draw
}

// New returns a fake with the given capabilities.
func New(caps device.Caps) *Device {
	return &Device{
		caps:     caps,
		buffers:  make(map[device.BufferID][]byte),
		programs: make(map[device.ProgramID]*Program),
	}
}

// DefaultCaps returns WGSL, two texture units and a 1 MiB buffer limit.
func DefaultCaps() device.Caps {
	return device.Caps{
		MaxShaderModel:  device.ShaderModelWGSL,
		MaxTextureUnits: 2,
		MaxBufferSize:   1 << 20,
	}
}

// Lose simulates device loss. Every later call fails with
// device.ErrDeviceLost.
func (d *Device) Lose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lost = true
}

// Destroyed reports whether Destroy was called.
func (d *Device) Destroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (d *Device) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// LivePrograms returns the number of programs not yet destroyed.
func (d *Device) LivePrograms() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programs)
}

// BufferData returns a copy of a buffer's contents.
func (d *Device) BufferData(id device.BufferID) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.buffers[id]...)
}

// Program returns a compiled program, or nil.
func (d *Device) Program(id device.ProgramID) *Program {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.programs[id]
}

// Reset clears the recorded draws and counters, keeping resources.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Draws = nil
	d.Compiles, d.FailedCompiles = 0, 0
	d.BuffersCreated, d.BuffersDestroyed, d.Writes = 0, 0, 0
}

func (d *Device) Caps() device.Caps { return d.caps }

func (d *Device) CreateVertexBuffer(size uint64) (device.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return device.InvalidID, device.ErrDeviceLost
	}
	if d.caps.MaxBufferSize != 0 && size > d.caps.MaxBufferSize {
		return device.InvalidID, fmt.Errorf("fakedevice: buffer of %d bytes exceeds %d", size, d.caps.MaxBufferSize)
	}
	d.nextID++
	id := device.BufferID(d.nextID)
	d.buffers[id] = make([]byte, size)
	d.BuffersCreated++
	return id, nil
}

func (d *Device) WriteBuffer(id device.BufferID, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return device.ErrDeviceLost
	}
	buf, ok := d.buffers[id]
	if !ok {
		return device.ErrInvalidBuffer
	}
	if offset+uint64(len(data)) > uint64(len(buf)) {
		return fmt.Errorf("fakedevice: write [%d,%d) past buffer size %d", offset, offset+uint64(len(data)), len(buf))
	}
	copy(buf[offset:], data)
	d.Writes++
	return nil
}

func (d *Device) DestroyBuffer(id device.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[id]; ok {
		delete(d.buffers, id)
		d.BuffersDestroyed++
	}
}

func (d *Device) CompileProgram(desc *device.ProgramDesc) (device.ProgramID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return device.InvalidID, device.ErrDeviceLost
	}
	d.Compiles++
	if d.FailCompile != "" && strings.Contains(desc.Source, d.FailCompile) {
		d.FailedCompiles++
		return device.InvalidID, &device.CompileError{Label: desc.Label, Log: "forced failure"}
	}
	d.nextID++
	id := device.ProgramID(d.nextID)
	d.programs[id] = &Program{
		Desc:     *desc,
		Scalars:  make(map[device.ParamHandle]float32),
		Vectors:  make(map[device.ParamHandle]f32.Vec4),
		Matrices: make(map[device.ParamHandle]f32.Mat4),
		Textures: make(map[device.ParamHandle]device.TextureID),
	}
	return id, nil
}

func (d *Device) DestroyProgram(id device.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.programs, id)
}

func (d *Device) ResolveTechnique(p device.ProgramID, name string) (device.TechniqueHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, err := d.programLocked(p)
	if err != nil {
		return device.InvalidTechnique, err
	}
	if prog.Desc.Technique != name {
		return device.InvalidTechnique, fmt.Errorf("%w: %q", device.ErrUnknownTechnique, name)
	}
	return 0, nil
}

func (d *Device) ResolveParameter(p device.ProgramID, name string) (device.ParamHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, err := d.programLocked(p)
	if err != nil {
		return device.InvalidParam, err
	}
	for i, pd := range prog.Desc.Params {
		if pd.Name == name {
			return device.ParamHandle(i), nil
		}
	}
	return device.InvalidParam, fmt.Errorf("%w: %q", device.ErrUnknownParameter, name)
}

func (d *Device) SetScalar(p device.ProgramID, h device.ParamHandle, v float32) error {
	return d.set(p, h, device.ParamScalar, func(prog *Program) { prog.Scalars[h] = v })
}

func (d *Device) SetVector(p device.ProgramID, h device.ParamHandle, v f32.Vec4) error {
	return d.set(p, h, device.ParamVector, func(prog *Program) { prog.Vectors[h] = v })
}

func (d *Device) SetMatrix(p device.ProgramID, h device.ParamHandle, m f32.Mat4) error {
	return d.set(p, h, device.ParamMatrix, func(prog *Program) { prog.Matrices[h] = m })
}

func (d *Device) SetTexture(p device.ProgramID, h device.ParamHandle, tex device.TextureID) error {
	return d.set(p, h, device.ParamTexture, func(prog *Program) { prog.Textures[h] = tex })
}

func (d *Device) set(p device.ProgramID, h device.ParamHandle, kind device.ParamKind, apply func(*Program)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, err := d.programLocked(p)
	if err != nil {
		return err
	}
	if !h.Valid() || int(h) >= len(prog.Desc.Params) {
		return device.ErrUnknownParameter
	}
	if got := prog.Desc.Params[h].Kind; got != kind {
		return fmt.Errorf("fakedevice: parameter %q is %v, not %v", prog.Desc.Params[h].Name, got, kind)
	}
	apply(prog)
	return nil
}

func (d *Device) Draw(call *device.DrawCall) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return device.ErrDeviceLost
	}
	if _, err := d.programLocked(call.Program); err != nil {
		return err
	}
	buf, ok := d.buffers[call.Buffer]
	if !ok {
		return device.ErrInvalidBuffer
	}
	lo := uint64(call.First) * primitive.VertexStride
	hi := lo + uint64(call.Count)*primitive.VertexStride
	if hi > uint64(len(buf)) {
		return fmt.Errorf("fakedevice: draw reads [%d,%d) past buffer size %d", lo, hi, len(buf))
	}
	d.Draws = append(d.Draws, Draw{Call: *call, Data: append([]byte(nil), buf[lo:hi]...)})
	return nil
}

func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = true
	d.buffers = make(map[device.BufferID][]byte)
	d.programs = make(map[device.ProgramID]*Program)
}

func (d *Device) programLocked(p device.ProgramID) (*Program, error) {
	if d.lost {
		return nil, device.ErrDeviceLost
	}
	prog, ok := d.programs[p]
	if !ok {
		return nil, device.ErrInvalidProgram
	}
	return prog, nil
}

var _ device.Device = (*Device)(nil)
