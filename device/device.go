// Package device defines the shader-based rendering device gldirect draws
// through.
//
// The fixed-function core never talks to a GPU API directly. It allocates
// vertex buffers, compiles generated programs, resolves parameter handles and
// issues draws through the [Device] interface. The backend/wgpu package
// implements it on top of gogpu/wgpu's HAL; tests use a recording fake.
//
// # Resource Management
//
// Resources are referenced by opaque IDs. Zero is never a valid ID. IDs
// become invalid when the resource is destroyed or the device is lost.
//
// # Device Loss
//
// After the device reports [ErrDeviceLost], every ID it handed out is dead.
// Callers recreate buffers and recompile programs on a fresh device; program
// source and reflection data are plain values and stay valid.
package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// Device errors.
var (
	// ErrDeviceLost is returned by every operation on a lost device.
	ErrDeviceLost = errors.New("device: device lost")

	// ErrInvalidBuffer is returned when a buffer ID is unknown or destroyed.
	ErrInvalidBuffer = errors.New("device: invalid buffer")

	// ErrInvalidProgram is returned when a program ID is unknown or destroyed.
	ErrInvalidProgram = errors.New("device: invalid program")

	// ErrUnknownParameter is returned when a parameter name is not declared
	// by the program.
	ErrUnknownParameter = errors.New("device: unknown parameter")

	// ErrUnknownTechnique is returned when a technique name is not declared
	// by the program.
	ErrUnknownTechnique = errors.New("device: unknown technique")

	// ErrCompile is the sentinel wrapped by every CompileError.
	ErrCompile = errors.New("device: shader compilation failed")
)

// CompileError carries the compiler's log for a failed program.
type CompileError struct {
	// Label is the program's debug label.
	Label string
	// Log is the compiler output.
	Log string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("device: compile %q: %s", e.Label, e.Log)
}

// Unwrap returns ErrCompile.
func (e *CompileError) Unwrap() error { return ErrCompile }

// BufferID is an opaque handle to a vertex buffer.
type BufferID uint64

// ProgramID is an opaque handle to a compiled program.
type ProgramID uint64

// TextureID is an opaque handle to a texture owned by the host.
type TextureID uint64

// InvalidID is the zero value shared by all ID types.
const InvalidID = 0

// ParamHandle indexes a program's parameter table.
type ParamHandle int32

// InvalidParam marks a parameter the program does not declare.
const InvalidParam ParamHandle = -1

// Valid reports whether h refers to a declared parameter.
func (h ParamHandle) Valid() bool { return h >= 0 }

// TechniqueHandle identifies a vertex/fragment entry-point pair of a program.
type TechniqueHandle int32

// InvalidTechnique marks an unresolved technique.
const InvalidTechnique TechniqueHandle = -1

// ShaderModel is the shading-language level a device accepts.
// Higher values are newer.
type ShaderModel uint8

const (
	// ShaderModelNone means the device cannot compile programs.
	ShaderModelNone ShaderModel = iota
	// ShaderModelWGSL hands WGSL source to the device compiler.
	ShaderModelWGSL
	// ShaderModelSPIRV translates WGSL to SPIR-V on the host before
	// creating the module.
	ShaderModelSPIRV
)

// String returns the string representation of the shader model.
func (m ShaderModel) String() string {
	switch m {
	case ShaderModelNone:
		return "None"
	case ShaderModelWGSL:
		return "WGSL"
	case ShaderModelSPIRV:
		return "SPIR-V"
	default:
		return fmt.Sprintf("ShaderModel(%d)", uint8(m))
	}
}

// Caps describes device capabilities.
type Caps struct {
	// MaxShaderModel is the highest shading-language level supported.
	MaxShaderModel ShaderModel

	// MaxTextureUnits is the number of textures a program may sample.
	MaxTextureUnits int

	// MaxBufferSize is the largest vertex buffer the device allocates, in bytes.
	MaxBufferSize uint64
}

// ParamKind is the type of a program parameter.
type ParamKind uint8

const (
	ParamScalar ParamKind = iota
	ParamVector
	ParamMatrix
	ParamTexture
)

// String returns the string representation of the parameter kind.
func (k ParamKind) String() string {
	switch k {
	case ParamScalar:
		return "scalar"
	case ParamVector:
		return "vector"
	case ParamMatrix:
		return "matrix"
	case ParamTexture:
		return "texture"
	default:
		return fmt.Sprintf("ParamKind(%d)", uint8(k))
	}
}

// Size returns the byte size of the parameter inside the uniform block.
// Textures occupy no uniform storage.
func (k ParamKind) Size() uint32 {
	switch k {
	case ParamScalar:
		return 4
	case ParamVector:
		return 16
	case ParamMatrix:
		return 64
	default:
		return 0
	}
}

// ParamDesc is one reflected program parameter.
type ParamDesc struct {
	// Name is the parameter name as declared in the source.
	Name string

	// Kind is the parameter type.
	Kind ParamKind

	// Offset is the byte offset inside the uniform block.
	// For textures it is unused.
	Offset uint32

	// Binding is the texture binding index. Only used for textures.
	Binding uint32
}

// SamplerDesc is a sampler the program declares. Filter and address modes
// are fixed when the program is compiled.
type SamplerDesc struct {
	// Unit is the fixed-function texture unit the sampler serves.
	Unit int

	// Binding is the sampler's binding index.
	Binding uint32

	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	MipmapFilter gputypes.FilterMode
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
}

// ProgramDesc describes a program to compile, together with the reflection
// data produced by the generator.
type ProgramDesc struct {
	// Label is an optional debug name.
	Label string

	// Source is the WGSL program text.
	Source string

	// Technique is the technique name the program exports.
	Technique string

	// VertexEntry and FragmentEntry are the entry points of Technique.
	VertexEntry   string
	FragmentEntry string

	// UniformSize is the byte size of the uniform block at binding 0.
	UniformSize uint32

	// Params lists every parameter in declaration order.
	Params []ParamDesc

	// Samplers lists the program's samplers in unit order.
	Samplers []SamplerDesc

	// ShaderModel selects the compilation path.
	ShaderModel ShaderModel
}

// DrawCall describes one draw from a bound vertex buffer.
type DrawCall struct {
	Program   ProgramID
	Technique TechniqueHandle
	Topology  gputypes.PrimitiveTopology
	Buffer    BufferID

	// First is the first vertex to draw.
	First uint32

	// Count is the number of vertices to draw.
	Count uint32
}

// Device is the downstream rendering device.
//
// A Device is used from one goroutine per rendering context; implementations
// shared across contexts must synchronize internally.
type Device interface {
	// Caps returns the device capabilities.
	Caps() Caps

	// CreateVertexBuffer allocates a vertex buffer of size bytes.
	CreateVertexBuffer(size uint64) (BufferID, error)

	// WriteBuffer copies data into the buffer at offset.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// DestroyBuffer releases a buffer. Unknown IDs are ignored.
	DestroyBuffer(id BufferID)

	// CompileProgram compiles a program. Compilation failures are reported
	// as *CompileError.
	CompileProgram(desc *ProgramDesc) (ProgramID, error)

	// DestroyProgram releases a program. Unknown IDs are ignored.
	DestroyProgram(id ProgramID)

	// ResolveTechnique looks up a technique by name.
	ResolveTechnique(p ProgramID, name string) (TechniqueHandle, error)

	// ResolveParameter looks up a parameter by name.
	ResolveParameter(p ProgramID, name string) (ParamHandle, error)

	// SetScalar, SetVector, SetMatrix and SetTexture update a parameter by
	// handle. The value is used by subsequent draws with the program.
	SetScalar(p ProgramID, h ParamHandle, v float32) error
	SetVector(p ProgramID, h ParamHandle, v f32.Vec4) error
	SetMatrix(p ProgramID, h ParamHandle, m f32.Mat4) error
	SetTexture(p ProgramID, h ParamHandle, tex TextureID) error

	// Draw issues a draw call and returns once it has been submitted.
	Draw(call *DrawCall) error

	// Destroy releases the device and everything created from it.
	Destroy()
}
