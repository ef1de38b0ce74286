// Package shadergen turns an ffstate.Key into a WGSL program that
// reproduces the configured fixed-function pipeline.
//
// Generation is two steps. Generate builds a Program, an ordered structured
// description of declarations, helpers and entry points. Render prints it
// as WGSL. Tests inspect the Program directly.
package shadergen

import (
	"github.com/gogpu/gldirect/device"
)

// Technique and entry point names shared by every generated program.
const (
	TechniqueName = "ffp"
	PassName      = "p0"
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// Bind group layout: the uniform block sits at binding 0; texture unit u
// uses bindings 1+2u (texture) and 2+2u (sampler).
const (
	UniformGroup   = 0
	UniformBinding = 0
)

// TextureBinding returns the texture binding of unit u.
func TextureBinding(u int) uint32 { return uint32(1 + 2*u) }

// SamplerBinding returns the sampler binding of unit u.
func SamplerBinding(u int) uint32 { return uint32(2 + 2*u) }

// Program is a generated program before rendering.
type Program struct {
	Structs   []Struct
	Uniforms  Uniforms
	Bindings  []Binding
	Helpers   []Function
	Vertex    Function
	Fragment  Function
	Technique Technique
}

// Field is a struct member. Attrs are printed before the name.
type Field struct {
	Attrs string
	Name  string
	Type  string
}

// Struct is a struct declaration.
type Struct struct {
	Name   string
	Fields []Field
}

// Uniform is a member of the uniform block.
type Uniform struct {
	Param  Param
	Type   string
	Offset uint32
}

// Uniforms is the uniform block. Members are laid out in declaration order
// with WGSL uniform address space alignment.
type Uniforms struct {
	Struct  string
	Var     string
	Members []Uniform
	Size    uint32
}

// Has reports whether the block declares p.
func (u *Uniforms) Has(p Param) bool {
	for _, m := range u.Members {
		if m.Param == p {
			return true
		}
	}
	return false
}

// BindingKind distinguishes texture and sampler bindings.
type BindingKind uint8

const (
	BindTexture BindingKind = iota
	BindSampler
)

// Binding is a texture or sampler variable.
type Binding struct {
	Kind    BindingKind
	Group   uint32
	Binding uint32
	Name    string
	Unit    int
	// Comment is printed on the line above the declaration.
	Comment string
	// Sampler holds the baked sampler state. Only set for samplers.
	Sampler *device.SamplerDesc
}

// Arg is a function parameter.
type Arg struct {
	Attrs string
	Name  string
	Type  string
}

// Function is a helper or entry point. Body holds one statement per line;
// nesting is expressed by the statements themselves.
type Function struct {
	Attrs  string
	Name   string
	Args   []Arg
	Result string
	Body   []string
}

// Pass binds a vertex and fragment entry point.
type Pass struct {
	Name     string
	Vertex   string
	Fragment string
}

// Technique names the passes of a program.
type Technique struct {
	Name   string
	Passes []Pass
}

// HasHelper reports whether the program declares a helper named name.
func (p *Program) HasHelper(name string) bool {
	for i := range p.Helpers {
		if p.Helpers[i].Name == name {
			return true
		}
	}
	return false
}

// HasStruct reports whether the program declares a struct named name.
func (p *Program) HasStruct(name string) bool {
	for i := range p.Structs {
		if p.Structs[i].Name == name {
			return true
		}
	}
	return false
}

// Desc returns the device program description for p rendered as source.
func (p *Program) Desc(label, source string, model device.ShaderModel) *device.ProgramDesc {
	d := &device.ProgramDesc{
		Label:         label,
		Source:        source,
		Technique:     p.Technique.Name,
		VertexEntry:   p.Technique.Passes[0].Vertex,
		FragmentEntry: p.Technique.Passes[0].Fragment,
		UniformSize:   p.Uniforms.Size,
		ShaderModel:   model,
	}
	for _, m := range p.Uniforms.Members {
		d.Params = append(d.Params, device.ParamDesc{
			Name:   m.Param.Name(),
			Kind:   m.Param.Kind(),
			Offset: m.Offset,
		})
	}
	for _, b := range p.Bindings {
		switch b.Kind {
		case BindTexture:
			d.Params = append(d.Params, device.ParamDesc{
				Name:    b.Name,
				Kind:    device.ParamTexture,
				Binding: b.Binding,
			})
		case BindSampler:
			d.Samplers = append(d.Samplers, *b.Sampler)
		}
	}
	return d
}

// layout assigns offsets to the uniform members and computes the block
// size: scalars align to 4 bytes, vectors and matrices to 16, and the
// block size rounds up to 16.
func (u *Uniforms) layout() {
	var off uint32
	for i := range u.Members {
		m := &u.Members[i]
		align := uint32(16)
		if m.Param.Kind() == device.ParamScalar {
			align = 4
		}
		off = roundUp(off, align)
		m.Offset = off
		off += m.Param.Kind().Size()
	}
	u.Size = roundUp(off, 16)
}

func roundUp(v, align uint32) uint32 {
	return (v + align - 1) / align * align
}
