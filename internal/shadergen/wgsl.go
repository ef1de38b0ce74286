package shadergen

import (
	"fmt"
	"strings"
)

const indent = "    "

// Render prints p as WGSL. Sections follow a fixed order: structs, the
// uniform block, texture and sampler bindings, helpers, the vertex entry,
// the fragment entry and the technique block.
func Render(p *Program) string {
	var b strings.Builder

	for _, s := range p.Structs {
		writeStruct(&b, s)
	}

	writeUniforms(&b, &p.Uniforms)

	if len(p.Bindings) > 0 {
		for _, bd := range p.Bindings {
			if bd.Comment != "" {
				fmt.Fprintf(&b, "// %s\n", bd.Comment)
			}
			typ := "sampler"
			if bd.Kind == BindTexture {
				typ = "texture_2d<f32>"
			}
			fmt.Fprintf(&b, "@group(%d) @binding(%d) var %s: %s;\n", bd.Group, bd.Binding, bd.Name, typ)
		}
		b.WriteByte('\n')
	}

	for i := range p.Helpers {
		writeFunction(&b, &p.Helpers[i])
	}
	writeFunction(&b, &p.Vertex)
	writeFunction(&b, &p.Fragment)

	writeTechnique(&b, &p.Technique)
	return b.String()
}

func writeStruct(b *strings.Builder, s Struct) {
	fmt.Fprintf(b, "struct %s {\n", s.Name)
	for _, f := range s.Fields {
		b.WriteString(indent)
		if f.Attrs != "" {
			b.WriteString(f.Attrs)
			b.WriteByte(' ')
		}
		fmt.Fprintf(b, "%s: %s,\n", f.Name, f.Type)
	}
	b.WriteString("}\n\n")
}

func writeUniforms(b *strings.Builder, u *Uniforms) {
	fmt.Fprintf(b, "struct %s {\n", u.Struct)
	for _, m := range u.Members {
		fmt.Fprintf(b, "%s%s: %s, // offset %d\n", indent, m.Param.Name(), m.Type, m.Offset)
	}
	b.WriteString("}\n\n")
	fmt.Fprintf(b, "@group(%d) @binding(%d) var<uniform> %s: %s;\n\n", UniformGroup, UniformBinding, u.Var, u.Struct)
}

func writeFunction(b *strings.Builder, fn *Function) {
	if fn.Attrs != "" {
		b.WriteString(fn.Attrs)
		b.WriteByte('\n')
	}
	fmt.Fprintf(b, "fn %s(", fn.Name)
	for i, a := range fn.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		if a.Attrs != "" {
			b.WriteString(a.Attrs)
			b.WriteByte(' ')
		}
		fmt.Fprintf(b, "%s: %s", a.Name, a.Type)
	}
	b.WriteByte(')')
	if fn.Result != "" {
		fmt.Fprintf(b, " -> %s", fn.Result)
	}
	b.WriteString(" {\n")
	for _, line := range fn.Body {
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("}\n\n")
}

// writeTechnique prints the technique as a trailing comment block. WGSL has
// no technique syntax; the block documents which entry points form a pass.
func writeTechnique(b *strings.Builder, t *Technique) {
	fmt.Fprintf(b, "// technique %s\n", t.Name)
	for _, p := range t.Passes {
		fmt.Fprintf(b, "//   pass %s: vertex %s, fragment %s\n", p.Name, p.Vertex, p.Fragment)
	}
}
