package shadergen

// DefaultLabel is the debug label of the fallback program.
const DefaultLabel = "ffp-default"

// Default returns the fallback program: untextured, unlit, passing the
// vertex color through. It does not depend on the generator, so a
// generator fault cannot break it.
func Default() *Program {
	p := &Program{
		Structs: []Struct{
			{
				Name: "VertexInput",
				Fields: []Field{
					{Attrs: "@location(0)", Name: "position", Type: vec4Type},
					{Attrs: "@location(2)", Name: "color", Type: vec4Type},
				},
			},
			{
				Name: "VertexOutput",
				Fields: []Field{
					{Attrs: "@builtin(position)", Name: "clip", Type: vec4Type},
					{Attrs: "@location(0)", Name: "color", Type: vec4Type},
				},
			},
		},
		Uniforms: Uniforms{
			Struct:  "Uniforms",
			Var:     "u",
			Members: []Uniform{{Param: ParamMVP, Type: mat4Type}},
		},
		Vertex: Function{
			Attrs:  "@vertex",
			Name:   VertexEntry,
			Args:   []Arg{{Name: "in", Type: "VertexInput"}},
			Result: "VertexOutput",
			Body: []string{
				"var out: VertexOutput;",
				"out.clip = u.mvp * in.position;",
				"out.color = in.color;",
				"return out;",
			},
		},
		Fragment: Function{
			Attrs:  "@fragment",
			Name:   FragmentEntry,
			Args:   []Arg{{Name: "in", Type: "VertexOutput"}},
			Result: "@location(0) vec4<f32>",
			Body:   []string{"return in.color;"},
		},
		Technique: Technique{
			Name:   TechniqueName,
			Passes: []Pass{{Name: PassName, Vertex: VertexEntry, Fragment: FragmentEntry}},
		},
	}
	p.Uniforms.layout()
	return p
}
