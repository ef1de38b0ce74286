package shadergen

import (
	"fmt"

	"github.com/gogpu/gldirect/internal/ffstate"
)

const (
	vec3Type = "vec3<f32>"
	vec4Type = "vec4<f32>"
	mat4Type = "mat4x4<f32>"
)

var swizzle = [ffstate.NumCoords]string{"x", "y", "z", "w"}

// generator accumulates one Program. Uniform members are registered on
// first use, so the block declares exactly what the entry points read.
type generator struct {
	key  *ffstate.Key
	prog *Program
	vs   []string
	fs   []string
}

// Generate builds the program for k. Equal keys produce equal programs.
func Generate(k ffstate.Key) *Program {
	g := &generator{
		key: &k,
		prog: &Program{
			Uniforms: Uniforms{Struct: "Uniforms", Var: "u"},
		},
	}
	g.structs()
	g.bindings()
	g.helpers()
	g.vertex()
	g.fragment()
	g.prog.Technique = Technique{
		Name:   TechniqueName,
		Passes: []Pass{{Name: PassName, Vertex: VertexEntry, Fragment: FragmentEntry}},
	}
	g.prog.Uniforms.layout()
	return g.prog
}

// u registers p in the uniform block and returns its access expression.
func (g *generator) u(p Param) string {
	if !g.prog.Uniforms.Has(p) {
		typ := vec4Type
		switch p.Kind().Size() {
		case 4:
			typ = "f32"
		case 64:
			typ = mat4Type
		}
		g.prog.Uniforms.Members = append(g.prog.Uniforms.Members, Uniform{Param: p, Type: typ})
	}
	return g.prog.Uniforms.Var + "." + p.Name()
}

func (g *generator) v(format string, args ...any) {
	g.vs = append(g.vs, fmt.Sprintf(format, args...))
}

func (g *generator) f(format string, args ...any) {
	g.fs = append(g.fs, fmt.Sprintf(format, args...))
}

func (g *generator) structs() {
	k := g.key
	g.prog.Structs = append(g.prog.Structs, Struct{
		Name: "VertexInput",
		Fields: []Field{
			{Attrs: "@location(0)", Name: "position", Type: vec4Type},
			{Attrs: "@location(1)", Name: "normal", Type: vec3Type},
			{Attrs: "@location(2)", Name: "color", Type: vec4Type},
			{Attrs: "@location(3)", Name: "texcoord0", Type: vec4Type},
			{Attrs: "@location(4)", Name: "texcoord1", Type: vec4Type},
		},
	})

	interp := ""
	if k.ShadeFlat {
		interp = " @interpolate(flat)"
	}
	out := Struct{
		Name: "VertexOutput",
		Fields: []Field{
			{Attrs: "@builtin(position)", Name: "clip", Type: vec4Type},
			{Attrs: "@location(0)" + interp, Name: "color", Type: vec4Type},
		},
	}
	if k.Lighting && k.TwoSided {
		out.Fields = append(out.Fields, Field{Attrs: "@location(1)" + interp, Name: "back_color", Type: vec4Type})
	}
	for i := range k.Units {
		if k.UnitEnabled(i) {
			out.Fields = append(out.Fields, Field{
				Attrs: fmt.Sprintf("@location(%d)", 2+i),
				Name:  fmt.Sprintf("tc%d", i),
				Type:  vec4Type,
			})
		}
	}
	if k.FogEnabled {
		out.Fields = append(out.Fields, Field{
			Attrs: fmt.Sprintf("@location(%d)", 2+ffstate.MaxTextureUnits),
			Name:  "fog",
			Type:  "f32",
		})
	}
	g.prog.Structs = append(g.prog.Structs, out)

	if k.Lighting {
		g.prog.Structs = append(g.prog.Structs,
			Struct{
				Name: "Light",
				Fields: []Field{
					{Name: "ambient", Type: vec4Type},
					{Name: "diffuse", Type: vec4Type},
					{Name: "specular", Type: vec4Type},
					{Name: "position", Type: vec4Type},
					{Name: "attenuation", Type: vec4Type},
					{Name: "spot_dir", Type: vec4Type},
					{Name: "spot", Type: vec4Type},
				},
			},
			Struct{
				Name: "Material",
				Fields: []Field{
					{Name: "ambient", Type: vec4Type},
					{Name: "diffuse", Type: vec4Type},
					{Name: "specular", Type: vec4Type},
					{Name: "emission", Type: vec4Type},
					{Name: "shininess", Type: "f32"},
				},
			},
		)
	}
}

func (g *generator) bindings() {
	for i := range g.key.Units {
		if !g.key.UnitEnabled(i) {
			continue
		}
		uk := &g.key.Units[i]
		sd := samplerDesc(i, uk)
		g.prog.Bindings = append(g.prog.Bindings,
			Binding{
				Kind:    BindTexture,
				Group:   UniformGroup,
				Binding: TextureBinding(i),
				Name:    UnitParam(i, UnitTexture).Name(),
				Unit:    i,
				Comment: fmt.Sprintf("unit %d: min %v, mag %v, wrap %v/%v, env %v",
					i, uk.MinFilter, uk.MagFilter, uk.WrapS, uk.WrapT, uk.EnvMode),
			},
			Binding{
				Kind:    BindSampler,
				Group:   UniformGroup,
				Binding: SamplerBinding(i),
				Name:    fmt.Sprintf("samp%d", i),
				Unit:    i,
				Sampler: &sd,
			},
		)
	}
}

func (g *generator) helpers() {
	if g.key.Lighting {
		for _, kind := range g.key.LightKinds() {
			g.prog.Helpers = append(g.prog.Helpers, lightHelper(kind))
		}
	}
	for _, mode := range g.enabledTexGenModes() {
		g.prog.Helpers = append(g.prog.Helpers, texGenHelper(mode))
	}
}

// enabledTexGenModes returns the distinct modes of enabled units.
func (g *generator) enabledTexGenModes() []ffstate.TexGenMode {
	var enabled ffstate.Key
	for i := range g.key.Units {
		if g.key.UnitEnabled(i) {
			enabled.Units[i] = g.key.Units[i]
		}
	}
	return enabled.TexGenModes()
}

func (g *generator) vertex() {
	k := g.key
	needEye := k.NeedsEye()
	needNormal := k.NeedsNormal()

	g.v("var out: VertexOutput;")
	g.v("out.clip = %s * in.position;", g.u(ParamMVP))
	if needEye {
		g.v("let eye = %s * in.position;", g.u(ParamModelView))
	}
	if needNormal {
		g.v("let n = normalize((%s * vec4<f32>(in.normal, 0.0)).xyz);", g.u(ParamNormalMatrix))
	}

	if k.Lighting {
		g.lighting()
	} else {
		g.v("out.color = in.color;")
	}

	for i := range k.Units {
		if k.UnitEnabled(i) {
			g.texCoord(i)
		}
	}

	if k.FogEnabled {
		g.fog()
	}
	g.v("return out;")

	g.prog.Vertex = Function{
		Attrs:  "@vertex",
		Name:   VertexEntry,
		Args:   []Arg{{Name: "in", Type: "VertexInput"}},
		Result: "VertexOutput",
		Body:   g.vs,
	}
}

func (g *generator) lighting() {
	k := g.key
	for i, kind := range k.Lights {
		if kind == ffstate.LightNone {
			continue
		}
		att := "vec4<f32>(1.0, 0.0, 0.0, 0.0)"
		spotDir := "vec4<f32>(0.0, 0.0, -1.0, 0.0)"
		spot := "vec4<f32>(0.0, -1.0, 0.0, 0.0)"
		if kind == ffstate.LightPoint || kind == ffstate.LightSpot {
			att = g.u(LightParam(i, LightAttenuation))
		}
		if kind == ffstate.LightSpot {
			spotDir = g.u(LightParam(i, LightSpotDirection))
			spot = g.u(LightParam(i, LightSpot))
		}
		g.v("let l%d = Light(%s, %s, %s, %s, %s, %s, %s);", i,
			g.u(LightParam(i, LightAmbient)),
			g.u(LightParam(i, LightDiffuse)),
			g.u(LightParam(i, LightSpecular)),
			g.u(LightParam(i, LightPosition)),
			att, spotDir, spot)
	}

	g.face("front", "color", "n", [5]Param{
		ParamFrontAmbient, ParamFrontDiffuse, ParamFrontSpecular, ParamFrontEmission, ParamFrontShininess,
	})
	if k.TwoSided {
		g.face("back", "back_color", "-n", [5]Param{
			ParamBackAmbient, ParamBackDiffuse, ParamBackSpecular, ParamBackEmission, ParamBackShininess,
		})
	}
}

// face emits the lighting sum for one face into out.<field>.
func (g *generator) face(name, field, normal string, mat [5]Param) {
	k := g.key
	m := "m_" + name
	g.v("var %s = Material(%s, %s, %s, %s, %s);", m,
		g.u(mat[0]), g.u(mat[1]), g.u(mat[2]), g.u(mat[3]), g.u(mat[4]))
	switch k.ColorMaterial {
	case ffstate.ColorMaterialAmbient:
		g.v("%s.ambient = in.color;", m)
	case ffstate.ColorMaterialDiffuse:
		g.v("%s.diffuse = in.color;", m)
	case ffstate.ColorMaterialAmbientAndDiffuse:
		g.v("%s.ambient = in.color;", m)
		g.v("%s.diffuse = in.color;", m)
	case ffstate.ColorMaterialEmission:
		g.v("%s.emission = in.color;", m)
	case ffstate.ColorMaterialSpecular:
		g.v("%s.specular = in.color;", m)
	}

	sum := "lit_" + name
	g.v("var %s = %s.emission.rgb + %s.ambient.rgb * %s.rgb;", sum, m, m, g.u(ParamSceneAmbient))
	for i, kind := range k.Lights {
		if kind == ffstate.LightNone {
			continue
		}
		g.v("%s += %s(l%d, %s, %s, eye.xyz);", sum, lightHelperName(kind), i, m, normal)
	}
	g.v("out.%s = vec4<f32>(clamp(%s, vec3<f32>(0.0), vec3<f32>(1.0)), %s.diffuse.a);", field, sum, m)
}

func (g *generator) texCoord(unit int) {
	uk := &g.key.Units[unit]
	tc := fmt.Sprintf("tc%d", unit)
	g.v("var %s = in.texcoord%d;", tc, unit)
	for c, mode := range uk.TexGen {
		switch mode {
		case ffstate.TexGenOff:
			continue
		case ffstate.TexGenObjectLinear:
			g.v("%s.%s = %s(in.position, %s);", tc, swizzle[c], texGenHelperName(mode), g.u(PlaneParam(unit, mode, c)))
		case ffstate.TexGenEyeLinear:
			g.v("%s.%s = %s(eye, %s);", tc, swizzle[c], texGenHelperName(mode), g.u(PlaneParam(unit, mode, c)))
		case ffstate.TexGenSphereMap, ffstate.TexGenReflectionMap:
			g.v("%s.%s = %s(eye, n).%s;", tc, swizzle[c], texGenHelperName(mode), swizzle[c])
		case ffstate.TexGenNormalMap:
			g.v("%s.%s = %s(n).%s;", tc, swizzle[c], texGenHelperName(mode), swizzle[c])
		}
	}
	g.v("out.%s = %s * %s;", tc, g.u(UnitParam(unit, UnitMatrix)), tc)
}

func (g *generator) fog() {
	params := g.u(ParamFogParams)
	g.v("let fog_z = abs(eye.z);")
	switch g.key.FogMode {
	case ffstate.FogLinear:
		g.v("out.fog = clamp((%s.y - fog_z) * %s.w, 0.0, 1.0);", params, params)
	case ffstate.FogExp:
		g.v("out.fog = clamp(exp(-%s.z * fog_z), 0.0, 1.0);", params)
	case ffstate.FogExp2:
		g.v("let fog_d = %s.z * fog_z;", params)
		g.v("out.fog = clamp(exp(-fog_d * fog_d), 0.0, 1.0);")
	}
}

func (g *generator) fragment() {
	k := g.key
	args := []Arg{{Name: "in", Type: "VertexOutput"}}
	if k.Lighting && k.TwoSided {
		args = append(args, Arg{Attrs: "@builtin(front_facing)", Name: "front", Type: "bool"})
		g.f("var c = select(in.back_color, in.color, front);")
	} else {
		g.f("var c = in.color;")
	}

	for i := range k.Units {
		if k.UnitEnabled(i) {
			g.combine(i)
		}
	}

	if k.FogEnabled {
		g.f("c = vec4<f32>(mix(%s.rgb, c.rgb, in.fog), c.a);", g.u(ParamFogColor))
	}
	g.f("return c;")

	g.prog.Fragment = Function{
		Attrs:  "@fragment",
		Name:   FragmentEntry,
		Args:   args,
		Result: "@location(0) vec4<f32>",
		Body:   g.fs,
	}
}

// combine emits the texture environment of one unit. c holds the incoming
// fragment color and receives the result.
func (g *generator) combine(unit int) {
	t := fmt.Sprintf("t%d", unit)
	g.f("let %s = textureSample(tex%d, samp%d, in.tc%d.xy / in.tc%d.w);", t, unit, unit, unit, unit)
	switch g.key.Units[unit].EnvMode {
	case ffstate.EnvReplace:
		g.f("c = %s;", t)
	case ffstate.EnvModulate:
		g.f("c = c * %s;", t)
	case ffstate.EnvDecal:
		g.f("c = vec4<f32>(mix(c.rgb, %s.rgb, %s.a), c.a);", t, t)
	case ffstate.EnvBlend:
		g.f("c = vec4<f32>(mix(c.rgb, %s.rgb, %s.rgb), c.a * %s.a);",
			g.u(UnitParam(unit, UnitEnvColor)), t, t)
	case ffstate.EnvAdd:
		g.f("c = vec4<f32>(c.rgb + %s.rgb, c.a * %s.a);", t, t)
	}
}
