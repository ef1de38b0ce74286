package shadergen

import (
	"fmt"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/ffstate"
	"github.com/gogpu/gputypes"
)

func lightHelperName(kind ffstate.LightKind) string {
	switch kind {
	case ffstate.LightDirectional:
		return "light_directional"
	case ffstate.LightPoint:
		return "light_point"
	case ffstate.LightSpot:
		return "light_spot"
	default:
		panic(fmt.Sprintf("shadergen: no helper for light kind %v", kind))
	}
}

var lightArgs = []Arg{
	{Name: "l", Type: "Light"},
	{Name: "m", Type: "Material"},
	{Name: "n", Type: vec3Type},
	{Name: "eye", Type: vec3Type},
}

// lightHelper returns the per-light contribution for one light kind. The
// viewer is at infinity along +z.
func lightHelper(kind ffstate.LightKind) Function {
	var body []string
	switch kind {
	case ffstate.LightDirectional:
		body = []string{"let dir = normalize(l.position.xyz);"}
	case ffstate.LightPoint, ffstate.LightSpot:
		body = []string{
			"let d = l.position.xyz - eye;",
			"let dist = length(d);",
			"let dir = d / dist;",
			"let att = 1.0 / (l.attenuation.x + l.attenuation.y * dist + l.attenuation.z * dist * dist);",
		}
	}
	body = append(body,
		"let ndotl = max(dot(n, dir), 0.0);",
		"var c = l.ambient.rgb * m.ambient.rgb + ndotl * l.diffuse.rgb * m.diffuse.rgb;",
		"if (ndotl > 0.0) {",
		"    let h = normalize(dir + vec3<f32>(0.0, 0.0, 1.0));",
		"    c += pow(max(dot(n, h), 0.0), m.shininess) * l.specular.rgb * m.specular.rgb;",
		"}",
	)
	switch kind {
	case ffstate.LightDirectional:
		body = append(body, "return c;")
	case ffstate.LightPoint:
		body = append(body, "return c * att;")
	case ffstate.LightSpot:
		body = append(body,
			"let cos_angle = dot(-dir, normalize(l.spot_dir.xyz));",
			"var spot = 0.0;",
			"if (cos_angle >= l.spot.y) {",
			"    spot = pow(max(cos_angle, 0.0), l.spot.x);",
			"}",
			"return c * att * spot;",
		)
	}
	return Function{
		Name:   lightHelperName(kind),
		Args:   lightArgs,
		Result: vec3Type,
		Body:   body,
	}
}

func texGenHelperName(mode ffstate.TexGenMode) string {
	switch mode {
	case ffstate.TexGenObjectLinear:
		return "texgen_object_linear"
	case ffstate.TexGenEyeLinear:
		return "texgen_eye_linear"
	case ffstate.TexGenSphereMap:
		return "texgen_sphere_map"
	case ffstate.TexGenNormalMap:
		return "texgen_normal_map"
	case ffstate.TexGenReflectionMap:
		return "texgen_reflection_map"
	default:
		panic(fmt.Sprintf("shadergen: no helper for texgen mode %v", mode))
	}
}

func texGenHelper(mode ffstate.TexGenMode) Function {
	fn := Function{Name: texGenHelperName(mode)}
	switch mode {
	case ffstate.TexGenObjectLinear:
		fn.Args = []Arg{{Name: "obj", Type: vec4Type}, {Name: "plane", Type: vec4Type}}
		fn.Result = "f32"
		fn.Body = []string{"return dot(obj, plane);"}
	case ffstate.TexGenEyeLinear:
		fn.Args = []Arg{{Name: "eye", Type: vec4Type}, {Name: "plane", Type: vec4Type}}
		fn.Result = "f32"
		fn.Body = []string{"return dot(eye, plane);"}
	case ffstate.TexGenSphereMap:
		fn.Args = []Arg{{Name: "eye", Type: vec4Type}, {Name: "n", Type: vec3Type}}
		fn.Result = vec4Type
		fn.Body = []string{
			"let r = reflect(normalize(eye.xyz), n);",
			"let m = 2.0 * sqrt(r.x * r.x + r.y * r.y + (r.z + 1.0) * (r.z + 1.0));",
			"return vec4<f32>(r.x / m + 0.5, r.y / m + 0.5, 0.0, 1.0);",
		}
	case ffstate.TexGenNormalMap:
		fn.Args = []Arg{{Name: "n", Type: vec3Type}}
		fn.Result = vec4Type
		fn.Body = []string{"return vec4<f32>(n, 1.0);"}
	case ffstate.TexGenReflectionMap:
		fn.Args = []Arg{{Name: "eye", Type: vec4Type}, {Name: "n", Type: vec3Type}}
		fn.Result = vec4Type
		fn.Body = []string{"return vec4<f32>(reflect(normalize(eye.xyz), n), 1.0);"}
	}
	return fn
}

// samplerDesc bakes a unit's filter and wrap modes into a sampler
// description.
func samplerDesc(unit int, uk *ffstate.UnitKey) device.SamplerDesc {
	minMode, mip := minFilter(uk.MinFilter)
	return device.SamplerDesc{
		Unit:         unit,
		Binding:      SamplerBinding(unit),
		MagFilter:    magFilter(uk.MagFilter),
		MinFilter:    minMode,
		MipmapFilter: mip,
		AddressModeU: addressMode(uk.WrapS),
		AddressModeV: addressMode(uk.WrapT),
	}
}

func magFilter(f ffstate.Filter) gputypes.FilterMode {
	if f == ffstate.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

func minFilter(f ffstate.Filter) (minMode, mip gputypes.FilterMode) {
	switch f {
	case ffstate.FilterNearest:
		return gputypes.FilterModeNearest, gputypes.FilterModeNearest
	case ffstate.FilterLinear:
		return gputypes.FilterModeLinear, gputypes.FilterModeNearest
	case ffstate.FilterNearestMipmapNearest:
		return gputypes.FilterModeNearest, gputypes.FilterModeNearest
	case ffstate.FilterLinearMipmapNearest:
		return gputypes.FilterModeLinear, gputypes.FilterModeNearest
	case ffstate.FilterNearestMipmapLinear:
		return gputypes.FilterModeNearest, gputypes.FilterModeLinear
	default:
		return gputypes.FilterModeLinear, gputypes.FilterModeLinear
	}
}

func addressMode(w ffstate.Wrap) gputypes.AddressMode {
	switch w {
	case ffstate.WrapClampToEdge:
		return gputypes.AddressModeClampToEdge
	case ffstate.WrapMirroredRepeat:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeRepeat
	}
}
