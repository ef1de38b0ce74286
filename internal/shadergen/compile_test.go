package shadergen

import (
	"testing"

	"github.com/gogpu/gldirect/internal/ffstate"
	"github.com/gogpu/naga"
)

func unitKey(env ffstate.EnvMode, gen ...ffstate.TexGenMode) ffstate.UnitKey {
	u := ffstate.UnitKey{
		Enabled:   true,
		MinFilter: ffstate.FilterLinear,
		MagFilter: ffstate.FilterLinear,
		EnvMode:   env,
	}
	copy(u.TexGen[:], gen)
	return u
}

func textured(env ffstate.EnvMode) func() ffstate.Key {
	return func() ffstate.Key {
		var k ffstate.Key
		k.Units[0] = unitKey(env)
		return k
	}
}

func lit(kinds ...ffstate.LightKind) ffstate.Key {
	var k ffstate.Key
	k.Lighting = true
	for i, kind := range kinds {
		k.Lights[i] = kind
	}
	return k
}

func TestGeneratedProgramsCompile(t *testing.T) {
	tests := []struct {
		name string
		key  func() ffstate.Key
	}{
		{"unlit", func() ffstate.Key { return ffstate.Key{} }},
		{"flat", func() ffstate.Key { return ffstate.Key{ShadeFlat: true} }},
		{"directional", func() ffstate.Key { return lit(ffstate.LightDirectional) }},
		{"point", func() ffstate.Key { return lit(ffstate.LightPoint) }},
		{"spot", func() ffstate.Key { return lit(ffstate.LightSpot) }},
		{"all light kinds", func() ffstate.Key {
			return lit(ffstate.LightDirectional, ffstate.LightPoint, ffstate.LightSpot, ffstate.LightNone, ffstate.LightPoint)
		}},
		{"two sided", func() ffstate.Key {
			k := lit(ffstate.LightPoint)
			k.TwoSided = true
			return k
		}},
		{"color material diffuse", func() ffstate.Key {
			k := lit(ffstate.LightDirectional)
			k.ColorMaterial = ffstate.ColorMaterialDiffuse
			return k
		}},
		{"color material emission", func() ffstate.Key {
			k := lit(ffstate.LightSpot)
			k.ColorMaterial = ffstate.ColorMaterialEmission
			return k
		}},
		{"color material specular", func() ffstate.Key {
			k := lit(ffstate.LightPoint)
			k.ColorMaterial = ffstate.ColorMaterialSpecular
			return k
		}},
		{"env modulate", textured(ffstate.EnvModulate)},
		{"env replace", textured(ffstate.EnvReplace)},
		{"env decal", textured(ffstate.EnvDecal)},
		{"env blend", textured(ffstate.EnvBlend)},
		{"env add", textured(ffstate.EnvAdd)},
		{"texgen object and eye linear", func() ffstate.Key {
			var k ffstate.Key
			k.Units[0] = unitKey(ffstate.EnvModulate,
				ffstate.TexGenObjectLinear, ffstate.TexGenEyeLinear, ffstate.TexGenObjectLinear, ffstate.TexGenEyeLinear)
			return k
		}},
		{"texgen sphere map", func() ffstate.Key {
			var k ffstate.Key
			k.Units[0] = unitKey(ffstate.EnvModulate, ffstate.TexGenSphereMap, ffstate.TexGenSphereMap)
			return k
		}},
		{"texgen normal and reflection map", func() ffstate.Key {
			var k ffstate.Key
			k.Units[0] = unitKey(ffstate.EnvModulate,
				ffstate.TexGenNormalMap, ffstate.TexGenNormalMap, ffstate.TexGenNormalMap)
			k.Units[1] = unitKey(ffstate.EnvAdd,
				ffstate.TexGenReflectionMap, ffstate.TexGenReflectionMap, ffstate.TexGenReflectionMap)
			return k
		}},
		{"fog linear", func() ffstate.Key { return ffstate.Key{FogEnabled: true, FogMode: ffstate.FogLinear} }},
		{"fog exp", func() ffstate.Key { return ffstate.Key{FogEnabled: true, FogMode: ffstate.FogExp} }},
		{"fog exp2", func() ffstate.Key { return ffstate.Key{FogEnabled: true, FogMode: ffstate.FogExp2} }},
		{"everything", litKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := Render(Generate(tt.key()))
			if _, err := naga.Compile(src); err != nil {
				t.Fatalf("naga rejected the program: %v\n%s", err, src)
			}
		})
	}
}

func TestDefaultProgramCompiles(t *testing.T) {
	src := Render(Default())
	if _, err := naga.Compile(src); err != nil {
		t.Fatalf("naga rejected the default program: %v\n%s", err, src)
	}
}
