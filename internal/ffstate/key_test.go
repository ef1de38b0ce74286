package ffstate

import (
	"testing"

	"github.com/gogpu/gldirect/device"
	"golang.org/x/image/math/f32"
)

func caps(units int) device.Caps {
	return device.Caps{MaxShaderModel: device.ShaderModelWGSL, MaxTextureUnits: units}
}

func TestExtractDefaultIsZeroKey(t *testing.T) {
	s := Default()
	k := Extract(&s, caps(2))
	if k != (Key{}) {
		t.Errorf("default state key = %s, want all zero", k)
	}
}

func TestExtractIgnoresDisabledParts(t *testing.T) {
	s := Default()
	// Configure everything, enable nothing.
	s.Units[0].EnvMode = EnvDecal
	s.Units[0].TexGen[CoordS] = TexGen{Enabled: true, Mode: TexGenSphereMap}
	s.Lighting.TwoSided = true
	s.Lighting.Lights[3].Enabled = true
	s.Fog.Mode = FogExp2

	if k := Extract(&s, caps(2)); k != (Key{}) {
		t.Errorf("disabled state produced key %s", k)
	}
}

func TestExtractUnitsBeyondCaps(t *testing.T) {
	s := Default()
	s.Units[0].Enabled = true
	s.Units[1].Enabled = true

	k := Extract(&s, caps(1))
	if !k.Units[0].Enabled {
		t.Error("unit 0 missing")
	}
	if k.Units[1] != (UnitKey{}) {
		t.Errorf("unit 1 beyond caps contributed %+v", k.Units[1])
	}
}

func TestExtractEqualStatesEqualKeys(t *testing.T) {
	build := func() State {
		s := Default()
		s.Units[0].Enabled = true
		s.Units[0].TexGen[CoordS] = TexGen{Enabled: true, Mode: TexGenObjectLinear}
		s.Lighting.Enabled = true
		s.Lighting.Lights[0].Enabled = true
		s.Fog.Enabled = true
		return s
	}
	a, b := build(), build()
	// Non-shading values differ.
	b.Units[0].EnvColor = f32.Vec4{1, 0, 0, 1}
	b.Lighting.Lights[0].Diffuse = f32.Vec4{0, 1, 0, 1}
	b.Fog.Density = 0.5

	ka, kb := Extract(&a, caps(2)), Extract(&b, caps(2))
	if ka != kb {
		t.Fatalf("keys differ: %s vs %s", ka, kb)
	}
	if ka.Bytes() != kb.Bytes() || ka.Hash() != kb.Hash() {
		t.Error("equal keys encode differently")
	}

	b.Units[0].WrapS = WrapClampToEdge
	if Extract(&b, caps(2)) == ka {
		t.Error("wrap mode change did not change the key")
	}
}

func TestLightKind(t *testing.T) {
	tests := []struct {
		name  string
		light Light
		want  LightKind
	}{
		{"disabled", Light{Position: f32.Vec4{0, 0, 1, 1}}, LightNone},
		{"directional", Light{Enabled: true, Position: f32.Vec4{0, 0, 1, 0}, SpotCutoff: 180}, LightDirectional},
		{"point", Light{Enabled: true, Position: f32.Vec4{0, 0, 1, 1}, SpotCutoff: 180}, LightPoint},
		{"spot", Light{Enabled: true, Position: f32.Vec4{0, 0, 1, 1}, SpotCutoff: 30}, LightSpot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.light.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyDerivedQueries(t *testing.T) {
	var k Key
	if k.NeedsEye() || k.NeedsNormal() {
		t.Error("empty key needs eye or normal")
	}

	k.Units[0].Enabled = true
	k.Units[0].TexGen[CoordS] = TexGenObjectLinear
	k.Units[0].TexGen[CoordT] = TexGenObjectLinear
	if k.NeedsEye() || k.NeedsNormal() {
		t.Error("object-linear texgen needs eye or normal")
	}
	if got := k.TexGenModes(); len(got) != 1 || got[0] != TexGenObjectLinear {
		t.Errorf("TexGenModes() = %v", got)
	}

	k.Units[1].TexGen[CoordS] = TexGenNormalMap
	if k.NeedsEye() || !k.NeedsNormal() {
		t.Error("normal-map texgen: want normal only")
	}

	k.Lighting = true
	k.Lights[0] = LightPoint
	k.Lights[5] = LightDirectional
	k.Lights[6] = LightPoint
	got := k.LightKinds()
	if len(got) != 2 || got[0] != LightDirectional || got[1] != LightPoint {
		t.Errorf("LightKinds() = %v", got)
	}
}

func TestExtractInvalidEnumPanics(t *testing.T) {
	tests := []struct {
		name  string
		apply func(s *State)
	}{
		{"fog mode", func(s *State) {
			s.Fog.Enabled = true
			s.Fog.Mode = FogMode(17)
		}},
		{"min filter", func(s *State) {
			s.Units[0].Enabled = true
			s.Units[0].MinFilter = numFilters
		}},
		{"mag filter", func(s *State) {
			s.Units[0].Enabled = true
			s.Units[0].MagFilter = Filter(200)
		}},
		{"wrap", func(s *State) {
			s.Units[1].Enabled = true
			s.Units[1].WrapT = numWraps
		}},
		{"env mode", func(s *State) {
			s.Units[0].Enabled = true
			s.Units[0].EnvMode = numEnvModes
		}},
		{"texgen mode", func(s *State) {
			s.Units[0].Enabled = true
			s.Units[0].TexGen[CoordT] = TexGen{Enabled: true, Mode: numTexGenModes}
		}},
		{"color material", func(s *State) {
			s.Lighting.Enabled = true
			s.Lighting.ColorMaterialEnabled = true
			s.Lighting.ColorMaterial = numColorMaterials
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.apply(&s)
			defer func() {
				if recover() == nil {
					t.Errorf("invalid %s did not panic", tt.name)
				}
			}()
			Extract(&s, caps(2))
		})
	}
}

func TestExtractAcceptsLastEnumValues(t *testing.T) {
	s := Default()
	s.Units[0].Enabled = true
	s.Units[0].MinFilter = numFilters - 1
	s.Units[0].WrapS = numWraps - 1
	s.Units[0].EnvMode = numEnvModes - 1
	s.Fog.Enabled = true
	s.Fog.Mode = numFogModes - 1
	k := Extract(&s, caps(2))
	if k.Units[0].MinFilter != numFilters-1 || k.FogMode != numFogModes-1 {
		t.Errorf("Extract dropped valid values: %+v", k)
	}
}

func TestKeySize(t *testing.T) {
	var k Key
	if got := len(k.Bytes()); got != KeySize {
		t.Errorf("len(Bytes()) = %d, want %d", got, KeySize)
	}
	k.ShadeFlat = true
	b := k.Bytes()
	if b[KeySize-1] != 1 {
		t.Error("ShadeFlat is not the last byte")
	}
}
