package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/gldirect/internal/ffstate"
)

// stateFile is the TOML description of the shading state to compile.
// Enum values are spelled as the ffstate String methods print them and
// compared case-insensitively.
type stateFile struct {
	Flat     bool
	Lighting lightingConfig
	Fog      fogConfig
	Units    []unitConfig
}

type lightingConfig struct {
	Enabled       bool
	TwoSided      bool
	ColorMaterial string
	Lights        []lightConfig
}

type lightConfig struct {
	Index      int
	Position   [4]float32
	SpotCutoff float32
}

type fogConfig struct {
	Enabled bool
	Mode    string
}

type unitConfig struct {
	Enabled   bool
	Env       string
	MinFilter string
	MagFilter string
	WrapS     string
	WrapT     string
	// TexGen holds one mode per coordinate S, T, R, Q; empty leaves the
	// coordinate as emitted.
	TexGen []string
}

func exampleState() stateFile {
	return stateFile{
		Lighting: lightingConfig{
			Enabled:       true,
			ColorMaterial: "AmbientAndDiffuse",
			Lights: []lightConfig{
				{Index: 0, Position: [4]float32{0, 0, 1, 0}, SpotCutoff: 180},
			},
		},
		Fog: fogConfig{Enabled: true, Mode: "Linear"},
		Units: []unitConfig{
			{
				Enabled:   true,
				Env:       "Modulate",
				MinFilter: "LinearMipmapLinear",
				MagFilter: "Linear",
				WrapS:     "Repeat",
				WrapT:     "ClampToEdge",
				TexGen:    []string{"SphereMap", "SphereMap"},
			},
		},
	}
}

func decodeState(data string) (stateFile, error) {
	var sf stateFile
	md, err := toml.Decode(data, &sf)
	if err != nil {
		return sf, fmt.Errorf("decode state: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return sf, fmt.Errorf("unknown state key %q", undec[0].String())
	}
	return sf, nil
}

// enumValue is implemented by the ffstate enums.
type enumValue interface {
	~uint8
	String() string
}

// parseEnum matches name against the names of the first 32 values of T.
// An empty name yields def.
func parseEnum[T enumValue](kind, name string, def T) (T, error) {
	if name == "" {
		return def, nil
	}
	for i := range 32 {
		v := T(i)
		if strings.EqualFold(v.String(), name) {
			return v, nil
		}
	}
	return def, fmt.Errorf("unknown %s %q", kind, name)
}

// build applies the description on top of the default state.
func (sf *stateFile) build() (ffstate.State, error) {
	s := ffstate.Default()
	s.ShadeFlat = sf.Flat

	l := &s.Lighting
	l.Enabled = sf.Lighting.Enabled
	l.TwoSided = sf.Lighting.TwoSided
	if sf.Lighting.ColorMaterial != "" {
		cm, err := parseEnum("color material", sf.Lighting.ColorMaterial, l.ColorMaterial)
		if err != nil {
			return s, err
		}
		l.ColorMaterialEnabled = cm != ffstate.ColorMaterialNone
		l.ColorMaterial = cm
	}
	for _, lc := range sf.Lighting.Lights {
		if lc.Index < 0 || lc.Index >= ffstate.MaxLights {
			return s, fmt.Errorf("light index %d out of range", lc.Index)
		}
		lt := &l.Lights[lc.Index]
		lt.Enabled = true
		lt.Position = lc.Position
		if lc.SpotCutoff != 0 {
			lt.SpotCutoff = lc.SpotCutoff
		}
	}

	s.Fog.Enabled = sf.Fog.Enabled
	mode, err := parseEnum("fog mode", sf.Fog.Mode, s.Fog.Mode)
	if err != nil {
		return s, err
	}
	s.Fog.Mode = mode

	if len(sf.Units) > ffstate.MaxTextureUnits {
		return s, fmt.Errorf("%d texture units, at most %d", len(sf.Units), ffstate.MaxTextureUnits)
	}
	for i := range sf.Units {
		if err := sf.Units[i].apply(&s.Units[i]); err != nil {
			return s, fmt.Errorf("unit %d: %w", i, err)
		}
	}
	return s, nil
}

func (uc *unitConfig) apply(u *ffstate.TextureUnit) error {
	var err error
	u.Enabled = uc.Enabled
	if u.EnvMode, err = parseEnum("env mode", uc.Env, u.EnvMode); err != nil {
		return err
	}
	if u.MinFilter, err = parseEnum("filter", uc.MinFilter, u.MinFilter); err != nil {
		return err
	}
	if u.MagFilter, err = parseEnum("filter", uc.MagFilter, u.MagFilter); err != nil {
		return err
	}
	if u.WrapS, err = parseEnum("wrap", uc.WrapS, u.WrapS); err != nil {
		return err
	}
	if u.WrapT, err = parseEnum("wrap", uc.WrapT, u.WrapT); err != nil {
		return err
	}
	if len(uc.TexGen) > ffstate.NumCoords {
		return fmt.Errorf("%d texgen coordinates, at most %d", len(uc.TexGen), ffstate.NumCoords)
	}
	for c, name := range uc.TexGen {
		if name == "" {
			continue
		}
		m, err := parseEnum("texgen mode", name, ffstate.TexGenOff)
		if err != nil {
			return err
		}
		u.TexGen[c].Enabled = m != ffstate.TexGenOff
		u.TexGen[c].Mode = m
	}
	return nil
}
