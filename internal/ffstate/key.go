package ffstate

import (
	"encoding/hex"
	"fmt"
	"hash/fnv"

	"github.com/gogpu/gldirect/device"
)

// UnitKey is the shading-relevant part of one texture unit. A disabled
// unit is all zero.
type UnitKey struct {
	Enabled   bool
	MinFilter Filter
	MagFilter Filter
	WrapS     Wrap
	WrapT     Wrap
	EnvMode   EnvMode
	// TexGen holds the generation mode per coordinate, TexGenOff when the
	// coordinate passes through.
	TexGen [NumCoords]TexGenMode
}

// Key selects a generated program. Every field is one byte wide, so Go
// equality on Key is byte-for-byte equality of Bytes.
type Key struct {
	Units [MaxTextureUnits]UnitKey

	Lighting      bool
	TwoSided      bool
	ColorMaterial ColorMaterial
	Lights        [MaxLights]LightKind

	FogEnabled bool
	FogMode    FogMode

	ShadeFlat bool
}

const unitKeySize = 6 + NumCoords

// KeySize is the length of Key.Bytes.
const KeySize = MaxTextureUnits*unitKeySize + 3 + MaxLights + 2 + 1

// Bytes returns the canonical encoding of the key.
func (k Key) Bytes() [KeySize]byte {
	var b [KeySize]byte
	i := 0
	put := func(v uint8) {
		b[i] = v
		i++
	}
	for _, u := range k.Units {
		put(boolByte(u.Enabled))
		put(uint8(u.MinFilter))
		put(uint8(u.MagFilter))
		put(uint8(u.WrapS))
		put(uint8(u.WrapT))
		put(uint8(u.EnvMode))
		for _, g := range u.TexGen {
			put(uint8(g))
		}
	}
	put(boolByte(k.Lighting))
	put(boolByte(k.TwoSided))
	put(uint8(k.ColorMaterial))
	for _, l := range k.Lights {
		put(uint8(l))
	}
	put(boolByte(k.FogEnabled))
	put(uint8(k.FogMode))
	put(boolByte(k.ShadeFlat))
	return b
}

// Hash returns the FNV-1a digest of Bytes. It is meant for logs and labels;
// lookups compare keys directly.
func (k Key) Hash() uint64 {
	h := fnv.New64a()
	b := k.Bytes()
	_, _ = h.Write(b[:])
	return h.Sum64()
}

// String returns the key bytes in hex.
func (k Key) String() string {
	b := k.Bytes()
	return hex.EncodeToString(b[:])
}

// Label returns a short debug label for programs built from the key.
func (k Key) Label() string {
	return fmt.Sprintf("ffp-%016x", k.Hash())
}

// UnitEnabled reports whether unit i takes part in shading.
func (k *Key) UnitEnabled(i int) bool { return k.Units[i].Enabled }

// NeedsEye reports whether the program needs the eye-space position.
func (k *Key) NeedsEye() bool {
	if k.Lighting || k.FogEnabled {
		return true
	}
	for i := range k.Units {
		for _, g := range k.Units[i].TexGen {
			if g.NeedsEye() {
				return true
			}
		}
	}
	return false
}

// NeedsNormal reports whether the program needs the eye-space normal.
func (k *Key) NeedsNormal() bool {
	if k.Lighting {
		return true
	}
	for i := range k.Units {
		for _, g := range k.Units[i].TexGen {
			if g.NeedsNormal() {
				return true
			}
		}
	}
	return false
}

// LightKinds returns the distinct light kinds in use, in kind order.
func (k *Key) LightKinds() []LightKind {
	var seen [numLightKinds]bool
	for _, l := range k.Lights {
		seen[l] = true
	}
	var out []LightKind
	for kind := LightDirectional; kind < numLightKinds; kind++ {
		if seen[kind] {
			out = append(out, kind)
		}
	}
	return out
}

// TexGenModes returns the distinct generation modes in use, in mode order.
func (k *Key) TexGenModes() []TexGenMode {
	var seen [numTexGenModes]bool
	for i := range k.Units {
		for _, g := range k.Units[i].TexGen {
			seen[g] = true
		}
	}
	var out []TexGenMode
	for m := TexGenObjectLinear; m < numTexGenModes; m++ {
		if seen[m] {
			out = append(out, m)
		}
	}
	return out
}

// Extract builds the key for s from scratch. Units beyond
// caps.MaxTextureUnits are ignored, and disabled units, lights and fog
// leave their fields zero.
//
// Enum values outside their defined range are a caller bug and panic.
func Extract(s *State, caps device.Caps) Key {
	var k Key

	units := min(caps.MaxTextureUnits, MaxTextureUnits)
	for i := 0; i < units; i++ {
		u := &s.Units[i]
		if !u.Enabled {
			continue
		}
		checkEnum("filter", u.MinFilter, numFilters)
		checkEnum("filter", u.MagFilter, numFilters)
		checkEnum("wrap", u.WrapS, numWraps)
		checkEnum("wrap", u.WrapT, numWraps)
		checkEnum("env mode", u.EnvMode, numEnvModes)

		uk := &k.Units[i]
		uk.Enabled = true
		uk.MinFilter = u.MinFilter
		uk.MagFilter = u.MagFilter
		uk.WrapS = u.WrapS
		uk.WrapT = u.WrapT
		uk.EnvMode = u.EnvMode
		for c := range u.TexGen {
			g := &u.TexGen[c]
			if !g.Enabled {
				continue
			}
			checkEnum("texgen mode", g.Mode, numTexGenModes)
			uk.TexGen[c] = g.Mode
		}
	}

	if l := &s.Lighting; l.Enabled {
		k.Lighting = true
		k.TwoSided = l.TwoSided
		if l.ColorMaterialEnabled {
			checkEnum("color material", l.ColorMaterial, numColorMaterials)
			k.ColorMaterial = l.ColorMaterial
		}
		for i := range l.Lights {
			k.Lights[i] = l.Lights[i].Kind()
		}
	}

	if s.Fog.Enabled {
		checkEnum("fog mode", s.Fog.Mode, numFogModes)
		k.FogEnabled = true
		k.FogMode = s.Fog.Mode
	}

	k.ShadeFlat = s.ShadeFlat
	return k
}

func checkEnum[T ~uint8](what string, v, limit T) {
	if v >= limit {
		panic(fmt.Sprintf("ffstate: invalid %s %d", what, v))
	}
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
