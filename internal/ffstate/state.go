// Package ffstate holds fixed-function shading state and reduces it to the
// byte-comparable key that selects a generated program.
package ffstate

import (
	"fmt"

	"github.com/gogpu/gldirect/device"
	"golang.org/x/image/math/f32"
)

// Limits.
const (
	// MaxTextureUnits is the number of texture units tracked.
	MaxTextureUnits = 2
	// MaxLights is the number of lights tracked.
	MaxLights = 8
	// NumCoords is the number of texture coordinates (S, T, R, Q).
	NumCoords = 4
)

// Texture coordinate indices.
const (
	CoordS = iota
	CoordT
	CoordR
	CoordQ
)

// EnvMode is a texture environment mode.
type EnvMode uint8

const (
	EnvModulate EnvMode = iota
	EnvReplace
	EnvDecal
	EnvBlend
	EnvAdd

	numEnvModes
)

var envModeNames = [...]string{
	EnvModulate: "Modulate",
	EnvReplace:  "Replace",
	EnvDecal:    "Decal",
	EnvBlend:    "Blend",
	EnvAdd:      "Add",
}

// String returns the string representation of the mode.
func (m EnvMode) String() string {
	if m < numEnvModes {
		return envModeNames[m]
	}
	return fmt.Sprintf("EnvMode(%d)", uint8(m))
}

// TexGenMode is a texture coordinate generation mode. TexGenOff leaves the
// coordinate as emitted.
type TexGenMode uint8

const (
	TexGenOff TexGenMode = iota
	TexGenObjectLinear
	TexGenEyeLinear
	TexGenSphereMap
	TexGenNormalMap
	TexGenReflectionMap

	numTexGenModes
)

var texGenModeNames = [...]string{
	TexGenOff:           "Off",
	TexGenObjectLinear:  "ObjectLinear",
	TexGenEyeLinear:     "EyeLinear",
	TexGenSphereMap:     "SphereMap",
	TexGenNormalMap:     "NormalMap",
	TexGenReflectionMap: "ReflectionMap",
}

// String returns the string representation of the mode.
func (m TexGenMode) String() string {
	if m < numTexGenModes {
		return texGenModeNames[m]
	}
	return fmt.Sprintf("TexGenMode(%d)", uint8(m))
}

// NeedsEye reports whether the mode reads the eye-space position.
func (m TexGenMode) NeedsEye() bool {
	return m == TexGenEyeLinear || m == TexGenSphereMap || m == TexGenReflectionMap
}

// NeedsNormal reports whether the mode reads the eye-space normal.
func (m TexGenMode) NeedsNormal() bool {
	return m == TexGenSphereMap || m == TexGenNormalMap || m == TexGenReflectionMap
}

// Filter is a texture filter.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
	FilterNearestMipmapNearest
	FilterLinearMipmapNearest
	FilterNearestMipmapLinear
	FilterLinearMipmapLinear

	numFilters
)

var filterNames = [...]string{
	FilterNearest:              "Nearest",
	FilterLinear:               "Linear",
	FilterNearestMipmapNearest: "NearestMipmapNearest",
	FilterLinearMipmapNearest:  "LinearMipmapNearest",
	FilterNearestMipmapLinear:  "NearestMipmapLinear",
	FilterLinearMipmapLinear:   "LinearMipmapLinear",
}

// String returns the string representation of the filter.
func (f Filter) String() string {
	if f < numFilters {
		return filterNames[f]
	}
	return fmt.Sprintf("Filter(%d)", uint8(f))
}

// Wrap is a texture wrap mode.
type Wrap uint8

const (
	WrapRepeat Wrap = iota
	WrapClampToEdge
	WrapMirroredRepeat

	numWraps
)

var wrapNames = [...]string{
	WrapRepeat:         "Repeat",
	WrapClampToEdge:    "ClampToEdge",
	WrapMirroredRepeat: "MirroredRepeat",
}

// String returns the string representation of the wrap mode.
func (w Wrap) String() string {
	if w < numWraps {
		return wrapNames[w]
	}
	return fmt.Sprintf("Wrap(%d)", uint8(w))
}

// LightKind is the shape of a light source, derived from its parameters.
type LightKind uint8

const (
	LightNone LightKind = iota
	LightDirectional
	LightPoint
	LightSpot

	numLightKinds
)

var lightKindNames = [...]string{
	LightNone:        "None",
	LightDirectional: "Directional",
	LightPoint:       "Point",
	LightSpot:        "Spot",
}

// String returns the string representation of the kind.
func (k LightKind) String() string {
	if k < numLightKinds {
		return lightKindNames[k]
	}
	return fmt.Sprintf("LightKind(%d)", uint8(k))
}

// ColorMaterial selects which material colors track the vertex color.
type ColorMaterial uint8

const (
	ColorMaterialNone ColorMaterial = iota
	ColorMaterialAmbient
	ColorMaterialDiffuse
	ColorMaterialAmbientAndDiffuse
	ColorMaterialEmission
	ColorMaterialSpecular

	numColorMaterials
)

var colorMaterialNames = [...]string{
	ColorMaterialNone:              "None",
	ColorMaterialAmbient:           "Ambient",
	ColorMaterialDiffuse:           "Diffuse",
	ColorMaterialAmbientAndDiffuse: "AmbientAndDiffuse",
	ColorMaterialEmission:          "Emission",
	ColorMaterialSpecular:          "Specular",
}

// String returns the string representation of the mode.
func (c ColorMaterial) String() string {
	if c < numColorMaterials {
		return colorMaterialNames[c]
	}
	return fmt.Sprintf("ColorMaterial(%d)", uint8(c))
}

// FogMode is a fog equation.
type FogMode uint8

const (
	FogLinear FogMode = iota
	FogExp
	FogExp2

	numFogModes
)

var fogModeNames = [...]string{
	FogLinear: "Linear",
	FogExp:    "Exp",
	FogExp2:   "Exp2",
}

// String returns the string representation of the mode.
func (m FogMode) String() string {
	if m < numFogModes {
		return fogModeNames[m]
	}
	return fmt.Sprintf("FogMode(%d)", uint8(m))
}

// TexGen configures generation of one texture coordinate.
type TexGen struct {
	Enabled     bool
	Mode        TexGenMode
	ObjectPlane f32.Vec4
	// EyePlane is stored already transformed by the inverse modelview
	// current when it was set.
	EyePlane f32.Vec4
}

// TextureUnit is the state of one texture unit.
type TextureUnit struct {
	Enabled bool
	Texture device.TextureID

	MinFilter Filter
	MagFilter Filter
	WrapS     Wrap
	WrapT     Wrap

	EnvMode  EnvMode
	EnvColor f32.Vec4

	TexGen [NumCoords]TexGen
	Matrix f32.Mat4
}

// Light is one light source. Position and SpotDirection are in eye space.
type Light struct {
	Enabled bool

	Ambient  f32.Vec4
	Diffuse  f32.Vec4
	Specular f32.Vec4
	Position f32.Vec4

	SpotDirection f32.Vec4
	SpotExponent  float32
	SpotCutoff    float32

	ConstantAttenuation  float32
	LinearAttenuation    float32
	QuadraticAttenuation float32
}

// Kind derives the light's shape. A zero w component makes it directional;
// a cutoff other than 180 degrees makes a positional light a spot.
func (l *Light) Kind() LightKind {
	if !l.Enabled {
		return LightNone
	}
	if l.Position[3] == 0 {
		return LightDirectional
	}
	if l.SpotCutoff != 180 {
		return LightSpot
	}
	return LightPoint
}

// Material is the reflectance of one face.
type Material struct {
	Ambient   f32.Vec4
	Diffuse   f32.Vec4
	Specular  f32.Vec4
	Emission  f32.Vec4
	Shininess float32
}

// Lighting is the lighting state.
type Lighting struct {
	Enabled  bool
	TwoSided bool

	ColorMaterialEnabled bool
	ColorMaterial        ColorMaterial

	// Ambient is the scene ambient color.
	Ambient f32.Vec4

	Lights [MaxLights]Light
	Front  Material
	Back   Material
}

// Fog is the fog state.
type Fog struct {
	Enabled bool
	Mode    FogMode
	Color   f32.Vec4
	Density float32
	Start   float32
	End     float32
}

// State is the shading-relevant fixed-function state.
type State struct {
	Units     [MaxTextureUnits]TextureUnit
	Lighting  Lighting
	Fog       Fog
	ShadeFlat bool

	ModelView  f32.Mat4
	Projection f32.Mat4
}

// Default returns the initial fixed-function state.
func Default() State {
	var s State
	s.ModelView = Identity()
	s.Projection = Identity()

	for i := range s.Units {
		u := &s.Units[i]
		u.MinFilter = FilterNearestMipmapLinear
		u.MagFilter = FilterLinear
		u.WrapS = WrapRepeat
		u.WrapT = WrapRepeat
		u.EnvMode = EnvModulate
		u.Matrix = Identity()
		for c := range u.TexGen {
			u.TexGen[c].Mode = TexGenEyeLinear
		}
		u.TexGen[CoordS].ObjectPlane = f32.Vec4{1, 0, 0, 0}
		u.TexGen[CoordS].EyePlane = f32.Vec4{1, 0, 0, 0}
		u.TexGen[CoordT].ObjectPlane = f32.Vec4{0, 1, 0, 0}
		u.TexGen[CoordT].EyePlane = f32.Vec4{0, 1, 0, 0}
	}

	l := &s.Lighting
	l.ColorMaterial = ColorMaterialAmbientAndDiffuse
	l.Ambient = f32.Vec4{0.2, 0.2, 0.2, 1}
	for i := range l.Lights {
		lt := &l.Lights[i]
		lt.Ambient = f32.Vec4{0, 0, 0, 1}
		lt.Position = f32.Vec4{0, 0, 1, 0}
		lt.SpotDirection = f32.Vec4{0, 0, -1, 0}
		lt.SpotCutoff = 180
		lt.ConstantAttenuation = 1
		if i == 0 {
			lt.Diffuse = f32.Vec4{1, 1, 1, 1}
			lt.Specular = f32.Vec4{1, 1, 1, 1}
		} else {
			lt.Diffuse = f32.Vec4{0, 0, 0, 1}
			lt.Specular = f32.Vec4{0, 0, 0, 1}
		}
	}
	l.Front = defaultMaterial()
	l.Back = defaultMaterial()

	s.Fog = Fog{
		Mode:    FogExp,
		Density: 1,
		Start:   0,
		End:     1,
	}
	return s
}

func defaultMaterial() Material {
	return Material{
		Ambient:  f32.Vec4{0.2, 0.2, 0.2, 1},
		Diffuse:  f32.Vec4{0.8, 0.8, 0.8, 1},
		Specular: f32.Vec4{0, 0, 0, 1},
		Emission: f32.Vec4{0, 0, 0, 1},
	}
}
