package gldirect

import (
	"fmt"

	"github.com/gogpu/gldirect/internal/ffstate"
	"github.com/gogpu/gldirect/internal/primitive"
)

// Enumerant values match GL so a front end can pass them through
// unchanged. Values the Context does not know are rejected with
// InvalidEnum.

// Mode is a primitive type for Begin, DrawArrays and DrawElements.
type Mode uint32

const (
	Points        Mode = 0x0000
	Lines         Mode = 0x0001
	LineLoop      Mode = 0x0002
	LineStrip     Mode = 0x0003
	Triangles     Mode = 0x0004
	TriangleStrip Mode = 0x0005
	TriangleFan   Mode = 0x0006
	Quads         Mode = 0x0007
	QuadStrip     Mode = 0x0008
	Polygon       Mode = 0x0009
)

func (m Mode) primitive() (primitive.Type, bool) {
	t := primitive.Type(m)
	return t, m <= Polygon && t.Valid()
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	if t, ok := m.primitive(); ok {
		return t.String()
	}
	return unknownEnum(uint32(m))
}

// Cap is a capability for Enable and Disable.
type Cap uint32

const (
	CapLighting      Cap = 0x0B50
	CapColorMaterial Cap = 0x0B57
	CapFog           Cap = 0x0B60
	CapTexture2D     Cap = 0x0DE1
	CapTextureGenS   Cap = 0x0C60
	CapTextureGenT   Cap = 0x0C61
	CapTextureGenR   Cap = 0x0C62
	CapTextureGenQ   Cap = 0x0C63

	// CapLight0 is the first light. Light i is CapLight0 + i.
	CapLight0 Cap = 0x4000
)

// light returns the light index of a CapLight0+i value.
func (c Cap) light() (int, bool) {
	i := int(c) - int(CapLight0)
	return i, c >= CapLight0 && i < ffstate.MaxLights
}

// Shading is a shade model.
type Shading uint32

const (
	Flat   Shading = 0x1D00
	Smooth Shading = 0x1D01
)

// MatrixMode selects the matrix stack that matrix operations apply to.
type MatrixMode uint32

const (
	ModelView  MatrixMode = 0x1700
	Projection MatrixMode = 0x1701
	Texture    MatrixMode = 0x1702
)

// EnvMode is a texture environment mode.
type EnvMode uint32

const (
	Add      EnvMode = 0x0104
	Blend    EnvMode = 0x0BE2
	Replace  EnvMode = 0x1E01
	Modulate EnvMode = 0x2100
	Decal    EnvMode = 0x2101
)

var envModes = map[EnvMode]ffstate.EnvMode{
	Add:      ffstate.EnvAdd,
	Blend:    ffstate.EnvBlend,
	Replace:  ffstate.EnvReplace,
	Modulate: ffstate.EnvModulate,
	Decal:    ffstate.EnvDecal,
}

// Coord is a texture coordinate for texture generation.
type Coord uint32

const (
	CoordS Coord = 0x2000
	CoordT Coord = 0x2001
	CoordR Coord = 0x2002
	CoordQ Coord = 0x2003
)

func (c Coord) index() (int, bool) {
	i := int(c) - int(CoordS)
	return i, c >= CoordS && i < ffstate.NumCoords
}

// TexGenMode is a texture coordinate generation mode.
type TexGenMode uint32

const (
	EyeLinear     TexGenMode = 0x2400
	ObjectLinear  TexGenMode = 0x2401
	SphereMap     TexGenMode = 0x2402
	NormalMap     TexGenMode = 0x8511
	ReflectionMap TexGenMode = 0x8512
)

var texGenModes = map[TexGenMode]ffstate.TexGenMode{
	EyeLinear:     ffstate.TexGenEyeLinear,
	ObjectLinear:  ffstate.TexGenObjectLinear,
	SphereMap:     ffstate.TexGenSphereMap,
	NormalMap:     ffstate.TexGenNormalMap,
	ReflectionMap: ffstate.TexGenReflectionMap,
}

// Plane selects the object or eye plane of a generated coordinate.
type Plane uint32

const (
	ObjectPlane Plane = 0x2501
	EyePlane    Plane = 0x2502
)

// FogMode is a fog equation.
type FogMode uint32

const (
	FogExp    FogMode = 0x0800
	FogExp2   FogMode = 0x0801
	FogLinear FogMode = 0x2601
)

var fogModes = map[FogMode]ffstate.FogMode{
	FogExp:    ffstate.FogExp,
	FogExp2:   ffstate.FogExp2,
	FogLinear: ffstate.FogLinear,
}

// Filter is a texture filter.
type Filter uint32

const (
	Nearest              Filter = 0x2600
	Linear               Filter = 0x2601
	NearestMipmapNearest Filter = 0x2700
	LinearMipmapNearest  Filter = 0x2701
	NearestMipmapLinear  Filter = 0x2702
	LinearMipmapLinear   Filter = 0x2703
)

var filters = map[Filter]ffstate.Filter{
	Nearest:              ffstate.FilterNearest,
	Linear:               ffstate.FilterLinear,
	NearestMipmapNearest: ffstate.FilterNearestMipmapNearest,
	LinearMipmapNearest:  ffstate.FilterLinearMipmapNearest,
	NearestMipmapLinear:  ffstate.FilterNearestMipmapLinear,
	LinearMipmapLinear:   ffstate.FilterLinearMipmapLinear,
}

// Wrap is a texture wrap mode.
type Wrap uint32

const (
	Repeat         Wrap = 0x2901
	ClampToEdge    Wrap = 0x812F
	MirroredRepeat Wrap = 0x8370
)

var wraps = map[Wrap]ffstate.Wrap{
	Repeat:         ffstate.WrapRepeat,
	ClampToEdge:    ffstate.WrapClampToEdge,
	MirroredRepeat: ffstate.WrapMirroredRepeat,
}

// Face selects front, back or both material faces.
type Face uint32

const (
	Front        Face = 0x0404
	Back         Face = 0x0405
	FrontAndBack Face = 0x0408
)

// Param names a light or material parameter, or a color material mode.
type Param uint32

const (
	Ambient              Param = 0x1200
	Diffuse              Param = 0x1201
	Specular             Param = 0x1202
	Position             Param = 0x1203
	SpotDirection        Param = 0x1204
	SpotExponent         Param = 0x1205
	SpotCutoff           Param = 0x1206
	ConstantAttenuation  Param = 0x1207
	LinearAttenuation    Param = 0x1208
	QuadraticAttenuation Param = 0x1209
	Emission             Param = 0x1600
	Shininess            Param = 0x1601
	AmbientAndDiffuse    Param = 0x1602
)

var colorMaterials = map[Param]ffstate.ColorMaterial{
	Ambient:           ffstate.ColorMaterialAmbient,
	Diffuse:           ffstate.ColorMaterialDiffuse,
	Specular:          ffstate.ColorMaterialSpecular,
	Emission:          ffstate.ColorMaterialEmission,
	AmbientAndDiffuse: ffstate.ColorMaterialAmbientAndDiffuse,
}

// ClientState is a client-side vertex array.
type ClientState uint32

const (
	VertexArray       ClientState = 0x8074
	NormalArray       ClientState = 0x8075
	ColorArray        ClientState = 0x8076
	TextureCoordArray ClientState = 0x8078
)

// ListMode selects how NewList treats the commands it records.
type ListMode uint32

const (
	// Compile records commands without executing them.
	Compile ListMode = 0x1300
	// CompileAndExecute records commands and executes them as they are
	// recorded.
	CompileAndExecute ListMode = 0x1301
)

// TextureParams are the sampling parameters of a bound texture. They are
// baked into the generated program, so changing them selects a different
// program.
type TextureParams struct {
	MinFilter Filter
	MagFilter Filter
	WrapS     Wrap
	WrapT     Wrap
}

// DefaultTextureParams returns the GL initial texture parameters.
func DefaultTextureParams() TextureParams {
	return TextureParams{
		MinFilter: NearestMipmapLinear,
		MagFilter: Linear,
		WrapS:     Repeat,
		WrapT:     Repeat,
	}
}

func unknownEnum(v uint32) string {
	return fmt.Sprintf("Enum(0x%04x)", v)
}
