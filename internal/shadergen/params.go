package shadergen

import (
	"fmt"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/ffstate"
)

// Param identifies a program parameter. Every generated program declares a
// subset of the catalogue; the parameter name is the uniform member (or
// texture variable) name in the generated source.
type Param uint16

// Global parameters.
const (
	ParamMVP Param = iota
	ParamModelView
	ParamNormalMatrix
	ParamSceneAmbient
	ParamFogColor
	ParamFogParams

	ParamFrontAmbient
	ParamFrontDiffuse
	ParamFrontSpecular
	ParamFrontEmission
	ParamFrontShininess

	ParamBackAmbient
	ParamBackDiffuse
	ParamBackSpecular
	ParamBackEmission
	ParamBackShininess

	paramLightBase
)

// Per-light fields, see LightParam.
const (
	LightAmbient = iota
	LightDiffuse
	LightSpecular
	LightPosition
	LightAttenuation
	LightSpotDirection
	LightSpot

	lightFields
)

// Per-unit fields, see UnitParam. Plane fields are followed by one entry
// per coordinate.
const (
	UnitTexture = iota
	UnitMatrix
	UnitEnvColor
	UnitObjectPlane
	UnitEyePlane = UnitObjectPlane + ffstate.NumCoords

	unitFields = UnitEyePlane + ffstate.NumCoords
)

const paramUnitBase = paramLightBase + ffstate.MaxLights*lightFields

// NumParams is the size of the parameter catalogue.
const NumParams = int(paramUnitBase) + ffstate.MaxTextureUnits*unitFields

// LightParam returns the parameter for field of light i.
func LightParam(i, field int) Param {
	return paramLightBase + Param(i*lightFields+field)
}

// UnitParam returns the parameter for field of texture unit u.
func UnitParam(u, field int) Param {
	return paramUnitBase + Param(u*unitFields+field)
}

// PlaneParam returns the object or eye plane parameter of coordinate c.
func PlaneParam(u int, mode ffstate.TexGenMode, c int) Param {
	if mode == ffstate.TexGenObjectLinear {
		return UnitParam(u, UnitObjectPlane+c)
	}
	return UnitParam(u, UnitEyePlane+c)
}

var globalNames = [...]string{
	ParamMVP:            "mvp",
	ParamModelView:      "modelview",
	ParamNormalMatrix:   "normal_matrix",
	ParamSceneAmbient:   "scene_ambient",
	ParamFogColor:       "fog_color",
	ParamFogParams:      "fog_params",
	ParamFrontAmbient:   "front_ambient",
	ParamFrontDiffuse:   "front_diffuse",
	ParamFrontSpecular:  "front_specular",
	ParamFrontEmission:  "front_emission",
	ParamFrontShininess: "front_shininess",
	ParamBackAmbient:    "back_ambient",
	ParamBackDiffuse:    "back_diffuse",
	ParamBackSpecular:   "back_specular",
	ParamBackEmission:   "back_emission",
	ParamBackShininess:  "back_shininess",
}

var lightFieldNames = [lightFields]string{
	LightAmbient:       "ambient",
	LightDiffuse:       "diffuse",
	LightSpecular:      "specular",
	LightPosition:      "position",
	LightAttenuation:   "attenuation",
	LightSpotDirection: "spot_dir",
	LightSpot:          "spot",
}

var coordNames = [ffstate.NumCoords]string{"s", "t", "r", "q"}

// Name returns the identifier the parameter has in generated source.
func (p Param) Name() string {
	switch {
	case p < paramLightBase:
		return globalNames[p]
	case p < paramUnitBase:
		i := int(p-paramLightBase) / lightFields
		f := int(p-paramLightBase) % lightFields
		return fmt.Sprintf("light%d_%s", i, lightFieldNames[f])
	case int(p) < NumParams:
		u := int(p-paramUnitBase) / unitFields
		f := int(p-paramUnitBase) % unitFields
		switch {
		case f == UnitTexture:
			return fmt.Sprintf("tex%d", u)
		case f == UnitMatrix:
			return fmt.Sprintf("tex_matrix%d", u)
		case f == UnitEnvColor:
			return fmt.Sprintf("env_color%d", u)
		case f < UnitEyePlane:
			return fmt.Sprintf("obj_plane%d_%s", u, coordNames[f-UnitObjectPlane])
		default:
			return fmt.Sprintf("eye_plane%d_%s", u, coordNames[f-UnitEyePlane])
		}
	default:
		return fmt.Sprintf("Param(%d)", uint16(p))
	}
}

// String returns the parameter name.
func (p Param) String() string { return p.Name() }

// Kind returns the parameter type.
func (p Param) Kind() device.ParamKind {
	switch p {
	case ParamMVP, ParamModelView, ParamNormalMatrix:
		return device.ParamMatrix
	case ParamFrontShininess, ParamBackShininess:
		return device.ParamScalar
	}
	if p >= paramUnitBase {
		switch int(p-paramUnitBase) % unitFields {
		case UnitTexture:
			return device.ParamTexture
		case UnitMatrix:
			return device.ParamMatrix
		}
	}
	return device.ParamVector
}

var paramsByName = func() map[string]Param {
	m := make(map[string]Param, NumParams)
	for p := Param(0); int(p) < NumParams; p++ {
		m[p.Name()] = p
	}
	return m
}()

// Lookup returns the parameter with the given source name.
func Lookup(name string) (Param, bool) {
	p, ok := paramsByName[name]
	return p, ok
}

// Light decomposes a per-light parameter into light index and field.
func (p Param) Light() (i, field int, ok bool) {
	if p < paramLightBase || p >= paramUnitBase {
		return 0, 0, false
	}
	off := int(p - paramLightBase)
	return off / lightFields, off % lightFields, true
}

// Unit decomposes a per-unit parameter into unit index and field.
func (p Param) Unit() (u, field int, ok bool) {
	if p < paramUnitBase || int(p) >= NumParams {
		return 0, 0, false
	}
	off := int(p - paramUnitBase)
	return off / unitFields, off % unitFields, true
}
