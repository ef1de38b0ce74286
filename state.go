package gldirect

import (
	"fmt"
	"math"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/batch"
	"github.com/gogpu/gldirect/internal/ffstate"
	"golang.org/x/image/math/f32"
)

// stateChange is a validated state update. While a list is compiled it is
// recorded instead of, or as well as, being applied.
type stateChange struct {
	name string
	// shading marks changes that can select a different program.
	shading bool
	apply   func(c *Context)
}

// Name describes the change in display list dumps.
func (s *stateChange) Name() string { return s.name }

// change applies or records s. State may not change inside Begin/End.
func (c *Context) change(s *stateChange) {
	if c.closed {
		return
	}
	if c.inBegin() {
		c.setError(InvalidOperation)
		return
	}
	if c.recording != nil {
		// Batches recorded so far were built under the old state.
		c.handle(c.recorder.Flush(batch.ReasonStateChange))
		c.handle(c.recording.State(s))
		return
	}
	c.applyState(s)
}

func (c *Context) applyState(s *stateChange) {
	c.handle(c.immediate.Flush(batch.ReasonStateChange))
	s.apply(c)
	if s.shading {
		c.keyDirty = true
	}
	c.paramsDirty = true
}

func (c *Context) unit() *ffstate.TextureUnit { return &c.state.Units[c.activeUnit] }

// Enable turns a capability on.
func (c *Context) Enable(cp Cap) { c.setCap(cp, true) }

// Disable turns a capability off.
func (c *Context) Disable(cp Cap) { c.setCap(cp, false) }

func (c *Context) setCap(cp Cap, on bool) {
	var set func(c *Context)
	switch cp {
	case CapLighting:
		set = func(c *Context) { c.state.Lighting.Enabled = on }
	case CapColorMaterial:
		set = func(c *Context) { c.state.Lighting.ColorMaterialEnabled = on }
	case CapFog:
		set = func(c *Context) { c.state.Fog.Enabled = on }
	case CapTexture2D:
		set = func(c *Context) { c.unit().Enabled = on }
	case CapTextureGenS, CapTextureGenT, CapTextureGenR, CapTextureGenQ:
		coord := int(cp - CapTextureGenS)
		set = func(c *Context) { c.unit().TexGen[coord].Enabled = on }
	default:
		i, ok := cp.light()
		if !ok {
			c.setError(InvalidEnum)
			return
		}
		set = func(c *Context) { c.state.Lighting.Lights[i].Enabled = on }
	}
	verb := "Disable"
	if on {
		verb = "Enable"
	}
	c.change(&stateChange{
		name:    fmt.Sprintf("%s(0x%04x)", verb, uint32(cp)),
		shading: true,
		apply:   set,
	})
}

// ShadeModel selects flat or smooth shading.
func (c *Context) ShadeModel(m Shading) {
	if m != Flat && m != Smooth {
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:    fmt.Sprintf("ShadeModel(0x%04x)", uint32(m)),
		shading: true,
		apply:   func(c *Context) { c.state.ShadeFlat = m == Flat },
	})
}

// ActiveTexture selects the unit that texture state, texture generation
// and the texture matrix apply to.
func (c *Context) ActiveTexture(unit int) {
	if unit < 0 || unit >= ffstate.MaxTextureUnits {
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:  fmt.Sprintf("ActiveTexture(%d)", unit),
		apply: func(c *Context) { c.activeUnit = unit },
	})
}

// BindTexture binds a texture and its sampling parameters to a unit.
func (c *Context) BindTexture(unit int, tex device.TextureID, p TextureParams) {
	if unit < 0 || unit >= ffstate.MaxTextureUnits {
		c.setError(InvalidEnum)
		return
	}
	minF, ok1 := filters[p.MinFilter]
	magF, ok2 := filters[p.MagFilter]
	ws, ok3 := wraps[p.WrapS]
	wt, ok4 := wraps[p.WrapT]
	if !ok1 || !ok2 || !ok3 || !ok4 {
		c.setError(InvalidEnum)
		return
	}
	if magF != ffstate.FilterNearest && magF != ffstate.FilterLinear {
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:    fmt.Sprintf("BindTexture(%d, %d)", unit, tex),
		shading: true,
		apply: func(c *Context) {
			u := &c.state.Units[unit]
			u.Texture = tex
			u.MinFilter, u.MagFilter = minF, magF
			u.WrapS, u.WrapT = ws, wt
		},
	})
}

// Texture state setters act on the unit active when the change is
// applied, which for a compiled list is when the list is executed.

// TexEnvMode sets the texture environment mode of the active unit.
func (c *Context) TexEnvMode(m EnvMode) {
	mode, ok := envModes[m]
	if !ok {
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:    fmt.Sprintf("TexEnvMode(0x%04x)", uint32(m)),
		shading: true,
		apply:   func(c *Context) { c.unit().EnvMode = mode },
	})
}

// TexEnvColor sets the blend color of the active unit.
func (c *Context) TexEnvColor(col f32.Vec4) {
	c.change(&stateChange{
		name:  "TexEnvColor",
		apply: func(c *Context) { c.unit().EnvColor = clampColor(col) },
	})
}

// TexGenMode sets how a coordinate of the active unit is generated.
func (c *Context) TexGenMode(coord Coord, m TexGenMode) {
	i, ok := coord.index()
	mode, ok2 := texGenModes[m]
	if !ok || !ok2 {
		c.setError(InvalidEnum)
		return
	}
	// Sphere mapping only generates S and T; normal and reflection mapping
	// do not apply to Q.
	if (mode == ffstate.TexGenSphereMap && i > ffstate.CoordT) ||
		((mode == ffstate.TexGenNormalMap || mode == ffstate.TexGenReflectionMap) && i == ffstate.CoordQ) {
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:    fmt.Sprintf("TexGenMode(0x%04x, 0x%04x)", uint32(coord), uint32(m)),
		shading: true,
		apply:   func(c *Context) { c.unit().TexGen[i].Mode = mode },
	})
}

// TexGenPlane sets the object or eye plane of a coordinate of the active
// unit. Eye planes are transformed by the inverse of the modelview matrix
// current when the plane is set.
func (c *Context) TexGenPlane(coord Coord, plane Plane, v f32.Vec4) {
	i, ok := coord.index()
	if !ok || (plane != ObjectPlane && plane != EyePlane) {
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name: fmt.Sprintf("TexGenPlane(0x%04x, 0x%04x)", uint32(coord), uint32(plane)),
		apply: func(c *Context) {
			g := &c.unit().TexGen[i]
			if plane == ObjectPlane {
				g.ObjectPlane = v
				return
			}
			g.EyePlane = eyePlane(c.modelview.Top(), v)
		},
	})
}

// eyePlane returns p * inverse(mv). A singular modelview leaves p as is.
func eyePlane(mv f32.Mat4, p f32.Vec4) f32.Vec4 {
	inv, ok := ffstate.Inverse(mv)
	if !ok {
		return p
	}
	return ffstate.MulVec(ffstate.Transpose(inv), p)
}

// Light sets a vector parameter of a light: Ambient, Diffuse, Specular,
// Position or SpotDirection. Position and direction are transformed to eye
// space by the current modelview matrix.
func (c *Context) Light(light Cap, p Param, v f32.Vec4) {
	i, ok := light.light()
	if !ok {
		c.setError(InvalidEnum)
		return
	}
	var set func(l *ffstate.Light, mv f32.Mat4)
	shading := false
	switch p {
	case Ambient:
		set = func(l *ffstate.Light, _ f32.Mat4) { l.Ambient = v }
	case Diffuse:
		set = func(l *ffstate.Light, _ f32.Mat4) { l.Diffuse = v }
	case Specular:
		set = func(l *ffstate.Light, _ f32.Mat4) { l.Specular = v }
	case Position:
		// The w component decides between directional and positional.
		shading = true
		set = func(l *ffstate.Light, mv f32.Mat4) { l.Position = ffstate.MulVec(mv, v) }
	case SpotDirection:
		set = func(l *ffstate.Light, mv f32.Mat4) {
			d := ffstate.MulVec(mv, f32.Vec4{v[0], v[1], v[2], 0})
			l.SpotDirection = f32.Vec4{d[0], d[1], d[2], 0}
		}
	default:
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:    fmt.Sprintf("Light(%d, 0x%04x)", i, uint32(p)),
		shading: shading,
		apply: func(c *Context) {
			set(&c.state.Lighting.Lights[i], c.modelview.Top())
		},
	})
}

// Lightf sets a scalar parameter of a light: SpotExponent, SpotCutoff or
// one of the attenuation factors.
func (c *Context) Lightf(light Cap, p Param, v float32) {
	i, ok := light.light()
	if !ok {
		c.setError(InvalidEnum)
		return
	}
	var set func(l *ffstate.Light)
	shading := false
	switch p {
	case SpotExponent:
		if v < 0 || v > 128 {
			c.setError(InvalidValue)
			return
		}
		set = func(l *ffstate.Light) { l.SpotExponent = v }
	case SpotCutoff:
		if (v < 0 || v > 90) && v != 180 {
			c.setError(InvalidValue)
			return
		}
		// 180 turns a spot into a point light.
		shading = true
		set = func(l *ffstate.Light) { l.SpotCutoff = v }
	case ConstantAttenuation, LinearAttenuation, QuadraticAttenuation:
		if v < 0 {
			c.setError(InvalidValue)
			return
		}
		set = func(l *ffstate.Light) {
			switch p {
			case ConstantAttenuation:
				l.ConstantAttenuation = v
			case LinearAttenuation:
				l.LinearAttenuation = v
			default:
				l.QuadraticAttenuation = v
			}
		}
	default:
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:    fmt.Sprintf("Lightf(%d, 0x%04x, %g)", i, uint32(p), v),
		shading: shading,
		apply:   func(c *Context) { set(&c.state.Lighting.Lights[i]) },
	})
}

// Material sets a color parameter of one or both faces: Ambient, Diffuse,
// Specular, Emission or AmbientAndDiffuse.
func (c *Context) Material(face Face, p Param, v f32.Vec4) {
	if !validFace(face) {
		c.setError(InvalidEnum)
		return
	}
	var set func(m *ffstate.Material)
	switch p {
	case Ambient:
		set = func(m *ffstate.Material) { m.Ambient = v }
	case Diffuse:
		set = func(m *ffstate.Material) { m.Diffuse = v }
	case Specular:
		set = func(m *ffstate.Material) { m.Specular = v }
	case Emission:
		set = func(m *ffstate.Material) { m.Emission = v }
	case AmbientAndDiffuse:
		set = func(m *ffstate.Material) { m.Ambient, m.Diffuse = v, v }
	default:
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:  fmt.Sprintf("Material(0x%04x, 0x%04x)", uint32(face), uint32(p)),
		apply: func(c *Context) { c.eachFace(face, set) },
	})
}

// Materialf sets the Shininess of one or both faces.
func (c *Context) Materialf(face Face, p Param, v float32) {
	if !validFace(face) || p != Shininess {
		c.setError(InvalidEnum)
		return
	}
	if v < 0 || v > 128 {
		c.setError(InvalidValue)
		return
	}
	c.change(&stateChange{
		name: fmt.Sprintf("Materialf(0x%04x, %g)", uint32(face), v),
		apply: func(c *Context) {
			c.eachFace(face, func(m *ffstate.Material) { m.Shininess = v })
		},
	})
}

func validFace(f Face) bool {
	return f == Front || f == Back || f == FrontAndBack
}

func (c *Context) eachFace(face Face, set func(m *ffstate.Material)) {
	if face != Back {
		set(&c.state.Lighting.Front)
	}
	if face != Front {
		set(&c.state.Lighting.Back)
	}
}

// ColorMaterial selects which material color tracks the vertex color
// while CapColorMaterial is enabled. Both faces track the same parameter.
func (c *Context) ColorMaterial(face Face, mode Param) {
	cm, ok := colorMaterials[mode]
	if !validFace(face) || !ok {
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:    fmt.Sprintf("ColorMaterial(0x%04x, 0x%04x)", uint32(face), uint32(mode)),
		shading: true,
		apply:   func(c *Context) { c.state.Lighting.ColorMaterial = cm },
	})
}

// LightModelAmbient sets the scene ambient color.
func (c *Context) LightModelAmbient(v f32.Vec4) {
	c.change(&stateChange{
		name:  "LightModelAmbient",
		apply: func(c *Context) { c.state.Lighting.Ambient = v },
	})
}

// LightModelTwoSide selects two-sided lighting.
func (c *Context) LightModelTwoSide(on bool) {
	c.change(&stateChange{
		name:    fmt.Sprintf("LightModelTwoSide(%t)", on),
		shading: true,
		apply:   func(c *Context) { c.state.Lighting.TwoSided = on },
	})
}

// FogMode selects the fog equation.
func (c *Context) FogMode(m FogMode) {
	mode, ok := fogModes[m]
	if !ok {
		c.setError(InvalidEnum)
		return
	}
	c.change(&stateChange{
		name:    fmt.Sprintf("FogMode(0x%04x)", uint32(m)),
		shading: true,
		apply:   func(c *Context) { c.state.Fog.Mode = mode },
	})
}

// FogColor sets the fog color.
func (c *Context) FogColor(v f32.Vec4) {
	c.change(&stateChange{
		name:  "FogColor",
		apply: func(c *Context) { c.state.Fog.Color = clampColor(v) },
	})
}

// FogDensity sets the density of the exponential fog equations.
func (c *Context) FogDensity(d float32) {
	if d < 0 {
		c.setError(InvalidValue)
		return
	}
	c.change(&stateChange{
		name:  fmt.Sprintf("FogDensity(%g)", d),
		apply: func(c *Context) { c.state.Fog.Density = d },
	})
}

// FogStart sets the eye distance where linear fog begins.
func (c *Context) FogStart(v float32) {
	c.change(&stateChange{
		name:  fmt.Sprintf("FogStart(%g)", v),
		apply: func(c *Context) { c.state.Fog.Start = v },
	})
}

// FogEnd sets the eye distance where linear fog is complete.
func (c *Context) FogEnd(v float32) {
	c.change(&stateChange{
		name:  fmt.Sprintf("FogEnd(%g)", v),
		apply: func(c *Context) { c.state.Fog.End = v },
	})
}

func clampColor(v f32.Vec4) f32.Vec4 {
	for i := range v {
		v[i] = float32(math.Min(math.Max(float64(v[i]), 0), 1))
	}
	return v
}
