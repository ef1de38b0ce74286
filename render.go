package gldirect

import (
	"fmt"
	"math"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/batch"
	"github.com/gogpu/gldirect/internal/displaylist"
	"github.com/gogpu/gldirect/internal/effect"
	"github.com/gogpu/gldirect/internal/ffstate"
	"github.com/gogpu/gldirect/internal/primitive"
	"github.com/gogpu/gldirect/internal/shadergen"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// renderer draws batches for a Context. It is the immediate assembler's
// Drawer and the Executor of display list replays.
type renderer struct {
	c *Context
}

var (
	_ batch.Drawer         = (*renderer)(nil)
	_ displaylist.Executor = (*renderer)(nil)
)

// topologies maps reduced topologies to device topologies.
var topologies = [...]gputypes.PrimitiveTopology{
	primitive.ReducedPoints:    gputypes.PrimitiveTopologyPointList,
	primitive.ReducedLines:     gputypes.PrimitiveTopologyLineList,
	primitive.ReducedTriangles: gputypes.PrimitiveTopologyTriangleList,
}

// DrawBatch selects the program for the current state, pushes its
// parameters and draws.
func (r *renderer) DrawBatch(red primitive.Reduced, buf device.BufferID, first, count int) error {
	c := r.c
	if c.lost || c.dev == nil {
		return nil
	}
	if red == primitive.Unknown || count == 0 {
		return nil
	}

	idx, err := c.bindEffect()
	if err != nil {
		return err
	}
	e := c.effects.Effect(idx)

	err = c.dev.Draw(&device.DrawCall{
		Program:   e.Program,
		Technique: e.Technique,
		Topology:  topologies[red],
		Buffer:    buf,
		First:     uint32(first),
		Count:     uint32(count),
	})
	if err != nil {
		return fmt.Errorf("gldirect: draw %d %v vertices: %w", count, red, err)
	}
	c.draws++
	return nil
}

// ApplyState applies a state change replayed from a display list.
func (r *renderer) ApplyState(s displaylist.StateChange) error {
	sc, ok := s.(*stateChange)
	if !ok {
		return fmt.Errorf("gldirect: foreign state change %q", s.Name())
	}
	r.c.applyState(sc)
	return nil
}

// bindEffect returns the effect for the current state, rebuilding the key
// when shading state changed and pushing parameters when any state did.
func (c *Context) bindEffect() (int, error) {
	idx := c.effects.Current()
	if c.keyDirty || idx == effect.None {
		c.key = ffstate.Extract(&c.state, c.effects.Caps())
		var err error
		if idx, err = c.effects.FindOrCreate(c.key); err != nil {
			return effect.None, err
		}
		c.keyDirty = false
	}
	if idx != c.effects.LastBound() || c.paramsDirty {
		if err := c.setParams(c.effects.Effect(idx)); err != nil {
			return effect.None, err
		}
		c.effects.SetLastBound(idx)
		c.paramsDirty = false
	}
	return idx, nil
}

// setParams pushes every parameter e declares from the current state.
func (c *Context) setParams(e *effect.Effect) error {
	for p := shadergen.Param(0); int(p) < shadergen.NumParams; p++ {
		h := e.Param(p)
		if !h.Valid() {
			continue
		}
		var err error
		switch p.Kind() {
		case device.ParamMatrix:
			err = c.dev.SetMatrix(e.Program, h, c.matrixParam(p))
		case device.ParamVector:
			err = c.dev.SetVector(e.Program, h, c.vectorParam(p))
		case device.ParamScalar:
			err = c.dev.SetScalar(e.Program, h, c.scalarParam(p))
		case device.ParamTexture:
			u, _, _ := p.Unit()
			err = c.dev.SetTexture(e.Program, h, c.state.Units[u].Texture)
		}
		if err != nil {
			return fmt.Errorf("gldirect: set %s: %w", p, err)
		}
	}
	return nil
}

func (c *Context) matrixParam(p shadergen.Param) f32.Mat4 {
	s := &c.state
	switch p {
	case shadergen.ParamMVP:
		return ffstate.Mul(s.Projection, s.ModelView)
	case shadergen.ParamModelView:
		return s.ModelView
	case shadergen.ParamNormalMatrix:
		return ffstate.NormalMatrix(s.ModelView)
	}
	if u, field, ok := p.Unit(); ok && field == shadergen.UnitMatrix {
		return s.Units[u].Matrix
	}
	return ffstate.Identity()
}

func (c *Context) scalarParam(p shadergen.Param) float32 {
	switch p {
	case shadergen.ParamFrontShininess:
		return c.state.Lighting.Front.Shininess
	case shadergen.ParamBackShininess:
		return c.state.Lighting.Back.Shininess
	}
	return 0
}

func (c *Context) vectorParam(p shadergen.Param) f32.Vec4 {
	l := &c.state.Lighting
	switch p {
	case shadergen.ParamSceneAmbient:
		return l.Ambient
	case shadergen.ParamFogColor:
		return c.state.Fog.Color
	case shadergen.ParamFogParams:
		return fogParams(&c.state.Fog)
	case shadergen.ParamFrontAmbient:
		return l.Front.Ambient
	case shadergen.ParamFrontDiffuse:
		return l.Front.Diffuse
	case shadergen.ParamFrontSpecular:
		return l.Front.Specular
	case shadergen.ParamFrontEmission:
		return l.Front.Emission
	case shadergen.ParamBackAmbient:
		return l.Back.Ambient
	case shadergen.ParamBackDiffuse:
		return l.Back.Diffuse
	case shadergen.ParamBackSpecular:
		return l.Back.Specular
	case shadergen.ParamBackEmission:
		return l.Back.Emission
	}

	if i, field, ok := p.Light(); ok {
		return lightParam(&l.Lights[i], field)
	}
	if u, field, ok := p.Unit(); ok {
		unit := &c.state.Units[u]
		switch {
		case field == shadergen.UnitEnvColor:
			return unit.EnvColor
		case field >= shadergen.UnitEyePlane:
			return unit.TexGen[field-shadergen.UnitEyePlane].EyePlane
		case field >= shadergen.UnitObjectPlane:
			return unit.TexGen[field-shadergen.UnitObjectPlane].ObjectPlane
		}
	}
	return f32.Vec4{}
}

func lightParam(lt *ffstate.Light, field int) f32.Vec4 {
	switch field {
	case shadergen.LightAmbient:
		return lt.Ambient
	case shadergen.LightDiffuse:
		return lt.Diffuse
	case shadergen.LightSpecular:
		return lt.Specular
	case shadergen.LightPosition:
		return lt.Position
	case shadergen.LightAttenuation:
		return f32.Vec4{lt.ConstantAttenuation, lt.LinearAttenuation, lt.QuadraticAttenuation, 0}
	case shadergen.LightSpotDirection:
		return lt.SpotDirection
	case shadergen.LightSpot:
		cutoff := float64(lt.SpotCutoff) * math.Pi / 180
		return f32.Vec4{lt.SpotExponent, float32(math.Cos(cutoff)), 0, 0}
	}
	return f32.Vec4{}
}

// fogParams packs start, end, density and 1/(end-start).
func fogParams(f *ffstate.Fog) f32.Vec4 {
	var scale float32
	if d := f.End - f.Start; d != 0 {
		scale = 1 / d
	}
	return f32.Vec4{f.Start, f.End, f.Density, scale}
}
