package wgpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/glog"
	"github.com/gogpu/gldirect/internal/primitive"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"
)

// program is a compiled program and the GPU objects drawing with it needs.
// desc and the objects created by CompileProgram never change; mu guards
// the rest.
type program struct {
	desc device.ProgramDesc

	mu sync.Mutex

	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  map[gputypes.PrimitiveTopology]hal.RenderPipeline

	uniform      hal.Buffer
	shadow       []byte
	uniformDirty bool

	// samplers are shared through Device.samplers and not owned.
	samplers  []hal.Sampler
	textures  map[uint32]device.TextureID
	bindGroup hal.BindGroup
	bindDirty bool
}

func (p *program) destroy(dev hal.Device) {
	for t, rp := range p.pipelines {
		dev.DestroyRenderPipeline(rp)
		delete(p.pipelines, t)
	}
	if p.bindGroup != nil {
		dev.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.uniform != nil {
		dev.DestroyBuffer(p.uniform)
		p.uniform = nil
	}
	if p.pipeLayout != nil {
		dev.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		dev.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.module != nil {
		dev.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// CompileProgram creates the shader module, layouts and uniform buffer of a
// program. Render pipelines are created on first draw with each topology.
func (d *Device) CompileProgram(desc *device.ProgramDesc) (device.ProgramID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkLocked(); err != nil {
		return device.InvalidID, err
	}

	src, err := d.shaderSource(desc)
	if err != nil {
		return device.InvalidID, err
	}
	p := &program{
		desc:      *desc,
		pipelines: make(map[gputypes.PrimitiveTopology]hal.RenderPipeline),
		textures:  make(map[uint32]device.TextureID),
		bindDirty: true,
	}
	if err := d.buildProgram(p, src); err != nil {
		p.destroy(d.device)
		return device.InvalidID, err
	}

	id := device.ProgramID(d.newID())
	d.programs[id] = p
	glog.L().Debug("wgpu: program compiled",
		slog.String("label", desc.Label),
		slog.Int("params", len(desc.Params)),
		slog.Int("samplers", len(desc.Samplers)))
	return id, nil
}

// shaderSource picks the compilation path. SPIR-V is produced on the host
// with naga; naga errors are reported as compile errors.
func (d *Device) shaderSource(desc *device.ProgramDesc) (hal.ShaderSource, error) {
	model := desc.ShaderModel
	if model == device.ShaderModelNone || model > d.cfg.ShaderModel {
		model = d.cfg.ShaderModel
	}
	if model != device.ShaderModelSPIRV {
		return hal.ShaderSource{WGSL: desc.Source}, nil
	}
	spirv, err := naga.Compile(desc.Source)
	if err != nil {
		return hal.ShaderSource{}, &device.CompileError{Label: desc.Label, Log: err.Error()}
	}
	words, ok := spirvWords(spirv)
	if !ok {
		return hal.ShaderSource{}, &device.CompileError{
			Label: desc.Label,
			Log:   fmt.Sprintf("naga produced %d bytes, not whole SPIR-V words", len(spirv)),
		}
	}
	return hal.ShaderSource{SPIRV: words}, nil
}

func (d *Device) buildProgram(p *program, src hal.ShaderSource) error {
	desc := &p.desc
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: src,
	})
	if err != nil {
		return &device.CompileError{Label: desc.Label, Log: err.Error()}
	}
	p.module = module

	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_layout",
		Entries: layoutEntries(desc),
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group layout for %q: %w", desc.Label, err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout for %q: %w", desc.Label, err)
	}
	p.pipeLayout = pipeLayout

	if desc.UniformSize > 0 {
		ub, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: desc.Label + "_uniforms",
			Size:  uint64(desc.UniformSize),
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create uniform buffer for %q: %w", desc.Label, err)
		}
		p.uniform = ub
		p.shadow = make([]byte, desc.UniformSize)
		p.uniformDirty = true
	}

	for _, sd := range desc.Samplers {
		s, err := d.samplerLocked(sd)
		if err != nil {
			return err
		}
		p.samplers = append(p.samplers, s)
	}
	return nil
}

// layoutEntries declares the uniform block at binding 0 and every texture
// and sampler the program samples.
func layoutEntries(desc *device.ProgramDesc) []gputypes.BindGroupLayoutEntry {
	var entries []gputypes.BindGroupLayoutEntry
	if desc.UniformSize > 0 {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for _, pd := range desc.Params {
		if pd.Kind != device.ParamTexture {
			continue
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    pd.Binding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	for _, sd := range desc.Samplers {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    sd.Binding,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		})
	}
	return entries
}

// DestroyProgram releases a program once the draws using it have completed.
func (d *Device) DestroyProgram(id device.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[id]
	if !ok {
		return
	}
	delete(d.programs, id)
	d.retire(func() { p.destroy(d.device) })
}

// ResolveTechnique returns handle 0 for the program's only technique.
func (d *Device) ResolveTechnique(id device.ProgramID, name string) (device.TechniqueHandle, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.programs[id]
	if !ok {
		return device.InvalidTechnique, device.ErrInvalidProgram
	}
	if name != p.desc.Technique {
		return device.InvalidTechnique, fmt.Errorf("%w: %q", device.ErrUnknownTechnique, name)
	}
	return 0, nil
}

// ResolveParameter returns the index of the named parameter.
func (d *Device) ResolveParameter(id device.ProgramID, name string) (device.ParamHandle, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.programs[id]
	if !ok {
		return device.InvalidParam, device.ErrInvalidProgram
	}
	for i, pd := range p.desc.Params {
		if pd.Name == name {
			return device.ParamHandle(i), nil
		}
	}
	return device.InvalidParam, fmt.Errorf("%w: %q", device.ErrUnknownParameter, name)
}

// param returns the program and parameter a handle names, checking its kind.
func (d *Device) param(id device.ProgramID, h device.ParamHandle, kind device.ParamKind) (*program, *device.ParamDesc, error) {
	if err := d.checkLocked(); err != nil {
		return nil, nil, err
	}
	p, ok := d.programs[id]
	if !ok {
		return nil, nil, device.ErrInvalidProgram
	}
	if !h.Valid() || int(h) >= len(p.desc.Params) {
		return nil, nil, fmt.Errorf("%w: handle %d", device.ErrUnknownParameter, h)
	}
	pd := &p.desc.Params[h]
	if pd.Kind != kind {
		return nil, nil, fmt.Errorf("%w: %q is a %s, not a %s", device.ErrUnknownParameter, pd.Name, pd.Kind, kind)
	}
	return p, pd, nil
}

// SetScalar writes a scalar parameter.
func (d *Device) SetScalar(id device.ProgramID, h device.ParamHandle, v float32) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, pd, err := d.param(id, h, device.ParamScalar)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	putFloats(p.shadow[pd.Offset:], v)
	p.uniformDirty = true
	return nil
}

// SetVector writes a vector parameter.
func (d *Device) SetVector(id device.ProgramID, h device.ParamHandle, v f32.Vec4) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, pd, err := d.param(id, h, device.ParamVector)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	putFloats(p.shadow[pd.Offset:], v[:]...)
	p.uniformDirty = true
	return nil
}

// SetMatrix writes a matrix parameter.
func (d *Device) SetMatrix(id device.ProgramID, h device.ParamHandle, m f32.Mat4) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, pd, err := d.param(id, h, device.ParamMatrix)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	putMatrix(p.shadow[pd.Offset:], m)
	p.uniformDirty = true
	return nil
}

// SetTexture binds a registered texture to a texture parameter.
func (d *Device) SetTexture(id device.ProgramID, h device.ParamHandle, tex device.TextureID) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, pd, err := d.param(id, h, device.ParamTexture)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.textures[pd.Binding] != tex {
		p.textures[pd.Binding] = tex
		p.bindDirty = true
	}
	return nil
}

// pipelineLocked returns the program's pipeline for topology t, creating it
// on first use. The caller holds p.mu.
func (d *Device) pipelineLocked(p *program, t gputypes.PrimitiveTopology) (hal.RenderPipeline, error) {
	if rp, ok := p.pipelines[t]; ok {
		return rp, nil
	}
	desc := &hal.RenderPipelineDescriptor{
		Label:  p.desc.Label + "_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: p.desc.VertexEntry,
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: p.desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    d.cfg.ColorFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: t,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if d.cfg.Depth {
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		desc.DepthStencil = &hal.DepthStencilState{
			Format:            gputypes.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront:      keep,
			StencilBack:       keep,
		}
	}
	rp, err := d.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline for %q: %w", p.desc.Label, err)
	}
	p.pipelines[t] = rp
	return rp, nil
}

// vertexLayout describes the packed fixed-function vertex. Programs that
// read fewer attributes ignore the rest.
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: primitive.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: primitive.OffsetPosition, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x3, Offset: primitive.OffsetNormal, ShaderLocation: 1},
				{Format: gputypes.VertexFormatFloat32x4, Offset: primitive.OffsetColor, ShaderLocation: 2},
				{Format: gputypes.VertexFormatFloat32x4, Offset: primitive.OffsetTexCoord0, ShaderLocation: 3},
				{Format: gputypes.VertexFormatFloat32x4, Offset: primitive.OffsetTexCoord1, ShaderLocation: 4},
			},
		},
	}
}
