package wgpu

import (
	"fmt"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Draw records one render pass drawing call.Count vertices and submits it.
// It returns once the commands are queued.
func (d *Device) Draw(call *device.DrawCall) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkLocked(); err != nil {
		return err
	}
	if d.target == nil || (d.cfg.Depth && d.depth == nil) {
		return ErrNoTarget
	}
	p, ok := d.programs[call.Program]
	if !ok {
		return device.ErrInvalidProgram
	}
	if call.Technique != 0 {
		return fmt.Errorf("%w: handle %d", device.ErrUnknownTechnique, call.Technique)
	}
	b, ok := d.buffers[call.Buffer]
	if !ok {
		return device.ErrInvalidBuffer
	}
	if call.Count == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	pipeline, err := d.pipelineLocked(p, call.Topology)
	if err != nil {
		return err
	}
	if p.uniformDirty {
		if err := d.queue.WriteBuffer(p.uniform, 0, p.shadow); err != nil {
			return fmt.Errorf("wgpu: upload uniforms for %q: %w", p.desc.Label, err)
		}
		p.uniformDirty = false
	}
	bindGroup, err := d.bindGroupLocked(p)
	if err != nil {
		return err
	}

	return d.submit("gldirect_draw", func(enc hal.CommandEncoder) {
		rp := enc.BeginRenderPass(d.passDesc())
		rp.SetPipeline(pipeline)
		rp.SetBindGroup(0, bindGroup, nil)
		rp.SetVertexBuffer(0, b.buf, 0)
		rp.Draw(call.Count, 1, call.First, 0)
		rp.End()
	})
}

func (d *Device) passDesc() *hal.RenderPassDescriptor {
	desc := &hal.RenderPassDescriptor{
		Label: "gldirect_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    d.target,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	}
	if d.cfg.Depth {
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:           d.depth,
			DepthLoadOp:    gputypes.LoadOpLoad,
			DepthStoreOp:   gputypes.StoreOpStore,
			StencilLoadOp:  gputypes.LoadOpLoad,
			StencilStoreOp: gputypes.StoreOpStore,
		}
	}
	return desc
}

// bindGroupLocked returns the program's bind group, rebuilding it after a
// texture binding changed. The caller holds p.mu.
func (d *Device) bindGroupLocked(p *program) (hal.BindGroup, error) {
	if !p.bindDirty && p.bindGroup != nil {
		return p.bindGroup, nil
	}
	var entries []gputypes.BindGroupEntry
	if p.uniform != nil {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: 0,
			Resource: gputypes.BufferBinding{
				Buffer: p.uniform.NativeHandle(), Offset: 0, Size: uint64(p.desc.UniformSize),
			},
		})
	}
	for _, pd := range p.desc.Params {
		if pd.Kind != device.ParamTexture {
			continue
		}
		view, ok := d.textures[p.textures[pd.Binding]]
		if !ok {
			var err error
			if view, err = d.fallbackTexture(); err != nil {
				return nil, err
			}
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  pd.Binding,
			Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()},
		})
	}
	for i, sd := range p.desc.Samplers {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  sd.Binding,
			Resource: gputypes.SamplerBinding{Sampler: p.samplers[i].NativeHandle()},
		})
	}

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.desc.Label + "_bind",
		Layout:  p.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group for %q: %w", p.desc.Label, err)
	}
	if old := p.bindGroup; old != nil {
		d.retire(func() { d.device.DestroyBindGroup(old) })
	}
	p.bindGroup = bg
	p.bindDirty = false
	return bg, nil
}

// fallbackTexture returns a 1x1 white texture, creating it and clearing it to
// white with a render pass on first use.
func (d *Device) fallbackTexture() (hal.TextureView, error) {
	d.whiteMu.Lock()
	defer d.whiteMu.Unlock()
	if d.whiteView != nil {
		return d.whiteView, nil
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "gldirect_white",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create white texture: %w", err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "gldirect_white_view"})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("wgpu: create white texture view: %w", err)
	}
	err = d.submit("gldirect_white_clear", func(enc hal.CommandEncoder) {
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "gldirect_white_clear",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 1, G: 1, B: 1, A: 1},
			}},
		})
		rp.End()
	})
	if err != nil {
		d.device.DestroyTextureView(view)
		d.device.DestroyTexture(tex)
		return nil, err
	}
	d.white, d.whiteView = tex, view
	return view, nil
}
