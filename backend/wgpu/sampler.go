package wgpu

import (
	"fmt"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// samplerKey is the part of a device.SamplerDesc that determines the GPU
// sampler. Programs with equal keys share one sampler.
type samplerKey struct {
	mag, min, mip gputypes.FilterMode
	u, v          gputypes.AddressMode
}

func keyOf(sd device.SamplerDesc) samplerKey {
	return samplerKey{
		mag: sd.MagFilter,
		min: sd.MinFilter,
		mip: sd.MipmapFilter,
		u:   sd.AddressModeU,
		v:   sd.AddressModeV,
	}
}

func (k samplerKey) descriptor() *hal.SamplerDescriptor {
	return &hal.SamplerDescriptor{
		Label:        "gldirect_sampler",
		AddressModeU: k.u,
		AddressModeV: k.v,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    k.mag,
		MinFilter:    k.min,
		MipmapFilter: k.mip,
	}
}

func (d *Device) samplerLocked(sd device.SamplerDesc) (hal.Sampler, error) {
	k := keyOf(sd)
	if s, ok := d.samplers[k]; ok {
		return s, nil
	}
	s, err := d.device.CreateSampler(k.descriptor())
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler for unit %d: %w", sd.Unit, err)
	}
	d.samplers[k] = s
	return s, nil
}
