package wgpu

import (
	"time"

	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gputypes"
)

// Config configures a Device.
type Config struct {
	// ColorFormat is the format of the render target. NewFromProvider
	// replaces TextureFormatUndefined with the provider's surface format.
	ColorFormat gputypes.TextureFormat

	// Depth enables a Depth24PlusStencil8 attachment with a less-than depth
	// test. SetTarget must then be given a depth view.
	Depth bool

	// ShaderModel selects how programs are handed to the HAL.
	ShaderModel device.ShaderModel

	// MaxTextureUnits is the number of texture units reported in Caps.
	MaxTextureUnits int

	// MaxBufferSize is the largest vertex buffer the device allocates.
	MaxBufferSize uint64

	// SubmitTimeout is how long a submission may stay incomplete before the
	// device is considered lost.
	SubmitTimeout time.Duration
}

// DefaultConfig returns a configuration for a BGRA8 target without depth,
// compiling WGSL directly.
func DefaultConfig() Config {
	return Config{
		ColorFormat:     gputypes.TextureFormatBGRA8Unorm,
		ShaderModel:     device.ShaderModelWGSL,
		MaxTextureUnits: 2,
		MaxBufferSize:   64 << 20,
		SubmitTimeout:   5 * time.Second,
	}
}
