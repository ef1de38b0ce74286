// Package gldirect renders fixed-function OpenGL 1.x style drawing through
// a shader-based GPU API.
//
// # Overview
//
// gldirect is the rendering back-end of a GL translation layer. It accepts
// the legacy drawing model (Begin/End immediate mode, client vertex arrays,
// display lists, fixed-function lighting, texturing and fog) and turns it
// into what a modern device consumes: point, line and triangle lists drawn
// from vertex buffers with generated WGSL programs.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/gldirect"
//	    "github.com/gogpu/gldirect/backend/wgpu"
//	    "github.com/gogpu/gldirect/device"
//	)
//
//	shared := device.NewShared(func() (device.Device, error) {
//	    return wgpu.NewFromProvider(provider, wgpu.DefaultConfig())
//	})
//	ctx, err := gldirect.NewContext(shared)
//	if err != nil {
//	    return err
//	}
//	defer ctx.Close()
//
//	ctx.Enable(gldirect.CapLighting)
//	ctx.Enable(gldirect.CapLight0)
//	ctx.Begin(gldirect.Quads)
//	ctx.Normal3(0, 0, 1)
//	ctx.Vertex2(-1, -1)
//	ctx.Vertex2(1, -1)
//	ctx.Vertex2(1, 1)
//	ctx.Vertex2(-1, 1)
//	ctx.End()
//	ctx.Flush()
//
// # Architecture
//
// The library is organized into:
//   - Public API: Context and the GL enumerants
//   - device: the downstream device interface and the shared device
//   - internal/primitive: primitive classification and expansion
//   - internal/batch: vertex accumulation and flush scheduling
//   - internal/ffstate, internal/shadergen, internal/effect: state keys,
//     program generation and the program cache
//   - internal/displaylist: recorded lists and replay
//   - backend/wgpu: the device on gogpu/wgpu's HAL
//
// # Batching
//
// Consecutive primitives that reduce to the same native topology share one
// vertex buffer and one draw. A batch is flushed when the topology changes,
// the buffer fills, state changes, a list boundary is crossed or Flush is
// called.
//
// # Errors
//
// Like GL, the Context records the first error and keeps going; read it
// with Error. Device loss is reported with DeviceLost and recovered with
// DeviceRestored; in between nothing is drawn.
package gldirect

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
