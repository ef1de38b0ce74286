// Package wgpu implements device.Device on gogpu/wgpu's HAL.
//
// The device does not create a GPU device of its own. The host hands over a
// hal.Device and hal.Queue, either directly with [New] or through a
// gpucontext.DeviceProvider with [NewFromProvider], and points the device at
// a color attachment with [Device.SetTarget].
//
// # Programs
//
// Each compiled program owns a shader module, a bind group layout, a uniform
// buffer with a CPU shadow copy and one render pipeline per topology,
// created on first use. Programs are compiled from WGSL directly or, with
// [device.ShaderModelSPIRV], translated to SPIR-V by gogpu/naga first.
//
// Parameters are written into the shadow copy and uploaded before the next
// draw that uses the program. Matrices are written column-major, as WGSL
// expects.
//
// # Draws
//
// Every Draw records one render pass that loads and stores the target and
// submits it without waiting for the GPU. Command buffers are freed, and
// destroyed buffers and programs released, once the queue reports their
// submissions complete. A submission still incomplete after
// Config.SubmitTimeout is treated as device loss.
//
// # Textures
//
// Textures are owned by the host and registered with [Device.RegisterTexture].
// A texture parameter naming an unknown texture samples a 1x1 white texture.
package wgpu
