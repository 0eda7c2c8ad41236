// Package wgpu implements the frameblur device contract on the gogpu/wgpu
// hardware abstraction layer.
//
// Programs are compiled from their WGSL source. The parameter layout of a
// program is reflected with naga (see gfx/shader): uniform struct members
// become scalar parameters written to a per-draw uniform buffer, and
// texture_2d globals become texture parameters bound next to it in bind
// group 0. On Vulkan the WGSL is translated to SPIR-V before the shader
// module is created.
//
// Every draw covers its render target with one fullscreen triangle. The
// draws recorded between RenderTarget.Begin and RenderTarget.End are
// encoded into a single render pass and submitted on End.
//
// # Opening a device
//
// Open selects the first hardware adapter of a registered HAL backend:
//
//	dev, err := wgpu.Open()
//	if err != nil {
//		return err
//	}
//	defer dev.Close()
//
// Hosts that already own a device pass it through NewFromProvider, in
// which case Close leaves the device alive. Importing the package
// registers the "wgpu" backend with frameblur/backend.
package wgpu
