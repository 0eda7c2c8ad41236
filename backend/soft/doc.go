// Package soft implements the frameblur device contract on the CPU.
//
// The software device runs Go ports of the embedded WGSL programs, one
// fragment per output texel, with rows spread over goroutines. It is the
// reference the GPU backend is checked against and the fallback when no
// GPU adapter is available.
//
// Textures hold four float32 channels per texel. Render targets with an
// 8-bit format are quantized when a render ends, like their GPU
// counterparts.
//
// Programs are matched by name; the WGSL source passed to CreateEffect is
// not interpreted. Supported programs are listed by Programs.
package soft
