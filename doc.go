// Package frameblur is a multi-pass GPU blur filter for video frames.
//
// # Overview
//
// A Filter takes the upstream frame of a gfx.Source and renders a blurred
// copy onto the host's output surface. Three algorithms are available
// (box, Gaussian, bilateral), each applied as a separable blur: one
// horizontal pass followed by one vertical pass. A rectangular region
// mask with optional feathering and inversion restricts the blur, and an
// optional RGB to YUV round trip wraps the blur passes.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/frameblur"
//		"github.com/gogpu/frameblur/backend/soft"
//	)
//
//	dev := soft.NewDevice()
//	shared, err := frameblur.NewShared(dev)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer shared.Close()
//
//	settings := frameblur.NewSettings()
//	settings.SetInt(frameblur.KeyType, int64(frameblur.AlgorithmGaussian))
//	settings.SetInt(frameblur.KeySize, 8)
//
//	f, err := frameblur.New(shared, settings, source)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer f.Close()
//
//	if f.Render(surface, nil) == frameblur.Skipped {
//		// draw the unmodified upstream frame instead
//	}
//
// # Resources
//
// Shared owns what every filter instance reads: the effect registry and
// the Gaussian kernel texture. Create it once after the GPU device and
// close it after every Filter and before the device. Filters own four
// render targets (capture, color conversion, horizontal, vertical) which
// are reset, not recreated, every frame.
//
// # Failure handling
//
// Render never returns an error. Any failure skips the frame and is
// logged once until a frame succeeds again; the host then passes the
// upstream frame through. Missing programs disable the dependent feature
// without failing startup. Without the kernel texture the Gaussian blur
// still renders, with zero weights.
package frameblur
