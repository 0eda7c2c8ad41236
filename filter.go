package frameblur

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/frameblur/gfx"
)

// targetFormat is the format of every intermediate render target.
const targetFormat = gputypes.TextureFormatRGBA8Unorm

// Filter is one blur instance attached to a source.
//
// Update and Render must be called from the render thread. Filters never
// share render targets, so instances render independently.
type Filter struct {
	shared *Shared
	source gfx.Source

	primary    gfx.RenderTarget // source capture
	secondary  gfx.RenderTarget // RGB to YUV
	horizontal gfx.RenderTarget
	vertical   gfx.RenderTarget

	cfg   Config
	blur  gfx.Effect
	binds bindingTable

	// errorLogged suppresses repeated logs of the same per-frame failure
	// until a frame succeeds.
	errorLogged bool
}

// New creates a filter for source. Render target creation failures are
// logged and leave the filter unable to render; every frame is skipped.
func New(shared *Shared, settings *Settings, source gfx.Source) (*Filter, error) {
	if shared == nil {
		return nil, ErrNilShared
	}
	if settings == nil {
		settings = NewSettings()
	}

	f := &Filter{shared: shared, source: source}

	err := shared.WithGraphics(func() error {
		if shared.closed {
			return ErrSharedClosed
		}
		f.primary = f.createTarget("primary")
		f.secondary = f.createTarget("secondary")
		f.horizontal = f.createTarget("horizontal")
		f.vertical = f.createTarget("vertical")
		f.Update(settings)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Filter) createTarget(label string) gfx.RenderTarget {
	rt, err := f.shared.device.CreateRenderTarget("frameblur "+label, targetFormat)
	if err != nil {
		Logger().Error("frameblur: failed to create render target",
			"source", f.sourceName(), "target", label, "err", err)
		return nil
	}
	return rt
}

// Update rebuilds the configuration from settings and selects the blur
// program for the configured algorithm.
func (f *Filter) Update(settings *Settings) {
	f.cfg = NewConfig(settings)

	f.blur = nil
	if name, ok := algorithmEffects[f.cfg.Algorithm]; ok {
		f.blur = f.shared.Effect(name)
		if f.blur == nil {
			Logger().Warn("frameblur: blur program not loaded",
				"source", f.sourceName(), "program", name)
		}
	}
	f.binds = newBindingTable(f.blur)
}

// Config returns the configuration of the last Update.
func (f *Filter) Config() Config { return f.cfg }

// Name returns the name of the filtered source.
func (f *Filter) Name() string { return f.sourceName() }

// Size reports the output dimensions override. The blur never changes
// the frame size, so it always returns zero: use the source's size.
func (f *Filter) Size() (width, height uint32) { return 0, 0 }

// Close destroys the render targets.
func (f *Filter) Close() error {
	return f.shared.WithGraphics(func() error {
		for _, rt := range []*gfx.RenderTarget{&f.primary, &f.secondary, &f.horizontal, &f.vertical} {
			if *rt != nil {
				(*rt).Destroy()
				*rt = nil
			}
		}
		return nil
	})
}

func (f *Filter) sourceName() string {
	if f.source == nil {
		return ""
	}
	return f.source.Name()
}
