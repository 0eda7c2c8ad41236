package frameblur

import (
	"io/fs"

	"github.com/gogpu/frameblur/effects"
	"github.com/gogpu/frameblur/gfx"
)

// Registry owns the loaded programs, keyed by name. Programs are shared
// read-only by every filter instance; the registry destroys them when its
// Shared context closes.
type Registry struct {
	device  gfx.Device
	effects map[string]gfx.Effect
	order   []string
}

// loadRegistry loads catalog in order. The first failure stops loading
// and leaves the registry with the programs loaded so far.
func loadRegistry(device gfx.Device, fsys fs.FS, catalog []effects.Entry) *Registry {
	r := &Registry{
		device:  device,
		effects: make(map[string]gfx.Effect, len(catalog)),
	}

	for _, e := range catalog {
		src, err := effects.Load(fsys, e)
		if err == nil {
			var eff gfx.Effect
			eff, err = device.CreateEffect(src)
			if err == nil {
				r.effects[e.Name] = eff
				r.order = append(r.order, e.Name)
				Logger().Debug("frameblur: loaded program", "name", e.Name, "path", e.Path)
				continue
			}
		}
		Logger().Error("frameblur: failed to load program",
			"name", e.Name, "path", e.Path, "err", err)
		break
	}

	return r
}

// Get returns the named program, or nil if it is not loaded.
func (r *Registry) Get(name string) gfx.Effect {
	if r == nil {
		return nil
	}
	return r.effects[name]
}

// Has reports whether the named program is loaded.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// Names returns the loaded program names in load order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// release destroys every program in reverse load order.
func (r *Registry) release() {
	for i := len(r.order) - 1; i >= 0; i-- {
		r.device.DestroyEffect(r.effects[r.order[i]])
	}
	r.effects = map[string]gfx.Effect{}
	r.order = nil
}
