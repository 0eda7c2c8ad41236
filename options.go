package frameblur

import (
	"io/fs"

	"github.com/gogpu/frameblur/effects"
)

// Option configures a Shared context during creation.
//
// Example:
//
//	// Load the programs from a directory instead of the embedded copies.
//	shared, err := frameblur.NewShared(dev, frameblur.WithEffectFS(os.DirFS("shaders")))
type Option func(*sharedOptions)

type sharedOptions struct {
	fsys    fs.FS
	catalog []effects.Entry
}

func defaultOptions() sharedOptions {
	return sharedOptions{
		fsys:    effects.FS(),
		catalog: effects.Catalog,
	}
}

// WithEffectFS sets the file system the program sources are read from.
// File names must match the catalog paths.
func WithEffectFS(fsys fs.FS) Option {
	return func(o *sharedOptions) {
		if fsys != nil {
			o.fsys = fsys
		}
	}
}

// WithCatalog replaces the list of programs to load.
func WithCatalog(catalog []effects.Entry) Option {
	return func(o *sharedOptions) {
		o.catalog = catalog
	}
}
