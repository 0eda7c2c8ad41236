// Package effects embeds the WGSL programs of the blur filter.
//
// Each program follows the same contract: a vertex entry point vs_main
// that emits a fullscreen triangle, one fragment entry point per
// technique, parameters as members of a single uniform struct at
// @group(0) @binding(0) and textures as further bindings of group 0.
package effects

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/gogpu/frameblur/gfx"
)

//go:embed *.wgsl
var files embed.FS

// Program names.
const (
	BoxBlur         = "Box Blur"
	GaussianBlur    = "Gaussian Blur"
	BilateralBlur   = "Bilateral Blur"
	ColorConversion = "Color Conversion"
	Default         = "Default"
)

// Entry names a program and its source file.
type Entry struct {
	Name string
	Path string
}

// Catalog lists the programs in load order.
var Catalog = []Entry{
	{Name: BoxBlur, Path: "box-blur.wgsl"},
	{Name: GaussianBlur, Path: "gaussian-blur.wgsl"},
	{Name: BilateralBlur, Path: "bilateral-blur.wgsl"},
	{Name: ColorConversion, Path: "color-conversion.wgsl"},
	{Name: Default, Path: "default.wgsl"},
}

// FS returns the embedded sources.
func FS() fs.FS {
	return files
}

// Load reads the source of e from fsys.
func Load(fsys fs.FS, e Entry) (gfx.EffectSource, error) {
	code, err := fs.ReadFile(fsys, e.Path)
	if err != nil {
		return gfx.EffectSource{}, fmt.Errorf("effects: read %s: %w", e.Path, err)
	}
	return gfx.EffectSource{Name: e.Name, Path: e.Path, Code: string(code)}, nil
}
