package backend

import (
	"github.com/gogpu/frameblur/backend/soft"
	"github.com/gogpu/frameblur/gfx"
)

// init registers the software device on package import.
func init() {
	Register(NameSoftware, func() (gfx.Device, error) {
		return soft.New(), nil
	})
}
