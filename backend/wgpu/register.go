package wgpu

import (
	"github.com/gogpu/frameblur/backend"
	"github.com/gogpu/frameblur/gfx"
)

func init() {
	backend.Register(backend.NameWGPU, func() (gfx.Device, error) {
		d, err := Open()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}
