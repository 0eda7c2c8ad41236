// Package backend selects the device the blur filter renders on.
//
// Devices are opened through named factories. Backend packages register
// their factory in init(); the software device is always registered:
//
//	import _ "github.com/gogpu/frameblur/backend/wgpu"
//
// # Backend Selection
//
// Use OpenDefault to open the best available device, or Open to request
// a specific backend by name:
//
//	dev, err := backend.OpenDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Or request a specific backend
//	dev, err = backend.Open(backend.NameSoftware)
//
// OpenDefault walks the priority list (wgpu, then software) and falls back
// to the next backend when a factory fails, for example when no GPU
// adapter is present.
//
// # Available Backends
//
//   - "software": CPU reference device (always available)
//   - "wgpu": GPU device via gogpu/wgpu HAL
package backend
