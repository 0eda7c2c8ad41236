package backend

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/frameblur/gfx"
)

// Priority order for backend selection (first available wins).
// WGPU > Software (Software is the fallback).
var backendPriority = []string{NameWGPU, NameSoftware}

var registry = gpucontext.NewRegistry[Factory](
	gpucontext.WithPriority(backendPriority...),
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registry.Register(name, func() Factory { return factory })
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registry.Unregister(name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	names := registry.Available()
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	return registry.Has(name)
}

// Best returns the name of the highest-priority registered backend,
// or "" if none is registered.
func Best() string {
	return registry.BestName()
}

// Open opens a device with the named backend.
func Open(name string) (gfx.Device, error) {
	factory := registry.Get(name)
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	return dev, nil
}

// OpenDefault opens the best available device. Backends are tried in
// priority order, then any other registered backend in name order.
// The returned error joins every factory failure.
func OpenDefault() (gfx.Device, error) {
	order := append([]string(nil), backendPriority...)
	for _, name := range Available() {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}

	var errs []error
	for _, name := range order {
		if !registry.Has(name) {
			continue
		}
		dev, err := Open(name)
		if err == nil {
			return dev, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(append([]error{ErrNoBackend}, errs...)...)
}

// MustOpenDefault opens the default device or panics.
func MustOpenDefault() gfx.Device {
	dev, err := OpenDefault()
	if err != nil {
		panic(err)
	}
	return dev
}
