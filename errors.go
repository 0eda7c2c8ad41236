package frameblur

import "errors"

// Construction errors.
var (
	// ErrNilDevice is returned by NewShared without a device.
	ErrNilDevice = errors.New("frameblur: nil device")

	// ErrNilShared is returned by New without a Shared context.
	ErrNilShared = errors.New("frameblur: nil shared context")

	// ErrSharedClosed is returned by New after Shared.Close.
	ErrSharedClosed = errors.New("frameblur: shared context closed")
)

// Per-frame failures. They never leave Render; they are logged and the
// frame is skipped.
var (
	ErrNoSource           = errors.New("frameblur: no source")
	ErrNoSurface          = errors.New("frameblur: no output surface")
	ErrInvalidSize        = errors.New("frameblur: invalid source size")
	ErrNoRenderTarget     = errors.New("frameblur: render target unavailable")
	ErrEffectUnavailable  = errors.New("frameblur: blur program unavailable")
	ErrNoCompositeProgram = errors.New("frameblur: composite program unavailable")
	ErrNoTexture          = errors.New("frameblur: render target produced no texture")
	ErrMissingParam       = errors.New("frameblur: required parameter not declared")
)

// Contract violations in algorithm parameter handlers.
var (
	ErrUnknownAlgorithm  = errors.New("frameblur: unknown algorithm")
	ErrAlgorithmMismatch = errors.New("frameblur: handler does not match algorithm")
)

// ErrSettingType is returned when a settings file holds a value that is
// not a bool, integer or float.
var ErrSettingType = errors.New("frameblur: unsupported setting type")
