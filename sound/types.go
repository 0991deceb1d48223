package sound

import "errors"

// ResourceID identifies a sound asset. Ids are assigned by the host
// application, usually from configuration.
type ResourceID int

// Handle is the engine's token for a loaded resource
type Handle int

// StreamID identifies one playing stream. Zero means nothing was started.
type StreamID int

// Engine is the narrow adapter the dispatcher drives. Implementations are
// only ever called from the dispatcher goroutine.
type Engine interface {
	// Load decodes the resource and returns a handle for it
	Load(id ResourceID, priority int) (Handle, error)

	// Play starts a stream for a loaded handle. repetitions is passed
	// through unchanged; its meaning for negative values is defined by the
	// implementation.
	Play(h Handle, left, right float64, priority, repetitions int, rate float64) (StreamID, error)

	// Unload frees the resource behind a handle
	Unload(h Handle) error

	// Release frees everything the engine holds. It is terminal.
	Release() error
}

var (
	// ErrStopped is returned by blocking manager calls once the dispatcher has exited
	ErrStopped = errors.New("sound manager stopped")
)
