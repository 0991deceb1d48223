// Package sound serializes sound effect commands from any number of
// goroutines onto a single dispatcher that owns the engine and the
// resource cache.
package sound

import (
	"context"
	"log/slog"
	"sync/atomic"

	"sfxd/logger"
)

// DefaultVolume is the volume used by Play
const DefaultVolume = 1.0

// Manager is the non-blocking facade over the dispatcher. All methods are
// safe for concurrent use and never report engine errors to the caller.
type Manager struct {
	engine  Engine
	queue   *Queue
	cache   *resourceCache
	logger  *slog.Logger
	metrics *Metrics

	cancelRequested atomic.Bool
	stopped         atomic.Bool
	done            chan struct{}
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger used by the dispatcher
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// New creates a Manager that owns engine and starts its dispatcher. The
// engine must not be used by anything else until the manager is cancelled.
func New(engine Engine, opts ...Option) *Manager {
	m := &Manager{
		engine: engine,
		queue:  NewQueue(),
		cache:  newResourceCache(),
		logger: logger.WithComponent("sound"),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.run()
	return m
}

// Load requests that a resource be loaded. Loading an already loaded
// resource does nothing.
func (m *Manager) Load(id ResourceID) {
	m.enqueue(Load{ID: id})
}

// Play plays a loaded resource once at full volume
func (m *Manager) Play(id ResourceID) {
	m.PlayRepeat(id, DefaultVolume, 0)
}

// PlayVolume plays a loaded resource once at the given volume
func (m *Manager) PlayVolume(id ResourceID, volume float64) {
	m.PlayRepeat(id, volume, 0)
}

// PlayRepeat plays a loaded resource and repeats it repetitions times.
// Resources that are not loaded are skipped, Play never loads implicitly.
func (m *Manager) PlayRepeat(id ResourceID, volume float64, repetitions int) {
	m.enqueue(Play{ID: id, Volume: volume, Repetitions: repetitions})
}

// Unload requests that a loaded resource be freed
func (m *Manager) Unload(id ResourceID) {
	m.enqueue(Unload{ID: id})
}

// Cancel stops the dispatcher once it reaches this command. Commands queued
// behind it are discarded and the engine is released. Calling Cancel again
// does nothing.
func (m *Manager) Cancel() {
	if !m.cancelRequested.CompareAndSwap(false, true) {
		return
	}
	if !m.queue.Put(Cancel{}) {
		m.logger.Debug("Cancel discarded, dispatcher already stopped")
	}
}

// Done is closed when the dispatcher has exited
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Stopped reports whether a Cancel has been processed
func (m *Manager) Stopped() bool {
	return m.stopped.Load()
}

// Flush blocks until every command enqueued before the call was applied
func (m *Manager) Flush(ctx context.Context) error {
	if m.cancelRequested.Load() {
		return ErrStopped
	}

	done := make(chan struct{})
	if !m.queue.Put(flush{done: done}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loaded reports whether a resource is currently in the cache
func (m *Manager) Loaded(id ResourceID) bool {
	_, ok := m.cache.get(id)
	return ok
}

// Len returns the number of loaded resources
func (m *Manager) Len() int {
	return m.cache.size()
}

func (m *Manager) enqueue(cmd Command) {
	if m.cancelRequested.Load() {
		m.logger.Debug("Ignoring command after cancel", slog.Any("command", cmd))
		m.metrics.command(cmd.Kind(), outcomeDropped)
		return
	}

	if !m.queue.Put(cmd) {
		m.logger.Debug("Command discarded by closed queue", slog.Any("command", cmd))
		m.metrics.command(cmd.Kind(), outcomeDropped)
		return
	}
	m.metrics.queueDepth(m.queue.Len())
}
