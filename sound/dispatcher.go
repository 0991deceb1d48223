package sound

import (
	"fmt"
	"log/slog"
)

// Fixed engine parameters for effects
const (
	loadPriority = 1
	playPriority = 0
	playRate     = 1.0
)

// run is the dispatcher loop. It is the only goroutine that touches the
// engine or writes to the cache.
func (m *Manager) run() {
	defer close(m.done)

	m.logger.Debug("Dispatcher started")

	for {
		cmd, ok := m.queue.Take()
		if !ok {
			return
		}
		m.metrics.queueDepth(m.queue.Len())

		if _, ok := cmd.(Cancel); ok {
			m.shutdown()
			return
		}
		m.apply(cmd)
	}
}

// apply runs one command. Engine errors and panics end here.
func (m *Manager) apply(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Sound engine panicked",
				slog.Any("command", cmd),
				slog.Any("panic", r))
			m.metrics.engineFailure(cmd.Kind())
			m.metrics.command(cmd.Kind(), outcomeFailed)
		}
	}()

	switch c := cmd.(type) {
	case Load:
		m.load(c)
	case Play:
		m.play(c)
	case Unload:
		m.unload(c)
	case flush:
		close(c.done)
	default:
		m.logger.Warn("Unknown command", slog.String("type", fmt.Sprintf("%T", cmd)))
	}
}

func (m *Manager) load(c Load) {
	if _, ok := m.cache.get(c.ID); ok {
		m.metrics.command(c.Kind(), outcomeSkipped)
		return
	}

	h, err := m.engine.Load(c.ID, loadPriority)
	if err != nil {
		m.logger.Warn("Failed to load sound",
			slog.Int("resource", int(c.ID)),
			slog.Any("error", err))
		m.metrics.engineFailure("load")
		m.metrics.command(c.Kind(), outcomeFailed)
		return
	}

	m.cache.put(c.ID, h)
	m.metrics.cached(m.cache.size())
	m.metrics.command(c.Kind(), outcomeApplied)
	m.logger.Debug("Loaded sound",
		slog.Int("resource", int(c.ID)),
		slog.Int("handle", int(h)))
}

func (m *Manager) play(c Play) {
	h, ok := m.cache.get(c.ID)
	if !ok {
		m.logger.Debug("Skipping play of unloaded sound", slog.Int("resource", int(c.ID)))
		m.metrics.command(c.Kind(), outcomeSkipped)
		return
	}

	stream, err := m.engine.Play(h, c.Volume, c.Volume, playPriority, c.Repetitions, playRate)
	if err != nil {
		m.logger.Warn("Failed to play sound",
			slog.Int("resource", int(c.ID)),
			slog.Int("handle", int(h)),
			slog.Any("error", err))
		m.metrics.engineFailure("play")
		m.metrics.command(c.Kind(), outcomeFailed)
		return
	}

	m.metrics.command(c.Kind(), outcomeApplied)
	m.logger.Debug("Playing sound",
		slog.Int("resource", int(c.ID)),
		slog.Int("stream", int(stream)))
}

func (m *Manager) unload(c Unload) {
	h, ok := m.cache.get(c.ID)
	if !ok {
		m.metrics.command(c.Kind(), outcomeSkipped)
		return
	}

	// The handle is not trusted after an unload attempt, failed or not
	m.cache.remove(c.ID)
	m.metrics.cached(m.cache.size())

	if err := m.engine.Unload(h); err != nil {
		m.logger.Warn("Failed to unload sound",
			slog.Int("resource", int(c.ID)),
			slog.Int("handle", int(h)),
			slog.Any("error", err))
		m.metrics.engineFailure("unload")
		m.metrics.command(c.Kind(), outcomeFailed)
		return
	}
	m.metrics.command(c.Kind(), outcomeApplied)
}

// shutdown handles Cancel: nothing behind it runs, the cache is cleared and
// the engine released exactly once.
func (m *Manager) shutdown() {
	m.cancelRequested.Store(true)
	m.stopped.Store(true)

	dropped := m.queue.Close()
	cleared := m.cache.reset()
	m.metrics.queueDepth(0)
	m.metrics.cached(0)

	if err := m.release(); err != nil {
		m.logger.Warn("Failed to release sound engine", slog.Any("error", err))
		m.metrics.engineFailure("release")
	}
	m.metrics.command(Cancel{}.Kind(), outcomeApplied)

	m.logger.Info("Sound manager stopped",
		slog.Int("dropped_commands", dropped),
		slog.Int("cleared_resources", cleared))
}

func (m *Manager) release() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine release panicked: %v", r)
		}
	}()
	return m.engine.Release()
}
