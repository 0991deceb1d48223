// Package music plays one track at a time, such as background music or a
// one-off jingle. Starting a track replaces the previous one.
package music

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"sfxd/logger"
	"sfxd/playback"
	"sfxd/sound"
)

// ErrClosed is returned by Play after Close
var ErrClosed = errors.New("music player is closed")

const resampleQuality = 4

// Opener opens a resource as a stream
type Opener interface {
	Open(id sound.ResourceID) (beep.StreamSeekCloser, beep.Format, error)
}

type track struct {
	id      sound.ResourceID
	source  beep.StreamSeekCloser
	volume  *effects.Volume
	ctrl    *beep.Ctrl
	release sync.Once
}

// Player holds at most one active track
type Player struct {
	out    playback.Output
	opener Opener
	logger *slog.Logger

	mu      sync.Mutex
	current *track
	volume  float64
	closed  bool
}

// New creates a player sending its track to out
func New(out playback.Output, opener Opener) *Player {
	return &Player{
		out:    out,
		opener: opener,
		logger: logger.WithComponent("music"),
	}
}

// Play stops and releases the current track, then starts id. The track is
// released automatically when it ends.
func (p *Player) Play(id sound.ResourceID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.stopLocked()

	source, format, err := p.opener.Open(id)
	if err != nil {
		return fmt.Errorf("failed to open track %d: %w", id, err)
	}

	var s beep.Streamer = source
	if rate := p.out.SampleRate(); format.SampleRate != rate {
		s = beep.Resample(resampleQuality, format.SampleRate, rate, source)
	}

	t := &track{
		id:     id,
		source: source,
		volume: &effects.Volume{Streamer: s, Base: 2, Volume: p.volume, Silent: silent(p.volume)},
	}
	// The callback runs under the output lock, so the release happens on
	// its own goroutine.
	t.ctrl = &beep.Ctrl{Streamer: beep.Seq(t.volume, beep.Callback(func() {
		go p.finished(t)
	}))}

	if err := p.out.Add(t.ctrl); err != nil {
		p.closeSource(t)
		return fmt.Errorf("failed to start track %d: %w", id, err)
	}
	p.current = t

	p.logger.Debug("Playing track", slog.Int("resource", int(id)))
	return nil
}

// Stop stops and releases the current track, if any
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Current returns the id of the active track
func (p *Player) Current() (sound.ResourceID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return 0, false
	}
	return p.current.id, true
}

// Playing reports whether a track is active
func (p *Player) Playing() bool {
	_, ok := p.Current()
	return ok
}

// SetVolume sets the track volume as a base 2 exponent; -10 and below mute
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = volume
	if p.current != nil {
		p.out.Lock()
		p.current.volume.Volume = volume
		p.current.volume.Silent = silent(volume)
		p.out.Unlock()
	}
}

// Close stops the current track and rejects further Play calls
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	t := p.current
	if t == nil {
		return
	}
	p.current = nil

	p.out.Lock()
	t.ctrl.Streamer = nil
	p.out.Unlock()

	p.closeSource(t)
}

// finished releases a track that played to its end. A newer track started
// in the meantime is left alone.
func (p *Player) finished(t *track) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == t {
		p.current = nil
	}
	p.closeSource(t)
}

func (p *Player) closeSource(t *track) {
	t.release.Do(func() {
		if err := t.source.Close(); err != nil {
			p.logger.Warn("Failed to release track",
				slog.Int("resource", int(t.id)),
				slog.Any("error", err))
		}
	})
}

func silent(volume float64) bool {
	return volume <= -10
}
