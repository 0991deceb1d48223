// Package pool implements the sound engine: resources decoded into memory
// and played on a bounded number of concurrent streams.
package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"

	"sfxd/logger"
	"sfxd/playback"
	"sfxd/sound"
)

var (
	// ErrUnknownHandle is returned for a handle that was never loaded or already unloaded
	ErrUnknownHandle = errors.New("unknown handle")
	// ErrReleased is returned by every call after Release
	ErrReleased = errors.New("sound pool released")
	// ErrNoFreeStream is returned when every stream is busy with a higher priority
	ErrNoFreeStream = errors.New("no free stream")
	// ErrInvalidRate is returned for a rate outside MinRate and MaxRate
	ErrInvalidRate = errors.New("playback rate out of range")
)

// Playback rate limits, 1.0 is the original speed
const (
	MinRate = 0.5
	MaxRate = 2.0
)

const resampleQuality = 4

// Source decodes resources into memory
type Source interface {
	Decode(id sound.ResourceID, sampleRate beep.SampleRate) (*beep.Buffer, error)
}

type sample struct {
	id     sound.ResourceID
	buffer *beep.Buffer
}

type stream struct {
	id       sound.StreamID
	priority int
	ctrl     *beep.Ctrl
	done     atomic.Bool
}

// SoundPool is a sound.Engine over a playback.Output.
//
// Lock order: mu is taken before the output lock. Stream completion
// callbacks run under the output lock and only touch atomics.
type SoundPool struct {
	out        playback.Output
	source     Source
	maxStreams int
	logger     *slog.Logger

	mu         sync.Mutex
	samples    map[sound.Handle]*sample
	streams    []*stream // oldest first
	nextHandle sound.Handle
	nextStream sound.StreamID
	released   bool
}

var _ sound.Engine = (*SoundPool)(nil)

// New creates a pool playing at most maxStreams streams at once
func New(out playback.Output, source Source, maxStreams int) (*SoundPool, error) {
	if maxStreams < 1 {
		return nil, fmt.Errorf("max streams must be at least 1, got %d", maxStreams)
	}

	return &SoundPool{
		out:        out,
		source:     source,
		maxStreams: maxStreams,
		logger:     logger.WithComponent("pool"),
		samples:    make(map[sound.Handle]*sample),
	}, nil
}

// Load decodes a resource at the output's sample rate. Priority is kept for
// compatibility and currently unused.
func (p *SoundPool) Load(id sound.ResourceID, priority int) (sound.Handle, error) {
	if p.isReleased() {
		return 0, ErrReleased
	}

	buffer, err := p.source.Decode(id, p.out.SampleRate())
	if err != nil {
		return 0, fmt.Errorf("failed to load resource %d: %w", id, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return 0, ErrReleased
	}

	p.nextHandle++
	p.samples[p.nextHandle] = &sample{id: id, buffer: buffer}
	return p.nextHandle, nil
}

// Play starts a stream. left and right are linear gains clamped to [0, 1].
// repetitions 0 plays once, n > 0 repeats n more times and a negative value
// loops until the stream is evicted or the pool released.
func (p *SoundPool) Play(h sound.Handle, left, right float64, priority, repetitions int, rate float64) (sound.StreamID, error) {
	if rate < MinRate || rate > MaxRate {
		return 0, fmt.Errorf("%w: %.2f", ErrInvalidRate, rate)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return 0, ErrReleased
	}
	s, ok := p.samples[h]
	if !ok {
		return 0, fmt.Errorf("handle %d: %w", h, ErrUnknownHandle)
	}

	p.prune()
	if len(p.streams) >= p.maxStreams {
		if err := p.evict(priority); err != nil {
			return 0, err
		}
	}

	streamer, err := build(s.buffer, left, right, repetitions, rate)
	if err != nil {
		return 0, fmt.Errorf("failed to build stream for handle %d: %w", h, err)
	}

	p.nextStream++
	st := &stream{id: p.nextStream, priority: priority}
	st.ctrl = &beep.Ctrl{Streamer: beep.Seq(streamer, beep.Callback(func() {
		st.done.Store(true)
	}))}

	if err := p.out.Add(st.ctrl); err != nil {
		return 0, fmt.Errorf("failed to start stream: %w", err)
	}
	p.streams = append(p.streams, st)

	return st.id, nil
}

// Unload forgets a handle. Streams already playing it run to completion.
func (p *SoundPool) Unload(h sound.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return ErrReleased
	}
	if _, ok := p.samples[h]; !ok {
		return fmt.Errorf("handle %d: %w", h, ErrUnknownHandle)
	}

	delete(p.samples, h)
	return nil
}

// Release stops every stream and drops every resource. It does not close
// the output, which may be shared. Calling it again does nothing.
func (p *SoundPool) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return nil
	}
	p.released = true

	p.out.Lock()
	for _, st := range p.streams {
		st.ctrl.Streamer = nil
	}
	p.out.Unlock()

	p.logger.Debug("Sound pool released",
		slog.Int("streams", len(p.streams)),
		slog.Int("resources", len(p.samples)))

	p.streams = nil
	clear(p.samples)
	return nil
}

// Active returns the number of streams still playing
func (p *SoundPool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prune()
	return len(p.streams)
}

// Loaded returns the number of loaded resources
func (p *SoundPool) Loaded() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.samples)
}

func (p *SoundPool) isReleased() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// prune drops finished streams. Caller holds mu.
func (p *SoundPool) prune() {
	p.streams = slices.DeleteFunc(p.streams, func(st *stream) bool {
		return st.done.Load()
	})
}

// evict stops the lowest priority stream, the oldest one on ties, to make
// room for a stream of the given priority. Caller holds mu.
func (p *SoundPool) evict(priority int) error {
	victim := 0
	for i, st := range p.streams {
		if st.priority < p.streams[victim].priority {
			victim = i
		}
	}

	st := p.streams[victim]
	if st.priority > priority {
		return ErrNoFreeStream
	}

	p.out.Lock()
	st.ctrl.Streamer = nil
	p.out.Unlock()

	p.streams = append(p.streams[:victim], p.streams[victim+1:]...)
	p.logger.Debug("Evicted stream",
		slog.Int("stream", int(st.id)),
		slog.Int("priority", st.priority))
	return nil
}
