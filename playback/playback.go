package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Speaker plays the output bus through the system audio device
type Speaker struct {
	*Playback
}

var _ Output = (*Speaker)(nil)

// speakerLock adapts the speaker's package level lock to sync.Locker
type speakerLock struct{}

func (speakerLock) Lock()   { speaker.Lock() }
func (speakerLock) Unlock() { speaker.Unlock() }

// NewSpeaker initializes the audio device and starts playing an empty mixer
func NewSpeaker(sampleRate beep.SampleRate, buffer time.Duration) (*Speaker, error) {
	err := speaker.Init(sampleRate, sampleRate.N(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p := newPlayback(sampleRate, speakerLock{})
	speaker.Play(p.bus.ctrl)

	return &Speaker{Playback: p}, nil
}

// Close clears all streams and closes the audio device
func (s *Speaker) Close() error {
	if err := s.Playback.Close(); errors.Is(err, ErrClosed) {
		return nil
	}
	speaker.Close()
	return nil
}

func newPlayback(sampleRate beep.SampleRate, locker sync.Locker) *Playback {
	return &Playback{
		locker:     locker,
		bus:        newBus(),
		sampleRate: sampleRate,
	}
}

// Add adds streams to the output mixer
func (p *Playback) Add(s ...beep.Streamer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	p.locker.Lock()
	p.bus.mixer.Add(s...)
	p.locker.Unlock()
	return nil
}

// Lock locks the audio stream. No sample is produced until Unlock.
func (p *Playback) Lock() {
	p.locker.Lock()
}

// Unlock releases the lock taken by Lock
func (p *Playback) Unlock() {
	p.locker.Unlock()
}

// SampleRate returns the rate streams must be produced at
func (p *Playback) SampleRate() beep.SampleRate {
	return p.sampleRate
}

// SetVolume sets the master volume as a base 2 exponent. 0 leaves the signal
// unchanged, -1 halves it. Values at or below -10 mute the output.
func (p *Playback) SetVolume(volume float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.closed {
		p.locker.Lock()
		p.bus.volume.Volume = volume
		p.bus.volume.Silent = volume <= -10
		p.locker.Unlock()
	}
}

// Pause pauses the playback
func (p *Playback) Pause() {
	p.setPaused(true)
}

// Resume resumes the playback
func (p *Playback) Resume() {
	p.setPaused(false)
}

func (p *Playback) setPaused(paused bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.closed {
		p.locker.Lock()
		p.bus.ctrl.Paused = paused
		p.locker.Unlock()
	}
}

// IsPlaying returns true if the output is open and not paused
func (p *Playback) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}

	p.locker.Lock()
	playing := !p.bus.ctrl.Paused
	p.locker.Unlock()

	return playing
}

// Active returns the number of streams in the mixer
func (p *Playback) Active() int {
	p.locker.Lock()
	defer p.locker.Unlock()
	return p.bus.mixer.Len()
}

// Close clears all streams. Later calls return ErrClosed.
func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.closed = true

	p.locker.Lock()
	p.bus.mixer.Clear()
	p.locker.Unlock()

	return nil
}
