package playback

import (
	"errors"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// ErrClosed is returned when adding streams to a closed output
var ErrClosed = errors.New("playback is closed")

// Output is where engines send their streams. Add, Pause and SetVolume take
// the output lock themselves; Lock/Unlock let callers change the state of
// streams that are already playing.
type Output interface {
	Add(s ...beep.Streamer) error
	Lock()
	Unlock()
	SampleRate() beep.SampleRate
	Close() error
}

// bus is the mixing graph shared by every output: mixer, master volume and
// a pause switch.
type bus struct {
	mixer  *beep.Mixer
	volume *effects.Volume
	ctrl   *beep.Ctrl
}

func newBus() *bus {
	mixer := &beep.Mixer{}
	volume := &effects.Volume{Streamer: mixer, Base: 2}
	return &bus{
		mixer:  mixer,
		volume: volume,
		ctrl:   &beep.Ctrl{Streamer: volume},
	}
}

// Playback holds the state common to the speaker and manual outputs.
// locker is the lock that guards the bus while audio is streamed.
type Playback struct {
	mu         sync.RWMutex
	locker     sync.Locker
	bus        *bus
	sampleRate beep.SampleRate
	closed     bool
}
