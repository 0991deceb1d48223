package music

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfxd/internal/audiotest"
	"sfxd/playback"
	"sfxd/sound"
)

const testRate = beep.SampleRate(8000)

var errNoTrack = errors.New("no such track")

type closingStream struct {
	beep.StreamSeeker
	closed atomic.Int32
}

func (c *closingStream) Close() error {
	c.closed.Add(1)
	return nil
}

// trackOpener opens constant tracks and remembers every stream it handed out
type trackOpener struct {
	mu     sync.Mutex
	values map[sound.ResourceID]float64
	length int
	rate   beep.SampleRate
	opened map[sound.ResourceID][]*closingStream
}

func newTrackOpener(length int, values map[sound.ResourceID]float64) *trackOpener {
	return &trackOpener{
		values: values,
		length: length,
		rate:   testRate,
		opened: make(map[sound.ResourceID][]*closingStream),
	}
}

func (o *trackOpener) Open(id sound.ResourceID) (beep.StreamSeekCloser, beep.Format, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	v, ok := o.values[id]
	if !ok {
		return nil, beep.Format{}, errNoTrack
	}

	format := beep.Format{SampleRate: o.rate, NumChannels: 2, Precision: 2}
	buf := beep.NewBuffer(format)
	buf.Append(audiotest.Constant(v, o.length))

	s := &closingStream{StreamSeeker: buf.Streamer(0, buf.Len())}
	o.opened[id] = append(o.opened[id], s)
	return s, format, nil
}

func (o *trackOpener) last(id sound.ResourceID) *closingStream {
	o.mu.Lock()
	defer o.mu.Unlock()

	streams := o.opened[id]
	return streams[len(streams)-1]
}

func TestPlayStartsTrack(t *testing.T) {
	out := playback.NewManual(testRate)
	opener := newTrackOpener(1000, map[sound.ResourceID]float64{1: 0.5})
	p := New(out, opener)
	defer p.Close()

	require.NoError(t, p.Play(1))

	id, ok := p.Current()
	assert.True(t, ok)
	assert.Equal(t, sound.ResourceID(1), id)
	assert.InDelta(t, 0.5, out.Drain(1)[0][0], 1e-9)
}

func TestPlayReplacesCurrentTrack(t *testing.T) {
	out := playback.NewManual(testRate)
	opener := newTrackOpener(1000, map[sound.ResourceID]float64{1: 0.5, 2: 0.25})
	p := New(out, opener)
	defer p.Close()

	require.NoError(t, p.Play(1))
	first := opener.last(1)
	require.NoError(t, p.Play(2))

	assert.Equal(t, int32(1), first.closed.Load(), "previous track is released")
	assert.InDelta(t, 0.25, out.Drain(1)[0][0], 1e-9, "only the new track is audible")
	assert.Equal(t, 1, out.Active())

	id, _ := p.Current()
	assert.Equal(t, sound.ResourceID(2), id)
}

func TestTrackReleasedOnCompletion(t *testing.T) {
	out := playback.NewManual(testRate)
	opener := newTrackOpener(50, map[sound.ResourceID]float64{1: 0.5, 2: 0.25})
	p := New(out, opener)
	defer p.Close()

	require.NoError(t, p.Play(1))
	out.Drain(100)

	assert.Eventually(t, func() bool { return !p.Playing() }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), opener.last(1).closed.Load())

	require.NoError(t, p.Play(2))
	assert.True(t, p.Playing())
}

func TestStop(t *testing.T) {
	out := playback.NewManual(testRate)
	opener := newTrackOpener(1000, map[sound.ResourceID]float64{1: 0.5})
	p := New(out, opener)
	defer p.Close()

	p.Stop() // nothing playing
	require.NoError(t, p.Play(1))
	p.Stop()

	assert.False(t, p.Playing())
	assert.Zero(t, out.Drain(1)[0][0])
	assert.Equal(t, int32(1), opener.last(1).closed.Load())
}

func TestSetVolume(t *testing.T) {
	out := playback.NewManual(testRate)
	opener := newTrackOpener(1000, map[sound.ResourceID]float64{1: 0.5})
	p := New(out, opener)
	defer p.Close()

	p.SetVolume(-1)
	require.NoError(t, p.Play(1))
	assert.InDelta(t, 0.25, out.Drain(1)[0][0], 1e-9)

	p.SetVolume(-10)
	assert.Zero(t, out.Drain(1)[0][0])
}

func TestPlayResamples(t *testing.T) {
	out := playback.NewManual(testRate)
	opener := newTrackOpener(100, map[sound.ResourceID]float64{1: 0.5})
	opener.rate = testRate / 2
	p := New(out, opener)
	defer p.Close()

	require.NoError(t, p.Play(1))
	samples := out.Drain(300)
	assert.InDelta(t, 0.5, samples[150][0], 1e-3, "half rate source lasts twice as long")
	assert.Zero(t, samples[250][0])
}

func TestPlayErrors(t *testing.T) {
	out := playback.NewManual(testRate)
	opener := newTrackOpener(1000, map[sound.ResourceID]float64{1: 0.5})
	p := New(out, opener)

	assert.ErrorIs(t, p.Play(9), errNoTrack)
	assert.False(t, p.Playing())

	require.NoError(t, p.Play(1))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.Play(1), ErrClosed)
	assert.False(t, p.Playing())
	assert.Equal(t, int32(1), opener.last(1).closed.Load())
}
