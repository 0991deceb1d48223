package playback

import (
	"context"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = beep.SampleRate(8000)

func constant(value float64, n int) beep.Streamer {
	return beep.Take(n, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{value, value}
		}
		return len(samples), true
	}))
}

func TestManualMixesStreams(t *testing.T) {
	out := NewManual(testRate)
	require.NoError(t, out.Add(constant(0.25, 100), constant(0.5, 50)))
	assert.Equal(t, 2, out.Active())

	samples := out.Drain(100)
	assert.InDelta(t, 0.75, samples[0][0], 1e-9)
	assert.InDelta(t, 0.75, samples[49][1], 1e-9)
	assert.InDelta(t, 0.25, samples[50][0], 1e-9)

	out.Drain(10)
	assert.Equal(t, 0, out.Active(), "finished streams leave the mixer")
	assert.Equal(t, testRate, out.SampleRate())
}

func TestManualVolumeAndPause(t *testing.T) {
	out := NewManual(testRate)
	require.NoError(t, out.Add(constant(0.5, 1000)))

	out.SetVolume(-1)
	assert.InDelta(t, 0.25, out.Drain(1)[0][0], 1e-9)

	out.SetVolume(-10)
	assert.Zero(t, out.Drain(1)[0][0])

	out.SetVolume(0)
	out.Pause()
	assert.False(t, out.IsPlaying())
	assert.Zero(t, out.Drain(1)[0][0])

	out.Resume()
	assert.True(t, out.IsPlaying())
	assert.InDelta(t, 0.5, out.Drain(1)[0][0], 1e-9)
}

func TestManualClose(t *testing.T) {
	out := NewManual(testRate)
	require.NoError(t, out.Add(constant(0.5, 1000)))

	require.NoError(t, out.Close())
	assert.ErrorIs(t, out.Close(), ErrClosed)
	assert.ErrorIs(t, out.Add(constant(0.5, 10)), ErrClosed)
	assert.False(t, out.IsPlaying())
	assert.Equal(t, 0, out.Active())
}

func TestManualRunDrainsInRealTime(t *testing.T) {
	out := NewManual(testRate)
	require.NoError(t, out.Add(constant(0.5, testRate.N(20*time.Millisecond))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- out.Run(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return out.Active() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
