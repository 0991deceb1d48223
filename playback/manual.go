package playback

import (
	"context"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// Manual is an output without an audio device. Samples are pulled with
// Drain, or discarded in real time by Run on hosts that have no speaker.
type Manual struct {
	*Playback
	mu sync.Mutex
}

var _ Output = (*Manual)(nil)

// NewManual creates a manual output producing samples at sampleRate
func NewManual(sampleRate beep.SampleRate) *Manual {
	m := &Manual{}
	m.Playback = newPlayback(sampleRate, &m.mu)
	return m
}

// Drain streams n samples from the bus and returns them
func (m *Manual) Drain(n int) [][2]float64 {
	samples := make([][2]float64, n)
	m.drainInto(samples)
	return samples
}

func (m *Manual) drainInto(samples [][2]float64) {
	m.Lock()
	defer m.Unlock()

	filled, _ := m.bus.ctrl.Stream(samples)
	for i := filled; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
}

// Run drains the bus at the output's sample rate until ctx is done, so
// streams finish as if they were played.
func (m *Manual) Run(ctx context.Context, tick time.Duration) error {
	samples := make([][2]float64, m.sampleRate.N(tick))

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.drainInto(samples)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
