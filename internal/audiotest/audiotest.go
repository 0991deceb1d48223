// Package audiotest writes small audio fixtures for tests.
package audiotest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// Constant returns a stereo streamer of n samples that all equal value
func Constant(value float64, n int) beep.Streamer {
	return beep.Take(n, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{value, value}
		}
		return len(samples), true
	}))
}

// WriteWAV writes a 16 bit stereo WAV file of n samples equal to value and
// returns its path.
func WriteWAV(t testing.TB, dir, name string, rate beep.SampleRate, n int, value float64) string {
	t.Helper()

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create %s: %v", p, err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, Constant(value, n), format); err != nil {
		t.Fatalf("encode %s: %v", p, err)
	}
	return p
}
