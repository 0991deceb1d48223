package pool

import (
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// build turns a decoded buffer into the streamer for one Play call
func build(buffer *beep.Buffer, left, right float64, repetitions int, rate float64) (beep.Streamer, error) {
	var opts []beep.LoopOption
	if repetitions >= 0 {
		opts = append(opts, beep.LoopTimes(repetitions))
	}

	looped, err := beep.Loop2(buffer.Streamer(0, buffer.Len()), opts...)
	if err != nil {
		return nil, err
	}

	var s beep.Streamer = looped
	if rate != 1 {
		s = beep.ResampleRatio(resampleQuality, rate, s)
	}

	return gain(s, clamp(left), clamp(right)), nil
}

// gain scales each channel linearly
func gain(s beep.Streamer, left, right float64) beep.Streamer {
	if left == right {
		if left == 1 {
			return s
		}
		return &effects.Gain{Streamer: s, Gain: left - 1}
	}

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		for i := range samples[:n] {
			samples[i][0] *= left
			samples[i][1] *= right
		}
		return n, ok
	})
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
