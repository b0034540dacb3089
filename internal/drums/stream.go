package drums

import (
	"math"
	"math/rand/v2"

	"github.com/gopxl/beep"

	"github.com/cbegin/polystep/internal/dsp"
)

// sweep is a sine whose frequency and amplitude both decay exponentially.
type sweep struct {
	sr          float64
	pos, total  int
	phase       float64
	f0, f1      float64
	a0, a1, dur float64
}

func (s *sweep) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.total {
		return 0, false
	}
	for i := range samples {
		if s.pos >= s.total {
			return i, true
		}
		t := float64(s.pos) / s.sr
		v := math.Sin(2*math.Pi*s.phase) * dsp.ExpRamp(s.a0, s.a1, s.dur, t)
		samples[i] = [2]float64{v, v}
		s.phase += dsp.ExpRamp(s.f0, s.f1, s.dur, t) / s.sr
		s.phase -= math.Floor(s.phase)
		s.pos++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

// tone is a fixed-frequency oscillator of unbounded length.
type tone struct {
	wave  dsp.Waveform
	inc   float64
	phase float64
}

func (o *tone) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := o.wave.Sample(o.phase)
		samples[i] = [2]float64{v, v}
		o.phase += o.inc
		o.phase -= math.Floor(o.phase)
	}
	return len(samples), true
}

func (o *tone) Err() error { return nil }

// decay multiplies a stream by an exponential gain curve from a0 to a1 over
// dur seconds, holding a1 afterwards.
type decay struct {
	src         beep.Streamer
	sr          float64
	pos         int
	a0, a1, dur float64
}

func (d *decay) Stream(samples [][2]float64) (int, bool) {
	n, ok := d.src.Stream(samples)
	for i := 0; i < n; i++ {
		g := dsp.ExpRamp(d.a0, d.a1, d.dur, float64(d.pos)/d.sr)
		samples[i][0] *= g
		samples[i][1] *= g
		d.pos++
	}
	return n, ok
}

func (d *decay) Err() error { return d.src.Err() }

// highpass runs each channel through its own biquad.
type highpass struct {
	src  beep.Streamer
	l, r *dsp.Biquad
}

func newHighpass(src beep.Streamer, sr, cutoff float64) *highpass {
	return &highpass{
		src: src,
		l:   dsp.NewBiquad(dsp.Highpass, sr, cutoff, math.Sqrt2/2),
		r:   dsp.NewBiquad(dsp.Highpass, sr, cutoff, math.Sqrt2/2),
	}
}

func (h *highpass) Stream(samples [][2]float64) (int, bool) {
	n, ok := h.src.Stream(samples)
	for i := 0; i < n; i++ {
		samples[i][0] = h.l.Process(samples[i][0])
		samples[i][1] = h.r.Process(samples[i][1])
	}
	return n, ok
}

func (h *highpass) Err() error { return h.src.Err() }

// noiseBuffer fills a buffer with n frames of uniform white noise in [-1, 1],
// the same value on both channels.
func noiseBuffer(format beep.Format, n int, rng *rand.Rand) *beep.Buffer {
	buf := beep.NewBuffer(format)
	buf.Append(beep.Take(n, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := rng.Float64()*2 - 1
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})))
	return buf
}
