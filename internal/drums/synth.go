// Package drums synthesizes the sequencer's four percussion voices as
// self-terminating one-shot streams.
package drums

import (
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"

	"github.com/cbegin/polystep/internal/dsp"
)

// Voice timings in seconds.
const (
	kickDecay  = 0.1
	kickLength = 0.15
	snareNoise = 0.2
	snareDecay = 0.15
	snareTone  = 0.1
	hatNoise   = 0.1
	hatDecay   = 0.05
	crashNoise = 1.5
	crashDecay = 1.2
	resampleQ  = 4
)

// Synth builds drum hits at one sample rate. Each call returns a fresh,
// independent stream; nothing is shared between hits except the noise
// generator.
type Synth struct {
	format beep.Format
	rng    *rand.Rand
}

// NewSynth returns a synth for streams in format. seed fixes the noise
// sequence; pass 0 for a random seed.
func NewSynth(format beep.Format, seed uint64) *Synth {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Synth{format: format, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Synth) sr() float64 { return float64(s.format.SampleRate) }

func (s *Synth) frames(seconds float64) int {
	return s.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
}

// Voice returns the one-shot for track at playback rate. Invalid tracks
// return nil.
func (s *Synth) Voice(track Track, rate float64) beep.Streamer {
	if rate <= 0 {
		rate = 1
	}
	switch track {
	case Kick:
		return s.Kick(rate)
	case Snare:
		return s.Snare(rate)
	case HiHat:
		return s.HiHat(rate)
	case Crash:
		return s.Crash(rate)
	}
	return nil
}

// Kick is a sine dropping from 150*rate Hz toward zero with an exponential
// amplitude decay, cut at 150ms.
func (s *Synth) Kick(rate float64) beep.Streamer {
	return &sweep{
		sr:    s.sr(),
		total: s.frames(kickLength),
		f0:    150 * rate,
		f1:    0.01,
		a0:    1,
		a1:    0.01,
		dur:   kickDecay,
	}
}

// Snare mixes a highpassed noise burst, itself played back at rate, with a
// short triangle body.
func (s *Synth) Snare(rate float64) beep.Streamer {
	sr := s.sr()
	buf := noiseBuffer(s.format, s.frames(snareNoise), s.rng)
	noise := beep.ResampleRatio(resampleQ, rate, buf.Streamer(0, buf.Len()))
	rattle := &decay{src: newHighpass(noise, sr, 1000*rate), sr: sr, a0: 0.5, a1: 0.01, dur: snareDecay}

	body := &decay{
		src: beep.Take(s.frames(snareTone), &tone{wave: dsp.Triangle, inc: 100 * rate / sr}),
		sr:  sr,
		a0:  0.7,
		a1:  0.01,
		dur: snareTone,
	}
	return beep.Mix(rattle, body)
}

// HiHat is a short noise burst through a 7kHz*rate highpass.
func (s *Synth) HiHat(rate float64) beep.Streamer {
	return s.noiseHit(hatNoise, 7000*rate, 0.3, 0.01, hatDecay)
}

// Crash is a long noise burst through a 3kHz*rate highpass.
func (s *Synth) Crash(rate float64) beep.Streamer {
	return s.noiseHit(crashNoise, 3000*rate, 0.4, 0.001, crashDecay)
}

func (s *Synth) noiseHit(length, cutoff, a0, a1, dur float64) beep.Streamer {
	sr := s.sr()
	buf := noiseBuffer(s.format, s.frames(length), s.rng)
	return &decay{
		src: newHighpass(buf.Streamer(0, buf.Len()), sr, cutoff),
		sr:  sr,
		a0:  a0,
		a1:  a1,
		dur: dur,
	}
}
