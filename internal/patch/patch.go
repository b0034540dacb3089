// Package patch holds the synthesizer's parameter snapshot. A Params value is
// treated as immutable once handed to the engine; updates replace it whole.
package patch

import (
	"math"

	"github.com/cbegin/polystep/internal/dsp"
	"github.com/cbegin/polystep/internal/lfo"
)

// NumOscillators is the fixed oscillator count per voice.
const NumOscillators = 4

const (
	MinCutoff = 20.0
	MinQ      = 0.0001
)

type Oscillator struct {
	Wave        dsp.Waveform
	DetuneCents float64
	Enabled     bool
	Gain        float64 // [0,1]
}

type LFO struct {
	Wave   dsp.Waveform
	RateHz float64
	Depth  float64 // [0,1], scaled per target by lfo.DepthFor
	Delay  float64 // seconds before the fade-in starts
	Fade   float64 // seconds to reach full depth; 0 snaps
	Target lfo.Target
}

type Filter struct {
	CutoffHz float64
	Q        float64
}

// ADSR times are seconds; Sustain is a level in [0,1].
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// FilterEnvelope is an ADSR whose normalized output is scaled by Amount (Hz)
// before being added to the filter cutoff.
type FilterEnvelope struct {
	ADSR
	Amount float64
}

type Params struct {
	Osc       [NumOscillators]Oscillator
	LFO       LFO
	Filter    Filter
	AmpEnv    ADSR
	FilterEnv FilterEnvelope
}

// Default returns the power-on patch.
func Default() Params {
	return Params{
		Osc: [NumOscillators]Oscillator{
			{Wave: dsp.Sawtooth, Enabled: true, Gain: 0.8},
			{Wave: dsp.Square, DetuneCents: 7, Enabled: true, Gain: 0.5},
			{Wave: dsp.Sine, DetuneCents: -1200, Enabled: false, Gain: 0.5},
			{Wave: dsp.Triangle, DetuneCents: 1200, Enabled: false, Gain: 0.3},
		},
		LFO: LFO{
			Wave:   dsp.Sine,
			RateHz: 5,
			Depth:  0,
			Target: lfo.Pitch,
		},
		Filter: Filter{CutoffHz: 2000, Q: 1},
		AmpEnv: ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.3},
		FilterEnv: FilterEnvelope{
			ADSR:   ADSR{Attack: 0.05, Decay: 0.2, Sustain: 0.5, Release: 0.3},
			Amount: 2000,
		},
	}
}

// Clamped returns a copy with every field forced into its legal range for
// the given sample rate. Out-of-range values are clamped, never rejected.
func (p Params) Clamped(sampleRate float64) Params {
	nyquist := sampleRate / 2
	for i := range p.Osc {
		o := &p.Osc[i]
		o.Wave = clampWave(o.Wave)
		o.DetuneCents = finite(o.DetuneCents, 0)
		o.Gain = unit(o.Gain)
	}

	p.LFO.Wave = clampWave(p.LFO.Wave)
	p.LFO.RateHz = dsp.Clamp(finite(p.LFO.RateHz, 0), 0, nyquist)
	p.LFO.Depth = unit(p.LFO.Depth)
	p.LFO.Delay = seconds(p.LFO.Delay)
	p.LFO.Fade = seconds(p.LFO.Fade)
	if !p.LFO.Target.Valid() {
		p.LFO.Target = lfo.Pitch
	}

	p.Filter.CutoffHz = dsp.Clamp(finite(p.Filter.CutoffHz, nyquist), MinCutoff, nyquist)
	p.Filter.Q = math.Max(finite(p.Filter.Q, MinQ), MinQ)

	p.AmpEnv = p.AmpEnv.clamped()
	p.FilterEnv.ADSR = p.FilterEnv.ADSR.clamped()
	p.FilterEnv.Amount = dsp.Clamp(finite(p.FilterEnv.Amount, 0), 0, nyquist)
	return p
}

// Hold returns the longest release tail of the two envelopes.
func (p Params) Hold() float64 {
	return math.Max(p.AmpEnv.Release, p.FilterEnv.Release)
}

func (e ADSR) clamped() ADSR {
	return ADSR{
		Attack:  seconds(e.Attack),
		Decay:   seconds(e.Decay),
		Sustain: unit(e.Sustain),
		Release: seconds(e.Release),
	}
}

func clampWave(w dsp.Waveform) dsp.Waveform {
	if w < dsp.Sine || w > dsp.Triangle {
		return dsp.Sine
	}
	return w
}

func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func unit(v float64) float64 { return dsp.Clamp(finite(v, 0), 0, 1) }

func seconds(v float64) float64 { return math.Max(finite(v, 0), 0) }
