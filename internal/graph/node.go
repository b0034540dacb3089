package graph

import (
	"math"

	"github.com/cbegin/polystep/internal/dsp"
	"github.com/cbegin/polystep/internal/param"
)

// Port names an automatable input on a node.
type Port int

const (
	Frequency Port = iota
	Detune
	Gain
	Q
	Offset
	numPorts
)

var portNames = [...]string{"frequency", "detune", "gain", "q", "offset"}

func (p Port) String() string {
	if p < 0 || p >= numPorts {
		return "port(?)"
	}
	return portNames[p]
}

// Node is one processing stage. Effective port values (automation plus any
// connected modulators) are resolved by the graph before process is called.
type Node interface {
	Param(Port) *param.Param
	process(in, t float64, pv *[numPorts]float64) float64
}

// source gives a node a start/stop window; it is silent outside [start, stop).
type source struct {
	start, stop float64
}

func newSource() source { return source{stop: math.Inf(1)} }

// Start schedules the node to begin producing output at t.
func (s *source) Start(t float64) { s.start = t }

// Stop schedules the node to go silent at t. The earliest stop wins.
func (s *source) Stop(t float64) {
	if t < s.stop {
		s.stop = t
	}
}

// StopTime returns the scheduled stop, +Inf if none.
func (s *source) StopTime() float64 { return s.stop }

func (s *source) playing(t float64) bool { return t >= s.start && t < s.stop }

// Oscillator is a periodic source with frequency (Hz) and detune (cents) ports.
type Oscillator struct {
	source
	wave       dsp.Waveform
	freq       *param.Param
	detune     *param.Param
	phase      float64
	sampleRate float64
}

func NewOscillator(sampleRate float64, wave dsp.Waveform, freqHz float64) *Oscillator {
	return &Oscillator{
		source:     newSource(),
		wave:       wave,
		freq:       param.New(freqHz),
		detune:     param.New(0),
		sampleRate: sampleRate,
	}
}

// SetWave switches the waveform; the phase is kept so the switch is click-free in time.
func (o *Oscillator) SetWave(w dsp.Waveform) { o.wave = w }

func (o *Oscillator) Wave() dsp.Waveform { return o.wave }

func (o *Oscillator) Param(p Port) *param.Param {
	switch p {
	case Frequency:
		return o.freq
	case Detune:
		return o.detune
	}
	return nil
}

func (o *Oscillator) process(_, t float64, pv *[numPorts]float64) float64 {
	if !o.playing(t) {
		return 0
	}
	out := o.wave.Sample(o.phase)
	o.phase += pv[Frequency] * dsp.CentsRatio(pv[Detune]) / o.sampleRate
	o.phase -= math.Floor(o.phase)
	return out
}

// Amp multiplies its summed input by the gain port.
type Amp struct {
	gain *param.Param
}

func NewAmp(gain float64) *Amp {
	return &Amp{gain: param.New(gain)}
}

func (a *Amp) Param(p Port) *param.Param {
	if p == Gain {
		return a.gain
	}
	return nil
}

func (a *Amp) process(in, _ float64, pv *[numPorts]float64) float64 {
	return in * pv[Gain]
}

// Filter is a biquad stage with frequency (Hz), detune (cents) and Q ports.
type Filter struct {
	bq     *dsp.Biquad
	freq   *param.Param
	detune *param.Param
	q      *param.Param
}

func NewFilter(sampleRate float64, kind dsp.FilterKind, cutoffHz, q float64) *Filter {
	return &Filter{
		bq:     dsp.NewBiquad(kind, sampleRate, cutoffHz, q),
		freq:   param.New(cutoffHz),
		detune: param.New(0),
		q:      param.New(q),
	}
}

func (f *Filter) Param(p Port) *param.Param {
	switch p {
	case Frequency:
		return f.freq
	case Detune:
		return f.detune
	case Q:
		return f.q
	}
	return nil
}

// Cutoff returns the corner frequency used for the most recent sample.
func (f *Filter) Cutoff() float64 { return f.bq.Cutoff() }

func (f *Filter) process(in, _ float64, pv *[numPorts]float64) float64 {
	f.bq.SetParams(pv[Frequency]*dsp.CentsRatio(pv[Detune]), pv[Q])
	return f.bq.Process(in)
}

// Constant outputs its offset port while playing. Used as an envelope
// generator whose shape is automated on the offset.
type Constant struct {
	source
	offset *param.Param
}

func NewConstant(offset float64) *Constant {
	return &Constant{source: newSource(), offset: param.New(offset)}
}

func (c *Constant) Param(p Port) *param.Param {
	if p == Offset {
		return c.offset
	}
	return nil
}

func (c *Constant) process(_, t float64, pv *[numPorts]float64) float64 {
	if !c.playing(t) {
		return 0
	}
	return pv[Offset]
}
