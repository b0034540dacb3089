package dsp

import "math"

// FilterKind selects the biquad response.
type FilterKind int

const (
	Lowpass FilterKind = iota
	Highpass
)

// MinCutoff is the lowest corner frequency a Biquad will accept.
const MinCutoff = 10.0

// Biquad is an RBJ cookbook second-order section in transposed direct form II.
// Coefficients are recomputed only when frequency or Q actually change.
type Biquad struct {
	kind       FilterKind
	sampleRate float64
	reqF, reqQ float64 // last requested, compared by SetParams
	cutoff     float64

	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

func NewBiquad(kind FilterKind, sampleRate, freq, q float64) *Biquad {
	b := &Biquad{kind: kind, sampleRate: sampleRate}
	b.design(freq, q)
	return b
}

// SetParams retunes the filter, keeping its state so sweeps stay continuous.
func (b *Biquad) SetParams(freq, q float64) {
	if freq == b.reqF && q == b.reqQ {
		return
	}
	b.design(freq, q)
}

// Cutoff returns the clamped corner frequency currently in use.
func (b *Biquad) Cutoff() float64 { return b.cutoff }

func (b *Biquad) design(freq, q float64) {
	nyquist := b.sampleRate / 2
	b.reqF, b.reqQ = freq, q
	f := freq
	if math.IsNaN(f) {
		f = MinCutoff
	}
	f = Clamp(f, MinCutoff, nyquist*0.99)
	if q < 0.0001 || math.IsNaN(q) {
		q = 0.0001
	}
	b.cutoff = f

	w0 := 2 * math.Pi * f / b.sampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	switch b.kind {
	case Highpass:
		b.b0 = (1 + cosw) / 2 / a0
		b.b1 = -(1 + cosw) / a0
	default:
		b.b0 = (1 - cosw) / 2 / a0
		b.b1 = (1 - cosw) / a0
	}
	b.b2 = b.b0
	b.a1 = -2 * cosw / a0
	b.a2 = (1 - alpha) / a0
}

// Process filters one sample.
func (b *Biquad) Process(x float64) float64 {
	y := b.b0*x + b.z1
	b.z1 = b.b1*x - b.a1*y + b.z2
	b.z2 = b.b2*x - b.a2*y
	return y
}

func (b *Biquad) Reset() {
	b.z1, b.z2 = 0, 0
}
