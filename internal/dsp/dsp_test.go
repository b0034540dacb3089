package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMIDIToFreq(t *testing.T) {
	for _, tc := range []struct {
		note int
		want float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
		{60, 261.6255653},
	} {
		assert.InDelta(t, tc.want, MIDIToFreq(tc.note), 1e-6, "note %d", tc.note)
	}
}

func TestSemitoneRatio(t *testing.T) {
	assert.InDelta(t, 2.0, SemitoneRatio(12), 1e-12)
	assert.InDelta(t, 0.5, SemitoneRatio(-12), 1e-12)
	assert.Equal(t, 1.0, SemitoneRatio(0))
	assert.InDelta(t, 2.0, CentsRatio(1200), 1e-12)
}

func TestExpRampEndpoints(t *testing.T) {
	assert.Equal(t, 150.0, ExpRamp(150, 0.01, 0.1, 0))
	assert.Equal(t, 0.01, ExpRamp(150, 0.01, 0.1, 0.1))
	assert.Equal(t, 0.01, ExpRamp(150, 0.01, 0.1, 1))
	mid := ExpRamp(1, 0.01, 0.1, 0.05)
	assert.InDelta(t, 0.1, mid, 1e-9)
}

func TestWaveformRange(t *testing.T) {
	for _, w := range []Waveform{Sine, Square, Sawtooth, Triangle} {
		for i := 0; i < 100; i++ {
			v := w.Sample(float64(i) / 100)
			require.LessOrEqual(t, math.Abs(v), 1.0, "%s at %d", w, i)
		}
	}
	assert.InDelta(t, 1.0, Triangle.Sample(0.25), 1e-12)
	assert.InDelta(t, -1.0, Triangle.Sample(0.75), 1e-12)
	assert.Equal(t, 1.0, Square.Sample(0.1))
	assert.Equal(t, -1.0, Square.Sample(0.6))
}

func TestParseWaveform(t *testing.T) {
	w, err := ParseWaveform("Saw")
	require.NoError(t, err)
	assert.Equal(t, Sawtooth, w)
	_, err = ParseWaveform("noise")
	assert.Error(t, err)
	assert.Equal(t, "triangle", Triangle.String())
}

func TestBiquadLowpassPassesDC(t *testing.T) {
	b := NewBiquad(Lowpass, 48000, 1000, 0.707)
	var y float64
	for i := 0; i < 4800; i++ {
		y = b.Process(1)
	}
	assert.InDelta(t, 1.0, y, 1e-3)
}

func TestBiquadHighpassBlocksDC(t *testing.T) {
	b := NewBiquad(Highpass, 48000, 1000, 0.707)
	var y float64
	for i := 0; i < 4800; i++ {
		y = b.Process(1)
	}
	assert.InDelta(t, 0.0, y, 1e-3)
}

func TestBiquadClampsCutoff(t *testing.T) {
	b := NewBiquad(Lowpass, 48000, -50, 1)
	assert.Equal(t, MinCutoff, b.Cutoff())
	for i := 0; i < 1000; i++ {
		v := b.Process(math.Sin(float64(i)))
		require.False(t, math.IsNaN(v))
	}
	b.SetParams(1e9, 0)
	assert.InDelta(t, 24000*0.99, b.Cutoff(), 1e-9)
	for i := 0; i < 1000; i++ {
		v := b.Process(math.Sin(float64(i)))
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	b.SetParams(1200, 0.7)
	assert.Equal(t, 1200.0, b.Cutoff())
}
