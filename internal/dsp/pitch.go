package dsp

import "math"

// MIDIToFreq returns the equal-tempered frequency of a MIDI note, A4 (69) = 440 Hz.
func MIDIToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// SemitoneRatio converts a semitone offset into a frequency multiplier.
func SemitoneRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}

// CentsRatio converts a detune in cents into a frequency multiplier.
func CentsRatio(cents float64) float64 {
	if cents == 0 {
		return 1
	}
	return math.Pow(2, cents/1200)
}

// ExpRamp evaluates an exponential segment from `from` to `to` lasting dur
// seconds at elapsed time t. Before 0 it returns from, after dur it holds to.
// Both endpoints must share a sign and be non-zero.
func ExpRamp(from, to, dur, t float64) float64 {
	if t <= 0 {
		return from
	}
	if dur <= 0 || t >= dur {
		return to
	}
	return from * math.Pow(to/from, t/dur)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
