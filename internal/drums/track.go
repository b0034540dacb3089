package drums

import (
	"fmt"
	"strings"

	"github.com/cbegin/polystep/internal/dsp"
)

// Track identifies one of the four drum voices. The numeric order is the
// firing order within a step.
type Track int

const (
	Kick Track = iota
	Snare
	HiHat
	Crash
	NumTracks
)

var trackNames = [NumTracks]string{"kick", "snare", "hihat", "crash"}

func (t Track) String() string {
	if !t.Valid() {
		return fmt.Sprintf("track(%d)", int(t))
	}
	return trackNames[t]
}

func (t Track) Valid() bool { return t >= 0 && t < NumTracks }

// ParseTrack accepts a track name, case-insensitively. "hat" and "hh" are
// aliases for hihat.
func ParseTrack(name string) (Track, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "hat", "hh", "hi-hat":
		return HiHat, nil
	}
	for i, tn := range trackNames {
		if n == tn {
			return Track(i), nil
		}
	}
	return Kick, fmt.Errorf("unknown drum track %q", name)
}

// Rate converts a semitone offset to a playback-rate multiplier.
func Rate(semitones float64) float64 { return dsp.SemitoneRatio(semitones) }
