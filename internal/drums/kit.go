package drums

import (
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Scheduler queues a stream to start at a sink time.
type Scheduler interface {
	Schedule(at float64, s beep.Streamer)
}

// Kit triggers drum hits into a sink at a fixed level.
type Kit struct {
	synth *Synth
	sink  Scheduler
	level float64
}

// NewKit returns a kit playing synth's voices into sink at level (linear).
func NewKit(synth *Synth, sink Scheduler, level float64) *Kit {
	return &Kit{synth: synth, sink: sink, level: level}
}

// Trigger schedules track to start at sink time at with playback rate.
func (k *Kit) Trigger(track Track, at, rate float64) {
	s := k.synth.Voice(track, rate)
	if s == nil {
		return
	}
	k.sink.Schedule(at, withLevel(s, k.level))
}

func withLevel(s beep.Streamer, level float64) beep.Streamer {
	if level == 1 {
		return s
	}
	if level <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(level)}
}
