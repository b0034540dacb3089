// Package sequencer drives the drum pattern with a lookahead scheduler: a
// coarse host timer wakes it periodically, and each wake places every step
// falling inside the schedule-ahead window at its exact time on the sink
// clock.
package sequencer

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbegin/polystep/internal/clock"
	"github.com/cbegin/polystep/internal/drums"
)

// NoStep is passed to the step callback when playback stops.
const NoStep = -1

const (
	DefaultBPM           = 120
	MaxBPM               = 999
	DefaultLookahead     = 25 * time.Millisecond
	DefaultScheduleAhead = 0.1
	DefaultLeadIn        = 0.05
	MaxPitch             = 12
)

var (
	ErrInvalidBPM   = errors.New("sequencer: bpm must be in (0, 999]")
	ErrInvalidTrack = errors.New("sequencer: invalid track")
)

// Transport is the sink side of the scheduler.
type Transport interface {
	// Now returns the sink time in seconds.
	Now() float64
	// Trigger schedules a drum hit at sink time at.
	Trigger(track drums.Track, at, rate float64)
	// Resume brings a suspended sink back to running.
	Resume()
}

type Options struct {
	Timers clock.Timers

	// Locker guards the scheduler state. Timer callbacks take it; every
	// exported method must be called with it held.
	Locker sync.Locker

	// OnStep receives each step index as it sounds, and NoStep on stop. It
	// runs with Locker held and must not call back into the owner.
	OnStep func(step int)

	Lookahead     time.Duration
	ScheduleAhead float64 // seconds
	LeadIn        float64 // seconds
}

// Scheduler is the step sequencer state machine: stopped or running.
type Scheduler struct {
	transport Transport
	timers    clock.Timers
	lock      sync.Locker
	onStep    func(int)
	lookahead time.Duration
	ahead     float64
	leadIn    float64

	pattern Pattern
	loaded  bool
	bpm     float64
	swing   float64
	pitch   [drums.NumTracks]float64

	playing   bool
	step      int
	next      float64
	scheduled int
	timer     clock.Timer
	gen       atomic.Uint64
}

func New(transport Transport, opts Options) *Scheduler {
	s := &Scheduler{
		transport: transport,
		timers:    opts.Timers,
		lock:      opts.Locker,
		onStep:    opts.OnStep,
		lookahead: opts.Lookahead,
		ahead:     opts.ScheduleAhead,
		leadIn:    opts.LeadIn,
		bpm:       DefaultBPM,
		scheduled: NoStep,
	}
	if s.timers == nil {
		s.timers = clock.Realtime{}
	}
	if s.lock == nil {
		s.lock = &sync.Mutex{}
	}
	if s.lookahead <= 0 {
		s.lookahead = DefaultLookahead
	}
	if s.ahead <= 0 {
		s.ahead = DefaultScheduleAhead
	}
	if s.leadIn <= 0 {
		s.leadIn = DefaultLeadIn
	}
	return s
}

// SecondsPer16th returns the grid spacing at bpm.
func SecondsPer16th(bpm float64) float64 { return 60 / bpm / 4 }

// SwingDelay returns how late step sounds relative to the grid. Only odd steps
// swing, by up to half a 16th at 100%.
func SwingDelay(step int, swingPercent, secondsPer16th float64) float64 {
	if step%2 == 0 {
		return 0
	}
	return swingPercent / 100 * (secondsPer16th / 2)
}

// Play starts from step 0 a short lead-in after now. It reports false, doing
// nothing, if already running or no pattern is loaded.
func (s *Scheduler) Play() bool {
	if s.playing || !s.loaded {
		return false
	}
	s.transport.Resume()
	s.step = 0
	s.next = s.transport.Now() + s.leadIn
	s.playing = true
	gen := s.gen.Add(1)
	s.pass()
	s.arm(gen)
	return true
}

// Stop cancels the wake timer and emits NoStep. Hits already handed to the
// transport play out. It reports false if already stopped.
func (s *Scheduler) Stop() bool {
	if !s.playing {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.playing = false
	s.gen.Add(1)
	s.emit(NoStep)
	return true
}

func (s *Scheduler) Playing() bool { return s.playing }

// SetPattern replaces the whole pattern from the next scheduled step on.
func (s *Scheduler) SetPattern(p Pattern) {
	s.pattern = p
	s.loaded = true
}

// Pattern returns a copy of the current pattern and whether one is loaded.
func (s *Scheduler) Pattern() (Pattern, bool) { return s.pattern, s.loaded }

// SetBPM rejects tempos that are not in (0, MaxBPM], keeping the old one.
func (s *Scheduler) SetBPM(bpm float64) error {
	if !(bpm > 0 && bpm <= MaxBPM) {
		return fmt.Errorf("%w: %v", ErrInvalidBPM, bpm)
	}
	s.bpm = bpm
	return nil
}

func (s *Scheduler) BPM() float64 { return s.bpm }

// SetSwing clamps percent to [0, 100] and returns the stored value.
func (s *Scheduler) SetSwing(percent float64) float64 {
	if math.IsNaN(percent) {
		percent = 0
	}
	s.swing = math.Max(0, math.Min(100, percent))
	return s.swing
}

func (s *Scheduler) Swing() float64 { return s.swing }

// SetTrackPitch clamps semitones to [-12, 12] and returns the stored value.
func (s *Scheduler) SetTrackPitch(track drums.Track, semitones float64) (float64, error) {
	if !track.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTrack, int(track))
	}
	if math.IsNaN(semitones) {
		semitones = 0
	}
	s.pitch[track] = math.Max(-MaxPitch, math.Min(MaxPitch, semitones))
	return s.pitch[track], nil
}

// TrackRate returns the playback-rate multiplier for track.
func (s *Scheduler) TrackRate(track drums.Track) float64 {
	if !track.Valid() {
		return 1
	}
	return drums.Rate(s.pitch[track])
}

// CurrentStep returns the most recently scheduled step, NoStep before the
// first.
func (s *Scheduler) CurrentStep() int { return s.scheduled }

// NextStepTime returns the unswung grid time of the next step to schedule.
func (s *Scheduler) NextStepTime() float64 { return s.next }

func (s *Scheduler) arm(gen uint64) {
	s.timer = s.timers.AfterFunc(s.lookahead, func() { s.wake(gen) })
}

func (s *Scheduler) wake(gen uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.playing || s.gen.Load() != gen {
		return
	}
	s.pass()
	s.arm(gen)
}

// pass schedules every step whose grid time falls before now+ahead. Steps
// whose whole slot already elapsed (a very late wake) are skipped without
// sounding; one caught inside its slot fires at now.
func (s *Scheduler) pass() {
	now := s.transport.Now()
	for s.next < now+s.ahead {
		spt := SecondsPer16th(s.bpm)
		if s.next+spt <= now {
			s.advance(spt)
			continue
		}
		s.scheduleStep(now, spt)
		s.advance(spt)
	}
}

func (s *Scheduler) scheduleStep(now, spt float64) {
	at := math.Max(s.next+SwingDelay(s.step, s.swing, spt), now)
	for tr := drums.Track(0); tr < drums.NumTracks; tr++ {
		if s.pattern[tr][s.step] {
			s.transport.Trigger(tr, at, s.TrackRate(tr))
		}
	}
	s.scheduled = s.step

	step, gen := s.step, s.gen.Load()
	delay := time.Duration(math.Round((at - now) * float64(time.Second)))
	s.timers.AfterFunc(delay, func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		if s.gen.Load() == gen {
			s.emit(step)
		}
	})
}

func (s *Scheduler) advance(spt float64) {
	s.next += spt
	s.step = (s.step + 1) % Steps
}

func (s *Scheduler) emit(step int) {
	if s.onStep != nil {
		s.onStep(step)
	}
}
