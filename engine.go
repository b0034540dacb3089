// Package polystep is a polyphonic synthesizer with a four-track drum step
// sequencer. An Engine owns the audio output and everything scheduled into it.
package polystep

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cbegin/polystep/internal/audio"
	"github.com/cbegin/polystep/internal/drums"
	"github.com/cbegin/polystep/internal/effects"
	"github.com/cbegin/polystep/internal/midi"
	"github.com/cbegin/polystep/internal/sequencer"
	"github.com/cbegin/polystep/internal/voice"
)

// Track names a drum voice.
type Track = drums.Track

const (
	Kick  = drums.Kick
	Snare = drums.Snare
	HiHat = drums.HiHat
	Crash = drums.Crash
)

// Pattern is a 16-step on/off grid per track.
type Pattern = sequencer.Pattern

// NoStep is the step reported when the sequencer stops.
const NoStep = sequencer.NoStep

// ParsePattern reads the text form produced by Pattern.String.
func ParsePattern(src string) (Pattern, error) { return sequencer.ParsePattern(src) }

// ParseTrack resolves a drum track by name.
func ParseTrack(name string) (Track, error) { return drums.ParseTrack(name) }

// StepEvent carries one step callback from Watch.
type StepEvent struct {
	Step int // 0..15, or NoStep on stop
}

// Stats is a snapshot of the output mixer.
type Stats struct {
	Time     float64 // sink seconds rendered
	Graphs   int     // voice graphs rendering, including releasing voices
	Released int     // voice graphs torn down so far
	Streams  int     // pending or playing drum hits
}

// Engine is safe for concurrent use. Note, pattern and playback operations
// before a successful Start are logged and ignored.
type Engine struct {
	mu         sync.Mutex
	log        *slog.Logger
	sampleRate int
	backend    Backend
	mixer      *audio.Mixer
	delay      *effects.Delay
	voices     *voice.Manager
	kit        *drums.Kit
	seq        *sequencer.Scheduler
	onStep     func(int)

	opened  bool
	started bool
	running bool
	closed  bool

	watchMu sync.Mutex
	watch   chan StepEvent
}

// New builds an engine. No audio device is touched until Start.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, cfg.SampleRate)
	}
	backend := cfg.backend
	if backend == nil {
		b, err := audio.NewBackend(cfg.Backend)
		if err != nil {
			return nil, err
		}
		backend = b
	}

	e := &Engine{
		log:        cfg.log(),
		sampleRate: cfg.SampleRate,
		backend:    backend,
		onStep:     cfg.onStep,
	}

	bus := effects.NewChain()
	if cfg.Delay > 0 {
		e.delay = effects.NewDelay(cfg.SampleRate, 0, 0.35, float32(cfg.Delay))
		e.delay.SyncTo(sequencer.DefaultBPM)
		bus.Add(e.delay)
	}
	if cfg.Limiter {
		bus.Add(effects.NewLimiter(cfg.SampleRate, -1))
	}
	e.mixer = audio.NewMixer(cfg.SampleRate, bus, cfg.MasterGain)
	e.voices = voice.NewManager(float64(cfg.SampleRate), cfg.params)
	e.kit = drums.NewKit(drums.NewSynth(e.mixer.Format(), cfg.seed), e.mixer, 1)
	e.seq = sequencer.New(transport{e}, sequencer.Options{
		Timers:        cfg.timers,
		Locker:        &e.mu,
		OnStep:        e.step,
		Lookahead:     cfg.Lookahead,
		ScheduleAhead: cfg.ScheduleAhead.Seconds(),
		LeadIn:        cfg.LeadIn.Seconds(),
	})
	return e, nil
}

// Start opens the backend and brings it to running. It is idempotent. On
// failure the engine stays un-started and Start may be called again.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if !e.opened {
		if err := e.backend.Open(e.sampleRate, e.mixer); err != nil {
			e.log.Error("audio open failed", "err", err)
			return fmt.Errorf("%w: %w", ErrAudioUnavailable, err)
		}
		e.opened = true
	}
	if e.running {
		return nil
	}
	if err := e.backend.Resume(); err != nil {
		e.log.Error("audio resume failed", "err", err)
		return fmt.Errorf("%w: %w", ErrAudioUnavailable, err)
	}
	e.started = true
	e.running = true
	e.log.Info("audio started", "sample_rate", e.sampleRate)
	return nil
}

// Resume is Start.
func (e *Engine) Resume() error { return e.Start() }

// Suspend pauses output. The sink clock stops with it, so scheduled events
// keep their musical positions.
func (e *Engine) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return nil
	}
	if err := e.backend.Suspend(); err != nil {
		return err
	}
	e.running = false
	e.log.Info("audio suspended")
	return nil
}

// Close stops the sequencer and releases the backend. Later calls are no-ops.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.seq.Stop()
	e.mixer.Edit(func(b *audio.Batch) { e.voices.ReleaseAll(b) })
	e.closed = true
	e.started = false
	e.running = false
	var err error
	if e.opened {
		err = e.backend.Close()
	}
	e.log.Info("engine closed")
	return err
}

// ready reports whether op may proceed. Callers hold e.mu.
func (e *Engine) ready(op string) bool {
	if e.closed || !e.started {
		e.log.Warn("engine not started", "op", op)
		return false
	}
	return true
}

// NoteOn starts note (0..127) at velocity, clamped to 1..127. A held note is
// released and retriggered.
func (e *Engine) NoteOn(note, velocity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("note on") {
		return
	}
	var err error
	e.mixer.Edit(func(b *audio.Batch) { err = e.voices.NoteOn(b, note, velocity) })
	if err != nil {
		e.log.Warn("note on rejected", "note", note, "err", err)
	}
}

// NoteOff releases note. Releasing a note that is not held does nothing.
func (e *Engine) NoteOff(note int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("note off") {
		return
	}
	if note < 0 || note >= voice.NumNotes {
		e.log.Warn("note off rejected", "note", note)
		return
	}
	e.mixer.Edit(func(b *audio.Batch) { e.voices.NoteOff(b, note) })
}

// UpdateParams replaces the patch and applies it to every held note. Values
// out of range are clamped. It may be called before Start.
func (e *Engine) UpdateParams(p Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mixer.Edit(func(b *audio.Batch) { e.voices.Update(b, p) })
}

// Params returns the current patch after clamping.
func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voices.Params()
}

// ActiveVoices returns the number of held notes.
func (e *Engine) ActiveVoices() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voices.ActiveCount()
}

// HandleMIDI applies a raw note-on or note-off message on any channel. Other
// messages are ignored.
func (e *Engine) HandleMIDI(raw []byte) {
	ev := midi.Decode(raw)
	switch ev.Kind {
	case midi.NoteOn:
		e.NoteOn(int(ev.Note), int(ev.Velocity))
	case midi.NoteOff:
		e.NoteOff(int(ev.Note))
	default:
		e.log.Debug("midi message ignored", "bytes", fmt.Sprintf("% x", raw))
	}
}

// SetPattern replaces the whole pattern from the next scheduled step on.
func (e *Engine) SetPattern(p Pattern) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("set pattern") {
		return
	}
	e.seq.SetPattern(p)
}

// Pattern returns a copy of the loaded pattern.
func (e *Engine) Pattern() (Pattern, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq.Pattern()
}

// ToggleStep flips one step of the loaded pattern and returns its new value.
func (e *Engine) ToggleStep(track Track, step int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("toggle step") {
		return false
	}
	p, _ := e.seq.Pattern()
	on := p.Toggle(track, step)
	e.seq.SetPattern(p)
	return on
}

// SetBPM changes the tempo from the next step on. Tempos outside
// (0, sequencer.MaxBPM] are logged and ignored.
func (e *Engine) SetBPM(bpm float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.seq.SetBPM(bpm); err != nil {
		e.log.Warn("bpm rejected", "bpm", bpm, "err", err)
		return
	}
	if e.delay != nil {
		e.mixer.Edit(func(*audio.Batch) { e.delay.SyncTo(bpm) })
	}
}

func (e *Engine) BPM() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq.BPM()
}

// SetSwing sets the odd-step delay, clamped to 0..100 percent.
func (e *Engine) SetSwing(percent float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if got := e.seq.SetSwing(percent); got != percent {
		e.log.Warn("swing clamped", "swing", percent, "applied", got)
	}
}

func (e *Engine) Swing() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq.Swing()
}

// SetTrackPitch offsets track by semitones, clamped to -12..12.
func (e *Engine) SetTrackPitch(track Track, semitones float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	got, err := e.seq.SetTrackPitch(track, semitones)
	switch {
	case err != nil:
		e.log.Warn("track pitch rejected", "track", track, "err", err)
	case got != semitones:
		e.log.Warn("track pitch clamped", "track", track, "semitones", semitones, "applied", got)
	}
}

// Play starts the sequencer from step 0. It does nothing while playing or
// with no pattern loaded.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("play") {
		return
	}
	if e.seq.Play() {
		e.log.Info("sequencer playing", "bpm", e.seq.BPM())
	}
}

// Stop halts the sequencer and reports NoStep. Hits already scheduled play
// out.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seq.Stop() {
		e.log.Info("sequencer stopped")
	}
}

func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq.Playing()
}

// CurrentStep returns the most recently scheduled step, or NoStep.
func (e *Engine) CurrentStep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq.CurrentStep()
}

// PlaySound fires one hit of track now, at its current pitch.
func (e *Engine) PlaySound(track Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("play sound") {
		return
	}
	if !track.Valid() {
		e.log.Warn("play sound rejected", "track", track)
		return
	}
	e.kit.Trigger(track, e.mixer.Now(), e.seq.TrackRate(track))
}

// Watch returns a channel receiving every step callback. The channel is
// buffered (cap 8) and events are dropped when it is full. Only the most
// recent channel receives events.
func (e *Engine) Watch() <-chan StepEvent {
	ch := make(chan StepEvent, 8)
	e.watchMu.Lock()
	e.watch = ch
	e.watchMu.Unlock()
	return ch
}

// Stats returns a snapshot of the mixer counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Time:     e.mixer.Now(),
		Graphs:   e.mixer.Graphs(),
		Released: e.mixer.Released(),
		Streams:  e.mixer.Streams(),
	}
}

// Render pulls frames from a headless backend and returns them as
// interleaved stereo. The slice is reused by the next call. It returns nil
// for any other backend.
func (e *Engine) Render(frames int) []float32 {
	h, ok := e.backend.(*audio.Headless)
	if !ok {
		return nil
	}
	return h.Pull(frames)
}

// step runs from the sequencer with e.mu held.
func (e *Engine) step(step int) {
	if e.onStep != nil {
		e.onStep(step)
	}
	e.watchMu.Lock()
	ch := e.watch
	e.watchMu.Unlock()
	if ch != nil {
		select {
		case ch <- StepEvent{Step: step}:
		default:
		}
	}
}

// transport adapts the engine to the sequencer. Its methods run with e.mu
// held.
type transport struct {
	e *Engine
}

func (t transport) Now() float64 { return t.e.mixer.Now() }

func (t transport) Trigger(track drums.Track, at, rate float64) { t.e.kit.Trigger(track, at, rate) }

func (t transport) Resume() {
	e := t.e
	if e.running || !e.opened {
		return
	}
	if err := e.backend.Resume(); err != nil {
		e.log.Error("audio resume failed", "err", err)
		return
	}
	e.running = true
}
