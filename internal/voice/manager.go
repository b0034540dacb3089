// Package voice manages the polyphonic note arena: one voice per MIDI note
// number, each with its own signal graph.
package voice

import (
	"errors"
	"fmt"

	"github.com/cbegin/polystep/internal/dsp"
	"github.com/cbegin/polystep/internal/graph"
	"github.com/cbegin/polystep/internal/lfo"
	"github.com/cbegin/polystep/internal/patch"
)

const (
	// Headroom scales every oscillator so four in unison cannot clip.
	Headroom = 0.25
	// Tau is the glide time constant for live parameter changes.
	Tau = 0.01
	// NumNotes is the size of the note arena.
	NumNotes = 128
)

var ErrNoteRange = errors.New("voice: note out of range")

// Output is the sink a manager schedules into. Calls happen with rendering
// held off, and Now is constant for the duration of one call.
type Output interface {
	Now() float64
	Add(g *graph.Graph)
}

// Manager owns every active voice. It is not safe for concurrent use.
type Manager struct {
	sampleRate float64
	params     patch.Params
	voices     [NumNotes]*Voice
	router     lfo.Router
	tau        float64
}

func NewManager(sampleRate float64, p patch.Params) *Manager {
	return &Manager{
		sampleRate: sampleRate,
		params:     p.Clamped(sampleRate),
		router:     lfo.Router{Tau: Tau},
		tau:        Tau,
	}
}

// Params returns the current patch.
func (m *Manager) Params() patch.Params { return m.params }

// Voice returns the active voice for note, or nil.
func (m *Manager) Voice(note int) *Voice {
	if note < 0 || note >= NumNotes {
		return nil
	}
	return m.voices[note]
}

// ActiveCount returns the number of held notes. Releasing voices are not
// counted; they belong to the sink until their stop time.
func (m *Manager) ActiveCount() int {
	n := 0
	for _, v := range m.voices {
		if v != nil {
			n++
		}
	}
	return n
}

// Notes returns the held note numbers in ascending order.
func (m *Manager) Notes() []int {
	var notes []int
	for i, v := range m.voices {
		if v != nil {
			notes = append(notes, i)
		}
	}
	return notes
}

// NoteOn starts a voice. A voice already holding note is released first and
// fades on its own schedule. velocity is clamped to 1..127.
func (m *Manager) NoteOn(out Output, note, velocity int) error {
	if note < 0 || note >= NumNotes {
		return fmt.Errorf("%w: %d", ErrNoteRange, note)
	}
	now := out.Now()
	if m.voices[note] != nil {
		m.noteOff(now, note)
	}
	velocity = int(dsp.Clamp(float64(velocity), 1, 127))

	v := build(m.sampleRate, note, m.params)
	if err := m.router.Route(v, m.params.LFO.Target); err != nil {
		return err
	}
	v.schedule(now, float64(velocity)/127, m.params)
	m.voices[note] = v
	out.Add(v.g)
	return nil
}

// NoteOff releases note. It does nothing when the note is not held.
func (m *Manager) NoteOff(out Output, note int) {
	if note < 0 || note >= NumNotes || m.voices[note] == nil {
		return
	}
	m.noteOff(out.Now(), note)
}

func (m *Manager) noteOff(now float64, note int) {
	v := m.voices[note]
	m.voices[note] = nil
	v.release(now, m.params)
}

// ReleaseAll releases every held note.
func (m *Manager) ReleaseAll(out Output) {
	now := out.Now()
	for note, v := range m.voices {
		if v != nil {
			m.noteOff(now, note)
		}
	}
}

// Update replaces the patch and applies it to every held voice.
//
// Discrete fields (waveforms, detune) snap. Gains, filter cutoff and Q, the
// filter envelope amount and LFO rate glide with time constant Tau. A target
// change rewires the LFO. A depth change on the same target glides from the
// current value, overriding any delay or fade still in progress. Envelope
// times apply from the next note on or off.
func (m *Manager) Update(out Output, p patch.Params) {
	p = p.Clamped(m.sampleRate)
	prev := m.params
	m.params = p
	now := out.Now()

	for _, v := range m.voices {
		if v == nil {
			continue
		}
		for i, cfg := range p.Osc {
			v.osc[i].SetWave(cfg.Wave)
			v.osc[i].Param(graph.Detune).Snap(now, cfg.DetuneCents)
			v.oscGain[i].Param(graph.Gain).Glide(now, oscGain(cfg), m.tau)
		}
		v.filter.Param(graph.Frequency).Glide(now, p.Filter.CutoffHz, m.tau)
		v.filter.Param(graph.Q).Glide(now, p.Filter.Q, m.tau)
		v.envAmt.Param(graph.Gain).Glide(now, p.FilterEnv.Amount, m.tau)

		v.lfo.SetWave(p.LFO.Wave)
		v.lfo.Param(graph.Frequency).Glide(now, p.LFO.RateHz, m.tau)
		if p.LFO.Target != v.target {
			// route errors are impossible for a clamped target
			_ = m.router.Retarget(v, p.LFO.Target, p.LFO.Depth, now)
		} else if p.LFO.Depth != prev.LFO.Depth {
			m.router.ApplyDepth(v, p.LFO.Target, p.LFO.Depth, now)
		}
	}
}
