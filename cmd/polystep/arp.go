package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/polystep"
	"github.com/cbegin/polystep/internal/dsp"
	"github.com/cbegin/polystep/internal/lfo"
)

var (
	arpNotes     string
	arpBPM       float64
	arpGate      float64
	arpWave      string
	arpCutoff    float64
	arpQ         float64
	arpLFOTarget string
	arpLFODepth  float64
	arpLFORate   float64
	arpSweep     bool
)

var arpCmd = &cobra.Command{
	Use:   "arp",
	Short: "Play an arpeggio on the polyphonic synth",
	Long: `Cycle through a list of MIDI notes as 16th notes.

Examples:
  polystep arp --notes 57,60,64,69 --bpm 140
  polystep arp --wave square --lfo-target filter --lfo-depth 0.3 --sweep`,
	RunE: runArp,
}

func init() {
	f := arpCmd.Flags()
	f.StringVarP(&arpNotes, "notes", "n", "57,60,64,67", "MIDI note numbers to cycle through")
	f.Float64Var(&arpBPM, "bpm", 120, "tempo in beats per minute")
	f.Float64Var(&arpGate, "gate", 0.5, "fraction of each step the note is held")
	f.StringVar(&arpWave, "wave", "", "waveform for the two enabled oscillators (sine, square, sawtooth, triangle)")
	f.Float64Var(&arpCutoff, "cutoff", 0, "filter cutoff in Hz (0 keeps the default)")
	f.Float64Var(&arpQ, "q", 0, "filter resonance Q (0 keeps the default)")
	f.StringVar(&arpLFOTarget, "lfo-target", "pitch", "LFO destination (pitch, filter, amp)")
	f.Float64Var(&arpLFODepth, "lfo-depth", 0, "LFO depth, 0..1")
	f.Float64Var(&arpLFORate, "lfo-rate", 0, "LFO rate in Hz (0 keeps the default)")
	f.BoolVar(&arpSweep, "sweep", false, "slowly sweep the filter cutoff while playing")
}

func runArp(cmd *cobra.Command, args []string) error {
	notes, err := parseNotes(arpNotes)
	if err != nil {
		return err
	}
	p, err := arpParams()
	if err != nil {
		return err
	}
	if !(arpBPM > 0) {
		return fmt.Errorf("--bpm must be positive")
	}

	e, err := startEngine(polystep.WithParams(p))
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := runContext()
	defer cancel()

	step := time.Duration(60 / arpBPM / 4 * float64(time.Second))
	gate := time.Duration(float64(step) * dsp.Clamp(arpGate, 0.05, 1))
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	base := p.Filter.CutoffHz
	for i := 0; ; i++ {
		note := notes[i%len(notes)]
		e.NoteOn(note, 110)
		if arpSweep {
			p.Filter.CutoffHz = base * (1.5 + float64(i%32)/16)
			e.UpdateParams(p)
		}
		select {
		case <-ctx.Done():
			e.NoteOff(note)
			return nil
		case <-time.After(gate):
			e.NoteOff(note)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func arpParams() (polystep.Params, error) {
	p := polystep.DefaultParams()
	if arpWave != "" {
		w, err := dsp.ParseWaveform(arpWave)
		if err != nil {
			return p, err
		}
		p.Osc[0].Wave = w
		p.Osc[1].Wave = w
	}
	if arpCutoff > 0 {
		p.Filter.CutoffHz = arpCutoff
	}
	if arpQ > 0 {
		p.Filter.Q = arpQ
	}
	target, err := lfo.ParseTarget(arpLFOTarget)
	if err != nil {
		return p, err
	}
	p.LFO.Target = target
	p.LFO.Depth = arpLFODepth
	if arpLFORate > 0 {
		p.LFO.RateHz = arpLFORate
	}
	return p, nil
}

func parseNotes(s string) ([]int, error) {
	var notes []int
	for _, f := range splitList(s) {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || n > 127 {
			return nil, fmt.Errorf("--notes: %q is not a MIDI note", f)
		}
		notes = append(notes, n)
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("--notes: no notes given")
	}
	return notes, nil
}
