package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbegin/polystep"
)

const defaultPattern = `
kick:  x... .... x... ....
snare: .... x... .... x...
hihat: x.x. x.x. x.x. x.x.
crash: x... .... .... ....
`

var (
	beatBPM     float64
	beatSwing   float64
	beatPattern string
	beatPitch   []string
	beatDelay   float64
	beatQuiet   bool
)

var beatCmd = &cobra.Command{
	Use:   "beat",
	Short: "Play a drum pattern on the step sequencer",
	Long: `Play a 16-step drum pattern. The pattern is read from --pattern,
which is either a file or the pattern text itself:

  kick:  x... .... x... ....
  snare: .... x... .... x...

Examples:
  polystep beat --bpm 96 --swing 30
  polystep beat --pattern groove.txt --pitch snare=+3 --pitch kick=-2`,
	RunE: runBeat,
}

func init() {
	f := beatCmd.Flags()
	f.Float64Var(&beatBPM, "bpm", 120, "tempo in beats per minute")
	f.Float64Var(&beatSwing, "swing", 0, "odd-step swing, 0..100 percent")
	f.StringVarP(&beatPattern, "pattern", "p", "", "pattern file or text (default: a basic rock beat)")
	f.StringArrayVar(&beatPitch, "pitch", nil, "track pitch offset as track=semitones (repeatable)")
	f.Float64Var(&beatDelay, "delay", 0, "tempo-synced delay wet level, 0 disables")
	f.BoolVarP(&beatQuiet, "quiet", "q", false, "do not print the step display")
}

func runBeat(cmd *cobra.Command, args []string) error {
	pattern, err := loadPattern(beatPattern)
	if err != nil {
		return err
	}
	pitches, err := parsePitches(beatPitch)
	if err != nil {
		return err
	}

	var opts []polystep.Option
	if beatDelay > 0 {
		opts = append(opts, polystep.WithDelay(beatDelay))
	}
	e, err := startEngine(opts...)
	if err != nil {
		return err
	}
	defer e.Close()

	e.SetBPM(beatBPM)
	e.SetSwing(beatSwing)
	for tr, semis := range pitches {
		e.SetTrackPitch(tr, semis)
	}
	e.SetPattern(pattern)
	steps := e.Watch()
	e.Play()

	ctx, cancel := runContext()
	defer cancel()
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			e.Stop()
			if !beatQuiet {
				fmt.Fprintln(out)
			}
			return nil
		case ev := <-steps:
			if !beatQuiet {
				fmt.Fprint(out, "\r"+stepDisplay(pattern, ev.Step))
			}
		}
	}
}

// loadPattern reads src as a file if one exists at that path, otherwise as
// pattern text.
func loadPattern(src string) (polystep.Pattern, error) {
	if strings.TrimSpace(src) == "" {
		src = defaultPattern
	} else if data, err := os.ReadFile(src); err == nil {
		src = string(data)
	}
	return polystep.ParsePattern(src)
}

func parsePitches(args []string) (map[polystep.Track]float64, error) {
	out := make(map[polystep.Track]float64, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("--pitch %q: want track=semitones", arg)
		}
		tr, err := polystep.ParseTrack(name)
		if err != nil {
			return nil, fmt.Errorf("--pitch %q: %w", arg, err)
		}
		semis, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("--pitch %q: %w", arg, err)
		}
		out[tr] = semis
	}
	return out, nil
}

// stepDisplay renders one line with the playing step highlighted.
func stepDisplay(p polystep.Pattern, step int) string {
	var b strings.Builder
	for i := 0; i < len(p[0]); i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		hit := false
		for tr := range p {
			hit = hit || p[tr][i]
		}
		switch {
		case i == step:
			b.WriteByte('#')
		case hit:
			b.WriteByte('o')
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}
