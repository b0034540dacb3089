package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/polystep"
	"github.com/cbegin/polystep/internal/midi"
)

var (
	midiDemo    bool
	midiChannel uint8
)

var midiCmd = &cobra.Command{
	Use:   "midi",
	Short: "Play raw MIDI note messages read from stdin",
	Long: `Read one MIDI message per line as hex bytes and play it on the synth.
Note-on and note-off messages on any channel are played; others are ignored.

Examples:
  printf '90 3c 64\n80 3c 00\n' | polystep midi
  polystep midi --demo`,
	RunE: runMIDI,
}

func init() {
	f := midiCmd.Flags()
	f.BoolVar(&midiDemo, "demo", false, "play a C major scale instead of reading stdin")
	f.Uint8Var(&midiChannel, "channel", 0, "channel for --demo messages (0..15)")
}

func runMIDI(cmd *cobra.Command, args []string) error {
	e, err := startEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := runContext()
	defer cancel()
	if midiDemo {
		return playDemo(ctx, e, midiChannel&0x0f)
	}
	return readMessages(ctx, e, cmd.InOrStdin(), cmd.ErrOrStderr())
}

// readMessages feeds each parsed line of r to the engine until r ends or ctx
// is done. Unparseable lines are reported and skipped.
func readMessages(ctx context.Context, e *polystep.Engine, r io.Reader, errOut io.Writer) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			raw, err := parseMessage(line)
			if err != nil {
				fmt.Fprintln(errOut, err)
				continue
			}
			if raw != nil {
				e.HandleMIDI(raw)
			}
		}
	}
}

// parseMessage decodes a line of hex bytes such as "90 3c 64" or "903c64".
// Blank lines and '#' comments yield nil.
func parseMessage(line string) ([]byte, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, nil
	}
	raw, err := hex.DecodeString(strings.Join(strings.Fields(line), ""))
	if err != nil {
		return nil, fmt.Errorf("bad midi line %q: %w", line, err)
	}
	return raw, nil
}

func playDemo(ctx context.Context, e *polystep.Engine, channel uint8) error {
	scale := []uint8{60, 62, 64, 65, 67, 69, 71, 72}
	for _, note := range scale {
		e.HandleMIDI(midi.Encode(midi.Event{Kind: midi.NoteOn, Channel: channel, Note: note, Velocity: 100}))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(250 * time.Millisecond):
		}
		e.HandleMIDI(midi.Encode(midi.Event{Kind: midi.NoteOff, Channel: channel, Note: note}))
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(e.Params().Hold() * float64(time.Second))):
	}
	return nil
}
