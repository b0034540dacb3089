package sequencer

import (
	"fmt"
	"strings"

	"github.com/cbegin/polystep/internal/drums"
)

// Steps is the pattern length in 16th notes.
const Steps = 16

// Pattern holds one on/off flag per track and step. It is a value type;
// the scheduler keeps its own copy, so edits never reach it until the whole
// pattern is set again.
type Pattern [drums.NumTracks][Steps]bool

// Get reports whether track fires on step. Out-of-range lookups return false.
func (p *Pattern) Get(track drums.Track, step int) bool {
	if !track.Valid() || step < 0 || step >= Steps {
		return false
	}
	return p[track][step]
}

func (p *Pattern) Set(track drums.Track, step int, on bool) {
	if track.Valid() && step >= 0 && step < Steps {
		p[track][step] = on
	}
}

// Toggle flips one step and returns its new value.
func (p *Pattern) Toggle(track drums.Track, step int) bool {
	if !track.Valid() || step < 0 || step >= Steps {
		return false
	}
	p[track][step] = !p[track][step]
	return p[track][step]
}

// Hits counts the set steps across all tracks.
func (p *Pattern) Hits() int {
	n := 0
	for _, row := range p {
		for _, on := range row {
			if on {
				n++
			}
		}
	}
	return n
}

// String renders one line per track, "x" for a hit and "." for a rest.
func (p Pattern) String() string {
	var b strings.Builder
	for tr := drums.Track(0); tr < drums.NumTracks; tr++ {
		fmt.Fprintf(&b, "%-5s ", tr)
		for _, on := range p[tr] {
			if on {
				b.WriteByte('x')
			} else {
				b.WriteByte('.')
			}
		}
		if tr < drums.NumTracks-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// ParsePattern reads the String form. Each non-empty line is "track steps",
// optionally with a colon after the name; steps use x/X/1 for hits and
// ./-/0 for rests, and spaces or '|' inside the steps are ignored. Tracks not
// named stay empty.
func ParsePattern(src string) (Pattern, error) {
	var p Pattern
	for n, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, steps, ok := strings.Cut(line, " ")
		if !ok {
			return p, fmt.Errorf("line %d: expected \"track steps\"", n+1)
		}
		tr, err := drums.ParseTrack(strings.TrimSuffix(name, ":"))
		if err != nil {
			return p, fmt.Errorf("line %d: %w", n+1, err)
		}
		step := 0
		for _, c := range steps {
			switch c {
			case ' ', '\t', '|':
				continue
			case 'x', 'X', '1':
				if step < Steps {
					p[tr][step] = true
				}
			case '.', '-', '0':
			default:
				return p, fmt.Errorf("line %d: bad step %q", n+1, c)
			}
			step++
		}
		if step != Steps {
			return p, fmt.Errorf("line %d: %s has %d steps, want %d", n+1, tr, step, Steps)
		}
	}
	return p, nil
}
