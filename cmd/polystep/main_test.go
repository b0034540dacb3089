package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/polystep"
)

func TestParseNotes(t *testing.T) {
	notes, err := parseNotes("57, 60 64,67")
	require.NoError(t, err)
	assert.Equal(t, []int{57, 60, 64, 67}, notes)

	for _, bad := range []string{"", "60,x", "128", "-1"} {
		_, err := parseNotes(bad)
		assert.Error(t, err, bad)
	}
}

func TestParsePitches(t *testing.T) {
	got, err := parsePitches([]string{"snare=+3", "hh=-2.5"})
	require.NoError(t, err)
	assert.Equal(t, map[polystep.Track]float64{polystep.Snare: 3, polystep.HiHat: -2.5}, got)

	_, err = parsePitches([]string{"snare"})
	assert.Error(t, err)
	_, err = parsePitches([]string{"cowbell=1"})
	assert.Error(t, err)
	_, err = parsePitches([]string{"kick=up"})
	assert.Error(t, err)
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		line string
		want []byte
		err  bool
	}{
		{"90 3c 64", []byte{0x90, 0x3c, 0x64}, false},
		{"803c00", []byte{0x80, 0x3c, 0x00}, false},
		{"  ", nil, false},
		{"# comment", nil, false},
		{"9x 3c", nil, true},
	}
	for _, tt := range tests {
		got, err := parseMessage(tt.line)
		if tt.err {
			assert.Error(t, err, tt.line)
			continue
		}
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestLoadPatternDefault(t *testing.T) {
	p, err := loadPattern("")
	require.NoError(t, err)
	assert.True(t, p.Get(polystep.Kick, 0))
	assert.True(t, p.Get(polystep.Snare, 4))
	assert.Equal(t, 2+2+8+1, p.Hits())

	inline, err := loadPattern("kick x.x. x.x. x.x. x.x.")
	require.NoError(t, err)
	assert.Equal(t, 8, inline.Hits())
}

func TestStepDisplay(t *testing.T) {
	var p polystep.Pattern
	p.Set(polystep.Kick, 0, true)
	p.Set(polystep.Snare, 5, true)
	assert.Equal(t, "o... .#.. .... ....", stepDisplay(p, 5))
	assert.Equal(t, "o... .o.. .... ....", stepDisplay(p, polystep.NoStep))
}

func TestReadMessages(t *testing.T) {
	e, err := polystep.New(polystep.WithBackend("headless"), polystep.WithSampleRate(8000))
	require.NoError(t, err)
	defer e.Close()
	require.NoError(t, e.Start())

	in := strings.NewReader("90 3c 64\n91 40 50\nzz\n80 3c 00\n")
	var errOut bytes.Buffer
	require.NoError(t, readMessages(context.Background(), e, in, &errOut))
	assert.Equal(t, 1, e.ActiveVoices())
	assert.Contains(t, errOut.String(), "bad midi line")
}
