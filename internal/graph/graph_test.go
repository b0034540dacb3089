package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/polystep/internal/dsp"
)

const sr = 48000.0

func TestOscillatorThroughAmp(t *testing.T) {
	g := New(sr)
	osc := g.Add(NewOscillator(sr, dsp.Square, 440))
	amp := g.Add(NewAmp(0.5))
	require.NoError(t, g.Connect(osc, amp))
	require.NoError(t, g.ConnectOutput(amp))

	assert.Equal(t, 0.5, g.Render(0))
}

func TestSourceWindow(t *testing.T) {
	g := New(sr)
	c := NewConstant(1)
	c.Start(1)
	c.Stop(2)
	c.Stop(3) // later stop is ignored
	id := g.Add(c)
	require.NoError(t, g.ConnectOutput(id))

	assert.Equal(t, 0.0, g.Render(0.5))
	assert.Equal(t, 1.0, g.Render(1.5))
	assert.Equal(t, 0.0, g.Render(2))
	assert.Equal(t, 2.0, c.StopTime())
}

func TestParamModulationSums(t *testing.T) {
	g := New(sr)
	mod := g.Add(NewConstant(0.25))
	src := g.Add(NewConstant(1))
	amp := NewAmp(0.5)
	ampID := g.Add(amp)
	require.NoError(t, g.Connect(src, ampID))
	require.NoError(t, g.ConnectParam(mod, ParamRef{Node: ampID, Port: Gain}))
	require.NoError(t, g.ConnectOutput(ampID))

	assert.InDelta(t, 0.75, g.Render(0), 1e-12)
	assert.Equal(t, []ParamRef{{Node: ampID, Port: Gain}}, g.ParamTargets(mod))
}

func TestConnectParamRejectsMissingPort(t *testing.T) {
	g := New(sr)
	c := g.Add(NewConstant(1))
	amp := g.Add(NewAmp(1))
	assert.ErrorIs(t, g.ConnectParam(c, ParamRef{Node: amp, Port: Frequency}), ErrNoSuchPort)
	assert.ErrorIs(t, g.ConnectParam(c, ParamRef{Node: 42, Port: Gain}), ErrUnknownNode)
}

func TestDisconnectRemovesAllOutgoing(t *testing.T) {
	g := New(sr)
	mod := g.Add(NewConstant(1))
	a := g.Add(NewAmp(0))
	b := g.Add(NewAmp(0))
	require.NoError(t, g.ConnectParam(mod, ParamRef{Node: a, Port: Gain}))
	require.NoError(t, g.ConnectParam(mod, ParamRef{Node: b, Port: Gain}))
	require.NoError(t, g.Connect(mod, b))
	require.NoError(t, g.ConnectOutput(mod))

	g.Disconnect(mod)
	assert.Empty(t, g.ParamTargets(mod))
	assert.Equal(t, 0.0, g.Render(0))
}

func TestDetuneShiftsOscillatorPitch(t *testing.T) {
	g := New(sr)
	osc := NewOscillator(sr, dsp.Sawtooth, 1000)
	id := g.Add(osc)
	require.NoError(t, g.ConnectOutput(id))
	osc.Param(Detune).SetAt(0, 1200)

	g.Render(0)
	// One octave up doubles the per-frame phase increment.
	assert.InDelta(t, 2*2000/sr-1, g.Render(1/sr), 1e-9)
}

func TestFilterFollowsFrequencyModulation(t *testing.T) {
	g := New(sr)
	mod := g.Add(NewConstant(500))
	src := g.Add(NewConstant(1))
	f := NewFilter(sr, dsp.Lowpass, 1000, 0.7)
	fid := g.Add(f)
	require.NoError(t, g.Connect(src, fid))
	require.NoError(t, g.ConnectParam(mod, ParamRef{Node: fid, Port: Frequency}))

	g.Render(0)
	assert.Equal(t, 1500.0, f.Cutoff())
}

func TestEndAndRelease(t *testing.T) {
	g := New(sr)
	id := g.Add(NewConstant(1))
	require.NoError(t, g.ConnectOutput(id))
	assert.False(t, g.Ended(100))

	g.StopAt(2)
	g.StopAt(5)
	assert.Equal(t, 2.0, g.End())
	assert.False(t, g.Ended(1.9))
	assert.True(t, g.Ended(2))

	assert.True(t, g.Release())
	assert.False(t, g.Release())
	assert.True(t, g.Released())
	assert.Equal(t, 0.0, g.Render(0))
	assert.ErrorIs(t, g.Connect(0, 0), ErrUnknownNode)
}
