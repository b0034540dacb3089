package lfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/polystep/internal/dsp"
	"github.com/cbegin/polystep/internal/graph"
	"github.com/cbegin/polystep/internal/param"
)

type fakeVoice struct {
	g       *graph.Graph
	oscs    []graph.NodeID
	filter  graph.NodeID
	trem    graph.NodeID
	depth   graph.NodeID
	amp     *graph.Amp
	current Target
}

func newFakeVoice() *fakeVoice {
	const sr = 48000
	v := &fakeVoice{g: graph.New(sr)}
	for i := 0; i < 4; i++ {
		v.oscs = append(v.oscs, v.g.Add(graph.NewOscillator(sr, dsp.Sine, 440)))
	}
	v.filter = v.g.Add(graph.NewFilter(sr, dsp.Lowpass, 1000, 1))
	v.trem = v.g.Add(graph.NewAmp(1))
	v.amp = graph.NewAmp(0)
	v.depth = v.g.Add(v.amp)
	return v
}

func (v *fakeVoice) Graph() *graph.Graph         { return v.g }
func (v *fakeVoice) Oscillators() []graph.NodeID { return v.oscs }
func (v *fakeVoice) FilterNode() graph.NodeID    { return v.filter }
func (v *fakeVoice) TremoloNode() graph.NodeID   { return v.trem }
func (v *fakeVoice) DepthNode() graph.NodeID     { return v.depth }
func (v *fakeVoice) DepthParam() *param.Param    { return v.amp.Param(graph.Gain) }
func (v *fakeVoice) LFOTarget() Target           { return v.current }
func (v *fakeVoice) SetLFOTarget(target Target)  { v.current = target }

func TestDepthFor(t *testing.T) {
	tests := []struct {
		target Target
		depth  float64
		want   float64
	}{
		{Pitch, 1, 1200},
		{Filter, 1, 4800},
		{Amp, 1, 0.5},
		{Pitch, 0, 0},
		{Filter, 0, 0},
		{Amp, 0, 0},
		{Filter, 0.25, 1200},
		{Target(9), 1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DepthFor(tt.target, tt.depth), "%s depth %v", tt.target, tt.depth)
	}
}

func TestParseTarget(t *testing.T) {
	for _, name := range []string{"pitch", "Filter", "AMP"} {
		target, err := ParseTarget(name)
		require.NoError(t, err)
		assert.True(t, target.Valid())
	}
	_, err := ParseTarget("wobble")
	assert.Error(t, err)
	assert.Equal(t, "amp", Amp.String())
}

func TestRouteTable(t *testing.T) {
	v := newFakeVoice()
	r := Router{Tau: 0.01}

	require.NoError(t, r.Route(v, Pitch))
	targets := v.g.ParamTargets(v.depth)
	require.Len(t, targets, 4)
	for i, ref := range targets {
		assert.Equal(t, graph.ParamRef{Node: v.oscs[i], Port: graph.Detune}, ref)
	}

	require.NoError(t, r.Route(v, Filter))
	assert.Equal(t, []graph.ParamRef{{Node: v.filter, Port: graph.Frequency}}, v.g.ParamTargets(v.depth))

	require.NoError(t, r.Route(v, Amp))
	assert.Equal(t, []graph.ParamRef{{Node: v.trem, Port: graph.Gain}}, v.g.ParamTargets(v.depth))

	assert.ErrorIs(t, r.Route(v, Target(-1)), ErrInvalidTarget)
}

func TestRetargetRecomputesDepth(t *testing.T) {
	v := newFakeVoice()
	r := Router{Tau: 0.01}
	require.NoError(t, r.Connect(v, Pitch, 0.5, 0))
	assert.InDelta(t, 600, v.DepthParam().ValueAt(1), 1e-3)

	require.NoError(t, r.Retarget(v, Filter, 0.5, 1))
	assert.Equal(t, Filter, v.LFOTarget())
	assert.InDelta(t, 2400, v.DepthParam().ValueAt(2), 1e-3)
	assert.Len(t, v.g.ParamTargets(v.depth), 1)
}

func TestRetargetSameTargetIsNoop(t *testing.T) {
	v := newFakeVoice()
	r := Router{Tau: 0.01}
	require.NoError(t, r.Route(v, Pitch))
	pending := v.DepthParam().Pending()

	require.NoError(t, r.Retarget(v, Pitch, 1, 0))
	assert.Equal(t, pending, v.DepthParam().Pending())
	assert.Len(t, v.g.ParamTargets(v.depth), 4)
}

func TestApplyDepthOverridesFade(t *testing.T) {
	v := newFakeVoice()
	p := v.DepthParam()
	// delay 1s then fade to full pitch depth over 2s
	p.SetAt(0, 0)
	p.SetAt(1, 0)
	p.LinearRampTo(3, 1200)

	Router{Tau: 0.01}.ApplyDepth(v, Pitch, 0.25, 2)
	assert.InDelta(t, 600, p.ValueAt(2), 1e-9)
	assert.InDelta(t, 300, p.ValueAt(2.5), 1e-3)
	assert.InDelta(t, 300, p.ValueAt(4), 1e-3)
}
