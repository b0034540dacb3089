package voice

import (
	"github.com/cbegin/polystep/internal/dsp"
	"github.com/cbegin/polystep/internal/graph"
	"github.com/cbegin/polystep/internal/lfo"
	"github.com/cbegin/polystep/internal/param"
	"github.com/cbegin/polystep/internal/patch"
)

// Voice is one sounding note. Every node it uses lives in its own graph, so
// releasing the graph frees the whole voice.
type Voice struct {
	note int
	g    *graph.Graph

	osc     [patch.NumOscillators]*graph.Oscillator
	oscIDs  []graph.NodeID
	oscGain [patch.NumOscillators]*graph.Amp

	filter   *graph.Filter
	filterID graph.NodeID
	env      *graph.Constant // normalized filter envelope
	envAmt   *graph.Amp
	amp      *graph.Amp
	trem     *graph.Amp
	tremID   graph.NodeID

	lfo     *graph.Oscillator
	depth   *graph.Amp
	depthID graph.NodeID
	target  lfo.Target

	stop float64 // +Inf until released
}

// build wires the voice graph, adding modulation sources first so every
// destination reads them within the same frame.
func build(sampleRate float64, note int, p patch.Params) *Voice {
	g := graph.New(sampleRate)
	v := &Voice{note: note, g: g, target: p.LFO.Target, stop: g.End()}
	freq := dsp.MIDIToFreq(note)

	v.lfo = graph.NewOscillator(sampleRate, p.LFO.Wave, p.LFO.RateHz)
	lfoID := g.Add(v.lfo)
	v.depth = graph.NewAmp(0)
	v.depthID = g.Add(v.depth)
	must(g.Connect(lfoID, v.depthID))

	v.env = graph.NewConstant(0)
	envID := g.Add(v.env)
	v.envAmt = graph.NewAmp(p.FilterEnv.Amount)
	envAmtID := g.Add(v.envAmt)
	must(g.Connect(envID, envAmtID))

	v.filter = graph.NewFilter(sampleRate, dsp.Lowpass, p.Filter.CutoffHz, p.Filter.Q)

	gainIDs := make([]graph.NodeID, 0, patch.NumOscillators)
	for i, cfg := range p.Osc {
		osc := graph.NewOscillator(sampleRate, cfg.Wave, freq)
		osc.Param(graph.Detune).Snap(0, cfg.DetuneCents)
		v.osc[i] = osc
		v.oscIDs = append(v.oscIDs, g.Add(osc))
		v.oscGain[i] = graph.NewAmp(oscGain(cfg))
		gainIDs = append(gainIDs, g.Add(v.oscGain[i]))
		must(g.Connect(v.oscIDs[i], gainIDs[i]))
	}

	v.filterID = g.Add(v.filter)
	for _, id := range gainIDs {
		must(g.Connect(id, v.filterID))
	}
	must(g.ConnectParam(envAmtID, graph.ParamRef{Node: v.filterID, Port: graph.Frequency}))

	v.amp = graph.NewAmp(0)
	ampID := g.Add(v.amp)
	must(g.Connect(v.filterID, ampID))

	v.trem = graph.NewAmp(1)
	v.tremID = g.Add(v.trem)
	must(g.Connect(ampID, v.tremID))
	must(g.ConnectOutput(v.tremID))
	return v
}

// schedule starts every source at now and lays out the attack/decay curves.
func (v *Voice) schedule(now, velocity float64, p patch.Params) {
	for _, osc := range v.osc {
		osc.Start(now)
	}
	v.lfo.Start(now)
	v.env.Start(now)

	a := p.AmpEnv
	gain := v.amp.Param(graph.Gain)
	gain.SetAt(now, 0)
	gain.LinearRampTo(now+a.Attack, velocity)
	gain.LinearRampTo(now+a.Attack+a.Decay, velocity*a.Sustain)

	f := p.FilterEnv
	env := v.env.Param(graph.Offset)
	env.SetAt(now, 0)
	env.LinearRampTo(now+f.Attack, 1)
	env.LinearRampTo(now+f.Attack+f.Decay, f.Sustain)

	peak := lfo.DepthFor(p.LFO.Target, p.LFO.Depth)
	depth := v.depth.Param(graph.Gain)
	depth.SetAt(now, 0)
	start := now + p.LFO.Delay
	if p.LFO.Fade > 0 {
		depth.SetAt(start, 0)
		depth.LinearRampTo(start+p.LFO.Fade, peak)
	} else {
		depth.SetAt(start, peak)
	}
}

// release ramps both envelopes down from wherever they are and schedules the
// one stop time at which the graph is torn down.
func (v *Voice) release(now float64, p patch.Params) float64 {
	gain := v.amp.Param(graph.Gain)
	gain.CancelAndHold(now)
	gain.LinearRampTo(now+p.AmpEnv.Release, 0)

	env := v.env.Param(graph.Offset)
	env.CancelAndHold(now)
	env.LinearRampTo(now+p.FilterEnv.Release, 0)

	stop := now + p.Hold()
	for _, osc := range v.osc {
		osc.Stop(stop)
	}
	v.env.Stop(stop)
	v.lfo.Stop(stop)
	v.g.StopAt(stop)
	v.stop = stop
	return stop
}

// Note returns the MIDI note number.
func (v *Voice) Note() int { return v.note }

// StopTime is the scheduled teardown time, +Inf while held.
func (v *Voice) StopTime() float64 { return v.stop }

func (v *Voice) Graph() *graph.Graph         { return v.g }
func (v *Voice) Oscillators() []graph.NodeID { return v.oscIDs }
func (v *Voice) FilterNode() graph.NodeID    { return v.filterID }
func (v *Voice) TremoloNode() graph.NodeID   { return v.tremID }
func (v *Voice) DepthNode() graph.NodeID     { return v.depthID }
func (v *Voice) DepthParam() *param.Param    { return v.depth.Param(graph.Gain) }
func (v *Voice) LFOTarget() lfo.Target       { return v.target }
func (v *Voice) SetLFOTarget(t lfo.Target)   { v.target = t }

func oscGain(o patch.Oscillator) float64 {
	if !o.Enabled {
		return 0
	}
	return o.Gain * Headroom
}

// must panics on wiring errors, which can only come from a bug in build.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
