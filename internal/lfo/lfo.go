// Package lfo routes a voice's LFO depth stage to one of a closed set of
// modulation destinations and scales its depth per destination.
package lfo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cbegin/polystep/internal/graph"
	"github.com/cbegin/polystep/internal/param"
)

var ErrInvalidTarget = errors.New("lfo: invalid target")

// Target is an LFO modulation destination.
type Target int

const (
	Pitch  Target = iota // oscillator detune, cents
	Filter               // filter cutoff, Hz
	Amp                  // tremolo gain
	numTargets
)

var targetNames = [...]string{"pitch", "filter", "amp"}

func (t Target) String() string {
	if !t.Valid() {
		return fmt.Sprintf("target(%d)", int(t))
	}
	return targetNames[t]
}

func (t Target) Valid() bool { return t >= 0 && t < numTargets }

func ParseTarget(name string) (Target, error) {
	for i, n := range targetNames {
		if strings.EqualFold(name, n) {
			return Target(i), nil
		}
	}
	return Pitch, fmt.Errorf("unknown lfo target %q", name)
}

// depthScale maps a normalized depth to destination units.
var depthScale = [numTargets]float64{
	Pitch:  1200,
	Filter: 4800,
	Amp:    0.5,
}

// DepthFor converts a depth in [0,1] to the peak modulation amount for target.
func DepthFor(target Target, depth float64) float64 {
	if !target.Valid() {
		return 0
	}
	return depth * depthScale[target]
}

// Voice is the part of a voice the router needs to rewire it.
type Voice interface {
	Graph() *graph.Graph
	Oscillators() []graph.NodeID
	FilterNode() graph.NodeID
	TremoloNode() graph.NodeID
	// DepthNode is the gain stage scaling the LFO oscillator.
	DepthNode() graph.NodeID
	DepthParam() *param.Param
	LFOTarget() Target
	SetLFOTarget(Target)
}

// routes lists the destination ports for each target.
var routes = [numTargets]func(Voice) []graph.ParamRef{
	Pitch: func(v Voice) []graph.ParamRef {
		oscs := v.Oscillators()
		refs := make([]graph.ParamRef, len(oscs))
		for i, id := range oscs {
			refs[i] = graph.ParamRef{Node: id, Port: graph.Detune}
		}
		return refs
	},
	Filter: func(v Voice) []graph.ParamRef {
		return []graph.ParamRef{{Node: v.FilterNode(), Port: graph.Frequency}}
	},
	Amp: func(v Voice) []graph.ParamRef {
		return []graph.ParamRef{{Node: v.TremoloNode(), Port: graph.Gain}}
	},
}

// Router rewires and rescales LFO depth. Tau is the glide time constant used
// for depth changes.
type Router struct {
	Tau float64
}

// Route replaces the depth stage's outgoing wiring with the target's
// destinations. Depth is left untouched.
func (r Router) Route(v Voice, target Target) error {
	if !target.Valid() {
		return fmt.Errorf("route lfo to %s: %w", target, ErrInvalidTarget)
	}
	g := v.Graph()
	depth := v.DepthNode()
	g.Disconnect(depth)
	for _, ref := range routes[target](v) {
		if err := g.ConnectParam(depth, ref); err != nil {
			return fmt.Errorf("route lfo to %s: %w", target, err)
		}
	}
	return nil
}

// Connect routes to target and recomputes the depth for it at time now.
func (r Router) Connect(v Voice, target Target, depth, now float64) error {
	if err := r.Route(v, target); err != nil {
		return err
	}
	r.ApplyDepth(v, target, depth, now)
	return nil
}

// Retarget moves the LFO to a new destination. It does nothing when the
// voice is already routed to target.
func (r Router) Retarget(v Voice, target Target, depth, now float64) error {
	if target == v.LFOTarget() {
		return nil
	}
	if err := r.Connect(v, target, depth, now); err != nil {
		return err
	}
	v.SetLFOTarget(target)
	return nil
}

// ApplyDepth glides the depth stage to the scaled depth. Any in-progress
// delay or fade-in is overridden.
func (r Router) ApplyDepth(v Voice, target Target, depth, now float64) {
	v.DepthParam().Glide(now, DepthFor(target, depth), r.Tau)
}
