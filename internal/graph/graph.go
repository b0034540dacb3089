// Package graph models one voice's signal path as an explicit, owned arena of
// nodes. Nodes are evaluated in insertion order each frame; a connection from
// a node added later reads that node's previous-frame output.
package graph

import (
	"errors"
	"math"

	"github.com/cbegin/polystep/internal/param"
)

var (
	ErrUnknownNode = errors.New("graph: unknown node")
	ErrNoSuchPort  = errors.New("graph: node has no such port")
)

// NodeID indexes a node inside its Graph.
type NodeID int

// ParamRef addresses a port on a node.
type ParamRef struct {
	Node NodeID
	Port Port
}

// pruneEvery bounds how often past automation is collapsed, in frames.
const pruneEvery = 256

type entry struct {
	node   Node
	out    float64
	inputs []NodeID
	params [numPorts]*param.Param
	mods   [numPorts][]NodeID
}

// Graph owns every node of one voice. It is not safe for concurrent use; the
// sink serializes rendering against edits.
type Graph struct {
	sampleRate float64
	nodes      []entry
	outputs    []NodeID
	end        float64
	released   bool
	frames     int
	pv         [numPorts]float64
}

func New(sampleRate float64) *Graph {
	return &Graph{sampleRate: sampleRate, end: math.Inf(1)}
}

func (g *Graph) SampleRate() float64 { return g.sampleRate }

// Add appends a node and returns its id.
func (g *Graph) Add(n Node) NodeID {
	e := entry{node: n}
	for p := Port(0); p < numPorts; p++ {
		e.params[p] = n.Param(p)
	}
	g.nodes = append(g.nodes, e)
	return NodeID(len(g.nodes) - 1)
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes) && !g.released
}

// Len returns the number of live nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Connect feeds src's output into dst's signal input.
func (g *Graph) Connect(src, dst NodeID) error {
	if !g.valid(src) || !g.valid(dst) {
		return ErrUnknownNode
	}
	g.nodes[dst].inputs = append(g.nodes[dst].inputs, src)
	return nil
}

// ConnectParam adds src's output onto dst's port value.
func (g *Graph) ConnectParam(src NodeID, dst ParamRef) error {
	if !g.valid(src) || !g.valid(dst.Node) {
		return ErrUnknownNode
	}
	if dst.Port < 0 || dst.Port >= numPorts || g.nodes[dst.Node].params[dst.Port] == nil {
		return ErrNoSuchPort
	}
	m := &g.nodes[dst.Node].mods[dst.Port]
	*m = append(*m, src)
	return nil
}

// ConnectOutput routes src to the graph's destination.
func (g *Graph) ConnectOutput(src NodeID) error {
	if !g.valid(src) {
		return ErrUnknownNode
	}
	g.outputs = append(g.outputs, src)
	return nil
}

// Disconnect removes every outgoing connection of src, including param and
// destination wiring.
func (g *Graph) Disconnect(src NodeID) {
	if !g.valid(src) {
		return
	}
	for i := range g.nodes {
		e := &g.nodes[i]
		e.inputs = without(e.inputs, src)
		for p := range e.mods {
			e.mods[p] = without(e.mods[p], src)
		}
	}
	g.outputs = without(g.outputs, src)
}

// ParamTargets lists the ports src currently modulates, in node order.
func (g *Graph) ParamTargets(src NodeID) []ParamRef {
	var refs []ParamRef
	for i := range g.nodes {
		for p, mods := range g.nodes[i].mods {
			for _, m := range mods {
				if m == src {
					refs = append(refs, ParamRef{Node: NodeID(i), Port: Port(p)})
				}
			}
		}
	}
	return refs
}

// StopAt marks the time after which the graph produces nothing and may be released.
func (g *Graph) StopAt(t float64) {
	if t < g.end {
		g.end = t
	}
}

// End returns the scheduled end time, +Inf while the voice is held.
func (g *Graph) End() float64 { return g.end }

// Ended reports whether t has reached the scheduled end.
func (g *Graph) Ended(t float64) bool { return t >= g.end }

// Render produces the graph's destination sample at time t.
func (g *Graph) Render(t float64) float64 {
	if g.released {
		return 0
	}
	for i := range g.nodes {
		e := &g.nodes[i]
		var in float64
		for _, src := range e.inputs {
			in += g.nodes[src].out
		}
		for p, prm := range e.params {
			if prm == nil {
				continue
			}
			v := prm.ValueAt(t)
			for _, m := range e.mods[p] {
				v += g.nodes[m].out
			}
			g.pv[p] = v
		}
		e.out = e.node.process(in, t, &g.pv)
	}
	var mix float64
	for _, id := range g.outputs {
		mix += g.nodes[id].out
	}
	g.frames++
	if g.frames%pruneEvery == 0 {
		g.prune(t)
	}
	return mix
}

func (g *Graph) prune(t float64) {
	for i := range g.nodes {
		for _, prm := range g.nodes[i].params {
			if prm != nil {
				prm.Prune(t)
			}
		}
	}
}

// Release disconnects and frees every node. It reports false if the graph was
// already released.
func (g *Graph) Release() bool {
	if g.released {
		return false
	}
	g.released = true
	g.nodes = nil
	g.outputs = nil
	return true
}

func (g *Graph) Released() bool { return g.released }

func without(ids []NodeID, drop NodeID) []NodeID {
	n := 0
	for _, id := range ids {
		if id != drop {
			ids[n] = id
			n++
		}
	}
	return ids[:n]
}
