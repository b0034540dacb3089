// Package param implements sample-accurate automation of a single scalar
// control value. Times are absolute seconds on the sink clock.
//
// Two primitive families cover every live update: Snap (set immediately,
// discarding pending automation) and Glide (exponential approach toward a
// target with a short time constant). Envelope shapes are built from SetAt and
// LinearRampTo, and retriggered with CancelAndHold.
package param

import "math"

type kind int

const (
	kindSet kind = iota
	kindLinear
	kindTarget
)

type event struct {
	kind kind
	t    float64 // set/target: start time; linear: end time
	v    float64 // set/linear: value; target: goal
	tau  float64 // target only
}

// Param is an automatable value. The zero value holds 0 with no automation.
type Param struct {
	value  float64
	events []event
}

func New(v float64) *Param {
	return &Param{value: v}
}

// Default returns the value used before the first automation event.
func (p *Param) Default() float64 { return p.value }

// Pending reports how many automation events are queued.
func (p *Param) Pending() int { return len(p.events) }

// SetAt jumps to v at time t.
func (p *Param) SetAt(t, v float64) {
	p.insert(event{kind: kindSet, t: t, v: v})
}

// LinearRampTo ramps linearly from the previous event to v, arriving at t.
func (p *Param) LinearRampTo(t, v float64) {
	p.insert(event{kind: kindLinear, t: t, v: v})
}

// TargetAt starts an exponential approach toward goal at time t.
func (p *Param) TargetAt(t, goal, tau float64) {
	if tau <= 0 {
		p.SetAt(t, goal)
		return
	}
	p.insert(event{kind: kindTarget, t: t, v: goal, tau: tau})
}

// Cancel removes every event at or after t.
func (p *Param) Cancel(t float64) {
	n := 0
	for _, e := range p.events {
		if e.t < t {
			p.events[n] = e
			n++
		}
	}
	p.events = p.events[:n]
}

// CancelAndHold freezes the value reached at t and drops everything after it.
// A ramp still in flight at t is cut at its instantaneous value.
func (p *Param) CancelAndHold(t float64) float64 {
	v := p.ValueAt(t)
	p.Cancel(t)
	p.SetAt(t, v)
	return v
}

// Snap replaces all automation from t on with the constant v.
func (p *Param) Snap(t, v float64) {
	if len(p.events) == 0 {
		p.value = v
		return
	}
	p.Cancel(t)
	p.SetAt(t, v)
}

// Glide anchors the current value at t and approaches v with time constant tau.
func (p *Param) Glide(t, v, tau float64) {
	p.CancelAndHold(t)
	p.TargetAt(t, v, tau)
}

// insert keeps events ordered by time; equal times keep insertion order.
func (p *Param) insert(e event) {
	i := len(p.events)
	for i > 0 && p.events[i-1].t > e.t {
		i--
	}
	p.events = append(p.events, event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// segment is the curve in force after the most recent event.
type segment struct {
	t, v      float64
	target    bool
	goal, tau float64
}

func (s segment) at(t float64) float64 {
	if !s.target || t <= s.t {
		return s.v
	}
	return s.goal + (s.v-s.goal)*math.Exp(-(t-s.t)/s.tau)
}

// ValueAt evaluates the automation curve at time t.
func (p *Param) ValueAt(t float64) float64 {
	seg := segment{t: math.Inf(-1), v: p.value}
	for _, e := range p.events {
		switch e.kind {
		case kindLinear:
			if t < e.t {
				if math.IsInf(seg.t, -1) || e.t <= seg.t {
					return seg.at(t)
				}
				frac := (t - seg.t) / (e.t - seg.t)
				return seg.v + (e.v-seg.v)*frac
			}
			seg = segment{t: e.t, v: e.v}
		case kindSet:
			if t < e.t {
				return seg.at(t)
			}
			seg = segment{t: e.t, v: e.v}
		case kindTarget:
			if t < e.t {
				return seg.at(t)
			}
			seg = segment{t: e.t, v: seg.at(e.t), target: true, goal: e.v, tau: e.tau}
		}
	}
	return seg.at(t)
}

// Prune collapses events wholly in the past so evaluation stays O(pending).
// The curve seen at or after t is unchanged.
func (p *Param) Prune(t float64) {
	last := -1
	for i, e := range p.events {
		if e.t > t {
			break
		}
		last = i
	}
	if last < 1 {
		return
	}
	e := p.events[last]
	start := p.ValueAt(e.t)
	keep := []event{{kind: kindSet, t: e.t, v: start}}
	if e.kind == kindTarget {
		keep = append(keep, e)
	}
	rest := p.events[last+1:]
	p.events = append(keep, rest...)
}
