package audio

import (
	"math"
	"sync"

	"github.com/gopxl/beep"

	"github.com/cbegin/polystep/internal/effects"
	"github.com/cbegin/polystep/internal/graph"
)

type scheduled struct {
	start    int64
	streamer beep.Streamer
}

// Mixer is the sink clock and summing bus. Its time is the number of frames
// rendered divided by the sample rate; every schedule is expressed on it.
//
// Voice graphs are rendered per frame and released exactly once, on the
// first block boundary at or after their end time. One-shot streams start at
// their scheduled frame and are dropped once drained.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	frame      int64
	graphs     []*graph.Graph
	streams    []scheduled
	bus        effects.Effector
	gain       float64
	added      int
	released   int
	mono       []float64
	stereo     [][2]float64
}

// NewMixer creates a mixer. bus may be nil.
func NewMixer(sampleRate int, bus effects.Effector, gain float64) *Mixer {
	return &Mixer{sampleRate: sampleRate, bus: bus, gain: gain}
}

func (m *Mixer) SampleRate() int { return m.sampleRate }

// Format is the beep format one-shot streams must be produced in.
func (m *Mixer) Format() beep.Format {
	return beep.Format{SampleRate: beep.SampleRate(m.sampleRate), NumChannels: 2, Precision: 4}
}

// Now returns the sink time in seconds.
func (m *Mixer) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now()
}

func (m *Mixer) now() float64 { return float64(m.frame) / float64(m.sampleRate) }

// Batch is a view of the mixer valid only inside Edit.
type Batch struct {
	m *Mixer
}

// Now returns the sink time, fixed for the duration of the edit.
func (b *Batch) Now() float64 { return b.m.now() }

// Add starts rendering g.
func (b *Batch) Add(g *graph.Graph) {
	b.m.graphs = append(b.m.graphs, g)
	b.m.added++
}

// Schedule queues s to start at time at.
func (b *Batch) Schedule(at float64, s beep.Streamer) { b.m.schedule(at, s) }

// Edit runs fn with rendering held off, so graph edits made inside it are
// atomic with respect to the audio thread.
func (m *Mixer) Edit(fn func(b *Batch)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&Batch{m: m})
}

// Schedule queues a one-shot stream to start at time at. Times in the past
// start on the next rendered frame.
func (m *Mixer) Schedule(at float64, s beep.Streamer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedule(at, s)
}

func (m *Mixer) schedule(at float64, s beep.Streamer) {
	start := int64(math.Round(at * float64(m.sampleRate)))
	m.streams = append(m.streams, scheduled{start: start, streamer: s})
}

func (m *Mixer) SetGain(g float64) {
	m.mu.Lock()
	m.gain = g
	m.mu.Unlock()
}

// Graphs returns the number of graphs currently rendering.
func (m *Mixer) Graphs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.graphs)
}

// Released returns how many graphs have been torn down.
func (m *Mixer) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// Added returns how many graphs were ever added.
func (m *Mixer) Added() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.added
}

// Streams returns the number of pending or playing one-shot streams.
func (m *Mixer) Streams() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streams)
}

// Process renders len(dst)/2 interleaved stereo frames.
func (m *Mixer) Process(dst []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(dst) / 2
	if frames == 0 {
		return
	}
	if cap(m.mono) < frames {
		m.mono = make([]float64, frames)
		m.stereo = make([][2]float64, frames)
	}
	mono := m.mono[:frames]
	clear(mono)

	sr := float64(m.sampleRate)
	for i := range mono {
		t := float64(m.frame+int64(i)) / sr
		var v float64
		for _, g := range m.graphs {
			v += g.Render(t)
		}
		mono[i] = v
	}
	for i, v := range mono {
		dst[2*i] = float32(v)
		dst[2*i+1] = float32(v)
	}
	m.mixStreams(dst, frames)

	m.frame += int64(frames)
	m.reap()

	gain := float32(m.gain)
	for i := 0; i < frames; i++ {
		l, r := dst[2*i], dst[2*i+1]
		if m.bus != nil {
			l, r = m.bus.Process(l, r)
		}
		dst[2*i] = clip(l * gain)
		dst[2*i+1] = clip(r * gain)
	}
}

func (m *Mixer) mixStreams(dst []float32, frames int) {
	keep := m.streams[:0]
	for _, s := range m.streams {
		off := int(s.start - m.frame)
		if off < 0 {
			off = 0
		}
		if off >= frames {
			keep = append(keep, s)
			continue
		}
		buf := m.stereo[:frames-off]
		n, ok := s.streamer.Stream(buf)
		for i := 0; i < n; i++ {
			dst[2*(off+i)] += float32(buf[i][0])
			dst[2*(off+i)+1] += float32(buf[i][1])
		}
		if ok && n == len(buf) {
			keep = append(keep, s)
		}
	}
	clear(m.streams[len(keep):])
	m.streams = keep
}

func (m *Mixer) reap() {
	now := m.now()
	keep := m.graphs[:0]
	for _, g := range m.graphs {
		if g.Ended(now) {
			if g.Release() {
				m.released++
			}
			continue
		}
		keep = append(keep, g)
	}
	clear(m.graphs[len(keep):])
	m.graphs = keep
}

func clip(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
