package effects

// Delay is a ping-pong echo whose time can follow the sequencer tempo.
// Feedback alternates channels; the buffer is sized for MaxDelay seconds.
type Delay struct {
	sampleRate int
	bufL, bufR []float32
	pos        int
	length     int
	feedback   float32
	wet        float32
}

// MaxDelay bounds the echo time in seconds.
const MaxDelay = 2.0

// NewDelay creates an echo of the given time in seconds. feedback is clamped
// to [0, 0.95] and wet to [0, 1].
func NewDelay(sampleRate int, seconds float64, feedback, wet float32) *Delay {
	size := int(MaxDelay * float64(sampleRate))
	if size < 1 {
		size = 1
	}
	d := &Delay{
		sampleRate: sampleRate,
		bufL:       make([]float32, size),
		bufR:       make([]float32, size),
		feedback:   clamp(feedback, 0, 0.95),
		wet:        clamp(wet, 0, 1),
	}
	d.SetTime(seconds)
	return d
}

// SetTime changes the echo time, keeping buffered audio.
func (d *Delay) SetTime(seconds float64) {
	n := int(seconds * float64(d.sampleRate))
	if n < 1 {
		n = 1
	}
	if n > len(d.bufL) {
		n = len(d.bufL)
	}
	d.length = n
}

// Time returns the echo time in seconds.
func (d *Delay) Time() float64 { return float64(d.length) / float64(d.sampleRate) }

// SyncTo sets the echo to a dotted eighth at bpm.
func (d *Delay) SyncTo(bpm float64) {
	if bpm > 0 {
		d.SetTime(60 / bpm * 0.75)
	}
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	read := d.pos - d.length
	if read < 0 {
		read += len(d.bufL)
	}
	echoL, echoR := d.bufL[read], d.bufR[read]
	// cross-feed: each side's echo feeds the other side's line
	d.bufL[d.pos] = l + echoR*d.feedback
	d.bufR[d.pos] = r + echoL*d.feedback
	d.pos++
	if d.pos == len(d.bufL) {
		d.pos = 0
	}
	return l + echoL*d.wet, r + echoR*d.wet
}

func (d *Delay) Reset() {
	clear(d.bufL)
	clear(d.bufR)
	d.pos = 0
}
