package effects

import "math"

// Compressor is a stereo-linked peak compressor. Both channels share one
// envelope so hard-panned drum hits do not shift the stereo image.
type Compressor struct {
	threshold float32 // linear
	slope     float32 // 1/ratio - 1
	attack    float32 // one-pole coefficient
	release   float32
	makeup    float32
	env       float32
}

// NewCompressor builds a compressor. thresholdDB and makeupDB are in dB,
// ratio is N for N:1, and attackMs/releaseMs are envelope times.
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: dbToLinear(thresholdDB),
		slope:     1/ratio - 1,
		attack:    coefficient(sampleRate, attackMs),
		release:   coefficient(sampleRate, releaseMs),
		makeup:    dbToLinear(makeupDB),
	}
}

// NewLimiter returns a fast, high-ratio compressor holding peaks near ceilingDB.
func NewLimiter(sampleRate int, ceilingDB float32) *Compressor {
	return NewCompressor(sampleRate, ceilingDB, 20, 0.5, 80, 0)
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	peak := float32(math.Max(math.Abs(float64(l)), math.Abs(float64(r))))
	if peak > c.env {
		c.env += c.attack * (peak - c.env)
	} else {
		c.env += c.release * (peak - c.env)
	}
	g := c.gain() * c.makeup
	return l * g, r * g
}

// GainReduction returns the current gain factor in (0, 1].
func (c *Compressor) GainReduction() float32 { return c.gain() }

func (c *Compressor) gain() float32 {
	if c.threshold <= 0 || c.env <= c.threshold {
		return 1
	}
	return float32(math.Pow(float64(c.env/c.threshold), float64(c.slope)))
}

func (c *Compressor) Reset() { c.env = 0 }

func dbToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

func coefficient(sampleRate int, ms float32) float32 {
	if ms <= 0 || sampleRate <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(float64(ms)*float64(sampleRate)/1000)))
}
