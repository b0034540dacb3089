package polystep

import (
	"time"

	"github.com/cbegin/polystep/internal/audio"
	"github.com/cbegin/polystep/internal/clock"
)

// OfflineBlock is the number of frames RenderOffline renders between timer
// advances.
const OfflineBlock = 256

// RenderOffline renders seconds of audio without a device. setup runs on a
// started engine before the first frame; it may play notes, load a pattern
// and start the sequencer. Sequencer timers advance in step with the
// rendered frames, so the result is deterministic for a fixed noise seed.
func RenderOffline(seconds float64, setup func(e *Engine), opts ...Option) ([]float32, error) {
	clk := clock.NewManual()
	opts = append(opts, WithOutput(&audio.Headless{}), WithTimers(clk))
	e, err := New(opts...)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	if err := e.Start(); err != nil {
		return nil, err
	}
	if setup != nil {
		setup(e)
	}

	sr := float64(e.sampleRate)
	total := int(seconds * sr)
	out := make([]float32, 0, total*2)
	for done := 0; done < total; {
		n := min(OfflineBlock, total-done)
		out = append(out, e.Render(n)...)
		done += n
		elapsed := time.Duration(float64(done) / sr * float64(time.Second))
		clk.Advance(elapsed - clk.Now())
	}
	return out, nil
}
