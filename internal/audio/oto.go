package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// The oto context is process-wide and cannot be recreated at another rate.
// A failed creation is not remembered, so a later Open may retry.
var (
	otoMu         sync.Mutex
	otoContext    *oto.Context
	otoSampleRate int

	newOtoContext = oto.NewContext
)

func sharedOtoContext(sampleRate int) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()
	if otoContext == nil {
		ctx, ready, err := newOtoContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			return nil, fmt.Errorf("oto context: %w", err)
		}
		<-ready
		otoContext, otoSampleRate = ctx, sampleRate
	}
	if otoSampleRate != sampleRate {
		return nil, fmt.Errorf("%w: oto context at %d Hz, requested %d Hz", ErrSampleRate, otoSampleRate, sampleRate)
	}
	return otoContext, nil
}

// Oto writes directly to the device through oto.
type Oto struct {
	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
}

func (o *Oto) Open(sampleRate int, src SampleSource) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		return nil
	}
	ctx, err := sharedOtoContext(sampleRate)
	if err != nil {
		return err
	}
	o.ctx = ctx
	o.player = ctx.NewPlayer(NewStreamReader(src))
	return nil
}

func (o *Oto) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return ErrNotOpen
	}
	if err := o.ctx.Resume(); err != nil {
		return fmt.Errorf("oto resume: %w", err)
	}
	o.player.Play()
	return nil
}

func (o *Oto) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return ErrNotOpen
	}
	o.player.Pause()
	return nil
}

func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return nil
	}
	o.player.Pause()
	err := o.player.Close()
	o.player = nil
	return err
}
