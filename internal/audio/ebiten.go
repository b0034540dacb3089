package audio

import (
	"fmt"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var (
	ebitenOnce       sync.Once
	ebitenContext    *ebitaudio.Context
	ebitenSampleRate int
)

// ebiten allows one audio context per process.
func sharedEbitenContext(sampleRate int) (*ebitaudio.Context, error) {
	ebitenOnce.Do(func() {
		ebitenSampleRate = sampleRate
		ebitenContext = ebitaudio.NewContext(sampleRate)
	})
	if ebitenSampleRate != sampleRate {
		return nil, fmt.Errorf("%w: ebiten context at %d Hz, requested %d Hz", ErrSampleRate, ebitenSampleRate, sampleRate)
	}
	return ebitenContext, nil
}

// Ebiten plays through ebiten's audio context.
type Ebiten struct {
	mu     sync.Mutex
	player *ebitaudio.Player
	reader *StreamReader
}

func (e *Ebiten) Open(sampleRate int, src SampleSource) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player != nil {
		return nil
	}
	ctx, err := sharedEbitenContext(sampleRate)
	if err != nil {
		return err
	}
	reader := NewStreamReader(src)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return fmt.Errorf("ebiten player: %w", err)
	}
	e.player, e.reader = pl, reader
	return nil
}

func (e *Ebiten) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil {
		return ErrNotOpen
	}
	e.player.Play()
	return nil
}

func (e *Ebiten) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil {
		return ErrNotOpen
	}
	e.player.Pause()
	return nil
}

func (e *Ebiten) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil {
		return nil
	}
	e.player.Pause()
	e.player.Close()
	err := e.reader.Close()
	e.player, e.reader = nil, nil
	return err
}
