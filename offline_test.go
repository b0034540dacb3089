package polystep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func beat(e *Engine) {
	p, err := ParsePattern(`
		kick:  x... .... x... ....
		snare: .... x... .... x...
		hihat: x.x. x.x. x.x. x.x.
		crash: x... .... .... ....
	`)
	if err != nil {
		panic(err)
	}
	e.SetPattern(p)
	e.SetSwing(40)
	e.NoteOn(57, 100)
	e.Play()
}

func TestRenderOfflineIsDeterministic(t *testing.T) {
	a, err := RenderOffline(0.5, beat, WithSampleRate(8000), WithNoiseSeed(7))
	require.NoError(t, err)
	b, err := RenderOffline(0.5, beat, WithSampleRate(8000), WithNoiseSeed(7))
	require.NoError(t, err)

	require.Len(t, a, 8000)
	assert.Equal(t, a, b)
}

func TestRenderOfflineOutputIsBounded(t *testing.T) {
	out, err := RenderOffline(1, beat, WithSampleRate(8000), WithNoiseSeed(1), WithMasterGain(4), WithLimiter(false))
	require.NoError(t, err)

	var peak float32
	for _, v := range out {
		require.LessOrEqual(t, v, float32(1))
		require.GreaterOrEqual(t, v, float32(-1))
		peak = max(peak, v)
	}
	assert.Greater(t, peak, float32(0.1))
}

func TestRenderOfflineSilentWithoutSetup(t *testing.T) {
	out, err := RenderOffline(0.1, nil, WithSampleRate(8000))
	require.NoError(t, err)
	for _, v := range out {
		require.Zero(t, v)
	}
}

func TestRenderOfflineRejectsBadRate(t *testing.T) {
	_, err := RenderOffline(1, nil, WithSampleRate(-1))
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

func BenchmarkRenderOfflineBeat(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := RenderOffline(1, beat, WithNoiseSeed(1)); err != nil {
			b.Fatal(err)
		}
	}
}
