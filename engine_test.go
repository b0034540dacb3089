package polystep

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/polystep/internal/audio"
	"github.com/cbegin/polystep/internal/patch"
)

func newHeadless(t *testing.T, opts ...Option) (*Engine, *audio.Headless) {
	t.Helper()
	h := &audio.Headless{}
	e, err := New(append([]Option{WithSampleRate(8000), WithOutput(h)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, h
}

func started(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, _ := newHeadless(t, opts...)
	require.NoError(t, e.Start())
	return e
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(WithSampleRate(0))
	assert.ErrorIs(t, err, ErrInvalidSampleRate)

	_, err = New(WithBackend("speaker"))
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestOperationsBeforeStartAreIgnored(t *testing.T) {
	e, h := newHeadless(t)
	e.NoteOn(60, 100)
	e.SetPattern(Pattern{})
	e.Play()
	e.PlaySound(Kick)

	assert.Zero(t, e.ActiveVoices())
	assert.False(t, e.Playing())
	_, loaded := e.Pattern()
	assert.False(t, loaded)
	assert.Equal(t, NoStep, e.CurrentStep())
	assert.Zero(t, e.Stats().Streams)
	assert.False(t, h.Running())
}

func TestStartFailureIsRecoverable(t *testing.T) {
	denied := errors.New("permission denied")
	e, h := newHeadless(t)
	h.OpenErr = denied

	err := e.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAudioUnavailable)
	assert.ErrorIs(t, err, denied)
	e.NoteOn(60, 100)
	assert.Zero(t, e.ActiveVoices())

	h.OpenErr = nil
	require.NoError(t, e.Start())
	require.NoError(t, e.Start())
	assert.True(t, h.Running())
	e.NoteOn(60, 100)
	assert.Equal(t, 1, e.ActiveVoices())
}

func TestSuspendResume(t *testing.T) {
	e, h := newHeadless(t)
	require.NoError(t, e.Start())
	require.NoError(t, e.Suspend())
	assert.False(t, h.Running())
	assert.Zero(t, h.Pull(100)[0])
	assert.Zero(t, e.Stats().Time)

	require.NoError(t, e.Resume())
	assert.True(t, h.Running())
	e.Render(800)
	assert.InDelta(t, 0.1, e.Stats().Time, 1e-9)
}

func TestCloseIsFinal(t *testing.T) {
	e := started(t)
	e.NoteOn(60, 100)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.Zero(t, e.ActiveVoices())
	assert.ErrorIs(t, e.Start(), ErrClosed)
	e.NoteOn(62, 100)
	assert.Zero(t, e.ActiveVoices())
}

func TestNoteLifecycle(t *testing.T) {
	e := started(t)
	e.NoteOn(60, 100)
	e.NoteOn(64, 100)
	assert.Equal(t, 2, e.ActiveVoices())

	e.NoteOff(60)
	e.NoteOff(60)
	e.NoteOff(61)
	assert.Equal(t, 1, e.ActiveVoices())
	assert.Equal(t, 2, e.Stats().Graphs)

	// past the default release hold of 0.3s
	e.Render(4000)
	st := e.Stats()
	assert.Equal(t, 1, st.Released)
	assert.Equal(t, 1, st.Graphs)

	e.NoteOff(64)
	e.Render(4000)
	st = e.Stats()
	assert.Equal(t, 2, st.Released)
	assert.Zero(t, st.Graphs)
}

func TestNoteOnRetriggersHeldNote(t *testing.T) {
	e := started(t)
	e.NoteOn(60, 127)
	e.NoteOn(60, 127)
	assert.Equal(t, 1, e.ActiveVoices())
	assert.Equal(t, 2, e.Stats().Graphs)
}

func TestNoteOutOfRangeIgnored(t *testing.T) {
	e := started(t)
	e.NoteOn(128, 100)
	e.NoteOn(-1, 100)
	e.NoteOff(200)
	assert.Zero(t, e.ActiveVoices())
	assert.Zero(t, e.Stats().Graphs)
}

func TestHandleMIDI(t *testing.T) {
	e := started(t)
	steps := []struct {
		raw  []byte
		want int
	}{
		{[]byte{0x90, 60, 100}, 1},
		{[]byte{0x91, 62, 1}, 2},
		{[]byte{0x90, 60, 0}, 1},
		{[]byte{0xB0, 7, 100}, 1},
		{[]byte{0x82, 62, 0}, 0},
		{[]byte{0x90}, 0},
	}
	for _, s := range steps {
		e.HandleMIDI(s.raw)
		assert.Equal(t, s.want, e.ActiveVoices(), "after % x", s.raw)
	}
}

func TestUpdateParamsClampsAndApplies(t *testing.T) {
	e := started(t)
	e.NoteOn(60, 100)

	p := DefaultParams()
	p.Filter.CutoffHz = -5
	p.AmpEnv.Attack = -1
	p.LFO.Depth = 3
	e.UpdateParams(p)

	got := e.Params()
	assert.Equal(t, float64(patch.MinCutoff), got.Filter.CutoffHz)
	assert.Zero(t, got.AmpEnv.Attack)
	assert.Equal(t, 1.0, got.LFO.Depth)
	assert.Equal(t, 1, e.ActiveVoices())
}

func TestUpdateParamsBeforeStart(t *testing.T) {
	e, _ := newHeadless(t)
	p := DefaultParams()
	p.Filter.CutoffHz = 900
	e.UpdateParams(p)
	assert.Equal(t, 900.0, e.Params().Filter.CutoffHz)
}

func TestToggleStep(t *testing.T) {
	e := started(t)
	assert.True(t, e.ToggleStep(Snare, 4))
	p, loaded := e.Pattern()
	require.True(t, loaded)
	assert.True(t, p.Get(Snare, 4))
	assert.Equal(t, 1, p.Hits())

	assert.False(t, e.ToggleStep(Snare, 4))
	p, _ = e.Pattern()
	assert.Zero(t, p.Hits())
}

func TestTempoSwingPitch(t *testing.T) {
	e := started(t, WithDelay(0.3))
	e.SetBPM(0)
	assert.Equal(t, 120.0, e.BPM())
	e.SetBPM(1e18)
	assert.Equal(t, 120.0, e.BPM())
	e.SetBPM(90)
	assert.Equal(t, 90.0, e.BPM())
	assert.InDelta(t, 0.5, e.delay.Time(), 1e-3)

	e.SetSwing(150)
	assert.Equal(t, 100.0, e.Swing())
	e.SetSwing(-3)
	assert.Zero(t, e.Swing())

	e.SetTrackPitch(HiHat, 24)
	assert.InDelta(t, 2.0, e.seq.TrackRate(HiHat), 1e-12)
	e.SetTrackPitch(Track(9), 3)
}

func TestPlaySound(t *testing.T) {
	e := started(t)
	e.PlaySound(Crash)
	e.PlaySound(Track(-1))
	assert.Equal(t, 1, e.Stats().Streams)

	out := e.Render(400)
	var peak float32
	for _, v := range out {
		peak = max(peak, v, -v)
	}
	assert.Greater(t, peak, float32(0.01))
}

func TestPlayWithoutPatternDoesNothing(t *testing.T) {
	e := started(t)
	e.Play()
	assert.False(t, e.Playing())
	e.Stop()
}

func TestStepCallbackAndWatch(t *testing.T) {
	var steps []int
	var watch <-chan StepEvent
	_, err := RenderOffline(2.0, func(e *Engine) {
		watch = e.Watch()
		var p Pattern
		p.Set(Kick, 0, true)
		p.Set(Kick, 8, true)
		e.SetPattern(p)
		e.Play()
		e.Play()
	}, WithSampleRate(8000), WithStepCallback(func(step int) { steps = append(steps, step) }))
	require.NoError(t, err)

	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, NoStep}
	assert.Equal(t, want, steps)

	var got []int
	for len(got) < 8 {
		got = append(got, (<-watch).Step)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, got)
}
