package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual()
	var got []string
	m.AfterFunc(30*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(5 * time.Millisecond)
	assert.Empty(t, got)
	m.Advance(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 30*time.Millisecond, m.Now())
	assert.Equal(t, 0, m.Pending())
}

func TestManualRearmWithinAdvance(t *testing.T) {
	m := NewManual()
	var fired []time.Duration
	var tick func()
	tick = func() {
		fired = append(fired, m.Now())
		m.AfterFunc(25*time.Millisecond, tick)
	}
	m.AfterFunc(0, tick)
	m.Advance(100 * time.Millisecond)
	assert.Equal(t, []time.Duration{0, 25 * time.Millisecond, 50 * time.Millisecond, 75 * time.Millisecond, 100 * time.Millisecond}, fired)
	assert.Equal(t, 1, m.Pending())
}

func TestManualStop(t *testing.T) {
	m := NewManual()
	called := false
	tm := m.AfterFunc(time.Millisecond, func() { called = true })
	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	m.Advance(time.Second)
	assert.False(t, called)
}

func TestRealtimeFires(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	Realtime{}.AfterFunc(time.Millisecond, wg.Done)
	wg.Wait()
}
