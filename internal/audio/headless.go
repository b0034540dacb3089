package audio

import "sync"

// Headless renders only when pulled. Tests and offline rendering drive time
// through Pull.
type Headless struct {
	mu      sync.Mutex
	src     SampleSource
	running bool
	OpenErr error // returned by Open when set
	pulled  int64
	buf     []float32
}

func (h *Headless) Open(_ int, src SampleSource) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.OpenErr != nil {
		return h.OpenErr
	}
	h.src = src
	return nil
}

func (h *Headless) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.src == nil {
		return ErrNotOpen
	}
	h.running = true
	return nil
}

func (h *Headless) Suspend() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.src == nil {
		return ErrNotOpen
	}
	h.running = false
	return nil
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.src = nil
	h.running = false
	return nil
}

// Running reports whether the backend is open and not suspended.
func (h *Headless) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Pull renders frames stereo frames and returns them interleaved. The slice
// is reused by the next call. A suspended backend returns silence without
// advancing the source.
func (h *Headless) Pull(frames int) []float32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	need := frames * 2
	if cap(h.buf) < need {
		h.buf = make([]float32, need)
	}
	h.buf = h.buf[:need]
	if !h.running || h.src == nil {
		clear(h.buf)
		return h.buf
	}
	h.src.Process(h.buf)
	h.pulled += int64(frames)
	return h.buf
}

// Pulled returns the total frames rendered.
func (h *Headless) Pulled() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pulled
}
