package audio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownBackend = errors.New("audio: unknown backend")
	ErrNotOpen        = errors.New("audio: backend not open")
	ErrSampleRate     = errors.New("audio: sample rate mismatch")
)

// Backend drives a SampleSource to an output. Open may fail when the platform
// has no usable device or denies access; callers may retry.
type Backend interface {
	Open(sampleRate int, src SampleSource) error
	Resume() error
	Suspend() error
	Close() error
}

const (
	BackendEbiten   = "ebiten"
	BackendOto      = "oto"
	BackendHeadless = "headless"
)

// NewBackend returns the named backend.
func NewBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendEbiten, "":
		return &Ebiten{}, nil
	case BackendOto:
		return &Oto{}, nil
	case BackendHeadless:
		return &Headless{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}
