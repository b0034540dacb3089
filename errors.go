package polystep

import (
	"errors"

	"github.com/cbegin/polystep/internal/audio"
)

var (
	// ErrAudioUnavailable wraps a backend open or resume failure. The engine
	// stays un-started and Start may be retried.
	ErrAudioUnavailable = errors.New("polystep: audio unavailable")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("polystep: engine closed")
	// ErrUnknownBackend is returned by New for an unrecognised backend name.
	ErrUnknownBackend = audio.ErrUnknownBackend
	// ErrInvalidSampleRate is returned by New for a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("polystep: sample rate must be positive")
)
