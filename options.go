package polystep

import (
	"io"
	"log/slog"
	"time"

	"github.com/cbegin/polystep/internal/audio"
	"github.com/cbegin/polystep/internal/clock"
	"github.com/cbegin/polystep/internal/patch"
)

// Params is a complete synth patch.
type Params = patch.Params

// DefaultParams returns the initial patch.
func DefaultParams() Params { return patch.Default() }

// Backend is an audio output the engine renders into.
type Backend = audio.Backend

// Timers schedules the sequencer's wake and step callbacks.
type Timers = clock.Timers

type Option func(*engineConfig)

type engineConfig struct {
	Config
	backend Backend
	logger  *slog.Logger
	onStep  func(step int)
	timers  Timers
	params  Params
	seed    uint64
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		Config: DefaultConfig(),
		params: patch.Default(),
	}
}

// WithConfig replaces every setting Config covers.
func WithConfig(c Config) Option {
	return func(cfg *engineConfig) {
		cfg.Config = c
	}
}

func WithSampleRate(sampleRate int) Option {
	return func(cfg *engineConfig) {
		cfg.SampleRate = sampleRate
	}
}

// WithBackend selects an output by name: "ebiten", "oto" or "headless".
func WithBackend(name string) Option {
	return func(cfg *engineConfig) {
		cfg.Backend = name
	}
}

// WithOutput renders into b instead of a named backend.
func WithOutput(b Backend) Option {
	return func(cfg *engineConfig) {
		cfg.backend = b
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *engineConfig) {
		cfg.logger = l
	}
}

// WithStepCallback installs fn to receive each step index as it sounds, and
// -1 when the sequencer stops. fn runs with the engine locked; it must not
// call engine methods.
func WithStepCallback(fn func(step int)) Option {
	return func(cfg *engineConfig) {
		cfg.onStep = fn
	}
}

// WithTimers replaces the wall-clock timers driving the sequencer.
func WithTimers(t Timers) Option {
	return func(cfg *engineConfig) {
		cfg.timers = t
	}
}

func WithMasterGain(gain float64) Option {
	return func(cfg *engineConfig) {
		cfg.MasterGain = gain
	}
}

func WithLimiter(enabled bool) Option {
	return func(cfg *engineConfig) {
		cfg.Limiter = enabled
	}
}

// WithDelay enables the tempo-synced ping-pong delay at wet level.
func WithDelay(wet float64) Option {
	return func(cfg *engineConfig) {
		cfg.Delay = wet
	}
}

// WithParams sets the initial patch.
func WithParams(p Params) Option {
	return func(cfg *engineConfig) {
		cfg.params = p
	}
}

// WithLookahead sets the sequencer wake period and the window each wake
// schedules ahead.
func WithLookahead(wake, ahead time.Duration) Option {
	return func(cfg *engineConfig) {
		cfg.Lookahead = wake
		cfg.ScheduleAhead = ahead
	}
}

// WithNoiseSeed fixes the drum noise generator for reproducible renders.
func WithNoiseSeed(seed uint64) Option {
	return func(cfg *engineConfig) {
		cfg.seed = seed
	}
}

func (cfg *engineConfig) log() *slog.Logger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
