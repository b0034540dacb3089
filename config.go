package polystep

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cbegin/polystep/internal/audio"
	"github.com/cbegin/polystep/internal/sequencer"
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvSampleRate = "POLYSTEP_SAMPLE_RATE"
	EnvBackend    = "POLYSTEP_BACKEND"
	EnvMasterGain = "POLYSTEP_MASTER_GAIN"
	EnvLimiter    = "POLYSTEP_LIMITER"
	EnvDelay      = "POLYSTEP_DELAY"
)

// Config holds the settings an engine is built from.
type Config struct {
	SampleRate int
	Backend    string
	MasterGain float64
	Limiter    bool
	// Delay is the wet level of the tempo-synced master delay; 0 disables it.
	Delay float64

	Lookahead     time.Duration
	ScheduleAhead time.Duration
	LeadIn        time.Duration
}

func DefaultConfig() Config {
	return Config{
		SampleRate:    48000,
		Backend:       audio.BackendEbiten,
		MasterGain:    0.8,
		Limiter:       true,
		Lookahead:     sequencer.DefaultLookahead,
		ScheduleAhead: seconds(sequencer.DefaultScheduleAhead),
		LeadIn:        seconds(sequencer.DefaultLeadIn),
	}
}

// LoadConfigFromEnv returns DefaultConfig overridden by any POLYSTEP_*
// variables that are set. A malformed value is an error.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if v, ok := lookup(EnvSampleRate); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvSampleRate, err)
		}
		cfg.SampleRate = n
	}
	if v, ok := lookup(EnvBackend); ok {
		cfg.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvMasterGain); ok {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvMasterGain, err)
		}
		cfg.MasterGain = g
	}
	if v, ok := lookup(EnvLimiter); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvLimiter, err)
		}
		cfg.Limiter = b
	}
	if v, ok := lookup(EnvDelay); ok {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvDelay, err)
		}
		cfg.Delay = w
	}
	return cfg, nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }
