package polystep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, "ebiten", cfg.Backend)
	assert.Equal(t, 0.8, cfg.MasterGain)
	assert.True(t, cfg.Limiter)
	assert.Zero(t, cfg.Delay)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(EnvSampleRate, "44100")
	t.Setenv(EnvBackend, " OTO ")
	t.Setenv(EnvMasterGain, "0.5")
	t.Setenv(EnvLimiter, "false")
	t.Setenv(EnvDelay, "0.25")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, "oto", cfg.Backend)
	assert.Equal(t, 0.5, cfg.MasterGain)
	assert.False(t, cfg.Limiter)
	assert.Equal(t, 0.25, cfg.Delay)
	assert.Equal(t, DefaultConfig().Lookahead, cfg.Lookahead)
}

func TestLoadConfigFromEnvMalformed(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvSampleRate, "fast"},
		{EnvMasterGain, "loud"},
		{EnvLimiter, "maybe"},
		{EnvDelay, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfigFromEnv()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestWithConfigBuildsEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "headless"
	cfg.SampleRate = 22050
	cfg.Delay = 0.2
	e, err := New(WithConfig(cfg))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Start())
	assert.NotNil(t, e.delay)
	assert.Len(t, e.Render(64), 128)
}
