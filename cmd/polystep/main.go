package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/polystep"
)

var (
	logLevel   string
	backend    string
	sampleRate int
	duration   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "polystep",
	Short: "Polyphonic synth and drum step sequencer",
	Long: `polystep plays a four-track drum pattern, an arpeggio on the
polyphonic synth, or notes read as raw MIDI messages.

Defaults come from POLYSTEP_* environment variables; flags override them.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(beatCmd)
	rootCmd.AddCommand(arpCmd)
	rootCmd.AddCommand(midiCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&backend, "backend", "", "audio backend (ebiten, oto, headless)")
	pf.IntVar(&sampleRate, "sample-rate", 0, "output sample rate in Hz")
	pf.DurationVarP(&duration, "duration", "d", 0, "stop after this long (0 = until interrupted)")
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// startEngine builds and starts an engine from the environment and the
// persistent flags.
func startEngine(opts ...polystep.Option) (*polystep.Engine, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	cfg, err := polystep.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if sampleRate > 0 {
		cfg.SampleRate = sampleRate
	}
	opts = append([]polystep.Option{polystep.WithConfig(cfg), polystep.WithLogger(logger)}, opts...)
	e, err := polystep.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Start(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// runContext is cancelled on interrupt or once --duration elapses.
func runContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if duration <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, duration)
	return ctx, func() {
		cancel()
		stop()
	}
}

// splitList splits a comma or space separated flag value.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}
