package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	tempo "github.com/tphakala/go-audio-tempo"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tempo",
	Short: "Pitch-preserving tempo stretching for 16-bit PCM audio",
	Long: `tempo - change playback speed without changing pitch.

Commands:
  stretch   stretch a 16-bit WAV file at a speed level or tempo multiplier
  console   run timestretch administration commands against live sessions

Speed levels run from -2 to +2 and map to tempo 0.5x to 1.5x in steps
of 0.25. Explicit tempo values are clamped to the configured bounds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML settings file (default-enabled, min-tempo, max-tempo)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(stretchCmd)
	rootCmd.AddCommand(consoleCmd)
}

// newLogger returns the structured logger handed to the library.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the settings file, or returns defaults when none is
// given.
func loadConfig(logger *slog.Logger) (tempo.Config, error) {
	cfg := tempo.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = tempo.LoadConfig(configPath)
		if err != nil {
			return tempo.Config{}, err
		}
	}
	logger.Info("timestretch settings loaded", "config", cfg)
	return cfg, nil
}
