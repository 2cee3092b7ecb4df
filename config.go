package tempo

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds module-wide settings. It is loaded once at startup and
// passed by value; nothing mutates it afterwards.
type Config struct {
	// DefaultEnabled applies tempo processing to sessions that have not
	// set the enable variable.
	DefaultEnabled bool `yaml:"default-enabled"`

	// MinTempo and MaxTempo bound administrative tempo overrides.
	MinTempo float64 `yaml:"min-tempo"`
	MaxTempo float64 `yaml:"max-tempo"`
}

// DefaultConfig returns the settings used when no configuration exists.
func DefaultConfig() Config {
	return Config{
		DefaultEnabled: true,
		MinTempo:       DefaultMinTempo,
		MaxTempo:       DefaultMaxTempo,
	}
}

// Validate checks the tempo bounds.
func (c Config) Validate() error {
	if math.IsNaN(c.MinTempo) || math.IsNaN(c.MaxTempo) {
		return fmt.Errorf("%w: tempo bounds must be numbers", ErrInvalidConfig)
	}
	if c.MinTempo <= 0 {
		return fmt.Errorf("%w: min-tempo must be positive, got %g", ErrInvalidConfig, c.MinTempo)
	}
	if c.MaxTempo < c.MinTempo {
		return fmt.Errorf("%w: max-tempo %g is below min-tempo %g", ErrInvalidConfig, c.MaxTempo, c.MinTempo)
	}
	return nil
}

// ClampTempo limits t to [MinTempo, MaxTempo].
func (c Config) ClampTempo(t float64) float64 {
	return max(c.MinTempo, min(c.MaxTempo, t))
}

// ParseConfig decodes YAML settings. Keys that are absent keep their
// defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads settings from a YAML file. A missing file yields
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LogValue implements slog.LogValuer.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("default-enabled", c.DefaultEnabled),
		slog.Float64("min-tempo", c.MinTempo),
		slog.Float64("max-tempo", c.MaxTempo),
	)
}
