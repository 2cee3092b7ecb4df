package tempo

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.DefaultEnabled)
	assert.Equal(t, 0.5, cfg.MinTempo)
	assert.Equal(t, 2.0, cfg.MaxTempo)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"equal bounds", Config{MinTempo: 1, MaxTempo: 1}, false},
		{"zero min", Config{MinTempo: 0, MaxTempo: 2}, true},
		{"negative min", Config{MinTempo: -1, MaxTempo: 2}, true},
		{"inverted", Config{MinTempo: 1.5, MaxTempo: 1.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ClampTempo(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.5, cfg.ClampTempo(0.1))
	assert.Equal(t, 2.0, cfg.ClampTempo(3))
	assert.Equal(t, 1.1, cfg.ClampTempo(1.1))
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte("default-enabled: false\nmax-tempo: 1.5\n"))
	require.NoError(t, err)
	assert.False(t, cfg.DefaultEnabled)
	assert.Equal(t, 0.5, cfg.MinTempo, "absent keys keep defaults")
	assert.Equal(t, 1.5, cfg.MaxTempo)
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := ParseConfig([]byte("min-tempo: 3\nmax-tempo: 1\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte("min-tempo: [1, 2\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "timestretch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min-tempo: 0.75\nmax-tempo: 1.25\n"), 0o644))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{DefaultEnabled: true, MinTempo: 0.75, MaxTempo: 1.25}, cfg)

	require.NoError(t, os.WriteFile(path, []byte("min-tempo: 2\nmax-tempo: 1\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_LogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("loaded", "config", DefaultConfig())
	assert.Contains(t, buf.String(), "config.default-enabled=true")
	assert.Contains(t, buf.String(), "config.min-tempo=0.5")
	assert.Contains(t, buf.String(), "config.max-tempo=2")
}
