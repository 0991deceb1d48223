package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, OutputSpeaker, cfg.Audio.Output)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 100*time.Millisecond, cfg.Audio.Buffer)
	assert.Equal(t, 8, cfg.Audio.MaxStreams)
	assert.True(t, cfg.Sounds.Preload)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Metrics.Listen)
	assert.Equal(t, time.Minute, cfg.Metrics.StatsInterval)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
audio:
  output: none
  sample_rate: 22050
  max_streams: 3
sounds:
  dir: ./fx
  resources:
    "1": click.wav
    "12": boom.ogg
metrics:
  listen: ":9464"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, OutputNone, cfg.Audio.Output)
	assert.Equal(t, 22050, cfg.Audio.SampleRate)
	assert.Equal(t, 3, cfg.Audio.MaxStreams)
	assert.Equal(t, ":9464", cfg.Metrics.Listen)

	ids, err := cfg.Sounds.IDs()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "click.wav", 12: "boom.ogg"}, ids)
	assert.Equal(t, []string{"1", "12"}, cfg.Sounds.SortedKeys())
}

func TestValidateReturnsConfigError(t *testing.T) {
	cfg := &Config{
		Audio:  AudioConfig{Output: OutputNone, SampleRate: 44100, Buffer: time.Millisecond, MaxStreams: 0},
		Sounds: SoundsConfig{Dir: t.TempDir()},
	}

	err := cfg.Validate()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "audio.max_streams", cfgErr.Field)
	assert.Contains(t, err.Error(), "audio.max_streams: ")
}

func TestSortedKeys(t *testing.T) {
	s := SoundsConfig{Resources: map[string]string{"10": "a", "2": "b", "x": "c"}}
	assert.Equal(t, []string{"2", "10", "x"}, s.SortedKeys())
}
