package machine

import (
	"context"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfxd/config"
	"sfxd/internal/audiotest"
	"sfxd/playback"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "click.wav", beep.SampleRate(8000), 400, 0.5)
	audiotest.WriteWAV(t, dir, "theme.wav", beep.SampleRate(8000), 8000, 0.2)

	return &config.Config{
		Audio: config.AudioConfig{
			Output:     config.OutputNone,
			SampleRate: 8000,
			Buffer:     10 * time.Millisecond,
			MaxStreams: 4,
		},
		Sounds: config.SoundsConfig{
			Dir:       dir,
			Resources: map[string]string{"1": "click.wav", "2": "theme.wav"},
			Preload:   true,
		},
		Metrics: config.MetricsConfig{StatsInterval: 10 * time.Millisecond},
	}
}

func TestMachineLifecycle(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Validate())

	m := New(cfg)
	require.NoError(t, m.Initialize())
	require.NoError(t, m.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.sounds.Flush(ctx))

	assert.True(t, m.sounds.Loaded(1), "preloaded")
	assert.True(t, m.sounds.Loaded(2), "preloaded")
	assert.Equal(t, 2, m.pool.Loaded())

	host := m.Console()
	host.Effects.PlayRepeat(1, 0.5, 0)
	host.Effects.Unload(2)
	require.NoError(t, m.sounds.Flush(ctx))
	assert.False(t, m.sounds.Loaded(2))

	require.NoError(t, host.Music.Play(2))
	id, ok := m.music.Current()
	assert.True(t, ok)
	assert.EqualValues(t, 2, id)

	require.NoError(t, m.Stop())

	select {
	case <-m.Done():
	default:
		t.Fatal("sound manager still running after Stop")
	}
	assert.Zero(t, m.pool.Loaded())
	assert.False(t, m.music.Playing())
}

func TestMachineExportsMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sounds.Preload = false

	m := New(cfg)
	require.NoError(t, m.Initialize())
	require.NoError(t, m.Start())
	defer m.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m.sounds.Load(1)
	m.sounds.Play(9)
	require.NoError(t, m.sounds.Flush(ctx))

	families, err := m.registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["sfxd_commands_total"])
	assert.True(t, names["sfxd_cached_resources"])
	assert.True(t, names["go_goroutines"])
}

func TestInitializeRejectsBadResources(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sounds.Resources["click"] = "click.wav"

	m := New(cfg)
	assert.Error(t, m.Initialize())
	assert.ErrorIs(t, m.output.Close(), playback.ErrClosed, "output closed after a failed initialize")
}

func TestInitializeClosesOutputWhenPoolFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audio.MaxStreams = 0

	m := New(cfg)
	require.Error(t, m.Initialize())
	assert.ErrorIs(t, m.output.Close(), playback.ErrClosed)
}
