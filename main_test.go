package main

import (
	"testing"
	"time"

	"sfxd/config"
)

func TestConfigValidation(t *testing.T) {
	dir := t.TempDir()

	valid := func() *config.Config {
		return &config.Config{
			Audio: config.AudioConfig{
				Output:     config.OutputSpeaker,
				SampleRate: 44100,
				Buffer:     100 * time.Millisecond,
				MaxStreams: 8,
			},
			Sounds: config.SoundsConfig{
				Dir:       dir,
				Resources: map[string]string{"1": "click.wav", "5": "explosion.mp3"},
			},
			Logging: config.LoggingConfig{
				Level:  "info",
				Format: "text",
			},
			Metrics: config.MetricsConfig{
				StatsInterval: time.Minute,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *config.Config) {},
			wantErr: false,
		},
		{
			name:    "headless output",
			mutate:  func(c *config.Config) { c.Audio.Output = config.OutputNone },
			wantErr: false,
		},
		{
			name:    "unknown output",
			mutate:  func(c *config.Config) { c.Audio.Output = "alsa" },
			wantErr: true,
		},
		{
			name:    "sample rate too low",
			mutate:  func(c *config.Config) { c.Audio.SampleRate = 100 },
			wantErr: true,
		},
		{
			name:    "no streams",
			mutate:  func(c *config.Config) { c.Audio.MaxStreams = 0 },
			wantErr: true,
		},
		{
			name:    "zero buffer",
			mutate:  func(c *config.Config) { c.Audio.Buffer = 0 },
			wantErr: true,
		},
		{
			name:    "zero stats interval",
			mutate:  func(c *config.Config) { c.Metrics.StatsInterval = 0 },
			wantErr: true,
		},
		{
			name:    "missing sound directory",
			mutate:  func(c *config.Config) { c.Sounds.Dir = dir + "/nope" },
			wantErr: true,
		},
		{
			name:    "non numeric resource id",
			mutate:  func(c *config.Config) { c.Sounds.Resources["click"] = "click.wav" },
			wantErr: true,
		},
		{
			name:    "resource without file",
			mutate:  func(c *config.Config) { c.Sounds.Resources["3"] = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
