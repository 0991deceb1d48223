package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Audio output configuration
	Audio AudioConfig `mapstructure:"audio"`

	// Sound resources
	Sounds SoundsConfig `mapstructure:"sounds"`

	// Music player configuration
	Music MusicConfig `mapstructure:"music"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AudioConfig holds audio output configuration
type AudioConfig struct {
	Output     string        `mapstructure:"output"` // speaker or none
	SampleRate int           `mapstructure:"sample_rate"`
	Buffer     time.Duration `mapstructure:"buffer"`
	MaxStreams int           `mapstructure:"max_streams"`
}

// SoundsConfig maps resource ids to files below Dir
type SoundsConfig struct {
	Dir       string            `mapstructure:"dir"`
	Resources map[string]string `mapstructure:"resources"`
	Preload   bool              `mapstructure:"preload"`
}

// MusicConfig holds music player configuration
type MusicConfig struct {
	Volume float64 `mapstructure:"volume"` // base 2 exponent, 0 is unchanged
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Listen        string        `mapstructure:"listen"` // empty disables the endpoint
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

// Output backends
const (
	OutputSpeaker = "speaker"
	OutputNone    = "none"
)

// SetDefaults registers the default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("audio.output", OutputSpeaker)
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.buffer", "100ms")
	v.SetDefault("audio.max_streams", 8)
	v.SetDefault("sounds.dir", "./sounds")
	v.SetDefault("sounds.preload", true)
	v.SetDefault("music.volume", 0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("metrics.listen", "")
	v.SetDefault("metrics.stats_interval", "1m")
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load reads configuration through v
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	// Read config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.sfxd")
	v.AddConfigPath("/etc/sfxd")

	// Allow environment variables
	v.SetEnvPrefix("SFXD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Info("Using config file", slog.String("file", v.ConfigFileUsed()))
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Audio.Output {
	case OutputSpeaker, OutputNone:
	default:
		return &ConfigError{Field: "audio.output", Message: fmt.Sprintf("unknown output %q, want speaker or none", c.Audio.Output)}
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return &ConfigError{Field: "audio.sample_rate", Message: "sample rate must be between 8000 and 192000"}
	}
	if c.Audio.Buffer <= 0 {
		return &ConfigError{Field: "audio.buffer", Message: "buffer duration must be positive"}
	}
	if c.Audio.MaxStreams < 1 {
		return &ConfigError{Field: "audio.max_streams", Message: "at least one stream is required"}
	}
	if c.Metrics.StatsInterval <= 0 {
		return &ConfigError{Field: "metrics.stats_interval", Message: "stats interval must be positive"}
	}
	if c.Sounds.Dir == "" {
		return &ConfigError{Field: "sounds.dir", Message: "sound directory is required"}
	}
	if info, err := os.Stat(c.Sounds.Dir); err != nil || !info.IsDir() {
		return &ConfigError{Field: "sounds.dir", Message: fmt.Sprintf("%s is not a directory", c.Sounds.Dir)}
	}
	if _, err := c.Sounds.IDs(); err != nil {
		return err
	}
	return nil
}

// IDs returns the configured resources keyed by numeric id
func (s SoundsConfig) IDs() (map[int]string, error) {
	ids := make(map[int]string, len(s.Resources))
	for key, file := range s.Resources {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, &ConfigError{Field: "sounds.resources", Message: fmt.Sprintf("resource id %q is not an integer", key)}
		}
		if file == "" {
			return nil, &ConfigError{Field: "sounds.resources", Message: fmt.Sprintf("resource %d has no file", id)}
		}
		ids[id] = file
	}
	return ids, nil
}

// SortedKeys returns the resource keys in numeric order, unparsable keys last
func (s SoundsConfig) SortedKeys() []string {
	keys := make([]string, 0, len(s.Resources))
	for key := range s.Resources {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
