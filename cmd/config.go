package cmd

import (
	"fmt"
	"log/slog"

	"sfxd/config"
	"sfxd/logger"

	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Commands for managing and validating sfxd configuration.",
}

// configValidateCmd validates the current configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the current configuration file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup basic logging for validation
		if err := logger.Setup("info", "text"); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		// Load configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Validate configuration
		if err := cfg.Validate(); err != nil {
			slog.Error("Configuration validation failed", slog.Any("error", err))
			return err
		}

		slog.Info("Configuration is valid")
		fmt.Println("✅ Configuration is valid")
		return nil
	},
}

// configShowCmd shows the current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration values from file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup basic logging
		if err := logger.Setup("info", "text"); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		// Load configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Println("Current Configuration:")
		fmt.Printf("  Audio:\n")
		fmt.Printf("    Output: %s\n", cfg.Audio.Output)
		fmt.Printf("    Sample rate: %d\n", cfg.Audio.SampleRate)
		fmt.Printf("    Buffer: %s\n", cfg.Audio.Buffer)
		fmt.Printf("    Max streams: %d\n", cfg.Audio.MaxStreams)
		fmt.Printf("  Sounds:\n")
		fmt.Printf("    Directory: %s\n", cfg.Sounds.Dir)
		fmt.Printf("    Preload: %t\n", cfg.Sounds.Preload)
		for _, key := range cfg.Sounds.SortedKeys() {
			fmt.Printf("    %s: %s\n", key, cfg.Sounds.Resources[key])
		}
		fmt.Printf("  Music:\n")
		fmt.Printf("    Volume: %.2f\n", cfg.Music.Volume)
		fmt.Printf("  Metrics:\n")
		fmt.Printf("    Listen: %s\n", orDisabled(cfg.Metrics.Listen))
		fmt.Printf("    Stats interval: %s\n", cfg.Metrics.StatsInterval)
		fmt.Printf("  Logging:\n")
		fmt.Printf("    Level: %s\n", cfg.Logging.Level)
		fmt.Printf("    Format: %s\n", cfg.Logging.Format)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

// orDisabled renders an empty address as disabled
func orDisabled(addr string) string {
	if addr == "" {
		return "disabled"
	}
	return addr
}
