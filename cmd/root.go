package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sfxd/config"
	"sfxd/console"
	"sfxd/logger"
	"sfxd/machine"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	cfgFile   string
	verbose   bool
	noConsole bool
)

// errQuit ends the run group when the console asks to quit
var errQuit = errors.New("quit requested")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sfxd",
	Short: "A sound effect daemon",
	Long: `Sfxd loads short sound effects into memory and plays them on request,
with an optional single music track playing alongside.

Commands are read from stdin, one per line. Every command returns
immediately and is applied in order by a single background dispatcher.`,
	RunE: runServer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Local flags for the server command
	rootCmd.Flags().StringP("output", "o", config.OutputSpeaker, "audio output (speaker, none)")
	rootCmd.Flags().Int("sample-rate", 44100, "output sample rate")
	rootCmd.Flags().Int("max-streams", 8, "maximum concurrent sound effect streams")
	rootCmd.Flags().StringP("sounds-dir", "s", "./sounds", "directory holding sound files")
	rootCmd.Flags().String("metrics-listen", "", "address serving Prometheus metrics, empty disables")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", "text", "log format (text, json)")
	rootCmd.Flags().BoolVar(&noConsole, "no-console", false, "do not read commands from stdin")

	// Bind flags to viper
	viper.BindPFlag("audio.output", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("audio.sample_rate", rootCmd.Flags().Lookup("sample-rate"))
	viper.BindPFlag("audio.max_streams", rootCmd.Flags().Lookup("max-streams"))
	viper.BindPFlag("sounds.dir", rootCmd.Flags().Lookup("sounds-dir"))
	viper.BindPFlag("metrics.listen", rootCmd.Flags().Lookup("metrics-listen"))
	viper.BindPFlag("logging.level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.Flags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if verbose {
		viper.Set("logging.level", "debug")
	}
}

// runServer starts the main application
func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// Setup logging
	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	// Create and initialize the machine
	m := machine.New(cfg)
	if err := m.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize machine: %w", err)
	}

	// Start the machine
	if err := m.Start(); err != nil {
		return fmt.Errorf("failed to start machine: %w", err)
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if !noConsole {
		g.Go(func() error {
			c := console.New(m.Console(), cmd.OutOrStdout())
			if err := c.Run(ctx, cmd.InOrStdin()); err != nil {
				return err
			}
			return errQuit
		})
	}

	g.Go(func() error {
		select {
		case <-ctx.Done():
			fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down gracefully...")
			return nil
		case <-m.Done():
			return errQuit
		case err := <-m.Error():
			slog.Error("Error occurred", slog.Any("error", err))
			return err
		}
	})

	runErr := g.Wait()
	if errors.Is(runErr, errQuit) || errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	// Graceful shutdown
	if err := m.Stop(); err != nil {
		return fmt.Errorf("failed to stop machine gracefully: %w", err)
	}

	return runErr
}
