package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"mightstone-backend/internal/app"
	"mightstone-backend/internal/components/telemetry"
	libtelemetry "mightstone-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	instance   *app.App
)

var rootCmd = &cobra.Command{
	Use:   "mightstone-cli",
	Short: "mightstone-cli queries EDHREC the same way the server does and prints tables.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		libtelemetry.InitSlog(level, false)

		var cfg app.Config
		var err error
		if cmd.Flags().Changed("config") {
			cfg, err = app.LoadConfig(configPath)
		} else {
			cfg, err = app.FindConfig(configPath)
		}
		if errors.Is(err, os.ErrNotExist) {
			cfg = app.DefaultConfig()
		} else if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		instance, err = app.New(cfg, telemetry.SlogAPI{})
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if instance == nil {
			return nil
		}
		return instance.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Path to the json5 config file.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
