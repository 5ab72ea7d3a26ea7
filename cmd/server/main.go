package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vovakirdan/matchchat-server/internal/app"
	"github.com/vovakirdan/matchchat-server/internal/config"
	"github.com/vovakirdan/matchchat-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configPath string

	cmd := &cobra.Command{
		Use:           "matchchat-server",
		Short:         "Matching and chat backend with a realtime gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.New("info", "console")
			cfg, path, err := config.LoadWith(v, bootLogger, configPath)
			if err != nil {
				return err
			}

			logger := log.New(cfg.LogLevel, cfg.LogFormat)
			logger.Info().Str("config", path).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting matchchat server")
			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited with error: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to the YAML config file")
	flags.String("addr", "", "HTTP listen address")
	flags.String("db", "", "SQLite database path")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	_ = v.BindPFlag("addr", flags.Lookup("addr"))
	_ = v.BindPFlag("database_path", flags.Lookup("db"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	cmd.SetContext(context.Background())
	return cmd
}
