package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/quill/internal/config"
)

var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:           "quill",
	Short:         "Inspect incremental syntax trees, highlighting and indentation",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.DefaultPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		setupLogging(cfg.Level())
		return nil
	},
}

func setupLogging(lvl zerolog.Level) {
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
}

func main() {
	rootCmd.AddCommand(highlightCmd)
	rootCmd.AddCommand(layersCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(indentCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(outlineCmd)

	rootCmd.PersistentFlags().String("config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (trace|debug|info|warn|error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "quill: %v\n", err)
		os.Exit(1)
	}
}
