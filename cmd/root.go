/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log/slog"
	"os"

	"github.com/barklazza/projeto-vendas/config"
	"github.com/barklazza/projeto-vendas/internal/logging"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "projeto-vendas",
	Short: "Sales tracker for jewelry resellers",
	Long: `Sales tracker for jewelry resellers: records sales, computes the
commission split, exports workbooks and keeps a backup log.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT,
// falling back to info when the level is unknown.
func newLogger(cfg config.Config) *slog.Logger {
	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.JSON,
		SetDefault: true,
	})
	if err != nil {
		logger, _ = logging.New(logging.Options{JSON: cfg.Log.JSON, SetDefault: true})
		logger.Warn("invalid LOG_LEVEL, using info", "error", err)
	}
	return logger
}
