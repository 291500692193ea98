// Package main is the CLI entry point for forensic-mapper.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iyulab/forensic-mapper/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	rootCmd := &cobra.Command{
		Use:   "mapper",
		Short: "Forensic artifact extraction and kill chain mapping",
		Long: `forensic-mapper reads an incident report, extracts typed forensic artifacts
with an LLM, maps each artifact to an attack lifecycle phase with an explicit
reasoning chain, and scores analyses against ground-truth annotations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			switch logFormat {
			case "text", "json":
			default:
				return fmt.Errorf("unknown log format %q (want text or json)", logFormat)
			}
			logging.Init(level, logFormat, cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newEvaluateBatchCmd())
	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}
