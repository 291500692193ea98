package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iyulab/forensic-mapper/internal/config"
	"github.com/iyulab/forensic-mapper/internal/orchestrator"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath string
		outputDir  string
		pkg        bool
		noSave     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <report>",
		Short: "Extract artifacts from a report and map them to kill chain phases",
		Long: `Runs the two-stage pipeline over one incident report: artifact extraction,
then reasoning and phase mapping. Outputs are written to a timestamped
directory under the output dir unless --no-save is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			orch := orchestrator.New(cfg, orchestrator.Options{
				ReportPath: args[0],
				OutputDir:  outputDir,
				Package:    pkg,
				NoSave:     noSave,
				Verbose:    verbose,
				Version:    version,
			})
			orch.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())

			_, err = orch.Run(cmd.Context())
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.toml", "path to config file")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "base directory for run outputs (overrides output.dir)")
	cmd.Flags().BoolVar(&pkg, "package", false, "also write a zip evidence package of the run directory")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "print the summary without writing any files")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	return cmd
}
