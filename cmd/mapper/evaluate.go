package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/iyulab/forensic-mapper/internal/evaluator"
)

func newEvaluateCmd() *cobra.Command {
	var (
		predPath  string
		truthPath string
		details   bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a predicted analysis against a ground-truth annotation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := evaluator.LoadDocument(predPath)
			if err != nil {
				return err
			}
			truth, err := evaluator.LoadDocument(truthPath)
			if err != nil {
				return err
			}

			r := evaluator.Score(pred, truth)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			return evaluator.WriteResult(cmd.OutOrStdout(), r, details)
		},
	}

	cmd.Flags().StringVar(&predPath, "pred", "", "predicted analysis JSON")
	cmd.Flags().StringVar(&truthPath, "truth", "", "ground-truth annotation JSON")
	cmd.Flags().BoolVar(&details, "details", false, "list missed, spurious and mismatched artifacts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.MarkFlagRequired("pred")
	cmd.MarkFlagRequired("truth")
	return cmd
}

func newEvaluateBatchCmd() *cobra.Command {
	var (
		manifestPath string
		workers      int
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate-batch",
		Short: "Score every case listed in a YAML manifest and report averages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := evaluator.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			if workers <= 0 {
				return fmt.Errorf("--workers must be positive, got %d", workers)
			}

			res, err := evaluator.EvaluateBatch(cmd.Context(), m.Cases, workers)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return evaluator.WriteBatch(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "YAML manifest listing pred/truth pairs")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "cases evaluated in parallel")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.MarkFlagRequired("manifest")
	return cmd
}
