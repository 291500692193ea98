package evaluator

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteResult prints the headline scores, and the per-artifact differences
// when details is set.
func WriteResult(w io.Writer, r Result, details bool) error {
	fmt.Fprintln(w, "\n=== Evaluation Results ===")
	fmt.Fprintf(w, "Artifacts - Precision: %.3f  Recall: %.3f  F1: %.3f\n", r.Precision, r.Recall, r.F1)
	fmt.Fprintf(w, "Mapping Accuracy: %.3f\n", r.MappingAccuracy)
	if !details {
		return nil
	}

	d := r.Details
	fmt.Fprintf(w, "\nTP: %d  FP: %d  FN: %d\n", d.TruePositives, d.FalsePositives, d.FalseNegatives)
	fmt.Fprintf(w, "Mapped by both: %d  Same phase: %d\n", d.SharedMappings, d.CorrectMappings)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(d.Missed) > 0 {
		fmt.Fprintln(tw, "\nMissed (in truth only):")
		for _, k := range d.Missed {
			fmt.Fprintf(tw, "  %s\t%s\n", k.Type, k.Value)
		}
	}
	if len(d.Spurious) > 0 {
		fmt.Fprintln(tw, "\nSpurious (predicted only):")
		for _, k := range d.Spurious {
			fmt.Fprintf(tw, "  %s\t%s\n", k.Type, k.Value)
		}
	}
	if len(d.Mismatched) > 0 {
		fmt.Fprintln(tw, "\nPhase mismatches:")
		fmt.Fprintln(tw, "  ARTIFACT\tPREDICTED\tTRUTH")
		for _, m := range d.Mismatched {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.Artifact, m.Predicted, m.Truth)
		}
	}
	return tw.Flush()
}

// WriteBatch prints one row per case followed by the macro average.
func WriteBatch(w io.Writer, b *BatchResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tPRECISION\tRECALL\tF1\tMAPPING")
	for _, c := range b.Cases {
		r := c.Result
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\n", c.Name, r.Precision, r.Recall, r.F1, r.MappingAccuracy)
	}
	a := b.Average
	fmt.Fprintf(tw, "MACRO AVG (%d)\t%.3f\t%.3f\t%.3f\t%.3f\n", len(b.Cases), a.Precision, a.Recall, a.F1, a.MappingAccuracy)
	return tw.Flush()
}
