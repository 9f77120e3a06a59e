package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cpunion/dilemma-lab/pkg/analytics"
	"github.com/cpunion/dilemma-lab/pkg/feed"
	"github.com/cpunion/dilemma-lab/pkg/simulation"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

func newAnalyzeCmd() *cobra.Command {
	var asJSON bool
	var expected int
	var archive string
	cmd := &cobra.Command{
		Use:   "analyze <journal.jsonl | run-id>",
		Short: "Compute analytics from a run journal or archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, summary, err := loadRun(archive, args[0])
			if err != nil {
				return err
			}
			if expected <= 0 {
				expected = len(records)
				if summary != nil {
					expected = summary.RoundsPlanned
				}
			}
			report := analytics.Analyze(records, expected)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			if summary != nil {
				printRunSummary(out, *summary)
			}
			printReport(out, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().IntVar(&expected, "expected-rounds", 0, "Rounds the prediction confidence is measured against (default: planned rounds)")
	cmd.Flags().StringVar(&archive, "archive", "", "Read the run with this id from an archive directory instead of a journal")
	return cmd
}

// loadRun replays a run. With an archive dir, arg is a run id looked up in
// the archive. Otherwise arg is a journal; the summary comes from the journal,
// or from the summary file next to it when the journal lacks one.
func loadRun(archive, arg string) ([]types.RoundRecord, *simulation.Summary, error) {
	if archive != "" {
		events, summary, err := feed.ReadRun(archive, arg)
		if err != nil {
			return nil, nil, fmt.Errorf("read archive: %w", err)
		}
		records := make([]types.RoundRecord, len(events))
		for i, ev := range events {
			records[i] = ev.Record
		}
		return records, summary, nil
	}
	path := arg
	records, summary, err := simulation.ReadJournal(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read journal: %w", err)
	}
	if summary == nil {
		s, err := simulation.LoadSummary(simulation.SummaryPath(path))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, err
		}
		summary = s
	}
	return records, summary, nil
}

func newExportCmd() *cobra.Command {
	var root, archive string
	cmd := &cobra.Command{
		Use:   "export <journal.jsonl | run-id>",
		Short: "Export a journaled or archived run as static JSON for a viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, summary, err := loadRun(archive, args[0])
			if err != nil {
				return err
			}
			if summary == nil {
				return fmt.Errorf("%s has no summary; was the run interrupted?", args[0])
			}
			if err := export(root, *summary, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d rounds) to %s\n", summary.RunID, len(records), root)
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "out", "./data/runs", "Export root directory")
	cmd.Flags().StringVar(&archive, "archive", "", "Read the run with this id from an archive directory instead of a journal")
	return cmd
}
