package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"focuslens/internal/history"
	"focuslens/internal/quality"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var projectID string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished export tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListRecent(cmd.Context(), projectID, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No exports recorded yet")
				return nil
			}

			color := shouldColorize(out)
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				outcome := record.Status
				if record.FailureCode != "" {
					outcome = fmt.Sprintf("%s (%s)", record.Status, record.FailureCode)
				}
				rows = append(rows, []string{
					record.CreatedAt.Local().Format("2006-01-02 15:04"),
					record.ProjectID,
					colorize(outcome, statusColor(record.Status), color),
					record.Codec,
					yesNo(record.FallbackUsed),
					formatHistoryRate(record.AvgDropRate),
					fmt.Sprintf("%.0fms", record.AVOffsetMS),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]tableColumn{
					{title: "When"},
					{title: "Project"},
					{title: "Outcome"},
					{title: "Codec"},
					{title: "Fallback"},
					{title: "Avg drop", numeric: true},
					{title: "A/V", numeric: true},
				},
				rows,
			))

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Totals: %d succeeded, %d failed\n", stats["success"], stats["failed"])
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Only show exports for this project")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func formatHistoryRate(rate float64) string {
	if rate == quality.Unmeasured {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", rate)
}
