package cmd

import (
	"fmt"
	"strings"

	"ghnotifier/internal/history"
	pkgstrings "ghnotifier/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		retain int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently delivered notifications",
		Long: `List the notifications ghnotifier delivered, newest first.

Deliveries are recorded while "ghnotifier watch" runs with history.enabled.
Use --prune to drop all but the newest records.

Examples:
  ghnotifier history              # Show the 20 newest deliveries
  ghnotifier history --limit 0    # Show everything
  ghnotifier history --prune 100  # Keep only the newest 100 records`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(opts.cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if cmd.Flags().Changed("prune") {
				deleted, err := store.Prune(cmd.Context(), retain)
				if err != nil {
					return fmt.Errorf("failed to prune history: %w", err)
				}
				opts.printf(cmd.OutOrStdout(), "Removed %d record(s)\n", deleted)
				return nil
			}

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notifications delivered yet.")
				return nil
			}
			renderHistory(cmd, records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show (0 for all)")
	cmd.Flags().IntVar(&retain, "prune", 0, "Delete all but the newest N records")
	return cmd
}

func renderHistory(cmd *cobra.Command, records []*history.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{
		text.Bold.Sprint("DELIVERED"),
		text.Bold.Sprint("REPOSITORY"),
		text.Bold.Sprint("TYPE"),
		text.Bold.Sprint("TITLE"),
		text.Bold.Sprint("REASON"),
	})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.DeliveredAt.Local().Format("2006-01-02 15:04"),
			rec.Repository,
			rec.SubjectType,
			pkgstrings.Truncate(rec.SubjectTitle, pkgstrings.TitleMaxLen),
			strings.ReplaceAll(rec.Reason, "_", " "),
		})
	}
	t.Render()
}
