package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crashqueue/internal/config"
	"crashqueue/internal/history"
)

var historyColumns = []tableColumn{
	{header: "When"},
	{header: "Outcome"},
	{header: "Minidump"},
	{header: "Size", align: alignRight},
	{header: "Detail", maxWidth: 60},
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent delivery outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ledger, err := openHistory(cfg)
			if err != nil {
				return err
			}
			if ledger == nil {
				return errHistoryDisabled
			}
			defer ledger.Close()

			entries, err := ledger.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No deliveries recorded")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					formatTime(entry.RecordedAt),
					outcomeLabel(entry.Outcome),
					baseName(entry.MinidumpPath),
					formatBytes(entry.Bytes),
					entry.Detail,
				})
			}
			fmt.Fprintln(out, renderTable(historyColumns, rows, ""))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}

// recordEntry appends entry to the ledger when history is enabled.
func recordEntry(cmd *cobra.Command, cfg *config.Config, entry history.Entry) error {
	ledger, err := openHistory(cfg)
	if err != nil || ledger == nil {
		return err
	}
	defer ledger.Close()
	if _, err := ledger.Record(cmd.Context(), entry); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}
