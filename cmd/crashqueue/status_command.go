package main

import (
	"github.com/spf13/cobra"

	"crashqueue/internal/config"
	"crashqueue/internal/daemon"
	"crashqueue/internal/history"
)

var statusOutcomes = []history.Outcome{
	history.OutcomeDelivered,
	history.OutcomeRejected,
	history.OutcomeDeleteFailed,
	history.OutcomeDropped,
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show spool, delivery, and history status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := ctx.openSpool()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Spool", colorize)...)
			records, listErr := store.ListMinidumps(cmd.Context())
			if listErr != nil {
				lines = append(lines, renderStatusLine("Queued", statusError, listErr.Error(), colorize))
			} else {
				kind := statusOK
				if len(records) > 0 {
					kind = statusInfo
				}
				lines = append(lines, renderStatusLine("Queued", kind, formatCount(len(records)), colorize))
				if len(records) > 0 {
					lines = append(lines, renderStatusLine("Next", statusInfo, baseName(records[0].MinidumpPath), colorize))
				}
			}
			lines = append(lines, renderStatusLine("Directory", statusInfo, cfg.Paths.MinidumpDir, colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Delivery", colorize)...)
			active, lockErr := daemon.DeliveryActive(cfg.LockPath())
			switch {
			case lockErr != nil:
				lines = append(lines, renderStatusLine("Process", statusError, lockErr.Error(), colorize))
			case active:
				lines = append(lines, renderStatusLine("Process", statusOK, "Running", colorize))
			default:
				lines = append(lines, renderStatusLine("Process", statusWarn, "Not running", colorize))
			}
			lines = append(lines, renderStatusLine("Endpoint", statusInfo, cfg.Delivery.Endpoint, colorize))
			keyKind := statusOK
			if cfg.Delivery.APIKey == "" {
				keyKind = statusError
			}
			lines = append(lines, renderStatusLine("API key", keyKind, yesNo(cfg.Delivery.APIKey != ""), colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("History", colorize)...)
			historyLines, err := historyStatusLines(cmd, cfg, colorize)
			if err != nil {
				lines = append(lines, renderStatusLine("Ledger", statusError, err.Error(), colorize))
			} else {
				lines = append(lines, historyLines...)
			}

			writeLines(out, lines)
			return nil
		},
	}
}

func historyStatusLines(cmd *cobra.Command, cfg *config.Config, colorize bool) ([]string, error) {
	ledger, err := openHistory(cfg)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return []string{renderStatusLine("Ledger", statusInfo, "Disabled", colorize)}, nil
	}
	defer ledger.Close()

	summary, err := ledger.Summary(cmd.Context())
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(statusOutcomes)+2)
	lines = append(lines, renderStatusLine("Ledger", statusInfo, ledger.Path(), colorize))
	for _, outcome := range statusOutcomes {
		count := summary.ByOutcome[outcome]
		kind := statusInfo
		if count > 0 && (outcome == history.OutcomeRejected || outcome == history.OutcomeDeleteFailed) {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(outcomeLabel(outcome), kind, formatCount(count), colorize))
	}
	lines = append(lines, renderStatusLine("Last record", statusInfo, formatTime(summary.LastRecord), colorize))
	return lines, nil
}
