package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"crashqueue/internal/daemon"
	"crashqueue/internal/deliver"
	"crashqueue/internal/filestore"
	"crashqueue/internal/minidump"
	"crashqueue/internal/preflight"
)

func newDeliverCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "deliver",
		Short: "Upload queued minidumps to the collector",
		Long: "Upload queued minidumps oldest first. Without --once the command keeps\n" +
			"polling the spool until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}
			for _, result := range preflight.DirectoryChecks(cfg) {
				if !result.Passed {
					return fmt.Errorf("%s: %s", result.Name, result.Detail)
				}
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ledger, err := openHistory(cfg)
			if err != nil {
				return err
			}
			if ledger != nil {
				defer ledger.Close()
			}

			store, err := filestore.Open(cfg.Paths.MinidumpDir, logger)
			if err != nil {
				return fmt.Errorf("open minidump directory: %w", err)
			}

			opts := []deliver.RunnerOption{
				deliver.WithLogger(logger),
				deliver.WithPollInterval(cfg.PollInterval()),
			}
			if ledger != nil {
				opts = append(opts, deliver.WithLedger(ledger))
			}
			runner := deliver.NewRunner(
				minidump.NewQueue(store, minidump.WithLogger(logger)),
				deliver.NewHTTPUploader(cfg),
				opts...,
			)

			d, err := daemon.New(cfg, runner, ledger, logger)
			if err != nil {
				return err
			}

			if !once {
				return d.Run(signalCtx)
			}

			stats, err := d.Once(signalCtx)
			fmt.Fprintf(cmd.OutOrStdout(),
				"Delivered %s, rejected %s, delete failed %s, skipped %s, retries %s\n",
				formatCount(stats.Delivered),
				formatCount(stats.Rejected),
				formatCount(stats.DeleteFailed),
				formatCount(stats.Skipped),
				formatCount(stats.Retries),
			)
			return err
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Drain the queue once and exit")
	return cmd
}
