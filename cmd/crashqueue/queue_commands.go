package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"crashqueue/internal/daemon"
	"crashqueue/internal/history"
	"crashqueue/internal/minidump"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage queued minidumps",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueuePeekCommand(ctx))
	queueCmd.AddCommand(newQueueDropCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued minidumps in delivery order",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := ctx.openSpool()
			if err != nil {
				return err
			}
			records, err := store.ListMinidumps(cmd.Context())
			if err != nil {
				return fmt.Errorf("list minidumps: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for i, record := range records {
				size, modified := "-", "-"
				if info, statErr := os.Stat(record.MinidumpPath); statErr == nil {
					size = formatBytes(info.Size())
					modified = formatTime(info.ModTime())
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					baseName(record.MinidumpPath),
					baseName(record.EventPath),
					size,
					modified,
				})
			}
			fmt.Fprintln(out, renderTable(queueColumns, rows, formatCount(len(records))+" queued"))
			return nil
		},
	}
}

var queueColumns = []tableColumn{
	{header: "#", align: alignRight},
	{header: "Minidump"},
	{header: "Event"},
	{header: "Size", align: alignRight},
	{header: "Modified"},
}

func newQueuePeekCommand(ctx *commandContext) *cobra.Command {
	var showEvent bool

	cmd := &cobra.Command{
		Use:   "peek",
		Short: "Show the next minidump to be delivered",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := ctx.openSpool()
			if err != nil {
				return err
			}
			head, ok, err := minidump.NewQueue(store).Peek(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}
			fmt.Fprintf(out, "Minidump: %s\n", head.MinidumpPath)
			fmt.Fprintf(out, "Event:    %s\n", head.EventPath)
			if showEvent {
				event, err := store.ReadEvent(head)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(event))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showEvent, "event", false, "Print the event metadata")
	return cmd
}

func newQueueDropCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Delete the next minidump without delivering it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := ctx.openSpool()
			if err != nil {
				return err
			}
			active, err := daemon.DeliveryActive(cfg.LockPath())
			if err != nil {
				return err
			}
			if active {
				return errors.New("a delivery process is running; stop it before dropping minidumps")
			}

			queue := minidump.NewQueue(store)
			head, ok, err := queue.Peek(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}

			entry := history.Entry{
				AttemptID:    uuid.NewString(),
				MinidumpPath: head.MinidumpPath,
				EventPath:    head.EventPath,
				Outcome:      history.OutcomeDropped,
				Bytes:        fileSize(head.MinidumpPath),
			}
			removeErr := queue.Remove(cmd.Context(), &head)
			if removeErr != nil {
				entry.Outcome = history.OutcomeDeleteFailed
				entry.Detail = removeErr.Error()
			}
			if err := recordEntry(cmd, cfg, entry); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warn: %v\n", err)
			}
			if removeErr != nil {
				return removeErr
			}
			fmt.Fprintf(out, "Dropped %s\n", baseName(head.MinidumpPath))
			return nil
		},
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
