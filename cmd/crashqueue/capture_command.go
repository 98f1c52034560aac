package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var minidumpPath string
	var eventPath string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Store a minidump and its event metadata in the spool",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := ctx.openSpool()
			if err != nil {
				return err
			}

			event, err := os.ReadFile(strings.TrimSpace(eventPath))
			if err != nil {
				return fmt.Errorf("read event file: %w", err)
			}
			dump, err := os.Open(strings.TrimSpace(minidumpPath))
			if err != nil {
				return fmt.Errorf("open minidump: %w", err)
			}
			defer dump.Close()

			record, err := store.Save(cmd.Context(), dump, event)
			if err != nil {
				return fmt.Errorf("store minidump: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", record.MinidumpPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&minidumpPath, "minidump", "", "Path to the minidump file")
	cmd.Flags().StringVar(&eventPath, "event", "", "Path to the JSON event metadata")
	_ = cmd.MarkFlagRequired("minidump")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}
