package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/journal"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent mutating operations",
		Long: `Print the local operation journal, newest first.

Every upload, update, delete, folder change, download and metadata update
made through this tool (CLI or MCP server) is recorded with its outcome.
Use --prune to drop entries older than a duration such as 720h.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", journal.DefaultListLimit, "number of entries to show")
	cmd.Flags().Duration("prune", 0, "delete entries older than this age before listing")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	prune, err := cmd.Flags().GetDuration("prune")
	if err != nil {
		return err
	}

	j, err := openJournal(ctx, cc.Cfg.Config(), cc.Logger)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer j.Close()

	if prune > 0 {
		n, pruneErr := j.Prune(ctx, time.Now().Add(-prune))
		if pruneErr != nil {
			return fmt.Errorf("pruning journal: %w", pruneErr)
		}

		cc.Statusf("Pruned %d journal entries\n", n)
	}

	entries, err := j.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, entries)
	}

	rows := make([][]string, 0, len(entries))
	for i := range entries {
		status := "ok"
		if !entries[i].Success {
			status = "refused"
		}

		rows = append(rows, []string{
			formatTime(entries[i].RecordedAt.Local()),
			entries[i].Operation,
			status,
			entries[i].Path,
			entries[i].Message,
		})
	}

	printTable(cc.Out, []string{"TIME", "OPERATION", "STATUS", "PATH", "MESSAGE"}, rows)

	return nil
}
