package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/docstore"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search documents in the library",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().Int("limit", 0, "maximum results (default from [search] default_limit)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		cc.Logger.Debug("search", "query", args[0], "limit", limit)

		res, err := svc.Search(ctx, args[0], limit)
		if err != nil {
			return fmt.Errorf("searching for %q: %w", args[0], err)
		}

		if cc.Flags.JSON {
			return printJSON(cc.Out, res)
		}

		rows := make([][]string, 0, len(res.Results))
		for _, hit := range res.Results {
			rows = append(rows, []string{hit["name"], hit["path"]})
		}

		printTable(cc.Out, []string{"NAME", "PATH"}, rows)
		cc.Statusf("%d result(s)\n", res.Count)

		return nil
	})
}
