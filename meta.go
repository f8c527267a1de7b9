package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/docstore"
)

func newMetaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta <folder> <file> [field=value...]",
		Short: "Show or update a document's list-item fields",
		Long: `With no field assignments, print the document's list-item fields.

With one or more field=value arguments, update those fields. Values are
stored as strings; an empty value clears the field.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runMeta,
	}
}

// parseAssignments turns field=value arguments into a metadata map.
func parseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))

	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid field assignment %q: expected field=value", a)
		}

		out[strings.TrimSpace(key)] = value
	}

	return out, nil
}

func runMeta(cmd *cobra.Command, args []string) error {
	folder, name := args[0], args[1]

	fields, err := parseAssignments(args[2:])
	if err != nil {
		return err
	}

	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		if len(fields) > 0 {
			cc.Logger.Debug("meta update", "folder", folder, "file", name, "fields", len(fields))

			res, err := svc.UpdateFileMetadata(ctx, folder, name, fields)
			if err != nil {
				return fmt.Errorf("updating metadata for %q: %w", name, err)
			}

			return reportResult(cc, res.Success, res.Message, res)
		}

		cc.Logger.Debug("meta", "folder", folder, "file", name)

		res, err := svc.GetFileMetadata(ctx, folder, name)
		if err != nil {
			return fmt.Errorf("reading metadata for %q: %w", name, err)
		}

		if cc.Flags.JSON || !res.Success {
			return reportResult(cc, res.Success, res.Message, res)
		}

		keys := make([]string, 0, len(res.Metadata))
		for k := range res.Metadata {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, res.Metadata[k]})
		}

		printTable(cc.Out, []string{"FIELD", "VALUE"}, rows)

		return nil
	})
}
