package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/crawl"
	"github.com/tonimelisma/sharepoint-go/internal/docstore"
)

// errRefused marks a command whose operation the library refused (already
// exists, not empty, missing). The reason has already been printed, so
// main exits non-zero without repeating it.
var errRefused = errors.New("operation refused")

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder]",
		Short: "List sub-folders",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [folder]",
		Short: "Show the folder tree",
		Long: `Crawl the folder tree breadth-first and print it.

Crawling is bounded by [crawl] max_depth and max_items_per_level and paced by
level_delay and batch_delay. Folders that could not be read are marked with
their error rather than failing the whole tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTree,
	}
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <name> [parent]",
		Short: "Create a folder",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runMkdir,
	}
}

func newRmdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rmdir <path>",
		Short: "Delete an empty folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runRmdir,
	}
}

// withSession builds the document service for one command invocation and
// releases it afterwards.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error) error {
	cc := mustCLIContext(cmd.Context())
	ctx := shutdownContext(cmd.Context(), cc.Logger)

	sess, err := newSession(ctx, cc)
	if err != nil {
		return err
	}
	defer sess.Close()

	return fn(ctx, cc, sess.Service)
}

// reportResult prints a mutating operation's outcome and turns a refusal
// into errRefused.
func reportResult(cc *CLIContext, success bool, message string, v any) error {
	if cc.Flags.JSON {
		if err := printJSON(cc.Out, v); err != nil {
			return err
		}
	} else if success {
		cc.Statusf("%s\n", message)
	}

	if !success {
		if !cc.Flags.JSON {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}

		return errRefused
	}

	return nil
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}

	return ""
}

func runLs(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		folder := optionalArg(args, 0)
		cc.Logger.Debug("ls", "folder", folder)

		folders, err := svc.ListFolders(ctx, folder)
		if err != nil {
			return fmt.Errorf("listing %q: %w", folder, err)
		}

		if cc.Flags.JSON {
			return printJSON(cc.Out, folders)
		}

		rows := make([][]string, 0, len(folders))
		for i := range folders {
			rows = append(rows, []string{folders[i].Name + "/", formatTimePtr(folders[i].Modified)})
		}

		printTable(cc.Out, []string{"NAME", "MODIFIED"}, rows)

		return nil
	})
}

func runTree(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		folder := optionalArg(args, 0)
		cc.Logger.Debug("tree", "folder", folder)

		tree, err := svc.GetTree(ctx, folder)
		if err != nil {
			return fmt.Errorf("building tree for %q: %w", folder, err)
		}

		if cc.Flags.JSON {
			return printJSON(cc.Out, tree)
		}

		printTree(cc.Out, &tree)

		stats := tree.Summarize()
		cc.Statusf("%d folder(s), %d file(s), %d error(s)\n", stats.Folders, stats.Files, stats.Errors)

		return nil
	})
}

// printTree renders one line per node, indented two spaces per level.
func printTree(w io.Writer, root *crawl.Node) {
	root.Walk(func(n *crawl.Node, depth int) {
		line := strings.Repeat("  ", depth) + n.Name

		switch {
		case n.Kind == crawl.KindFolder:
			line += "/"
		case n.Size != nil:
			line += " (" + formatSize(*n.Size) + ")"
		}

		if n.Truncated {
			line += " [truncated]"
		}

		if n.Error != "" {
			line += " [" + n.Error + "]"
		}

		fmt.Fprintln(w, line)
	})
}

func runMkdir(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		name, parent := args[0], optionalArg(args, 1)
		cc.Logger.Debug("mkdir", "name", name, "parent", parent)

		res, err := svc.CreateFolder(ctx, name, parent)
		if err != nil {
			return fmt.Errorf("creating folder %q: %w", name, err)
		}

		return reportResult(cc, res.Success, res.Message, res)
	})
}

func runRmdir(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		cc.Logger.Debug("rmdir", "path", args[0])

		res, err := svc.DeleteFolder(ctx, args[0])
		if err != nil {
			return fmt.Errorf("deleting folder %q: %w", args[0], err)
		}

		return reportResult(cc, res.Success, res.Message, res)
	})
}
