package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/docstore"
	"github.com/tonimelisma/sharepoint-go/internal/extract"
	"github.com/tonimelisma/sharepoint-go/internal/persist"
)

func newDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs [folder]",
		Short: "List documents in a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDocs,
	}
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <folder> <file>",
		Short: "Print a document's extracted text",
		Long: `Download a document and print its content.

Plain text prints as-is. PDF, Excel and Word documents print their
extracted text. Anything else is written raw, like cat(1).`,
		Args: cobra.ExactArgs(2),
		RunE: runCat,
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <folder> <file> <local-path>",
		Short: "Download a document",
		Long: `Download a document to local-path, creating parent directories.

If local-path cannot be written, the file is saved under the configured
[download] fallback_dir (the system temp directory by default) and the
actual location is reported.`,
		Args: cobra.ExactArgs(3),
		RunE: runGet,
	}
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-path> [folder]",
		Short: "Upload a local file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runPut,
	}

	cmd.Flags().String("name", "", "name to store the document under (default: local file name)")

	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <folder> <file>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(2),
		RunE:  runRm,
	}
}

func runDocs(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		folder := optionalArg(args, 0)
		cc.Logger.Debug("docs", "folder", folder)

		files, err := svc.ListDocuments(ctx, folder)
		if err != nil {
			return fmt.Errorf("listing documents in %q: %w", folder, err)
		}

		if cc.Flags.JSON {
			return printJSON(cc.Out, files)
		}

		rows := make([][]string, 0, len(files))
		for i := range files {
			rows = append(rows, []string{files[i].Name, formatSize(files[i].Size), formatTimePtr(files[i].Modified)})
		}

		printTable(cc.Out, []string{"NAME", "SIZE", "MODIFIED"}, rows)

		return nil
	})
}

func runCat(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		folder, name := args[0], args[1]
		cc.Logger.Debug("cat", "folder", folder, "file", name)

		res, err := svc.GetDocumentContent(ctx, folder, name)
		if err != nil {
			return fmt.Errorf("reading %q: %w", name, err)
		}

		if cc.Flags.JSON {
			return printJSON(cc.Out, res)
		}

		if res.Kind == extract.KindText {
			_, err = fmt.Fprintln(cc.Out, res.Text)
			return err
		}

		raw, err := base64.StdEncoding.DecodeString(res.Base64)
		if err != nil {
			return fmt.Errorf("decoding %q: %w", name, err)
		}

		_, err = cc.Out.Write(raw)

		return err
	})
}

func runGet(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		folder, name, local := args[0], args[1], args[2]
		cc.Logger.Debug("get", "folder", folder, "file", name, "local", local)

		res, err := svc.DownloadDocument(ctx, folder, name, local)
		if err != nil {
			return fmt.Errorf("downloading %q: %w", name, err)
		}

		if !cc.Flags.JSON && res.Success && res.Method == persist.MethodFallback {
			fmt.Fprintf(os.Stderr, "Warning: could not write %s (%s); saved to fallback location\n", local, res.PrimaryError)
		}

		message := res.Error
		if res.Success {
			message = fmt.Sprintf("Downloaded %s to %s (%s)", name, res.Path, formatSize(res.Size))
		}

		return reportResult(cc, res.Success, message, res)
	})
}

func runPut(cmd *cobra.Command, args []string) error {
	newName, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}

	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		local, folder := args[0], optionalArg(args, 1)
		cc.Logger.Debug("put", "local", local, "folder", folder, "name", newName)

		res, err := svc.UploadDocumentFromPath(ctx, folder, local, newName)
		if err != nil {
			return fmt.Errorf("uploading %q: %w", local, err)
		}

		return reportResult(cc, res.Success, res.Message, res)
	})
}

func runRm(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, cc *CLIContext, svc *docstore.Service) error {
		folder, name := args[0], args[1]
		cc.Logger.Debug("rm", "folder", folder, "file", name)

		res, err := svc.DeleteDocument(ctx, folder, name)
		if err != nil {
			return fmt.Errorf("deleting %q: %w", name, err)
		}

		return reportResult(cc, res.Success, res.Message, res)
	})
}
