package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/config"
)

// Status values for status reporting.
const (
	statusOK       = "ok"
	statusDisabled = "disabled"
	statusNotSet   = "(not set)"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and connection status",
		Long: `Display the configured site, library, credentials and journal.

With --check, also authenticate and open the document library to verify
the credentials and site URL actually work.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}

	cmd.Flags().Bool("check", false, "connect to SharePoint and verify access")

	return cmd
}

// statusReport is the JSON output schema for the status command.
type statusReport struct {
	ConfigPath  string `json:"config_path"`
	SiteURL     string `json:"site_url"`
	Library     string `json:"library"`
	Credentials string `json:"credentials"`
	Transport   string `json:"transport"`
	Journal     string `json:"journal"`
	Connection  string `json:"connection,omitempty"`
}

func buildStatusReport(cfg *config.Config, path string) statusReport {
	r := statusReport{
		ConfigPath:  orNotSet(path),
		SiteURL:     orNotSet(cfg.SharePoint.SiteURL),
		Library:     cfg.SharePoint.DocLibrary,
		Credentials: statusOK,
		Transport:   cfg.Server.Transport,
		Journal:     statusDisabled,
	}

	var missing *config.MissingSettingsError
	if err := cfg.RequireCredentials(); errors.As(err, &missing) {
		r.Credentials = "missing " + strings.Join(missing.Missing, ", ")
	}

	if cfg.Journal.Enabled {
		r.Journal = orNotSet(cfg.JournalPath())
	}

	return r
}

func orNotSet(s string) string {
	if s == "" {
		return statusNotSet
	}

	return s
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	cfg := cc.Cfg.Config()

	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}

	report := buildStatusReport(cfg, cc.Cfg.Path())

	if check {
		report.Connection = checkConnection(cmd.Context(), cc, cfg)
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, report)
	}

	printTable(cc.Out, []string{"SETTING", "VALUE"}, [][]string{
		{"config", report.ConfigPath},
		{"site", report.SiteURL},
		{"library", report.Library},
		{"credentials", report.Credentials},
		{"transport", report.Transport},
		{"journal", report.Journal},
	})

	if report.Connection != "" {
		fmt.Fprintf(cc.Out, "\nconnection: %s\n", report.Connection)
	}

	if check && report.Connection != statusOK {
		return errRefused
	}

	return nil
}

// checkConnection opens the library and lists its root folder.
func checkConnection(ctx context.Context, cc *CLIContext, cfg *config.Config) string {
	remote, err := openRemote(ctx, cfg, cc.Logger)
	if err != nil {
		return err.Error()
	}

	if _, err := remote.GetFolder(ctx, strings.Trim(cfg.SharePoint.DocLibrary, "/")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: library root %q is not accessible\n", cfg.SharePoint.DocLibrary)
		return err.Error()
	}

	return statusOK
}
