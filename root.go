package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// CLIFlags is the parsed global flag set, captured once per invocation.
type CLIFlags struct {
	ConfigPath string
	JSON       bool
	Verbose    bool
	Quiet      bool
}

// CLIContext carries everything a subcommand needs: flags, the live
// configuration, the environment overrides it was built from, and the
// logger. It is attached to the command context by PersistentPreRunE.
type CLIContext struct {
	Flags  CLIFlags
	Cfg    *config.Holder
	Env    config.EnvOverrides
	Logger *slog.Logger
	Out    io.Writer
}

type cliContextKey struct{}

// mustCLIContext returns the CLIContext installed by PersistentPreRunE.
// Panics if called from a command that skipped config loading.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		panic("cli context not initialized")
	}

	return cc
}

// skipConfigCommands lists commands that never touch the library.
var skipConfigCommands = map[string]bool{
	"sharepoint-go help": true,
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sharepoint-go",
		Short: "SharePoint document library CLI and MCP server",
		Long: `Manage folders, documents and metadata in one SharePoint document library,
from the command line or as an MCP tool server for AI assistants.`,
		Version: version,
		// Silence Cobra's default error/usage printing; main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfigCommands[cmd.CommandPath()] {
				return nil
			}

			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newDocsCmd())
	cmd.AddCommand(newTreeCmd())
	cmd.AddCommand(newCatCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newRmdirCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newMetaCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the override chain
// (defaults -> file -> environment -> flags) and installs a CLIContext on
// the command.
func loadConfig(cmd *cobra.Command) error {
	cli := config.CLIOverrides{ConfigPath: flagConfigPath}

	// Only the serve command carries --transport.
	if f := cmd.Flags().Lookup("transport"); f != nil && f.Changed {
		cli.Transport = strings.ToLower(f.Value.String())
	}

	env := config.ReadEnvOverrides()

	cfg, path, err := config.Resolve(env, cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := CLIFlags{
		ConfigPath: flagConfigPath,
		JSON:       flagJSON,
		Verbose:    flagVerbose,
		Quiet:      flagQuiet,
	}

	cc := &CLIContext{
		Flags:  flags,
		Cfg:    config.NewHolder(cfg, path),
		Env:    env,
		Logger: buildLogger(cfg, flags, os.Stderr),
		Out:    cmd.OutOrStdout(),
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))

	return nil
}

// buildLogger creates an slog.Logger configured by the config file and CLI
// flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win. Logs always go to w
// (stderr in production) because stdout carries MCP stdio traffic.
func buildLogger(cfg *config.Config, flags CLIFlags, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	format := "auto"

	if cfg != nil {
		switch strings.ToLower(cfg.Logging.LogLevel) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}

		format = strings.ToLower(cfg.Logging.LogFormat)
	}

	if flags.Verbose {
		level = slog.LevelDebug
	}

	if flags.Quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if useJSONLogs(format, w) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// useJSONLogs resolves the "auto" format: human-readable text on a
// terminal, JSON otherwise.
func useJSONLogs(format string, w io.Writer) bool {
	switch format {
	case "json":
		return true
	case "text", "console":
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return true
	}

	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
