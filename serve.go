package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/sharepoint-go/internal/config"
	"github.com/tonimelisma/sharepoint-go/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server",
		Long: `Serve the document library as MCP tools.

The stdio transport (default) talks MCP over stdin/stdout and is what
desktop assistants launch. The http transport serves streamable HTTP at
the configured mount path plus GET /health.

The config file is watched while serving; crawl, retry, search and content
settings take effect on the next tool call. The transport itself is fixed
for the life of the process.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("transport", "", "transport to serve: stdio or http (overrides config and TRANSPORT)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := shutdownContext(cmd.Context(), cc.Logger)

	sess, err := newSession(ctx, cc)
	if err != nil {
		return err
	}
	defer sess.Close()

	srv := mcpserver.New(sess.Service, version, cc.Logger)
	serverCfg := cc.Cfg.Config().Server
	transport := mcpserver.NormalizeTransport(serverCfg.Transport, cc.Logger)

	cc.Logger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("transport", transport),
		slog.String("library", sess.Service.Root()),
		slog.Int("tools", len(srv.Tools())),
	)

	g, gctx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(gctx)

	g.Go(func() error {
		return config.Watch(watchCtx, cc.Cfg, cc.Env, cc.Logger)
	})

	g.Go(func() error {
		// The watcher only lives as long as the transport.
		defer stopWatch()

		if transport == mcpserver.TransportHTTP {
			return srv.ServeHTTP(gctx, serverCfg.Addr(), serverCfg.MountPath)
		}

		return srv.RunStdio(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	cc.Logger.Info("MCP server stopped")

	return nil
}
