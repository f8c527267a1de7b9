package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// NormalizeTransport maps a configured transport to one the server
// supports. Anything unknown falls back to stdio with a warning.
func NormalizeTransport(transport string, logger *slog.Logger) string {
	t := strings.ToLower(strings.TrimSpace(transport))

	switch t {
	case TransportStdio, TransportHTTP:
		return t
	case "":
		return TransportStdio
	default:
		logger.Warn("unknown transport, defaulting to stdio", slog.String("transport", transport))
		return TransportStdio
	}
}

// RunStdio serves a single client over stdin/stdout until the client
// disconnects or ctx is canceled.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("starting stdio transport")

	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcpserver: stdio transport: %w", err)
	}

	return nil
}

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Transport string `json:"transport"`
	Tools     int    `json:"tools"`
}

// Handler returns the HTTP handler: the streamable MCP endpoint at
// mountPath plus GET /health.
func (s *Server) Handler(mountPath string) http.Handler {
	if mountPath == "" {
		mountPath = "/mcp"
	}

	mux := http.NewServeMux()

	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)

	mux.Handle(mountPath, streamable)
	if !strings.HasSuffix(mountPath, "/") {
		mux.Handle(mountPath+"/", streamable)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(healthResponse{
			Status:    "ok",
			Version:   s.version,
			Transport: TransportHTTP,
			Tools:     len(s.tools),
		}); err != nil {
			s.logger.Warn("writing health response", slog.String("error", err.Error()))
		}
	})

	return mux
}

// ServeHTTP listens on addr and serves Handler(mountPath) until ctx is
// canceled, then shuts down gracefully.
func (s *Server) ServeHTTP(ctx context.Context, addr, mountPath string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mcpserver: listening on %s: %w", addr, err)
	}

	return s.serve(ctx, ln, mountPath)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, mountPath string) error {
	srv := &http.Server{
		Handler:           s.Handler(mountPath),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("starting streamable-http transport",
		slog.String("addr", ln.Addr().String()),
		slog.String("mount_path", mountPath),
	)

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("mcpserver: http transport: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mcpserver: shutting down http transport: %w", err)
	}

	s.logger.Info("http transport stopped")

	return nil
}
