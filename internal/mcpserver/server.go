// Package mcpserver exposes docstore operations as Model Context Protocol
// tools over stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tonimelisma/sharepoint-go/internal/docstore"
)

// Name is the implementation name reported to clients.
const Name = "sharepoint-go"

const instructions = "MCP server for Microsoft SharePoint. Manage folders, documents, " +
	"and metadata in one document library using natural language."

// Server wraps an MCP server whose tools call into a docstore.Service.
type Server struct {
	svc     *docstore.Service
	mcp     *mcp.Server
	version string
	logger  *slog.Logger
	tools   []string
}

// New builds a Server and registers every tool.
func New(svc *docstore.Service, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		svc:     svc,
		version: version,
		logger:  logger,
		mcp: mcp.NewServer(
			&mcp.Implementation{Name: Name, Version: version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}

	s.registerTools()

	logger.Debug("tools registered", slog.Int("count", len(s.tools)))

	return s
}

// Tools returns the registered tool names in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// addTool registers a handler whose result is rendered as JSON text.
// Errors become tool errors carrying {"success": false, "error": ...};
// they never reach the transport as protocol errors.
func addTool[In any](s *Server, name, description string, fn func(ctx context.Context, in In) (any, error)) {
	s.tools = append(s.tools, name)

	mcp.AddTool(s.mcp, &mcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			out, err := fn(ctx, in)
			if err != nil {
				return s.errorResult(ctx, name, err), nil, nil
			}

			return textResult(out), nil, nil
		})
}

func textResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())}},
		}
	}

	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

func (s *Server) errorResult(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	kind := "operation"
	level := slog.LevelError

	switch {
	case errors.Is(err, docstore.ErrValidation):
		kind = "validation"
		level = slog.LevelWarn
	case errors.Is(err, docstore.ErrNotFound):
		kind = "not_found"
		level = slog.LevelWarn
	}

	s.logger.Log(ctx, level, "tool call failed",
		slog.String("tool", tool),
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)

	res := textResult(errorBody{Error: err.Error(), Kind: kind})
	res.IsError = true

	return res
}
