package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	"github.com/google/uuid"
)

// DefaultBaseURL is the Graph API v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

const defaultUserAgent = "sharepoint-go/0.1"

// TokenSource provides OAuth2 bearer tokens. Defined at the consumer
// (graph package) per Go convention "accept interfaces, return structs".
type TokenSource interface {
	Token() (string, error)
}

// Client is an HTTP client for the Microsoft Graph API. It handles request
// construction, authentication and error classification. It makes exactly
// one attempt per call; retry policy belongs to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
	userAgent  string
}

// NewClient creates a Graph API client.
// baseURL is typically DefaultBaseURL. An empty userAgent uses the default.
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger, userAgent string) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
		userAgent:  userAgent,
	}
}

// Do executes an authenticated request against the Graph API.
// The path is appended to the client's base URL.
// For non-nil bodies, Content-Type is set to application/json.
// The caller is responsible for closing the response body on success.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}

	return c.do(ctx, method, c.baseURL+path, path, contentType, body)
}

// DoRaw is Do with an explicit content type, for binary uploads.
func (c *Client) DoRaw(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, method, c.baseURL+path, path, contentType, body)
}

// doPreAuth sends a request to a pre-authenticated URL (upload sessions).
// No Authorization header is attached and the URL is never logged because
// it embeds credentials.
func (c *Client) doPreAuth(ctx context.Context, method, rawURL string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("graph: creating request: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	req.Header.Set("User-Agent", c.userAgent)

	return c.send(ctx, req, "(pre-authenticated)")
}

func (c *Client) do(
	ctx context.Context, method, rawURL, logPath, contentType string, body io.Reader,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("graph: creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, classifyTokenError(err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("client-request-id", uuid.NewString())

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.send(ctx, req, logPath)
}

// send performs the round trip and turns failures into classified errors.
func (c *Client) send(ctx context.Context, req *http.Request, logPath string) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("graph: request canceled: %w", ctx.Err())
		}

		c.logger.Debug("request failed",
			slog.String("method", req.Method),
			slog.String("path", logPath),
			slog.String("error", err.Error()),
		)

		return nil, &ConnectionError{
			Op:        req.Method + " " + logPath,
			Err:       err,
			Temporary: isTemporaryNetErr(err),
		}
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", req.Method),
			slog.String("path", logPath),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	// Read and close body for error responses.
	errBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	c.logger.Debug("request returned error status",
		slog.String("method", req.Method),
		slog.String("path", logPath),
		slog.Int("status", resp.StatusCode),
	)

	return nil, &GraphError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("request-id"),
		Message:    string(errBody),
		Err:        classifyStatus(resp.StatusCode),
	}
}

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 64 * 1024

// isTemporaryNetErr reports whether a transport error is likely to clear
// up on its own.
func isTemporaryNetErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}
