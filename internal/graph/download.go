package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ErrTooLarge is returned when a download exceeds the caller's size limit.
var ErrTooLarge = errors.New("graph: content exceeds size limit")

// Download streams the content of the file at drivePath to w. The content
// endpoint answers with a redirect to a pre-authenticated URL, which the
// HTTP client follows without forwarding the Authorization header.
// maxBytes <= 0 means no limit. Returns the number of bytes written.
func (c *Client) Download(ctx context.Context, driveID, drivePath string, w io.Writer, maxBytes int64) (int64, error) {
	c.logger.Info("downloading item",
		slog.String("drive_id", driveID),
		slog.String("path", drivePath),
	)

	resp, err := c.Do(ctx, http.MethodGet, itemAddress(driveID, drivePath)+"/content", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var src io.Reader = resp.Body
	if maxBytes > 0 {
		src = io.LimitReader(resp.Body, maxBytes+1)
	}

	n, err := io.Copy(w, src)
	if err != nil {
		c.logger.Error("streaming download content failed",
			slog.String("error", err.Error()),
			slog.Int64("bytes_before_error", n),
		)

		return n, &ConnectionError{Op: "streaming download content", Err: err, Temporary: isTemporaryNetErr(err)}
	}

	if maxBytes > 0 && n > maxBytes {
		return n, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}

	c.logger.Debug("download complete",
		slog.String("path", drivePath),
		slog.Int64("bytes_written", n),
	)

	return n, nil
}
