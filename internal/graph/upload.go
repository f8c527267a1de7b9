package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// simpleUploadMaxSize is the largest payload sent in a single PUT (4 MiB).
// Larger files go through an upload session.
const simpleUploadMaxSize = 4 * 1024 * 1024

// chunkSize is the upload session chunk size. It must be a multiple of
// 320 KiB; 10 MiB is 32 of those.
const chunkSize = 32 * 320 * 1024

type createUploadSessionRequest struct {
	Item uploadSessionItem `json:"item"`
}

type uploadSessionItem struct {
	ConflictBehavior string `json:"@microsoft.graph.conflictBehavior"` //nolint:tagliatelle // Graph API annotation key
}

type uploadSessionResponse struct {
	UploadURL string `json:"uploadUrl"`
}

// childPath joins a drive-relative parent path and a file name.
func childPath(parentPath, name string) string {
	parentPath = strings.Trim(parentPath, "/")
	if parentPath == "" {
		return name
	}

	return parentPath + "/" + name
}

// Upload stores data as name inside the folder at parentPath, replacing any
// existing file. Small payloads use a single PUT; larger ones an upload
// session.
func (c *Client) Upload(ctx context.Context, driveID, parentPath, name string, data []byte) (*Item, error) {
	if len(data) <= simpleUploadMaxSize {
		return c.SimpleUpload(ctx, driveID, parentPath, name, data)
	}

	return c.SessionUpload(ctx, driveID, parentPath, name, data)
}

// SimpleUpload uploads up to 4 MiB with a single PUT to the content
// endpoint.
func (c *Client) SimpleUpload(ctx context.Context, driveID, parentPath, name string, data []byte) (*Item, error) {
	c.logger.Info("simple upload",
		slog.String("drive_id", driveID),
		slog.String("parent_path", parentPath),
		slog.String("name", name),
		slog.Int("size", len(data)),
	)

	apiPath := itemAddress(driveID, childPath(parentPath, name)) + "/content"

	resp, err := c.DoRaw(ctx, http.MethodPut, apiPath, "application/octet-stream", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	return c.decodeItem(resp, "simple upload")
}

// SessionUpload creates an upload session and sends data in chunks. The
// session is canceled if any chunk fails.
func (c *Client) SessionUpload(ctx context.Context, driveID, parentPath, name string, data []byte) (*Item, error) {
	uploadURL, err := c.createUploadSession(ctx, driveID, childPath(parentPath, name))
	if err != nil {
		return nil, err
	}

	total := int64(len(data))

	for offset := int64(0); offset < total; offset += chunkSize {
		end := min(offset+chunkSize, total)

		item, chunkErr := c.uploadChunk(ctx, uploadURL, data[offset:end], offset, total)
		if chunkErr != nil {
			c.cancelUploadSession(uploadURL)
			return nil, chunkErr
		}

		if item != nil {
			return item, nil
		}
	}

	c.cancelUploadSession(uploadURL)

	return nil, fmt.Errorf("graph: upload session ended without a completed item")
}

func (c *Client) createUploadSession(ctx context.Context, driveID, drivePath string) (string, error) {
	c.logger.Info("creating upload session",
		slog.String("drive_id", driveID),
		slog.String("path", drivePath),
	)

	body, err := json.Marshal(createUploadSessionRequest{Item: uploadSessionItem{ConflictBehavior: "replace"}})
	if err != nil {
		return "", fmt.Errorf("graph: marshaling upload session request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, itemAddress(driveID, drivePath)+"/createUploadSession", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var usr uploadSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&usr); err != nil {
		return "", fmt.Errorf("graph: decoding upload session response: %w", err)
	}

	if usr.UploadURL == "" {
		return "", fmt.Errorf("graph: upload session response has no uploadUrl")
	}

	return usr.UploadURL, nil
}

// uploadChunk sends one byte range. It returns the completed item on the
// final chunk (200/201) and nil for intermediate chunks (202).
func (c *Client) uploadChunk(ctx context.Context, uploadURL string, chunk []byte, offset, total int64) (*Item, error) {
	length := int64(len(chunk))

	c.logger.Debug("uploading chunk",
		slog.Int64("offset", offset),
		slog.Int64("length", length),
		slog.Int64("total", total),
	)

	header := http.Header{}
	header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, offset+length-1, total))
	header.Set("Content-Type", "application/octet-stream")

	resp, err := c.doPreAuth(ctx, http.MethodPut, uploadURL, bytes.NewReader(chunk), header)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusAccepted {
		// Intermediate chunk accepted. Drain body to reuse connection.
		defer resp.Body.Close()

		if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
			return nil, fmt.Errorf("graph: draining chunk response body: %w", drainErr)
		}

		return nil, nil
	}

	return c.decodeItem(resp, "final chunk")
}

// cancelUploadSession discards a session, best-effort. It runs on a fresh
// context because the request context may be the reason we're canceling.
func (c *Client) cancelUploadSession(uploadURL string) {
	resp, err := c.doPreAuth(context.Background(), http.MethodDelete, uploadURL, http.NoBody, nil)
	if err != nil {
		c.logger.Warn("canceling upload session failed", slog.String("error", err.Error()))
		return
	}

	resp.Body.Close()
}
