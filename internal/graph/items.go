package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// listChildrenPageSize is the $top value for children requests.
// 200 is the maximum allowed by the Graph API for drive item collections.
const listChildrenPageSize = 200

// Timestamp validation bounds. Timestamps outside this range are dropped
// with a warning.
const (
	minValidYear = 1970
	maxValidYear = 2100
)

// encodePathSegments URL-encodes each segment of a slash-separated path.
// Characters like #, ?, %, and spaces are encoded per-segment so the
// resulting path is safe for interpolation into Graph API URLs.
func encodePathSegments(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return strings.Join(segments, "/")
}

// itemAddress returns the API path addressing a drive item by its
// drive-relative path. The empty path is the drive root.
func itemAddress(driveID, drivePath string) string {
	drivePath = strings.Trim(drivePath, "/")
	if drivePath == "" {
		return fmt.Sprintf("/drives/%s/root", url.PathEscape(driveID))
	}

	return fmt.Sprintf("/drives/%s/root:/%s:", url.PathEscape(driveID), encodePathSegments(drivePath))
}

// driveItemResponse mirrors the Graph API driveItem JSON.
// Unexported - callers use Item via toItem() normalization.
type driveItemResponse struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Size                 int64        `json:"size"`
	ETag                 string       `json:"eTag"`
	WebURL               string       `json:"webUrl"`
	CreatedDateTime      string       `json:"createdDateTime"`
	LastModifiedDateTime string       `json:"lastModifiedDateTime"`
	ParentReference      *parentRef   `json:"parentReference"`
	File                 *fileFacet   `json:"file"`
	Folder               *folderFacet `json:"folder"`
}

type parentRef struct {
	ID      string `json:"id"`
	DriveID string `json:"driveId"`
	Path    string `json:"path"`
}

type fileFacet struct {
	MimeType string `json:"mimeType"`
}

type folderFacet struct {
	ChildCount int `json:"childCount"`
}

type listChildrenResponse struct {
	Value    []driveItemResponse `json:"value"`
	NextLink string              `json:"@odata.nextLink"` //nolint:tagliatelle // OData annotation key
}

type createFolderRequest struct {
	Name             string      `json:"name"`
	Folder           folderFacet `json:"folder"`
	ConflictBehavior string      `json:"@microsoft.graph.conflictBehavior"` //nolint:tagliatelle // Graph API annotation key
}

// toItem normalizes a Graph API driveItem response into our Item type.
func (d *driveItemResponse) toItem(logger *slog.Logger) Item {
	item := Item{
		ID:         d.ID,
		Name:       d.Name,
		Size:       d.Size,
		ETag:       d.ETag,
		WebURL:     d.WebURL,
		IsFolder:   d.Folder != nil,
		ChildCount: ChildCountUnknown,
	}

	if d.Folder != nil {
		item.ChildCount = d.Folder.ChildCount
	}

	if d.File != nil {
		item.MimeType = d.File.MimeType
	}

	if d.ParentReference != nil {
		item.ParentPath = parentDrivePath(d.ParentReference.Path)
	}

	item.CreatedAt = parseTimestamp(d.CreatedDateTime, "createdDateTime", d.ID, logger)
	item.ModifiedAt = parseTimestamp(d.LastModifiedDateTime, "lastModifiedDateTime", d.ID, logger)

	return item
}

// parentDrivePath turns a parentReference.path ("/drives/{id}/root:/a/b")
// into a drive-relative path ("a/b").
func parentDrivePath(p string) string {
	_, after, found := strings.Cut(p, "root:")
	if !found {
		return ""
	}

	decoded, err := url.PathUnescape(after)
	if err != nil {
		decoded = after
	}

	return strings.Trim(decoded, "/")
}

// parseTimestamp parses an RFC3339 timestamp and validates the year range.
// Missing, invalid, or out-of-range timestamps yield the zero time, which
// callers render as "unknown".
func parseTimestamp(raw, field, itemID string, logger *slog.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Warn("invalid timestamp, ignoring",
			slog.String("field", field),
			slog.String("item_id", itemID),
			slog.String("raw", raw),
			slog.String("error", err.Error()),
		)

		return time.Time{}
	}

	if t.Year() < minValidYear || t.Year() > maxValidYear {
		logger.Warn("timestamp out of valid range, ignoring",
			slog.String("field", field),
			slog.String("item_id", itemID),
			slog.String("raw", raw),
		)

		return time.Time{}
	}

	return t
}

// decodeItem reads a single driveItem from a response body.
func (c *Client) decodeItem(resp *http.Response, what string) (*Item, error) {
	defer resp.Body.Close()

	var dir driveItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&dir); err != nil {
		return nil, fmt.Errorf("graph: decoding %s response: %w", what, err)
	}

	item := dir.toItem(c.logger)

	return &item, nil
}

// GetItemByPath retrieves a drive item by its drive-relative path.
// The empty path is the drive root.
func (c *Client) GetItemByPath(ctx context.Context, driveID, drivePath string) (*Item, error) {
	c.logger.Debug("getting item by path",
		slog.String("drive_id", driveID),
		slog.String("path", drivePath),
	)

	resp, err := c.Do(ctx, http.MethodGet, itemAddress(driveID, drivePath), nil)
	if err != nil {
		return nil, err
	}

	return c.decodeItem(resp, "item")
}

// ListChildrenByPath returns all children of the folder at drivePath,
// following nextLink pagination.
func (c *Client) ListChildrenByPath(ctx context.Context, driveID, drivePath string) ([]Item, error) {
	c.logger.Debug("listing children by path",
		slog.String("drive_id", driveID),
		slog.String("path", drivePath),
	)

	apiPath := fmt.Sprintf("%s/children?$top=%d", itemAddress(driveID, drivePath), listChildrenPageSize)

	var items []Item

	for page := 1; apiPath != ""; page++ {
		pageItems, nextPath, err := c.listChildrenPage(ctx, apiPath, page)
		if err != nil {
			return nil, err
		}

		items = append(items, pageItems...)
		apiPath = nextPath
	}

	c.logger.Debug("listed children",
		slog.String("path", drivePath),
		slog.Int("total_items", len(items)),
	)

	return items, nil
}

// listChildrenPage fetches a single page of children and returns the items
// and the next page path (empty if no more pages).
func (c *Client) listChildrenPage(ctx context.Context, path string, page int) ([]Item, string, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var lcr listChildrenResponse
	if err := json.NewDecoder(resp.Body).Decode(&lcr); err != nil {
		return nil, "", fmt.Errorf("graph: decoding children response: %w", err)
	}

	items := make([]Item, 0, len(lcr.Value))
	for i := range lcr.Value {
		items = append(items, lcr.Value[i].toItem(c.logger))
	}

	c.logger.Debug("fetched children page",
		slog.Int("page", page),
		slog.Int("count", len(items)),
	)

	var nextPath string
	if lcr.NextLink != "" {
		nextPath, err = c.stripBaseURL(lcr.NextLink)
		if err != nil {
			return nil, "", err
		}
	}

	return items, nextPath, nil
}

// stripBaseURL removes the client's base URL prefix from a full URL,
// returning the path + query string for use with Do().
func (c *Client) stripBaseURL(fullURL string) (string, error) {
	if !strings.HasPrefix(fullURL, c.baseURL) {
		return "", fmt.Errorf("graph: nextLink URL %q does not match base URL %q", fullURL, c.baseURL)
	}

	return fullURL[len(c.baseURL):], nil
}

// CreateFolder creates a folder named name inside the folder at parentPath.
// Uses conflictBehavior "fail" - returns ErrConflict (409) on name collision.
func (c *Client) CreateFolder(ctx context.Context, driveID, parentPath, name string) (*Item, error) {
	c.logger.Info("creating folder",
		slog.String("drive_id", driveID),
		slog.String("parent_path", parentPath),
		slog.String("name", name),
	)

	body, err := json.Marshal(createFolderRequest{
		Name:             name,
		Folder:           folderFacet{},
		ConflictBehavior: "fail",
	})
	if err != nil {
		return nil, fmt.Errorf("graph: marshaling create folder request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, itemAddress(driveID, parentPath)+"/children", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	return c.decodeItem(resp, "create folder")
}

// DeleteByPath deletes the drive item at drivePath. Deleted items go to
// the site recycle bin.
func (c *Client) DeleteByPath(ctx context.Context, driveID, drivePath string) error {
	c.logger.Info("deleting item",
		slog.String("drive_id", driveID),
		slog.String("path", drivePath),
	)

	if strings.Trim(drivePath, "/") == "" {
		return fmt.Errorf("graph: refusing to delete drive root: %w", ErrBadRequest)
	}

	resp, err := c.Do(ctx, http.MethodDelete, itemAddress(driveID, drivePath), nil)
	if err != nil {
		return err
	}

	// 204 No Content - drain and close to reuse connection.
	defer resp.Body.Close()

	if _, copyErr := io.Copy(io.Discard, resp.Body); copyErr != nil {
		return fmt.Errorf("graph: draining delete response body: %w", copyErr)
	}

	return nil
}
