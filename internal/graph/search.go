package graph

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// searchQuery escapes a query for the OData search(q='...') function:
// single quotes are doubled, then the whole literal is path-escaped.
func searchQuery(q string) string {
	return url.PathEscape(strings.ReplaceAll(q, "'", "''"))
}

// Search runs a full-text search below the folder at drivePath (the drive
// root when empty) and returns at most limit items.
func (c *Client) Search(ctx context.Context, driveID, drivePath, query string, limit int) ([]Item, error) {
	c.logger.Info("searching",
		slog.String("drive_id", driveID),
		slog.String("scope", drivePath),
		slog.String("query", query),
		slog.Int("limit", limit),
	)

	apiPath := fmt.Sprintf("%s/search(q='%s')?$top=%d", itemAddress(driveID, drivePath), searchQuery(query), limit)

	// Search results share the driveItem collection shape, so paging is
	// the same as for children.
	var items []Item

	for page := 1; apiPath != "" && len(items) < limit; page++ {
		pageItems, nextPath, err := c.listChildrenPage(ctx, apiPath, page)
		if err != nil {
			return nil, err
		}

		items = append(items, pageItems...)
		apiPath = nextPath
	}

	if len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}
