package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// ListItemFields returns the list-item columns of the file at drivePath
// (title, custom columns, and system fields such as Modified or Editor).
func (c *Client) ListItemFields(ctx context.Context, driveID, drivePath string) (map[string]any, error) {
	c.logger.Debug("getting list item fields", slog.String("path", drivePath))

	resp, err := c.Do(ctx, http.MethodGet, itemAddress(driveID, drivePath)+"/listItem/fields", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var fields map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("graph: decoding list item fields: %w", err)
	}

	// OData annotations are protocol noise, not columns.
	for k := range fields {
		if len(k) > 0 && k[0] == '@' {
			delete(fields, k)
		}
	}

	return fields, nil
}

// UpdateListItemFields patches list-item columns of the file at drivePath.
func (c *Client) UpdateListItemFields(ctx context.Context, driveID, drivePath string, fields map[string]any) error {
	c.logger.Info("updating list item fields",
		slog.String("path", drivePath),
		slog.Int("count", len(fields)),
	)

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("graph: marshaling list item fields: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPatch, itemAddress(driveID, drivePath)+"/listItem/fields", bytes.NewReader(body))
	if err != nil {
		return err
	}

	return resp.Body.Close()
}
