package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// siteResponse mirrors the Graph API site JSON response.
type siteResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	WebURL      string `json:"webUrl"`
}

// driveResponse mirrors the Graph API drive JSON response.
// Unexported - callers use Drive via toDrive() normalization.
type driveResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DriveType string `json:"driveType"`
	WebURL    string `json:"webUrl"`
}

// drivesListResponse wraps the value array from GET /sites/{id}/drives.
type drivesListResponse struct {
	Value []driveResponse `json:"value"`
}

func (d *driveResponse) toDrive() Drive {
	return Drive{
		ID:        d.ID,
		Name:      d.Name,
		DriveType: d.DriveType,
		WebURL:    d.WebURL,
	}
}

// sitePathFor converts a site URL into the Graph site-by-path address:
// "https://contoso.sharepoint.com/sites/legal" -> "/sites/contoso.sharepoint.com:/sites/legal".
// The bare host addresses the tenant's root site.
func sitePathFor(siteURL string) (string, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return "", fmt.Errorf("graph: parsing site URL %q: %w", siteURL, err)
	}

	if u.Host == "" {
		return "", fmt.Errorf("graph: site URL %q has no host", siteURL)
	}

	rel := strings.Trim(u.Path, "/")
	if rel == "" {
		return "/sites/" + u.Host, nil
	}

	return fmt.Sprintf("/sites/%s:/%s", u.Host, encodePathSegments(rel)), nil
}

// Site resolves a SharePoint site from its URL.
func (c *Client) Site(ctx context.Context, siteURL string) (*Site, error) {
	apiPath, err := sitePathFor(siteURL)
	if err != nil {
		return nil, err
	}

	c.logger.Info("resolving site", slog.String("site_url", siteURL))

	resp, err := c.Do(ctx, http.MethodGet, apiPath, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr siteResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("graph: decoding site response: %w", err)
	}

	name := sr.DisplayName
	if name == "" {
		name = sr.Name
	}

	return &Site{ID: sr.ID, Name: name, WebURL: sr.WebURL}, nil
}

// Drives returns the document libraries of a site.
func (c *Client) Drives(ctx context.Context, siteID string) ([]Drive, error) {
	c.logger.Info("listing site drives", slog.String("site_id", siteID))

	resp, err := c.Do(ctx, http.MethodGet, "/sites/"+url.PathEscape(siteID)+"/drives", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var dlr drivesListResponse
	if err := json.NewDecoder(resp.Body).Decode(&dlr); err != nil {
		return nil, fmt.Errorf("graph: decoding drives response: %w", err)
	}

	drives := make([]Drive, 0, len(dlr.Value))
	for i := range dlr.Value {
		drives = append(drives, dlr.Value[i].toDrive())
	}

	c.logger.Info("listed drives", slog.Int("count", len(drives)))

	return drives, nil
}

// MatchDrive finds the drive for a library name, comparing against both
// the display name ("Documents") and the URL segment ("Shared Documents"),
// case-insensitively.
func MatchDrive(drives []Drive, library string) (Drive, bool) {
	for _, d := range drives {
		if strings.EqualFold(d.Name, library) {
			return d, true
		}
	}

	for _, d := range drives {
		if strings.EqualFold(driveURLName(d), library) {
			return d, true
		}
	}

	return Drive{}, false
}

// driveURLName returns the last, unescaped segment of a drive's web URL.
func driveURLName(d Drive) string {
	u, err := url.Parse(d.WebURL)
	if err != nil {
		return ""
	}

	p := strings.TrimSuffix(u.Path, "/")

	return p[strings.LastIndex(p, "/")+1:]
}
