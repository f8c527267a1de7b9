package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Library is one SharePoint document library, addressed by library paths
// of the form "<library>/<folder>/<file>" (for example
// "Shared Documents/mcp_server/reports/q1.pdf"). It resolves the site and
// drive once and is immutable afterwards, so it is safe for concurrent use.
type Library struct {
	client     *Client
	driveID    string
	name       string // first path segment, as configured
	base       string // drive-relative base folder, may be ""
	serverRoot string // server-relative URL of the drive root
	logger     *slog.Logger
}

// OpenLibrary resolves siteURL and the drive named by the first segment of
// docLibrary. The remaining segments name the base folder that searches
// are scoped to. Failures are connection errors: the library handle could
// not be established.
func OpenLibrary(ctx context.Context, client *Client, siteURL, docLibrary string) (*Library, error) {
	docLibrary = strings.Trim(docLibrary, "/")
	name, base, _ := strings.Cut(docLibrary, "/")

	site, err := client.Site(ctx, siteURL)
	if err != nil {
		return nil, wrapOpenErr("resolving site "+siteURL, err)
	}

	drives, err := client.Drives(ctx, site.ID)
	if err != nil {
		return nil, wrapOpenErr("listing drives", err)
	}

	drive, ok := MatchDrive(drives, name)
	if !ok {
		names := make([]string, 0, len(drives))
		for _, d := range drives {
			names = append(names, d.Name)
		}

		return nil, &ConnectionError{
			Op:  "resolving library",
			Err: fmt.Errorf("no document library named %q on site (available: %s): %w", name, strings.Join(names, ", "), ErrNotFound),
		}
	}

	serverRoot := ""
	if u, parseErr := url.Parse(drive.WebURL); parseErr == nil {
		serverRoot = strings.TrimSuffix(u.Path, "/")
	}

	client.logger.Info("opened document library",
		slog.String("site", site.Name),
		slog.String("library", drive.Name),
		slog.String("drive_id", drive.ID),
		slog.String("base", base),
	)

	return &Library{
		client:     client,
		driveID:    drive.ID,
		name:       name,
		base:       base,
		serverRoot: serverRoot,
		logger:     client.logger,
	}, nil
}

func wrapOpenErr(op string, err error) error {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return err
	}

	return &ConnectionError{Op: op, Err: err, Temporary: IsTransient(err)}
}

// DriveID returns the resolved drive ID.
func (l *Library) DriveID() string {
	return l.driveID
}

// drivePath strips the library name from a library path.
func (l *Library) drivePath(p string) (string, error) {
	p = strings.Trim(p, "/")
	first, rest, _ := strings.Cut(p, "/")

	if !strings.EqualFold(first, l.name) {
		return "", fmt.Errorf("graph: path %q is outside library %q: %w", p, l.name, ErrBadRequest)
	}

	return rest, nil
}

// libraryPath is the inverse of drivePath.
func (l *Library) libraryPath(drivePath string) string {
	if drivePath == "" {
		return l.name
	}

	return l.name + "/" + drivePath
}

// serverURL returns the server-relative URL of a drive path, the form
// SharePoint shows as ServerRelativeUrl.
func (l *Library) serverURL(drivePath string) string {
	if drivePath == "" {
		return l.serverRoot
	}

	return l.serverRoot + "/" + drivePath
}

func (l *Library) children(ctx context.Context, p string) (string, []Item, error) {
	dp, err := l.drivePath(p)
	if err != nil {
		return "", nil, err
	}

	items, err := l.client.ListChildrenByPath(ctx, l.driveID, dp)
	if err != nil {
		return "", nil, err
	}

	return dp, items, nil
}

// ListFolders returns the immediate sub-folders of the folder at p.
func (l *Library) ListFolders(ctx context.Context, p string) ([]FolderEntry, error) {
	dp, items, err := l.children(ctx, p)
	if err != nil {
		return nil, err
	}

	folders := make([]FolderEntry, 0, len(items))

	for i := range items {
		if items[i].IsFolder {
			folders = append(folders, l.folderEntry(childPath(dp, items[i].Name), &items[i]))
		}
	}

	return folders, nil
}

// ListFiles returns the files directly inside the folder at p.
func (l *Library) ListFiles(ctx context.Context, p string) ([]FileEntry, error) {
	dp, items, err := l.children(ctx, p)
	if err != nil {
		return nil, err
	}

	files := make([]FileEntry, 0, len(items))

	for i := range items {
		if !items[i].IsFolder {
			files = append(files, l.fileEntry(childPath(dp, items[i].Name), &items[i]))
		}
	}

	return files, nil
}

// GetFolder returns metadata for the folder at p, or an ErrNotFound error
// if p does not exist or is a file.
func (l *Library) GetFolder(ctx context.Context, p string) (FolderEntry, error) {
	dp, item, err := l.item(ctx, p)
	if err != nil {
		return FolderEntry{}, err
	}

	if !item.IsFolder {
		return FolderEntry{}, fmt.Errorf("graph: %q is not a folder: %w", p, ErrNotFound)
	}

	return l.folderEntry(dp, item), nil
}

// GetFile returns metadata for the file at p, or an ErrNotFound error if
// p does not exist or is a folder.
func (l *Library) GetFile(ctx context.Context, p string) (FileEntry, error) {
	dp, item, err := l.item(ctx, p)
	if err != nil {
		return FileEntry{}, err
	}

	if item.IsFolder {
		return FileEntry{}, fmt.Errorf("graph: %q is not a file: %w", p, ErrNotFound)
	}

	return l.fileEntry(dp, item), nil
}

func (l *Library) item(ctx context.Context, p string) (string, *Item, error) {
	dp, err := l.drivePath(p)
	if err != nil {
		return "", nil, err
	}

	item, err := l.client.GetItemByPath(ctx, l.driveID, dp)
	if err != nil {
		return "", nil, err
	}

	return dp, item, nil
}

// GetFileBytes downloads the whole file at p into memory.
func (l *Library) GetFileBytes(ctx context.Context, p string) ([]byte, error) {
	dp, err := l.drivePath(p)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := l.client.Download(ctx, l.driveID, dp, &buf, 0); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// PutFileBytes creates or replaces the file at p.
func (l *Library) PutFileBytes(ctx context.Context, p string, data []byte) (UploadedFile, error) {
	dp, err := l.drivePath(p)
	if err != nil {
		return UploadedFile{}, err
	}

	parent, name := splitLast(dp)
	if name == "" {
		return UploadedFile{}, fmt.Errorf("graph: upload path %q has no file name: %w", p, ErrBadRequest)
	}

	item, err := l.client.Upload(ctx, l.driveID, parent, name, data)
	if err != nil {
		return UploadedFile{}, err
	}

	return UploadedFile{Name: item.Name, URL: l.serverURL(childPath(parent, item.Name))}, nil
}

// DeleteObject deletes the file or folder at p.
func (l *Library) DeleteObject(ctx context.Context, p string) error {
	dp, err := l.drivePath(p)
	if err != nil {
		return err
	}

	return l.client.DeleteByPath(ctx, l.driveID, dp)
}

// CreateFolder creates name inside the folder at parent.
func (l *Library) CreateFolder(ctx context.Context, parent, name string) (FolderEntry, error) {
	dp, err := l.drivePath(parent)
	if err != nil {
		return FolderEntry{}, err
	}

	item, err := l.client.CreateFolder(ctx, l.driveID, dp, name)
	if err != nil {
		return FolderEntry{}, err
	}

	return l.folderEntry(childPath(dp, item.Name), item), nil
}

// GetListItemFields returns the non-null list-item columns of the file at
// p, stringified.
func (l *Library) GetListItemFields(ctx context.Context, p string) (map[string]string, error) {
	dp, err := l.drivePath(p)
	if err != nil {
		return nil, err
	}

	raw, err := l.client.ListItemFields(ctx, l.driveID, dp)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(raw))

	for k, v := range raw {
		if v == nil {
			continue
		}

		fields[k] = stringifyField(v)
	}

	return fields, nil
}

// SetListItemFields patches list-item columns of the file at p.
func (l *Library) SetListItemFields(ctx context.Context, p string, fields map[string]any) error {
	dp, err := l.drivePath(p)
	if err != nil {
		return err
	}

	return l.client.UpdateListItemFields(ctx, l.driveID, dp, fields)
}

// Search finds up to limit items below the library's base folder.
// Each hit is flattened to string fields: name, type, path, url, size,
// modified and web_url.
func (l *Library) Search(ctx context.Context, query string, limit int) ([]map[string]string, error) {
	items, err := l.client.Search(ctx, l.driveID, l.base, query, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]map[string]string, 0, len(items))

	for i := range items {
		it := &items[i]
		dp := childPath(it.ParentPath, it.Name)

		kind := "file"
		if it.IsFolder {
			kind = "folder"
		}

		hit := map[string]string{
			"name":    it.Name,
			"type":    kind,
			"path":    l.libraryPath(dp),
			"url":     l.serverURL(dp),
			"web_url": it.WebURL,
		}

		if !it.IsFolder {
			hit["size"] = strconv.FormatInt(it.Size, 10)
		}

		if !it.ModifiedAt.IsZero() {
			hit["modified"] = it.ModifiedAt.UTC().Format(time.RFC3339)
		}

		hits = append(hits, hit)
	}

	return hits, nil
}

func (l *Library) folderEntry(drivePath string, it *Item) FolderEntry {
	return FolderEntry{
		Name:     it.Name,
		URL:      l.serverURL(drivePath),
		Created:  timePtr(it.CreatedAt),
		Modified: timePtr(it.ModifiedAt),
	}
}

func (l *Library) fileEntry(drivePath string, it *Item) FileEntry {
	return FileEntry{
		Name:     it.Name,
		URL:      l.serverURL(drivePath),
		Size:     it.Size,
		ETag:     it.ETag,
		Created:  timePtr(it.CreatedAt),
		Modified: timePtr(it.ModifiedAt),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

func splitLast(p string) (parent, name string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}

	return p[:i], p[i+1:]
}

// stringifyField renders a list-item value the way SharePoint shows it:
// strings as-is, scalars in their plain form, and anything structured as
// JSON.
func stringifyField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool, float64, int, int64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}

		return string(b)
	}
}
