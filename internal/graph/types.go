package graph

import "time"

// Item is a normalized drive item (file or folder). Fields come from the
// Graph API driveItem resource; callers never see raw API data.
type Item struct {
	ID         string
	Name       string
	Size       int64
	ETag       string
	IsFolder   bool
	ChildCount int // ChildCountUnknown if not present
	MimeType   string
	WebURL     string
	ParentPath string // drive-relative, no leading slash; "" for root children
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// ChildCountUnknown indicates the child count was not present in the API response.
const ChildCountUnknown = -1

// Site is a SharePoint site resolved from its URL.
type Site struct {
	ID     string
	Name   string
	WebURL string
}

// Drive is a document library on a site.
type Drive struct {
	ID        string
	Name      string
	DriveType string
	WebURL    string
}

// FolderEntry describes one folder in a library listing.
type FolderEntry struct {
	Name     string     `json:"name"`
	URL      string     `json:"url"`
	Created  *time.Time `json:"created,omitempty"`
	Modified *time.Time `json:"modified,omitempty"`
}

// FileEntry describes one file in a library listing.
type FileEntry struct {
	Name     string     `json:"name"`
	URL      string     `json:"url"`
	Size     int64      `json:"size"`
	ETag     string     `json:"-"`
	Created  *time.Time `json:"created,omitempty"`
	Modified *time.Time `json:"modified,omitempty"`
}

// UploadedFile is what a successful upload reports back.
type UploadedFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
