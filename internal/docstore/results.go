package docstore

import (
	"github.com/tonimelisma/sharepoint-go/internal/graph"
)

// Result is the outcome of a mutating operation. Success false with a
// Message is an expected refusal (already exists, not empty, missing),
// not an error.
type Result struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Folder  *FolderRef          `json:"folder,omitempty"`
	File    *graph.UploadedFile `json:"file,omitempty"`
}

// FolderRef names a created folder.
type FolderRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DownloadResult reports where a downloaded file was written.
type DownloadResult struct {
	Success       bool   `json:"success"`
	Path          string `json:"path,omitempty"`
	Size          int64  `json:"size,omitempty"`
	Method        string `json:"method,omitempty"`
	Error         string `json:"error,omitempty"`
	PrimaryError  string `json:"primary_error,omitempty"`
	FallbackError string `json:"fallback_error,omitempty"`
}

// MetadataResult carries a file's list-item fields.
type MetadataResult struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
	File     *FileRef          `json:"file,omitempty"`
}

// FileRef identifies a file by name and library path.
type FileRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// SearchResult is one search call's hits.
type SearchResult struct {
	Query   string              `json:"query"`
	Count   int                 `json:"count"`
	Results []map[string]string `json:"results"`
}
