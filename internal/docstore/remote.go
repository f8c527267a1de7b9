package docstore

import (
	"context"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
)

// Remote is the document library as the service sees it. Paths are full
// library paths ("Shared Documents/base/folder/file"). graph.Library is
// the production implementation.
type Remote interface {
	ListFolders(ctx context.Context, path string) ([]graph.FolderEntry, error)
	ListFiles(ctx context.Context, path string) ([]graph.FileEntry, error)
	GetFolder(ctx context.Context, path string) (graph.FolderEntry, error)
	GetFile(ctx context.Context, path string) (graph.FileEntry, error)
	CreateFolder(ctx context.Context, parent, name string) (graph.FolderEntry, error)
	GetFileBytes(ctx context.Context, path string) ([]byte, error)
	PutFileBytes(ctx context.Context, path string, data []byte) (graph.UploadedFile, error)
	DeleteObject(ctx context.Context, path string) error
	GetListItemFields(ctx context.Context, path string) (map[string]string, error)
	SetListItemFields(ctx context.Context, path string, fields map[string]any) error
	Search(ctx context.Context, query string, limit int) ([]map[string]string, error)
}

// Recorder receives one call per completed mutating operation.
// *journal.Journal implements it.
type Recorder interface {
	Record(ctx context.Context, operation, path string, success bool, message string) error
}

var _ Remote = (*graph.Library)(nil)
