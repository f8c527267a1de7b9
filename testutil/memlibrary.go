package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
)

// MemLibrary is an in-memory document library implementing
// docstore.Remote. Paths are library paths without a leading slash, the
// same form docstore passes to a real library. Folders must exist before
// files are placed in them only when created through CreateFolder; AddFile
// creates missing parents.
type MemLibrary struct {
	mu      sync.Mutex
	folders map[string]bool
	files   map[string][]byte
	fields  map[string]map[string]string
}

// NewMemLibrary returns a library containing only the root folder.
func NewMemLibrary(root string) *MemLibrary {
	return &MemLibrary{
		folders: map[string]bool{strings.Trim(root, "/"): true},
		files:   map[string][]byte{},
		fields:  map[string]map[string]string{},
	}
}

// AddFolder creates p and all of its parents.
func (m *MemLibrary) AddFolder(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addFolderLocked(p)
}

func (m *MemLibrary) addFolderLocked(p string) {
	for p != "" {
		m.folders[p] = true
		p = dirOf(p)
	}
}

// AddFile stores data at p, creating parent folders.
func (m *MemLibrary) AddFile(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addFolderLocked(dirOf(p))
	m.files[p] = data
}

// File returns the stored bytes at p.
func (m *MemLibrary) File(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[p]

	return data, ok
}

// HasFolder reports whether p exists as a folder.
func (m *MemLibrary) HasFolder(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.folders[p]
}

// Fields returns a copy of the list-item fields stored for p.
func (m *MemLibrary) Fields(p string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.fields[p]))
	for k, v := range m.fields[p] {
		out[k] = v
	}

	return out
}

func (m *MemLibrary) ListFolders(_ context.Context, p string) ([]graph.FolderEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.folders[p] {
		return nil, graph.ErrNotFound
	}

	var out []graph.FolderEntry

	for k := range m.folders {
		if k != p && dirOf(k) == p {
			out = append(out, graph.FolderEntry{Name: baseOf(k), URL: "/" + k})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (m *MemLibrary) ListFiles(_ context.Context, p string) ([]graph.FileEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.folders[p] {
		return nil, graph.ErrNotFound
	}

	var out []graph.FileEntry

	for k, v := range m.files {
		if dirOf(k) == p {
			out = append(out, graph.FileEntry{Name: baseOf(k), URL: "/" + k, Size: int64(len(v))})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (m *MemLibrary) GetFolder(_ context.Context, p string) (graph.FolderEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.folders[p] {
		return graph.FolderEntry{}, graph.ErrNotFound
	}

	return graph.FolderEntry{Name: baseOf(p), URL: "/" + p}, nil
}

func (m *MemLibrary) GetFile(_ context.Context, p string) (graph.FileEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[p]
	if !ok {
		return graph.FileEntry{}, graph.ErrNotFound
	}

	return graph.FileEntry{Name: baseOf(p), URL: "/" + p, Size: int64(len(data))}, nil
}

func (m *MemLibrary) CreateFolder(_ context.Context, parent, name string) (graph.FolderEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.folders[parent] {
		return graph.FolderEntry{}, graph.ErrNotFound
	}

	p := parent + "/" + name
	if m.folders[p] {
		return graph.FolderEntry{}, graph.ErrConflict
	}

	m.folders[p] = true

	return graph.FolderEntry{Name: name, URL: "/" + p}, nil
}

func (m *MemLibrary) GetFileBytes(_ context.Context, p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[p]
	if !ok {
		return nil, graph.ErrNotFound
	}

	return append([]byte(nil), data...), nil
}

func (m *MemLibrary) PutFileBytes(_ context.Context, p string, data []byte) (graph.UploadedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.folders[dirOf(p)] {
		return graph.UploadedFile{}, graph.ErrNotFound
	}

	m.files[p] = append([]byte(nil), data...)

	return graph.UploadedFile{Name: baseOf(p), URL: "/" + p}, nil
}

func (m *MemLibrary) DeleteObject(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, isFile := m.files[p]
	if !isFile && !m.folders[p] {
		return graph.ErrNotFound
	}

	delete(m.files, p)
	delete(m.folders, p)
	delete(m.fields, p)

	return nil
}

func (m *MemLibrary) GetListItemFields(_ context.Context, p string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[p]; !ok {
		return nil, graph.ErrNotFound
	}

	out := map[string]string{"FileLeafRef": baseOf(p)}
	for k, v := range m.fields[p] {
		out[k] = v
	}

	return out, nil
}

func (m *MemLibrary) SetListItemFields(_ context.Context, p string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[p]; !ok {
		return graph.ErrNotFound
	}

	if m.fields[p] == nil {
		m.fields[p] = map[string]string{}
	}

	for k, v := range fields {
		s, _ := v.(string)
		m.fields[p][k] = s
	}

	return nil
}

// Search matches query case-insensitively against file names.
func (m *MemLibrary) Search(_ context.Context, query string, limit int) ([]map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := strings.ToLower(query)

	var out []map[string]string

	for k := range m.files {
		if strings.Contains(strings.ToLower(baseOf(k)), q) {
			out = append(out, map[string]string{"name": baseOf(k), "path": "/" + k})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i]["path"] < out[j]["path"] })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func dirOf(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}

	return p[:i]
}

func baseOf(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}
