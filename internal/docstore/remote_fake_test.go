package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
)

const testRoot = "Shared Documents/base"

// fakeRemote is an in-memory library. Folders are keyed by library path;
// files by library path with their contents.
type fakeRemote struct {
	mu      sync.Mutex
	folders map[string]bool
	files   map[string][]byte
	etags   map[string]int
	fields  map[string]map[string]string

	// failures makes the next n calls to a method fail with err.
	failures map[string]*injected

	calls   map[string]int
	updates []map[string]any
	hits    []map[string]string
}

type injected struct {
	n   int
	err error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		folders:  map[string]bool{"Shared Documents": true, testRoot: true},
		files:    make(map[string][]byte),
		etags:    make(map[string]int),
		fields:   make(map[string]map[string]string),
		failures: make(map[string]*injected),
		calls:    make(map[string]int),
	}
}

func (f *fakeRemote) addFolder(p string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.folders[p] = true
}

func (f *fakeRemote) addFile(p string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.files[p] = data
	f.etags[p]++
}

func (f *fakeRemote) fail(method string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[method] = &injected{n: n, err: err}
}

func (f *fakeRemote) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[method]
}

// enter counts a call and returns an injected failure, if any. Callers
// hold f.mu.
func (f *fakeRemote) enter(method string) error {
	f.calls[method]++

	inj := f.failures[method]
	if inj == nil || inj.n == 0 {
		return nil
	}

	inj.n--

	return inj.err
}

func parentOf(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}

	return p[:i]
}

func baseOf(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}

var fixedTime = time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

func (f *fakeRemote) folderEntry(p string) graph.FolderEntry {
	t := fixedTime
	return graph.FolderEntry{Name: baseOf(p), URL: "/sites/legal/" + p, Created: &t, Modified: &t}
}

func (f *fakeRemote) fileEntry(p string) graph.FileEntry {
	t := fixedTime
	return graph.FileEntry{
		Name:     baseOf(p),
		URL:      "/sites/legal/" + p,
		Size:     int64(len(f.files[p])),
		ETag:     fmt.Sprintf("etag-%d", f.etags[p]),
		Created:  &t,
		Modified: &t,
	}
}

func (f *fakeRemote) ListFolders(_ context.Context, p string) ([]graph.FolderEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("ListFolders"); err != nil {
		return nil, err
	}

	if !f.folders[p] {
		return nil, graph.ErrNotFound
	}

	var out []graph.FolderEntry

	for _, k := range sortedKeys(f.folders) {
		if parentOf(k) == p {
			out = append(out, f.folderEntry(k))
		}
	}

	return out, nil
}

func (f *fakeRemote) ListFiles(_ context.Context, p string) ([]graph.FileEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("ListFiles"); err != nil {
		return nil, err
	}

	if !f.folders[p] {
		return nil, graph.ErrNotFound
	}

	var out []graph.FileEntry

	for _, k := range sortedKeys(f.files) {
		if parentOf(k) == p {
			out = append(out, f.fileEntry(k))
		}
	}

	return out, nil
}

func (f *fakeRemote) GetFolder(_ context.Context, p string) (graph.FolderEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetFolder"); err != nil {
		return graph.FolderEntry{}, err
	}

	if !f.folders[p] {
		return graph.FolderEntry{}, graph.ErrNotFound
	}

	return f.folderEntry(p), nil
}

func (f *fakeRemote) GetFile(_ context.Context, p string) (graph.FileEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetFile"); err != nil {
		return graph.FileEntry{}, err
	}

	if _, ok := f.files[p]; !ok {
		return graph.FileEntry{}, graph.ErrNotFound
	}

	return f.fileEntry(p), nil
}

func (f *fakeRemote) CreateFolder(_ context.Context, parent, name string) (graph.FolderEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("CreateFolder"); err != nil {
		return graph.FolderEntry{}, err
	}

	p := parent + "/" + name
	if f.folders[p] {
		return graph.FolderEntry{}, graph.ErrConflict
	}

	f.folders[p] = true

	return f.folderEntry(p), nil
}

func (f *fakeRemote) GetFileBytes(_ context.Context, p string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetFileBytes"); err != nil {
		return nil, err
	}

	data, ok := f.files[p]
	if !ok {
		return nil, graph.ErrNotFound
	}

	return append([]byte(nil), data...), nil
}

func (f *fakeRemote) PutFileBytes(_ context.Context, p string, data []byte) (graph.UploadedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("PutFileBytes"); err != nil {
		return graph.UploadedFile{}, err
	}

	if !f.folders[parentOf(p)] {
		return graph.UploadedFile{}, graph.ErrNotFound
	}

	f.files[p] = append([]byte(nil), data...)
	f.etags[p]++

	return graph.UploadedFile{Name: baseOf(p), URL: "/sites/legal/" + p}, nil
}

func (f *fakeRemote) DeleteObject(_ context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("DeleteObject"); err != nil {
		return err
	}

	if f.folders[p] {
		delete(f.folders, p)
		return nil
	}

	if _, ok := f.files[p]; !ok {
		return graph.ErrNotFound
	}

	delete(f.files, p)

	return nil
}

func (f *fakeRemote) GetListItemFields(_ context.Context, p string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetListItemFields"); err != nil {
		return nil, err
	}

	if _, ok := f.files[p]; !ok {
		return nil, graph.ErrNotFound
	}

	out := map[string]string{"FileLeafRef": baseOf(p)}
	for k, v := range f.fields[p] {
		out[k] = v
	}

	return out, nil
}

func (f *fakeRemote) SetListItemFields(_ context.Context, p string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("SetListItemFields"); err != nil {
		return err
	}

	if f.fields[p] == nil {
		f.fields[p] = make(map[string]string)
	}

	for k, v := range fields {
		f.fields[p][k] = fmt.Sprint(v)
	}

	f.updates = append(f.updates, fields)

	return nil
}

func (f *fakeRemote) Search(_ context.Context, query string, limit int) ([]map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("Search"); err != nil {
		return nil, err
	}

	var out []map[string]string

	for _, k := range sortedKeys(f.files) {
		if strings.Contains(strings.ToLower(baseOf(k)), strings.ToLower(query)) {
			out = append(out, map[string]string{"name": baseOf(k), "type": "file", "path": k})
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// fakeJournal collects recorded operations.
type fakeJournal struct {
	mu      sync.Mutex
	entries []string
	err     error
}

func (j *fakeJournal) Record(_ context.Context, op, p string, success bool, _ string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, fmt.Sprintf("%s %s %t", op, p, success))

	return j.err
}

var errThrottled = fmt.Errorf("fake: %w", graph.ErrThrottled)

var errBoom = errors.New("boom")

func noSleep(context.Context, time.Duration) error { return nil }

func testLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }
