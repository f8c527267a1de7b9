package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/retry"
)

var errThrottled = errors.New("throttled")

// fakeLister serves a fixed tree. Paths in failures return the mapped
// error; transient counts how many times a path fails before succeeding.
type fakeLister struct {
	mu        sync.Mutex
	folders   map[string][]graph.FolderEntry
	files     map[string][]graph.FileEntry
	failures  map[string]error
	transient map[string]int
	listed    []string
}

func newFakeLister() *fakeLister {
	return &fakeLister{
		folders:   make(map[string][]graph.FolderEntry),
		files:     make(map[string][]graph.FileEntry),
		failures:  make(map[string]error),
		transient: make(map[string]int),
	}
}

func (f *fakeLister) addFolder(parent, name string) {
	f.folders[parent] = append(f.folders[parent], graph.FolderEntry{Name: name, URL: "/sites/x/" + parent + "/" + name})
}

func (f *fakeLister) addFile(parent, name string, size int64) {
	f.files[parent] = append(f.files[parent], graph.FileEntry{Name: name, Size: size})
}

func (f *fakeLister) GetFolder(_ context.Context, p string) (graph.FolderEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failures[p]; err != nil {
		return graph.FolderEntry{}, err
	}

	return graph.FolderEntry{Name: "root", URL: "/sites/x/" + p}, nil
}

func (f *fakeLister) ListFolders(_ context.Context, p string) ([]graph.FolderEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listed = append(f.listed, p)

	if n := f.transient[p]; n > 0 {
		f.transient[p] = n - 1
		return nil, errThrottled
	}

	if err := f.failures[p]; err != nil {
		return nil, err
	}

	return f.folders[p], nil
}

func (f *fakeLister) ListFiles(_ context.Context, p string) ([]graph.FileEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.files[p], nil
}

type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.delays = append(r.delays, d)

	return nil
}

func newTestCrawler(l Lister) (*Crawler, *recordingSleep) {
	logger := slog.New(slog.DiscardHandler)
	rec := &recordingSleep{}
	exec := retry.New(logger).WithSleep(rec.sleep)
	policy := retry.DefaultPolicy(func(err error) bool { return errors.Is(err, errThrottled) })

	return New(l, exec, policy, logger).WithSleep(rec.sleep), rec
}

func findChild(t *testing.T, n Node, name string) Node {
	t.Helper()

	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}

	require.Failf(t, "child not found", "%q has no child %q", n.Path, name)

	return Node{}
}

func TestCrawl_TwoLevels(t *testing.T) {
	l := newFakeLister()
	l.addFolder("Docs/base", "a")
	l.addFolder("Docs/base", "b")
	l.addFile("Docs/base", "readme.txt", 10)
	l.addFile("Docs/base/a", "x.txt", 3)

	c, rec := newTestCrawler(l)
	cfg := Config{MaxDepth: 5, MaxItemsPerLevel: 100, LevelDelay: time.Second, BatchDelay: time.Millisecond}

	tree := c.Crawl(t.Context(), "Docs/base", cfg)

	assert.Equal(t, "base", tree.Name)
	assert.Equal(t, KindFolder, tree.Kind)
	assert.Empty(t, tree.Error)
	require.Len(t, tree.Children, 3)

	a := findChild(t, tree, "a")
	assert.Equal(t, "Docs/base/a", a.Path)
	require.Len(t, a.Children, 1)
	assert.Equal(t, "Docs/base/a/x.txt", a.Children[0].Path)
	assert.Equal(t, KindFile, a.Children[0].Kind)
	require.NotNil(t, a.Children[0].Size)
	assert.Equal(t, int64(3), *a.Children[0].Size)

	b := findChild(t, tree, "b")
	assert.Empty(t, b.Children)

	readme := findChild(t, tree, "readme.txt")
	assert.Equal(t, KindFile, readme.Kind)

	// One pause between level 1 and level 2; level 2 discovers no folders.
	assert.Equal(t, []time.Duration{time.Second}, rec.delays)

	stats := tree.Summarize()
	assert.Equal(t, Stats{Folders: 3, Files: 2, MaxDepth: 2}, stats)
}

func TestCrawl_RespectsMaxDepth(t *testing.T) {
	l := newFakeLister()
	p := "Docs"
	for i := range 6 {
		name := fmt.Sprintf("d%d", i)
		l.addFolder(p, name)
		p += "/" + name
	}

	c, _ := newTestCrawler(l)
	tree := c.Crawl(t.Context(), "Docs", Config{MaxDepth: 3, MaxItemsPerLevel: 10})

	assert.Equal(t, 3, tree.Summarize().MaxDepth)

	tree.Walk(func(n *Node, depth int) {
		assert.LessOrEqual(t, depth, 3, n.Path)
	})

	// Only the first three levels were listed.
	assert.Equal(t, []string{"Docs", "Docs/d0", "Docs/d0/d1"}, l.listed)
}

func TestCrawl_InaccessibleRoot(t *testing.T) {
	l := newFakeLister()
	l.failures["Docs/missing"] = graph.ErrNotFound

	c, _ := newTestCrawler(l)
	tree := c.Crawl(t.Context(), "Docs/missing", DefaultConfig())

	assert.Equal(t, "missing", tree.Name)
	assert.Equal(t, "Docs/missing", tree.Path)
	assert.Equal(t, "Could not access folder", tree.Error)
	assert.Empty(t, tree.Children)
	assert.Empty(t, l.listed)
}

func TestCrawl_FailedBranchBecomesStub(t *testing.T) {
	l := newFakeLister()
	l.addFolder("Docs", "ok")
	l.addFolder("Docs", "locked")
	l.addFolder("Docs/locked", "secret")
	l.addFile("Docs/ok", "f.txt", 1)
	l.failures["Docs/locked"] = graph.ErrForbidden

	c, _ := newTestCrawler(l)
	tree := c.Crawl(t.Context(), "Docs", DefaultConfig())

	assert.Empty(t, tree.Error)
	require.Len(t, tree.Children, 2)

	locked := findChild(t, tree, "locked")
	assert.Equal(t, KindFolder, locked.Kind)
	assert.Contains(t, locked.Error, "Could not access folder")
	assert.Empty(t, locked.Children)

	ok := findChild(t, tree, "ok")
	assert.Empty(t, ok.Error)
	require.Len(t, ok.Children, 1)
	assert.Equal(t, "f.txt", ok.Children[0].Name)
	assert.Equal(t, KindFile, ok.Children[0].Kind)
	assert.Equal(t, "Docs/ok/f.txt", ok.Children[0].Path)
	require.NotNil(t, ok.Children[0].Size)
	assert.Equal(t, int64(1), *ok.Children[0].Size)
}

func TestCrawl_TransientListingRetried(t *testing.T) {
	l := newFakeLister()
	l.addFolder("Docs", "a")
	l.transient["Docs"] = 2

	c, rec := newTestCrawler(l)
	tree := c.Crawl(t.Context(), "Docs", Config{MaxDepth: 1})

	assert.Empty(t, tree.Error)
	assert.Len(t, tree.Children, 1)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestCrawl_TruncatesWideFolder(t *testing.T) {
	l := newFakeLister()
	for i := range 3 {
		l.addFolder("Docs", fmt.Sprintf("f%d", i))
	}
	for i := range 3 {
		l.addFile("Docs", fmt.Sprintf("file%d", i), 1)
	}

	c, _ := newTestCrawler(l)
	tree := c.Crawl(t.Context(), "Docs", Config{MaxDepth: 2, MaxItemsPerLevel: 4})

	assert.True(t, tree.Truncated)
	require.Len(t, tree.Children, 4)
	assert.Equal(t, KindFolder, tree.Children[2].Kind)
	assert.Equal(t, KindFile, tree.Children[3].Kind)
}

func TestCrawl_BatchDelayBetweenBatches(t *testing.T) {
	l := newFakeLister()
	l.addFolder("Docs", "a")
	l.addFolder("Docs", "b")
	for _, parent := range []string{"Docs/a", "Docs/b"} {
		l.addFolder(parent, "x")
		l.addFolder(parent, "y")
	}

	c, rec := newTestCrawler(l)
	cfg := Config{MaxDepth: 3, MaxItemsPerLevel: 2, LevelDelay: time.Second, BatchDelay: time.Millisecond}
	tree := c.Crawl(t.Context(), "Docs", cfg)

	// Level 3 holds four folders, listed in two batches of two.
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Millisecond}, rec.delays)
	assert.Equal(t, 7, tree.Summarize().Folders)
}

func TestCrawl_CanceledStopsDiscovery(t *testing.T) {
	l := newFakeLister()
	l.addFolder("Docs", "a")
	l.addFolder("Docs/a", "b")

	c, _ := newTestCrawler(l)
	c = c.WithSleep(func(context.Context, time.Duration) error { return context.Canceled })

	tree := c.Crawl(t.Context(), "Docs", Config{MaxDepth: 5, LevelDelay: time.Second})

	a := findChild(t, tree, "a")
	assert.Empty(t, a.Children)
	assert.Equal(t, []string{"Docs"}, l.listed)
}

func TestNode_MarshalJSON(t *testing.T) {
	size := int64(7)
	tree := Node{
		Name: "base",
		Path: "Docs/base",
		Kind: KindFolder,
		Children: []Node{
			{Name: "empty", Path: "Docs/base/empty", Kind: KindFolder},
			{Name: "f.txt", Path: "Docs/base/f.txt", Kind: KindFile, Size: &size},
		},
	}

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "folder", got["type"])

	children, ok := got["children"].([]any)
	require.True(t, ok)
	require.Len(t, children, 2)

	empty := children[0].(map[string]any)
	assert.Equal(t, []any{}, empty["children"])

	file := children[1].(map[string]any)
	assert.NotContains(t, file, "children")
	assert.InDelta(t, 7, file["size"], 0)
	assert.NotContains(t, file, "error")
}
