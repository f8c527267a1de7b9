// Package crawl reconstructs a folder hierarchy from a remote store that
// only lists one level at a time. Discovery is a level-synchronous
// breadth-first walk paced by configurable delays; nodes land in a flat
// arena keyed by path, and a separate linking pass assembles the nested
// tree afterwards.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/libpath"
	"github.com/tonimelisma/sharepoint-go/internal/retry"
)

// Default bounds, used when a Config field is zero.
const (
	DefaultMaxDepth         = 15
	DefaultMaxItemsPerLevel = 100
	DefaultLevelDelay       = 500 * time.Millisecond
	DefaultBatchDelay       = 100 * time.Millisecond
)

// rootErrorMessage is the error recorded on a root that cannot be read.
const rootErrorMessage = "Could not access folder"

// Lister is the slice of the remote store the crawler needs.
type Lister interface {
	GetFolder(ctx context.Context, path string) (graph.FolderEntry, error)
	ListFolders(ctx context.Context, path string) ([]graph.FolderEntry, error)
	ListFiles(ctx context.Context, path string) ([]graph.FileEntry, error)
}

// Config bounds and paces a crawl. It is passed by value and never
// modified.
type Config struct {
	MaxDepth         int
	MaxItemsPerLevel int
	LevelDelay       time.Duration
	BatchDelay       time.Duration
}

// DefaultConfig returns the standard bounds.
func DefaultConfig() Config {
	return Config{
		MaxDepth:         DefaultMaxDepth,
		MaxItemsPerLevel: DefaultMaxItemsPerLevel,
		LevelDelay:       DefaultLevelDelay,
		BatchDelay:       DefaultBatchDelay,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}

	if c.MaxItemsPerLevel <= 0 {
		c.MaxItemsPerLevel = DefaultMaxItemsPerLevel
	}

	return c
}

// Crawler walks a remote tree. It holds no per-crawl state, so one Crawler
// can serve concurrent crawls.
type Crawler struct {
	lister Lister
	exec   *retry.Executor
	policy retry.Policy
	logger *slog.Logger

	// sleepFunc paces batches and levels. Tests override this to avoid
	// real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// New creates a Crawler that lists through lister, retrying each listing
// under policy.
func New(lister Lister, exec *retry.Executor, policy retry.Policy, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Crawler{
		lister:    lister,
		exec:      exec,
		policy:    policy,
		logger:    logger,
		sleepFunc: retry.Sleep,
	}
}

// WithSleep returns a copy of c that paces with fn.
func (c *Crawler) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Crawler {
	cp := *c
	cp.sleepFunc = fn

	return &cp
}

// arena is the flat discovery state of one crawl: every node seen so far,
// keyed by path, plus each folder's ordered child paths.
type arena struct {
	nodes    map[string]*Node
	children map[string][]string
}

func newArena() *arena {
	return &arena{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
	}
}

// Crawl enumerates the tree under root and returns it fully assembled.
// It never fails: an unreadable root yields a single error stub, and an
// unreadable folder below it becomes an error stub while the crawl goes on.
// A canceled context stops discovery early; folders not yet listed are
// returned without children.
func (c *Crawler) Crawl(ctx context.Context, root string, cfg Config) Node {
	cfg = cfg.withDefaults()

	rootEntry, err := retry.Do(ctx, c.exec, c.policy, "get root folder", func(ctx context.Context) (graph.FolderEntry, error) {
		return c.lister.GetFolder(ctx, root)
	})
	if err != nil {
		c.logger.Error("cannot access root folder",
			slog.String("path", root),
			slog.String("error", err.Error()),
		)

		return Node{
			Name:  libpath.Base(root),
			Path:  root,
			Kind:  KindFolder,
			Error: rootErrorMessage,
		}
	}

	a := newArena()
	a.nodes[root] = &Node{
		Name:       nameOr(rootEntry.Name, libpath.Base(root)),
		Path:       root,
		URL:        rootEntry.URL,
		Kind:       KindFolder,
		CreatedAt:  rootEntry.Created,
		ModifiedAt: rootEntry.Modified,
	}

	c.discover(ctx, a, root, cfg)

	tree := a.link(root)

	stats := tree.Summarize()
	c.logger.Info("tree built",
		slog.String("root", root),
		slog.Int("folders", stats.Folders),
		slog.Int("files", stats.Files),
		slog.Int("errors", stats.Errors),
		slog.Int("depth", stats.MaxDepth),
	)

	return tree
}

// discover runs the level-synchronous BFS, filling the arena.
func (c *Crawler) discover(ctx context.Context, a *arena, root string, cfg Config) {
	pending := []string{root}

	for level := 0; level < cfg.MaxDepth; level++ {
		if len(pending) == 0 {
			return
		}

		c.logger.Debug("tree level",
			slog.Int("level", level+1),
			slog.Int("folders", len(pending)),
		)

		var next []string

		for start := 0; start < len(pending); start += cfg.MaxItemsPerLevel {
			if start > 0 && !c.pause(ctx, cfg.BatchDelay) {
				return
			}

			end := min(start+cfg.MaxItemsPerLevel, len(pending))
			for _, p := range pending[start:end] {
				if ctx.Err() != nil {
					return
				}

				next = append(next, c.expand(ctx, a, p, cfg.MaxItemsPerLevel)...)
			}
		}

		pending = next

		if level < cfg.MaxDepth-1 && len(pending) > 0 && !c.pause(ctx, cfg.LevelDelay) {
			return
		}
	}
}

// pause sleeps for d and reports whether the crawl should go on.
func (c *Crawler) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	if err := c.sleepFunc(ctx, d); err != nil {
		c.logger.Warn("crawl interrupted", slog.String("error", err.Error()))
		return false
	}

	return true
}

// expand lists one folder and records its children in the arena. It
// returns the child folder paths to visit at the next level. Any listing
// failure turns the folder into an error stub.
func (c *Crawler) expand(ctx context.Context, a *arena, p string, limit int) []string {
	node := a.nodes[p]

	folders, err := retry.Do(ctx, c.exec, c.policy, "list folders", func(ctx context.Context) ([]graph.FolderEntry, error) {
		return c.lister.ListFolders(ctx, p)
	})
	if err != nil {
		c.fail(node, err)
		return nil
	}

	files, err := retry.Do(ctx, c.exec, c.policy, "list files", func(ctx context.Context) ([]graph.FileEntry, error) {
		return c.lister.ListFiles(ctx, p)
	})
	if err != nil {
		c.fail(node, err)
		return nil
	}

	if len(folders)+len(files) > limit {
		c.logger.Warn("folder exceeds per-level cap, truncating",
			slog.String("path", p),
			slog.Int("entries", len(folders)+len(files)),
			slog.Int("cap", limit),
		)

		node.Truncated = true

		if len(folders) > limit {
			folders = folders[:limit]
		}

		files = files[:min(len(files), limit-len(folders))]
	}

	childPaths := make([]string, 0, len(folders)+len(files))
	next := make([]string, 0, len(folders))

	for i := range folders {
		f := &folders[i]
		cp := childPath(p, f.Name)

		a.nodes[cp] = &Node{
			Name:       f.Name,
			Path:       cp,
			URL:        f.URL,
			Kind:       KindFolder,
			CreatedAt:  f.Created,
			ModifiedAt: f.Modified,
		}
		childPaths = append(childPaths, cp)
		next = append(next, cp)
	}

	for i := range files {
		f := &files[i]
		cp := childPath(p, f.Name)
		size := f.Size

		a.nodes[cp] = &Node{
			Name:       f.Name,
			Path:       cp,
			URL:        f.URL,
			Kind:       KindFile,
			CreatedAt:  f.Created,
			ModifiedAt: f.Modified,
			Size:       &size,
		}
		childPaths = append(childPaths, cp)
	}

	a.children[p] = childPaths

	return next
}

func (c *Crawler) fail(node *Node, err error) {
	c.logger.Warn("failed to process folder",
		slog.String("path", node.Path),
		slog.String("error", err.Error()),
	)

	node.Error = fmt.Sprintf("%s: %v", rootErrorMessage, err)
	node.Truncated = false
}

// link assembles the nested tree under p from the arena. Recursion depth
// is bounded by the crawl's MaxDepth.
func (a *arena) link(p string) Node {
	n := *a.nodes[p]
	if n.Kind != KindFolder || n.Error != "" {
		return n
	}

	kids := a.children[p]
	if len(kids) == 0 {
		return n
	}

	n.Children = make([]Node, 0, len(kids))
	for _, cp := range kids {
		n.Children = append(n.Children, a.link(cp))
	}

	return n
}

func childPath(parent, name string) string {
	p, err := libpath.Join(parent, name)
	if err != nil {
		return parent + "/" + name
	}

	return p
}

func nameOr(name, fallback string) string {
	if name == "" || name == "root" {
		return fallback
	}

	return name
}
