// Package docstore implements the document library operations exposed by
// the tool server and the CLI. Every operation resolves caller-supplied
// paths under the configured library root, runs remote calls through the
// retry executor, and reports expected refusals (already exists, not
// empty, missing) as unsuccessful results rather than errors.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tonimelisma/sharepoint-go/internal/crawl"
	"github.com/tonimelisma/sharepoint-go/internal/extract"
	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/libpath"
	"github.com/tonimelisma/sharepoint-go/internal/persist"
	"github.com/tonimelisma/sharepoint-go/internal/retry"
)

// Operation names, as recorded in the journal and used in errors.
const (
	OpListFolders    = "list_folders"
	OpCreateFolder   = "create_folder"
	OpDeleteFolder   = "delete_folder"
	OpGetTree        = "get_tree"
	OpListDocuments  = "list_documents"
	OpSearch         = "search"
	OpGetContent     = "get_document_content"
	OpUpload         = "upload_document"
	OpUploadFromPath = "upload_document_from_path"
	OpUpdate         = "update_document"
	OpDelete         = "delete_document"
	OpDownload       = "download_document"
	OpGetMetadata    = "get_file_metadata"
	OpUpdateMetadata = "update_file_metadata"
)

const (
	defaultSearchLimit = 25
	defaultSearchMax   = 200
)

// Settings are the tunables read at the start of every call, so a config
// reload takes effect on the next operation.
type Settings struct {
	Crawl          crawl.Config
	Retry          retry.Policy
	SearchDefault  int
	SearchMax      int
	MaxInlineBytes int64 // 0 means no limit
}

// Options configure a Service. Remote and Root are required.
type Options struct {
	// Root is the library path every caller path is resolved under,
	// e.g. "Shared Documents/mcp_server".
	Root string

	// Settings is consulted per call. Nil means fixed defaults.
	Settings func() Settings

	Extractor    *extract.Extractor
	Persister    *persist.Persister
	Journal      Recorder
	CacheEntries int
	Logger       *slog.Logger

	// Sleep replaces every wait (retry backoff and crawl pacing). Tests
	// set it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Service is built once at startup and shared by every request. All of
// its fields are immutable after New; the content cache is internally
// synchronized.
type Service struct {
	remote    Remote
	root      string
	settings  func() Settings
	exec      *retry.Executor
	extractor *extract.Extractor
	persister *persist.Persister
	journal   Recorder
	cache     *lru.Cache[string, extract.Result]
	logger    *slog.Logger
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// DefaultSettings returns the built-in tunables with graph.IsTransient as
// the retry classifier.
func DefaultSettings() Settings {
	return Settings{
		Crawl:         crawl.DefaultConfig(),
		Retry:         retry.DefaultPolicy(graph.IsTransient),
		SearchDefault: defaultSearchLimit,
		SearchMax:     defaultSearchMax,
	}
}

// New creates a Service over remote.
func New(remote Remote, opts Options) (*Service, error) {
	if remote == nil {
		return nil, errors.New("docstore: remote is required")
	}

	root := strings.Trim(opts.Root, "/")
	if root == "" {
		return nil, errors.New("docstore: library root is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settings := opts.Settings
	if settings == nil {
		defaults := DefaultSettings()
		settings = func() Settings { return defaults }
	}

	exec := retry.New(logger)
	sleep := retry.Sleep

	if opts.Sleep != nil {
		exec = exec.WithSleep(opts.Sleep)
		sleep = opts.Sleep
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = extract.New(logger)
	}

	persister := opts.Persister
	if persister == nil {
		persister = persist.New("", logger)
	}

	s := &Service{
		remote:    remote,
		root:      root,
		settings:  settings,
		exec:      exec,
		extractor: extractor,
		persister: persister,
		journal:   opts.Journal,
		logger:    logger,
		sleepFunc: sleep,
	}

	if opts.CacheEntries > 0 {
		cache, err := lru.New[string, extract.Result](opts.CacheEntries)
		if err != nil {
			return nil, fmt.Errorf("docstore: creating content cache: %w", err)
		}

		s.cache = cache
	}

	return s, nil
}

// Root returns the library path all operations are scoped to.
func (s *Service) Root() string {
	return s.root
}

// resolve maps a caller sub-path to a library path under the root.
func (s *Service) resolve(sub string) (string, error) {
	p, err := libpath.Resolve(s.root, sub)
	if err != nil {
		return "", invalid(err)
	}

	return p, nil
}

// resolveFile maps a folder sub-path and a file name to a library path.
func (s *Service) resolveFile(folder, name string) (string, error) {
	dir, err := s.resolve(folder)
	if err != nil {
		return "", err
	}

	p, err := libpath.Join(dir, name)
	if err != nil {
		return "", invalid(err)
	}

	return p, nil
}

// fileExists is the unretried existence check that precedes update,
// delete, and download. A missing file is (false, nil).
func (s *Service) fileExists(ctx context.Context, op, p string) (graph.FileEntry, bool, error) {
	entry, err := s.remote.GetFile(ctx, p)
	if err == nil {
		return entry, true, nil
	}

	if errors.Is(err, graph.ErrNotFound) {
		return graph.FileEntry{}, false, nil
	}

	return graph.FileEntry{}, false, opError(op, p, err)
}

// record writes a journal entry. Journal failures are logged, never
// returned: the remote operation has already happened.
func (s *Service) record(ctx context.Context, op, p string, success bool, message string) {
	if s.journal == nil {
		return
	}

	if err := s.journal.Record(context.WithoutCancel(ctx), op, p, success, message); err != nil {
		s.logger.Warn("failed to record operation",
			slog.String("op", op),
			slog.String("path", p),
			slog.String("error", err.Error()),
		)
	}
}

// listFolders and friends run a Remote call under the current retry
// policy.
func (s *Service) listFolders(ctx context.Context, policy retry.Policy, p string) ([]graph.FolderEntry, error) {
	return retry.Do(ctx, s.exec, policy, "list folders", func(ctx context.Context) ([]graph.FolderEntry, error) {
		return s.remote.ListFolders(ctx, p)
	})
}

func (s *Service) listFiles(ctx context.Context, policy retry.Policy, p string) ([]graph.FileEntry, error) {
	return retry.Do(ctx, s.exec, policy, "list files", func(ctx context.Context) ([]graph.FileEntry, error) {
		return s.remote.ListFiles(ctx, p)
	})
}

func (s *Service) getBytes(ctx context.Context, policy retry.Policy, p string) ([]byte, error) {
	return retry.Do(ctx, s.exec, policy, "download", func(ctx context.Context) ([]byte, error) {
		return s.remote.GetFileBytes(ctx, p)
	})
}

func (s *Service) putBytes(ctx context.Context, policy retry.Policy, p string, data []byte) (graph.UploadedFile, error) {
	return retry.Do(ctx, s.exec, policy, "upload", func(ctx context.Context) (graph.UploadedFile, error) {
		return s.remote.PutFileBytes(ctx, p, data)
	})
}

func (s *Service) deleteObject(ctx context.Context, policy retry.Policy, p string) error {
	return retry.Exec(ctx, s.exec, policy, "delete", func(ctx context.Context) error {
		return s.remote.DeleteObject(ctx, p)
	})
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}

	return v
}
