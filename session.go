package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tonimelisma/sharepoint-go/internal/config"
	"github.com/tonimelisma/sharepoint-go/internal/crawl"
	"github.com/tonimelisma/sharepoint-go/internal/docstore"
	"github.com/tonimelisma/sharepoint-go/internal/extract"
	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/journal"
	"github.com/tonimelisma/sharepoint-go/internal/persist"
)

// openRemote connects to the configured document library. Tests replace it
// with an in-memory library.
var openRemote = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docstore.Remote, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Network.TimeoutDuration()}

	// The token source outlives this call, so it gets a background context.
	ts := graph.NewAppTokenSource(context.Background(), graph.AppCredentials{
		TenantID:     cfg.SharePoint.TenantID,
		ClientID:     cfg.SharePoint.ClientID,
		ClientSecret: cfg.SharePoint.ClientSecret,
	}, httpClient, logger)

	client := graph.NewClient(graph.DefaultBaseURL, httpClient, ts, logger, cfg.Network.UserAgent)

	lib, err := graph.OpenLibrary(ctx, client, cfg.SharePoint.SiteURL, cfg.SharePoint.DocLibrary)
	if err != nil {
		return nil, fmt.Errorf("opening document library: %w", err)
	}

	return lib, nil
}

// Session is the per-invocation service wiring: the document service plus
// the resources that must be released when the command finishes.
type Session struct {
	Service *docstore.Service
	Journal *journal.Journal // nil when the journal is disabled or failed to open
}

// Close releases the journal database.
func (s *Session) Close() {
	if s.Journal != nil {
		s.Journal.Close()
	}
}

// newSession builds the document service from cc's live configuration.
// A journal that cannot be opened is logged and skipped; recording is
// best-effort and must not block library access.
func newSession(ctx context.Context, cc *CLIContext) (*Session, error) {
	cfg := cc.Cfg.Config()
	logger := cc.Logger

	remote, err := openRemote(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	sess := &Session{}

	opts := docstore.Options{
		Root:         cfg.SharePoint.DocLibrary,
		Settings:     func() docstore.Settings { return serviceSettings(cc.Cfg.Config()) },
		Extractor:    extract.New(logger),
		Persister:    persist.New(cfg.Download.FallbackDir, logger),
		CacheEntries: cfg.Content.CacheEntries,
		Logger:       logger,
	}

	if cfg.Journal.Enabled {
		j, jErr := openJournal(ctx, cfg, logger)
		if jErr != nil {
			logger.Warn("operation journal unavailable", slog.String("error", jErr.Error()))
		} else {
			sess.Journal = j
			opts.Journal = j
		}
	}

	svc, err := docstore.New(remote, opts)
	if err != nil {
		sess.Close()
		return nil, err
	}

	sess.Service = svc

	logger.Debug("session ready",
		slog.String("library", svc.Root()),
		slog.Bool("journal", sess.Journal != nil),
	)

	return sess, nil
}

func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*journal.Journal, error) {
	path := cfg.JournalPath()
	if path == "" {
		return nil, fmt.Errorf("cannot determine journal path")
	}

	return journal.Open(ctx, path, logger)
}

// serviceSettings maps configuration onto the tunables docstore reads per
// call. It is evaluated on every operation so config reloads apply to the
// next request.
func serviceSettings(cfg *config.Config) docstore.Settings {
	s := docstore.DefaultSettings()

	s.Crawl = crawl.Config{
		MaxDepth:         cfg.Crawl.MaxDepth,
		MaxItemsPerLevel: cfg.Crawl.MaxItemsPerLevel,
		LevelDelay:       cfg.Crawl.LevelDelayDuration(),
		BatchDelay:       cfg.Crawl.BatchDelayDuration(),
	}

	s.Retry.MaxAttempts = cfg.Retry.MaxAttempts
	s.Retry.BaseDelay = cfg.Retry.BaseDelayDuration()
	s.Retry.MaxDelay = cfg.Retry.MaxDelayDuration()
	s.Retry.Multiplier = cfg.Retry.Multiplier

	s.SearchDefault = cfg.Search.DefaultLimit
	s.SearchMax = cfg.Search.MaxLimit
	s.MaxInlineBytes = cfg.Content.MaxInlineBytes()

	return s
}
