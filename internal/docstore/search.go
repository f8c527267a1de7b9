package docstore

import (
	"context"
	"log/slog"

	"github.com/tonimelisma/sharepoint-go/internal/retry"
)

// Search finds files and folders under the root whose name or content
// matches query. A zero limit means the configured default; limits above
// the configured maximum are rejected.
func (s *Service) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	settings := s.settings()

	maxLimit := settings.SearchMax
	if maxLimit <= 0 {
		maxLimit = defaultSearchMax
	}

	req := searchRequest{Query: query, Limit: limit}
	if err := req.validate(maxLimit); err != nil {
		return SearchResult{}, invalid(err)
	}

	if limit == 0 {
		limit = settings.SearchDefault
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	limit = min(limit, maxLimit)

	s.logger.Info("searching", slog.String("query", query), slog.Int("limit", limit))

	hits, err := retry.Do(ctx, s.exec, settings.Retry, "search", func(ctx context.Context) ([]map[string]string, error) {
		return s.remote.Search(ctx, query, limit)
	})
	if err != nil {
		return SearchResult{}, opError(OpSearch, query, err)
	}

	hits = nonNil(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	return SearchResult{Query: query, Count: len(hits), Results: hits}, nil
}
