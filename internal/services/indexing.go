package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"hrkit/interview-analyzer/internal/config"
)

// IndexingService owns the coordination that makes the eventually-consistent
// search index usable from a synchronous request: discover the active index,
// force the backing indexers to run now, and poll until a just-uploaded blob
// becomes queryable.
type IndexingService interface {
	// SelectActiveIndex picks the current index by prefix and name order,
	// falling back to the configured default. It never fails.
	SelectActiveIndex(ctx context.Context) string
	// RunIndexingJobs enumerates the registered indexers and issues a
	// run-now command to each, collecting per-job start outcomes.
	RunIndexingJobs(ctx context.Context) (map[string]string, *ServiceError)
	// WaitUntilIndexed polls until a document with the given storage key has
	// non-empty content, or the timeout budget is exhausted.
	WaitUntilIndexed(ctx context.Context, index, blobKey string, timeout time.Duration) bool
}

type indexingService struct {
	search       SearchService
	prefix       string
	fallback     string
	pollInterval time.Duration
	logger       *zap.SugaredLogger
}

func NewIndexingService(search SearchService, cfg config.SearchConfig, indexing config.IndexingConfig, logger *zap.SugaredLogger) IndexingService {
	interval := indexing.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &indexingService{
		search:       search,
		prefix:       cfg.IndexPrefix,
		fallback:     cfg.FallbackIndex,
		pollInterval: interval,
		logger:       logger,
	}
}

func (s *indexingService) SelectActiveIndex(ctx context.Context) string {
	names, serr := s.search.ListIndexes(ctx)
	if serr != nil {
		s.logger.Warnf("⚠️ Index discovery failed, using fallback %q: %v", s.fallback, serr)
		return s.fallback
	}

	var candidates []string
	for _, name := range names {
		if strings.HasPrefix(name, s.prefix) {
			candidates = append(candidates, name)
		}
	}

	if len(candidates) == 0 {
		s.logger.Warnf("⚠️ No index matches prefix %q, using fallback %q", s.prefix, s.fallback)
		return s.fallback
	}

	sort.Slice(candidates, func(i, j int) bool {
		return lessIndexName(candidates[i], candidates[j], s.prefix)
	})
	active := candidates[len(candidates)-1]

	s.logger.Infof("✅ Active search index: %s", active)
	return active
}

// lessIndexName orders index names by numeric suffix when both carry one, so
// that "rag-10" outranks "rag-9" even without zero padding.
func lessIndexName(a, b, prefix string) bool {
	sa := strings.TrimPrefix(a, prefix)
	sb := strings.TrimPrefix(b, prefix)

	if isAllDigits(sa) && isAllDigits(sb) {
		sa = strings.TrimLeft(sa, "0")
		sb = strings.TrimLeft(sb, "0")
		if len(sa) != len(sb) {
			return len(sa) < len(sb)
		}
	}
	return sa < sb
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *indexingService) RunIndexingJobs(ctx context.Context) (map[string]string, *ServiceError) {
	indexers, serr := s.search.ListIndexers(ctx)
	if serr != nil {
		return nil, serr
	}

	outcomes := make(map[string]string, len(indexers))
	for _, name := range indexers {
		if runErr := s.search.RunIndexer(ctx, name); runErr != nil {
			s.logger.Warnf("⚠️ Failed to start indexer %s: %v", name, runErr)
			outcomes[name] = "error: " + runErr.Message
			continue
		}
		s.logger.Infof("🔄 Indexer %s started", name)
		outcomes[name] = "started"
	}

	return outcomes, nil
}

func (s *indexingService) WaitUntilIndexed(ctx context.Context, index, blobKey string, timeout time.Duration) bool {
	attempts := int(timeout / s.pollInterval)
	if attempts < 1 {
		attempts = 1
	}

	query := s.readinessQuery(ctx, index, blobKey)

	s.logger.Infof("⏳ Waiting for %q to appear in index %s (budget %d attempts)", blobKey, index, attempts)

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(s.pollInterval):
			}
		}

		docs, serr := s.search.SearchDocuments(ctx, index, query)
		if serr != nil {
			// Transient query failures count as "not yet ready" and must not
			// shorten the deadline.
			s.logger.Debugf("poll attempt %d failed: %v", attempt+1, serr)
			continue
		}

		for _, doc := range docs {
			// A hit with empty content is a partially-ingested document.
			if doc.BestContent() != "" {
				s.logger.Infof("✅ %q is indexed and queryable", blobKey)
				return true
			}
		}
	}

	s.logger.Warnf("⚠️ %q not indexed within %s", blobKey, timeout)
	return false
}

// readinessQuery prefers an exact storage-name lookup; if the schema cannot
// be introspected it degrades to a loose full-text query on the raw key.
func (s *indexingService) readinessQuery(ctx context.Context, index, blobKey string) SearchQuery {
	schema, serr := s.search.GetIndexSchema(ctx, index)
	if serr != nil || !schemaHasField(schema, FieldStorageName) {
		return SearchQuery{
			Text:   blobKey,
			Top:    1,
			Select: ContentFieldCandidates[:2],
		}
	}

	return SearchQuery{
		Text:         blobKey,
		Top:          1,
		Select:       ContentFieldCandidates[:2],
		SearchFields: []string{FieldStorageName},
	}
}

func schemaHasField(schema *IndexSchema, field string) bool {
	if schema == nil {
		return false
	}
	for _, f := range schema.Fields {
		if f.Name == field {
			return true
		}
	}
	return false
}
