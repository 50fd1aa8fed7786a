package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"
)

// DocumentLocatorService resolves a logical filename to the indexed document
// text, trying progressively looser strategies before giving up.
type DocumentLocatorService interface {
	LocateDocument(ctx context.Context, logicalFilename, rolePrefix string) (string, *ServiceError)
}

type documentLocatorService struct {
	search    SearchService
	indexing  IndexingService
	blob      BlobStorageService
	pdfParser PDFParserService
	logger    *zap.SugaredLogger
}

func NewDocumentLocatorService(
	search SearchService,
	indexing IndexingService,
	blob BlobStorageService,
	pdfParser PDFParserService,
	logger *zap.SugaredLogger,
) DocumentLocatorService {
	return &documentLocatorService{
		search:    search,
		indexing:  indexing,
		blob:      blob,
		pdfParser: pdfParser,
		logger:    logger,
	}
}

var locatorSelectFields = append([]string{FieldStorageName}, ContentFieldCandidates...)

func (l *documentLocatorService) LocateDocument(ctx context.Context, logicalFilename, rolePrefix string) (string, *ServiceError) {
	// The active index is resolved once per flow, never cached on the service.
	index := l.indexing.SelectActiveIndex(ctx)
	key := RoleKey(rolePrefix, logicalFilename)

	l.logger.Infof("🔍 Locating document %q in index %s", key, index)

	// Tier 1: exact storage-name match.
	docs, serr := l.search.SearchDocuments(ctx, index, SearchQuery{
		Text:         key,
		Top:          1,
		Select:       locatorSelectFields,
		SearchFields: []string{FieldStorageName},
	})
	if serr == nil {
		for _, doc := range docs {
			if content := doc.BestContent(); content != "" {
				return content, nil
			}
		}
	}

	// Tier 2: full-text query on the filename, accepting substring matches
	// of the storage name (covers tokenization differences).
	docs, serr = l.search.SearchDocuments(ctx, index, SearchQuery{
		Text:   logicalFilename,
		Top:    5,
		Select: locatorSelectFields,
	})
	if serr == nil {
		for _, doc := range docs {
			if strings.Contains(doc.StorageName(), logicalFilename) {
				if content := doc.BestContent(); content != "" {
					l.logger.Infof("✅ Located %q via substring match: %s", key, doc.StorageName())
					return content, nil
				}
			}
		}
	}

	// Tier 3: broad unranked listing, filtered client-side by token overlap.
	var available []string
	docs, serr = l.search.SearchDocuments(ctx, index, SearchQuery{
		Text:   "*",
		Top:    50,
		Select: locatorSelectFields,
	})
	if serr == nil {
		tokens := filenameTokens(logicalFilename)
		for _, doc := range docs {
			name := doc.StorageName()
			if name != "" {
				available = append(available, name)
			}
			if tokensOverlap(tokens, name) {
				if content := doc.BestContent(); content != "" {
					l.logger.Infof("✅ Located %q via token overlap: %s", key, name)
					return content, nil
				}
			}
		}
	}

	// Tier 4: the index may simply be lagging; read the blob directly and
	// extract text locally.
	if content, ok := l.extractFromBlob(ctx, key); ok {
		l.logger.Infof("✅ Located %q by direct blob extraction", key)
		return content, nil
	}

	l.logger.Warnf("❌ Document %q not found (%d documents in index)", key, len(available))
	return "", notFoundError(
		fmt.Sprintf("document %q was not found in the search index (it may still be indexing)", key),
		available,
	)
}

func (l *documentLocatorService) extractFromBlob(ctx context.Context, key string) (string, bool) {
	data, serr := l.blob.Download(ctx, key)
	if serr != nil {
		return "", false
	}

	lower := strings.ToLower(key)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		text, err := l.pdfParser.ExtractTextFromBytes(data)
		if err != nil {
			l.logger.Debugf("blob PDF extraction failed for %q: %v", key, err)
			return "", false
		}
		return text, true
	case strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md"):
		text := CleanText(string(data))
		return text, text != ""
	default:
		return "", false
	}
}

// filenameTokens splits a filename on common separators and keeps tokens
// longer than two characters. The extension is dropped first: it is shared
// by every document of the same format and would match anything.
func filenameTokens(filename string) []string {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	parts := strings.FieldsFunc(base, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == ' '
	})

	var tokens []string
	for _, p := range parts {
		if len(p) > 2 {
			tokens = append(tokens, strings.ToLower(p))
		}
	}
	return tokens
}

func tokensOverlap(tokens []string, candidate string) bool {
	if candidate == "" {
		return false
	}
	lower := strings.ToLower(candidate)
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
