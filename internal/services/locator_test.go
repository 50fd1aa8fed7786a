package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hrkit/interview-analyzer/internal/models"
)

// fakeBlob is an in-memory BlobStorageService.
type fakeBlob struct {
	objects     map[string][]byte
	deleted     []string
	downloadErr *ServiceError
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: map[string][]byte{}}
}

func (f *fakeBlob) Upload(ctx context.Context, key string, content []byte) *ServiceError {
	f.objects[key] = content
	return nil
}

func (f *fakeBlob) Download(ctx context.Context, key string) ([]byte, *ServiceError) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, notFoundError(fmt.Sprintf("blob %q does not exist", key), nil)
	}
	return data, nil
}

func (f *fakeBlob) ListByPrefix(ctx context.Context, prefix string) ([]models.BlobFileInfo, *ServiceError) {
	var files []models.BlobFileInfo
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			files = append(files, models.BlobFileInfo{
				Name:        key,
				DisplayName: stripRolePrefix(key),
				Size:        int64(len(data)),
			})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (f *fakeBlob) Delete(ctx context.Context, key string) *ServiceError {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlob) Configured() bool { return true }

func newTestLocator(search *fakeSearch, blob BlobStorageService) DocumentLocatorService {
	logger := zap.NewNop().Sugar()
	indexing := newTestIndexingService(search, time.Millisecond)
	return NewDocumentLocatorService(search, indexing, blob, NewPDFParserService(), logger)
}

func TestLocateDocument_ExactStorageNameMatch(t *testing.T) {
	search := &fakeSearch{
		indexes: []string{"rag-1"},
		searchFn: func(index string, q SearchQuery) ([]SearchDocument, *ServiceError) {
			if len(q.SearchFields) == 1 && q.SearchFields[0] == FieldStorageName && q.Text == "resume_kim.pdf" {
				return []SearchDocument{{
					FieldStorageName: "resume_kim.pdf",
					"content":        "full resume text",
				}}, nil
			}
			return nil, nil
		},
	}
	locator := newTestLocator(search, newFakeBlob())

	text, serr := locator.LocateDocument(context.Background(), "kim.pdf", RolePrefixResume)

	require.Nil(t, serr)
	assert.Equal(t, "full resume text", text)
}

func TestLocateDocument_SubstringFallback(t *testing.T) {
	search := &fakeSearch{
		indexes: []string{"rag-1"},
		searchFn: func(index string, q SearchQuery) ([]SearchDocument, *ServiceError) {
			if len(q.SearchFields) > 0 {
				// The storage name carries an upload timestamp the caller
				// does not know, so the exact tier misses.
				return nil, nil
			}
			if q.Text == "kim.pdf" {
				return []SearchDocument{{
					FieldStorageName: "resume_20250811_kim.pdf",
					"chunk":          "timestamped resume text",
				}}, nil
			}
			return nil, nil
		},
	}
	locator := newTestLocator(search, newFakeBlob())

	text, serr := locator.LocateDocument(context.Background(), "kim.pdf", RolePrefixResume)

	require.Nil(t, serr)
	assert.Equal(t, "timestamped resume text", text)
}

func TestLocateDocument_TokenOverlapFallback(t *testing.T) {
	search := &fakeSearch{
		indexes: []string{"rag-1"},
		searchFn: func(index string, q SearchQuery) ([]SearchDocument, *ServiceError) {
			if q.Text != "*" {
				return nil, nil
			}
			return []SearchDocument{
				{FieldStorageName: "job_backend_engineer.pdf", "content": "job posting text"},
				{FieldStorageName: "resume_other.pdf", "content": "unrelated"},
			}, nil
		},
	}
	locator := newTestLocator(search, newFakeBlob())

	text, serr := locator.LocateDocument(context.Background(), "backend-engineer.pdf", RolePrefixJob)

	require.Nil(t, serr)
	assert.Equal(t, "job posting text", text)
}

func TestLocateDocument_BlobExtractionFallback(t *testing.T) {
	search := &fakeSearch{indexes: []string{"rag-1"}}
	blob := newFakeBlob()
	blob.objects["resume_kim.txt"] = []byte("  plain text resume  \n\ncontent\n")

	locator := newTestLocator(search, blob)

	text, serr := locator.LocateDocument(context.Background(), "kim.txt", RolePrefixResume)

	require.Nil(t, serr)
	assert.Contains(t, text, "plain text resume")
}

func TestLocateDocument_NotFoundCarriesAvailableNames(t *testing.T) {
	search := &fakeSearch{
		indexes: []string{"rag-1"},
		searchFn: func(index string, q SearchQuery) ([]SearchDocument, *ServiceError) {
			if q.Text != "*" {
				return nil, nil
			}
			return []SearchDocument{
				{FieldStorageName: "resume_lee.pdf", "content": "text"},
				{FieldStorageName: "job_frontend.pdf", "content": "text"},
			}, nil
		},
	}
	locator := newTestLocator(search, newFakeBlob())

	_, serr := locator.LocateDocument(context.Background(), "nonexistent.pdf", RolePrefixResume)

	require.NotNil(t, serr)
	assert.Equal(t, KindNotFound, serr.Kind)
	assert.Contains(t, serr.Available, "resume_lee.pdf")
	assert.Contains(t, serr.Available, "job_frontend.pdf")
}

func TestLocateDocument_SharedExtensionDoesNotMatch(t *testing.T) {
	search := &fakeSearch{
		indexes: []string{"rag-1"},
		searchFn: func(index string, q SearchQuery) ([]SearchDocument, *ServiceError) {
			if q.Text != "*" {
				return nil, nil
			}
			return []SearchDocument{
				{FieldStorageName: "resume_lee.pdf", "content": "lee's resume text"},
			}, nil
		},
	}
	locator := newTestLocator(search, newFakeBlob())

	// The only shared token between the query and the indexed document is
	// the ".pdf" extension, which must not count as a match.
	text, serr := locator.LocateDocument(context.Background(), "nonexistent.pdf", RolePrefixResume)

	require.NotNil(t, serr)
	assert.Equal(t, KindNotFound, serr.Kind)
	assert.Empty(t, text)
	assert.Contains(t, serr.Available, "resume_lee.pdf")
}

func TestFilenameTokens(t *testing.T) {
	tokens := filenameTokens("Kim_Backend-Engineer.v2.pdf")

	assert.Contains(t, tokens, "kim")
	assert.Contains(t, tokens, "backend")
	assert.Contains(t, tokens, "engineer")
	// The extension would overlap with every document of the same format.
	assert.NotContains(t, tokens, "pdf")
	// Short fragments are dropped.
	assert.NotContains(t, tokens, "v2")
}
