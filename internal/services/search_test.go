package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrkit/interview-analyzer/internal/config"
)

func newTestSearchService(handler http.Handler) (SearchService, *httptest.Server) {
	server := httptest.NewServer(handler)
	svc := NewSearchService(config.SearchConfig{
		Endpoint:   server.URL,
		APIKey:     "test-key",
		APIVersion: "2024-07-01",
	})
	return svc, server
}

func TestSearchService_NotConfigured(t *testing.T) {
	svc := NewSearchService(config.SearchConfig{})

	assert.False(t, svc.Configured())

	_, serr := svc.ListIndexes(context.Background())
	require.NotNil(t, serr)
	assert.Equal(t, KindConfig, serr.Kind)
}

func TestListIndexes(t *testing.T) {
	svc, server := newTestSearchService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		assert.Equal(t, "2024-07-01", r.URL.Query().Get("api-version"))

		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]string{
				{"name": "rag-1"},
				{"name": "rag-2"},
			},
		})
	}))
	defer server.Close()

	names, serr := svc.ListIndexes(context.Background())

	require.Nil(t, serr)
	assert.Equal(t, []string{"rag-1", "rag-2"}, names)
}

func TestSearchDocuments_BuildsRequestBody(t *testing.T) {
	var received map[string]any

	svc, server := newTestSearchService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/indexes/rag-1/docs/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{FieldStorageName: "resume_kim.pdf", "content": "resume text"},
			},
		})
	}))
	defer server.Close()

	docs, serr := svc.SearchDocuments(context.Background(), "rag-1", SearchQuery{
		Text:         "resume_kim.pdf",
		Top:          5,
		Select:       []string{FieldStorageName, "content"},
		SearchFields: []string{FieldStorageName},
	})

	require.Nil(t, serr)
	require.Len(t, docs, 1)
	assert.Equal(t, "resume_kim.pdf", docs[0].StorageName())
	assert.Equal(t, "resume text", docs[0].BestContent())

	assert.Equal(t, "resume_kim.pdf", received["search"])
	assert.Equal(t, float64(5), received["top"])
	assert.Equal(t, "metadata_storage_name,content", received["select"])
	assert.Equal(t, "metadata_storage_name", received["searchFields"])
}

func TestSearchService_NotFoundStatus(t *testing.T) {
	svc, server := newTestSearchService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, serr := svc.GetIndexSchema(context.Background(), "missing-index")

	require.NotNil(t, serr)
	assert.Equal(t, KindNotFound, serr.Kind)
}

func TestSearchService_ServerErrorIsTransient(t *testing.T) {
	svc, server := newTestSearchService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, serr := svc.ListIndexers(context.Background())

	require.NotNil(t, serr)
	assert.Equal(t, KindTransient, serr.Kind)
}

func TestRunIndexer(t *testing.T) {
	var called bool
	svc, server := newTestSearchService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/indexers/blob-indexer/run", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	serr := svc.RunIndexer(context.Background(), "blob-indexer")

	assert.Nil(t, serr)
	assert.True(t, called)
}

func TestBestContent_PrefersLongestField(t *testing.T) {
	doc := SearchDocument{
		"content": "short",
		"chunk":   "a much longer piece of extracted text",
		"body":    "",
	}

	assert.Equal(t, "a much longer piece of extracted text", doc.BestContent())
}

func TestBestContent_EmptyDocument(t *testing.T) {
	assert.Empty(t, SearchDocument{}.BestContent())
	assert.Empty(t, SearchDocument{"content": "   "}.BestContent())
}
