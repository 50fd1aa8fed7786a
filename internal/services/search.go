package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hrkit/interview-analyzer/internal/config"
)

const (
	// FieldStorageName is the index field holding the blob key a document
	// was ingested from.
	FieldStorageName = "metadata_storage_name"

	searchContentType = "application/json"
)

// ContentFieldCandidates are probed in order when extracting document text;
// different index versions name the text field differently.
var ContentFieldCandidates = []string{"content", "chunk", "text", "body"}

// SearchDocument is a raw document returned by the search service.
type SearchDocument map[string]any

// StorageName returns the document's storage-name field, if present.
func (d SearchDocument) StorageName() string {
	if v, ok := d[FieldStorageName].(string); ok {
		return v
	}
	return ""
}

// BestContent returns the longest non-empty text among the known
// content-bearing fields.
func (d SearchDocument) BestContent() string {
	best := ""
	for _, field := range ContentFieldCandidates {
		if v, ok := d[field].(string); ok && len(strings.TrimSpace(v)) > len(strings.TrimSpace(best)) {
			best = v
		}
	}
	return strings.TrimSpace(best)
}

type SearchQuery struct {
	Text         string
	Top          int
	Select       []string
	SearchFields []string
}

type IndexSchema struct {
	Name   string       `json:"name"`
	Fields []IndexField `json:"fields"`
}

type IndexField struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Searchable bool   `json:"searchable"`
}

type IndexerStatus struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	LastResult *struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"errorMessage"`
		StartTime    string `json:"startTime"`
		EndTime      string `json:"endTime"`
	} `json:"lastResult"`
}

type SearchService interface {
	ListIndexes(ctx context.Context) ([]string, *ServiceError)
	GetIndexSchema(ctx context.Context, index string) (*IndexSchema, *ServiceError)
	SearchDocuments(ctx context.Context, index string, q SearchQuery) ([]SearchDocument, *ServiceError)
	ListIndexers(ctx context.Context) ([]string, *ServiceError)
	RunIndexer(ctx context.Context, name string) *ServiceError
	GetIndexerStatus(ctx context.Context, name string) (*IndexerStatus, *ServiceError)
	Configured() bool
}

type searchService struct {
	endpoint   string
	apiKey     string
	apiVersion string
	httpClient *http.Client
}

func NewSearchService(cfg config.SearchConfig) SearchService {
	return &searchService{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *searchService) Configured() bool {
	return s.endpoint != ""
}

func (s *searchService) ListIndexes(ctx context.Context) ([]string, *ServiceError) {
	var response struct {
		Value []struct {
			Name string `json:"name"`
		} `json:"value"`
	}
	if serr := s.getJSON(ctx, "/indexes", &response); serr != nil {
		return nil, serr
	}

	names := make([]string, 0, len(response.Value))
	for _, idx := range response.Value {
		names = append(names, idx.Name)
	}
	return names, nil
}

func (s *searchService) GetIndexSchema(ctx context.Context, index string) (*IndexSchema, *ServiceError) {
	var schema IndexSchema
	if serr := s.getJSON(ctx, "/indexes/"+url.PathEscape(index), &schema); serr != nil {
		return nil, serr
	}
	return &schema, nil
}

func (s *searchService) SearchDocuments(ctx context.Context, index string, q SearchQuery) ([]SearchDocument, *ServiceError) {
	body := map[string]any{
		"search": q.Text,
	}
	if q.Top > 0 {
		body["top"] = q.Top
	}
	if len(q.Select) > 0 {
		body["select"] = strings.Join(q.Select, ",")
	}
	if len(q.SearchFields) > 0 {
		body["searchFields"] = strings.Join(q.SearchFields, ",")
	}

	var response struct {
		Value []SearchDocument `json:"value"`
	}
	path := "/indexes/" + url.PathEscape(index) + "/docs/search"
	if serr := s.postJSON(ctx, path, body, &response); serr != nil {
		return nil, serr
	}

	return response.Value, nil
}

func (s *searchService) ListIndexers(ctx context.Context) ([]string, *ServiceError) {
	var response struct {
		Value []struct {
			Name string `json:"name"`
		} `json:"value"`
	}
	if serr := s.getJSON(ctx, "/indexers", &response); serr != nil {
		return nil, serr
	}

	names := make([]string, 0, len(response.Value))
	for _, idxer := range response.Value {
		names = append(names, idxer.Name)
	}
	return names, nil
}

func (s *searchService) RunIndexer(ctx context.Context, name string) *ServiceError {
	return s.postJSON(ctx, "/indexers/"+url.PathEscape(name)+"/run", nil, nil)
}

func (s *searchService) GetIndexerStatus(ctx context.Context, name string) (*IndexerStatus, *ServiceError) {
	var status IndexerStatus
	if serr := s.getJSON(ctx, "/indexers/"+url.PathEscape(name)+"/status", &status); serr != nil {
		return nil, serr
	}
	status.Name = name
	return &status, nil
}

func (s *searchService) getJSON(ctx context.Context, path string, target any) *ServiceError {
	if !s.Configured() {
		return configError("search service is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+path, nil)
	if err != nil {
		return transientError("failed to build search request", err)
	}

	return s.do(req, target)
}

func (s *searchService) postJSON(ctx context.Context, path string, body any, target any) *ServiceError {
	if !s.Configured() {
		return configError("search service is not configured")
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return transientError("failed to encode search request", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+path, payload)
	if err != nil {
		return transientError("failed to build search request", err)
	}

	return s.do(req, target)
}

func (s *searchService) do(req *http.Request, target any) *ServiceError {
	req.Header.Set("Content-Type", searchContentType)
	req.Header.Set("api-key", s.apiKey)

	q := req.URL.Query()
	q.Set("api-version", s.apiVersion)
	req.URL.RawQuery = q.Encode()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return transientError("search request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transientError("failed to read search response", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return notFoundError(fmt.Sprintf("search resource not found: %s", req.URL.Path), nil)
	case resp.StatusCode >= 300:
		return transientError(fmt.Sprintf("search service returned %s", resp.Status), fmt.Errorf("%s", string(data)))
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return transientError("failed to decode search response", err)
	}

	return nil
}
