package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

func TestStoreUpsertRequestShape(t *testing.T) {
	var captured map[string]any
	var apiKey string
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPut {
			t.Fatalf("method: want=%s got=%s", http.MethodPut, r.Method)
		}
		if r.URL.Path != "/collections/examples/points" {
			t.Fatalf("path: want=%q got=%q", "/collections/examples/points", r.URL.Path)
		}
		if r.URL.RawQuery != "wait=true" {
			t.Fatalf("query: want=%q got=%q", "wait=true", r.URL.RawQuery)
		}
		apiKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, map[string]any{"status": "acknowledged"}), nil
	})
	s.cfg.APIKey = "k-123"

	payload := map[string]any{"title": "Digest"}
	err := s.Upsert(context.Background(), []Point{
		{ID: "daily-digest", Vector: []float32{1, 2, 3}, Payload: payload},
		{ID: "lead-router", Vector: []float32{4, 5, 6}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if apiKey != "k-123" {
		t.Fatalf("api-key header: want=%q got=%q", "k-123", apiKey)
	}

	pointsRaw, ok := captured["points"].([]any)
	if !ok {
		t.Fatalf("points type: got=%T", captured["points"])
	}
	if len(pointsRaw) != 2 {
		t.Fatalf("points length: want=2 got=%d", len(pointsRaw))
	}
	first, ok := pointsRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("point[0] type: got=%T", pointsRaw[0])
	}
	if first["id"] != s.PointID("daily-digest") {
		t.Fatalf("point id mismatch: got=%v", first["id"])
	}
	gotPayload, ok := first["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload type: got=%T", first["payload"])
	}
	if gotPayload[payloadSourceIDKey] != "daily-digest" {
		t.Fatalf("payload source id: want=%q got=%v", "daily-digest", gotPayload[payloadSourceIDKey])
	}
	if gotPayload["title"] != "Digest" {
		t.Fatalf("payload title: want=%q got=%v", "Digest", gotPayload["title"])
	}
	if _, exists := payload[payloadSourceIDKey]; exists {
		t.Fatalf("input payload mutated: source id key should not exist")
	}
}

func TestStoreUpsertRejectsDimensionMismatch(t *testing.T) {
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request to %s", r.URL.Path)
		return nil, nil
	})
	err := s.Upsert(context.Background(), []Point{{ID: "x", Vector: []float32{1, 2}}})
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorValidation {
		t.Fatalf("want validation error, got=%v", err)
	}
}

func TestStorePointIDIsDeterministic(t *testing.T) {
	s := newTestStore(t, nil)
	if s.PointID("a") != s.PointID("a") {
		t.Fatalf("PointID not deterministic")
	}
	if s.PointID("a") == s.PointID("b") {
		t.Fatalf("PointID collision for distinct ids")
	}
}

func TestStoreSearchDecodesHitsInScoreOrder(t *testing.T) {
	var captured map[string]any
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost {
			t.Fatalf("method: want=%s got=%s", http.MethodPost, r.Method)
		}
		if r.URL.Path != "/collections/examples/points/search" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, []map[string]any{
			{"id": "p-2", "score": 0.4, "payload": map[string]any{payloadSourceIDKey: "second", "title": "B"}},
			{"id": "p-1", "score": 0.9, "payload": map[string]any{payloadSourceIDKey: "first", "title": "A"}},
			{"id": 7, "score": 0.1, "payload": map[string]any{"title": "C"}},
		}), nil
	})

	hits, err := s.Search(context.Background(), []float32{0.1, 0.2, 0.3}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if captured["limit"] != float64(3) {
		t.Fatalf("limit: want=3 got=%v", captured["limit"])
	}
	if captured["with_payload"] != true {
		t.Fatalf("with_payload: want=true got=%v", captured["with_payload"])
	}
	if len(hits) != 3 {
		t.Fatalf("hits: want=3 got=%d", len(hits))
	}
	if hits[0].ID != "first" || hits[1].ID != "second" || hits[2].ID != "7" {
		t.Fatalf("order: got=%q,%q,%q", hits[0].ID, hits[1].ID, hits[2].ID)
	}
	if _, ok := hits[0].Payload[payloadSourceIDKey]; ok {
		t.Fatalf("source id key should be stripped from payload")
	}
	if hits[0].Payload["title"] != "A" {
		t.Fatalf("payload title: want=A got=%v", hits[0].Payload["title"])
	}
}

func TestStoreSearchNormalizesEuclidScores(t *testing.T) {
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		return okResponse(t, []map[string]any{
			{"id": "a", "score": 1.0, "payload": map[string]any{}},
		}), nil
	})
	s.distance = "Euclid"
	hits, err := s.Search(context.Background(), []float32{1, 1, 1}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Score != 0.5 {
		t.Fatalf("score: want=0.5 got=%v", hits)
	}
}

func TestStoreRecreateCollectionIgnoresMissing(t *testing.T) {
	var calls []string
	var created map[string]any
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		calls = append(calls, r.Method)
		switch r.Method {
		case http.MethodDelete:
			return rawResponse(http.StatusNotFound, `{"status":{"error":"Not found"}}`), nil
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			return okResponse(t, true), nil
		}
		t.Fatalf("unexpected method %s", r.Method)
		return nil, nil
	})

	if err := s.RecreateCollection(context.Background()); err != nil {
		t.Fatalf("RecreateCollection: %v", err)
	}
	if len(calls) != 2 || calls[0] != http.MethodDelete || calls[1] != http.MethodPut {
		t.Fatalf("calls: got=%v", calls)
	}
	vectors, _ := created["vectors"].(map[string]any)
	if vectors["size"] != float64(3) || vectors["distance"] != "Cosine" {
		t.Fatalf("vectors config: got=%v", vectors)
	}
}

func TestStoreRecreateCollectionSurfacesDeleteFailure(t *testing.T) {
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		return rawResponse(http.StatusInternalServerError, `{"status":{"error":"boom"}}`), nil
	})
	err := s.RecreateCollection(context.Background())
	if err == nil || IsNotFound(err) {
		t.Fatalf("want non-404 error, got=%v", err)
	}
}

func TestStoreVerifyReadyDetectsDimensionMismatch(t *testing.T) {
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path == "/readyz" {
			return rawResponse(http.StatusOK, "all shards are ready"), nil
		}
		return okResponse(t, map[string]any{
			"config": map[string]any{
				"params": map[string]any{
					"vectors": map[string]any{"size": 1536, "distance": "Cosine"},
				},
			},
		}), nil
	})
	err := s.VerifyReady(context.Background())
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorValidation {
		t.Fatalf("want validation error, got=%v", err)
	}
}

func TestStoreEnvelopeStatusError(t *testing.T) {
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		return rawResponse(http.StatusOK, `{"result":null,"status":{"error":"bad vector"}}`), nil
	})
	_, err := s.Search(context.Background(), []float32{1, 2, 3}, 1)
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorQueryFailed {
		t.Fatalf("want query_failed, got=%v", err)
	}
	if oe.Message != "bad vector" {
		t.Fatalf("message: want=%q got=%q", "bad vector", oe.Message)
	}
}

func TestNewStoreValidatesConfig(t *testing.T) {
	if _, err := NewStore(logger.Nop(), Config{URL: "nope", Collection: "c", VectorDim: 3}); err == nil {
		t.Fatalf("expected config error")
	}
	s, err := NewStore(logger.Nop(), Config{URL: "http://q:6333/", Collection: "c", VectorDim: 3})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.baseURL != "http://q:6333" {
		t.Fatalf("baseURL: want trailing slash trimmed, got=%q", s.baseURL)
	}
}

func TestClassifyHTTPCallErrorTimeout(t *testing.T) {
	err := classifyHTTPCallError("search", "timeout", context.DeadlineExceeded)
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got=%T", err)
	}
	if opErr.Code != OperationErrorTimeout {
		t.Fatalf("error code: want=%q got=%q", OperationErrorTimeout, opErr.Code)
	}
}

func TestClassifyHTTPCallErrorTransport(t *testing.T) {
	err := classifyHTTPCallError("search", "transport", fmt.Errorf("boom"))
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got=%T", err)
	}
	if opErr.Code != OperationErrorTransportFailed {
		t.Fatalf("error code: want=%q got=%q", OperationErrorTransportFailed, opErr.Code)
	}
}

func newTestStore(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *Store {
	t.Helper()
	client := &http.Client{
		Transport: roundTripFunc(roundTrip),
	}
	return &Store{
		log:      newTestLogger(t),
		cfg:      Config{Collection: "examples", VectorDim: 3},
		baseURL:  "http://qdrant.local",
		http:     client,
		distance: "Cosine",
	}
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

func okResponse(t *testing.T, result any) *http.Response {
	t.Helper()
	payload := map[string]any{
		"result": result,
		"status": "ok",
		"time":   0.001,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

func rawResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
