package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/yungbote/flowgen-backend/internal/platform/httpx"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

func TestGenerateRequestShapeAndOutputText(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/responses" {
			t.Fatalf("path: want=%q got=%q", "/v1/responses", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("auth header: got=%q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"{\"summary\":"},{"type":"output_text","text":"\"x\"}"}]}]}`), nil
	})

	out, err := c.Generate(context.Background(), "gpt-4.1", "sys", "usr")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"summary":"x"}` {
		t.Fatalf("output: got=%q", out)
	}
	if captured["model"] != "gpt-4.1" || captured["instructions"] != "sys" {
		t.Fatalf("request: got=%v", captured)
	}
	if _, ok := captured["temperature"]; ok {
		t.Fatalf("temperature should be omitted when unset")
	}
}

func TestGenerateHTTPErrorExposesStatus(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusServiceUnavailable, `{"error":"busy"}`), nil
	})
	_, err := c.Generate(context.Background(), "gpt-4.1", "", "u")
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := httpx.StatusCode(err); got != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", got)
	}
	if !httpx.IsOverloadError(err) {
		t.Fatalf("503 should classify as overload")
	}
}

func TestGenerateRefusal(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"output":[],"refusal":"no"}`), nil
	})
	if _, err := c.Generate(context.Background(), "m", "", "u"); err == nil {
		t.Fatalf("expected refusal error")
	}
}

func TestEmbedOrdersByIndex(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":[{"index":1,"embedding":[2,2]},{"index":0,"embedding":[1,1]}]}`), nil
	})
	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Fatalf("vectors: got=%v", vecs)
	}
}

func TestEmbedMissingVectorFails(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":[{"index":0,"embedding":[1]}]}`), nil
	})
	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected missing index error")
	}
}

func TestNewClientDefaults(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected missing key error")
	}
	c, err := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: "http://local/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.baseURL != "http://local" || c.EmbedModel() != DefaultEmbedModel {
		t.Fatalf("defaults: baseURL=%q embed=%q", c.baseURL, c.EmbedModel())
	}
}

func newTestClient(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{APIKey: "sk-test", BaseURL: "http://openai.local"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.httpClient = &http.Client{Transport: roundTripFunc(roundTrip)}
	return c
}

func jsonResponse(status int, body string) *http.Response {
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
