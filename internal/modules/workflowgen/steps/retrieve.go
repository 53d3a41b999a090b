package steps

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/ctxutil"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

type RetrieveDeps struct {
	Log      *logger.Logger
	Searcher Searcher
	Metrics  *observability.Metrics
}

// RetrieveExamples fetches topK*CandidatePoolFactor hits, decodes them and
// reranks to topK. Any search fault yields an empty list.
func RetrieveExamples(ctx context.Context, deps RetrieveDeps, query string, topK int) []RetrievedExample {
	if deps.Searcher == nil {
		return []RetrievedExample{}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	ctx, span := observability.Tracer().Start(ctx, "workflowgen.retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("retrieval.top_k", topK))

	hits, err := safeSearch(ctx, deps.Searcher, query, topK*CandidatePoolFactor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		deps.Metrics.IncRetrievalFailure()
		if deps.Log != nil {
			deps.Log.Warn("Example retrieval failed; continuing without examples",
				append(ctxutil.LogFields(ctx), "error", err)...)
		}
		return []RetrievedExample{}
	}

	candidates := make([]RetrievedExample, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, DecodeHit(h))
	}
	ranked := Rank(query, candidates, topK)
	span.SetAttributes(
		attribute.Int("retrieval.candidates", len(candidates)),
		attribute.Int("retrieval.selected", len(ranked)),
	)
	return ranked
}

// safeSearch reports a searcher panic as an error.
func safeSearch(ctx context.Context, s Searcher, query string, k int) (hits []SearchHit, err error) {
	defer func() {
		if r := recover(); r != nil {
			hits = nil
			err = fmt.Errorf("search panicked: %v", r)
		}
	}()
	return s.Search(ctx, query, k)
}

// DecodeHit maps a search hit's payload {title, tags, metadata, workflow}
// onto a RetrievedExample. Missing or mistyped fields are left empty.
func DecodeHit(h SearchHit) RetrievedExample {
	md := h.Metadata
	ex := RetrievedExample{
		Title:   strings.TrimSpace(stringFrom(md["title"])),
		Summary: h.PageContent,
		Tags:    stringsFrom(md["tags"]),
	}
	if m, ok := md["metadata"].(map[string]any); ok {
		meta := InferredMetadata{
			Industries: stringsFrom(m["industries"]),
			Domains:    stringsFrom(m["domains"]),
			Channels:   stringsFrom(m["channels"]),
			Trigger:    strings.TrimSpace(stringFrom(m["trigger"])),
		}
		ex.Metadata = &meta
	}
	if wf, ok := md["workflow"].(map[string]any); ok {
		ex.Graph = &ExampleGraph{
			Name:        wf["name"],
			Nodes:       wf["nodes"],
			Connections: wf["connections"],
		}
	}
	return ex
}

func stringFrom(v any) string {
	s, _ := v.(string)
	return s
}

func stringsFrom(v any) []string {
	switch t := v.(type) {
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	default:
		return []string{}
	}
}
