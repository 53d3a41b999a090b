package steps

import (
	"context"
	"fmt"

	"github.com/yungbote/flowgen-backend/internal/platform/qdrant"
)

// VectorIndex is the query side of the qdrant store.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, limit int) ([]qdrant.ScoredPoint, error)
}

// IndexProvider hands out the (lazily built) vector index.
type IndexProvider interface {
	Index(ctx context.Context) (VectorIndex, error)
}

// VectorSearcher embeds the query and runs a nearest-neighbour search.
type VectorSearcher struct {
	Embedder Embedder
	Indexes  IndexProvider
}

func (s VectorSearcher) Search(ctx context.Context, query string, k int) ([]SearchHit, error) {
	if s.Embedder == nil || s.Indexes == nil {
		return nil, fmt.Errorf("vector searcher not configured")
	}
	idx, err := s.Indexes.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector store unavailable: %w", err)
	}
	vecs, err := s.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}
	points, err := idx.Search(ctx, vecs[0], k)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(points))
	for _, p := range points {
		content, _ := p.Payload[PayloadContentKey].(string)
		meta := make(map[string]any, len(p.Payload))
		for key, v := range p.Payload {
			if key == PayloadContentKey {
				continue
			}
			meta[key] = v
		}
		hits = append(hits, SearchHit{PageContent: content, Metadata: meta})
	}
	return hits, nil
}
