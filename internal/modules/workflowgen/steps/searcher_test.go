package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/flowgen-backend/internal/platform/qdrant"
)

type fakeEmbedder struct {
	vectors [][]float32
	err     error
	calls   [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i + 1), 0, 0}
	}
	return out, nil
}

type fakeIndex struct {
	points    []qdrant.ScoredPoint
	err       error
	gotVector []float32
	gotLimit  int
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, limit int) ([]qdrant.ScoredPoint, error) {
	f.gotVector = vector
	f.gotLimit = limit
	return f.points, f.err
}

type staticProvider struct {
	idx VectorIndex
	err error
}

func (p staticProvider) Index(ctx context.Context) (VectorIndex, error) {
	return p.idx, p.err
}

func TestVectorSearcherMapsPayload(t *testing.T) {
	idx := &fakeIndex{points: []qdrant.ScoredPoint{
		{ID: "a", Score: 0.9, Payload: map[string]any{PayloadContentKey: "doc a", "title": "A"}},
		{ID: "b", Score: 0.5, Payload: map[string]any{"title": "B"}},
	}}
	emb := &fakeEmbedder{}
	s := VectorSearcher{Embedder: emb, Indexes: staticProvider{idx: idx}}

	hits, err := s.Search(context.Background(), "daily digest", 9)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, [][]string{{"daily digest"}}, emb.calls)
	assert.Equal(t, []float32{1, 0, 0}, idx.gotVector)
	assert.Equal(t, 9, idx.gotLimit)
	assert.Equal(t, "doc a", hits[0].PageContent)
	assert.Equal(t, map[string]any{"title": "A"}, hits[0].Metadata)
	assert.Empty(t, hits[1].PageContent)
}

func TestVectorSearcherErrors(t *testing.T) {
	ctx := context.Background()

	_, err := VectorSearcher{}.Search(ctx, "q", 3)
	assert.Error(t, err)

	boom := errors.New("qdrant down")
	_, err = VectorSearcher{Embedder: &fakeEmbedder{}, Indexes: staticProvider{err: boom}}.Search(ctx, "q", 3)
	assert.ErrorIs(t, err, boom)

	_, err = VectorSearcher{Embedder: &fakeEmbedder{err: boom}, Indexes: staticProvider{idx: &fakeIndex{}}}.Search(ctx, "q", 3)
	assert.ErrorIs(t, err, boom)

	_, err = VectorSearcher{Embedder: &fakeEmbedder{vectors: [][]float32{}}, Indexes: staticProvider{idx: &fakeIndex{}}}.Search(ctx, "q", 3)
	assert.Error(t, err)

	_, err = VectorSearcher{Embedder: &fakeEmbedder{}, Indexes: staticProvider{idx: &fakeIndex{err: boom}}}.Search(ctx, "q", 3)
	assert.ErrorIs(t, err, boom)
}
