package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yungbote/flowgen-backend/internal/catalog"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
	"github.com/yungbote/flowgen-backend/internal/platform/qdrant"
)

// PayloadContentKey holds the embedded document text in each point payload.
const PayloadContentKey = "content"

const (
	DefaultSeedBatchSize   = 8
	DefaultSeedConcurrency = 4
	DefaultSeedEmbedRPS    = 5.0
)

// SeedIndex is the write side of the qdrant store.
type SeedIndex interface {
	VectorDim() int
	RecreateCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []qdrant.Point) error
}

type SeedDeps struct {
	Log      *logger.Logger
	Embedder Embedder
	Index    SeedIndex

	BatchSize   int
	Concurrency int
	// EmbedRPS caps embedding batches per second; <= 0 disables the limit.
	EmbedRPS float64
}

type SeedResult struct {
	Seeded   int
	Duration time.Duration
}

// TagSamples sets every sample's category tags from Classify, the function
// queries are classified with. Curated complexity and integrations are kept.
// It returns a copy.
func TagSamples(samples []catalog.Sample) []catalog.Sample {
	out := make([]catalog.Sample, len(samples))
	for i, s := range samples {
		out[i] = s
		m := Classify(classificationText(s))
		tags := &catalog.Metadata{
			Industries: m.Industries,
			Domains:    m.Domains,
			Channels:   m.Channels,
			Trigger:    m.Trigger,
		}
		if s.Metadata != nil {
			tags.Complexity = s.Metadata.Complexity
			tags.Integrations = s.Metadata.Integrations
		}
		out[i].Metadata = tags
	}
	return out
}

func classificationText(s catalog.Sample) string {
	return strings.Join([]string{s.Title, s.Description, s.Problem, strings.Join(s.Tags, " ")}, "\n")
}

// Seed embeds every sample and replaces the collection contents with them.
// Embedding runs before the collection is dropped.
func Seed(ctx context.Context, deps SeedDeps, samples []catalog.Sample) (SeedResult, error) {
	start := time.Now()
	if deps.Embedder == nil || deps.Index == nil {
		return SeedResult{}, fmt.Errorf("seed: embedder and index are required")
	}
	if len(samples) == 0 {
		return SeedResult{}, fmt.Errorf("seed: no samples")
	}
	batchSize := deps.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultSeedBatchSize
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultSeedConcurrency
	}

	tagged := TagSamples(samples)
	docs := make([]string, len(tagged))
	for i, s := range tagged {
		docs[i] = s.Document()
	}

	var limiter *rate.Limiter
	if deps.EmbedRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(deps.EmbedRPS), 1)
	}

	vectors := make([][]float32, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for lo := 0; lo < len(docs); lo += batchSize {
		hi := lo + batchSize
		if hi > len(docs) {
			hi = len(docs)
		}
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			vecs, err := deps.Embedder.Embed(gctx, docs[lo:hi])
			if err != nil {
				return fmt.Errorf("embed samples %d-%d: %w", lo, hi-1, err)
			}
			if len(vecs) != hi-lo {
				return fmt.Errorf("embed samples %d-%d: got %d vectors", lo, hi-1, len(vecs))
			}
			copy(vectors[lo:hi], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SeedResult{}, err
	}

	dim := deps.Index.VectorDim()
	points := make([]qdrant.Point, len(tagged))
	for i, s := range tagged {
		if len(vectors[i]) != dim {
			return SeedResult{}, fmt.Errorf("seed: sample %q embedding has %d dims, collection expects %d", s.ID, len(vectors[i]), dim)
		}
		points[i] = qdrant.Point{
			ID:      sampleID(s, i),
			Vector:  vectors[i],
			Payload: samplePayload(s, docs[i]),
		}
	}

	if err := deps.Index.RecreateCollection(ctx); err != nil {
		return SeedResult{}, fmt.Errorf("seed: recreate collection: %w", err)
	}
	if err := deps.Index.Upsert(ctx, points); err != nil {
		return SeedResult{}, fmt.Errorf("seed: upsert: %w", err)
	}

	res := SeedResult{Seeded: len(points), Duration: time.Since(start)}
	if deps.Log != nil {
		deps.Log.Info("Seeded workflow examples", "count", res.Seeded, "duration", res.Duration.String())
	}
	return res, nil
}

func sampleID(s catalog.Sample, i int) string {
	if id := strings.TrimSpace(s.ID); id != "" {
		return id
	}
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return fmt.Sprintf("sample-%d", i)
}

func samplePayload(s catalog.Sample, doc string) map[string]any {
	payload := map[string]any{
		PayloadContentKey: doc,
		"id":              s.ID,
		"title":           s.Title,
		"tags":            s.Tags,
		"workflow":        s.Workflow,
	}
	if s.Metadata != nil {
		payload["metadata"] = map[string]any{
			"industries": s.Metadata.Industries,
			"domains":    s.Metadata.Domains,
			"channels":   s.Metadata.Channels,
			"trigger":    s.Metadata.Trigger,
		}
	}
	return payload
}
