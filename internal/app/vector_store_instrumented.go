package app

import (
	"context"
	"time"

	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/qdrant"
)

type instrumentedVectorStore struct {
	inner   VectorStore
	metrics *observability.Metrics
}

func instrumentVectorStore(inner VectorStore, metrics *observability.Metrics) VectorStore {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedVectorStore{inner: inner, metrics: metrics}
}

func (s *instrumentedVectorStore) Collection() string { return s.inner.Collection() }

func (s *instrumentedVectorStore) VectorDim() int { return s.inner.VectorDim() }

func (s *instrumentedVectorStore) VerifyReady(ctx context.Context) error {
	start := time.Now()
	err := s.inner.VerifyReady(ctx)
	s.observe("verify_ready", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) RecreateCollection(ctx context.Context) error {
	start := time.Now()
	err := s.inner.RecreateCollection(ctx)
	s.observe("recreate_collection", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) Upsert(ctx context.Context, points []qdrant.Point) error {
	start := time.Now()
	err := s.inner.Upsert(ctx, points)
	s.observe("upsert", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) Search(ctx context.Context, vector []float32, limit int) ([]qdrant.ScoredPoint, error) {
	start := time.Now()
	out, err := s.inner.Search(ctx, vector, limit)
	s.observe("search", err, time.Since(start))
	return out, err
}

func (s *instrumentedVectorStore) observe(operation string, err error, dur time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.ObserveVectorStore(operation, status, dur)
}
