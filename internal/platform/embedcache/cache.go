package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

const (
	keyPrefix  = "flowgen:emb:"
	DefaultTTL = 24 * time.Hour
)

// Cache stores embedding vectors keyed by (model, text).
type Cache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Set(ctx context.Context, model, text string, vec []float32) error
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Key is the redis key for (model, text).
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + strings.TrimSpace(model) + ":" + hex.EncodeToString(sum[:])
}

type RedisCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisCache dials addr and pings it before returning.
func NewRedisCache(ctx context.Context, log *logger.Logger, addr string, ttl time.Duration) (*RedisCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{
		log: log.With("service", "EmbeddingCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	raw, err := c.rdb.Get(ctx, Key(model, text)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false, fmt.Errorf("decode cached embedding: %w", err)
	}
	return vec, len(vec) > 0, nil
}

func (c *RedisCache) Set(ctx context.Context, model, text string, vec []float32) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, Key(model, text), raw, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// CachingEmbedder serves hits from cache and embeds only misses, in one
// batch. Cache faults are logged and treated as misses.
type CachingEmbedder struct {
	log   *logger.Logger
	inner Embedder
	cache Cache
	model string

	metrics *observability.Metrics
}

func NewCachingEmbedder(log *logger.Logger, inner Embedder, cache Cache, model string) *CachingEmbedder {
	return &CachingEmbedder{
		log:   log.With("service", "CachingEmbedder"),
		inner: inner,
		cache: cache,
		model: model,
	}
}

// WithMetrics reports hit/miss/error counts to m.
func (e *CachingEmbedder) WithMetrics(m *observability.Metrics) *CachingEmbedder {
	e.metrics = m
	return e
}

func (e *CachingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.cache == nil {
		return e.inner.Embed(ctx, texts)
	}

	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		vec, ok, err := e.cache.Get(ctx, e.model, text)
		if err != nil {
			e.metrics.IncEmbedCache("error", 1)
			e.log.Warn("Embedding cache read failed", "error", err)
		}
		if ok {
			e.metrics.IncEmbedCache("hit", 1)
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	e.metrics.IncEmbedCache("miss", len(missTexts))
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vecs), len(missTexts))
	}
	for j, idx := range missIdx {
		out[idx] = vecs[j]
		if err := e.cache.Set(ctx, e.model, missTexts[j], vecs[j]); err != nil {
			e.log.Warn("Embedding cache write failed", "error", err)
		}
	}
	return out, nil
}
