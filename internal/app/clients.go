package app

import (
	"context"
	"fmt"

	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen/steps"
	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/embedcache"
	"github.com/yungbote/flowgen-backend/internal/platform/gemini"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
	"github.com/yungbote/flowgen-backend/internal/platform/openai"
)

// Clients holds the model provider adapters. All fields are nil when the
// active provider has no API key.
type Clients struct {
	Generator     steps.Generator
	QueryEmbedder steps.Embedder
	DocEmbedder   steps.Embedder
	EmbedCache    *embedcache.RedisCache
}

func (c Clients) Close() error {
	if c.EmbedCache == nil {
		return nil
	}
	return c.EmbedCache.Close()
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...", "provider", cfg.Provider)

	if cfg.APIKey() == "" {
		log.Warn("No model API key configured; generation is disabled", "provider", cfg.Provider)
		return Clients{}, nil
	}

	var (
		out        Clients
		embedModel string
	)
	switch cfg.Provider {
	case ProviderOpenAI:
		client, err := openai.NewClient(log, openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			EmbedModel: cfg.OpenAI.Embed,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		out = Clients{Generator: client, QueryEmbedder: client, DocEmbedder: client}
		embedModel = client.EmbedModel()
	default:
		client, err := gemini.NewClient(ctx, log, gemini.Config{
			APIKey:     cfg.GeminiAPIKey,
			EmbedModel: cfg.Gemini.Embed,
			TaskType:   gemini.TaskTypeRetrievalQuery,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init gemini client: %w", err)
		}
		out = Clients{
			Generator:     client,
			QueryEmbedder: client,
			DocEmbedder:   client.WithTaskType(gemini.TaskTypeRetrievalDocument),
		}
		embedModel = client.EmbedModel()
	}

	// Only query embeddings are cached; document vectors use another task type.
	if cfg.RedisAddr != "" {
		cache, err := embedcache.NewRedisCache(ctx, log, cfg.RedisAddr, cfg.EmbedCacheTTL())
		if err != nil {
			log.Warn("Embedding cache unavailable; continuing without it", "addr", cfg.RedisAddr, "error", err)
		} else {
			out.EmbedCache = cache
			out.QueryEmbedder = embedcache.NewCachingEmbedder(log, out.QueryEmbedder, cache, embedModel).WithMetrics(metrics)
		}
	}
	return out, nil
}
