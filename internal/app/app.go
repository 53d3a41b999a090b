package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/flowgen-backend/internal/catalog"
	apphttp "github.com/yungbote/flowgen-backend/internal/http"
	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen"
	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen/steps"
	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
	"github.com/yungbote/flowgen-backend/internal/repos"
)

const shutdownGrace = 15 * time.Second

var ErrSeedNotConfigured = errors.New("seeding requires a configured model provider")

type App struct {
	Log       *logger.Logger
	Cfg       Config
	DB        *gorm.DB
	Metrics   *observability.Metrics
	Clients   Clients
	Repos     Repos
	Vectors   *VectorProvider
	Samples   []catalog.Sample
	Workflows workflowgen.Usecases
	Server    *apphttp.Server

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelCfg := observability.OtelConfigFromEnv()
	otelCfg.Enabled = cfg.OtelEnabled
	otelShutdown := observability.InitOTel(ctx, log, otelCfg)
	metrics := observability.Init(log)

	samples, err := catalog.Load()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg, metrics)
	if err != nil {
		log.Sync()
		return nil, err
	}

	theDB, reposet, err := wireRepos(log, cfg.DatabaseURL)
	if err != nil {
		_ = clients.Close()
		log.Sync()
		return nil, err
	}

	vectors := NewVectorProvider(log, cfg.QdrantStoreConfig(), metrics)
	workflows := wireWorkflows(log, cfg, metrics, clients, reposet, vectors)
	handlerset := wireHandlers(log, workflows, samples)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           theDB,
		Metrics:      metrics,
		Clients:      clients,
		Repos:        reposet,
		Vectors:      vectors,
		Samples:      samples,
		Workflows:    workflows,
		Server:       wireServer(log, cfg, metrics, handlerset),
		otelShutdown: otelShutdown,
	}, nil
}

func wireWorkflows(log *logger.Logger, cfg Config, metrics *observability.Metrics, clients Clients, reposet Repos, vectors *VectorProvider) workflowgen.Usecases {
	models := cfg.Models()
	deps := workflowgen.UsecasesDeps{
		Log:     log.With("service", "WorkflowGen"),
		Metrics: metrics,
		Chain: workflowgen.ModelChain{
			Primary:           models.Primary,
			Fallback:          models.Fallback,
			SecondaryFallback: models.SecondaryFallback,
		},
		Retry: workflowgen.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay(),
		},
		TopK:            cfg.TopK,
		Generator:       clients.Generator,
		SeedEmbedder:    clients.DocEmbedder,
		SeedConcurrency: cfg.SeedConcurrency,
		SeedEmbedRPS:    cfg.SeedEmbedRPS,
	}
	if clients.QueryEmbedder != nil {
		deps.Searcher = steps.VectorSearcher{Embedder: clients.QueryEmbedder, Indexes: vectors}
	}
	if reposet.AICallLog != nil {
		deps.Recorder = repos.NewCallLogRecorder(reposet.AICallLog, log)
	}
	return workflowgen.New(deps)
}

// Serve blocks until ctx is done, then drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Listening", "addr", addr, "provider", a.Cfg.Provider, "generation_enabled", a.Workflows.Configured())
	return a.Server.Run(ctx, addr, shutdownGrace)
}

// Seed replaces the vector collection with samples, or the embedded catalog
// when samples is empty.
func (a *App) Seed(ctx context.Context, samples []catalog.Sample) (workflowgen.SeedResult, error) {
	if a.Clients.DocEmbedder == nil {
		return workflowgen.SeedResult{}, ErrSeedNotConfigured
	}
	if len(samples) == 0 {
		samples = a.Samples
	}
	store, err := a.Vectors.Unverified()
	if err != nil {
		return workflowgen.SeedResult{}, err
	}
	a.Log.Info("Seeding vector store", "collection", store.Collection(), "samples", len(samples))
	return a.Workflows.WithSeedIndex(store).Seed(ctx, samples)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if err := a.Clients.Close(); err != nil {
		a.Log.Warn("close clients", "error", err)
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
