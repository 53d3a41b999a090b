package workflowgen

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yungbote/flowgen-backend/internal/catalog"
	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen/steps"
	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

var (
	ErrModelNotConfigured = errors.New("model provider is not configured")
	ErrPromptRequired     = errors.New("prompt is required")
)

type UsecasesDeps struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// Generator is nil when no model API key is configured.
	Generator steps.Generator
	Searcher  steps.Searcher
	Recorder  steps.CallRecorder
	Sleep     func(ctx context.Context, d time.Duration) error

	Chain ModelChain
	Retry RetryPolicy
	TopK  int

	// Seeding.
	SeedEmbedder    steps.Embedder
	SeedIndex       steps.SeedIndex
	SeedConcurrency int
	SeedEmbedRPS    float64
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

// WithSeedIndex returns a copy that seeds into idx.
func (u Usecases) WithSeedIndex(idx steps.SeedIndex) Usecases {
	u.deps.SeedIndex = idx
	return u
}

type (
	GenerationRequest = steps.GenerationRequest
	GenerationResult  = steps.GenerationResult
	ModelChain        = steps.ModelChain
	RetryPolicy       = steps.RetryPolicy
	SeedResult        = steps.SeedResult
	ChainError        = steps.ChainError
	ModelError        = steps.ModelError
	Action            = steps.Action
)

func (u Usecases) Configured() bool { return u.deps.Generator != nil }

// Generate validates req and runs the pipeline. The configuration check runs
// before any retrieval or model work.
func (u Usecases) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return GenerationResult{}, ErrPromptRequired
	}
	if !u.Configured() || len(u.deps.Chain.Models()) == 0 {
		return GenerationResult{}, ErrModelNotConfigured
	}
	return steps.Generate(ctx, steps.GenerateDeps{
		Log:       u.deps.Log,
		Metrics:   u.deps.Metrics,
		Searcher:  u.deps.Searcher,
		Generator: u.deps.Generator,
		Recorder:  u.deps.Recorder,
		Sleep:     u.deps.Sleep,
		Chain:     u.deps.Chain,
		Retry:     u.deps.Retry,
		TopK:      u.deps.TopK,
	}, req)
}

func (u Usecases) Seed(ctx context.Context, samples []catalog.Sample) (SeedResult, error) {
	return steps.Seed(ctx, steps.SeedDeps{
		Log:         u.deps.Log,
		Embedder:    u.deps.SeedEmbedder,
		Index:       u.deps.SeedIndex,
		Concurrency: u.deps.SeedConcurrency,
		EmbedRPS:    u.deps.SeedEmbedRPS,
	}, samples)
}

// PromptExamples tags samples with the classifier before listing them, so
// untagged catalog entries still report categories.
func (u Usecases) PromptExamples(samples []catalog.Sample, limit int) []catalog.PromptExample {
	tagged := steps.TagSamples(samples)
	return catalog.PromptExamples(tagged, limit)
}
