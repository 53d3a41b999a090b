package steps

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/ctxutil"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

type GenerateDeps struct {
	Log       *logger.Logger
	Metrics   *observability.Metrics
	Searcher  Searcher
	Generator Generator
	Recorder  CallRecorder
	Sleep     func(ctx context.Context, d time.Duration) error

	Chain ModelChain
	Retry RetryPolicy
	TopK  int
}

// Generate runs retrieval, prompt assembly, the model chain and output
// normalization, in that order. Only model chain failure is returned as an
// error.
func Generate(ctx context.Context, deps GenerateDeps, req GenerationRequest) (GenerationResult, error) {
	start := time.Now()
	prompt := strings.TrimSpace(req.Prompt)

	ctx, span := observability.Tracer().Start(ctx, "workflowgen.generate")
	defer span.End()

	examples := RetrieveExamples(ctx, RetrieveDeps{
		Log:      deps.Log,
		Searcher: deps.Searcher,
		Metrics:  deps.Metrics,
	}, prompt, deps.TopK)

	snapshot := ""
	if req.ExistingWorkflow != nil {
		if snap, ok := DecodeSnapshot(req.ExistingWorkflow); ok {
			snapshot = FormatArtifactSnapshot(snap)
		}
	}
	user := BuildUserPrompt(prompt, BuildFewShotBlock(examples), snapshot)
	span.SetAttributes(
		attribute.Int("workflowgen.examples", len(examples)),
		attribute.Bool("workflowgen.editing", snapshot != ""),
	)

	raw, model, err := InvokeWithFallback(ctx, InvokeDeps{
		Log:       deps.Log,
		Generator: deps.Generator,
		Metrics:   deps.Metrics,
		Recorder:  deps.Recorder,
		Sleep:     deps.Sleep,
	}, deps.Retry, deps.Chain, SystemInstruction(), user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		deps.Metrics.ObserveGeneration(observability.OutcomeError, time.Since(start))
		return GenerationResult{}, err
	}
	span.SetAttributes(attribute.String("llm.model", model))

	result, degraded := ParseModelOutput(raw)
	outcome := observability.OutcomeSuccess
	if degraded {
		outcome = observability.OutcomeDegraded
		deps.Metrics.IncGenerationDegraded()
		if deps.Log != nil {
			deps.Log.Warn("Model output could not be parsed",
				append(ctxutil.LogFields(ctx), "model", model, "raw_len", len(raw))...)
		}
	}
	deps.Metrics.ObserveGeneration(outcome, time.Since(start))
	if deps.Log != nil {
		deps.Log.Info("Workflow generated",
			append(ctxutil.LogFields(ctx),
				"model", model,
				"examples", len(examples),
				"actions", len(result.Actions),
				"degraded", degraded,
				"duration", time.Since(start).String(),
			)...)
	}
	return result, nil
}
