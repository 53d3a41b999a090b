package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/ctxutil"
	"github.com/yungbote/flowgen-backend/internal/platform/httpx"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

const (
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = time.Second
)

// CallRecord is one model attempt, as handed to a CallRecorder.
type CallRecord struct {
	Model    string
	Attempt  int
	Success  bool
	Overload bool
	Err      error
	Duration time.Duration
}

// CallRecorder receives every attempt outcome, synchronously.
type CallRecorder interface {
	RecordCall(ctx context.Context, rec CallRecord)
}

type ModelChain struct {
	Primary           string
	Fallback          string
	SecondaryFallback string
}

// Models returns the chain with empty and repeated ids removed, in order.
func (c ModelChain) Models() []string {
	out := make([]string, 0, 3)
	for _, m := range []string{c.Primary, c.Fallback, c.SecondaryFallback} {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		dup := false
		for _, prev := range out {
			if prev == m {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, m)
		}
	}
	return out
}

type InvokeDeps struct {
	Log       *logger.Logger
	Generator Generator
	Metrics   *observability.Metrics
	Recorder  CallRecorder
	// Sleep waits between attempts; nil uses httpx.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

type RetryPolicy struct {
	// MaxRetries is the total attempt count per model.
	MaxRetries int
	BaseDelay  time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	return p
}

// ModelError is the terminal failure of one model stage.
type ModelError struct {
	Model    string
	Attempts int
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s failed after %d attempt(s): %v", e.Model, e.Attempts, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ChainError means every model in the chain failed. Err is the last stage's
// *ModelError.
type ChainError struct {
	Models []string
	Err    error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("all models failed (%s): %v", strings.Join(e.Models, ", "), e.Err)
}

func (e *ChainError) Unwrap() error { return e.Err }

// Invoke calls one model, retrying overload errors with exponential backoff
// up to policy.MaxRetries attempts. Any other error stops immediately.
func Invoke(ctx context.Context, deps InvokeDeps, policy RetryPolicy, model, system, user string) (string, error) {
	if deps.Generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	policy = policy.normalized()
	sleep := deps.Sleep
	if sleep == nil {
		sleep = httpx.Sleep
	}

	ctx, span := observability.Tracer().Start(ctx, "workflowgen.invoke")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", model))

	var lastErr error
	attempt := 0
	for attempt < policy.MaxRetries {
		attempt++
		start := time.Now()
		text, err := deps.Generator.Generate(ctx, model, system, user)
		dur := time.Since(start)

		if err == nil {
			deps.Metrics.IncLLMAttempt(model, observability.OutcomeSuccess)
			record(ctx, deps.Recorder, CallRecord{Model: model, Attempt: attempt, Success: true, Duration: dur})
			span.SetAttributes(attribute.Int("llm.attempts", attempt))
			return text, nil
		}

		lastErr = err
		overload := httpx.IsOverloadError(err)
		outcome := observability.OutcomeError
		if overload {
			outcome = observability.OutcomeOverload
		}
		deps.Metrics.IncLLMAttempt(model, outcome)
		record(ctx, deps.Recorder, CallRecord{Model: model, Attempt: attempt, Overload: overload, Err: err, Duration: dur})

		if !overload || attempt >= policy.MaxRetries {
			break
		}

		delay := httpx.BackoffDelay(policy.BaseDelay, attempt)
		if deps.Log != nil {
			deps.Log.Warn("Model overloaded; retrying",
				append(ctxutil.LogFields(ctx),
					"model", model,
					"attempt", attempt,
					"max_retries", policy.MaxRetries,
					"delay", delay.String(),
					"error", err.Error(),
				)...)
		}
		if sErr := sleep(ctx, delay); sErr != nil {
			lastErr = sErr
			break
		}
	}

	span.SetAttributes(attribute.Int("llm.attempts", attempt))
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "model failed")
	return "", &ModelError{Model: model, Attempts: attempt, Err: lastErr}
}

// InvokeWithFallback runs Invoke over chain.Models() in order and returns the
// first success. Each stage gets the full retry policy.
func InvokeWithFallback(ctx context.Context, deps InvokeDeps, policy RetryPolicy, chain ModelChain, system, user string) (string, string, error) {
	models := chain.Models()
	if len(models) == 0 {
		return "", "", fmt.Errorf("no models configured")
	}

	var lastErr error
	for i, model := range models {
		if i > 0 {
			deps.Metrics.IncLLMFallback()
			if deps.Log != nil {
				deps.Log.Warn("Falling back to next model",
					append(ctxutil.LogFields(ctx),
						"from_model", models[i-1],
						"to_model", model,
						"error", lastErr.Error(),
					)...)
			}
		}
		text, err := Invoke(ctx, deps, policy, model, system, user)
		if err == nil {
			return text, model, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	if deps.Log != nil {
		deps.Log.Error("All models failed",
			append(ctxutil.LogFields(ctx), "models", models, "error", lastErr.Error())...)
	}
	return "", "", &ChainError{Models: models, Err: lastErr}
}

func record(ctx context.Context, r CallRecorder, rec CallRecord) {
	if r == nil {
		return
	}
	r.RecordCall(ctx, rec)
}
