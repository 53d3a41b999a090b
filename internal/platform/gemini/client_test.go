package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/yungbote/flowgen-backend/internal/platform/httpx"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

type fakeModels struct {
	generate func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	embed    func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return f.generate(ctx, model, contents, cfg)
}

func (f *fakeModels) EmbedContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	return f.embed(ctx, model, contents, cfg)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestGenerateSendsSystemInstructionAndModel(t *testing.T) {
	var gotModel, gotSystem, gotUser string
	fm := &fakeModels{
		generate: func(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel = model
			require.NotNil(t, cfg.SystemInstruction)
			gotSystem = cfg.SystemInstruction.Parts[0].Text
			gotUser = contents[0].Parts[0].Text
			return textResponse(`{"summary":"ok"}`), nil
		},
	}
	c := newClient(logger.Nop(), fm, Config{})

	out, err := c.Generate(context.Background(), "gemini-2.0-flash", "be terse", "build it")
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out)
	assert.Equal(t, "gemini-2.0-flash", gotModel)
	assert.Equal(t, "be terse", gotSystem)
	assert.Equal(t, "build it", gotUser)
}

func TestGenerateRequiresModel(t *testing.T) {
	c := newClient(logger.Nop(), &fakeModels{}, Config{})
	_, err := c.Generate(context.Background(), " ", "s", "u")
	require.Error(t, err)
}

func TestGenerateWrapsAPIErrorWithStatus(t *testing.T) {
	fm := &fakeModels{
		generate: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE", Message: "The model is overloaded."}
		},
	}
	c := newClient(logger.Nop(), fm, Config{})

	_, err := c.Generate(context.Background(), "m", "", "u")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "m", apiErr.Model)
	assert.Equal(t, http.StatusServiceUnavailable, httpx.StatusCode(err))
	assert.True(t, httpx.IsOverloadError(err))
}

func TestGenerateWrapsPlainErrorWithoutStatus(t *testing.T) {
	fm := &fakeModels{
		generate: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, fmt.Errorf("dial tcp: refused")
		},
	}
	c := newClient(logger.Nop(), fm, Config{})

	_, err := c.Generate(context.Background(), "m", "", "u")
	require.Error(t, err)
	assert.Equal(t, 0, httpx.StatusCode(err))
	assert.False(t, httpx.IsOverloadError(err))
}

func TestGeneratePassesContextErrorsThrough(t *testing.T) {
	fm := &fakeModels{
		generate: func(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, context.Canceled
		},
	}
	c := newClient(logger.Nop(), fm, Config{})
	_, err := c.Generate(context.Background(), "m", "", "u")
	assert.ErrorIs(t, err, context.Canceled)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestEmbedUsesTaskTypeAndPreservesOrder(t *testing.T) {
	var gotTask, gotModel string
	var gotTexts []string
	fm := &fakeModels{
		embed: func(_ context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
			gotModel = model
			gotTask = cfg.TaskType
			out := &genai.EmbedContentResponse{}
			for i, c := range contents {
				gotTexts = append(gotTexts, c.Parts[0].Text)
				out.Embeddings = append(out.Embeddings, &genai.ContentEmbedding{Values: []float32{float32(i), 1}})
			}
			return out, nil
		},
	}
	c := newClient(logger.Nop(), fm, Config{EmbedModel: "text-embedding-004"}).WithTaskType(TaskTypeRetrievalDocument)

	vecs, err := c.Embed(context.Background(), []string{"a", "", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{2, 1}, vecs[2])
	assert.Equal(t, TaskTypeRetrievalDocument, gotTask)
	assert.Equal(t, "text-embedding-004", gotModel)
	assert.Equal(t, []string{"a", " ", "c"}, gotTexts)
}

func TestEmbedDefaultsAndCountMismatch(t *testing.T) {
	fm := &fakeModels{
		embed: func(_ context.Context, _ string, _ []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
			assert.Equal(t, TaskTypeRetrievalQuery, cfg.TaskType)
			return &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{{Values: []float32{1}}}}, nil
		},
	}
	c := newClient(logger.Nop(), fm, Config{})
	assert.Equal(t, DefaultEmbedModel, c.EmbedModel())

	_, err := c.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)

	empty, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), logger.Nop(), Config{})
	require.Error(t, err)
}
