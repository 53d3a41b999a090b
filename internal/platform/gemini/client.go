package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/yungbote/flowgen-backend/internal/platform/logger"
)

const (
	DefaultEmbedModel = "text-embedding-004"

	TaskTypeRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskTypeRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

type Config struct {
	APIKey     string
	EmbedModel string
	// TaskType applies to Embed; empty means RETRIEVAL_QUERY.
	TaskType string
}

// models is the slice of *genai.Models the client uses.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type Client struct {
	log        *logger.Logger
	models     models
	embedModel string
	taskType   string
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(log, gc.Models, cfg), nil
}

func newClient(log *logger.Logger, m models, cfg Config) *Client {
	embedModel := strings.TrimSpace(cfg.EmbedModel)
	if embedModel == "" {
		embedModel = DefaultEmbedModel
	}
	taskType := strings.TrimSpace(cfg.TaskType)
	if taskType == "" {
		taskType = TaskTypeRetrievalQuery
	}
	return &Client{
		log:        log.With("service", "GeminiClient"),
		models:     m,
		embedModel: embedModel,
		taskType:   taskType,
	}
}

// WithTaskType returns a copy that embeds with taskType (seeding uses
// RETRIEVAL_DOCUMENT).
func (c *Client) WithTaskType(taskType string) *Client {
	clone := *c
	if t := strings.TrimSpace(taskType); t != "" {
		clone.taskType = t
	}
	return &clone
}

func (c *Client) EmbedModel() string { return c.embedModel }

// Generate runs one GenerateContent call with system as the system instruction.
func (c *Client) Generate(ctx context.Context, model, system, user string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", fmt.Errorf("gemini model required")
	}
	cfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.models.GenerateContent(ctx, model, genai.Text(user), cfg)
	if err != nil {
		return "", wrapError(model, err)
	}
	if resp == nil {
		return "", &APIError{Model: model, Message: "empty response"}
	}
	return resp.Text(), nil
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			text = " "
		}
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	res, err := c.models.EmbedContent(ctx, c.embedModel, contents, &genai.EmbedContentConfig{
		TaskType: c.taskType,
	})
	if err != nil {
		return nil, wrapError(c.embedModel, err)
	}
	if res == nil || len(res.Embeddings) != len(texts) {
		got := 0
		if res != nil {
			got = len(res.Embeddings)
		}
		return nil, fmt.Errorf("gemini embeddings count mismatch: requested=%d returned=%d model=%s", len(texts), got, c.embedModel)
	}

	out := make([][]float32, len(res.Embeddings))
	for i, emb := range res.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini embedding %d empty (model=%s)", i, c.embedModel)
		}
		out[i] = emb.Values
	}
	return out, nil
}

// APIError normalizes genai failures so callers can read an HTTP status
// without importing the SDK.
type APIError struct {
	Model   string
	Code    int
	Status  string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e == nil {
		return "gemini error"
	}
	var b strings.Builder
	b.WriteString("gemini")
	if e.Model != "" {
		b.WriteString(" model=")
		b.WriteString(e.Model)
	}
	if e.Code != 0 {
		fmt.Fprintf(&b, " http %d", e.Code)
	}
	if e.Status != "" {
		b.WriteString(" ")
		b.WriteString(e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *APIError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.Code
}

func wrapError(model string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Model: model, Code: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{Model: model, Code: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message, Err: err}
	}
	return &APIError{Model: model, Err: err}
}
