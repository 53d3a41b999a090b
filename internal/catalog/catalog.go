package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

//go:embed data/sample-workflows.json
var embeddedSamples []byte

const DefaultPromptLimit = 10

// Metadata is stored with each sample. Category tags are recomputed by the
// classifier when samples are indexed; only Complexity and Integrations are
// curated.
type Metadata struct {
	Industries   []string `json:"industries,omitempty"`
	Domains      []string `json:"domains,omitempty"`
	Channels     []string `json:"channels,omitempty"`
	Trigger      string   `json:"trigger,omitempty"`
	Complexity   string   `json:"complexity,omitempty"`
	Integrations []string `json:"integrations,omitempty"`
}

type Sample struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Problem     string         `json:"problem"`
	Tags        []string       `json:"tags"`
	Metadata    *Metadata      `json:"metadata,omitempty"`
	Workflow    map[string]any `json:"workflow"`
}

type PromptExample struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Prompt       string   `json:"prompt"`
	Description  string   `json:"description"`
	Industries   []string `json:"industries"`
	Domains      []string `json:"domains"`
	Channels     []string `json:"channels"`
	Trigger      string   `json:"trigger,omitempty"`
	Complexity   string   `json:"complexity,omitempty"`
	Integrations []string `json:"integrations"`
	Tags         []string `json:"tags"`
}

// Load returns the embedded catalog.
func Load() ([]Sample, error) {
	return Parse(embeddedSamples)
}

// LoadFile reads a catalog from disk in the same format as the embedded one.
func LoadFile(path string) ([]Sample, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	samples, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return samples, nil
}

func Parse(raw []byte) ([]Sample, error) {
	var samples []Sample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no workflows found")
	}
	return samples, nil
}

// NodeCount is len(workflow.nodes), or 0 when nodes is missing or not a list.
func (s Sample) NodeCount() int {
	nodes, ok := s.Workflow["nodes"].([]any)
	if !ok {
		return 0
	}
	return len(nodes)
}

// Document is the text embedded for a sample at seed time.
func (s Sample) Document() string {
	return strings.Join([]string{
		s.Title,
		"",
		s.Description,
		"",
		"Problem solved: " + s.Problem,
		"",
		"Tags: " + strings.Join(s.Tags, ", "),
		fmt.Sprintf("Node count: %d", s.NodeCount()),
	}, "\n")
}

// PromptExamples maps the first limit samples to prompt suggestions.
// limit <= 0 means DefaultPromptLimit.
func PromptExamples(samples []Sample, limit int) []PromptExample {
	if limit <= 0 {
		limit = DefaultPromptLimit
	}
	if limit > len(samples) {
		limit = len(samples)
	}
	out := make([]PromptExample, 0, limit)
	for _, s := range samples[:limit] {
		out = append(out, toPromptExample(s))
	}
	return out
}

func toPromptExample(s Sample) PromptExample {
	meta := Metadata{}
	if s.Metadata != nil {
		meta = *s.Metadata
	}

	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = "Untitled workflow"
	}
	id := strings.TrimSpace(s.ID)
	if id == "" {
		id = strings.TrimSpace(s.Title)
	}
	if id == "" {
		id = uuid.NewString()
	}

	prompt := strings.TrimSpace(s.Problem)
	if prompt == "" {
		prompt = strings.TrimSpace(s.Description)
	}
	if prompt == "" {
		prompt = fmt.Sprintf("Design an n8n workflow similar to %q.", title)
	}

	description := s.Description
	if strings.TrimSpace(description) == "" {
		description = "No description available. Focus on the prompt for guidance."
	}

	return PromptExample{
		ID:           id,
		Title:        title,
		Prompt:       prompt,
		Description:  description,
		Industries:   nonNil(meta.Industries),
		Domains:      nonNil(meta.Domains),
		Channels:     nonNil(meta.Channels),
		Trigger:      meta.Trigger,
		Complexity:   meta.Complexity,
		Integrations: nonNil(meta.Integrations),
		Tags:         nonNil(s.Tags),
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
