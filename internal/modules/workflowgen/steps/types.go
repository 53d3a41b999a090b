package steps

import "context"

// GenerationRequest is one call into the pipeline. ExistingWorkflow is the
// raw editor payload; it is decoded into an ArtifactSnapshot only for
// prompt formatting.
type GenerationRequest struct {
	Prompt           string `json:"prompt"`
	ExistingWorkflow any    `json:"existingWorkflow,omitempty"`
}

type ArtifactSnapshot struct {
	ID          string
	Name        string
	Nodes       []NodeSnapshot
	Connections any
}

type NodeSnapshot struct {
	ID         string
	Name       string
	Type       string
	Position   any
	Parameters any
	Notes      string
}

type InferredMetadata struct {
	Industries []string `json:"industries"`
	Domains    []string `json:"domains"`
	Channels   []string `json:"channels"`
	Trigger    string   `json:"trigger,omitempty"`
}

// ExampleGraph is the part of a stored workflow that is shown to the model.
type ExampleGraph struct {
	Name        any `json:"name,omitempty"`
	Nodes       any `json:"nodes,omitempty"`
	Connections any `json:"connections,omitempty"`
}

type RetrievedExample struct {
	Title    string
	Summary  string
	Tags     []string
	Metadata *InferredMetadata
	Graph    *ExampleGraph
}

type ActionType string

const (
	ActionReplaceArtifact ActionType = "replace_artifact"
	ActionAddNode         ActionType = "add_node"
	ActionRemoveNode      ActionType = "remove_node"
	ActionUpdateNode      ActionType = "update_node"
	ActionReconnectNodes  ActionType = "reconnect_nodes"
	ActionCustom          ActionType = "custom"
)

var actionTypes = []ActionType{
	ActionReplaceArtifact,
	ActionAddNode,
	ActionRemoveNode,
	ActionUpdateNode,
	ActionReconnectNodes,
	ActionCustom,
}

type Action struct {
	Type       ActionType     `json:"type"`
	Summary    string         `json:"summary"`
	TargetNode string         `json:"targetNode,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type GenerationResult struct {
	Summary  string   `json:"summary"`
	Workflow any      `json:"workflow"`
	Notes    []string `json:"notes,omitempty"`
	Actions  []Action `json:"actions"`
	RawText  string   `json:"rawText"`
}

// SearchHit is one similarity-search result before it is decoded into a
// RetrievedExample.
type SearchHit struct {
	PageContent string
	Metadata    map[string]any
}

type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]SearchHit, error)
}

// Generator runs a single model call.
type Generator interface {
	Generate(ctx context.Context, model, system, user string) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
