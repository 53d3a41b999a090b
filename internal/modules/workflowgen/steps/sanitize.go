package steps

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

const ifNodeType = "n8n-nodes-base.if"

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// newConditionID is swapped in tests.
var newConditionID = func() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fallbackConditionID()
	}
	return id.String()
}

func fallbackConditionID() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return "cond-" + string(b)
}

// SanitizeWorkflow returns a shallow copy of graph with legacy IF-node
// conditions ({conditions: {value: [{value: "<expr>"}]}}) rewritten to the
// current filter shape. Non-object input is returned unchanged.
func SanitizeWorkflow(graph any) any {
	wf, ok := graph.(map[string]any)
	if !ok {
		return graph
	}
	out := shallowCopy(wf)
	nodes, ok := wf["nodes"].([]any)
	if !ok {
		return out
	}
	copied := make([]any, len(nodes))
	for i, n := range nodes {
		copied[i] = sanitizeNode(n)
	}
	out["nodes"] = copied
	return out
}

func sanitizeNode(n any) any {
	node, ok := n.(map[string]any)
	if !ok {
		return n
	}
	out := shallowCopy(node)
	if t, _ := node["type"].(string); t != ifNodeType {
		return out
	}
	params, ok := node["parameters"].(map[string]any)
	if !ok {
		return out
	}
	conds, ok := params["conditions"].(map[string]any)
	if !ok {
		return out
	}
	legacy, ok := conds["value"].([]any)
	if !ok {
		return out
	}

	newParams := shallowCopy(params)
	if normalized := normalizeIfConditions(legacy); normalized != nil {
		newParams["conditions"] = normalized
	} else {
		delete(newParams, "conditions")
	}
	out["parameters"] = newParams
	return out
}

func normalizeIfConditions(legacy []any) map[string]any {
	conditions := make([]any, 0, len(legacy))
	for _, entry := range legacy {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		expr, _ := m["value"].(string)
		if expr == "" {
			continue
		}
		id, _ := m["id"].(string)
		if strings.TrimSpace(id) == "" {
			id = newConditionID()
		}
		conditions = append(conditions, map[string]any{
			"id":         id,
			"leftValue":  expr,
			"rightValue": "",
			"operator": map[string]any{
				"type":        "boolean",
				"operation":   "true",
				"singleValue": true,
			},
		})
	}
	if len(conditions) == 0 {
		return nil
	}
	return map[string]any{
		"options": map[string]any{
			"caseSensitive":  true,
			"leftValue":      "",
			"typeValidation": "strict",
			"version":        2,
		},
		"combinator": "and",
		"conditions": conditions,
	}
}

func shallowCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
