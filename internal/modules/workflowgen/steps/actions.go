package steps

import "strings"

// NormalizeActions keeps only object entries with a non-empty summary.
// Unknown types become custom. Non-list input yields an empty list.
func NormalizeActions(raw any) []Action {
	list, ok := raw.([]any)
	if !ok {
		return []Action{}
	}
	out := make([]Action, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		summary, _ := m["summary"].(string)
		summary = strings.TrimSpace(summary)
		if summary == "" {
			continue
		}
		a := Action{
			Type:    parseActionType(m["type"]),
			Summary: summary,
		}
		if target, ok := m["targetNode"].(string); ok {
			a.TargetNode = strings.TrimSpace(target)
		}
		if details, ok := m["details"].(map[string]any); ok {
			a.Details = details
		}
		if meta, ok := m["metadata"].(map[string]any); ok {
			a.Metadata = meta
		}
		out = append(out, a)
	}
	return out
}

func parseActionType(v any) ActionType {
	s, ok := v.(string)
	if !ok {
		return ActionCustom
	}
	for _, t := range actionTypes {
		if string(t) == s {
			return t
		}
	}
	return ActionCustom
}
