package steps

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

const (
	defaultSummary        = "Suggested workflow"
	unparsedSummary       = "AI response (unparsed)"
	unparsedNote          = "Unable to parse the model response. Please review the rawText payload."
	nonObjectWorkflowNote = "The model returned a workflow that is not a JSON object; it was replaced with an empty workflow."
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// ExtractJSON picks the JSON candidate from model text: a fenced block,
// else the span from the first '{' to the last '}', else the trimmed text.
func ExtractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(trimmed); m != nil {
		if inner := strings.TrimSpace(m[1]); inner != "" {
			return inner
		}
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}

// ParseModelOutput converts model text to a GenerationResult. It never fails;
// unparsable text yields a degraded result and degraded=true.
func ParseModelOutput(raw string) (result GenerationResult, degraded bool) {
	rawText := strings.TrimSpace(raw)

	dec := json.NewDecoder(bytes.NewReader([]byte(ExtractJSON(rawText))))
	dec.UseNumber()
	var parsed map[string]any
	if err := dec.Decode(&parsed); err != nil || parsed == nil {
		return GenerationResult{
			Summary:  unparsedSummary,
			Workflow: map[string]any{},
			Notes:    []string{unparsedNote},
			Actions:  []Action{},
			RawText:  rawText,
		}, true
	}

	summary, _ := parsed["summary"].(string)
	if strings.TrimSpace(summary) == "" {
		summary = defaultSummary
	}
	notes := stringListFrom(parsed["notes"])

	var workflow any = map[string]any{}
	switch wf := parsed["workflow"].(type) {
	case nil:
	case map[string]any:
		workflow = SanitizeWorkflow(wf)
	default:
		notes = append(notes, nonObjectWorkflowNote)
	}

	return GenerationResult{
		Summary:  summary,
		Workflow: workflow,
		Notes:    notes,
		Actions:  NormalizeActions(parsed["actions"]),
		RawText:  rawText,
	}, false
}

func stringListFrom(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
