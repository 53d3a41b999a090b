package steps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	metadataPlaceholder  = "n/a"
	workflowUnavailable  = "Workflow JSON unavailable."
	untitledExampleTitle = "Untitled example"
)

// BuildFewShotBlock renders ranked examples as prompt context. No examples
// yields "".
func BuildFewShotBlock(examples []RetrievedExample) string {
	if len(examples) == 0 {
		return ""
	}
	parts := make([]string, 0, len(examples))
	for i, ex := range examples {
		parts = append(parts, formatExample(i+1, ex))
	}
	return strings.Join(parts, "\n\n")
}

func formatExample(n int, ex RetrievedExample) string {
	title := strings.TrimSpace(ex.Title)
	if title == "" {
		title = untitledExampleTitle
	}
	tags := metadataPlaceholder
	if len(ex.Tags) > 0 {
		tags = strings.Join(ex.Tags, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Example %d: %s\n", n, title)
	fmt.Fprintf(&b, "Tags: %s\n", tags)
	fmt.Fprintf(&b, "Metadata: %s\n", formatMetadataLine(ex.Metadata))
	b.WriteString("Summary:\n")
	b.WriteString(strings.TrimSpace(ex.Summary))
	b.WriteString("\nWorkflow JSON:\n")
	if ex.Graph == nil {
		b.WriteString(workflowUnavailable)
	} else if js, err := prettyJSON(ex.Graph); err != nil {
		b.WriteString(workflowUnavailable)
	} else {
		b.WriteString(js)
	}
	return b.String()
}

func formatMetadataLine(m *InferredMetadata) string {
	if m == nil {
		m = &InferredMetadata{}
	}
	trigger := strings.TrimSpace(m.Trigger)
	if trigger == "" {
		trigger = metadataPlaceholder
	}
	return fmt.Sprintf("industries=%s; domains=%s; channels=%s; trigger=%s",
		joinOrPlaceholder(m.Industries),
		joinOrPlaceholder(m.Domains),
		joinOrPlaceholder(m.Channels),
		trigger,
	)
}

func joinOrPlaceholder(v []string) string {
	if len(v) == 0 {
		return metadataPlaceholder
	}
	return strings.Join(v, ", ")
}

func prettyJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func compactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
