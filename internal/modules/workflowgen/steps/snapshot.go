package steps

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	SnapshotNodeLimit    = 20
	ParameterPreviewSize = 400
)

// DecodeSnapshot reads an editor workflow payload. ok is false when raw is
// not an object.
func DecodeSnapshot(raw any) (ArtifactSnapshot, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return ArtifactSnapshot{}, false
	}
	snap := ArtifactSnapshot{
		ID:          strings.TrimSpace(stringFrom(m["id"])),
		Name:        strings.TrimSpace(stringFrom(m["name"])),
		Connections: m["connections"],
	}
	nodes, _ := m["nodes"].([]any)
	for _, n := range nodes {
		nm, ok := n.(map[string]any)
		if !ok {
			snap.Nodes = append(snap.Nodes, NodeSnapshot{})
			continue
		}
		snap.Nodes = append(snap.Nodes, NodeSnapshot{
			ID:         strings.TrimSpace(stringFrom(nm["id"])),
			Name:       strings.TrimSpace(stringFrom(nm["name"])),
			Type:       strings.TrimSpace(stringFrom(nm["type"])),
			Position:   nm["position"],
			Parameters: nm["parameters"],
			Notes:      strings.TrimSpace(stringFrom(nm["notes"])),
		})
	}
	return snap, true
}

// FormatArtifactSnapshot renders the first SnapshotNodeLimit nodes of snap.
func FormatArtifactSnapshot(snap ArtifactSnapshot) string {
	name := snap.Name
	if name == "" {
		name = "Untitled workflow"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Workflow name: %s\n", name)
	fmt.Fprintf(&b, "Node count: %d\n", len(snap.Nodes))

	shown := snap.Nodes
	if len(shown) > SnapshotNodeLimit {
		shown = shown[:SnapshotNodeLimit]
	}
	if len(shown) > 0 {
		b.WriteString("Nodes:\n")
	}
	for i, n := range shown {
		label := n.Name
		if label == "" {
			label = n.ID
		}
		if label == "" {
			label = fmt.Sprintf("node-%d", i+1)
		}
		typ := n.Type
		if typ == "" {
			typ = "unknown"
		}
		fmt.Fprintf(&b, "%d. %s (type: %s", i+1, label, typ)
		if n.Position != nil {
			if pos, err := compactJSON(n.Position); err == nil {
				fmt.Fprintf(&b, ", position: %s", pos)
			}
		}
		b.WriteString(")")
		if n.Parameters != nil {
			if params, err := compactJSON(n.Parameters); err == nil {
				fmt.Fprintf(&b, "\n   parameters: %s", truncateRunes(params, ParameterPreviewSize))
			}
		}
		if n.Notes != "" {
			fmt.Fprintf(&b, "\n   notes: %s", truncateRunes(n.Notes, ParameterPreviewSize))
		}
		b.WriteString("\n")
	}
	if extra := len(snap.Nodes) - len(shown); extra > 0 {
		fmt.Fprintf(&b, "...and %d more node(s) not shown.\n", extra)
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
