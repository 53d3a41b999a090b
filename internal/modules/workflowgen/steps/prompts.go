package steps

import "strings"

const systemInstruction = `You are an assistant that converts natural language automation requests into n8n workflow JSON.
Always respond with valid JSON that fits the following TypeScript interface:
type AiWorkflowSuggestion = {
  summary: string;
  workflow: object; // valid n8n workflow JSON with nodes and connections
  notes?: string[];
  actions?: {
    type: "replace_artifact" | "add_node" | "remove_node" | "update_node" | "reconnect_nodes" | "custom";
    summary: string;
    targetNode?: string;
    details?: object;
    metadata?: object;
  }[];
};
Do not wrap the JSON in markdown fences. Keep the response short but accurate.
Use the reference workflows, when given, as patterns for node types and parameters.`

// SystemInstruction is the fixed system prompt for every model call.
func SystemInstruction() string { return systemInstruction }

// BuildUserPrompt assembles the user turn. fewShot and snapshot are omitted
// when empty.
func BuildUserPrompt(prompt, fewShot, snapshot string) string {
	var b strings.Builder
	b.WriteString("Produce an n8n workflow for the following request:\n\"\"\"")
	b.WriteString(prompt)
	b.WriteString("\"\"\"")

	if fewShot = strings.TrimSpace(fewShot); fewShot != "" {
		b.WriteString("\n\nReference workflows that solved similar problems:\n\n")
		b.WriteString(fewShot)
	}
	if snapshot = strings.TrimSpace(snapshot); snapshot != "" {
		b.WriteString("\n\nThe user is editing this existing workflow:\n")
		b.WriteString(snapshot)
		b.WriteString("\n\nReturn the full updated workflow in \"workflow\" and list each discrete change in \"actions\".")
	}
	return b.String()
}
