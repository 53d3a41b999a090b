package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		promptsFlags.limit = 10
		promptsFlags.file = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPromptsCommandPrintsJSON(t *testing.T) {
	out, err := runRoot(t, "prompts", "--limit", "3")
	if err != nil {
		t.Fatalf("prompts: %v\n%s", err, out)
	}
	var body struct {
		Prompts []map[string]any `json:"prompts"`
		Count   int              `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if body.Count != 3 || len(body.Prompts) != 3 {
		t.Fatalf("count: want=3 got=%d (%d prompts)", body.Count, len(body.Prompts))
	}
}

func TestPromptsCommandReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.json")
	data := `[{"id":"one","title":"Daily digest","description":"Email a digest every morning","tags":["email"],"workflow":{"nodes":[]}}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := runRoot(t, "prompts", "--file", path)
	if err != nil {
		t.Fatalf("prompts: %v\n%s", err, out)
	}
	if !bytes.Contains([]byte(out), []byte(`"count": 1`)) {
		t.Fatalf("expected one prompt, got:\n%s", out)
	}
}

func TestReadJSONFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readJSONFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestGenerateRequiresPrompt(t *testing.T) {
	if _, err := runRoot(t, "generate"); err == nil {
		t.Fatalf("expected args error")
	}
}
