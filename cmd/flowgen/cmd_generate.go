package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen"
)

var generateFlags struct {
	existing string
}

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate one workflow suggestion and print it as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateFlags.existing, "existing", "", "Existing workflow JSON to edit")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req := workflowgen.GenerationRequest{Prompt: strings.Join(args, " ")}
	if generateFlags.existing != "" {
		existing, err := readJSONFile(generateFlags.existing)
		if err != nil {
			return err
		}
		req.ExistingWorkflow = existing
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Workflows.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeJSON(cmd, res)
}

func readJSONFile(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
