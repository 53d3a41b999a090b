package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/flowgen-backend/internal/catalog"
	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen"
)

var promptsFlags struct {
	limit int
	file  string
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List curated example prompts",
	Args:  cobra.NoArgs,
	RunE:  runPrompts,
}

func init() {
	f := promptsCmd.Flags()
	f.IntVar(&promptsFlags.limit, "limit", catalog.DefaultPromptLimit, "Maximum prompts to print")
	f.StringVarP(&promptsFlags.file, "file", "f", "", "Sample workflows JSON (defaults to the embedded catalog)")
}

func runPrompts(cmd *cobra.Command, _ []string) error {
	load := catalog.Load
	if promptsFlags.file != "" {
		load = func() ([]catalog.Sample, error) { return catalog.LoadFile(promptsFlags.file) }
	}
	samples, err := load()
	if err != nil {
		return err
	}
	prompts := workflowgen.New(workflowgen.UsecasesDeps{}).PromptExamples(samples, promptsFlags.limit)
	return writeJSON(cmd, map[string]any{"prompts": prompts, "count": len(prompts)})
}
