// flowgen turns natural-language prompts into n8n workflow suggestions.
//
// Usage:
//
//	flowgen serve [--config flowgen.yaml]
//	flowgen seed [--file samples.json]
//	flowgen generate "<prompt>" [--existing workflow.json]
//	flowgen prompts [--limit N]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/flowgen-backend/internal/app"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
}

var rootCmd = &cobra.Command{
	Use:   "flowgen",
	Short: "Generate n8n workflows from natural-language prompts",
	Long:  "flowgen retrieves similar example workflows, prompts a model with them,\nand returns a sanitized n8n workflow plus editor actions.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "YAML config file (defaults to $FLOWGEN_CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.Version = version
}

func newApp(ctx context.Context) (*app.App, error) {
	cfg, err := app.LoadConfig(rootFlags.configPath)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
