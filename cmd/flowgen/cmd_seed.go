package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/flowgen-backend/internal/catalog"
)

var seedFlags struct {
	file string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Embed example workflows and replace the vector collection",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFlags.file, "file", "f", "", "Sample workflows JSON (defaults to the embedded catalog)")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	var samples []catalog.Sample
	if seedFlags.file != "" {
		loaded, err := catalog.LoadFile(seedFlags.file)
		if err != nil {
			return err
		}
		samples = loaded
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Seed(cmd.Context(), samples)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d samples in %s\n", res.Seeded, res.Duration)
	return nil
}
