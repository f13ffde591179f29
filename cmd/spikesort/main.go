// Command spikesort sorts multichannel extracellular recordings into
// labeled spike trains: phase 1 trains a snippet classifier on a
// subsample, phase 2 streams the whole recording through it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spikesort/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spikesort",
		Short: "Spike sorting for multichannel extracellular recordings",
		Long: "spikesort turns raw binary recordings into labeled spike trains.\n" +
			"A training pass fits a snippet classifier to the units found in a\n" +
			"subsample; the streaming pass then classifies detected spikes chunk\n" +
			"by chunk over the full recording.",
		Version: version.String(),
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newPlanCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
