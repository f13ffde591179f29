package main

import (
	"github.com/spf13/cobra"

	"spikesort/internal/recording"
	"spikesort/internal/sorting"
)

// addRecordingFlags registers the flags every subcommand needs to open
// a recording and resolve its sorting parameters.
func addRecordingFlags(cmd *cobra.Command) {
	cmd.Flags().String("recording", "", "path to a raw float32 little-endian recording (channel-interleaved frames)")
	cmd.Flags().Int("channels", 0, "number of channels in the recording")
	cmd.Flags().Float64("rate", 30000, "sampling frequency in Hz")
	cmd.Flags().String("params", "", "YAML parameter file (defaults apply when omitted)")
	_ = cmd.MarkFlagRequired("recording")
	_ = cmd.MarkFlagRequired("channels")
}

// openRecording opens the binary recording described by the flags.
func openRecording(cmd *cobra.Command) (*recording.BinaryRecording, error) {
	path, _ := cmd.Flags().GetString("recording")
	channels, _ := cmd.Flags().GetInt("channels")
	rate, _ := cmd.Flags().GetFloat64("rate")
	return recording.OpenBinaryRecording(path, channels, rate, nil)
}

// loadParams resolves sorting parameters from the --params file and
// applies any flag overrides.
func loadParams(cmd *cobra.Command) (sorting.Scheme2Params, error) {
	params := sorting.DefaultScheme2Params()
	if path, _ := cmd.Flags().GetString("params"); path != "" {
		loaded, err := sorting.LoadParams(path)
		if err != nil {
			return sorting.Scheme2Params{}, err
		}
		params = loaded
	}
	if cmd.Flags().Changed("workers") {
		workers, _ := cmd.Flags().GetInt("workers")
		params = params.WithWorkers(workers)
	}
	return params, nil
}
