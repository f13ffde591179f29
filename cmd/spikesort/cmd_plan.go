package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spikesort/internal/chunk"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the chunk plan for a recording and parameter set",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := loadParams(cmd)
			if err != nil {
				return err
			}
			rec, err := openRecording(cmd)
			if err != nil {
				return err
			}
			defer rec.Close()
			if err := params.Check(rec.NumChannels(), rec.NumSamples(), rec.SamplingFrequency()); err != nil {
				return err
			}

			chunkSize := params.EffectiveChunkSize(rec.NumChannels())
			chunks, err := chunk.Plan(rec.NumSamples(), chunkSize, params.ChunkPadding)
			if err != nil {
				return err
			}

			fmt.Printf("Recording: %d samples x %d channels at %.0f Hz (%.1f s)\n",
				rec.NumSamples(), rec.NumChannels(), rec.SamplingFrequency(),
				float64(rec.NumSamples())/rec.SamplingFrequency())
			fmt.Printf("Chunk size: %d samples, padding: %d samples\n\n",
				chunkSize, params.ChunkPadding)

			fmt.Printf("%-8s %14s %14s %10s %10s %14s\n",
				"Chunk", "Start", "End", "PadLeft", "PadRight", "Total")
			for i, c := range chunks {
				fmt.Printf("%-8d %14d %14d %10d %10d %14d\n",
					i+1, c.Start, c.End, c.PaddingLeft, c.PaddingRight, c.TotalSize())
			}
			fmt.Printf("\nTotal: %d chunks\n", len(chunks))
			return nil
		},
	}
	addRecordingFlags(cmd)
	return cmd
}
