package main

import (
	"os"

	"github.com/spf13/cobra"

	"spikesort/internal/progress"
	"spikesort/internal/sorting"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a snippet classifier and save it as JSON",
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

			reporter := progress.NewLogger(os.Stderr)
			classifier, err := sorting.TrainScheme2Classifier(cmd.Context(), rec, params, reporter)
			if err != nil {
				return err
			}

			modelPath, _ := cmd.Flags().GetString("model")
			if err := classifier.Save(modelPath); err != nil {
				return err
			}
			reporter.Info("classifier saved", "path", modelPath,
				"points", classifier.NumTrainingPoints())
			return nil
		},
	}
	addRecordingFlags(cmd)
	cmd.Flags().String("model", "classifier.json", "output path for the classifier JSON")
	return cmd
}
