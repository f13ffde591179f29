package main

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"spikesort/internal/classify"
	"spikesort/internal/progress"
	"spikesort/internal/recording"
	"spikesort/internal/sorting"
	"spikesort/internal/version"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sort a recording into labeled spike trains",
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
			runID := uuid.NewString()
			started := time.Now().UTC()
			reporter.Info("starting sort", "run", runID, "samples", rec.NumSamples(),
				"channels", rec.NumChannels(), "rate", rec.SamplingFrequency())

			result, err := runSort(cmd, rec, params, reporter)
			if err != nil {
				return err
			}

			outPath, _ := cmd.Flags().GetString("out")
			if err := writeEventsCSV(outPath, result); err != nil {
				return err
			}

			if manifestPath, _ := cmd.Flags().GetString("manifest"); manifestPath != "" {
				recordingPath, _ := cmd.Flags().GetString("recording")
				modelPath, _ := cmd.Flags().GetString("model")
				manifest := RunManifest{
					RunID:             runID,
					Version:           version.Version,
					Recording:         recordingPath,
					NumChannels:       rec.NumChannels(),
					NumSamples:        rec.NumSamples(),
					SamplingFrequency: rec.SamplingFrequency(),
					StartedAt:         started,
					FinishedAt:        time.Now().UTC(),
					Units:             len(result.UnitIDs()),
					Events:            result.NumEvents(),
					EventsPath:        outPath,
					ModelPath:         modelPath,
				}
				if err := writeManifest(manifestPath, manifest); err != nil {
					return err
				}
			}

			reporter.Info("run complete", "run", runID, "units", len(result.UnitIDs()),
				"events", result.NumEvents(), "out", outPath)
			return nil
		},
	}
	addRecordingFlags(cmd)
	cmd.Flags().Int("workers", 0, "concurrent chunk workers (overrides params)")
	cmd.Flags().String("model", "", "stream through a saved classifier JSON instead of retraining")
	cmd.Flags().String("out", "events.csv", "CSV output path, one time,unit row per event")
	cmd.Flags().String("manifest", "manifest.json", "JSON run manifest path (empty to skip)")
	return cmd
}

// runSort picks the full two-phase sort or, when --model names a saved
// classifier, streaming alone.
func runSort(cmd *cobra.Command, rec recording.Recording, params sorting.Scheme2Params, reporter progress.Reporter) (*recording.EventSorting, error) {
	modelPath, _ := cmd.Flags().GetString("model")
	if modelPath == "" {
		return sorting.SortScheme2(cmd.Context(), rec, params, reporter)
	}
	classifier, err := classify.LoadSnippetClassifier(modelPath)
	if err != nil {
		return nil, err
	}
	reporter.Info("loaded classifier", "path", modelPath, "points", classifier.NumTrainingPoints())
	return sorting.SortScheme2WithClassifier(cmd.Context(), rec, classifier, params, reporter)
}
