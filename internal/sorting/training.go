package sorting

import (
	"fmt"
	"sort"

	"spikesort/internal/classify"
	"spikesort/internal/event"
	"spikesort/internal/progress"
	"spikesort/internal/waveform"
)

// TrainingParams configure classifier training from phase-1 output.
type TrainingParams struct {
	Polarity            waveform.Polarity
	DetectThreshold     float64
	SnippetT1           int
	MaxSnippetsPerBatch int
	NumComponents       int
}

// TrainClassifier builds a snippet classifier from the labeled training
// snippets produced by the phase-1 sort. For each unit it derives the
// alignment offsets worth recognizing: one per channel whose rectified
// template peak exceeds half the detection threshold, measured against
// the canonical alignment point T1. The unit's snippets are rolled to
// each offset, subsampled, and queued as a training batch, then the
// classifier is fitted once.
func TrainClassifier(snippets []waveform.Snippet, labels []int, params TrainingParams, reporter progress.Reporter) (*classify.SnippetClassifier, error) {
	if reporter == nil {
		reporter = progress.Nop()
	}
	if len(snippets) != len(labels) {
		return nil, fmt.Errorf("snippets/labels length mismatch: %d vs %d", len(snippets), len(labels))
	}

	classifier := classify.NewSnippetClassifier(params.NumComponents)
	for _, unitID := range event.UniqueLabels(labels) {
		var unitSnippets []waveform.Snippet
		for i, label := range labels {
			if label == unitID {
				unitSnippets = append(unitSnippets, snippets[i])
			}
		}

		template := waveform.MedianTemplate(unitSnippets)
		summary := waveform.SummarizePeaks(waveform.Rectify(template, params.Polarity))
		offsets := trainingOffsets(summary, params.DetectThreshold, params.SnippetT1)
		if len(offsets) == 0 {
			// No channel peaks clear of the threshold; the unit cannot
			// anchor an alignment and contributes no training data.
			reporter.Info("skipping weak unit", "unit", unitID)
			continue
		}

		for _, offset := range offsets {
			batch := waveform.Subsample(waveform.Roll(unitSnippets, -offset), params.MaxSnippetsPerBatch)
			if err := classifier.AddTrainingSnippets(batch, unitID, offset); err != nil {
				return nil, fmt.Errorf("failed to queue training batch for unit %d: %w", unitID, err)
			}
		}
		reporter.Info("queued training batches", "unit", unitID, "offsets", len(offsets), "snippets", len(unitSnippets))
	}

	if err := classifier.Fit(); err != nil {
		return nil, fmt.Errorf("failed to fit classifier: %w", err)
	}
	reporter.Info("classifier fitted", "points", classifier.NumTrainingPoints())
	return classifier, nil
}

// trainingOffsets returns the sorted, deduplicated peak offsets of all
// channels whose rectified peak exceeds half the detection threshold.
func trainingOffsets(summary waveform.PeakSummary, detectThreshold float64, t1 int) []int {
	var offsets []int
	for m, value := range summary.Values {
		if value > detectThreshold*0.5 {
			offsets = append(offsets, summary.Times[m]-t1)
		}
	}
	sort.Ints(offsets)

	unique := offsets[:0]
	for i, offset := range offsets {
		if i == 0 || offset != offsets[i-1] {
			unique = append(unique, offset)
		}
	}
	return unique
}
