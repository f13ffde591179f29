package sorting

import (
	"context"
	"fmt"

	"spikesort/internal/cluster"
	"spikesort/internal/detect"
	"spikesort/internal/event"
	"spikesort/internal/features"
	"spikesort/internal/merge"
	"spikesort/internal/progress"
	"spikesort/internal/recording"
	"spikesort/internal/waveform"
)

// SortScheme1 runs the single-pass sorter over a whole recording held
// in memory: detect spikes, extract masked snippets, project onto
// principal components, density-cluster, and optionally consolidate
// over-split units with a pairwise merge pass.
func SortScheme1(ctx context.Context, rec recording.Recording, params Scheme1Params, reporter progress.Reporter) (*recording.EventSorting, error) {
	if reporter == nil {
		reporter = progress.Nop()
	}
	if err := params.Check(); err != nil {
		return nil, err
	}

	traces, err := rec.Traces(ctx, 0, rec.NumSamples())
	if err != nil {
		return nil, fmt.Errorf("failed to load traces: %w", err)
	}
	locations := rec.ChannelLocations()
	timeRadius := timeRadiusFrames(rec.SamplingFrequency(), params.DetectTimeRadiusMsec)

	// Step 1: detect spikes, skipping the snippet window margins.
	times, channels, err := detect.Spikes(traces, locations, detect.Params{
		Threshold:     params.DetectThreshold,
		TimeRadius:    int(timeRadius),
		ChannelRadius: params.DetectChannelRadius,
		Polarity:      params.Polarity,
		MarginLeft:    params.SnippetT1,
		MarginRight:   params.SnippetT2,
	})
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	reporter.Info("detected spikes", "count", len(times))
	if len(times) == 0 {
		return recording.NewEventSorting(nil, nil)
	}

	// Step 2: extract snippets around each event.
	snippets, err := waveform.ExtractSnippets(traces, times, channels, params.SnippetT1, params.SnippetT2, locations, params.SnippetMaskRadius)
	if err != nil {
		return nil, fmt.Errorf("snippet extraction failed: %w", err)
	}

	// Step 3: cluster the events in feature space. A lone event cannot
	// be clustered and becomes its own unit.
	var labels []int
	if len(snippets) < 2 {
		labels = []int{1}
	} else {
		points, err := features.Compute(waveform.Flatten(snippets), params.NumPCA)
		if err != nil {
			return nil, fmt.Errorf("feature computation failed: %w", err)
		}
		labels, err = cluster.NewDensityClusterer().Cluster(points)
		if err != nil {
			return nil, fmt.Errorf("clustering failed: %w", err)
		}
	}
	unitIDs := event.UniqueLabels(labels)
	reporter.Info("clustered events", "units", len(unitIDs))

	// Step 4: merge units that are time-shifted copies of each other.
	if params.PairwiseMerge && len(unitIDs) > 1 {
		templates := make([]waveform.Snippet, len(unitIDs))
		for i, id := range unitIDs {
			var unitSnippets []waveform.Snippet
			for j, label := range labels {
				if label == id {
					unitSnippets = append(unitSnippets, snippets[j])
				}
			}
			templates[i] = waveform.MedianTemplate(unitSnippets)
		}

		engine := merge.NewEngine(merge.NewPCATester(), params.Polarity, timeRadius, reporter)
		result, err := engine.Merge(merge.Input{
			Snippets:  snippets,
			Templates: templates,
			Times:     times,
			Labels:    labels,
			UnitIDs:   unitIDs,
		})
		if err != nil {
			return nil, fmt.Errorf("pairwise merge failed: %w", err)
		}
		times, labels = result.Times, result.Labels
	}

	return recording.NewEventSorting(times, labels)
}
