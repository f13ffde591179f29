package sorting

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"spikesort/internal/chunk"
	"spikesort/internal/classify"
	"spikesort/internal/detect"
	"spikesort/internal/event"
	"spikesort/internal/merge"
	"spikesort/internal/progress"
	"spikesort/internal/recording"
	"spikesort/internal/waveform"
)

// SortScheme2 runs the full two-phase sort: phase 1 sorts a training
// subsample and trains a classifier on its units, phase 2 streams the
// whole recording chunk by chunk through detection and classification.
func SortScheme2(ctx context.Context, rec recording.Recording, params Scheme2Params, reporter progress.Reporter) (*recording.EventSorting, error) {
	classifier, err := TrainScheme2Classifier(ctx, rec, params, reporter)
	if err != nil {
		return nil, err
	}
	return SortScheme2WithClassifier(ctx, rec, classifier, params, reporter)
}

// TrainScheme2Classifier runs the training half of scheme 2: subsample
// the recording, sort the subsample with scheme 1, and fit a snippet
// classifier on the units that sort found.
func TrainScheme2Classifier(ctx context.Context, rec recording.Recording, params Scheme2Params, reporter progress.Reporter) (*classify.SnippetClassifier, error) {
	if reporter == nil {
		reporter = progress.Nop()
	}
	samplingFrequency := rec.SamplingFrequency()
	if err := params.Check(rec.NumChannels(), rec.NumSamples(), samplingFrequency); err != nil {
		return nil, err
	}

	// Step 1: subsample the recording for training.
	trainingRec := rec
	if params.TrainingDurationSec > 0 {
		sampled, err := recording.SampleForTraining(ctx, rec, params.TrainingDurationSec, params.TrainingSamplingMode)
		if err != nil {
			return nil, fmt.Errorf("training subsample failed: %w", err)
		}
		trainingRec = sampled
	}
	reporter.Info("training recording ready", "samples", trainingRec.NumSamples(),
		"seconds", float64(trainingRec.NumSamples())/samplingFrequency)

	// Step 2: phase-1 sort of the training recording.
	sorting1, err := SortScheme1(ctx, trainingRec, params.phase1(), reporter)
	if err != nil {
		return nil, fmt.Errorf("phase 1 sort failed: %w", err)
	}
	times1, labels1 := recording.TimesLabels(sorting1)
	reporter.Info("phase 1 complete", "units", len(sorting1.UnitIDs()), "events", len(times1))

	// Step 3: re-extract the training snippets without channel masking,
	// so the classifier sees full waveforms.
	trainingTraces, err := trainingRec.Traces(ctx, 0, trainingRec.NumSamples())
	if err != nil {
		return nil, fmt.Errorf("failed to load training traces: %w", err)
	}
	trainingSnippets, err := waveform.ExtractSnippets(trainingTraces, times1, nil, params.SnippetT1, params.SnippetT2, nil, -1)
	if err != nil {
		return nil, fmt.Errorf("training snippet extraction failed: %w", err)
	}

	// Step 4: train the classifier on the phase-1 units.
	return TrainClassifier(trainingSnippets, labels1, TrainingParams{
		Polarity:            params.Polarity,
		DetectThreshold:     params.DetectThreshold,
		SnippetT1:           params.SnippetT1,
		MaxSnippetsPerBatch: params.MaxTrainingSnippetsPerBatch,
		NumComponents:       params.ClassifierNumPCA,
	}, reporter)
}

// SortScheme2WithClassifier streams the whole recording through a
// fitted classifier, chunk by chunk. It is phase 2 alone: pair it with
// a persisted classifier to skip retraining on repeat runs.
func SortScheme2WithClassifier(ctx context.Context, rec recording.Recording, classifier *classify.SnippetClassifier, params Scheme2Params, reporter progress.Reporter) (*recording.EventSorting, error) {
	if reporter == nil {
		reporter = progress.Nop()
	}
	numChannels := rec.NumChannels()
	numSamples := rec.NumSamples()
	samplingFrequency := rec.SamplingFrequency()
	if err := params.Check(numChannels, numSamples, samplingFrequency); err != nil {
		return nil, err
	}
	if !classifier.Fitted() {
		return nil, fmt.Errorf("classifier is not fitted")
	}

	// Step 1: plan chunks over the full recording.
	chunkSize := params.EffectiveChunkSize(numChannels)
	chunks, err := chunk.Plan(numSamples, chunkSize, params.ChunkPadding)
	if err != nil {
		return nil, err
	}
	reporter.Info("planned chunks", "count", len(chunks), "size", chunkSize,
		"seconds", float64(chunkSize)/samplingFrequency)

	// Step 2: detect and classify chunk by chunk. Each chunk owns one
	// result slot, so completion order cannot affect the output.
	timeRadius := timeRadiusFrames(samplingFrequency, params.DetectTimeRadiusMsec)
	type chunkResult struct {
		times  []int64
		labels []int
	}
	results := make([]chunkResult, len(chunks))

	runChunk := func(ctx context.Context, i int) error {
		var lastErr error
		for attempt := 0; attempt <= params.ChunkRetries; attempt++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			times, labels, err := processChunk(ctx, rec, classifier, params, timeRadius, chunks[i])
			if err == nil {
				results[i] = chunkResult{times: times, labels: labels}
				return nil
			}
			lastErr = err
			if attempt < params.ChunkRetries {
				reporter.Info("retrying chunk", "chunk", i+1, "error", err)
			}
		}
		return fmt.Errorf("chunk %d of %d failed: %w", i+1, len(chunks), lastErr)
	}

	if params.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(params.Workers)
		for i := range chunks {
			i := i
			g.Go(func() error {
				return runChunk(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range chunks {
			reporter.Info("processing chunk", "chunk", i+1, "total", len(chunks))
			if err := runChunk(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	// Step 3: concatenate per-chunk results. Chunks are disjoint and
	// ordered, so the global stream is already time-ascending.
	var allTimes []int64
	var allLabels []int
	for _, r := range results {
		allTimes = append(allTimes, r.times...)
		allLabels = append(allLabels, r.labels...)
	}
	reporter.Info("sorting complete", "events", len(allTimes))
	return recording.NewEventSorting(allTimes, allLabels)
}

// processChunk runs detection and classification on one padded chunk
// and returns its core-region events on the global time axis.
func processChunk(ctx context.Context, rec recording.Recording, classifier *classify.SnippetClassifier, params Scheme2Params, timeRadius int64, c chunk.TimeChunk) ([]int64, []int, error) {
	traces, err := rec.Traces(ctx, c.Start-c.PaddingLeft, c.End+c.PaddingRight)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load traces: %w", err)
	}
	locations := rec.ChannelLocations()

	times, channels, err := detect.Spikes(traces, locations, detect.Params{
		Threshold:     params.DetectThreshold,
		TimeRadius:    int(timeRadius),
		ChannelRadius: params.DetectChannelRadius,
		Polarity:      params.Polarity,
		MarginLeft:    params.SnippetT1,
		MarginRight:   params.SnippetT2,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("detection failed: %w", err)
	}
	if len(times) == 0 {
		return nil, nil, nil
	}

	snippets, err := waveform.ExtractSnippets(traces, times, channels, params.SnippetT1, params.SnippetT2, locations, params.SnippetMaskRadius)
	if err != nil {
		return nil, nil, fmt.Errorf("snippet extraction failed: %w", err)
	}

	labels, offsets, err := classifier.Classify(snippets)
	if err != nil {
		return nil, nil, fmt.Errorf("classification failed: %w", err)
	}

	// Correct each event time by its classified alignment offset, then
	// restore time order and drop near-coincident repeats.
	for i := range times {
		times[i] -= int64(offsets[i])
	}
	event.SortByTime(times, labels)
	times, labels = merge.RemoveDuplicateEvents(times, labels, timeRadius)

	// Keep only events inside the chunk core and translate them to the
	// global axis. Padding regions belong to the neighboring chunks.
	total := c.TotalSize()
	outTimes := make([]int64, 0, len(times))
	outLabels := make([]int, 0, len(labels))
	for i, tm := range times {
		if tm < c.PaddingLeft || tm >= total-c.PaddingRight {
			continue
		}
		outTimes = append(outTimes, tm+c.Start-c.PaddingLeft)
		outLabels = append(outLabels, labels[i])
	}
	return outTimes, outLabels, nil
}
