// Package classify assigns detected spike waveforms to known units.
//
// A SnippetClassifier is trained on labeled snippets collected during
// the first sorting phase. Each training batch carries the unit label
// and the time offset its snippets were rolled by, so classification
// recovers both the unit identity and the alignment correction for
// each new snippet.
package classify

import (
	"fmt"

	"spikesort/internal/features"
	"spikesort/internal/waveform"
)

// trainingBatch buffers one unit/offset group until Fit is called.
type trainingBatch struct {
	snippets []waveform.Snippet
	label    int
	offset   int
}

// SnippetClassifier classifies spike snippets by nearest neighbor in a
// learned feature space shared across all units.
type SnippetClassifier struct {
	numComponents int
	batches       []trainingBatch
	fitted        bool

	projection *features.Projection
	points     [][]float64
	labels     []int
	offsets    []int
}

// NewSnippetClassifier creates an untrained classifier that will project
// snippets onto numComponents principal components.
func NewSnippetClassifier(numComponents int) *SnippetClassifier {
	return &SnippetClassifier{numComponents: numComponents}
}

// AddTrainingSnippets queues a batch of snippets belonging to one unit
// at one alignment offset. Batches cannot be added after Fit.
func (c *SnippetClassifier) AddTrainingSnippets(snippets []waveform.Snippet, label, offset int) error {
	if c.fitted {
		return fmt.Errorf("classifier is already fitted")
	}
	if len(snippets) == 0 {
		return nil
	}
	c.batches = append(c.batches, trainingBatch{snippets: snippets, label: label, offset: offset})
	return nil
}

// Fit learns the feature projection from all queued batches and stores
// each training snippet as a reference point. Training batches are
// released afterwards.
func (c *SnippetClassifier) Fit() error {
	if c.fitted {
		return fmt.Errorf("classifier is already fitted")
	}
	if len(c.batches) == 0 {
		return fmt.Errorf("no training snippets")
	}

	total := 0
	for _, batch := range c.batches {
		total += len(batch.snippets)
	}

	all := make([]waveform.Snippet, 0, total)
	labels := make([]int, 0, total)
	offsets := make([]int, 0, total)
	for _, batch := range c.batches {
		for _, snippet := range batch.snippets {
			all = append(all, snippet)
			labels = append(labels, batch.label)
			offsets = append(offsets, batch.offset)
		}
	}
	rows := waveform.Flatten(all)

	projection, err := features.Fit(rows, c.numComponents)
	if err != nil {
		return fmt.Errorf("failed to fit classifier features: %w", err)
	}
	points, err := projection.Transform(rows)
	if err != nil {
		return fmt.Errorf("failed to project training snippets: %w", err)
	}

	c.projection = projection
	c.points = points
	c.labels = labels
	c.offsets = offsets
	c.batches = nil
	c.fitted = true
	return nil
}

// Fitted reports whether Fit has completed.
func (c *SnippetClassifier) Fitted() bool {
	return c.fitted
}

// NumTrainingPoints returns how many reference points the classifier holds.
func (c *SnippetClassifier) NumTrainingPoints() int {
	return len(c.points)
}

// Classify assigns each snippet the label and offset of its nearest
// training point in feature space. The classifier must be fitted.
func (c *SnippetClassifier) Classify(snippets []waveform.Snippet) ([]int, []int, error) {
	if !c.fitted {
		return nil, nil, fmt.Errorf("classifier is not fitted")
	}
	if len(snippets) == 0 {
		return []int{}, []int{}, nil
	}

	points, err := c.projection.Transform(waveform.Flatten(snippets))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to project snippets: %w", err)
	}

	labels := make([]int, len(points))
	offsets := make([]int, len(points))
	for i, point := range points {
		best := 0
		bestDist := squaredDistance(point, c.points[0])
		for j := 1; j < len(c.points); j++ {
			if d := squaredDistance(point, c.points[j]); d < bestDist {
				best, bestDist = j, d
			}
		}
		labels[i] = c.labels[best]
		offsets[i] = c.offsets[best]
	}
	return labels, offsets, nil
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
