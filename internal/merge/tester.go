package merge

import (
	"errors"
	"fmt"

	"spikesort/internal/cluster"
	"spikesort/internal/features"
	"spikesort/internal/waveform"
)

// mergeTestNumComponents is the feature dimension used when testing
// whether two pooled snippet sets form a single cluster.
const mergeTestNumComponents = 12

// Tester decides whether two units' snippet sets belong to one unit.
type Tester interface {
	Mergeable(a, b []waveform.Snippet) (bool, error)
}

// PCATester pools both snippet sets, projects them onto principal
// components and density-clusters the result. The units are mergeable
// when the pooled cloud forms exactly one cluster.
type PCATester struct {
	NumComponents int
	Clusterer     cluster.Clusterer
}

// NewPCATester returns a tester with the standard feature dimension and
// clusterer.
func NewPCATester() *PCATester {
	return &PCATester{
		NumComponents: mergeTestNumComponents,
		Clusterer:     cluster.NewDensityClusterer(),
	}
}

// Mergeable reports whether the pooled snippets of both units cluster
// as one. Pools too small to support the feature projection are never
// mergeable; that is a verdict, not an error.
func (t *PCATester) Mergeable(a, b []waveform.Snippet) (bool, error) {
	pooled := make([]waveform.Snippet, 0, len(a)+len(b))
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)
	if len(pooled) < t.NumComponents {
		return false, nil
	}
	rows := waveform.Flatten(pooled)

	points, err := features.Compute(rows, t.NumComponents)
	if errors.Is(err, features.ErrDegenerate) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to compute merge test features: %w", err)
	}

	labels, err := t.Clusterer.Cluster(points)
	if err != nil {
		return false, fmt.Errorf("failed to cluster merge test features: %w", err)
	}

	maxLabel := 0
	for _, label := range labels {
		if label > maxLabel {
			maxLabel = label
		}
	}
	return maxLabel == 1, nil
}

var _ Tester = (*PCATester)(nil)
