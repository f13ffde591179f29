package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blob generates n points in a tight deterministic cloud around (cx, cy).
func blob(n int, cx, cy float64) [][]float64 {
	points := make([][]float64, n)
	for i := 0; i < n; i++ {
		dx := 0.1 * float64(i%5)
		dy := 0.1 * float64((i*3)%7)
		points[i] = []float64{cx + dx, cy + dy}
	}
	return points
}

func TestSingleBlobIsOneCluster(t *testing.T) {
	points := blob(20, 0, 0)

	labels, err := NewDensityClusterer().Cluster(points)
	require.NoError(t, err)
	require.Len(t, labels, 20)
	for _, l := range labels {
		assert.Equal(t, 1, l)
	}
}

func TestTwoSeparatedBlobsAreTwoClusters(t *testing.T) {
	points := append(blob(15, 0, 0), blob(15, 100, 100)...)

	labels, err := NewDensityClusterer().Cluster(points)
	require.NoError(t, err)

	// First blob seeds cluster 1, second cluster 2.
	for i := 0; i < 15; i++ {
		assert.Equal(t, 1, labels[i])
	}
	for i := 15; i < 30; i++ {
		assert.Equal(t, 2, labels[i])
	}
}

func TestEveryPointGetsALabel(t *testing.T) {
	// Two dense blobs plus one far outlier: the outlier must be attached
	// to its nearest cluster rather than dropped.
	points := append(blob(10, 0, 0), blob(10, 100, 100)...)
	points = append(points, []float64{90, 90})

	labels, err := NewDensityClusterer().Cluster(points)
	require.NoError(t, err)
	require.Len(t, labels, 21)
	assert.Equal(t, 2, labels[20])
	for _, l := range labels {
		assert.GreaterOrEqual(t, l, 1)
		assert.LessOrEqual(t, l, 2)
	}
}

func TestIdenticalPointsClusterTogether(t *testing.T) {
	points := make([][]float64, 8)
	for i := range points {
		points[i] = []float64{3, 4}
	}
	labels, err := NewDensityClusterer().Cluster(points)
	require.NoError(t, err)
	for _, l := range labels {
		assert.Equal(t, 1, l)
	}
}

func TestTinyInputFallsBackToOneCluster(t *testing.T) {
	labels, err := NewDensityClusterer().Cluster([][]float64{{0, 0}, {1000, 1000}})
	require.NoError(t, err)
	require.Len(t, labels, 2)
	// With minPts clamped to the input size both points are core points
	// of their own region or the whole set collapses to one cluster;
	// either way labels stay 1-based and contiguous.
	for _, l := range labels {
		assert.GreaterOrEqual(t, l, 1)
	}
	maxLabel := labels[0]
	for _, l := range labels {
		if l > maxLabel {
			maxLabel = l
		}
	}
	assert.LessOrEqual(t, maxLabel, 2)
}

func TestEmptyInput(t *testing.T) {
	labels, err := NewDensityClusterer().Cluster(nil)
	require.NoError(t, err)
	assert.Nil(t, labels)
}

func TestRaggedInputRejected(t *testing.T) {
	_, err := NewDensityClusterer().Cluster([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestDeterministic(t *testing.T) {
	points := append(blob(12, 0, 0), blob(12, 50, 0)...)
	c := NewDensityClusterer()

	a, err := c.Cluster(points)
	require.NoError(t, err)
	b, err := c.Cluster(points)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExplicitEps(t *testing.T) {
	// With a huge explicit radius everything is one cluster.
	points := append(blob(10, 0, 0), blob(10, 100, 100)...)
	c := &DensityClusterer{Eps: 1000, MinPts: 3}
	labels, err := c.Cluster(points)
	require.NoError(t, err)
	for _, l := range labels {
		assert.Equal(t, 1, l)
	}
}
