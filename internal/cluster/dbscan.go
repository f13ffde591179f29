// Package cluster groups feature vectors by density. The sorter treats
// clustering as a pluggable primitive: any implementation that labels
// every vector with contiguous 1-based cluster ids can stand in.
package cluster

import (
	"fmt"
	"math"
	"sort"
)

// Clusterer assigns cluster labels to feature vectors. Labels are
// 1-based and contiguous, and every vector receives one.
type Clusterer interface {
	Cluster(points [][]float64) ([]int, error)
}

// DefaultMinPts is the core-point threshold used when none is set.
const DefaultMinPts = 5

// defaultEpsFactor scales the median neighbor distance into the
// DBSCAN radius when no explicit radius is configured.
const defaultEpsFactor = 2.0

// DensityClusterer implements Clusterer with DBSCAN. When Eps is zero
// the radius is derived from the data: the median distance to the
// MinPts-th nearest neighbor, scaled by a fixed factor. That keeps a
// single dense cloud in one cluster while separating clearly disjoint
// clouds, without per-dataset tuning.
//
// Points that end up in no dense region are attached to the cluster of
// their nearest labeled point, so the output always covers every input.
type DensityClusterer struct {
	Eps    float64 // neighborhood radius; 0 derives it from the data
	MinPts int     // core point threshold; 0 uses DefaultMinPts
}

// NewDensityClusterer returns a clusterer with adaptive radius selection.
func NewDensityClusterer() *DensityClusterer {
	return &DensityClusterer{MinPts: DefaultMinPts}
}

// Cluster labels the points. The result is deterministic for a fixed
// input: clusters are numbered in order of their first point.
func (c *DensityClusterer) Cluster(points [][]float64) ([]int, error) {
	n := len(points)
	if n == 0 {
		return nil, nil
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("ragged input: point %d has %d values, expected %d", i, len(p), dim)
		}
	}

	minPts := c.MinPts
	if minPts <= 0 {
		minPts = DefaultMinPts
	}
	if minPts > n {
		minPts = n
	}

	eps := c.Eps
	if eps <= 0 {
		eps = adaptiveEps(points, minPts)
	}
	eps2 := eps * eps

	labels := make([]int, n)
	next := 1
	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbors := regionQuery(points, i, eps2)
		if len(neighbors) < minPts {
			continue
		}
		labels[i] = next
		queue := append([]int(nil), neighbors...)
		for head := 0; head < len(queue); head++ {
			j := queue[head]
			if labels[j] != 0 {
				continue
			}
			labels[j] = next
			expanded := regionQuery(points, j, eps2)
			if len(expanded) >= minPts {
				queue = append(queue, expanded...)
			}
		}
		next++
	}

	// No dense region at all: treat the whole set as one cluster.
	if next == 1 {
		for i := range labels {
			labels[i] = 1
		}
		return labels, nil
	}

	attachStragglers(points, labels)
	return labels, nil
}

// regionQuery returns the indices within sqrt(eps2) of point i,
// including i itself.
func regionQuery(points [][]float64, i int, eps2 float64) []int {
	var neighbors []int
	for j := range points {
		if squaredDistance(points[i], points[j]) <= eps2 {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

// attachStragglers assigns every unlabeled point the label of its
// nearest labeled point. Attachment is computed against the labels from
// the density pass so stragglers cannot chain off each other.
func attachStragglers(points [][]float64, labels []int) {
	var labeled []int
	for i, l := range labels {
		if l != 0 {
			labeled = append(labeled, i)
		}
	}
	for i, l := range labels {
		if l != 0 {
			continue
		}
		best := labeled[0]
		bestDist := squaredDistance(points[i], points[best])
		for _, j := range labeled[1:] {
			if d := squaredDistance(points[i], points[j]); d < bestDist {
				bestDist = d
				best = j
			}
		}
		labels[i] = labels[best]
	}
}

// adaptiveEps derives the DBSCAN radius from the distribution of
// k-th nearest neighbor distances.
func adaptiveEps(points [][]float64, k int) float64 {
	n := len(points)
	kthDists := make([]float64, n)
	dists := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		dists = dists[:0]
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			dists = append(dists, math.Sqrt(squaredDistance(points[i], points[j])))
		}
		if len(dists) == 0 {
			kthDists[i] = 0
			continue
		}
		sort.Float64s(dists)
		idx := k - 1
		if idx >= len(dists) {
			idx = len(dists) - 1
		}
		kthDists[i] = dists[idx]
	}
	sort.Float64s(kthDists)
	return kthDists[n/2] * defaultEpsFactor
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Verify at compile time that *DensityClusterer implements Clusterer.
var _ Clusterer = (*DensityClusterer)(nil)
