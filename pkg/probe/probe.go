// Package probe provides electrode geometry types used throughout the sorter.
package probe

import (
	"math"
)

// Point represents an electrode location on the probe plane, in the
// distance units of the recording (typically micrometers).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a new Point.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// LinearLayout returns n electrode locations spaced pitch apart along a
// vertical line. This is the fallback geometry for recordings that carry
// no probe description.
func LinearLayout(n int, pitch float64) []Point {
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{X: 0, Y: float64(i) * pitch}
	}
	return points
}

// Adjacency returns, for each channel, the indices of the channels within
// radius of it. Every channel is adjacent to itself. A negative radius
// marks all channels mutually adjacent, which matches recordings whose
// probe geometry is unknown or irrelevant.
func Adjacency(locations []Point, radius float64) [][]int {
	m := len(locations)
	adjacency := make([][]int, m)
	if radius < 0 {
		all := make([]int, m)
		for i := range all {
			all[i] = i
		}
		for i := range adjacency {
			adjacency[i] = all
		}
		return adjacency
	}
	for i := 0; i < m; i++ {
		var neighbors []int
		for j := 0; j < m; j++ {
			if locations[i].Distance(locations[j]) <= radius {
				neighbors = append(neighbors, j)
			}
		}
		adjacency[i] = neighbors
	}
	return adjacency
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point{X: sumX / n, Y: sumY / n}
}
