// Package event provides the primitives shared by every stage that
// manipulates spike events as parallel time/label slices.
package event

import (
	"sort"
)

// LabelRemoved is the sentinel label assigned to events scheduled for
// removal. It never appears in pipeline output.
const LabelRemoved = 0

// SortByTime sorts the parallel times/labels slices in place by
// ascending time. The sort is stable so same-time events keep their
// relative order.
func SortByTime(times []int64, labels []int) {
	sort.Stable(&timeOrder{times: times, labels: labels})
}

type timeOrder struct {
	times  []int64
	labels []int
}

func (o *timeOrder) Len() int           { return len(o.times) }
func (o *timeOrder) Less(i, j int) bool { return o.times[i] < o.times[j] }
func (o *timeOrder) Swap(i, j int) {
	o.times[i], o.times[j] = o.times[j], o.times[i]
	o.labels[i], o.labels[j] = o.labels[j], o.labels[i]
}

// UniqueLabels returns the sorted distinct labels, excluding the
// removed-event sentinel.
func UniqueLabels(labels []int) []int {
	seen := make(map[int]bool)
	var unique []int
	for _, label := range labels {
		if label == LabelRemoved {
			continue
		}
		if !seen[label] {
			seen[label] = true
			unique = append(unique, label)
		}
	}
	sort.Ints(unique)
	return unique
}
