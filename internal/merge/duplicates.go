// Package merge consolidates over-split units after clustering. Units
// whose templates agree in shape and amplitude up to a small time shift
// are merged into the lower unit ID, and events that became duplicates
// through merging are removed.
package merge

import (
	"sort"

	"spikesort/internal/event"
)

// FindDuplicateTimes scans sorted times and returns the indices of
// events that fall within tol frames of an earlier kept event. The
// first event of each crowded group is kept; every event inside its
// tolerance window is marked, and the next kept event starts a new
// window.
func FindDuplicateTimes(times []int64, tol int64) []int {
	var duplicates []int
	deleted := make([]bool, len(times))
	for i1 := 0; i1 < len(times); i1++ {
		if deleted[i1] {
			continue
		}
		for i2 := i1 + 1; i2 < len(times) && times[i2] <= times[i1]+tol; i2++ {
			duplicates = append(duplicates, i2)
			deleted[i2] = true
		}
	}
	return duplicates
}

// RemoveDuplicateEvents drops events of the same unit that crowd within
// tol frames of each other, keeping the earliest of each group. Times
// must be sorted ascending. The input slices are not modified.
func RemoveDuplicateEvents(times []int64, labels []int, tol int64) ([]int64, []int) {
	kept := make([]int, len(labels))
	copy(kept, labels)

	byUnit := make(map[int][]int)
	for i, label := range labels {
		if label == event.LabelRemoved {
			continue
		}
		byUnit[label] = append(byUnit[label], i)
	}

	units := make([]int, 0, len(byUnit))
	for id := range byUnit {
		units = append(units, id)
	}
	sort.Ints(units)

	for _, id := range units {
		indices := byUnit[id]
		unitTimes := make([]int64, len(indices))
		for j, idx := range indices {
			unitTimes[j] = times[idx]
		}
		for _, dup := range FindDuplicateTimes(unitTimes, tol) {
			kept[indices[dup]] = event.LabelRemoved
		}
	}

	outTimes := make([]int64, 0, len(times))
	outLabels := make([]int, 0, len(labels))
	for i, label := range kept {
		if label == event.LabelRemoved {
			continue
		}
		outTimes = append(outTimes, times[i])
		outLabels = append(outLabels, label)
	}
	return outTimes, outLabels
}
