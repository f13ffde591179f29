package recording

import (
	"fmt"
	"sort"

	"spikesort/internal/event"
)

// EventSorting holds a finished sorting result as per-unit spike trains.
type EventSorting struct {
	unitIDs []int
	trains  map[int][]int64
}

// NewEventSorting groups labeled event times into per-unit spike trains.
// Events labeled with the removed-event sentinel are dropped. Times and
// labels must have equal length; times within each unit are sorted.
func NewEventSorting(times []int64, labels []int) (*EventSorting, error) {
	if len(times) != len(labels) {
		return nil, fmt.Errorf("times/labels length mismatch: %d vs %d", len(times), len(labels))
	}

	trains := make(map[int][]int64)
	for i, label := range labels {
		if label == event.LabelRemoved {
			continue
		}
		trains[label] = append(trains[label], times[i])
	}

	unitIDs := make([]int, 0, len(trains))
	for id := range trains {
		unitIDs = append(unitIDs, id)
		sort.Slice(trains[id], func(a, b int) bool { return trains[id][a] < trains[id][b] })
	}
	sort.Ints(unitIDs)

	return &EventSorting{unitIDs: unitIDs, trains: trains}, nil
}

// UnitIDs returns the sorted unit identifiers.
func (s *EventSorting) UnitIDs() []int {
	return s.unitIDs
}

// SpikeTrain returns the event times of one unit, sorted ascending.
// Unknown units yield an empty train.
func (s *EventSorting) SpikeTrain(unitID int) []int64 {
	return s.trains[unitID]
}

// NumEvents returns the total event count across all units.
func (s *EventSorting) NumEvents() int {
	total := 0
	for _, train := range s.trains {
		total += len(train)
	}
	return total
}

// TimesLabels flattens a sorting back into parallel time and label
// slices ordered by time. Ties keep ascending unit order.
func TimesLabels(s Sorting) ([]int64, []int) {
	var times []int64
	var labels []int
	for _, id := range s.UnitIDs() {
		train := s.SpikeTrain(id)
		times = append(times, train...)
		for range train {
			labels = append(labels, id)
		}
	}
	event.SortByTime(times, labels)
	return times, labels
}

// Verify at compile time that *EventSorting implements Sorting.
var _ Sorting = (*EventSorting)(nil)
