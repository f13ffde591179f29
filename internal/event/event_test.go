package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortByTime(t *testing.T) {
	times := []int64{30, 10, 20}
	labels := []int{3, 1, 2}

	SortByTime(times, labels)

	assert.Equal(t, []int64{10, 20, 30}, times)
	assert.Equal(t, []int{1, 2, 3}, labels)
}

func TestSortByTimeIsStable(t *testing.T) {
	times := []int64{10, 5, 10, 10}
	labels := []int{7, 1, 8, 9}

	SortByTime(times, labels)

	// Same-time events keep their original relative order.
	assert.Equal(t, []int64{5, 10, 10, 10}, times)
	assert.Equal(t, []int{1, 7, 8, 9}, labels)
}

func TestUniqueLabels(t *testing.T) {
	labels := []int{3, 1, 3, 2, 1, LabelRemoved, 2}
	assert.Equal(t, []int{1, 2, 3}, UniqueLabels(labels))
	assert.Empty(t, UniqueLabels(nil))
	assert.Empty(t, UniqueLabels([]int{LabelRemoved}))
}
