package sorting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spikesort/internal/recording"
)

// twoUnitTraces builds a two-channel recording with one spiking unit
// per channel. Spike amplitudes vary slightly so feature computation
// sees variance.
func twoUnitTraces(numFrames int) (traces [][]float64, unitA, unitB []int64) {
	traces = make([][]float64, numFrames)
	for t := range traces {
		traces[t] = []float64{0, 0}
	}
	for t := 100; t < numFrames-40; t += 400 {
		traces[t][0] = -(10 + 0.05*float64((t/400)%4))
		unitA = append(unitA, int64(t))
	}
	for t := 300; t < numFrames-40; t += 400 {
		traces[t][1] = -(8 + 0.05*float64((t/400)%3))
		unitB = append(unitB, int64(t))
	}
	return traces, unitA, unitB
}

func scheme1TestParams() Scheme1Params {
	params := DefaultScheme1Params()
	params.DetectThreshold = 5
	params.DetectTimeRadiusMsec = 1 // 20 frames at 20 kHz
	return params
}

func TestSortScheme1SeparatesUnits(t *testing.T) {
	traces, unitA, unitB := twoUnitTraces(8000)
	rec, err := recording.NewTracesRecording(traces, 20000, nil)
	require.NoError(t, err)

	sorting, err := SortScheme1(context.Background(), rec, scheme1TestParams(), nil)
	require.NoError(t, err)

	require.Equal(t, []int{1, 2}, sorting.UnitIDs())
	assert.Equal(t, unitA, sorting.SpikeTrain(1))
	assert.Equal(t, unitB, sorting.SpikeTrain(2))
}

func TestSortScheme1MergesSplitUnit(t *testing.T) {
	// One unit seen on two channels with near-equal peaks three frames
	// apart. The deeper peak alternates between the channels, so even
	// spikes anchor on channel 0 and odd spikes on channel 1. Clustering
	// sees two alignments of one waveform; the merge step must fold them
	// back into a single unit.
	numFrames := 12000
	traces := make([][]float64, numFrames)
	for t := range traces {
		traces[t] = []float64{0, 0}
	}
	var expected []int64
	for k := 0; ; k++ {
		t0 := 100 + 300*k
		if t0 >= numFrames-40 {
			break
		}
		amp := 0.02 * float64(k)
		if k%2 == 0 {
			traces[t0][0] = -(10 + amp)
			traces[t0+3][1] = -(9.95 + amp)
			expected = append(expected, int64(t0))
		} else {
			traces[t0][0] = -(9.95 + amp)
			traces[t0+3][1] = -(10 + amp)
			// Anchored at t0+3; the merge shifts by the template
			// offset of +3 on top of that.
			expected = append(expected, int64(t0)+6)
		}
	}

	rec, err := recording.NewTracesRecording(traces, 20000, nil)
	require.NoError(t, err)

	sorting, err := SortScheme1(context.Background(), rec, scheme1TestParams(), nil)
	require.NoError(t, err)

	require.Equal(t, []int{1}, sorting.UnitIDs())
	assert.Equal(t, expected, sorting.SpikeTrain(1))
}

func TestSortScheme1EmptyRecording(t *testing.T) {
	traces := make([][]float64, 2000)
	for t := range traces {
		traces[t] = []float64{0, 0}
	}
	rec, err := recording.NewTracesRecording(traces, 20000, nil)
	require.NoError(t, err)

	sorting, err := SortScheme1(context.Background(), rec, scheme1TestParams(), nil)
	require.NoError(t, err)
	assert.Empty(t, sorting.UnitIDs())
	assert.Equal(t, 0, sorting.NumEvents())
}

func TestSortScheme1RejectsBadParams(t *testing.T) {
	traces, _, _ := twoUnitTraces(2000)
	rec, err := recording.NewTracesRecording(traces, 20000, nil)
	require.NoError(t, err)

	params := scheme1TestParams()
	params.DetectThreshold = 0
	_, err = SortScheme1(context.Background(), rec, params, nil)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestSortScheme1HonorsContext(t *testing.T) {
	traces, _, _ := twoUnitTraces(2000)
	rec, err := recording.NewTracesRecording(traces, 20000, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SortScheme1(ctx, rec, scheme1TestParams(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
