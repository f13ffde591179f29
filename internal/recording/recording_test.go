package recording

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spikesort/pkg/probe"
)

func rampTraces(numFrames, numChannels int) [][]float64 {
	traces := make([][]float64, numFrames)
	for t := range traces {
		traces[t] = make([]float64, numChannels)
		for m := range traces[t] {
			traces[t][m] = float64(10*t + m)
		}
	}
	return traces
}

func TestTracesRecordingBasics(t *testing.T) {
	traces := rampTraces(50, 3)
	rec, err := NewTracesRecording(traces, 30000, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(50), rec.NumSamples())
	assert.Equal(t, 3, rec.NumChannels())
	assert.Equal(t, float64(30000), rec.SamplingFrequency())
	assert.Len(t, rec.ChannelLocations(), 3)

	got, err := rec.Traces(context.Background(), 10, 12)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float64{100, 101, 102}, got[0])
	assert.Equal(t, []float64{110, 111, 112}, got[1])
}

func TestTracesRecordingValidation(t *testing.T) {
	traces := rampTraces(10, 2)

	_, err := NewTracesRecording(traces, 0, nil)
	assert.Error(t, err)

	ragged := rampTraces(10, 2)
	ragged[4] = []float64{1}
	_, err = NewTracesRecording(ragged, 30000, nil)
	assert.Error(t, err)

	_, err = NewTracesRecording(traces, 30000, probe.LinearLayout(3, 1))
	assert.Error(t, err)
}

func TestTracesRecordingBounds(t *testing.T) {
	rec, err := NewTracesRecording(rampTraces(10, 1), 30000, nil)
	require.NoError(t, err)

	_, err = rec.Traces(context.Background(), -1, 5)
	assert.Error(t, err)
	_, err = rec.Traces(context.Background(), 5, 11)
	assert.Error(t, err)
	_, err = rec.Traces(context.Background(), 7, 3)
	assert.Error(t, err)
}

func TestTracesRecordingHonorsContext(t *testing.T) {
	rec, err := NewTracesRecording(rampTraces(10, 1), 30000, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rec.Traces(ctx, 0, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func writeBinaryRecording(t *testing.T, traces [][]float64) string {
	t.Helper()
	buf := make([]byte, 0, len(traces)*len(traces[0])*4)
	for _, frame := range traces {
		for _, v := range frame {
			var word [4]byte
			binary.LittleEndian.PutUint32(word[:], math.Float32bits(float32(v)))
			buf = append(buf, word[:]...)
		}
	}
	path := filepath.Join(t.TempDir(), "traces.dat")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestBinaryRecordingRoundTrip(t *testing.T) {
	traces := rampTraces(40, 4)
	path := writeBinaryRecording(t, traces)

	rec, err := OpenBinaryRecording(path, 4, 20000, nil)
	require.NoError(t, err)
	defer rec.Close()

	assert.Equal(t, int64(40), rec.NumSamples())
	assert.Equal(t, 4, rec.NumChannels())

	got, err := rec.Traces(context.Background(), 5, 8)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, frame := range got {
		assert.Equal(t, traces[5+i], frame)
	}

	whole, err := rec.Traces(context.Background(), 0, 40)
	require.NoError(t, err)
	assert.Equal(t, traces, whole)
}

func TestBinaryRecordingRejectsMisalignedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dat")
	require.NoError(t, os.WriteFile(path, make([]byte, 10), 0o644))

	_, err := OpenBinaryRecording(path, 3, 20000, nil)
	assert.Error(t, err)
}

func TestBinaryRecordingValidation(t *testing.T) {
	path := writeBinaryRecording(t, rampTraces(5, 2))

	_, err := OpenBinaryRecording(path, 0, 20000, nil)
	assert.Error(t, err)
	_, err = OpenBinaryRecording(path, 2, 0, nil)
	assert.Error(t, err)
	_, err = OpenBinaryRecording(path, 2, 20000, probe.LinearLayout(5, 1))
	assert.Error(t, err)
	_, err = OpenBinaryRecording(filepath.Join(t.TempDir(), "missing.dat"), 2, 20000, nil)
	assert.Error(t, err)
}

func TestEventSortingGroupsByUnit(t *testing.T) {
	times := []int64{50, 10, 30, 20, 40}
	labels := []int{2, 1, 1, 2, 0}

	s, err := NewEventSorting(times, labels)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, s.UnitIDs())
	assert.Equal(t, []int64{10, 30}, s.SpikeTrain(1))
	assert.Equal(t, []int64{20, 50}, s.SpikeTrain(2))
	assert.Empty(t, s.SpikeTrain(7))
	assert.Equal(t, 4, s.NumEvents())
}

func TestEventSortingLengthMismatch(t *testing.T) {
	_, err := NewEventSorting([]int64{1, 2}, []int{1})
	assert.Error(t, err)
}

func TestTimesLabelsFlattensInTimeOrder(t *testing.T) {
	s, err := NewEventSorting([]int64{30, 10, 20, 10}, []int{1, 2, 1, 1})
	require.NoError(t, err)

	times, labels := TimesLabels(s)
	assert.Equal(t, []int64{10, 10, 20, 30}, times)
	// Simultaneous events keep ascending unit order.
	assert.Equal(t, []int{1, 2, 1, 1}, labels)
}

func TestSamplingModeNames(t *testing.T) {
	assert.Equal(t, "initial", SampleInitial.String())
	assert.Equal(t, "uniform", SampleUniform.String())

	m, err := ParseSamplingMode("uniform")
	require.NoError(t, err)
	assert.Equal(t, SampleUniform, m)

	m, err = ParseSamplingMode("")
	require.NoError(t, err)
	assert.Equal(t, SampleInitial, m)

	_, err = ParseSamplingMode("nope")
	assert.Error(t, err)
}

func TestSampleForTrainingInitial(t *testing.T) {
	rec, err := NewTracesRecording(rampTraces(100, 1), 10, nil)
	require.NoError(t, err)

	sampled, err := SampleForTraining(context.Background(), rec, 3, SampleInitial)
	require.NoError(t, err)
	assert.Equal(t, int64(30), sampled.NumSamples())

	got, err := sampled.Traces(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(0), got[0][0])
}

func TestSampleForTrainingCoversWholeRecording(t *testing.T) {
	rec, err := NewTracesRecording(rampTraces(50, 1), 10, nil)
	require.NoError(t, err)

	sampled, err := SampleForTraining(context.Background(), rec, 100, SampleInitial)
	require.NoError(t, err)
	assert.Equal(t, int64(50), sampled.NumSamples())
}

func TestSampleForTrainingUniform(t *testing.T) {
	// 1000 frames at 10 Hz is 100 sec; ask for 30 sec in 10 sec chunks.
	rec, err := NewTracesRecording(rampTraces(1000, 1), 10, nil)
	require.NoError(t, err)

	sampled, err := SampleForTraining(context.Background(), rec, 30, SampleUniform)
	require.NoError(t, err)
	assert.Equal(t, int64(300), sampled.NumSamples())

	got, err := sampled.Traces(context.Background(), 0, 300)
	require.NoError(t, err)
	// Chunk starts at frames 0, 450 and 900.
	assert.Equal(t, float64(0), got[0][0])
	assert.Equal(t, float64(4500), got[100][0])
	assert.Equal(t, float64(9000), got[200][0])
}

func TestSampleForTrainingRejectsBadDuration(t *testing.T) {
	rec, err := NewTracesRecording(rampTraces(10, 1), 10, nil)
	require.NoError(t, err)

	_, err = SampleForTraining(context.Background(), rec, 0, SampleInitial)
	assert.Error(t, err)
}
