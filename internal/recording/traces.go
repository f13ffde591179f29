package recording

import (
	"context"
	"fmt"

	"spikesort/pkg/probe"
)

// TracesRecording is an in-memory Recording backed by a traces matrix.
// It backs tests, training subsamples, and recordings small enough to
// hold in memory.
type TracesRecording struct {
	traces    [][]float64
	frequency float64
	locations []probe.Point
}

// NewTracesRecording wraps a traces matrix indexed [frame][channel].
// Locations may be nil when probe geometry is unknown; a unit-pitch
// linear layout is assumed in that case.
func NewTracesRecording(traces [][]float64, frequency float64, locations []probe.Point) (*TracesRecording, error) {
	if frequency <= 0 {
		return nil, fmt.Errorf("invalid sampling frequency: %g", frequency)
	}
	numChannels := 0
	if len(traces) > 0 {
		numChannels = len(traces[0])
	}
	for t, row := range traces {
		if len(row) != numChannels {
			return nil, fmt.Errorf("ragged traces: frame %d has %d channels, expected %d", t, len(row), numChannels)
		}
	}
	if locations == nil {
		locations = probe.LinearLayout(numChannels, 1)
	}
	if len(locations) != numChannels {
		return nil, fmt.Errorf("location count mismatch: %d locations, %d channels", len(locations), numChannels)
	}
	return &TracesRecording{
		traces:    traces,
		frequency: frequency,
		locations: locations,
	}, nil
}

// NumSamples returns the recording length in frames.
func (r *TracesRecording) NumSamples() int64 {
	return int64(len(r.traces))
}

// NumChannels returns the channel count.
func (r *TracesRecording) NumChannels() int {
	if len(r.traces) == 0 {
		return 0
	}
	return len(r.traces[0])
}

// SamplingFrequency returns the sample rate in Hz.
func (r *TracesRecording) SamplingFrequency() float64 {
	return r.frequency
}

// ChannelLocations returns the probe geometry.
func (r *TracesRecording) ChannelLocations() []probe.Point {
	return r.locations
}

// Traces returns frames [start, end). The rows share backing storage
// with the recording and must not be modified.
func (r *TracesRecording) Traces(ctx context.Context, start, end int64) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start < 0 || end < start || end > r.NumSamples() {
		return nil, fmt.Errorf("trace range [%d, %d) outside recording of %d samples", start, end, r.NumSamples())
	}
	return r.traces[start:end], nil
}

// Verify at compile time that *TracesRecording implements Recording.
var _ Recording = (*TracesRecording)(nil)
