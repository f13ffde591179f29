// Package recording provides access to multichannel extracellular
// recordings and to sorted spike trains.
package recording

import (
	"context"

	"spikesort/pkg/probe"
)

// Recording is random access to a block of multichannel traces.
type Recording interface {
	// NumSamples returns the recording length in frames.
	NumSamples() int64
	// NumChannels returns the channel count.
	NumChannels() int
	// SamplingFrequency returns the sample rate in Hz.
	SamplingFrequency() float64
	// ChannelLocations returns the probe geometry, one point per channel.
	ChannelLocations() []probe.Point
	// Traces returns frames [start, end) indexed [frame][channel].
	// Callers must not modify the returned slices.
	Traces(ctx context.Context, start, end int64) ([][]float64, error)
}

// Sorting exposes labeled spike trains by unit.
type Sorting interface {
	// UnitIDs returns the unit labels in ascending order.
	UnitIDs() []int
	// SpikeTrain returns the ascending spike times of a unit.
	SpikeTrain(unitID int) []int64
}
