// Package detect finds spike events in multichannel traces using a
// threshold plus local-maximum criterion over a spatiotemporal
// neighborhood.
package detect

import (
	"fmt"
	"math"

	"spikesort/internal/waveform"
	"spikesort/pkg/probe"
)

// Params configures spike detection.
type Params struct {
	// Threshold is the minimum rectified amplitude for an event.
	Threshold float64
	// TimeRadius is the half-width in samples of the local-maximum
	// window. Two events of one unit closer than this cannot both fire.
	TimeRadius int
	// ChannelRadius bounds the spatial neighborhood; a negative value
	// makes every channel adjacent to every other.
	ChannelRadius float64
	// Polarity selects which deflections count as peaks.
	Polarity waveform.Polarity
	// MarginLeft and MarginRight suppress events too close to the trace
	// edges for a full snippet window.
	MarginLeft  int
	MarginRight int
}

// Spikes scans the traces and returns event times with the channel each
// event peaked on, in ascending time order.
//
// An event fires at (t, m) when the rectified value reaches the threshold
// and is the maximum over the window [t-r, t+r] across the channels
// adjacent to m. Ties inside a window resolve to the earliest time and
// then the lowest channel, so a flat peak yields exactly one event.
func Spikes(traces [][]float64, locations []probe.Point, p Params) ([]int64, []int, error) {
	numFrames := len(traces)
	numChannels := 0
	if numFrames > 0 {
		numChannels = len(traces[0])
	}
	if p.Threshold <= 0 {
		return nil, nil, fmt.Errorf("invalid detect threshold: %g", p.Threshold)
	}
	if p.TimeRadius < 0 {
		return nil, nil, fmt.Errorf("invalid time radius: %d", p.TimeRadius)
	}
	if p.MarginLeft < 0 || p.MarginRight < 0 {
		return nil, nil, fmt.Errorf("invalid margins: left=%d, right=%d", p.MarginLeft, p.MarginRight)
	}
	if locations != nil && len(locations) != numChannels {
		return nil, nil, fmt.Errorf("location count mismatch: %d locations, %d channels", len(locations), numChannels)
	}

	rect := rectifier(p.Polarity)

	var adjacency [][]int
	if locations == nil {
		adjacency = probe.Adjacency(make([]probe.Point, numChannels), -1)
	} else {
		adjacency = probe.Adjacency(locations, p.ChannelRadius)
	}

	var times []int64
	var channels []int
	for t := p.MarginLeft; t < numFrames-p.MarginRight; t++ {
		for m := 0; m < numChannels; m++ {
			v := rect(traces[t][m])
			if v < p.Threshold {
				continue
			}
			if isWindowMax(traces, rect, t, m, p.TimeRadius, adjacency[m], numFrames, v) {
				times = append(times, int64(t))
				channels = append(channels, m)
			}
		}
	}
	return times, channels, nil
}

// isWindowMax reports whether the rectified value v at (t, m) dominates
// its window: nothing in [t-r, t+r] on an adjacent channel is larger, and
// any equal value sits at a later time or a higher channel.
func isWindowMax(traces [][]float64, rect func(float64) float64, t, m, radius int, adjacent []int, numFrames int, v float64) bool {
	t0 := t - radius
	if t0 < 0 {
		t0 = 0
	}
	t1 := t + radius
	if t1 > numFrames-1 {
		t1 = numFrames - 1
	}
	for t2 := t0; t2 <= t1; t2++ {
		for _, m2 := range adjacent {
			if t2 == t && m2 == m {
				continue
			}
			w := rect(traces[t2][m2])
			if w > v {
				return false
			}
			if w == v && (t2 < t || (t2 == t && m2 < m)) {
				return false
			}
		}
	}
	return true
}

// rectifier returns the value transform for the polarity.
func rectifier(p waveform.Polarity) func(float64) float64 {
	switch p {
	case waveform.Negative:
		return func(v float64) float64 { return -v }
	case waveform.Positive:
		return func(v float64) float64 { return v }
	default:
		return math.Abs
	}
}
