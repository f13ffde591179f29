package waveform

import (
	"fmt"

	"spikesort/pkg/probe"
)

// ExtractSnippets cuts a window of t1 frames before and t2 frames after
// each event time out of the traces, producing one (t1+t2) x M snippet
// per event. Traces are indexed [frame][channel].
//
// When maskRadius is non-negative and channel indices and locations are
// supplied, channels farther than maskRadius from the event's channel are
// zeroed so distant activity does not leak into the snippet. Passing a
// negative maskRadius or nil channel indices disables masking.
//
// Every window must lie inside the traces; detection margins are expected
// to have excluded events too close to the edges.
func ExtractSnippets(traces [][]float64, times []int64, channelIndices []int, t1, t2 int, locations []probe.Point, maskRadius float64) ([]Snippet, error) {
	numFrames := int64(len(traces))
	numChannels := 0
	if numFrames > 0 {
		numChannels = len(traces[0])
	}
	if t1 < 0 || t2 < 0 {
		return nil, fmt.Errorf("invalid snippet window: t1=%d, t2=%d", t1, t2)
	}
	if channelIndices != nil && len(channelIndices) != len(times) {
		return nil, fmt.Errorf("channel index count mismatch: %d times, %d channels", len(times), len(channelIndices))
	}

	masking := maskRadius >= 0 && channelIndices != nil && locations != nil
	var adjacency [][]int
	if masking {
		if len(locations) != numChannels {
			return nil, fmt.Errorf("location count mismatch: %d locations, %d channels", len(locations), numChannels)
		}
		adjacency = probe.Adjacency(locations, maskRadius)
	}

	window := t1 + t2
	snippets := make([]Snippet, len(times))
	for j, time := range times {
		start := time - int64(t1)
		end := time + int64(t2)
		if start < 0 || end > numFrames {
			return nil, fmt.Errorf("snippet window [%d, %d) for event %d outside traces of %d frames", start, end, j, numFrames)
		}

		snippet := make(Snippet, window)
		if masking {
			keep := adjacency[channelIndices[j]]
			for t := 0; t < window; t++ {
				row := make([]float64, numChannels)
				src := traces[start+int64(t)]
				for _, m := range keep {
					row[m] = src[m]
				}
				snippet[t] = row
			}
		} else {
			for t := 0; t < window; t++ {
				row := make([]float64, numChannels)
				copy(row, traces[start+int64(t)])
				snippet[t] = row
			}
		}
		snippets[j] = snippet
	}
	return snippets, nil
}
