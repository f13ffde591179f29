// Package chunk partitions a long recording into bounded time chunks so
// the streaming phase never loads more than one chunk of traces at once.
package chunk

import (
	"errors"
	"fmt"
)

// ErrInvalidPlan reports chunk plan parameters that cannot tile a recording.
var ErrInvalidPlan = errors.New("invalid chunk plan")

// TimeChunk is one contiguous span [Start, End) of the recording plus
// the padding actually available on each side. Padding shrinks at the
// recording edges so fetches never leave [0, numSamples).
type TimeChunk struct {
	Start        int64
	End          int64
	PaddingLeft  int64
	PaddingRight int64
}

// TotalSize returns the number of frames the chunk spans with padding.
func (c TimeChunk) TotalSize() int64 {
	return c.End - c.Start + c.PaddingLeft + c.PaddingRight
}

// Plan tiles [0, numSamples) into consecutive chunks of chunkSize
// frames each, the last one possibly shorter. Chunk cores never
// overlap and leave no gaps, so every frame belongs to exactly one
// chunk core.
func Plan(numSamples, chunkSize, padding int64) ([]TimeChunk, error) {
	if numSamples < 0 {
		return nil, fmt.Errorf("%w: negative sample count %d", ErrInvalidPlan, numSamples)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidPlan, chunkSize)
	}
	if padding < 0 {
		return nil, fmt.Errorf("%w: negative padding %d", ErrInvalidPlan, padding)
	}

	var chunks []TimeChunk
	for start := int64(0); start < numSamples; {
		end := start + chunkSize
		if end > numSamples {
			end = numSamples
		}
		chunks = append(chunks, TimeChunk{
			Start:        start,
			End:          end,
			PaddingLeft:  min64(padding, start),
			PaddingRight: min64(padding, numSamples-end),
		})
		start = end
	}
	return chunks, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
