package recording

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"spikesort/pkg/probe"
)

const bytesPerSample = 4 // float32

// BinaryRecording reads raw headerless traces from disk: little-endian
// float32 frames with channels interleaved, the common flat binary
// layout for extracellular data. Frames are fetched on demand so
// recordings larger than memory can be sorted chunk by chunk.
type BinaryRecording struct {
	file        *os.File
	numSamples  int64
	numChannels int
	frequency   float64
	locations   []probe.Point
}

// OpenBinaryRecording opens a raw float32 recording. The file size must
// be an exact multiple of the frame size. Locations may be nil when the
// probe geometry is unknown; a unit-pitch linear layout is assumed.
func OpenBinaryRecording(path string, numChannels int, frequency float64, locations []probe.Point) (*BinaryRecording, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", numChannels)
	}
	if frequency <= 0 {
		return nil, fmt.Errorf("invalid sampling frequency: %g", frequency)
	}
	if locations != nil && len(locations) != numChannels {
		return nil, fmt.Errorf("location count mismatch: %d locations, %d channels", len(locations), numChannels)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat recording: %w", err)
	}

	frameSize := int64(bytesPerSample * numChannels)
	if info.Size()%frameSize != 0 {
		file.Close()
		return nil, fmt.Errorf("recording size %d is not a multiple of the %d-byte frame (%d channels)", info.Size(), frameSize, numChannels)
	}

	if locations == nil {
		locations = probe.LinearLayout(numChannels, 1)
	}

	return &BinaryRecording{
		file:        file,
		numSamples:  info.Size() / frameSize,
		numChannels: numChannels,
		frequency:   frequency,
		locations:   locations,
	}, nil
}

// NumSamples returns the recording length in frames.
func (r *BinaryRecording) NumSamples() int64 {
	return r.numSamples
}

// NumChannels returns the channel count.
func (r *BinaryRecording) NumChannels() int {
	return r.numChannels
}

// SamplingFrequency returns the sample rate in Hz.
func (r *BinaryRecording) SamplingFrequency() float64 {
	return r.frequency
}

// ChannelLocations returns the probe geometry.
func (r *BinaryRecording) ChannelLocations() []probe.Point {
	return r.locations
}

// Traces reads frames [start, end) from disk.
func (r *BinaryRecording) Traces(ctx context.Context, start, end int64) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start < 0 || end < start || end > r.numSamples {
		return nil, fmt.Errorf("trace range [%d, %d) outside recording of %d samples", start, end, r.numSamples)
	}

	numFrames := end - start
	frameSize := int64(bytesPerSample * r.numChannels)
	buf := make([]byte, numFrames*frameSize)
	if _, err := r.file.ReadAt(buf, start*frameSize); err != nil {
		return nil, fmt.Errorf("failed to read frames [%d, %d): %w", start, end, err)
	}

	traces := make([][]float64, numFrames)
	for t := int64(0); t < numFrames; t++ {
		row := make([]float64, r.numChannels)
		base := t * frameSize
		for m := 0; m < r.numChannels; m++ {
			bits := binary.LittleEndian.Uint32(buf[base+int64(m)*bytesPerSample:])
			row[m] = float64(math.Float32frombits(bits))
		}
		traces[t] = row
	}
	return traces, nil
}

// Close releases the underlying file.
func (r *BinaryRecording) Close() error {
	return r.file.Close()
}

// Verify at compile time that *BinaryRecording implements Recording.
var _ Recording = (*BinaryRecording)(nil)
