package recording

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// SamplingMode selects how training data is drawn from a recording.
type SamplingMode int

const (
	// SampleInitial takes the leading portion of the recording.
	SampleInitial SamplingMode = iota
	// SampleUniform draws fixed-length chunks spread evenly across
	// the whole recording, so late drift is represented in training.
	SampleUniform
)

// uniformChunkSec is the length of each chunk drawn in uniform mode.
const uniformChunkSec = 10.0

// String returns the mode name.
func (m SamplingMode) String() string {
	switch m {
	case SampleInitial:
		return "initial"
	case SampleUniform:
		return "uniform"
	default:
		return fmt.Sprintf("SamplingMode(%d)", int(m))
	}
}

// ParseSamplingMode converts a mode name to a SamplingMode.
func ParseSamplingMode(s string) (SamplingMode, error) {
	switch s {
	case "initial", "":
		return SampleInitial, nil
	case "uniform":
		return SampleUniform, nil
	default:
		return SampleInitial, fmt.Errorf("unknown sampling mode: %q", s)
	}
}

// MarshalYAML encodes the mode as its name.
func (m SamplingMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML decodes a mode name.
func (m *SamplingMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseSamplingMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// SampleForTraining extracts a training recording of roughly durationSec
// seconds. If the requested duration covers the whole recording, the
// full traces are returned. The result is held in memory, so training
// durations should stay small relative to available RAM.
func SampleForTraining(ctx context.Context, rec Recording, durationSec float64, mode SamplingMode) (*TracesRecording, error) {
	if durationSec <= 0 {
		return nil, fmt.Errorf("invalid training duration: %g sec", durationSec)
	}

	numSamples := rec.NumSamples()
	want := int64(durationSec * rec.SamplingFrequency())
	if want >= numSamples {
		traces, err := rec.Traces(ctx, 0, numSamples)
		if err != nil {
			return nil, fmt.Errorf("failed to load training traces: %w", err)
		}
		return NewTracesRecording(traces, rec.SamplingFrequency(), rec.ChannelLocations())
	}

	switch mode {
	case SampleInitial:
		traces, err := rec.Traces(ctx, 0, want)
		if err != nil {
			return nil, fmt.Errorf("failed to load training traces: %w", err)
		}
		return NewTracesRecording(traces, rec.SamplingFrequency(), rec.ChannelLocations())

	case SampleUniform:
		chunk := int64(uniformChunkSec * rec.SamplingFrequency())
		if chunk > want {
			chunk = want
		}
		numChunks := (want + chunk - 1) / chunk
		traces := make([][]float64, 0, numChunks*chunk)
		for i := int64(0); i < numChunks; i++ {
			start := int64(0)
			if numChunks > 1 {
				start = i * (numSamples - chunk) / (numChunks - 1)
			}
			part, err := rec.Traces(ctx, start, start+chunk)
			if err != nil {
				return nil, fmt.Errorf("failed to load training chunk %d: %w", i, err)
			}
			traces = append(traces, part...)
		}
		return NewTracesRecording(traces, rec.SamplingFrequency(), rec.ChannelLocations())

	default:
		return nil, fmt.Errorf("unknown sampling mode: %d", int(mode))
	}
}
