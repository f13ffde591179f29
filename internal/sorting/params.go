// Package sorting drives the two-phase spike sorting pipeline. Phase 1
// sorts a training subsample with the single-pass sorter and fits a
// snippet classifier to its units; phase 2 streams the full recording
// through the classifier in padded time chunks.
package sorting

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"spikesort/internal/recording"
	"spikesort/internal/waveform"
)

// ErrInvalidParams reports a parameter combination rejected before any
// processing starts.
var ErrInvalidParams = errors.New("invalid sorting parameters")

// Scheme1Params configure the single-pass sorter, used standalone on
// short recordings and as phase 1 of scheme 2.
type Scheme1Params struct {
	Polarity             waveform.Polarity `yaml:"polarity"`
	DetectThreshold      float64           `yaml:"detect_threshold"`
	DetectTimeRadiusMsec float64           `yaml:"detect_time_radius_msec"`
	DetectChannelRadius  float64           `yaml:"detect_channel_radius"`
	SnippetMaskRadius    float64           `yaml:"snippet_mask_radius"`
	SnippetT1            int               `yaml:"snippet_t1"`
	SnippetT2            int               `yaml:"snippet_t2"`
	NumPCA               int               `yaml:"npca"`
	PairwiseMerge        bool              `yaml:"pairwise_merge"`
}

// DefaultScheme1Params returns scheme 1 defaults for typical
// extracellular recordings at 20-30 kHz.
func DefaultScheme1Params() Scheme1Params {
	return Scheme1Params{
		Polarity:        waveform.Negative,
		DetectThreshold: 5.5, // in scaled noise units of the input traces

		// 1.5 ms suppression radius keeps one event per spike even
		// when the waveform crosses threshold on several frames.
		DetectTimeRadiusMsec: 1.5,

		// Negative radii disable the channel neighborhoods: every
		// channel sees every other. Set them for large probes.
		DetectChannelRadius: -1,
		SnippetMaskRadius:   -1,

		SnippetT1: 20,
		SnippetT2: 20,
		NumPCA:    12,

		PairwiseMerge: true,
	}
}

// Check validates scheme 1 parameters.
func (p Scheme1Params) Check() error {
	if p.DetectThreshold <= 0 {
		return fmt.Errorf("%w: detect threshold %g", ErrInvalidParams, p.DetectThreshold)
	}
	if p.DetectTimeRadiusMsec <= 0 {
		return fmt.Errorf("%w: detect time radius %g msec", ErrInvalidParams, p.DetectTimeRadiusMsec)
	}
	if p.SnippetT1 <= 0 || p.SnippetT2 <= 0 {
		return fmt.Errorf("%w: snippet window %d+%d", ErrInvalidParams, p.SnippetT1, p.SnippetT2)
	}
	if p.NumPCA <= 0 {
		return fmt.Errorf("%w: npca %d", ErrInvalidParams, p.NumPCA)
	}
	return nil
}

// Scheme2Params configure the full two-phase sort. Phase-1 settings
// apply to the coarse sort of the training subsample; the unprefixed
// detection settings apply to the chunked classification pass.
type Scheme2Params struct {
	Polarity waveform.Polarity `yaml:"polarity"`

	Phase1DetectThreshold      float64 `yaml:"phase1_detect_threshold"`
	DetectThreshold            float64 `yaml:"detect_threshold"`
	Phase1DetectTimeRadiusMsec float64 `yaml:"phase1_detect_time_radius_msec"`
	DetectTimeRadiusMsec       float64 `yaml:"detect_time_radius_msec"`
	Phase1DetectChannelRadius  float64 `yaml:"phase1_detect_channel_radius"`
	DetectChannelRadius        float64 `yaml:"detect_channel_radius"`

	SnippetMaskRadius float64 `yaml:"snippet_mask_radius"`
	SnippetT1         int     `yaml:"snippet_t1"`
	SnippetT2         int     `yaml:"snippet_t2"`

	Phase1NumPCA        int  `yaml:"phase1_npca"`
	ClassifierNumPCA    int  `yaml:"classifier_npca"`
	Phase1PairwiseMerge bool `yaml:"phase1_pairwise_merge"`

	TrainingDurationSec         float64                `yaml:"training_duration_sec"`
	TrainingSamplingMode        recording.SamplingMode `yaml:"training_sampling_mode"`
	MaxTrainingSnippetsPerBatch int                    `yaml:"max_training_snippets_per_batch"`

	// ChunkSamples 0 sizes chunks automatically from the channel count
	// so one chunk holds roughly 100M samples across all channels.
	ChunkSamples int64 `yaml:"chunk_samples"`
	ChunkPadding int64 `yaml:"chunk_padding"`

	// Workers above 1 processes chunks concurrently. The classifier is
	// read-only after fitting, so results are identical either way.
	Workers      int `yaml:"workers"`
	ChunkRetries int `yaml:"chunk_retries"`
}

// DefaultScheme2Params returns scheme 2 defaults.
func DefaultScheme2Params() Scheme2Params {
	return Scheme2Params{
		Polarity: waveform.Negative,

		Phase1DetectThreshold: 5.5,
		DetectThreshold:       5.5,

		// Phase 1 suppresses more aggressively than the streaming pass;
		// the classifier recovers fine alignment from offsets anyway.
		Phase1DetectTimeRadiusMsec: 1.5,
		DetectTimeRadiusMsec:       0.5,

		Phase1DetectChannelRadius: -1,
		DetectChannelRadius:       -1,
		SnippetMaskRadius:         -1,

		SnippetT1: 20,
		SnippetT2: 20,

		Phase1NumPCA:        12,
		ClassifierNumPCA:    12,
		Phase1PairwiseMerge: true,

		TrainingDurationSec:         300,
		TrainingSamplingMode:        recording.SampleInitial,
		MaxTrainingSnippetsPerBatch: 200,

		ChunkSamples: 0,
		ChunkPadding: 1000,
		Workers:      1,
		ChunkRetries: 1,
	}
}

// WithWorkers returns a copy with the given chunk worker count.
func (p Scheme2Params) WithWorkers(workers int) Scheme2Params {
	p.Workers = workers
	return p
}

// WithTrainingDuration returns a copy with the given training duration
// in seconds. Zero trains on the whole recording.
func (p Scheme2Params) WithTrainingDuration(sec float64) Scheme2Params {
	p.TrainingDurationSec = sec
	return p
}

// Check validates scheme 2 parameters against the recording shape.
func (p Scheme2Params) Check(numChannels int, numSamples int64, samplingFrequency float64) error {
	if numChannels <= 0 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidParams, numChannels)
	}
	if numSamples < 0 {
		return fmt.Errorf("%w: sample count %d", ErrInvalidParams, numSamples)
	}
	if samplingFrequency <= 0 {
		return fmt.Errorf("%w: sampling frequency %g", ErrInvalidParams, samplingFrequency)
	}
	if p.Phase1DetectThreshold <= 0 || p.DetectThreshold <= 0 {
		return fmt.Errorf("%w: detect thresholds %g/%g", ErrInvalidParams, p.Phase1DetectThreshold, p.DetectThreshold)
	}
	if p.Phase1DetectTimeRadiusMsec <= 0 || p.DetectTimeRadiusMsec <= 0 {
		return fmt.Errorf("%w: detect time radii %g/%g msec", ErrInvalidParams, p.Phase1DetectTimeRadiusMsec, p.DetectTimeRadiusMsec)
	}
	if p.SnippetT1 <= 0 || p.SnippetT2 <= 0 {
		return fmt.Errorf("%w: snippet window %d+%d", ErrInvalidParams, p.SnippetT1, p.SnippetT2)
	}
	if p.Phase1NumPCA <= 0 || p.ClassifierNumPCA <= 0 {
		return fmt.Errorf("%w: npca %d/%d", ErrInvalidParams, p.Phase1NumPCA, p.ClassifierNumPCA)
	}
	if p.TrainingDurationSec < 0 {
		return fmt.Errorf("%w: training duration %g sec", ErrInvalidParams, p.TrainingDurationSec)
	}
	if p.MaxTrainingSnippetsPerBatch < 0 {
		return fmt.Errorf("%w: max training snippets per batch %d", ErrInvalidParams, p.MaxTrainingSnippetsPerBatch)
	}
	if p.ChunkSamples < 0 || p.ChunkPadding < 0 {
		return fmt.Errorf("%w: chunk samples %d, padding %d", ErrInvalidParams, p.ChunkSamples, p.ChunkPadding)
	}
	if p.ChunkSamples > 0 && p.ChunkSamples < int64(p.SnippetT1+p.SnippetT2) {
		return fmt.Errorf("%w: chunk of %d samples cannot hold a %d-sample snippet window",
			ErrInvalidParams, p.ChunkSamples, p.SnippetT1+p.SnippetT2)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidParams, p.Workers)
	}
	if p.ChunkRetries < 0 {
		return fmt.Errorf("%w: chunk retries %d", ErrInvalidParams, p.ChunkRetries)
	}
	return nil
}

// phase1 derives the scheme 1 parameters for the training sort.
func (p Scheme2Params) phase1() Scheme1Params {
	return Scheme1Params{
		Polarity:             p.Polarity,
		DetectThreshold:      p.Phase1DetectThreshold,
		DetectTimeRadiusMsec: p.Phase1DetectTimeRadiusMsec,
		DetectChannelRadius:  p.Phase1DetectChannelRadius,
		SnippetMaskRadius:    p.SnippetMaskRadius,
		SnippetT1:            p.SnippetT1,
		SnippetT2:            p.SnippetT2,
		NumPCA:               p.Phase1NumPCA,
		PairwiseMerge:        p.Phase1PairwiseMerge,
	}
}

// EffectiveChunkSize resolves the chunk size the streaming phase will
// use: the explicit ChunkSamples when set, otherwise a size that keeps
// roughly 100M samples per chunk across all channels.
func (p Scheme2Params) EffectiveChunkSize(numChannels int) int64 {
	if p.ChunkSamples > 0 {
		return p.ChunkSamples
	}
	return int64(math.Ceil(100e6 / float64(numChannels)))
}

// timeRadiusFrames converts a millisecond radius to frames, rounded up.
func timeRadiusFrames(samplingFrequency, msec float64) int64 {
	return int64(math.Ceil(msec / 1000 * samplingFrequency))
}

// LoadParams reads scheme 2 parameters from a YAML file. Missing fields
// keep their defaults; unknown fields are rejected. An empty file
// yields the defaults.
func LoadParams(path string) (Scheme2Params, error) {
	params := DefaultScheme2Params()

	f, err := os.Open(path)
	if err != nil {
		return params, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&params); err != nil {
		if errors.Is(err, io.EOF) {
			return params, nil
		}
		return params, fmt.Errorf("parse parameters %s: %w", path, err)
	}
	return params, nil
}
