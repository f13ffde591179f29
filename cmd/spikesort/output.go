package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"spikesort/internal/recording"
)

// RunManifest records what a run processed and produced, one JSON
// document per run.
type RunManifest struct {
	RunID             string    `json:"run_id"`
	Version           string    `json:"version"`
	Recording         string    `json:"recording"`
	NumChannels       int       `json:"num_channels"`
	NumSamples        int64     `json:"num_samples"`
	SamplingFrequency float64   `json:"sampling_frequency"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	Units             int       `json:"units"`
	Events            int       `json:"events"`
	EventsPath        string    `json:"events_path"`
	ModelPath         string    `json:"model_path,omitempty"`
}

// writeEventsCSV writes one time,unit row per event in ascending time
// order, with a header row.
func writeEventsCSV(path string, sorting recording.Sorting) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"time", "unit"})
	times, labels := recording.TimesLabels(sorting)
	for i := range times {
		_ = w.Write([]string{strconv.FormatInt(times[i], 10), strconv.Itoa(labels[i])})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// writeManifest persists the run manifest as indented JSON.
func writeManifest(path string, manifest RunManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
