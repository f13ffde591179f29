// Package waveform provides snippet and template math for multichannel
// spike waveforms: medians, rectification, peak summaries, circular time
// shifts, and the matrix reshaping used by feature computation.
package waveform

import (
	"sort"
)

// Snippet is one waveform window, indexed [frame][channel].
type Snippet [][]float64

// NumFrames returns the length of the time axis.
func (s Snippet) NumFrames() int {
	return len(s)
}

// NumChannels returns the number of channels, or 0 for an empty snippet.
func (s Snippet) NumChannels() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// MedianTemplate computes the coordinate-wise median across a batch of
// snippets. All snippets must share the same shape. The median of an
// even-sized batch is the mean of the two middle values, so the template
// is robust against outlier events. Returns nil for an empty batch.
func MedianTemplate(snippets []Snippet) Snippet {
	if len(snippets) == 0 {
		return nil
	}
	numFrames := snippets[0].NumFrames()
	numChannels := snippets[0].NumChannels()

	template := make(Snippet, numFrames)
	scratch := make([]float64, len(snippets))
	for t := 0; t < numFrames; t++ {
		template[t] = make([]float64, numChannels)
		for m := 0; m < numChannels; m++ {
			for i, s := range snippets {
				scratch[i] = s[t][m]
			}
			template[t][m] = median(scratch)
		}
	}
	return template
}

// median computes the median of values, averaging the two middle values
// for even counts. The slice is sorted in place.
func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// Rectify orients a template so spike peaks are positive: negative
// polarity flips the sign, positive passes through, and both takes the
// absolute value.
func Rectify(template Snippet, polarity Polarity) Snippet {
	out := make(Snippet, len(template))
	for t, row := range template {
		out[t] = make([]float64, len(row))
		for m, v := range row {
			switch {
			case polarity == Negative:
				out[t][m] = -v
			case polarity == Positive:
				out[t][m] = v
			case v < 0:
				out[t][m] = -v
			default:
				out[t][m] = v
			}
		}
	}
	return out
}

// PeakSummary describes where a rectified template peaks: the per-channel
// peak values and times, and the channel with the overall largest peak.
// Ties resolve to the earliest time and then the lowest channel.
type PeakSummary struct {
	Channel int       // channel with the overall largest peak
	Values  []float64 // peak value per channel (max over time)
	Times   []int     // peak time per channel (first frame of the max)
}

// SummarizePeaks computes the peak summary of a rectified template.
func SummarizePeaks(rectified Snippet) PeakSummary {
	numFrames := rectified.NumFrames()
	numChannels := rectified.NumChannels()

	summary := PeakSummary{
		Values: make([]float64, numChannels),
		Times:  make([]int, numChannels),
	}
	for m := 0; m < numChannels; m++ {
		best := rectified[0][m]
		bestTime := 0
		for t := 1; t < numFrames; t++ {
			if rectified[t][m] > best {
				best = rectified[t][m]
				bestTime = t
			}
		}
		summary.Values[m] = best
		summary.Times[m] = bestTime
	}

	for m := 1; m < numChannels; m++ {
		if summary.Values[m] > summary.Values[summary.Channel] {
			summary.Channel = m
		}
	}
	return summary
}

// Roll circularly shifts every snippet in the batch along the time axis.
// A positive shift moves samples toward later frames, so out[t] comes
// from in[(t-shift) mod T].
func Roll(snippets []Snippet, shift int) []Snippet {
	out := make([]Snippet, len(snippets))
	for i, s := range snippets {
		out[i] = RollOne(s, shift)
	}
	return out
}

// RollOne circularly shifts a single snippet along the time axis.
func RollOne(s Snippet, shift int) Snippet {
	numFrames := s.NumFrames()
	out := make(Snippet, numFrames)
	if numFrames == 0 {
		return out
	}
	for t := 0; t < numFrames; t++ {
		src := (t - shift) % numFrames
		if src < 0 {
			src += numFrames
		}
		row := make([]float64, len(s[src]))
		copy(row, s[src])
		out[t] = row
	}
	return out
}

// Flatten reshapes each T x M snippet into a single row of length T*M,
// frame-major, producing the L x (T*M) matrix that feature computation
// operates on.
func Flatten(snippets []Snippet) [][]float64 {
	rows := make([][]float64, len(snippets))
	for i, s := range snippets {
		row := make([]float64, 0, s.NumFrames()*s.NumChannels())
		for _, frame := range s {
			row = append(row, frame...)
		}
		rows[i] = row
	}
	return rows
}

// Subsample returns at most maxNum snippets drawn evenly across the
// batch, preserving order. Index i of the output maps to input index
// i*len(snippets)/maxNum. Batches within the limit pass through
// unchanged.
func Subsample(snippets []Snippet, maxNum int) []Snippet {
	num := len(snippets)
	if maxNum <= 0 || num <= maxNum {
		return snippets
	}
	out := make([]Snippet, maxNum)
	for i := 0; i < maxNum; i++ {
		out[i] = snippets[i*num/maxNum]
	}
	return out
}
