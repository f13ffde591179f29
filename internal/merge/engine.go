package merge

import (
	"errors"
	"fmt"

	"spikesort/internal/event"
	"spikesort/internal/progress"
	"spikesort/internal/waveform"
)

const (
	// offsetAgreementTol bounds how far apart the time offsets measured
	// on the two units' peak channels may be for the pair to qualify.
	offsetAgreementTol = 4
	// crossAmplitudeRatio is the fraction of a unit's own peak that the
	// other unit must exceed on that unit's peak channel.
	crossAmplitudeRatio = 0.5
)

// ErrInconsistentMerge reports a merge whose target unit ID is not
// strictly lower than its source. Unit IDs must be passed ascending.
var ErrInconsistentMerge = errors.New("inconsistent merge")

// Record describes one accepted merge: events of Source are shifted by
// Offset frames and relabeled Target.
type Record struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Offset int `json:"offset"`
}

// Input carries one snippet per event aligned with Times and Labels,
// plus one template per unit aligned with UnitIDs. UnitIDs must be
// ascending and Times sorted.
type Input struct {
	Snippets  []waveform.Snippet
	Templates []waveform.Snippet
	Times     []int64
	Labels    []int
	UnitIDs   []int
}

// Result is the consolidated event stream after merging and duplicate
// removal. Times stay sorted ascending.
type Result struct {
	Times  []int64
	Labels []int
	Merges []Record
}

// Engine merges over-split units pairwise. Candidate pairs are screened
// by template peak geometry; survivors are confirmed by pooling their
// snippets and testing whether they cluster as one.
type Engine struct {
	tester     Tester
	polarity   waveform.Polarity
	timeRadius int64
	reporter   progress.Reporter
}

// NewEngine builds an engine around the given merge tester. A nil
// reporter silences progress output.
func NewEngine(tester Tester, polarity waveform.Polarity, timeRadius int64, reporter progress.Reporter) *Engine {
	if reporter == nil {
		reporter = progress.Nop()
	}
	return &Engine{tester: tester, polarity: polarity, timeRadius: timeRadius, reporter: reporter}
}

// Merge scans all unit pairs and consolidates the ones that pass the
// merge test, always folding the higher unit ID into the lower. The
// input slices are never modified.
func (e *Engine) Merge(in Input) (*Result, error) {
	if len(in.Times) != len(in.Labels) || len(in.Times) != len(in.Snippets) {
		return nil, fmt.Errorf("times/labels/snippets length mismatch: %d/%d/%d",
			len(in.Times), len(in.Labels), len(in.Snippets))
	}
	if len(in.Templates) != len(in.UnitIDs) {
		return nil, fmt.Errorf("templates/unit IDs length mismatch: %d vs %d",
			len(in.Templates), len(in.UnitIDs))
	}

	times := make([]int64, len(in.Times))
	copy(times, in.Times)
	labels := make([]int, len(in.Labels))
	copy(labels, in.Labels)

	// Step 1: rectify each template and summarize its peaks.
	summaries := make([]waveform.PeakSummary, len(in.Templates))
	for i, template := range in.Templates {
		summaries[i] = waveform.SummarizePeaks(waveform.Rectify(template, e.polarity))
	}

	// Step 2: group event snippets by their original unit.
	eventsByUnit := make(map[int][]int, len(in.UnitIDs))
	for i, label := range in.Labels {
		eventsByUnit[label] = append(eventsByUnit[label], i)
	}

	// Step 3: scan pairs. For each unit, walk down through the lower
	// IDs and keep the first one that passes the merge test.
	merges := make(map[int]Record)
	var records []Record
	for i1 := range in.UnitIDs {
		for i2 := i1 - 1; i2 >= 0; i2-- {
			record, ok, err := e.tryMerge(in, summaries, eventsByUnit, i1, i2)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if record.Target >= record.Source {
				return nil, fmt.Errorf("%w: unit %d into unit %d", ErrInconsistentMerge, record.Source, record.Target)
			}
			merges[record.Source] = record
			records = append(records, record)
			break
		}
	}

	// Step 4: apply merges in descending unit order so chains collapse
	// into their lowest member.
	for i := len(in.UnitIDs) - 1; i >= 0; i-- {
		record, ok := merges[in.UnitIDs[i]]
		if !ok {
			continue
		}
		moved := 0
		for j, label := range labels {
			if label != record.Source {
				continue
			}
			times[j] += int64(record.Offset)
			labels[j] = record.Target
			moved++
		}
		e.reporter.Info("merged units", "source", record.Source, "target", record.Target,
			"offset", record.Offset, "events", moved)
	}

	// Step 5: re-sort, the applied offsets may have reordered events.
	event.SortByTime(times, labels)

	// Step 6: merged units can now hold near-coincident events.
	before := len(times)
	times, labels = RemoveDuplicateEvents(times, labels, e.timeRadius)
	if removed := before - len(times); removed > 0 {
		e.reporter.Info("removed duplicate events", "count", removed)
	}

	return &Result{Times: times, Labels: labels, Merges: records}, nil
}

// tryMerge screens the pair (i1, i2) by peak geometry and, if it
// qualifies, runs the snippet merge test with unit i1 rolled into unit
// i2's alignment.
func (e *Engine) tryMerge(in Input, summaries []waveform.PeakSummary, eventsByUnit map[int][]int, i1, i2 int) (Record, bool, error) {
	pc1 := summaries[i1].Channel
	pc2 := summaries[i2].Channel

	// Offsets between the two templates measured on each peak channel.
	offset1 := summaries[i2].Times[pc1] - summaries[i1].Times[pc1]
	offset2 := summaries[i2].Times[pc2] - summaries[i1].Times[pc2]
	if abs(offset1-offset2) > offsetAgreementTol {
		return Record{}, false, nil
	}
	if summaries[i1].Values[pc2] <= crossAmplitudeRatio*summaries[i2].Values[pc2] {
		return Record{}, false, nil
	}
	if summaries[i2].Values[pc1] <= crossAmplitudeRatio*summaries[i1].Values[pc1] {
		return Record{}, false, nil
	}

	source := in.UnitIDs[i1]
	target := in.UnitIDs[i2]
	rolled := waveform.Roll(gather(in.Snippets, eventsByUnit[source]), offset1)
	ok, err := e.tester.Mergeable(rolled, gather(in.Snippets, eventsByUnit[target]))
	if err != nil {
		return Record{}, false, fmt.Errorf("merge test for units %d and %d: %w", source, target, err)
	}
	if !ok {
		return Record{}, false, nil
	}
	return Record{Source: source, Target: target, Offset: offset1}, true, nil
}

func gather(snippets []waveform.Snippet, indices []int) []waveform.Snippet {
	out := make([]waveform.Snippet, len(indices))
	for i, idx := range indices {
		out[i] = snippets[idx]
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
