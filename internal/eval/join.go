package eval

import (
	"sort"

	"sift/internal/screen"
)

// sample is one record joined against its gold label.
type sample struct {
	recordID  string
	score     float64
	predicted bool // predicted include: INCLUDE, or HUMAN_REVIEW (retained for a human)
	gold      bool
}

// joinResult carries the joined samples plus the mismatch counts reported
// instead of failing the evaluation.
type joinResult struct {
	samples            []sample
	unmatchedDecisions int
	unmatchedLabels    int
	failedExcluded     int
}

// join matches decisions to gold labels by record ID. Records present on
// only one side are counted, not fatal, so partial evaluation proceeds on
// the overlap. FAILED and never-processed records are excluded from metric
// computation but reported for completeness auditing.
func join(rs *screen.ResultSet, gold GoldLabelSet) joinResult {
	var jr joinResult
	seen := make(map[string]bool, len(rs.Decisions))
	for _, d := range rs.Decisions {
		seen[d.RecordID] = true
		if d.Status == screen.StatusFailed || d.Status == screen.StatusPending {
			jr.failedExcluded++
			continue
		}
		label, ok := gold.Labels[d.RecordID]
		if !ok {
			jr.unmatchedDecisions++
			continue
		}
		jr.samples = append(jr.samples, sample{
			recordID:  d.RecordID,
			score:     d.Score,
			predicted: d.Decision != screen.DecideExclude,
			gold:      label,
		})
	}
	for id := range gold.Labels {
		if !seen[id] {
			jr.unmatchedLabels++
		}
	}
	// Fixed order regardless of result-set ordering quirks: score
	// descending, record ID ascending. Ranking metrics and the bootstrap
	// depend on this for reproducibility.
	sort.Slice(jr.samples, func(i, j int) bool {
		if jr.samples[i].score != jr.samples[j].score {
			return jr.samples[i].score > jr.samples[j].score
		}
		return jr.samples[i].recordID < jr.samples[j].recordID
	})
	return jr
}
