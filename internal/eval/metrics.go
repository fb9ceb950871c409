package eval

import (
	"fmt"
	"math"

	"sift/internal/screen"
)

// metricDef couples a metric to its estimator so point values and bootstrap
// replicates run the same code path.
type metricDef struct {
	id            string
	name          string
	threshold     float64
	lowerIsBetter bool
	fn            func(s []sample, opts Options) float64
	detail        func(s []sample) string
}

// metricDefs is the fixed evaluation scorecard. Order is the report order.
func metricDefs() []metricDef {
	return []metricDef{
		{"E1", "sensitivity", 0.90, false, metricSensitivity, detailConfusion},
		{"E2", "specificity", 0.70, false, metricSpecificity, detailConfusion},
		{"E3", "f1", 0.60, false, metricF1, detailConfusion},
		{"E4", "cohens_kappa", 0.60, false, metricKappa, detailConfusion},
		{"E5", "wss_at_95", 0.30, false, metricWSS95, detailWSS},
		{"E6", "auroc", 0.80, false, metricAUROC, detailClassBalance},
		{"E7", "ece", 0.10, true, metricECE, detailClassBalance},
		{"E8", "brier", 0.20, true, metricBrier, detailClassBalance},
		{"E9", "precision", 0.50, false, metricPrecision, detailConfusion},
		{"E10", "accuracy", 0.80, false, metricAccuracy, detailConfusion},
	}
}

// Evaluate joins a result set against gold labels and computes the full
// metric scorecard, bootstrap confidence intervals, and curve series.
func Evaluate(rs *screen.ResultSet, gold GoldLabelSet, opts Options) *Report {
	opts = opts.withDefaults()
	jr := join(rs, gold)

	report := &Report{
		ResultSetID:        rs.ID,
		LabelSetID:         gold.ID,
		Joined:             len(jr.samples),
		UnmatchedDecisions: jr.unmatchedDecisions,
		UnmatchedLabels:    jr.unmatchedLabels,
		FailedExcluded:     jr.failedExcluded,
		Seed:               opts.Seed,
		Resamples:          opts.Resamples,
	}

	defs := metricDefs()
	intervals := bootstrapIntervals(jr.samples, defs, opts)
	for i, def := range defs {
		val := def.fn(jr.samples, opts)
		m := Metric{
			ID:        def.id,
			Name:      def.name,
			Value:     val,
			Threshold: def.threshold,
			Detail:    def.detail(jr.samples),
		}
		if def.lowerIsBetter {
			m.Pass = val <= def.threshold
		} else {
			m.Pass = val >= def.threshold
		}
		if ci, ok := intervals[i]; ok {
			m.CILow, m.CIHigh, m.HasCI = ci.low, ci.high, true
		}
		report.Metrics = append(report.Metrics, m)
	}

	report.ROC = rocPoints(jr.samples)
	report.Calibration = calibrationPoints(jr.samples, opts.ECEBuckets)
	report.Histogram = scoreHistogram(jr.samples, opts.ECEBuckets)
	return report
}

// --- Confusion-matrix metrics ---

func confusion(s []sample) (tp, fp, tn, fn int) {
	for _, x := range s {
		switch {
		case x.predicted && x.gold:
			tp++
		case x.predicted && !x.gold:
			fp++
		case !x.predicted && !x.gold:
			tn++
		default:
			fn++
		}
	}
	return
}

// ratio follows the scoring convention that 0/0 means "nothing to measure",
// which scores as perfect rather than as a failure.
func ratio(num, denom int) float64 {
	if denom == 0 {
		return 1.0
	}
	return float64(num) / float64(denom)
}

func metricSensitivity(s []sample, _ Options) float64 {
	tp, _, _, fn := confusion(s)
	return ratio(tp, tp+fn)
}

func metricSpecificity(s []sample, _ Options) float64 {
	_, fp, tn, _ := confusion(s)
	return ratio(tn, tn+fp)
}

func metricPrecision(s []sample, _ Options) float64 {
	tp, fp, _, _ := confusion(s)
	return ratio(tp, tp+fp)
}

func metricAccuracy(s []sample, _ Options) float64 {
	tp, _, tn, _ := confusion(s)
	return ratio(tp+tn, len(s))
}

func metricF1(s []sample, _ Options) float64 {
	tp, fp, _, fn := confusion(s)
	denom := 2*tp + fp + fn
	return ratio(2*tp, denom)
}

func metricKappa(s []sample, _ Options) float64 {
	tp, fp, tn, fn := confusion(s)
	n := float64(len(s))
	if n == 0 {
		return 1.0
	}
	po := float64(tp+tn) / n
	pe := (float64(tp+fp)*float64(tp+fn) + float64(fn+tn)*float64(fp+tn)) / (n * n)
	if 1-pe == 0 {
		// Degenerate marginals: observed perfection is perfect agreement.
		if po == 1 {
			return 1.0
		}
		return 0
	}
	return (po - pe) / (1 - pe)
}

// --- WSS@95 ---

// metricWSS95 is the fraction of records a reviewer would skip while still
// catching 95% of true includes, reading in descending score order.
// Samples arrive pre-sorted (score desc, record ID asc).
func metricWSS95(s []sample, _ Options) float64 {
	n := len(s)
	positives := 0
	for _, x := range s {
		if x.gold {
			positives++
		}
	}
	if n == 0 || positives == 0 {
		return 0
	}
	need := int(math.Ceil(0.95 * float64(positives)))
	hits := 0
	for k, x := range s {
		if x.gold {
			hits++
		}
		if hits >= need {
			return float64(n-(k+1)) / float64(n)
		}
	}
	return 0
}

// --- Probabilistic metrics ---

// metricAUROC is the Mann-Whitney estimator with average ranks for ties:
// the probability a random true include outscores a random true exclude.
func metricAUROC(s []sample, _ Options) float64 {
	pos, neg := 0, 0
	for _, x := range s {
		if x.gold {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}

	// Samples are sorted score-descending; rank ascending by score.
	n := len(s)
	rankSumPos := 0.0
	i := 0
	for i < n {
		j := i
		for j < n && s[j].score == s[i].score {
			j++
		}
		// Positions i..j-1 share a score. Ascending ranks for descending
		// order: position k has rank n-k.
		avgRank := (float64(n-i) + float64(n-(j-1))) / 2
		for k := i; k < j; k++ {
			if s[k].gold {
				rankSumPos += avgRank
			}
		}
		i = j
	}
	u := rankSumPos - float64(pos)*float64(pos+1)/2
	return u / (float64(pos) * float64(neg))
}

// metricECE buckets predictions by score and averages the gap between mean
// predicted score and observed inclusion rate, weighted by bucket size.
func metricECE(s []sample, opts Options) float64 {
	if len(s) == 0 {
		return 0
	}
	buckets := opts.ECEBuckets
	sums := make([]float64, buckets)
	hits := make([]int, buckets)
	counts := make([]int, buckets)
	for _, x := range s {
		b := bucketIndex(x.score, buckets)
		sums[b] += x.score
		counts[b]++
		if x.gold {
			hits[b]++
		}
	}
	ece := 0.0
	for b := 0; b < buckets; b++ {
		if counts[b] == 0 {
			continue
		}
		meanPred := sums[b] / float64(counts[b])
		observed := float64(hits[b]) / float64(counts[b])
		ece += float64(counts[b]) / float64(len(s)) * math.Abs(meanPred-observed)
	}
	return ece
}

func metricBrier(s []sample, _ Options) float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range s {
		y := 0.0
		if x.gold {
			y = 1.0
		}
		sum += (x.score - y) * (x.score - y)
	}
	return sum / float64(len(s))
}

func bucketIndex(score float64, buckets int) int {
	b := int(score * float64(buckets))
	if b >= buckets {
		b = buckets - 1
	}
	if b < 0 {
		b = 0
	}
	return b
}

// --- Detail strings ---

func detailConfusion(s []sample) string {
	tp, fp, tn, fn := confusion(s)
	return fmt.Sprintf("tp=%d fp=%d tn=%d fn=%d", tp, fp, tn, fn)
}

func detailWSS(s []sample) string {
	positives := 0
	for _, x := range s {
		if x.gold {
			positives++
		}
	}
	return fmt.Sprintf("%d records, %d true includes", len(s), positives)
}

func detailClassBalance(s []sample) string {
	pos := 0
	for _, x := range s {
		if x.gold {
			pos++
		}
	}
	return fmt.Sprintf("n=%d pos=%d neg=%d", len(s), pos, len(s)-pos)
}
