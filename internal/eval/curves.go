package eval

// rocPoints sweeps every distinct score threshold over the (pre-sorted,
// score-descending) samples and emits one (FPR, TPR) point per threshold,
// bracketed by the (0,0) and (1,1) endpoints.
func rocPoints(s []sample) []ROCPoint {
	pos, neg := 0, 0
	for _, x := range s {
		if x.gold {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil
	}

	points := []ROCPoint{{Threshold: 1, FPR: 0, TPR: 0}}
	tp, fp := 0, 0
	i := 0
	for i < len(s) {
		// Consume the whole tie block before emitting a point so ties
		// never split across a threshold.
		j := i
		for j < len(s) && s[j].score == s[i].score {
			if s[j].gold {
				tp++
			} else {
				fp++
			}
			j++
		}
		points = append(points, ROCPoint{
			Threshold: s[i].score,
			FPR:       float64(fp) / float64(neg),
			TPR:       float64(tp) / float64(pos),
		})
		i = j
	}
	return points
}

// calibrationPoints buckets samples by predicted score into equal-width
// bins and reports mean predicted score vs observed inclusion rate.
func calibrationPoints(s []sample, buckets int) []CalibrationPoint {
	if len(s) == 0 {
		return nil
	}
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
	var out []CalibrationPoint
	for b := 0; b < buckets; b++ {
		if counts[b] == 0 {
			continue
		}
		out = append(out, CalibrationPoint{
			MeanPredicted: sums[b] / float64(counts[b]),
			ObservedRate:  float64(hits[b]) / float64(counts[b]),
			Count:         counts[b],
		})
	}
	return out
}

// scoreHistogram splits the score distribution by gold label.
func scoreHistogram(s []sample, buckets int) []HistogramBucket {
	if len(s) == 0 {
		return nil
	}
	out := make([]HistogramBucket, buckets)
	width := 1.0 / float64(buckets)
	for b := range out {
		out[b].Low = float64(b) * width
		out[b].High = float64(b+1) * width
	}
	for _, x := range s {
		b := bucketIndex(x.score, buckets)
		if x.gold {
			out[b].Included++
		} else {
			out[b].Excluded++
		}
	}
	return out
}
