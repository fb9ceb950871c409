package eval

import (
	"math"
	"math/rand"
	"sort"
)

type interval struct {
	low, high float64
}

// bootstrapIntervals computes the 95% percentile bootstrap CI for every
// metric definition at once: each replicate resamples records with
// replacement and re-runs all estimators on the same resample, off a single
// seeded source so the whole computation is reproducible.
//
// The interval is widened to contain the point estimate: the report's CI
// contract is "interval around the reported value", and percentile noise on
// small samples must not violate it.
func bootstrapIntervals(s []sample, defs []metricDef, opts Options) map[int]interval {
	out := make(map[int]interval, len(defs))
	if len(s) == 0 || opts.Resamples < 2 {
		return out
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	dist := make([][]float64, len(defs))
	for i := range dist {
		dist[i] = make([]float64, 0, opts.Resamples)
	}

	resample := make([]sample, len(s))
	for b := 0; b < opts.Resamples; b++ {
		for i := range resample {
			resample[i] = s[rng.Intn(len(s))]
		}
		// Estimators assume the join's sort order.
		sort.Slice(resample, func(i, j int) bool {
			if resample[i].score != resample[j].score {
				return resample[i].score > resample[j].score
			}
			return resample[i].recordID < resample[j].recordID
		})
		for i, def := range defs {
			dist[i] = append(dist[i], def.fn(resample, opts))
		}
	}

	for i, def := range defs {
		sort.Float64s(dist[i])
		lo := percentile(dist[i], 0.025)
		hi := percentile(dist[i], 0.975)
		point := def.fn(s, opts)
		out[i] = interval{
			low:  math.Min(lo, point),
			high: math.Max(hi, point),
		}
	}
	return out
}

// percentile returns the p-th quantile of sorted values, with linear
// interpolation between adjacent order statistics.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
