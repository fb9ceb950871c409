package eval

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sift/internal/screen"
)

// noisyFixture repeats a 90%-correct decision pattern n times (n a multiple
// of 10): per block, 4 true includes (one missed), 6 true excludes (one
// admitted).
func noisyFixture(blocks int) (*screen.ResultSet, GoldLabelSet) {
	rs := &screen.ResultSet{ID: "run-noisy"}
	gold := GoldLabelSet{ID: "gold-noisy", Labels: make(map[string]bool)}
	for b := 0; b < blocks; b++ {
		for i := 0; i < 10; i++ {
			id := fmt.Sprintf("r%03d-%d", b, i)
			include := i < 4
			gold.Labels[id] = include
			class := screen.DecideExclude
			score := 0.1 + float64(i)/100
			switch {
			case include && i != 0: // one true include per block is missed
				class = screen.DecideInclude
				score = 0.9 - float64(i)/100
			case !include && i == 4: // one true exclude per block is admitted
				class = screen.DecideInclude
				score = 0.8
			}
			rs.Decisions = append(rs.Decisions, decided(id, class, score))
		}
	}
	return rs, gold
}

func TestEvaluate_Reproducible(t *testing.T) {
	rs, gold := noisyFixture(2)
	opts := Options{Resamples: 300, Seed: 42}

	first := Evaluate(rs, gold, opts)
	second := Evaluate(rs, gold, opts)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical inputs produced different reports (-first +second):\n%s", diff)
	}
}

func TestEvaluate_SeedChangesIntervals(t *testing.T) {
	rs, gold := noisyFixture(2)

	a := Evaluate(rs, gold, Options{Resamples: 300, Seed: 42})
	b := Evaluate(rs, gold, Options{Resamples: 300, Seed: 7})

	if a.Find("E1").Value != b.Find("E1").Value {
		t.Error("point estimates must not depend on the bootstrap seed")
	}
	varied := false
	for _, id := range []string{"E1", "E2", "E3", "E4"} {
		ma, mb := a.Find(id), b.Find(id)
		if ma.CILow != mb.CILow || ma.CIHigh != mb.CIHigh {
			varied = true
		}
	}
	if !varied {
		t.Error("different seeds produced identical intervals for every metric")
	}
}

func TestBootstrap_IntervalContainsPointEstimate(t *testing.T) {
	rs, gold := noisyFixture(2)
	report := Evaluate(rs, gold, Options{Resamples: 300})

	for _, m := range report.Metrics {
		if !m.HasCI {
			t.Errorf("%s (%s) has no interval", m.ID, m.Name)
			continue
		}
		if m.Value < m.CILow || m.Value > m.CIHigh {
			t.Errorf("%s (%s): value %f outside CI [%f, %f]", m.ID, m.Name, m.Value, m.CILow, m.CIHigh)
		}
		if m.CILow > m.CIHigh {
			t.Errorf("%s (%s): inverted CI [%f, %f]", m.ID, m.Name, m.CILow, m.CIHigh)
		}
	}
}

func TestBootstrap_IntervalNarrowsWithSampleSize(t *testing.T) {
	small, smallGold := noisyFixture(2)   // 20 records
	large, largeGold := noisyFixture(20)  // 200 records, same error rates

	opts := Options{Resamples: 500}
	sm := Evaluate(small, smallGold, opts).Find("E1")
	lg := Evaluate(large, largeGold, opts).Find("E1")

	smallWidth := sm.CIHigh - sm.CILow
	largeWidth := lg.CIHigh - lg.CILow
	if largeWidth >= smallWidth {
		t.Errorf("sensitivity CI width did not shrink: n=20 width %f, n=200 width %f",
			smallWidth, largeWidth)
	}
}

func TestBootstrap_SkippedWhenNoSamples(t *testing.T) {
	rs := &screen.ResultSet{ID: "empty"}
	report := Evaluate(rs, GoldLabelSet{ID: "g"}, Options{Resamples: 100})
	for _, m := range report.Metrics {
		if m.HasCI {
			t.Errorf("%s claims a CI over zero joined samples", m.ID)
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.5, 3},
		{1, 5},
		{0.25, 2},
		{0.125, 1.5}, // interpolates between order statistics
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("percentile(%.3f) = %f, want %f", tt.p, got, tt.want)
		}
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("percentile(empty) = %f, want 0", got)
	}
	if got := percentile([]float64{7}, 0.975); got != 7 {
		t.Errorf("percentile(single) = %f, want 7", got)
	}
}
