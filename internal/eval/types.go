// Package eval measures how well screening decisions match gold-standard
// human labels. Everything here is a pure function of (result set, label
// set, options): identical inputs yield bit-identical reports, including
// the bootstrap confidence intervals, which run off a seeded source.
package eval

// GoldLabelSet maps record IDs to the binary ground-truth inclusion label.
// Supplied by an external collaborator; never mutated here.
type GoldLabelSet struct {
	ID     string          `json:"id" yaml:"id"`
	Labels map[string]bool `json:"labels" yaml:"labels"`
}

// Metric is one evaluation metric with its target threshold, pass flag, and
// 95% bootstrap confidence interval.
type Metric struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Pass      bool    `json:"pass"`
	Detail    string  `json:"detail,omitempty"`
	CILow     float64 `json:"ci_low"`
	CIHigh    float64 `json:"ci_high"`
	HasCI     bool    `json:"has_ci"`
}

// ROCPoint is one (false-positive rate, true-positive rate) pair sampled at
// a distinct score threshold.
type ROCPoint struct {
	Threshold float64 `json:"threshold"`
	FPR       float64 `json:"fpr"`
	TPR       float64 `json:"tpr"`
}

// CalibrationPoint is one score bucket: mean predicted score vs observed
// inclusion rate.
type CalibrationPoint struct {
	MeanPredicted float64 `json:"mean_predicted"`
	ObservedRate  float64 `json:"observed_rate"`
	Count         int     `json:"count"`
}

// HistogramBucket counts scores falling in one bin, split by gold label.
type HistogramBucket struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Included int     `json:"included"`
	Excluded int     `json:"excluded"`
}

// Report is the full evaluation output. Cacheable by the
// (ResultSetID, LabelSetID) pair.
type Report struct {
	ResultSetID string `json:"result_set_id"`
	LabelSetID  string `json:"label_set_id"`

	Joined             int `json:"joined"`
	UnmatchedDecisions int `json:"unmatched_decisions"` // decisions without a gold label
	UnmatchedLabels    int `json:"unmatched_labels"`    // gold labels without a decision
	FailedExcluded     int `json:"failed_excluded"`     // FAILED records left out of metrics

	Metrics []Metric `json:"metrics"`

	ROC         []ROCPoint         `json:"roc"`
	Calibration []CalibrationPoint `json:"calibration"`
	Histogram   []HistogramBucket  `json:"histogram"`

	Seed      int64 `json:"seed"`
	Resamples int   `json:"resamples"`
}

// Find returns the metric with the given ID, or a zero Metric.
func (r *Report) Find(id string) Metric {
	for _, m := range r.Metrics {
		if m.ID == id {
			return m
		}
	}
	return Metric{}
}

// Options tunes the evaluation. Zero values take the documented defaults.
type Options struct {
	Resamples  int   // bootstrap resamples; default 1000
	Seed       int64 // bootstrap RNG seed; default 42
	ECEBuckets int   // calibration buckets; default 10
}

func (o Options) withDefaults() Options {
	if o.Resamples <= 0 {
		o.Resamples = 1000
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.ECEBuckets <= 0 {
		o.ECEBuckets = 10
	}
	return o
}
