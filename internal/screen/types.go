// Package screen implements the hierarchical consensus network (HCN) that
// turns per-record multi-model votes into a tiered, escalation-aware
// screening decision. It drives the rule overlay, the consensus aggregator,
// the escalation controller, and the batch orchestrator.
package screen

import (
	"context"
	"time"
)

// VoteDecision is a single model's verdict on one record.
type VoteDecision string

const (
	VoteInclude VoteDecision = "INCLUDE"
	VoteExclude VoteDecision = "EXCLUDE"
	VoteUnclear VoteDecision = "UNCLEAR"
	VoteError   VoteDecision = "ERROR" // adapter failure surfaced as data
)

// DecisionClass is the record-level screening outcome.
type DecisionClass string

const (
	DecideInclude     DecisionClass = "INCLUDE"
	DecideExclude     DecisionClass = "EXCLUDE"
	DecideHumanReview DecisionClass = "HUMAN_REVIEW"
)

// RecordStatus is the per-record state machine position.
type RecordStatus string

const (
	StatusPending     RecordStatus = "PENDING"
	StatusTier0       RecordStatus = "TIER_0"
	StatusTier1       RecordStatus = "TIER_1"
	StatusTier2       RecordStatus = "TIER_2"
	StatusTier3       RecordStatus = "TIER_3"
	StatusDecided     RecordStatus = "DECIDED"
	StatusHumanReview RecordStatus = "HUMAN_REVIEW"
	StatusFailed      RecordStatus = "FAILED"
)

// TierStatus maps an escalation tier to its in-flight status code.
func TierStatus(tier int) RecordStatus {
	switch tier {
	case 0:
		return StatusTier0
	case 1:
		return StatusTier1
	case 2:
		return StatusTier2
	default:
		return StatusTier3
	}
}

// Record is one bibliographic entry. Immutable once loaded.
type Record struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Year     int    `json:"year,omitempty" yaml:"year,omitempty"`
}

// CriteriaSet is the frozen inclusion/exclusion rule set for a screening run.
// Hard terms force a tier-0 decision via the rule overlay; soft terms only
// feed the model prompt and the matched-term audit trail.
type CriteriaSet struct {
	Name             string   `json:"name" yaml:"name"`
	Framework        string   `json:"framework,omitempty" yaml:"framework,omitempty"` // e.g. "PICO"
	Description      string   `json:"description" yaml:"description"`
	IncludeTerms     []string `json:"include_terms,omitempty" yaml:"include_terms,omitempty"`
	ExcludeTerms     []string `json:"exclude_terms,omitempty" yaml:"exclude_terms,omitempty"`
	HardIncludeTerms []string `json:"hard_include_terms,omitempty" yaml:"hard_include_terms,omitempty"`
	HardExcludeTerms []string `json:"hard_exclude_terms,omitempty" yaml:"hard_exclude_terms,omitempty"`
}

// Empty reports whether the criteria set carries no usable signal.
// An empty criteria set is a fatal configuration error at run start.
func (c *CriteriaSet) Empty() bool {
	return c.Description == "" &&
		len(c.IncludeTerms) == 0 && len(c.ExcludeTerms) == 0 &&
		len(c.HardIncludeTerms) == 0 && len(c.HardExcludeTerms) == 0
}

// ModelVote is one model's judgment for one (record, tier) pair.
// Votes are append-only: once recorded they are never mutated.
type ModelVote struct {
	ModelID    string        `json:"model_id"`
	Tier       int           `json:"tier"`
	Decision   VoteDecision  `json:"decision"`
	Confidence float64       `json:"confidence"` // [0,1]; 0 for ERROR votes
	Rationale  string        `json:"rationale,omitempty"`
	Latency    time.Duration `json:"latency_ns"`
	Attempts   int           `json:"attempts"`
	Err        string        `json:"error,omitempty"` // set when Decision == ERROR
}

// RuleMatch is the deterministic rule-overlay outcome for one record.
// Forced is empty when no hard term fired.
type RuleMatch struct {
	MatchedTerms []string      `json:"matched_terms,omitempty"`
	Forced       DecisionClass `json:"forced_decision,omitempty"`
}

// Decision is the record-level outcome of a screening run. Created once per
// record per run; reruns produce a new Decision, never a mutation.
type Decision struct {
	RecordID     string        `json:"record_id"`
	Decision     DecisionClass `json:"decision"`
	Tier         int           `json:"tier"`  // highest tier actually queried
	Score        float64       `json:"score"` // [0,1]; 1 = unanimous include
	Confidence   float64       `json:"confidence"`
	Votes        []ModelVote   `json:"votes,omitempty"` // audit trail, ERROR votes retained
	RuleOverride bool          `json:"rule_override"`
	MatchedTerms []string      `json:"matched_terms,omitempty"`
	Status       RecordStatus  `json:"status"`
	Err          string        `json:"error,omitempty"` // set when Status == FAILED
}

// ResultSet is the ordered, read-only collection of Decisions for one run.
type ResultSet struct {
	ID          string     `json:"id"`
	Criteria    string     `json:"criteria"`
	Seed        int64      `json:"seed"`
	Decisions   []Decision `json:"decisions"`
	FailedCount int        `json:"failed_count"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  time.Time  `json:"finished_at"`
}

// Counts returns the decision histogram over non-failed records.
func (rs *ResultSet) Counts() map[DecisionClass]int {
	counts := make(map[DecisionClass]int)
	for _, d := range rs.Decisions {
		if d.Status == StatusFailed || d.Status == StatusPending {
			continue
		}
		counts[d.Decision]++
	}
	return counts
}

// InvokeRequest carries everything an adapter needs for one model call.
// Prompt is the authoritative payload for real model backends; the
// structured Record and Criteria are provided for deterministic local
// voters that score without a language model.
type InvokeRequest struct {
	ModelID     string
	Tier        int
	Prompt      string
	Record      Record
	Criteria    *CriteriaSet
	Seed        int64
	Temperature float64
}

// Invoker is the model adapter contract the orchestrator consumes.
// Implementations enforce deterministic decoding, per-call timeouts, and a
// retry budget; a returned error is recorded as an ERROR vote, never
// escalated as a run-level fault.
type Invoker interface {
	Invoke(ctx context.Context, req InvokeRequest) (ModelVote, error)
}
