package screen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sift/internal/logging"
)

// Orchestrator drives a record batch through the escalation controller and
// consensus aggregator on a bounded worker pool. Records are independent;
// the only shared state is the pre-allocated decision slice (one slot per
// record, written once) and the progress counters.
type Orchestrator struct {
	cfg      RunConfig
	criteria *CriteriaSet
	invokers map[string]Invoker
	sink     ProgressSink
}

// NewOrchestrator wires a screening run. invokers maps model IDs from the
// run config to their adapters; sink may be nil.
func NewOrchestrator(cfg RunConfig, criteria *CriteriaSet, invokers map[string]Invoker, sink ProgressSink) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if criteria == nil || criteria.Empty() {
		return nil, fmt.Errorf("orchestrator: empty criteria set")
	}
	for _, m := range cfg.Models {
		if _, ok := invokers[m.ID]; !ok {
			return nil, fmt.Errorf("orchestrator: no adapter registered for model %q", m.ID)
		}
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Orchestrator{cfg: cfg, criteria: criteria, invokers: invokers, sink: sink}, nil
}

// Run screens all records and returns the finalized result set. The run is
// stoppable between records: on context cancellation, already-decided
// records are returned intact and unprocessed ones stay PENDING. Per-record
// processing is never aborted mid-tier.
func (o *Orchestrator) Run(ctx context.Context, records []Record) (*ResultSet, error) {
	logger := logging.New("orchestrator")
	rs := &ResultSet{
		ID:        uuid.NewString(),
		Criteria:  o.criteria.Name,
		Seed:      o.cfg.Seed,
		Decisions: make([]Decision, len(records)),
		StartedAt: time.Now().UTC(),
	}
	for i, rec := range records {
		rs.Decisions[i] = Decision{RecordID: rec.ID, Status: StatusPending}
	}

	rules := CompileRules(o.criteria)
	esc := NewEscalator(o.cfg, rules)

	var mu sync.Mutex
	completed, failed := 0, 0
	counts := make(map[DecisionClass]int)

	logger.Info("screening started",
		"run_id", rs.ID, "records", len(records), "models", len(o.cfg.Models),
		"workers", o.cfg.Workers, "seed", o.cfg.Seed)

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Workers)
	for i := range records {
		if ctx.Err() != nil {
			break // stop scheduling; in-flight records run to completion
		}
		i := i
		g.Go(func() error {
			d := o.processRecord(context.WithoutCancel(ctx), esc, records[i])
			rs.Decisions[i] = d

			mu.Lock()
			completed++
			if d.Status == StatusFailed {
				failed++
			} else {
				counts[d.Decision]++
			}
			ev := ProgressEvent{
				Completed: completed,
				Total:     len(records),
				Failed:    failed,
				Counts:    copyCounts(counts),
			}
			mu.Unlock()
			o.sink.Publish(ev)
			return nil
		})
	}
	_ = g.Wait()

	rs.FailedCount = failed
	rs.FinishedAt = time.Now().UTC()
	logger.Info("screening finished",
		"run_id", rs.ID, "completed", completed, "failed", failed,
		"elapsed", rs.FinishedAt.Sub(rs.StartedAt))

	if err := ctx.Err(); err != nil {
		return rs, fmt.Errorf("screening stopped early: %w", err)
	}
	return rs, nil
}

// processRecord walks one record through the tier state machine:
// PENDING -> TIER_0 -> (TIER_1 -> TIER_2 -> TIER_3)* -> terminal.
func (o *Orchestrator) processRecord(ctx context.Context, esc *Escalator, rec Record) Decision {
	var votes []ModelVote
	var cons *Consensus

	plan := esc.SelectTier(rec, votes, nil)
	if plan.Terminate {
		// Rule override: hard fast-path, no model calls.
		forced := Aggregate(nil, plan.RuleMatch, o.cfg, 0)
		return Decision{
			RecordID:     rec.ID,
			Decision:     forced.Decision,
			Tier:         0,
			Score:        forced.Score,
			Confidence:   forced.Confidence,
			RuleOverride: true,
			MatchedTerms: plan.RuleMatch.MatchedTerms,
			Status:       StatusDecided,
		}
	}

	ruleMatch := plan.RuleMatch
	prompt := BuildPrompt(o.criteria, rec)

	for !plan.Terminate {
		tierVotes := o.queryTier(ctx, rec, prompt, plan)
		votes = append(votes, tierVotes...)
		c := Aggregate(votes, ruleMatch, o.cfg, plan.Tier)
		cons = &c
		plan = esc.SelectTier(rec, votes, cons)
	}

	d := Decision{
		RecordID:     rec.ID,
		Decision:     cons.Decision,
		Tier:         highestTier(votes),
		Score:        cons.Score,
		Confidence:   cons.Confidence,
		Votes:        votes,
		MatchedTerms: ruleMatch.MatchedTerms,
		Status:       StatusDecided,
	}
	if cons.Decision == DecideHumanReview {
		d.Status = StatusHumanReview
	}
	if cons.ValidVotes == 0 {
		// Every tier exhausted its retry budget without one valid vote and
		// no rule override applies: report the record, don't retry forever.
		d.Status = StatusFailed
		d.Decision = DecideHumanReview
		d.Err = "no valid model votes after all tiers"
	}
	return d
}

// queryTier invokes every model of the tier concurrently and joins the votes
// before aggregation. Adapter failures become ERROR votes; vote order is
// fixed by the tier's model order, not completion order.
func (o *Orchestrator) queryTier(ctx context.Context, rec Record, prompt string, plan TierPlan) []ModelVote {
	logger := logging.New("orchestrator")
	votes := make([]ModelVote, len(plan.Models))

	var wg sync.WaitGroup
	for i, m := range plan.Models {
		i, m := i, m
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := InvokeRequest{
				ModelID:     m.ID,
				Tier:        plan.Tier,
				Prompt:      prompt,
				Record:      rec,
				Criteria:    o.criteria,
				Seed:        o.cfg.Seed,
				Temperature: o.cfg.Temperature,
			}
			vote, err := o.invokers[m.ID].Invoke(ctx, req)
			if err != nil {
				logger.Warn("model call failed",
					"record_id", rec.ID, "model", m.ID, "tier", plan.Tier, "error", err)
				vote = ModelVote{
					ModelID:  m.ID,
					Tier:     plan.Tier,
					Decision: VoteError,
					Attempts: o.cfg.Retries + 1,
					Err:      err.Error(),
				}
			}
			vote.ModelID = m.ID
			vote.Tier = plan.Tier
			votes[i] = vote
		}()
	}
	wg.Wait()
	return votes
}

func copyCounts(counts map[DecisionClass]int) map[DecisionClass]int {
	out := make(map[DecisionClass]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}
