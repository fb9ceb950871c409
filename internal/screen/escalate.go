package screen

// TierPlan is the escalation controller's instruction for one record: either
// query the listed models at Tier, or terminate with the current consensus.
type TierPlan struct {
	Tier      int
	Models    []ModelConfig
	RuleMatch RuleMatch
	// Terminate means no further model calls: the record is decided by the
	// rule override (tier 0) or by the consensus gathered so far.
	Terminate bool
}

// Escalator decides, per record, whether cheap tier-0 signals suffice or
// additional model tiers must be queried. Escalation is monotonic: votes
// from lower tiers are never discarded, only supplemented.
type Escalator struct {
	cfg   RunConfig
	rules *RuleSet
}

// NewEscalator builds an escalation controller over a compiled rule overlay.
func NewEscalator(cfg RunConfig, rules *RuleSet) *Escalator {
	return &Escalator{cfg: cfg, rules: rules}
}

// SelectTier returns the next tier plan for a record given the votes
// gathered so far and the latest consensus (nil before the first tier).
//
// Tier 0 evaluates the rule overlay only; a forced decision is the hard
// fast-path that skips all model calls. Afterwards the controller escalates
// tier by tier until the aggregator reports a conclusive consensus or the
// configured maximum tier has been queried.
func (e *Escalator) SelectTier(rec Record, votes []ModelVote, last *Consensus) TierPlan {
	if last == nil {
		match := e.rules.Evaluate(rec)
		if match.Forced != "" {
			return TierPlan{Tier: 0, RuleMatch: match, Terminate: true}
		}
		return TierPlan{Tier: 1, Models: e.cfg.TierModels(1), RuleMatch: match}
	}

	if last.Conclusive {
		return TierPlan{Tier: highestTier(votes), Terminate: true}
	}

	next := highestTier(votes) + 1
	for next <= e.cfg.MaxTier {
		models := e.cfg.TierModels(next)
		if len(models) > 0 {
			return TierPlan{Tier: next, Models: models}
		}
		next++ // tier has no models assigned; skip it
	}
	return TierPlan{Tier: highestTier(votes), Terminate: true}
}

func highestTier(votes []ModelVote) int {
	max := 0
	for _, v := range votes {
		if v.Tier > max {
			max = v.Tier
		}
	}
	return max
}
