package screen

import "math"

// Consensus is the aggregated outcome of all votes gathered so far for one
// record. Conclusive=false prompts the escalation controller to query the
// next tier.
type Consensus struct {
	Decision   DecisionClass
	Score      float64 // normalized [0,1]; 1 = unanimous include
	Confidence float64
	Margin     float64 // net weighted vote mass, sum(polarity x confidence)
	Conclusive bool
	ValidVotes int // votes counted toward consensus (non-ERROR)
}

// polarity maps a vote decision to its numeric direction.
func polarity(d VoteDecision) float64 {
	switch d {
	case VoteInclude:
		return 1
	case VoteExclude:
		return -1
	default:
		return 0
	}
}

// Aggregate folds votes and the rule match into one consensus. It is a pure
// function: identical inputs always yield identical output, with no
// order-dependence on the vote slice beyond the values themselves.
//
// A forced rule decision short-circuits everything with confidence 1.
// ERROR votes are excluded from the count but stay in the caller's audit
// trail; a tier where every vote errored is inconclusive below the max
// tier and resolves to HUMAN_REVIEW at it, never to a silent EXCLUDE.
func Aggregate(votes []ModelVote, rule RuleMatch, cfg RunConfig, tier int) Consensus {
	if rule.Forced != "" {
		return Consensus{
			Decision:   rule.Forced,
			Score:      forcedScore(rule.Forced),
			Confidence: 1,
			Conclusive: true,
		}
	}

	var margin, weight float64
	var lo, hi float64 // spread bounds over signed vote values
	valid := 0
	for _, v := range votes {
		if v.Decision == VoteError {
			continue
		}
		signed := polarity(v.Decision) * v.Confidence
		if valid == 0 {
			lo, hi = signed, signed
		} else {
			lo = math.Min(lo, signed)
			hi = math.Max(hi, signed)
		}
		margin += signed
		weight += v.Confidence
		valid++
	}

	if valid == 0 {
		// Nothing to aggregate: escalate, or hold at HUMAN_REVIEW on the
		// final tier.
		return Consensus{
			Decision:   DecideHumanReview,
			Score:      0.5,
			Conclusive: tier >= cfg.MaxTier,
		}
	}

	score := 0.5
	if weight > 0 {
		score = 0.5 + margin/(2*weight)
	}

	decision := DecideHumanReview
	switch {
	case margin >= cfg.UpperThreshold:
		decision = DecideInclude
	case margin <= cfg.LowerThreshold:
		decision = DecideExclude
	}

	spread := hi - lo
	conclusive := decision != DecideHumanReview ||
		spread <= cfg.AgreementSpread ||
		tier >= cfg.MaxTier

	return Consensus{
		Decision:   decision,
		Score:      clamp01(score),
		Confidence: consensusConfidence(margin, spread, cfg),
		Margin:     margin,
		Conclusive: conclusive,
		ValidVotes: valid,
	}
}

// consensusConfidence is the dispersion-adjusted distance from the margin to
// the nearest decision threshold, normalized by half the inter-threshold
// span. Tight agreement keeps the distance term intact; maximal disagreement
// halves it.
func consensusConfidence(margin, spread float64, cfg RunConfig) float64 {
	halfSpan := (cfg.UpperThreshold - cfg.LowerThreshold) / 2
	if halfSpan <= 0 {
		return 0
	}
	dist := math.Min(math.Abs(margin-cfg.UpperThreshold), math.Abs(margin-cfg.LowerThreshold))
	distNorm := math.Min(1, dist/halfSpan)
	agreement := 1 - math.Min(spread, 2)/2
	return clamp01(distNorm * (0.5 + 0.5*agreement))
}

func forcedScore(d DecisionClass) float64 {
	if d == DecideInclude {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
