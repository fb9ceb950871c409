// Package report renders screening results and evaluation metrics into the
// fixed human-readable report format. It owns the typography (percentages
// to one decimal, kappa and scores to two or three, en-dash CI ranges) so
// CLI and MCP surfaces stay consistent.
package report

import (
	"fmt"
	"strings"

	"sift/internal/display"
	"sift/internal/eval"
	"sift/internal/format"
	"sift/internal/screen"
)

// percentMetrics render as percentages; everything else renders as a plain
// three-decimal value.
var percentMetrics = map[string]bool{
	"E1": true, "E2": true, "E5": true, "E9": true, "E10": true,
}

// Scorecard renders the evaluation metrics as a pass/fail table.
func Scorecard(r *eval.Report, mode format.Mode) string {
	t := format.NewTable(mode)
	t.Header("ID", "Metric", "Value", "95% CI", "Target", "Status", "Detail")
	passed := 0
	for _, m := range r.Metrics {
		if m.Pass {
			passed++
		}
		t.Row(m.ID, display.Metric(m.ID), metricValue(m), ciRange(m),
			targetText(m), display.PassBadge(m.Pass), m.Detail)
	}
	t.Footer("", "", "", "", "", fmt.Sprintf("%d/%d", passed, len(r.Metrics)), "")
	t.Columns(
		format.Column{Number: 3, Align: format.AlignRight},
		format.Column{Number: 4, Align: format.AlignRight},
		format.Column{Number: 5, Align: format.AlignRight},
		format.Column{Number: 7, MaxWidth: 40},
	)
	return t.String()
}

// SummaryLine is the one-sentence headline for an evaluation:
// "Sensitivity 96.7% (95% CI 88.1%–99.3%), specificity 84.2% (...), κ = 0.87, WSS@95 42.0%."
func SummaryLine(r *eval.Report) string {
	sens := r.Find("E1")
	spec := r.Find("E2")
	kappa := r.Find("E4")
	wss := r.Find("E5")
	return fmt.Sprintf("Sensitivity %s (95%% CI %s), specificity %s (95%% CI %s), κ = %.2f, WSS@95 %s.",
		percent(sens.Value), percentRange(sens),
		percent(spec.Value), percentRange(spec),
		kappa.Value,
		percent(wss.Value))
}

// JoinLine reports the label join outcome, mismatches included.
func JoinLine(r *eval.Report) string {
	return fmt.Sprintf("Evaluated %d records (%d decisions without labels, %d labels without decisions, %d failed records excluded).",
		r.Joined, r.UnmatchedDecisions, r.UnmatchedLabels, r.FailedExcluded)
}

// DecisionTable renders the per-record outcome table.
func DecisionTable(rs *screen.ResultSet, mode format.Mode) string {
	t := format.NewTable(mode)
	t.Header("Record", "Decision", "Tier", "Score", "Confidence", "Votes", "Rule")
	for _, d := range rs.Decisions {
		rule := ""
		if d.RuleOverride {
			rule = "override"
		}
		decision := display.Decision(string(d.Decision))
		if d.Status == screen.StatusFailed {
			decision = display.Status(string(d.Status))
		}
		t.Row(d.RecordID, decision, d.Tier,
			fmt.Sprintf("%.3f", d.Score), fmt.Sprintf("%.2f", d.Confidence),
			len(d.Votes), rule)
	}
	counts := rs.Counts()
	t.Footer("", fmt.Sprintf("%d inc / %d exc / %d review / %d failed",
		counts[screen.DecideInclude], counts[screen.DecideExclude],
		counts[screen.DecideHumanReview], rs.FailedCount), "", "", "", "", "")
	t.Columns(
		format.Column{Number: 4, Align: format.AlignRight},
		format.Column{Number: 5, Align: format.AlignRight},
	)
	return t.String()
}

// VoteTrail renders the per-model audit trail for one decision.
func VoteTrail(d screen.Decision, mode format.Mode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s at %s (score %.3f, confidence %.2f)\n",
		d.RecordID, display.Decision(string(d.Decision)), display.Tier(d.Tier), d.Score, d.Confidence)
	if d.RuleOverride {
		fmt.Fprintf(&b, "Rule override on terms: %s\n", strings.Join(d.MatchedTerms, ", "))
		return b.String()
	}
	t := format.NewTable(mode)
	t.Header("Model", "Tier", "Vote", "Confidence", "Attempts", "Latency", "Rationale")
	for _, v := range d.Votes {
		rationale := v.Rationale
		if v.Decision == screen.VoteError {
			rationale = v.Err
		}
		t.Row(v.ModelID, v.Tier, display.Vote(string(v.Decision)),
			fmt.Sprintf("%.2f", v.Confidence), v.Attempts,
			v.Latency.Round(1e6), rationale)
	}
	t.Columns(format.Column{Number: 7, MaxWidth: 48})
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

func metricValue(m eval.Metric) string {
	if percentMetrics[m.ID] {
		return percent(m.Value)
	}
	return fmt.Sprintf("%.3f", m.Value)
}

func targetText(m eval.Metric) string {
	op := "≥"
	if m.ID == "E7" || m.ID == "E8" {
		op = "≤"
	}
	if percentMetrics[m.ID] {
		return op + " " + percent(m.Threshold)
	}
	return fmt.Sprintf("%s %.2f", op, m.Threshold)
}

func ciRange(m eval.Metric) string {
	if !m.HasCI {
		return "—"
	}
	if percentMetrics[m.ID] {
		return fmt.Sprintf("%s–%s", percent(m.CILow), percent(m.CIHigh))
	}
	return fmt.Sprintf("%.3f–%.3f", m.CILow, m.CIHigh)
}

func percentRange(m eval.Metric) string {
	if !m.HasCI {
		return "n/a"
	}
	return fmt.Sprintf("%s–%s", percent(m.CILow), percent(m.CIHigh))
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
