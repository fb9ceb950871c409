// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans. Use these functions in
// CLI output and reports; keep raw codes for JSON fields and comparisons.
package display

// --- Screening decisions ---

var decisions = map[string]string{
	"INCLUDE":      "Include",
	"EXCLUDE":      "Exclude",
	"HUMAN_REVIEW": "Human review",
}

// Decision returns the human-readable name for a decision code.
// Unknown codes are returned as-is.
func Decision(code string) string {
	if name, ok := decisions[code]; ok {
		return name
	}
	return code
}

// --- Vote decisions ---

var votes = map[string]string{
	"INCLUDE": "Include",
	"EXCLUDE": "Exclude",
	"UNCLEAR": "Unclear",
	"ERROR":   "Error",
}

// Vote returns the human-readable name for a model vote code.
func Vote(code string) string {
	if name, ok := votes[code]; ok {
		return name
	}
	return code
}

// --- Escalation tiers ---

var tiers = map[int]string{
	0: "Tier 0 (rules)",
	1: "Tier 1 (quorum)",
	2: "Tier 2 (extended)",
	3: "Tier 3 (full panel)",
}

// Tier returns the human-readable name for an escalation tier.
func Tier(tier int) string {
	if name, ok := tiers[tier]; ok {
		return name
	}
	return "Tier ?"
}

// --- Record statuses ---

var statuses = map[string]string{
	"PENDING":      "Pending",
	"TIER_0":       "Evaluating rules",
	"TIER_1":       "Querying quorum",
	"TIER_2":       "Escalated",
	"TIER_3":       "Escalated (full panel)",
	"DECIDED":      "Decided",
	"HUMAN_REVIEW": "Needs human review",
	"FAILED":       "Failed",
}

// Status returns the human-readable name for a record status code.
func Status(code string) string {
	if name, ok := statuses[code]; ok {
		return name
	}
	return code
}

// --- Evaluation metrics ---

var metrics = map[string]string{
	"E1":  "Sensitivity (recall)",
	"E2":  "Specificity",
	"E3":  "F1 score",
	"E4":  "Cohen's kappa",
	"E5":  "WSS@95",
	"E6":  "AUROC",
	"E7":  "Expected calibration error",
	"E8":  "Brier score",
	"E9":  "Precision",
	"E10": "Accuracy",
}

// Metric returns the human-readable name for a metric ID.
func Metric(id string) string {
	if name, ok := metrics[id]; ok {
		return name
	}
	return id
}

// PassBadge renders a pass flag the way the scorecard table expects it.
func PassBadge(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
