package screen

import (
	"sort"
	"strings"
)

// RuleSet is the compiled rule overlay for one criteria set. Matching is
// case-insensitive substring search over title plus abstract; terms are
// normalized once at compile time so per-record evaluation allocates little.
type RuleSet struct {
	hardInclude []string
	hardExclude []string
	soft        []string
}

// CompileRules builds the rule overlay from a frozen criteria set.
func CompileRules(criteria *CriteriaSet) *RuleSet {
	rs := &RuleSet{
		hardInclude: normalizeTerms(criteria.HardIncludeTerms),
		hardExclude: normalizeTerms(criteria.HardExcludeTerms),
	}
	rs.soft = append(normalizeTerms(criteria.IncludeTerms), normalizeTerms(criteria.ExcludeTerms)...)
	return rs
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Evaluate recomputes the rule match for one record. A hard-exclude hit
// forces EXCLUDE; otherwise a hard-include hit forces INCLUDE. Exclude wins
// over include so a conflicting record is never auto-admitted by rules.
// Matched terms are sorted for reproducible audit output.
func (r *RuleSet) Evaluate(rec Record) RuleMatch {
	text := strings.ToLower(rec.Title + "\n" + rec.Abstract)

	var match RuleMatch
	if hits := matchTerms(text, r.hardExclude); len(hits) > 0 {
		match.Forced = DecideExclude
		match.MatchedTerms = hits
	} else if hits := matchTerms(text, r.hardInclude); len(hits) > 0 {
		match.Forced = DecideInclude
		match.MatchedTerms = hits
	}
	match.MatchedTerms = append(match.MatchedTerms, matchTerms(text, r.soft)...)
	sort.Strings(match.MatchedTerms)
	match.MatchedTerms = dedupe(match.MatchedTerms)
	return match
}

func matchTerms(text string, terms []string) []string {
	var hits []string
	for _, t := range terms {
		if strings.Contains(text, t) {
			hits = append(hits, t)
		}
	}
	return hits
}

func dedupe(sorted []string) []string {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, s := range sorted[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
