package screen

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the screening prompt for one record from the frozen
// criteria set. The shape is fixed: models must answer with a single JSON
// object {"decision": "...", "confidence": 0.0-1.0, "rationale": "..."}.
func BuildPrompt(criteria *CriteriaSet, rec Record) string {
	var b strings.Builder
	b.WriteString("You are screening bibliographic records for a systematic literature review.\n\n")
	fmt.Fprintf(&b, "Review topic: %s\n", criteria.Description)
	if criteria.Framework != "" {
		fmt.Fprintf(&b, "Criteria framework: %s\n", criteria.Framework)
	}
	if len(criteria.IncludeTerms) > 0 {
		fmt.Fprintf(&b, "Inclusion signals: %s\n", strings.Join(criteria.IncludeTerms, "; "))
	}
	if len(criteria.ExcludeTerms) > 0 {
		fmt.Fprintf(&b, "Exclusion signals: %s\n", strings.Join(criteria.ExcludeTerms, "; "))
	}
	b.WriteString("\n--- Record ---\n")
	fmt.Fprintf(&b, "Title: %s\n", rec.Title)
	if rec.Abstract != "" {
		fmt.Fprintf(&b, "Abstract: %s\n", rec.Abstract)
	} else {
		b.WriteString("Abstract: (not available)\n")
	}
	if rec.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", rec.Source)
	}
	b.WriteString("\nDecide INCLUDE, EXCLUDE, or UNCLEAR. Respond with one JSON object:\n")
	b.WriteString(`{"decision": "INCLUDE|EXCLUDE|UNCLEAR", "confidence": 0.0, "rationale": "..."}`)
	b.WriteString("\n")
	return b.String()
}
