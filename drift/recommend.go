package drift

// PriorityHigh is the only priority the canned recommendations use.
const PriorityHigh = "high"

// recommendationOrder fixes the order recommendations appear in a report.
var recommendationOrder = []Kind{
	KindTooManyNewFiles,
	KindTooManyNewDirs,
	KindSpeculativeAbstraction,
	KindUnsupportedSchema,
}

// Recommendation returns the canned advice for a finding kind.
// ok is false for kinds that carry no advice.
func (k Kind) Recommendation() (rec Recommendation, ok bool) {
	switch k {
	case KindTooManyNewFiles:
		return Recommendation{
			Priority:  PriorityHigh,
			Action:    "Split work into smaller tasks or remove speculative file scaffolding",
			Rationale: "Large file creation bursts are a common sign of overbuilding ahead of validated need.",
		}, true
	case KindTooManyNewDirs:
		return Recommendation{
			Priority:  PriorityHigh,
			Action:    "Flatten directory structure to the minimum needed for this task",
			Rationale: "Premature structure multiplies maintenance cost and decision surface.",
		}, true
	case KindSpeculativeAbstraction:
		return Recommendation{
			Priority:  PriorityHigh,
			Action:    "Inline or defer abstraction layers until a second real use-case appears",
			Rationale: "YAGNI: abstractions should follow repeated pressure, not precede it.",
		}, true
	case KindUnsupportedSchema:
		return Recommendation{
			Priority:  PriorityHigh,
			Action:    "Set yagnidrift schema = 1",
			Rationale: "Only schema v1 is currently supported.",
		}, true
	case KindInvalidPolicy:
		return Recommendation{
			Priority:  PriorityHigh,
			Action:    "Fix the yagnidrift TOML block so it parses",
			Rationale: "Yagnidrift can only advise on complexity drift when it can read the configuration.",
		}, true
	default:
		return Recommendation{}, false
	}
}

// recommend emits one recommendation per finding kind present, in
// recommendationOrder, dropping repeated action text.
func recommend(findings []Finding) []Recommendation {
	present := make(map[Kind]bool, len(findings))
	for _, f := range findings {
		present[f.Kind] = true
	}

	recs := []Recommendation{}
	seen := make(map[string]bool)
	for _, kind := range recommendationOrder {
		if !present[kind] {
			continue
		}
		rec, ok := kind.Recommendation()
		if !ok || seen[rec.Action] {
			continue
		}
		seen[rec.Action] = true
		recs = append(recs, rec)
	}
	return recs
}
