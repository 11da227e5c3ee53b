// Package drift scores a working-tree change set against a yagnidrift policy
// and reports premature structural complexity.
//
// Scoring is a pure, single-pass computation: Compute never touches the disk
// or the network, and identical inputs produce identical reports.
package drift

import (
	"encoding/json"
	"slices"

	"github.com/c360studio/yagnidrift/policy"
)

// Kind identifies the rule that produced a finding.
type Kind string

const (
	// KindUnsupportedSchema flags a policy whose schema is not 1.
	KindUnsupportedSchema Kind = "unsupported_schema"
	// KindTooManyNewFiles flags more new files than the policy allows.
	KindTooManyNewFiles Kind = "too_many_new_files"
	// KindTooManyNewDirs flags more new directories than the policy allows.
	KindTooManyNewDirs Kind = "too_many_new_dirs"
	// KindSpeculativeAbstraction flags new files named like abstraction layers.
	KindSpeculativeAbstraction Kind = "speculative_abstraction"
	// KindInvalidPolicy flags a policy block that could not be read.
	KindInvalidPolicy Kind = "invalid_yagnidrift_spec"
)

// Severity grades a finding.
type Severity string

const (
	SeverityWarn Severity = "warn"
	// SeverityError is reserved; no rule emits it yet.
	SeverityError Severity = "error"
)

// Score is the overall traffic-light result of a report.
type Score string

const (
	ScoreGreen  Score = "green"
	ScoreYellow Score = "yellow"
	ScoreRed    Score = "red"
)

// Detail keys attached to findings.
const (
	DetailNewFiles = "new_files"
	DetailNewDirs  = "new_dirs"
	DetailFiles    = "files"
)

// Caps on the number of paths attached to a finding.
const (
	maxReportedNewFiles    = 60
	maxReportedNewDirs     = 30
	maxReportedSpeculative = 50
)

// ChangeSet lists the files touched in the working tree. NewFiles is
// expected to be a subset of ChangedFiles; Compute enforces it.
type ChangeSet struct {
	ChangedFiles []string `json:"changed_files"`
	NewFiles     []string `json:"new_files"`
}

// Finding is one rule violation.
type Finding struct {
	Kind     Kind                `json:"kind"`
	Severity Severity            `json:"severity"`
	Summary  string              `json:"summary"`
	Details  map[string][]string `json:"details"`
}

// Recommendation is a suggested next action tied to a finding kind.
type Recommendation struct {
	Priority  string `json:"priority"`
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
}

// Telemetry carries the counters behind a report.
type Telemetry struct {
	FilesChanged int    `json:"files_changed"`
	NewFiles     int    `json:"new_files"`
	NewDirs      int    `json:"new_dirs"`
	Note         string `json:"note,omitempty"`
	ParseError   string `json:"parse_error,omitempty"`

	// countless is set on reports that never looked at the working tree.
	// They serialize only their note or parse error.
	countless bool
}

// MarshalJSON drops the counters from degraded telemetry.
func (t Telemetry) MarshalJSON() ([]byte, error) {
	if !t.countless {
		type counted Telemetry
		return encodeJSON(counted(t))
	}
	return encodeJSON(struct {
		Note       string `json:"note,omitempty"`
		ParseError string `json:"parse_error,omitempty"`
	}{t.Note, t.ParseError})
}

// UnmarshalJSON restores the countless flag from a document without counters.
func (t *Telemetry) UnmarshalJSON(data []byte) error {
	type counted Telemetry
	var keys struct {
		FilesChanged *int `json:"files_changed"`
	}
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	var c counted
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*t = Telemetry(c)
	t.countless = keys.FilesChanged == nil
	return nil
}

// Report is the result of one drift check.
type Report struct {
	TaskID          string           `json:"task_id"`
	TaskTitle       string           `json:"task_title"`
	GitRoot         *string          `json:"git_root"`
	Score           Score            `json:"score"`
	Policy          *policy.Policy   `json:"spec"`
	Telemetry       Telemetry        `json:"telemetry"`
	Findings        []Finding        `json:"findings"`
	Recommendations []Recommendation `json:"recommendations"`

	// Block is the fenced policy text the report was computed from. It is
	// provenance for follow-up tasks and never feeds scoring.
	Block string `json:"_yagnidrift_block,omitempty"`
}

// Kinds returns the distinct finding kinds in the report, sorted.
func (r *Report) Kinds() []Kind {
	seen := make(map[Kind]bool, len(r.Findings))
	var kinds []Kind
	for _, f := range r.Findings {
		if !seen[f.Kind] {
			seen[f.Kind] = true
			kinds = append(kinds, f.Kind)
		}
	}
	slices.Sort(kinds)
	return kinds
}

// HasFindings reports whether any rule fired.
func (r *Report) HasFindings() bool {
	return len(r.Findings) > 0
}
