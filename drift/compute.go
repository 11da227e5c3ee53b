package drift

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/c360studio/yagnidrift/globmatch"
	"github.com/c360studio/yagnidrift/policy"
)

// NoteNoChanges is recorded when the change enumerator had nothing to offer.
const NoteNoChanges = "no working changes available"

// bookkeepingPrefixes are never scored, even under a hand-built policy.
var bookkeepingPrefixes = []string{
	policy.WorkgraphDir + "/",
	policy.GitDir + "/",
}

// Input bundles everything a drift check needs.
type Input struct {
	TaskID    string
	TaskTitle string
	// Description and GitRoot are passed through; they never affect scoring.
	Description string
	GitRoot     *string
	Policy      policy.Policy
	// Changes may be nil when the working tree could not be inspected.
	Changes *ChangeSet
}

// Compute scores a change set against a policy.
func Compute(in Input) Report {
	p := in.Policy

	var changed, added []string
	if in.Changes != nil {
		changed = effectiveChanged(in.Changes.ChangedFiles, p.Ignore)
		added = restrictTo(in.Changes.NewFiles, changed)
	}
	dirs := newDirs(added)

	telemetry := Telemetry{
		FilesChanged: len(changed),
		NewFiles:     len(added),
		NewDirs:      len(dirs),
	}
	if in.Changes == nil {
		telemetry.Note = NoteNoChanges
	}

	findings := []Finding{}

	if p.Schema != policy.SupportedSchema {
		findings = append(findings, Finding{
			Kind:     KindUnsupportedSchema,
			Severity: SeverityWarn,
			Summary:  fmt.Sprintf("Unsupported yagnidrift schema: %d (expected %d)", p.Schema, policy.SupportedSchema),
		})
	}

	if len(added) > p.MaxNewFiles {
		findings = append(findings, Finding{
			Kind:     KindTooManyNewFiles,
			Severity: SeverityWarn,
			Summary:  fmt.Sprintf("Task adds many new files (%d > %d)", len(added), p.MaxNewFiles),
			Details:  map[string][]string{DetailNewFiles: head(added, maxReportedNewFiles)},
		})
	}

	if len(dirs) > p.MaxNewDirs {
		findings = append(findings, Finding{
			Kind:     KindTooManyNewDirs,
			Severity: SeverityWarn,
			Summary:  fmt.Sprintf("Task adds many new directories (%d > %d)", len(dirs), p.MaxNewDirs),
			Details:  map[string][]string{DetailNewDirs: head(dirs, maxReportedNewDirs)},
		})
	}

	if p.EnforceNoSpeculativeAbstractions {
		var speculative []string
		for _, f := range added {
			if globmatch.MatchAny(f, p.AllowPaths) {
				continue
			}
			if isSpeculative(f, p.AbstractionKeywords) {
				speculative = append(speculative, f)
			}
		}
		if len(speculative) > 0 {
			findings = append(findings, Finding{
				Kind:     KindSpeculativeAbstraction,
				Severity: SeverityWarn,
				Summary:  "Task appears to add speculative abstraction layers not required by current scope",
				Details:  map[string][]string{DetailFiles: head(speculative, maxReportedSpeculative)},
			})
		}
	}

	echoed := clonePolicy(p)
	return Report{
		TaskID:          in.TaskID,
		TaskTitle:       in.TaskTitle,
		GitRoot:         in.GitRoot,
		Score:           scoreOf(findings),
		Policy:          &echoed,
		Telemetry:       telemetry,
		Findings:        findings,
		Recommendations: recommend(findings),
	}
}

// effectiveChanged drops bookkeeping and ignored paths, keeping input order.
func effectiveChanged(files, ignore []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if isBookkeeping(f) || globmatch.MatchAny(f, ignore) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isBookkeeping(p string) bool {
	for _, prefix := range bookkeepingPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// restrictTo keeps the files that also appear in universe, in input order.
func restrictTo(files, universe []string) []string {
	member := make(map[string]bool, len(universe))
	for _, u := range universe {
		member[u] = true
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if member[f] {
			out = append(out, f)
		}
	}
	return out
}

// newDirs returns the sorted distinct parent directories of files, skipping
// files that sit at the repository root.
func newDirs(files []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, f := range files {
		dir := path.Dir(path.Clean(f))
		if dir == "" || dir == "." || seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)
	return dirs
}

// isSpeculative reports whether the file stem or any path segment contains
// one of the keywords. Segments are compared lower-cased with hyphens
// normalized to underscores.
func isSpeculative(file string, keywords []string) bool {
	low := strings.ToLower(file)
	stem := fileStem(low)
	var parts []string
	for _, seg := range strings.Split(strings.ReplaceAll(low, "-", "_"), "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}

	for _, kw := range keywords {
		token := strings.ToLower(strings.TrimSpace(kw))
		if token == "" {
			continue
		}
		if strings.Contains(stem, token) {
			return true
		}
		for _, part := range parts {
			if strings.Contains(part, token) {
				return true
			}
		}
	}
	return false
}

// fileStem returns the final path element without its last extension.
// Dotfiles such as ".env" keep their full name.
func fileStem(p string) string {
	name := path.Base(path.Clean("/" + p))
	if name == "/" {
		return ""
	}
	if i := strings.LastIndex(name, "."); i > 0 && i < len(name)-1 {
		return name[:i]
	}
	return name
}

// scoreOf grades findings: any warn is yellow, any error is red, red wins.
func scoreOf(findings []Finding) Score {
	score := ScoreGreen
	for _, f := range findings {
		if f.Severity == SeverityWarn {
			score = ScoreYellow
			break
		}
	}
	for _, f := range findings {
		if f.Severity == SeverityError {
			return ScoreRed
		}
	}
	return score
}

func head(xs []string, n int) []string {
	if len(xs) > n {
		xs = xs[:n]
	}
	return append([]string{}, xs...)
}

func clonePolicy(p policy.Policy) policy.Policy {
	p.AbstractionKeywords = slices.Clone(p.AbstractionKeywords)
	p.AllowPaths = slices.Clone(p.AllowPaths)
	p.Ignore = slices.Clone(p.Ignore)
	return p
}
