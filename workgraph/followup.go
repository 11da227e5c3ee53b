package workgraph

import (
	"strings"

	"github.com/c360studio/yagnidrift/drift"
)

// Follow-up task conventions.
const (
	FollowUpPrefix = "drift-yagni-"
	followUpMode   = "core"
	fallbackAction = "Reduce speculative complexity and keep only what current acceptance needs."
)

// FollowUpTags label every generated follow-up task.
var FollowUpTags = []string{"drift", "yagni"}

// FollowUp builds the follow-up task for a report with findings. ok is false
// when the report is clean.
func FollowUp(r drift.Report) (task NewTask, ok bool) {
	if !r.HasFindings() {
		return NewTask{}, false
	}

	title := r.TaskTitle
	if title == "" {
		title = r.TaskID
	}
	title = "yagni: " + title

	var actions []string
	for _, rec := range r.Recommendations {
		if a := strings.TrimSpace(rec.Action); a != "" {
			actions = append(actions, "- "+a)
		}
	}
	if len(actions) == 0 {
		actions = []string{"- " + fallbackAction}
	}

	kinds := r.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	var b strings.Builder
	b.WriteString("Reduce speculative complexity for this task.\n\n")
	b.WriteString("Context:\n")
	b.WriteString("- Origin task: " + r.TaskID + "\n")
	b.WriteString("- Findings: " + strings.Join(names, ", ") + "\n\n")
	b.WriteString("Recommended actions:\n")
	b.WriteString(strings.Join(actions, "\n") + "\n\n")
	b.WriteString(DefaultContractBlock(followUpMode, title, nil))
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(r.Block))
	b.WriteString("\n")

	return NewTask{
		ID:          FollowUpPrefix + r.TaskID,
		Title:       title,
		Description: b.String(),
		BlockedBy:   []string{r.TaskID},
		Tags:        append([]string{}, FollowUpTags...),
	}, true
}
