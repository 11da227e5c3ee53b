package drift

// NoteNoPolicy is recorded when the task carries no yagnidrift block.
const NoteNoPolicy = "no yagnidrift block"

// NoPolicyReport is the green report for a task without a policy block.
// Absence of a policy is not an error.
func NoPolicyReport(taskID, taskTitle string) Report {
	return Report{
		TaskID:          taskID,
		TaskTitle:       taskTitle,
		Score:           ScoreGreen,
		Telemetry:       Telemetry{Note: NoteNoPolicy, countless: true},
		Findings:        []Finding{},
		Recommendations: []Recommendation{},
	}
}

// InvalidPolicyReport is the yellow report for a policy block that could not
// be parsed or validated.
func InvalidPolicyReport(taskID, taskTitle string, cause error) Report {
	telemetry := Telemetry{countless: true}
	if cause != nil {
		telemetry.ParseError = cause.Error()
	}

	recs := []Recommendation{}
	if rec, ok := KindInvalidPolicy.Recommendation(); ok {
		recs = append(recs, rec)
	}

	return Report{
		TaskID:    taskID,
		TaskTitle: taskTitle,
		Score:     ScoreYellow,
		Telemetry: telemetry,
		Findings: []Finding{{
			Kind:     KindInvalidPolicy,
			Severity: SeverityWarn,
			Summary:  "yagnidrift block present but could not be parsed",
		}},
		Recommendations: recs,
	}
}
