package workgraph

import (
	"strconv"
	"strings"
)

// DefaultNonGoals seed the non_goals list of generated contracts.
var DefaultNonGoals = []string{"No fallbacks/retries/guardrails unless acceptance requires it"}

// Contract limits written into generated wg-contract blocks.
const (
	contractMaxFiles     = 25
	contractMaxLOC       = 800
	contractPitStopAfter = 3
)

// DefaultContractBlock renders a wg-contract fenced block with the standard
// limits. The block ends with a newline.
func DefaultContractBlock(mode, objective string, touch []string) string {
	lines := []string{
		"```wg-contract",
		"schema = 1",
		"mode = " + tomlString(mode),
		"objective = " + tomlString(objective),
		"non_goals = " + tomlStringList(DefaultNonGoals),
		"touch = " + tomlStringList(touch),
		"acceptance = []",
		"max_files = " + strconv.Itoa(contractMaxFiles),
		"max_loc = " + strconv.Itoa(contractMaxLOC),
		"pit_stop_after = " + strconv.Itoa(contractPitStopAfter),
		"auto_followups = true",
		"```",
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\r\n") + "\n"
}

// tomlString quotes s as a basic TOML string. Double quotes are dropped and
// newlines flattened rather than escaped.
func tomlString(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "\n", " ")
	return `"` + strings.TrimSpace(s) + `"`
}

// tomlStringList renders one item per line with a trailing comma.
func tomlStringList(xs []string) string {
	out := []string{"["}
	for _, x := range xs {
		out = append(out, "  "+tomlString(x)+",")
	}
	out = append(out, "]")
	return strings.Join(out, "\n")
}
