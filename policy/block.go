package policy

import (
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FenceInfo is the info string of the fenced block that carries a policy.
const FenceInfo = "yagnidrift"

var fenceRe = regexp.MustCompile("(?s)```" + FenceInfo + `\s*\n(.*?)\n` + "```")

// ExtractBlock returns the trimmed body of the first yagnidrift fenced block
// in description. ok is false when no block is present.
func ExtractBlock(description string) (body string, ok bool) {
	m := fenceRe.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// FenceBlock wraps body back into a yagnidrift fenced block.
func FenceBlock(body string) string {
	return "```" + FenceInfo + "\n" + body + "\n```"
}

// ParseBlock decodes a block body as a TOML table.
func ParseBlock(text string) (map[string]any, error) {
	raw := map[string]any{}
	if err := toml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	return raw, nil
}

// Load parses a block body and builds the policy it describes.
func Load(text string) (Policy, error) {
	raw, err := ParseBlock(text)
	if err != nil {
		return Policy{}, err
	}
	return FromRaw(raw)
}
