// Package policy defines the yagnidrift policy: the thresholds, keywords and
// path rules that govern one drift scoring run.
package policy

import (
	"fmt"
	"strings"

	"github.com/c360studio/yagnidrift/globmatch"
)

// SupportedSchema is the only policy schema the drift engine understands.
const SupportedSchema = 1

// Defaults applied when a key is missing from the raw policy table.
const (
	DefaultMaxNewFiles = 8
	DefaultMaxNewDirs  = 3
)

// Bookkeeping directories that are never scored, whatever the user ignores.
const (
	WorkgraphDir = ".workgraph"
	GitDir       = ".git"
)

// DefaultAbstractionKeywords are the name fragments that suggest a
// speculative structural layer.
var DefaultAbstractionKeywords = []string{
	"factory",
	"adapter",
	"manager",
	"engine",
	"framework",
	"orchestrator",
	"provider",
	"base",
}

// AlwaysIgnored are appended to every policy's ignore list.
var AlwaysIgnored = []string{
	WorkgraphDir + "/**",
	GitDir + "/**",
}

// Raw keys of the policy table.
const (
	keySchema               = "schema"
	keyMaxNewFiles          = "max_new_files"
	keyMaxNewDirs           = "max_new_dirs"
	keyEnforceNoSpeculative = "enforce_no_speculative_abstractions"
	keyAbstractionKeywords  = "abstraction_keywords"
	keyAllowPaths           = "allow_paths"
	keyIgnore               = "ignore"
)

// Policy is a validated yagnidrift policy. Build it with FromRaw or Default;
// consumers treat it as a read-only value.
type Policy struct {
	Schema                           int      `json:"schema"`
	MaxNewFiles                      int      `json:"max_new_files"`
	MaxNewDirs                       int      `json:"max_new_dirs"`
	EnforceNoSpeculativeAbstractions bool     `json:"enforce_no_speculative_abstractions"`
	AbstractionKeywords              []string `json:"abstraction_keywords"`
	AllowPaths                       []string `json:"allow_paths"`
	Ignore                           []string `json:"ignore"`
}

// Default returns the policy used for an empty policy table.
func Default() Policy {
	p, _ := FromRaw(nil)
	return p
}

// FromRaw builds a Policy from a decoded policy table.
//
// Missing keys fall back to defaults, negative bounds are clamped to zero and
// keywords are lower-cased. The two bookkeeping ignore patterns are always
// appended. A *ValidationError is returned only when a value cannot be
// coerced to the type its key requires.
func FromRaw(raw map[string]any) (Policy, error) {
	schema, err := intField(raw, keySchema, SupportedSchema)
	if err != nil {
		return Policy{}, err
	}
	maxFiles, err := intField(raw, keyMaxNewFiles, DefaultMaxNewFiles)
	if err != nil {
		return Policy{}, err
	}
	maxDirs, err := intField(raw, keyMaxNewDirs, DefaultMaxNewDirs)
	if err != nil {
		return Policy{}, err
	}
	enforce, err := boolField(raw, keyEnforceNoSpeculative, true)
	if err != nil {
		return Policy{}, err
	}
	keywords, err := stringsField(raw, keyAbstractionKeywords)
	if err != nil {
		return Policy{}, err
	}
	allow, err := stringsField(raw, keyAllowPaths)
	if err != nil {
		return Policy{}, err
	}
	ignore, err := stringsField(raw, keyIgnore)
	if err != nil {
		return Policy{}, err
	}

	if len(keywords) == 0 {
		keywords = DefaultAbstractionKeywords
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	if allow == nil {
		allow = []string{}
	}

	return Policy{
		Schema:                           schema,
		MaxNewFiles:                      max(maxFiles, 0),
		MaxNewDirs:                       max(maxDirs, 0),
		EnforceNoSpeculativeAbstractions: enforce,
		AbstractionKeywords:              lowered,
		AllowPaths:                       allow,
		Ignore:                           append(append([]string{}, ignore...), AlwaysIgnored...),
	}, nil
}

// Lint returns human-readable warnings for allow and ignore patterns that
// use braces, a "[^...]" class or an unclosed "[". Those characters match
// literally, which is rarely what the author meant.
func (p Policy) Lint() []string {
	var warnings []string
	for _, pat := range p.AllowPaths {
		if globmatch.HasLiteralMeta(pat) {
			warnings = append(warnings, fmt.Sprintf("allow_paths: pattern %q matches {, }, ^ or [ literally", pat))
		}
	}
	for _, pat := range p.Ignore {
		if globmatch.HasLiteralMeta(pat) {
			warnings = append(warnings, fmt.Sprintf("ignore: pattern %q matches {, }, ^ or [ literally", pat))
		}
	}
	return warnings
}
