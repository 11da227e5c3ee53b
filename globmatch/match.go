// Package globmatch matches slash-separated repository paths against
// doublestar glob patterns.
//
// A pattern segment equal to "**" matches zero or more whole path segments.
// Every other segment matches exactly one path segment using fnmatch rules
// ("*", "?", "[...]" and "[!...]"), case-sensitive. Braces, a leading "^" in
// a class, backslashes and an unclosed "[" match literally.
package globmatch

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const globstar = "**"

// MatchPath reports whether path matches pattern.
// Leading, trailing and repeated slashes are ignored on both sides.
func MatchPath(path, pattern string) bool {
	return matchSegments(segments(path), segments(pattern))
}

// MatchAny reports whether path matches at least one of patterns.
// An empty pattern list matches nothing.
func MatchAny(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	parts := segments(path)
	for _, p := range patterns {
		if matchSegments(parts, segments(p)) {
			return true
		}
	}
	return false
}

// HasLiteralMeta reports whether pattern uses braces, a "[^...]" class or an
// unclosed "[". Other glob dialects treat these as operators; here they
// match literally.
func HasLiteralMeta(pattern string) bool {
	for _, seg := range segments(pattern) {
		if strings.ContainsAny(seg, "{}") || strings.Contains(seg, "[^") {
			return true
		}
		if open := strings.LastIndexByte(seg, '['); open >= 0 && !strings.Contains(seg[open:], "]") {
			return true
		}
	}
	return false
}

// segments splits s on "/" and drops empty segments.
func segments(s string) []string {
	raw := strings.Split(s, "/")
	out := raw[:0]
	for _, seg := range raw {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// matchSegments walks path (i) and pattern (j) cursors with backtracking on "**".
func matchSegments(path, pattern []string) bool {
	var rec func(i, j int) bool
	rec = func(i, j int) bool {
		if j >= len(pattern) {
			return i >= len(path)
		}

		if pattern[j] == globstar {
			if rec(i, j+1) {
				return true
			}
			return i < len(path) && rec(i+1, j)
		}

		if i >= len(path) {
			return false
		}
		if !matchSegment(path[i], pattern[j]) {
			return false
		}
		return rec(i+1, j+1)
	}
	return rec(0, 0)
}

// matchSegment matches a single path segment. The pattern segment holds no
// separator, so doublestar applies plain glob rules to it.
func matchSegment(name, pattern string) bool {
	ok, err := doublestar.Match(escapeSegment(pattern), name)
	if err != nil {
		return false
	}
	return ok
}

// escapeSegment rewrites an fnmatch segment as the equivalent doublestar
// pattern.
func escapeSegment(seg string) string {
	var b strings.Builder
	n := len(seg)
	for i := 0; i < n; {
		c := seg[i]
		switch c {
		case '\\', '{', '}':
			b.WriteByte('\\')
			b.WriteByte(c)
			i++
		case '[':
			// A "]" right after "[" or "[!" is a member, not the end.
			j := i + 1
			if j < n && seg[j] == '!' {
				j++
			}
			if j < n && seg[j] == ']' {
				j++
			}
			for j < n && seg[j] != ']' {
				j++
			}
			if j >= n {
				b.WriteString(`\[`)
				i++
				continue
			}

			body := seg[i+1 : j]
			b.WriteByte('[')
			if strings.HasPrefix(body, "!") {
				b.WriteByte('!')
				body = body[1:]
			}
			for k := 0; k < len(body); k++ {
				switch body[k] {
				case '\\', ']', '^', '!':
					b.WriteByte('\\')
				}
				b.WriteByte(body[k])
			}
			b.WriteByte(']')
			i = j + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
